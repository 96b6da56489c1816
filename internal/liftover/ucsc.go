// Package liftover maps genomic intervals between genome builds.
package liftover

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// UCSCTool maps intervals by invoking the UCSC liftOver binary against a
// chain file. The binary's interval round-trip goes through BED files:
//
//	liftOver oldFile map.chain newFile unMapped
//
// BED is 0-based half-open; conversion to and from the 1-based inclusive
// convention happens at this boundary only.
type UCSCTool struct {
	chainPath string
	binary    string
	logger    *zap.Logger
}

// NewUCSCTool creates a mapper backed by the given chain file. The liftOver
// binary is looked up on PATH unless overridden with SetBinary.
func NewUCSCTool(chainPath string) *UCSCTool {
	return &UCSCTool{
		chainPath: chainPath,
		binary:    "liftOver",
		logger:    zap.NewNop(),
	}
}

// SetBinary overrides the liftOver executable path.
func (t *UCSCTool) SetBinary(path string) {
	t.binary = path
}

// SetLogger sets the logger for liftover diagnostics.
func (t *UCSCTool) SetLogger(l *zap.Logger) {
	t.logger = l
}

// Map maps one interval into the target build. Returns an error wrapping
// ErrUnmapped, with the tool's stated reason where available, when the
// interval has no valid mapping.
func (t *UCSCTool) Map(ctx context.Context, iv Interval) (Interval, error) {
	dir, err := os.MkdirTemp("", "liftover")
	if err != nil {
		return Interval{}, fmt.Errorf("create liftover temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	inPath := filepath.Join(dir, "input.bed")
	outPath := filepath.Join(dir, "output.bed")
	unmappedPath := filepath.Join(dir, "unmapped.bed")

	if err := os.WriteFile(inPath, []byte(formatBED(iv)+"\n"), 0o644); err != nil {
		return Interval{}, fmt.Errorf("write liftover input: %w", err)
	}

	cmd := exec.CommandContext(ctx, t.binary, inPath, t.chainPath, outPath, unmappedPath)
	if out, err := cmd.CombinedOutput(); err != nil {
		return Interval{}, fmt.Errorf("liftOver failed for %s: %w: %s", iv, err, strings.TrimSpace(string(out)))
	}

	mapped, err := readBED(outPath)
	if err != nil {
		return Interval{}, err
	}
	if mapped != nil {
		t.logger.Debug("lifted interval",
			zap.String("from", iv.String()),
			zap.String("to", mapped.String()))
		return *mapped, nil
	}

	reason := readUnmappedReason(unmappedPath)
	if reason != "" {
		return Interval{}, fmt.Errorf("%w: %s: %s", ErrUnmapped, iv, reason)
	}
	return Interval{}, fmt.Errorf("%w: %s", ErrUnmapped, iv)
}

// formatBED renders the interval as a BED6 line; liftOver only tracks strand
// through the strand column, so BED3 would hide strand-flipping chain blocks.
// Chain files name chromosomes with the "chr" prefix, so it is restored here.
func formatBED(iv Interval) string {
	chrom := iv.Chrom
	if !strings.HasPrefix(chrom, "chr") {
		chrom = "chr" + chrom
	}
	strand := iv.Strand
	if strand == "" {
		strand = "+"
	}
	return fmt.Sprintf("%s\t%d\t%d\t.\t0\t%s", chrom, iv.Start-1, iv.End, strand)
}

// parseBED parses a BED line back into a 1-based interval, with the "chr"
// prefix stripped again. The strand column is kept when present.
func parseBED(line string) (Interval, error) {
	fields := strings.Split(strings.TrimSpace(line), "\t")
	if len(fields) < 3 {
		return Interval{}, fmt.Errorf("invalid BED line %q", line)
	}
	start, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return Interval{}, fmt.Errorf("parse BED start: %w", err)
	}
	end, err := strconv.ParseInt(fields[2], 10, 64)
	if err != nil {
		return Interval{}, fmt.Errorf("parse BED end: %w", err)
	}
	iv := Interval{
		Chrom: strings.TrimPrefix(fields[0], "chr"),
		Start: start + 1,
		End:   end,
	}
	if len(fields) >= 6 {
		iv.Strand = fields[5]
	}
	return iv, nil
}

// readBED reads the first interval of a BED file, or nil if the file is
// empty or absent.
func readBED(path string) (*Interval, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read liftover output: %w", err)
	}
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}
		iv, err := parseBED(line)
		if err != nil {
			return nil, err
		}
		return &iv, nil
	}
	return nil, nil
}

// readUnmappedReason returns the "#"-prefixed reason line liftOver writes to
// its unmapped output, or "".
func readUnmappedReason(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "#") {
			return strings.TrimSpace(strings.TrimPrefix(line, "#"))
		}
	}
	return ""
}
