// Package gtf streams annotation records from GENCODE release files.
package gtf

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
	"go.uber.org/zap"
)

// Reader streams records from a plain or gzip-compressed GTF file in source
// order, single pass. Comment lines are skipped; malformed lines are dropped
// with a warning rather than aborting the read.
type Reader struct {
	f       *os.File
	gz      *gzip.Reader
	scanner *bufio.Scanner
	logger  *zap.Logger
	line    int
	dropped int
}

// Open opens a GTF file for reading. Files ending in .gz are decompressed
// transparently.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open GTF file: %w", err)
	}

	r := &Reader{
		f:      f,
		logger: zap.NewNop(),
	}

	var src io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("open gzip reader: %w", err)
		}
		r.gz = gz
		src = gz
	}

	r.scanner = bufio.NewScanner(src)
	// GENCODE attribute columns can be long
	buf := make([]byte, 0, 64*1024)
	r.scanner.Buffer(buf, 1024*1024)

	return r, nil
}

// SetLogger sets the logger for malformed-line warnings.
func (r *Reader) SetLogger(l *zap.Logger) {
	r.logger = l
}

// Next returns the next record in the file, or io.EOF when the file is
// exhausted. Comment and empty lines are skipped silently; malformed lines
// are skipped with a warning and counted in Dropped.
func (r *Reader) Next() (*Record, error) {
	for r.scanner.Scan() {
		r.line++
		line := r.scanner.Text()

		if strings.HasPrefix(line, "#") || line == "" {
			continue
		}

		rec, err := r.parseLine(line)
		if err != nil {
			r.dropped++
			r.logger.Warn("skipping malformed GTF line",
				zap.Int("line", r.line),
				zap.Error(err))
			continue
		}
		return rec, nil
	}

	if err := r.scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan GTF: %w", err)
	}
	return nil, io.EOF
}

// Dropped returns the number of malformed lines skipped so far.
func (r *Reader) Dropped() int {
	return r.dropped
}

// Close closes the underlying file.
func (r *Reader) Close() error {
	if r.gz != nil {
		r.gz.Close()
	}
	return r.f.Close()
}

// parseLine parses a single 9-column GTF line.
func (r *Reader) parseLine(line string) (*Record, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < 9 {
		return nil, fmt.Errorf("expected 9 fields, got %d", len(fields))
	}

	start, err := strconv.ParseInt(fields[3], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse start: %w", err)
	}

	end, err := strconv.ParseInt(fields[4], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse end: %w", err)
	}

	attrs, tags := parseAttributes(fields[8])

	return &Record{
		Chrom:      NormalizeChrom(fields[0]),
		Source:     fields[1],
		Feature:    fields[2],
		Start:      start,
		End:        end,
		Strand:     fields[6],
		Attributes: attrs,
		Tags:       tags,
		Line:       r.line,
	}, nil
}
