package liftover

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChainFile(t *testing.T) {
	name, err := ChainFile("hg38-to-hg19")
	require.NoError(t, err)
	assert.Equal(t, "hg38ToHg19.over.chain.gz", name)

	_, err = ChainFile("hg38-to-mm39")
	require.Error(t, err)
}

func TestFormatBED(t *testing.T) {
	// 1-based inclusive in, 0-based half-open out, chr prefix restored.
	assert.Equal(t, "chr8\t140300614\t140300620\t.\t0\t-",
		formatBED(Interval{Chrom: "8", Start: 140300615, End: 140300620, Strand: "-"}))
	assert.Equal(t, "chrX\t99\t200\t.\t0\t+",
		formatBED(Interval{Chrom: "chrX", Start: 100, End: 200, Strand: "+"}))
	// Unstranded defaults to "+".
	assert.Equal(t, "chr1\t0\t5\t.\t0\t+",
		formatBED(Interval{Chrom: "1", Start: 1, End: 5}))
}

func TestParseBED(t *testing.T) {
	iv, err := parseBED("chr8\t140300614\t140300620\t.\t0\t-")
	require.NoError(t, err)
	assert.Equal(t, Interval{Chrom: "8", Start: 140300615, End: 140300620, Strand: "-"}, iv)

	// Three-column lines still parse, without a strand.
	iv, err = parseBED("chr8\t140300614\t140300620")
	require.NoError(t, err)
	assert.Equal(t, Interval{Chrom: "8", Start: 140300615, End: 140300620}, iv)

	_, err = parseBED("chr8\t140300614")
	require.Error(t, err)

	_, err = parseBED("chr8\tx\t1")
	require.Error(t, err)
}

// stubLiftOver writes a shell script that mimics the liftOver command line:
// intervals on chr1 are shifted by +1000, intervals on chr5 additionally land
// on the opposite strand, everything else goes to the unmapped file with a
// reason comment.
func stubLiftOver(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "liftOver")
	script := `#!/bin/sh
in="$1"; out="$3"; unmapped="$4"
: > "$out"
: > "$unmapped"
while IFS="	" read -r chrom start end name score strand; do
  case "$chrom" in
  chr1)
    printf '%s\t%s\t%s\t%s\t%s\t%s\n' "$chrom" $((start + 1000)) $((end + 1000)) "$name" "$score" "$strand" >> "$out"
    ;;
  chr5)
    if [ "$strand" = "+" ]; then flipped="-"; else flipped="+"; fi
    printf '%s\t%s\t%s\t%s\t%s\t%s\n' "$chrom" $((start + 1000)) $((end + 1000)) "$name" "$score" "$flipped" >> "$out"
    ;;
  *)
    printf '#Deleted in new\n%s\t%s\t%s\t%s\t%s\t%s\n' "$chrom" "$start" "$end" "$name" "$score" "$strand" >> "$unmapped"
    ;;
  esac
done < "$in"
`
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func TestUCSCTool_Map(t *testing.T) {
	tool := NewUCSCTool("dummy.chain.gz")
	tool.SetBinary(stubLiftOver(t))

	mapped, err := tool.Map(context.Background(), Interval{Chrom: "1", Start: 101, End: 200, Strand: "+"})
	require.NoError(t, err)
	assert.Equal(t, Interval{Chrom: "1", Start: 1101, End: 1200, Strand: "+"}, mapped)
}

func TestUCSCTool_MapStrandFlip(t *testing.T) {
	tool := NewUCSCTool("dummy.chain.gz")
	tool.SetBinary(stubLiftOver(t))

	// The tool reports the flipped strand; rejecting it is the caller's call.
	mapped, err := tool.Map(context.Background(), Interval{Chrom: "5", Start: 101, End: 200, Strand: "+"})
	require.NoError(t, err)
	assert.Equal(t, "-", mapped.Strand)
}

func TestUCSCTool_Unmapped(t *testing.T) {
	tool := NewUCSCTool("dummy.chain.gz")
	tool.SetBinary(stubLiftOver(t))

	_, err := tool.Map(context.Background(), Interval{Chrom: "2", Start: 101, End: 200, Strand: "+"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnmapped))
	assert.Contains(t, err.Error(), "Deleted in new")
}

func TestUCSCTool_MissingBinary(t *testing.T) {
	tool := NewUCSCTool("dummy.chain.gz")
	tool.SetBinary(filepath.Join(t.TempDir(), "no-such-binary"))

	_, err := tool.Map(context.Background(), Interval{Chrom: "1", Start: 101, End: 200, Strand: "+"})
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrUnmapped))
}
