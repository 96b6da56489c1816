// Package emit writes the pipeline's output artifacts.
package emit

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/cas-wrgl/spliceannot/internal/annotation"
)

// TableHeader is the scoring engine's load-time contract. Column order,
// delimiter, and the leading "#" are bit-exact requirements; the loader has
// no format-version check, so any deviation breaks it silently.
const TableHeader = "#NAME\tCHROM\tSTRAND\tTX_START\tTX_END\tEXON_START\tEXON_END"

// WriteTable writes the flat scoring table, one row per representative
// transcript, rows ordered by gene name then transcript ID. The two exon
// columns hold comma-joined, position-aligned coordinate lists sorted
// ascending, each with a trailing comma.
func WriteTable(path string, set *annotation.AnnotationSet) error {
	var b bytes.Buffer
	b.WriteString(TableHeader)
	b.WriteByte('\n')

	for _, gene := range set.Genes.GeneNames() {
		for _, t := range set.Genes[gene] {
			fmt.Fprintf(&b, "%s\t%s\t%s\t%d\t%d\t%s\t%s\n",
				gene, t.Chrom, t.StrandSymbol(), t.Start, t.End,
				joinCoords(t.ExonStarts()), joinCoords(t.ExonEnds()))
		}
	}

	return writeFileAtomic(path, b.Bytes())
}

// joinCoords renders a coordinate list as "100,300," with a trailing comma,
// the convention the scoring engine's loader splits on.
func joinCoords(coords []int64) string {
	var b bytes.Buffer
	for _, c := range coords {
		b.WriteString(strconv.FormatInt(c, 10))
		b.WriteByte(',')
	}
	return b.String()
}
