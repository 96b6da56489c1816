// Package emit writes the pipeline's output artifacts.
package emit

import (
	"encoding/json"
	"fmt"

	"github.com/cas-wrgl/spliceannot/internal/annotation"
)

// TranscriptMeta is one transcript descriptor in the metadata artifact.
type TranscriptMeta struct {
	TranscriptID string     `json:"transcript_id"`
	Chrom        string     `json:"chrom"`
	Strand       string     `json:"strand"`
	TxStart      int64      `json:"tx_start"`
	TxEnd        int64      `json:"tx_end"`
	Exons        []ExonMeta `json:"exons"`
}

// ExonMeta is one exon span in a transcript descriptor.
type ExonMeta struct {
	Start int64 `json:"start"`
	End   int64 `json:"end"`
}

// WriteMetadata writes the gene-keyed metadata artifact for informational
// lookups. Output is byte-stable for identical input: encoding/json emits map
// keys in sorted order and the per-gene transcript lists are already sorted
// by ID.
func WriteMetadata(path string, set *annotation.AnnotationSet) error {
	doc := make(map[string][]TranscriptMeta, len(set.Genes))
	for gene, transcripts := range set.Genes {
		descriptors := make([]TranscriptMeta, 0, len(transcripts))
		for _, t := range transcripts {
			exons := make([]ExonMeta, len(t.Exons))
			for i, e := range t.Exons {
				exons[i] = ExonMeta{Start: e.Start, End: e.End}
			}
			descriptors = append(descriptors, TranscriptMeta{
				TranscriptID: t.ID,
				Chrom:        t.Chrom,
				Strand:       t.StrandSymbol(),
				TxStart:      t.Start,
				TxEnd:        t.End,
				Exons:        exons,
			})
		}
		doc[gene] = descriptors
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	data = append(data, '\n')

	return writeFileAtomic(path, data)
}
