package annotation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cas-wrgl/spliceannot/internal/gtf"
)

func transcriptRecord(id, gene, chrom, strand string, start, end int64, tags ...string) *gtf.Record {
	return &gtf.Record{
		Chrom:   chrom,
		Feature: "transcript",
		Start:   start,
		End:     end,
		Strand:  strand,
		Attributes: map[string]string{
			"transcript_id": id,
			"gene_name":     gene,
		},
		Tags: tags,
	}
}

func exonRecord(id string, start, end int64) *gtf.Record {
	return &gtf.Record{
		Feature: "exon",
		Start:   start,
		End:     end,
		Attributes: map[string]string{
			"transcript_id": id,
		},
	}
}

func TestAssembler_SortsExonsAndDerivesBounds(t *testing.T) {
	a := NewAssembler()

	// Declared bounds are deliberately wrong; exon extremes win.
	a.Add(transcriptRecord("TX1", "G1", "1", "+", 1, 10000, "basic"))
	a.Add(exonRecord("TX1", 300, 350))
	a.Add(exonRecord("TX1", 100, 200))
	a.Add(exonRecord("TX1", 500, 600))

	transcripts := a.Finish()
	require.Len(t, transcripts, 1)

	tr := transcripts["TX1"]
	require.NotNil(t, tr)

	assert.Equal(t, []Exon{{100, 200}, {300, 350}, {500, 600}}, tr.Exons)
	assert.Equal(t, int64(100), tr.Start)
	assert.Equal(t, int64(600), tr.End)
	assert.Equal(t, "G1", tr.GeneName)
	assert.Equal(t, int8(1), tr.Strand)
}

func TestAssembler_ExonBeforeTranscriptRecord(t *testing.T) {
	a := NewAssembler()

	// Exons stream in before the transcript-level record.
	a.Add(exonRecord("TX1", 500, 600))
	a.Add(exonRecord("TX1", 100, 200))
	a.Add(transcriptRecord("TX1", "G1", "1", "-", 100, 600, "basic"))

	transcripts := a.Finish()
	tr := transcripts["TX1"]
	require.NotNil(t, tr)

	assert.Equal(t, []Exon{{100, 200}, {500, 600}}, tr.Exons)
	assert.Equal(t, int64(100), tr.Start)
	assert.Equal(t, int64(600), tr.End)
	assert.Equal(t, int8(-1), tr.Strand)
	assert.Equal(t, 0, a.Stats().OrphanTranscripts)
}

func TestAssembler_DropsUndeclaredTranscript(t *testing.T) {
	a := NewAssembler()

	a.Add(exonRecord("TXZ", 100, 200))
	a.Add(transcriptRecord("TX1", "G1", "1", "+", 100, 200, "basic"))
	a.Add(exonRecord("TX1", 100, 200))

	transcripts := a.Finish()
	require.Len(t, transcripts, 1)
	assert.NotContains(t, transcripts, "TXZ")
	assert.Equal(t, 1, a.Stats().OrphanTranscripts)
}

func TestAssembler_DeduplicatesExons(t *testing.T) {
	a := NewAssembler()

	a.Add(transcriptRecord("TX1", "G1", "1", "+", 100, 200, "basic"))
	a.Add(exonRecord("TX1", 100, 200))
	a.Add(exonRecord("TX1", 100, 200))

	transcripts := a.Finish()
	tr := transcripts["TX1"]
	require.Len(t, tr.Exons, 1)
	assert.Equal(t, 1, a.Stats().DuplicateExons)
	assert.Equal(t, 1, a.Stats().Exons)
}

func TestAssembler_DuplicateTranscriptRecordKeepsFirst(t *testing.T) {
	a := NewAssembler()

	a.Add(transcriptRecord("TX1", "G1", "1", "+", 100, 200, "basic"))
	a.Add(exonRecord("TX1", 100, 200))
	a.Add(transcriptRecord("TX1", "G2", "2", "-", 1, 2))

	transcripts := a.Finish()
	tr := transcripts["TX1"]
	assert.Equal(t, "G1", tr.GeneName)
	assert.Equal(t, "1", tr.Chrom)
	assert.Equal(t, 1, a.Stats().Transcripts)
}

func TestAssembler_IgnoresOtherFeatures(t *testing.T) {
	a := NewAssembler()

	a.Add(&gtf.Record{Feature: "gene", Attributes: map[string]string{"gene_name": "G1"}})
	a.Add(&gtf.Record{Feature: "CDS", Attributes: map[string]string{"transcript_id": "TX1"}})
	a.Add(&gtf.Record{Feature: "exon", Attributes: map[string]string{}}) // no transcript_id

	transcripts := a.Finish()
	assert.Empty(t, transcripts)
	assert.Equal(t, 0, a.Stats().OrphanTranscripts)
}

func TestTranscript_AddExonKeepsInvariants(t *testing.T) {
	tr := &Transcript{ID: "TX1"}

	assert.True(t, tr.AddExon(Exon{300, 350}))
	assert.True(t, tr.AddExon(Exon{100, 200}))
	assert.False(t, tr.AddExon(Exon{300, 350}))

	assert.Equal(t, []int64{100, 300}, tr.ExonStarts())
	assert.Equal(t, []int64{200, 350}, tr.ExonEnds())
	assert.Equal(t, int64(100), tr.Start)
	assert.Equal(t, int64(350), tr.End)
}
