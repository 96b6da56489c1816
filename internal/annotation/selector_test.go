package annotation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func basicTranscript(id, gene string) *Transcript {
	return &Transcript{
		ID:       id,
		GeneName: gene,
		Chrom:    "1",
		Strand:   1,
		Start:    100,
		End:      200,
		Exons:    []Exon{{100, 200}},
		Tags:     []string{"basic"},
	}
}

func TestSelector_KeepsOnlyTaggedTranscripts(t *testing.T) {
	tagged := basicTranscript("TX1", "G1")
	untagged := basicTranscript("TX2", "G1")
	untagged.Tags = []string{"CCDS"}

	s := NewSelector(DefaultPolicy())
	genes := s.Select(map[string]*Transcript{
		"TX1": tagged,
		"TX2": untagged,
	})

	require.Len(t, genes, 1)
	require.Len(t, genes["G1"], 1)
	assert.Equal(t, "TX1", genes["G1"][0].ID)
	assert.Equal(t, 1, s.Stats().NotTagged)
}

func TestSelector_DropsMissingGeneName(t *testing.T) {
	anon := basicTranscript("TX1", "")

	s := NewSelector(DefaultPolicy())
	genes := s.Select(map[string]*Transcript{"TX1": anon})

	assert.Empty(t, genes)
	assert.Equal(t, 1, s.Stats().MissingGene)
}

func TestSelector_DropsExonlessTranscripts(t *testing.T) {
	empty := basicTranscript("TX1", "G1")
	empty.Exons = nil

	s := NewSelector(DefaultPolicy())
	genes := s.Select(map[string]*Transcript{"TX1": empty})

	assert.Empty(t, genes)
	assert.Equal(t, 1, s.Stats().NoExons)
}

func TestSelector_MultipleRepresentativesPerGene(t *testing.T) {
	// A gene may have several clinically relevant isoforms; all are kept.
	s := NewSelector(DefaultPolicy())
	genes := s.Select(map[string]*Transcript{
		"TX9": basicTranscript("TX9", "G1"),
		"TX1": basicTranscript("TX1", "G1"),
		"TX5": basicTranscript("TX5", "G2"),
	})

	require.Len(t, genes, 2)
	require.Len(t, genes["G1"], 2)

	// Sorted by transcript ID for reproducible iteration.
	assert.Equal(t, "TX1", genes["G1"][0].ID)
	assert.Equal(t, "TX9", genes["G1"][1].ID)
	assert.Equal(t, 3, s.Stats().Selected)
}

func TestSelector_CustomTag(t *testing.T) {
	mane := basicTranscript("TX1", "G1")
	mane.Tags = []string{"MANE_Select"}

	s := NewSelector(SelectionPolicy{Tag: "MANE_Select"})
	genes := s.Select(map[string]*Transcript{"TX1": mane})

	require.Len(t, genes["G1"], 1)
}

func TestGeneSet_GeneNames(t *testing.T) {
	genes := GeneSet{
		"TP53": {basicTranscript("TX1", "TP53")},
		"BRCA1": {
			basicTranscript("TX2", "BRCA1"),
			basicTranscript("TX3", "BRCA1"),
		},
	}

	assert.Equal(t, []string{"BRCA1", "TP53"}, genes.GeneNames())
	assert.Equal(t, 3, genes.TranscriptCount())
}
