// Package annotation assembles and selects transcript models.
package annotation

import (
	"sort"

	"go.uber.org/zap"
)

// DefaultTag is the GENCODE designation marking representative transcripts.
const DefaultTag = "basic"

// SelectionPolicy names the criterion for keeping a transcript. A transcript
// qualifies when its tag set contains Tag; every qualifying transcript of a
// gene is retained, there is no tie-break between isoforms.
type SelectionPolicy struct {
	Tag string
}

// DefaultPolicy returns the policy used for GENCODE releases.
func DefaultPolicy() SelectionPolicy {
	return SelectionPolicy{Tag: DefaultTag}
}

// GeneSet maps gene name to its representative transcripts, sorted by
// transcript ID.
type GeneSet map[string][]*Transcript

// GeneNames returns the gene names in ascending ordinal order.
func (g GeneSet) GeneNames() []string {
	names := make([]string, 0, len(g))
	for name := range g {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TranscriptCount returns the total number of transcripts across all genes.
func (g GeneSet) TranscriptCount() int {
	count := 0
	for _, transcripts := range g {
		count += len(transcripts)
	}
	return count
}

// AnnotationSet is the selected annotation for one build variant.
type AnnotationSet struct {
	GenomeBuild string
	Release     string
	Genes       GeneSet
}

// SelectionStats counts transcripts excluded by the selector.
type SelectionStats struct {
	Selected    int // transcripts kept
	NotTagged   int // transcripts lacking the representative tag
	MissingGene int // transcripts with no resolvable gene name
	NoExons     int // transcripts with a transcript record but no exon records
}

// Selector filters an assembled transcript mapping down to the representative
// set, bucketed per gene.
type Selector struct {
	policy SelectionPolicy
	logger *zap.Logger
	stats  SelectionStats
}

// NewSelector creates a selector with the given policy.
func NewSelector(policy SelectionPolicy) *Selector {
	return &Selector{
		policy: policy,
		logger: zap.NewNop(),
	}
}

// SetLogger sets the logger for dropped-transcript warnings.
func (s *Selector) SetLogger(l *zap.Logger) {
	s.logger = l
}

// Select returns the gene buckets containing only representative transcripts.
// Transcripts lacking the policy tag or a gene name are dropped, as are
// transcripts without exons. Genes with zero qualifying transcripts are
// omitted entirely. Per-gene transcripts are sorted by ID so iteration order
// is reproducible across runs.
func (s *Selector) Select(transcripts map[string]*Transcript) GeneSet {
	genes := make(GeneSet)

	for _, t := range transcripts {
		if !t.HasTag(s.policy.Tag) {
			s.stats.NotTagged++
			continue
		}
		if t.GeneName == "" {
			s.stats.MissingGene++
			s.logger.Warn("dropping transcript without gene name",
				zap.String("transcript_id", t.ID))
			continue
		}
		if len(t.Exons) == 0 {
			s.stats.NoExons++
			s.logger.Warn("dropping transcript without exons",
				zap.String("transcript_id", t.ID),
				zap.String("gene", t.GeneName))
			continue
		}
		genes[t.GeneName] = append(genes[t.GeneName], t)
		s.stats.Selected++
	}

	for _, bucket := range genes {
		sort.Slice(bucket, func(i, j int) bool {
			return bucket[i].ID < bucket[j].ID
		})
	}

	return genes
}

// Stats returns the selection counters.
func (s *Selector) Stats() SelectionStats {
	return s.stats
}
