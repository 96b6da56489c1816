// Package annotation assembles and selects transcript models.
package annotation

import "sort"

// Exon is a genomic span, Start <= End regardless of strand.
type Exon struct {
	Start int64 // Genomic start (1-based)
	End   int64 // Genomic end (1-based, inclusive)
}

// Transcript represents one gene isoform reconstructed from annotation records.
// Exons are kept sorted ascending by Start and deduplicated; Start/End always
// equal the outermost exon edges once any exon is attached.
type Transcript struct {
	ID       string   // Transcript ID, version suffix stripped (e.g. ENST00000311936)
	GeneName string   // Gene symbol (e.g. KRAS)
	Chrom    string   // Chromosome, normalized
	Strand   int8     // +1 or -1
	Start    int64    // Transcript start (1-based)
	End      int64    // Transcript end (1-based, inclusive)
	Exons    []Exon   // Ordered exon spans
	Tags     []string // Annotation tags (e.g. "basic")
}

// HasTag returns true if the transcript carries the given annotation tag.
func (t *Transcript) HasTag(tag string) bool {
	for _, tt := range t.Tags {
		if tt == tag {
			return true
		}
	}
	return false
}

// StrandSymbol returns the strand as "+" or "-".
func (t *Transcript) StrandSymbol() string {
	if t.Strand == -1 {
		return "-"
	}
	return "+"
}

// IsForwardStrand returns true if the transcript is on the forward strand.
func (t *Transcript) IsForwardStrand() bool {
	return t.Strand == 1
}

// AddExon appends an exon span, keeping the exon list sorted by start and
// deduplicated on exact coordinate equality. Transcript bounds are re-derived
// from the exon extremes: the declared transcript bounds are only an initial
// estimate, the outermost exon edges are authoritative. Returns false if the
// span was a duplicate.
func (t *Transcript) AddExon(e Exon) bool {
	for _, existing := range t.Exons {
		if existing == e {
			return false
		}
	}
	t.Exons = append(t.Exons, e)
	sort.Slice(t.Exons, func(i, j int) bool {
		return t.Exons[i].Start < t.Exons[j].Start
	})
	t.deriveBounds()
	return true
}

// deriveBounds sets Start/End to the min/max over all exon edges.
func (t *Transcript) deriveBounds() {
	if len(t.Exons) == 0 {
		return
	}
	t.Start = t.Exons[0].Start
	t.End = t.Exons[0].End
	for _, e := range t.Exons[1:] {
		if e.Start < t.Start {
			t.Start = e.Start
		}
		if e.End > t.End {
			t.End = e.End
		}
	}
}

// ExonStarts returns the exon start coordinates in ascending order.
func (t *Transcript) ExonStarts() []int64 {
	starts := make([]int64, len(t.Exons))
	for i, e := range t.Exons {
		starts[i] = e.Start
	}
	return starts
}

// ExonEnds returns the exon end coordinates, position-aligned with ExonStarts.
func (t *Transcript) ExonEnds() []int64 {
	ends := make([]int64, len(t.Exons))
	for i, e := range t.Exons {
		ends[i] = e.End
	}
	return ends
}
