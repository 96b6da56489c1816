// Package annotation assembles and selects transcript models.
package annotation

import (
	"sort"

	"go.uber.org/zap"
	"gopkg.in/fatih/set.v0"

	"github.com/cas-wrgl/spliceannot/internal/gtf"
)

// AssemblyStats counts entities dropped or merged while assembling.
type AssemblyStats struct {
	Transcripts       int // transcript-level records seen
	Exons             int // exon records attached
	DuplicateExons    int // exon records dropped as exact-coordinate duplicates
	OrphanTranscripts int // transcript IDs with exons but no transcript record
}

// Assembler groups annotation records into transcript models keyed by
// transcript ID. Exons arriving before their transcript-level record are
// buffered explicitly and attached once the record appears; buffered exons
// whose transcript record never appears are dropped at Finish.
type Assembler struct {
	transcripts map[string]*Transcript
	pending     map[string][]Exon
	warned      set.Interface
	logger      *zap.Logger
	stats       AssemblyStats
}

// NewAssembler creates an empty assembler.
func NewAssembler() *Assembler {
	return &Assembler{
		transcripts: make(map[string]*Transcript),
		pending:     make(map[string][]Exon),
		warned:      set.New(set.NonThreadSafe),
		logger:      zap.NewNop(),
	}
}

// SetLogger sets the logger for dropped-record warnings.
func (a *Assembler) SetLogger(l *zap.Logger) {
	a.logger = l
}

// Add consumes one annotation record. Records that are neither transcript nor
// exon features, or that carry no transcript_id, are ignored.
func (a *Assembler) Add(rec *gtf.Record) {
	id := rec.TranscriptID()
	if id == "" {
		return
	}

	switch rec.Feature {
	case "transcript":
		if _, ok := a.transcripts[id]; ok {
			a.logger.Warn("duplicate transcript record, keeping first",
				zap.String("transcript_id", id),
				zap.Int("line", rec.Line))
			return
		}

		t := &Transcript{
			ID:       id,
			GeneName: rec.GeneName(),
			Chrom:    rec.Chrom,
			Strand:   parseStrand(rec.Strand),
			Start:    rec.Start,
			End:      rec.End,
			Tags:     rec.Tags,
		}
		a.transcripts[id] = t
		a.stats.Transcripts++

		// Attach exons that arrived before the transcript record.
		for _, e := range a.pending[id] {
			a.attachExon(t, e)
		}
		delete(a.pending, id)

	case "exon":
		e := Exon{Start: rec.Start, End: rec.End}
		if t, ok := a.transcripts[id]; ok {
			a.attachExon(t, e)
		} else {
			a.pending[id] = append(a.pending[id], e)
		}
	}
}

func (a *Assembler) attachExon(t *Transcript, e Exon) {
	if t.AddExon(e) {
		a.stats.Exons++
	} else {
		a.stats.DuplicateExons++
		if !a.warned.Has(t.ID) {
			a.warned.Add(t.ID)
			a.logger.Warn("duplicate exon coordinates",
				zap.String("transcript_id", t.ID),
				zap.String("gene", t.GeneName),
				zap.Int64("start", e.Start),
				zap.Int64("end", e.End))
		}
	}
}

// Finish drops buffered exons whose transcript record never appeared and
// returns the assembled transcript mapping. One warning is logged per dropped
// transcript ID.
func (a *Assembler) Finish() map[string]*Transcript {
	ids := make([]string, 0, len(a.pending))
	for id := range a.pending {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		a.stats.OrphanTranscripts++
		a.logger.Warn("dropping exons for undeclared transcript",
			zap.String("transcript_id", id),
			zap.Int("exons", len(a.pending[id])))
		delete(a.pending, id)
	}

	return a.transcripts
}

// Stats returns the assembly counters.
func (a *Assembler) Stats() AssemblyStats {
	return a.stats
}

// parseStrand converts a strand symbol to int8.
func parseStrand(s string) int8 {
	if s == "-" {
		return -1
	}
	return 1
}
