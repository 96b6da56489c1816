// Package pipeline sequences the annotation build stages per build variant.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cas-wrgl/spliceannot/internal/annotation"
	"github.com/cas-wrgl/spliceannot/internal/emit"
	"github.com/cas-wrgl/spliceannot/internal/gtf"
	"github.com/cas-wrgl/spliceannot/internal/liftover"
)

// BuildSpec describes one build variant: where its source release file lives
// and where its artifacts go. Mapper is nil for the native build; the lifted
// build passes every exon span through it before emission.
type BuildSpec struct {
	Name         string
	GTFPath      string
	GenomeBuild  string
	Mapper       liftover.Mapper
	MetadataPath string
	TablePath    string
	DuckDBPath   string // optional third artifact
	ProgressLog  string // optional append-only stage log
}

// StageTiming records the wall-clock duration of one pipeline stage.
type StageTiming struct {
	Stage   string
	Elapsed time.Duration
}

// BuildResult summarizes one build variant's run.
type BuildResult struct {
	Name        string
	Genes       int
	Transcripts int
	ParseDrops  int
	Unmapped    int
	Assembly    annotation.AssemblyStats
	Selection   annotation.SelectionStats
	Stages      []StageTiming
	Err         error
}

// RunStatus is the overall outcome of a multi-build run.
type RunStatus int

const (
	StatusOK RunStatus = iota
	StatusPartial
	StatusFailed
)

func (s RunStatus) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusPartial:
		return "partial failure"
	default:
		return "failed"
	}
}

// Status derives the overall run status from the per-build results.
func Status(results []BuildResult) RunStatus {
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	switch failed {
	case 0:
		return StatusOK
	case len(results):
		return StatusFailed
	default:
		return StatusPartial
	}
}

// Runner executes annotation builds. Each build is a pure function of its
// source file: all state is created per run and discarded after emission.
type Runner struct {
	release string
	policy  annotation.SelectionPolicy
	logger  *zap.Logger
}

// NewRunner creates a runner for one release version.
func NewRunner(release string, policy annotation.SelectionPolicy) *Runner {
	return &Runner{
		release: release,
		policy:  policy,
		logger:  zap.NewNop(),
	}
}

// SetLogger sets the logger shared by all builds.
func (r *Runner) SetLogger(l *zap.Logger) {
	r.logger = l
}

// Run executes all builds concurrently. Builds have no shared state, so a
// failure in one never aborts the others; per-build errors are reported in
// the results.
func (r *Runner) Run(ctx context.Context, specs []BuildSpec) []BuildResult {
	results := make([]BuildResult, len(specs))

	var g errgroup.Group
	for i, spec := range specs {
		g.Go(func() error {
			results[i] = r.RunBuild(ctx, spec)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// RunBuild executes the stages for one build variant: read+assemble, select,
// optionally lift, then emit each artifact. Stage durations are appended to
// the build's progress log.
func (r *Runner) RunBuild(ctx context.Context, spec BuildSpec) BuildResult {
	res := BuildResult{Name: spec.Name}
	log := r.logger.With(zap.String("build", spec.Name))

	progress, err := openProgressLog(spec.ProgressLog)
	if err != nil {
		res.Err = err
		return res
	}
	defer progress.Close()

	stage := func(name string, fn func() error) error {
		start := time.Now()
		err := fn()
		elapsed := time.Since(start)
		res.Stages = append(res.Stages, StageTiming{Stage: name, Elapsed: elapsed})
		progress.record(name, elapsed, err)
		if err != nil {
			log.Error("stage failed", zap.String("stage", name), zap.Duration("elapsed", elapsed), zap.Error(err))
		} else {
			log.Info("stage complete", zap.String("stage", name), zap.Duration("elapsed", elapsed))
		}
		return err
	}

	var transcripts map[string]*annotation.Transcript
	if err := stage("read", func() error {
		reader, err := gtf.Open(spec.GTFPath)
		if err != nil {
			return err
		}
		defer reader.Close()
		reader.SetLogger(log)

		assembler := annotation.NewAssembler()
		assembler.SetLogger(log)

		for {
			if err := ctx.Err(); err != nil {
				return err
			}
			rec, err := reader.Next()
			if err == io.EOF {
				break
			}
			if err != nil {
				return err
			}
			assembler.Add(rec)
		}

		transcripts = assembler.Finish()
		res.ParseDrops = reader.Dropped()
		res.Assembly = assembler.Stats()
		return nil
	}); err != nil {
		res.Err = err
		return res
	}

	var set *annotation.AnnotationSet
	if err := stage("select", func() error {
		selector := annotation.NewSelector(r.policy)
		selector.SetLogger(log)
		set = &annotation.AnnotationSet{
			GenomeBuild: spec.GenomeBuild,
			Release:     r.release,
			Genes:       selector.Select(transcripts),
		}
		res.Selection = selector.Stats()
		return nil
	}); err != nil {
		res.Err = err
		return res
	}

	if spec.Mapper != nil {
		if err := stage("liftover", func() error {
			lifted, unmapped, err := r.liftSet(ctx, set, spec.Mapper, log)
			if err != nil {
				return err
			}
			set = lifted
			res.Unmapped = unmapped
			return nil
		}); err != nil {
			res.Err = err
			return res
		}
	}

	res.Genes = len(set.Genes)
	res.Transcripts = set.Genes.TranscriptCount()

	if err := stage("metadata", func() error {
		return emit.WriteMetadata(spec.MetadataPath, set)
	}); err != nil {
		res.Err = err
		return res
	}

	if err := stage("table", func() error {
		return emit.WriteTable(spec.TablePath, set)
	}); err != nil {
		res.Err = err
		return res
	}

	if spec.DuckDBPath != "" {
		if err := stage("duckdb", func() error {
			return emit.WriteDuckDB(spec.DuckDBPath, set)
		}); err != nil {
			res.Err = err
			return res
		}
	}

	log.Info("build complete",
		zap.Int("genes", res.Genes),
		zap.Int("transcripts", res.Transcripts),
		zap.Int("unmapped", res.Unmapped))
	return res
}

// liftSet maps every selected transcript into the target build. Transcripts
// with any unmapped exon are excluded from this build's output only.
// Non-mapping errors (a broken chain file, a missing liftOver binary) abort
// the build.
func (r *Runner) liftSet(ctx context.Context, set *annotation.AnnotationSet, mapper liftover.Mapper, log *zap.Logger) (*annotation.AnnotationSet, int, error) {
	lifted := &annotation.AnnotationSet{
		GenomeBuild: set.GenomeBuild,
		Release:     set.Release,
		Genes:       make(annotation.GeneSet),
	}

	unmapped := 0
	for _, gene := range set.Genes.GeneNames() {
		for _, t := range set.Genes[gene] {
			if err := ctx.Err(); err != nil {
				return nil, unmapped, err
			}
			lt, err := liftTranscript(ctx, mapper, t)
			if errors.Is(err, liftover.ErrUnmapped) {
				unmapped++
				log.Warn("excluding unmapped transcript",
					zap.String("transcript_id", t.ID),
					zap.String("gene", gene),
					zap.Error(err))
				continue
			}
			if err != nil {
				return nil, unmapped, err
			}
			lifted.Genes[gene] = append(lifted.Genes[gene], lt)
		}
	}

	return lifted, unmapped, nil
}

// liftTranscript maps each exon span independently and re-derives the
// transcript bounds from the lifted exons, keeping the bounds-equal-exon-
// extremes invariant in the target build. Exons mapping to different
// chromosomes or strands, colliding, or overlapping after the lift mark the
// whole transcript unmapped: partial coordinates are never emitted.
func liftTranscript(ctx context.Context, mapper liftover.Mapper, t *annotation.Transcript) (*annotation.Transcript, error) {
	out := &annotation.Transcript{
		ID:       t.ID,
		GeneName: t.GeneName,
		Strand:   t.Strand,
		Tags:     t.Tags,
	}

	for _, e := range t.Exons {
		iv, err := mapper.Map(ctx, liftover.Interval{Chrom: t.Chrom, Start: e.Start, End: e.End, Strand: t.StrandSymbol()})
		if err != nil {
			return nil, err
		}
		if iv.Start > iv.End {
			return nil, fmt.Errorf("%w: exon %d-%d maps to inverted interval %s", liftover.ErrUnmapped, e.Start, e.End, iv)
		}
		if iv.Strand != "" && iv.Strand != t.StrandSymbol() {
			return nil, fmt.Errorf("%w: exon %d-%d of %s maps to the opposite strand", liftover.ErrUnmapped, e.Start, e.End, t.ID)
		}
		if out.Chrom == "" {
			out.Chrom = iv.Chrom
		} else if out.Chrom != iv.Chrom {
			return nil, fmt.Errorf("%w: exons of %s map to multiple chromosomes (%s, %s)", liftover.ErrUnmapped, t.ID, out.Chrom, iv.Chrom)
		}
		if !out.AddExon(annotation.Exon{Start: iv.Start, End: iv.End}) {
			return nil, fmt.Errorf("%w: exons of %s collide at %s after lift", liftover.ErrUnmapped, t.ID, iv)
		}
	}

	for i := 1; i < len(out.Exons); i++ {
		if out.Exons[i].Start <= out.Exons[i-1].End {
			return nil, fmt.Errorf("%w: exons of %s overlap after lift", liftover.ErrUnmapped, t.ID)
		}
	}

	return out, nil
}
