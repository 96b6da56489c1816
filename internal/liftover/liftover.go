// Package liftover maps genomic intervals between genome builds.
package liftover

import (
	"context"
	"errors"
	"fmt"
)

// Interval is a 1-based, inclusive genomic span. Strand is "+" or "-"; an
// empty strand means unstranded and is treated as "+".
type Interval struct {
	Chrom  string
	Start  int64
	End    int64
	Strand string
}

func (iv Interval) String() string {
	return fmt.Sprintf("%s:%d-%d", iv.Chrom, iv.Start, iv.End)
}

// ErrUnmapped reports that an interval has no valid mapping in the target
// build.
var ErrUnmapped = errors.New("interval not mapped in target build")

// Mapper maps intervals from a source build to a target build. The chain data
// is consulted, never mutated.
type Mapper interface {
	Map(ctx context.Context, iv Interval) (Interval, error)
}

// Chain file names per supported conversion, matching the UCSC distribution
// layout the lookup service downloads.
var chainFiles = map[string]string{
	"hg19-to-hg38": "hg19ToHg38.over.chain.gz",
	"hg38-to-hg19": "hg38ToHg19.over.chain.gz",
	"hg38-to-t2t":  "hg38.t2t-chm13-v1.0.over.chain.gz",
	"t2t-to-hg38":  "t2t-chm13-v1.0.hg38.over.chain.gz",
}

// ChainFile returns the chain file name for a conversion like "hg38-to-hg19".
func ChainFile(conversion string) (string, error) {
	name, ok := chainFiles[conversion]
	if !ok {
		return "", fmt.Errorf("unsupported liftover conversion %q", conversion)
	}
	return name, nil
}

// Conversions returns the supported conversion names.
func Conversions() []string {
	names := make([]string, 0, len(chainFiles))
	for name := range chainFiles {
		names = append(names, name)
	}
	return names
}
