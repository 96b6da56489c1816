// Package gtf streams annotation records from GENCODE release files.
package gtf

import "strings"

// Record is one parsed feature line of a GTF file.
type Record struct {
	Chrom      string            // Chromosome, normalized ("chr" prefix stripped)
	Source     string            // Annotation source (e.g. HAVANA)
	Feature    string            // Feature type: gene, transcript, exon, CDS, ...
	Start      int64             // Genomic start (1-based)
	End        int64             // Genomic end (1-based, inclusive)
	Strand     string            // "+" or "-"
	Attributes map[string]string // Attribute column, keys unique per record
	Tags       []string          // All "tag" attribute values, in file order
	Line       int               // Source line number (1-based)
}

// TranscriptID returns the transcript_id attribute without its version suffix.
func (r *Record) TranscriptID() string {
	return StripVersion(r.Attributes["transcript_id"])
}

// GeneName returns the gene_name attribute, or "" if absent.
func (r *Record) GeneName() string {
	return r.Attributes["gene_name"]
}

// parseAttributes parses the GTF attribute column.
// Format: key "value"; key "value"; ...
// The "tag" key may repeat; all values are collected separately since later
// occurrences would otherwise overwrite earlier ones in the map.
func parseAttributes(attrStr string) (map[string]string, []string) {
	attrs := make(map[string]string)
	var tags []string

	parts := strings.Split(attrStr, ";")
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		idx := strings.Index(part, " ")
		if idx == -1 {
			continue
		}

		key := part[:idx]
		value := strings.TrimSpace(part[idx+1:])
		value = strings.Trim(value, "\"")

		if key == "tag" {
			tags = append(tags, value)
		}
		attrs[key] = value
	}

	return attrs, tags
}

// StripVersion removes the version suffix from an Ensembl ID.
// e.g., "ENST00000456328.2" -> "ENST00000456328"
func StripVersion(id string) string {
	if idx := strings.LastIndex(id, "."); idx != -1 {
		return id[:idx]
	}
	return id
}

// NormalizeChrom normalizes chromosome names by removing the "chr" prefix.
// GENCODE uses "chr1" while the downstream score tables use "1".
func NormalizeChrom(chrom string) string {
	if strings.HasPrefix(chrom, "chr") {
		return chrom[3:]
	}
	return chrom
}
