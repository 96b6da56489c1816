// Package emit writes the pipeline's output artifacts.
package emit

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/cas-wrgl/spliceannot/internal/annotation"
)

// Store writes selected transcripts to a DuckDB database so the API layer can
// query gene metadata without parsing the text artifacts.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens (or creates) a DuckDB database at path.
func NewStore(path string) (*Store, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateSchema creates the transcripts table.
func (s *Store) CreateSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS transcripts (
			id VARCHAR NOT NULL,
			gene_name VARCHAR NOT NULL,
			chrom VARCHAR NOT NULL,
			strand TINYINT NOT NULL,
			tx_start BIGINT NOT NULL,
			tx_end BIGINT NOT NULL,
			exons JSON NOT NULL,
			genome_build VARCHAR,
			release_version VARCHAR,
			PRIMARY KEY (id)
		);

		CREATE INDEX IF NOT EXISTS idx_transcripts_gene ON transcripts(gene_name);
		CREATE INDEX IF NOT EXISTS idx_transcripts_pos ON transcripts(chrom, tx_start, tx_end);
	`
	_, err := s.db.Exec(schema)
	return err
}

// InsertTranscript inserts one transcript row. Exon spans are stored as a
// JSON array column.
func (s *Store) InsertTranscript(set *annotation.AnnotationSet, gene string, t *annotation.Transcript) error {
	exons := make([]ExonMeta, len(t.Exons))
	for i, e := range t.Exons {
		exons[i] = ExonMeta{Start: e.Start, End: e.End}
	}
	exonJSON, err := json.Marshal(exons)
	if err != nil {
		return fmt.Errorf("marshal exons: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO transcripts (id, gene_name, chrom, strand, tx_start, tx_end,
		                         exons, genome_build, release_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, t.ID, gene, t.Chrom, t.Strand, t.Start, t.End,
		string(exonJSON), set.GenomeBuild, set.Release)
	if err != nil {
		return fmt.Errorf("insert transcript: %w", err)
	}
	return nil
}

// TranscriptCount returns the number of stored transcripts.
func (s *Store) TranscriptCount() (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM transcripts").Scan(&count)
	return count, err
}

// GeneTranscriptIDs returns the stored transcript IDs for a gene, ordered.
func (s *Store) GeneTranscriptIDs(gene string) ([]string, error) {
	rows, err := s.db.Query(`
		SELECT id FROM transcripts WHERE gene_name = ? ORDER BY id
	`, gene)
	if err != nil {
		return nil, fmt.Errorf("query transcripts: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// WriteDuckDB replaces the database at path with the selected transcript set.
// The database is built at a temp path and renamed over the old file once the
// connection is closed, so a previous database survives a failed rewrite.
func WriteDuckDB(path string, set *annotation.AnnotationSet) error {
	tmpPath := path + ".tmp"
	if err := os.Remove(tmpPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove stale temp database: %w", err)
	}

	if err := writeDuckDBFile(tmpPath, set); err != nil {
		os.Remove(tmpPath)
		return err
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace database: %w", err)
	}
	return nil
}

func writeDuckDBFile(path string, set *annotation.AnnotationSet) error {
	store, err := NewStore(path)
	if err != nil {
		return err
	}

	if err := store.CreateSchema(); err != nil {
		store.Close()
		return fmt.Errorf("create schema: %w", err)
	}

	for _, gene := range set.Genes.GeneNames() {
		for _, t := range set.Genes[gene] {
			if err := store.InsertTranscript(set, gene, t); err != nil {
				store.Close()
				return err
			}
		}
	}
	return store.Close()
}
