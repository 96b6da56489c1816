// Package emit writes the pipeline's output artifacts.
package emit

import (
	"fmt"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// writeFileAtomic writes data to path via a temporary sibling file and renames
// it into place only on full success, so a crash mid-run never leaves a
// corrupt artifact for a downstream loader. Paths ending in .gz are
// gzip-compressed.
func writeFileAtomic(path string, data []byte) error {
	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}

	write := func() error {
		if strings.HasSuffix(path, ".gz") {
			gz := gzip.NewWriter(f)
			if _, err := gz.Write(data); err != nil {
				return err
			}
			return gz.Close()
		}
		_, err := f.Write(data)
		return err
	}

	if err := write(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write output file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close output file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename output file: %w", err)
	}
	return nil
}
