// Package pipeline sequences the annotation build stages per build variant.
package pipeline

import (
	"fmt"
	"os"
	"time"
)

// progressLog appends stage timings to a per-build log file. The log is
// advisory only; nothing downstream parses it.
type progressLog struct {
	f *os.File
}

// openProgressLog opens the log for appending. An empty path disables
// logging.
func openProgressLog(path string) (*progressLog, error) {
	if path == "" {
		return &progressLog{}, nil
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open progress log: %w", err)
	}
	return &progressLog{f: f}, nil
}

func (p *progressLog) record(stage string, elapsed time.Duration, err error) {
	if p.f == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error: " + err.Error()
	}
	fmt.Fprintf(p.f, "%s\t%s\t%s\t%s\n",
		time.Now().Format(time.RFC3339), stage, elapsed.Round(time.Millisecond), status)
}

func (p *progressLog) Close() error {
	if p.f == nil {
		return nil
	}
	return p.f.Close()
}
