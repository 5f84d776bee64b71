package history

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/klauspost/compress/gzip"
)

// Export writes every run, oldest first, as gzip-compressed JSON lines.
// It returns the number of runs written.
func (s *Store) Export(ctx context.Context, w io.Writer) (int, error) {
	runs, err := s.query(ctx, time.Time{}, 0, "ASC")
	if err != nil {
		return 0, err
	}

	gz, err := gzip.NewWriterLevel(w, gzip.BestCompression)
	if err != nil {
		return 0, err
	}
	gz.Comment = "mila run history"

	enc := json.NewEncoder(gz)
	for _, run := range runs {
		if err := enc.Encode(run); err != nil {
			gz.Close()
			return 0, fmt.Errorf("encoding run %d: %w", run.ID, err)
		}
	}
	if err := gz.Close(); err != nil {
		return 0, fmt.Errorf("compressing history: %w", err)
	}
	return len(runs), nil
}

// ReadExport decodes a stream written by Export.
func ReadExport(r io.Reader) ([]Run, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("reading history export: %w", err)
	}
	defer gz.Close()

	var runs []Run
	scanner := bufio.NewScanner(gz)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		var run Run
		if err := json.Unmarshal(scanner.Bytes(), &run); err != nil {
			return nil, fmt.Errorf("decoding run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, scanner.Err()
}
