// Package runindex implements the run index as an append-only JSONL file.
package runindex

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"abfactory/ports"
)

// JSONLIndex appends run records to a single index.jsonl file. A process-local
// mutex serializes writers so concurrent case runs never interleave lines.
type JSONLIndex struct {
	path string
	mu   sync.Mutex
}

var _ ports.RunIndex = (*JSONLIndex)(nil)

func NewJSONLIndex(runsDir string) *JSONLIndex {
	return &JSONLIndex{path: filepath.Join(runsDir, "index.jsonl")}
}

func (x *JSONLIndex) Append(ctx context.Context, rec ports.RunRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal run record: %w", err)
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(x.path), 0o755); err != nil {
		return fmt.Errorf("create runs dir: %w", err)
	}
	f, err := os.OpenFile(x.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open run index: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("append run record: %w", err)
	}
	return nil
}

func (x *JSONLIndex) Recent(ctx context.Context, limit int) ([]ports.RunRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	f, err := os.Open(x.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open run index: %w", err)
	}
	defer f.Close()

	var all []ports.RunRecord
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var rec ports.RunRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			// Skip lines damaged by an interrupted writer
			continue
		}
		all = append(all, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read run index: %w", err)
	}

	// File order is append order, so newest records are at the end
	for i, j := 0, len(all)-1; i < j; i, j = i+1, j-1 {
		all[i], all[j] = all[j], all[i]
	}
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}
