// Package journal appends trade outcomes as JSON lines.
package journal

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Entry is one finished trade task.
type Entry struct {
	TaskID   string        `json:"task_id"`
	Account  string        `json:"account,omitempty"`
	Asset    string        `json:"asset"`
	Venue    string        `json:"venue"`
	Side     string        `json:"side"`
	Amount   float64       `json:"amount"`
	OK       bool          `json:"ok"`
	Error    string        `json:"error,omitempty"`
	Started  time.Time     `json:"started"`
	Duration time.Duration `json:"duration_ns"`
}

// Recorder receives finished trade entries.
type Recorder interface {
	Record(Entry)
}

// Discard drops every entry.
type Discard struct{}

func (Discard) Record(Entry) {}

// JSONL appends entries to a file, one JSON object per line.
type JSONL struct {
	mu   sync.Mutex
	file *os.File
	enc  *json.Encoder
}

// Open creates or opens path for appending.
func Open(path string) (*JSONL, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return &JSONL{file: file, enc: json.NewEncoder(file)}, nil
}

// Record writes a single entry. Entries recorded after Close are dropped.
func (j *JSONL) Record(e Entry) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.file == nil {
		return
	}
	_ = j.enc.Encode(e)
}

// Close closes the file handle.
func (j *JSONL) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.file == nil {
		return nil
	}
	err := j.file.Close()
	j.file = nil
	return err
}
