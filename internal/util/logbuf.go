package util

import (
	"bytes"
	"strings"
	"sync"
)

// LogBuffer keeps the most recent log lines in memory so the console can render them.
// It is safe for concurrent use.
type LogBuffer struct {
	mu    sync.Mutex
	lines []string
	next  int
	full  bool
}

// NewLogBuffer allocates a buffer retaining up to size lines.
func NewLogBuffer(size int) *LogBuffer {
	if size <= 0 {
		size = 200
	}
	return &LogBuffer{lines: make([]string, size)}
}

// Write implements io.Writer, splitting p into lines.
func (b *LogBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, line := range bytes.Split(bytes.TrimRight(p, "\n"), []byte{'\n'}) {
		if len(line) == 0 {
			continue
		}
		b.lines[b.next] = string(line)
		b.next = (b.next + 1) % len(b.lines)
		if b.next == 0 {
			b.full = true
		}
	}
	return len(p), nil
}

// Tail returns up to n of the newest lines, oldest first.
func (b *LogBuffer) Tail(n int) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	count := b.next
	if b.full {
		count = len(b.lines)
	}
	if n > count {
		n = count
	}
	out := make([]string, 0, n)
	for i := count - n; i < count; i++ {
		idx := i
		if b.full {
			idx = (b.next + i) % len(b.lines)
		}
		out = append(out, strings.TrimSpace(b.lines[idx]))
	}
	return out
}
