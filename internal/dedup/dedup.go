// Package dedup remembers which posts the process has already handled.
package dedup

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Admitter gates a post id before any extraction work happens.
type Admitter interface {
	// Admit returns true and records id the first time it is seen, false afterwards.
	Admit(id string) bool
	// Recent returns up to n of the most recently admitted ids, newest first.
	Recent(n int) []string
	// Len is the number of ids currently remembered.
	Len() int
}

// Store is the unbounded seen set. It grows for the lifetime of the process.
type Store struct {
	mu     sync.Mutex
	seen   map[string]struct{}
	recent []string
	keep   int
}

// New returns an unbounded store that remembers the newest keep ids for Recent.
func New(keep int) *Store {
	if keep <= 0 {
		keep = 200
	}
	return &Store{seen: make(map[string]struct{}), keep: keep}
}

func (s *Store) Admit(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.seen[id]; ok {
		return false
	}
	s.seen[id] = struct{}{}
	s.recent = pushRecent(s.recent, id, s.keep)
	return true
}

func (s *Store) Recent(n int) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return newestFirst(s.recent, n)
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen)
}

// Bounded caps the seen set by size and, optionally, age. An evicted id can be admitted again.
type Bounded struct {
	mu     sync.Mutex
	lru    *expirable.LRU[string, struct{}]
	recent []string
	keep   int
}

// NewBounded keeps at most size ids, each for at most ttl (zero means no expiry).
func NewBounded(size int, ttl time.Duration, keep int) *Bounded {
	if keep <= 0 {
		keep = 200
	}
	return &Bounded{
		lru:  expirable.NewLRU[string, struct{}](size, nil, ttl),
		keep: keep,
	}
}

func (b *Bounded) Admit(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.lru.Peek(id); ok {
		return false
	}
	b.lru.Add(id, struct{}{})
	b.recent = pushRecent(b.recent, id, b.keep)
	return true
}

func (b *Bounded) Recent(n int) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return newestFirst(b.recent, n)
}

func (b *Bounded) Len() int {
	return b.lru.Len()
}

// Build picks the bounded store when maxEntries is positive.
func Build(maxEntries int, ttl time.Duration, keep int) Admitter {
	if maxEntries > 0 {
		return NewBounded(maxEntries, ttl, keep)
	}
	return New(keep)
}

func pushRecent(recent []string, id string, keep int) []string {
	recent = append(recent, id)
	if len(recent) > keep {
		recent = append(recent[:0], recent[len(recent)-keep:]...)
	}
	return recent
}

func newestFirst(recent []string, n int) []string {
	if n <= 0 || n > len(recent) {
		n = len(recent)
	}
	out := make([]string, 0, n)
	for i := len(recent) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, recent[i])
	}
	return out
}
