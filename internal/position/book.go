// Package position tracks what the wallet paid for each token it bought.
package position

import (
	"encoding/json"
	"net/http"
	"sort"
	"sync"

	"github.com/shopspring/decimal"
)

type entry struct {
	Cost   decimal.Decimal // SOL spent
	Tokens decimal.Decimal // 0 until a holdings refresh reports the balance
}

// Book records the SOL cost basis per mint. It is safe for concurrent use.
type Book struct {
	mu        sync.Mutex
	positions map[string]entry
}

// Snapshot is a read-only view of one position.
type Snapshot struct {
	Mint   string
	Cost   decimal.Decimal
	Tokens decimal.Decimal
}

func NewBook() *Book {
	return &Book{positions: make(map[string]entry)}
}

// Open adds costSOL to the basis of mint. Repeated buys accumulate.
func (b *Book) Open(mint string, costSOL float64) {
	if costSOL <= 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	e := b.positions[mint]
	e.Cost = e.Cost.Add(decimal.NewFromFloat(costSOL))
	b.positions[mint] = e
}

// Observe records the latest token balance reported for mint.
func (b *Book) Observe(mint string, tokens float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	e, ok := b.positions[mint]
	if !ok {
		return
	}
	e.Tokens = decimal.NewFromFloat(tokens)
	b.positions[mint] = e
}

// Close forgets mint after it was sold in full.
func (b *Book) Close(mint string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.positions, mint)
}

// Cost returns the SOL cost basis of mint and whether one is recorded.
func (b *Book) Cost(mint string) (decimal.Decimal, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	e, ok := b.positions[mint]
	return e.Cost, ok
}

// Snapshot returns a copy of every open position.
func (b *Book) Snapshot() []Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Snapshot, 0, len(b.positions))
	for mint, e := range b.positions {
		out = append(out, Snapshot{Mint: mint, Cost: e.Cost, Tokens: e.Tokens})
	}
	return out
}

type positionJSON struct {
	Mint   string          `json:"mint"`
	Cost   decimal.Decimal `json:"cost_sol"`
	Tokens decimal.Decimal `json:"tokens"`
}

// ServeHTTP writes the open positions as a JSON array ordered by mint.
func (b *Book) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	snap := b.Snapshot()
	sort.Slice(snap, func(i, j int) bool { return snap[i].Mint < snap[j].Mint })
	out := make([]positionJSON, 0, len(snap))
	for _, s := range snap {
		out = append(out, positionJSON{Mint: s.Mint, Cost: s.Cost, Tokens: s.Tokens})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}
