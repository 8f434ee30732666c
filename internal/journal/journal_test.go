package journal

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestJSONLAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "trades.jsonl")

	j, err := Open(path)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	j.Record(Entry{TaskID: "a", Asset: "MINT", Venue: "PumpFun", Side: "BUY", Amount: 0.1, OK: true, Started: time.Now()})
	j.Record(Entry{TaskID: "b", Asset: "MINT", Venue: "PumpFun", Side: "SELL", Error: "slippage"})
	if err := j.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}
	j.Record(Entry{TaskID: "dropped"})

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	defer file.Close()

	var got []Entry
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var e Entry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			t.Fatalf("json decode: %v", err)
		}
		got = append(got, e)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}
	if got[1].OK || got[1].Error != "slippage" {
		t.Fatalf("unexpected second entry %+v", got[1])
	}
}
