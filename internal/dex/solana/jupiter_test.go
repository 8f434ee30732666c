package solana

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	solana "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/tmc-solana/lytra/internal/execution"
)

type captureSubmitter struct {
	mu   sync.Mutex
	txs  []*solana.Transaction
	jito []bool
}

func (c *captureSubmitter) Submit(_ context.Context, tx *solana.Transaction, jito bool) (solana.Signature, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.txs = append(c.txs, tx)
	c.jito = append(c.jito, jito)
	return tx.Signatures[0], nil
}

// unsignedTransfer builds a wire transaction with a placeholder signature, the shape swap APIs return.
func unsignedTransfer(t *testing.T, payer solana.PublicKey) []byte {
	t.Helper()
	tx, err := solana.NewTransaction(
		[]solana.Instruction{system.NewTransferInstruction(1, payer, solana.NewWallet().PublicKey()).Build()},
		solana.Hash{},
		solana.TransactionPayer(payer),
	)
	if err != nil {
		t.Fatalf("build tx: %v", err)
	}
	tx.Signatures = make([]solana.Signature, tx.Message.Header.NumRequiredSignatures)
	raw, err := tx.MarshalBinary()
	if err != nil {
		t.Fatalf("encode tx: %v", err)
	}
	return raw
}

func signedBy(tx *solana.Transaction, pub solana.PublicKey) bool {
	msg, err := tx.Message.MarshalBinary()
	if err != nil || len(tx.Signatures) == 0 {
		return false
	}
	return tx.Signatures[0].Verify(pub, msg)
}

func TestParseCommitment(t *testing.T) {
	if got := ParseCommitment("finalized"); got != rpc.CommitmentFinalized {
		t.Fatalf("expected finalized commitment, got %v", got)
	}
	if got := ParseCommitment(""); got != rpc.CommitmentConfirmed {
		t.Fatalf("expected confirmed default, got %v", got)
	}
}

func TestGetQuote(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v6/quote" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("inputMint") != "AAA" {
			t.Errorf("missing inputMint query")
		}
		resp := Quote{InputMint: "AAA", OutputMint: "BBB", InAmount: "10", OutAmount: "20", SlippageBps: 50}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewJupiterClient(rpc.New("http://127.0.0.1:1"), server.URL, "processed", &captureSubmitter{})
	client.Http = server.Client()

	quote, err := client.GetQuote(context.Background(), "AAA", "BBB", 10, 50)
	if err != nil {
		t.Fatalf("GetQuote returned error: %v", err)
	}
	if quote.OutAmount != "20" {
		t.Fatalf("expected OutAmount 20, got %s", quote.OutAmount)
	}
}

func newJupiterServer(t *testing.T, owner solana.PublicKey, quotes *[]string, swaps *[]map[string]any) *httptest.Server {
	t.Helper()
	raw := unsignedTransfer(t, owner)
	mux := http.NewServeMux()
	mux.HandleFunc("/v6/quote", func(w http.ResponseWriter, r *http.Request) {
		*quotes = append(*quotes, r.URL.RawQuery)
		_ = json.NewEncoder(w).Encode(Quote{InputMint: r.URL.Query().Get("inputMint"), OutAmount: "1"})
	})
	mux.HandleFunc("/v6/swap", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		*swaps = append(*swaps, body)
		_ = json.NewEncoder(w).Encode(map[string]string{"swapTransaction": base64.StdEncoding.EncodeToString(raw)})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestJupiterBuySignsAndSubmits(t *testing.T) {
	wallet := solana.NewWallet()
	var quotes []string
	var swaps []map[string]any
	srv := newJupiterServer(t, wallet.PublicKey(), &quotes, &swaps)
	sub := &captureSubmitter{}
	client := NewJupiterClient(rpc.New("http://127.0.0.1:1"), srv.URL, "confirmed", sub)

	err := client.Buy(context.Background(), wallet.PrivateKey, "MintAAA", 0.5, 10, execution.BuyParams{PriorityFeeSOL: 0.001})
	if err != nil {
		t.Fatalf("Buy returned error: %v", err)
	}
	if len(quotes) != 1 || len(swaps) != 1 || len(sub.txs) != 1 {
		t.Fatalf("unexpected call counts quotes=%d swaps=%d submits=%d", len(quotes), len(swaps), len(sub.txs))
	}
	if want := "amount=500000000"; !strings.Contains(quotes[0], want) {
		t.Fatalf("quote query %q missing %q", quotes[0], want)
	}
	if want := "slippageBps=1000"; !strings.Contains(quotes[0], want) {
		t.Fatalf("quote query %q missing %q", quotes[0], want)
	}
	if fee, _ := swaps[0]["prioritizationFeeLamports"].(float64); fee != 1_000_000 {
		t.Fatalf("unexpected priority fee %v", swaps[0]["prioritizationFeeLamports"])
	}
	if !signedBy(sub.txs[0], wallet.PublicKey()) {
		t.Fatalf("submitted tx not signed by wallet")
	}
}

func TestJupiterSellUsesDecimalsAndJitoTip(t *testing.T) {
	wallet := solana.NewWallet()
	var quotes []string
	var swaps []map[string]any
	srv := newJupiterServer(t, wallet.PublicKey(), &quotes, &swaps)
	sub := &captureSubmitter{}
	client := NewJupiterClient(rpc.New("http://127.0.0.1:1"), srv.URL, "confirmed", sub)
	client.decimals = func(context.Context, solana.PublicKey) (uint8, error) { return 6, nil }

	mint := solana.NewWallet().PublicKey().String()
	err := client.Sell(context.Background(), wallet.PrivateKey, mint, 12.5, 5, execution.SellParams{Jito: true, JitoTipSOL: 0.0001})
	if err != nil {
		t.Fatalf("Sell returned error: %v", err)
	}
	if want := "amount=12500000"; !strings.Contains(quotes[0], want) {
		t.Fatalf("quote query %q missing %q", quotes[0], want)
	}
	fee, ok := swaps[0]["prioritizationFeeLamports"].(map[string]any)
	if !ok || fee["jitoTipLamports"].(float64) != 100_000 {
		t.Fatalf("unexpected jito fee %v", swaps[0]["prioritizationFeeLamports"])
	}
	if !sub.jito[0] {
		t.Fatalf("expected jito submission")
	}
}
