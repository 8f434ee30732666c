package solana

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	bin "github.com/gagliardetto/binary"
	solana "github.com/gagliardetto/solana-go"

	"github.com/tmc-solana/lytra/internal/execution"
)

// Pools understood by the PumpPortal local trade API.
const (
	PoolPump    = "pump"
	PoolRaydium = "raydium"
)

// PumpPortal builds pump.fun and Raydium swaps through the PumpPortal local trade API
// and signs them with the local wallet.
type PumpPortal struct {
	Base   string
	Pool   string
	Http   *http.Client
	Submit Submitter
}

var _ execution.Engine = (*PumpPortal)(nil)

func NewPumpPortal(base, pool string, submit Submitter) *PumpPortal {
	return &PumpPortal{
		Base:   strings.TrimSuffix(base, "/"),
		Pool:   pool,
		Http:   &http.Client{Timeout: 8 * time.Second},
		Submit: submit,
	}
}

type tradeRequest struct {
	PublicKey        string  `json:"publicKey"`
	Action           string  `json:"action"`
	Mint             string  `json:"mint"`
	DenominatedInSol string  `json:"denominatedInSol"`
	Amount           float64 `json:"amount"`
	Slippage         float64 `json:"slippage"`
	PriorityFee      float64 `json:"priorityFee"`
	Pool             string  `json:"pool"`
}

func (p *PumpPortal) Buy(ctx context.Context, wallet solana.PrivateKey, mint string, amountSOL, slippagePct float64, bp execution.BuyParams) error {
	fee := bp.PriorityFeeSOL
	if bp.Jito {
		fee = bp.JitoTipSOL
	}
	req := tradeRequest{
		PublicKey: wallet.PublicKey().String(), Action: "buy", Mint: mint,
		DenominatedInSol: "true", Amount: amountSOL, Slippage: slippagePct, PriorityFee: fee, Pool: p.Pool,
	}
	if _, err := p.trade(ctx, wallet, req, bp.Jito); err != nil {
		return fmt.Errorf("pumpportal buy %s: %w", mint, err)
	}
	return nil
}

func (p *PumpPortal) Sell(ctx context.Context, wallet solana.PrivateKey, mint string, amountTokens, slippagePct float64, sp execution.SellParams) error {
	fee := sp.PriorityFeeSOL
	if sp.Jito {
		fee = sp.JitoTipSOL
	}
	req := tradeRequest{
		PublicKey: wallet.PublicKey().String(), Action: "sell", Mint: mint,
		DenominatedInSol: "false", Amount: amountTokens, Slippage: slippagePct, PriorityFee: fee, Pool: p.Pool,
	}
	if _, err := p.trade(ctx, wallet, req, sp.Jito); err != nil {
		return fmt.Errorf("pumpportal sell %s: %w", mint, err)
	}
	return nil
}

func (p *PumpPortal) trade(ctx context.Context, owner solana.PrivateKey, tr tradeRequest, jito bool) (sig solana.Signature, err error) {
	body, _ := json.Marshal(tr)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.Base+"/api/trade-local", bytes.NewReader(body))
	if err != nil {
		return sig, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := p.Http.Do(req)
	if err != nil {
		return sig, err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return sig, fmt.Errorf("read tx: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return sig, fmt.Errorf("trade-local status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(raw))
	if err != nil {
		return sig, fmt.Errorf("unmarshal tx: %w", err)
	}
	if err := signAs(tx, owner); err != nil {
		return sig, err
	}
	return p.Submit.Submit(ctx, tx, jito)
}
