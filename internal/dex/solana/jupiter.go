package solana

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"time"

	bin "github.com/gagliardetto/binary"
	solana "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/tmc-solana/lytra/internal/execution"
)

// WrappedSOL is the mint Jupiter uses for native SOL legs.
const WrappedSOL = "So11111111111111111111111111111111111111112"

const lamportsPerSOL = 1_000_000_000

type JupiterClient struct {
	Base   string
	RPC    *rpc.Client
	Commit rpc.CommitmentType
	Http   *http.Client
	Submit Submitter

	// decimals resolves the token decimals of a mint; defaults to an RPC token supply lookup.
	decimals func(ctx context.Context, mint solana.PublicKey) (uint8, error)
}

type Quote struct {
	InputMint      string `json:"inputMint"`
	OutputMint     string `json:"outputMint"`
	InAmount       string `json:"inAmount"`
	OutAmount      string `json:"outAmount"`
	OtherAmount    string `json:"otherAmountThreshold"`
	SlippageBps    int    `json:"slippageBps"`
	RoutePlan      any    `json:"routePlan"`
	PriceImpactPct string `json:"priceImpactPct"`
}

var _ execution.Engine = (*JupiterClient)(nil)

func NewJupiterClient(rpcClient *rpc.Client, base, commit string, submit Submitter) *JupiterClient {
	j := &JupiterClient{
		Base:   base,
		RPC:    rpcClient,
		Commit: ParseCommitment(commit),
		Http:   &http.Client{Timeout: 8 * time.Second},
		Submit: submit,
	}
	j.decimals = j.rpcDecimals
	return j
}

// amount is in smallest units (lamports for SOL; token decimals apply).
func (j *JupiterClient) GetQuote(ctx context.Context, inputMint, outputMint string, amount uint64, slippageBps int) (*Quote, error) {
	q := url.Values{}
	q.Set("inputMint", inputMint)
	q.Set("outputMint", outputMint)
	q.Set("amount", fmt.Sprintf("%d", amount))
	q.Set("slippageBps", fmt.Sprintf("%d", slippageBps))
	q.Set("onlyDirectRoutes", "false")
	u := j.Base + "/v6/quote?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := j.Http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("jupiter quote status %d", resp.StatusCode)
	}
	var out Quote
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Buy swaps amountSOL of SOL into mint.
func (j *JupiterClient) Buy(ctx context.Context, wallet solana.PrivateKey, mint string, amountSOL, slippagePct float64, p execution.BuyParams) error {
	lamports := uint64(math.Round(amountSOL * lamportsPerSOL))
	quote, err := j.GetQuote(ctx, WrappedSOL, mint, lamports, bps(slippagePct))
	if err != nil {
		return fmt.Errorf("jupiter buy %s: %w", mint, err)
	}
	_, err = j.BuildAndSendSwap(ctx, wallet, quote, feeLamports(p.PriorityFeeSOL), p.Jito, feeLamports(p.JitoTipSOL))
	if err != nil {
		return fmt.Errorf("jupiter buy %s: %w", mint, err)
	}
	return nil
}

// Sell swaps amountTokens of mint back into SOL.
func (j *JupiterClient) Sell(ctx context.Context, wallet solana.PrivateKey, mint string, amountTokens, slippagePct float64, p execution.SellParams) error {
	pk, err := solana.PublicKeyFromBase58(mint)
	if err != nil {
		return fmt.Errorf("jupiter sell: bad mint %q: %w", mint, err)
	}
	decimals, err := j.decimals(ctx, pk)
	if err != nil {
		return fmt.Errorf("jupiter sell %s: decimals: %w", mint, err)
	}
	units := uint64(math.Floor(amountTokens * math.Pow10(int(decimals))))
	quote, err := j.GetQuote(ctx, mint, WrappedSOL, units, bps(slippagePct))
	if err != nil {
		return fmt.Errorf("jupiter sell %s: %w", mint, err)
	}
	_, err = j.BuildAndSendSwap(ctx, wallet, quote, feeLamports(p.PriorityFeeSOL), p.Jito, feeLamports(p.JitoTipSOL))
	if err != nil {
		return fmt.Errorf("jupiter sell %s: %w", mint, err)
	}
	return nil
}

// BuildAndSendSwap asks Jupiter for a ready-to-sign transaction, signs it locally, then submits it.
func (j *JupiterClient) BuildAndSendSwap(ctx context.Context, owner solana.PrivateKey, quote *Quote, priorityLamports uint64, jito bool, tipLamports uint64) (sig solana.Signature, err error) {
	var fee any = priorityLamports
	if jito {
		fee = map[string]uint64{"jitoTipLamports": tipLamports}
	}
	payload := map[string]any{
		"userPublicKey":             owner.PublicKey().String(),
		"wrapAndUnwrapSol":          true,
		"asLegacyTransaction":       false,
		"useTokenLedger":            false,
		"prioritizationFeeLamports": fee,
		"quoteResponse":             quote,
	}
	body, _ := json.Marshal(payload)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, j.Base+"/v6/swap", bytes.NewReader(body))
	if err != nil {
		return sig, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := j.Http.Do(req)
	if err != nil {
		return sig, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return sig, fmt.Errorf("jupiter swap status %d", resp.StatusCode)
	}
	var sr struct {
		SwapTransaction string `json:"swapTransaction"` // base64-encoded tx (unsigned)
	}
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return sig, err
	}

	raw, err := base64.StdEncoding.DecodeString(sr.SwapTransaction)
	if err != nil {
		return sig, fmt.Errorf("decode tx: %w", err)
	}
	tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(raw))
	if err != nil {
		return sig, fmt.Errorf("unmarshal tx: %w", err)
	}
	if err := signAs(tx, owner); err != nil {
		return sig, err
	}
	return j.Submit.Submit(ctx, tx, jito)
}

func (j *JupiterClient) rpcDecimals(ctx context.Context, mint solana.PublicKey) (uint8, error) {
	out, err := j.RPC.GetTokenSupply(ctx, mint, j.Commit)
	if err != nil {
		return 0, err
	}
	if out == nil || out.Value == nil {
		return 0, fmt.Errorf("empty token supply for %s", mint)
	}
	return out.Value.Decimals, nil
}

func bps(pct float64) int { return int(math.Round(pct * 100)) }

func feeLamports(sol float64) uint64 {
	if sol <= 0 {
		return 0
	}
	return uint64(math.Round(sol * lamportsPerSOL))
}
