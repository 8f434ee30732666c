package solana

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	solana "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// Submitter lands a signed transaction on chain.
type Submitter interface {
	Submit(ctx context.Context, tx *solana.Transaction, jito bool) (solana.Signature, error)
}

// RPCSubmitter sends through the configured RPC node, or through the Jito block engine when asked.
type RPCSubmitter struct {
	RPC     *rpc.Client
	Commit  rpc.CommitmentType
	JitoURL string
	Http    *http.Client
}

func NewRPCSubmitter(rpcClient *rpc.Client, commit, jitoURL string) *RPCSubmitter {
	return &RPCSubmitter{
		RPC:     rpcClient,
		Commit:  ParseCommitment(commit),
		JitoURL: jitoURL,
		Http:    &http.Client{Timeout: 8 * time.Second},
	}
}

// ParseCommitment maps a config string to an rpc commitment, defaulting to confirmed.
func ParseCommitment(commit string) rpc.CommitmentType {
	switch commit {
	case "processed":
		return rpc.CommitmentProcessed
	case "finalized":
		return rpc.CommitmentFinalized
	default:
		return rpc.CommitmentConfirmed
	}
}

func (s *RPCSubmitter) Submit(ctx context.Context, tx *solana.Transaction, jito bool) (solana.Signature, error) {
	if jito && s.JitoURL != "" {
		return s.submitJito(ctx, tx)
	}
	return s.RPC.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		SkipPreflight:       false,
		PreflightCommitment: s.Commit,
	})
}

func (s *RPCSubmitter) submitJito(ctx context.Context, tx *solana.Transaction) (sig solana.Signature, err error) {
	raw, err := tx.MarshalBinary()
	if err != nil {
		return sig, fmt.Errorf("encode tx: %w", err)
	}
	body, _ := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "sendTransaction",
		"params":  []any{base64.StdEncoding.EncodeToString(raw), map[string]string{"encoding": "base64"}},
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.JitoURL, bytes.NewReader(body))
	if err != nil {
		return sig, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.Http.Do(req)
	if err != nil {
		return sig, fmt.Errorf("jito: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return sig, fmt.Errorf("jito status %d", resp.StatusCode)
	}
	var out struct {
		Result string `json:"result"`
		Error  *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return sig, fmt.Errorf("jito: decode response: %w", err)
	}
	if out.Error != nil {
		return sig, fmt.Errorf("jito: %s", out.Error.Message)
	}
	return solana.SignatureFromBase58(out.Result)
}

// signAs places owner's signature in the slot the message reserves for it.
func signAs(tx *solana.Transaction, owner solana.PrivateKey) error {
	msg, err := tx.Message.MarshalBinary()
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	n := int(tx.Message.Header.NumRequiredSignatures)
	if len(tx.Signatures) != n {
		sigs := make([]solana.Signature, n)
		copy(sigs, tx.Signatures)
		tx.Signatures = sigs
	}
	pub := owner.PublicKey()
	for i := 0; i < n && i < len(tx.Message.AccountKeys); i++ {
		if !tx.Message.AccountKeys[i].Equals(pub) {
			continue
		}
		s, err := owner.Sign(msg)
		if err != nil {
			return fmt.Errorf("sign: %w", err)
		}
		tx.Signatures[i] = s
		return nil
	}
	return fmt.Errorf("wallet %s is not a signer of the transaction", pub)
}
