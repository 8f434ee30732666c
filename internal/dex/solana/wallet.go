package solana

import (
	"context"
	"errors"
	"fmt"
	"os"

	solana "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/joho/godotenv"
)

func LoadPrivateKeyFromEnv() (solana.PrivateKey, error) {
	_ = godotenv.Load() // best-effort
	b58 := os.Getenv("SOLANA_PRIVATE_KEY_BASE58")
	if b58 == "" {
		return nil, errors.New("SOLANA_PRIVATE_KEY_BASE58 not set")
	}
	return solana.PrivateKeyFromBase58(b58)
}

// LoadPrivateKey prefers an explicit base58 key, then a solana-keygen JSON file, then the environment.
func LoadPrivateKey(base58, keypairPath string) (solana.PrivateKey, error) {
	switch {
	case base58 != "":
		key, err := solana.PrivateKeyFromBase58(base58)
		if err != nil {
			return nil, fmt.Errorf("parse base58 key: %w", err)
		}
		return key, nil
	case keypairPath != "":
		key, err := solana.PrivateKeyFromSolanaKeygenFile(keypairPath)
		if err != nil {
			return nil, fmt.Errorf("read keypair %s: %w", keypairPath, err)
		}
		return key, nil
	default:
		return LoadPrivateKeyFromEnv()
	}
}

// BalanceSOL returns the native balance of owner in SOL.
func BalanceSOL(ctx context.Context, client *rpc.Client, owner solana.PublicKey, commit rpc.CommitmentType) (float64, error) {
	out, err := client.GetBalance(ctx, owner, commit)
	if err != nil {
		return 0, fmt.Errorf("get balance: %w", err)
	}
	return float64(out.Value) / lamportsPerSOL, nil
}
