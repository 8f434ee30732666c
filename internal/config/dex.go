// Package config also contains DEX-specific configuration surfaces.
package config

// Dex defines network endpoints and defaults for decentralized execution.
type Dex struct {
	RpcURL          string `yaml:"rpc_url"`
	Commitment      string `yaml:"commitment"`       // processed|confirmed|finalized
	JupiterBase     string `yaml:"jupiter_base"`     // https://quote-api.jup.ag
	PumpPortalBase  string `yaml:"pumpportal_base"`  // https://pumpportal.fun
	PumpAPIBase     string `yaml:"pump_api_base"`    // https://frontend-api.pump.fun
	DexScreenerBase string `yaml:"dexscreener_base"` // empty disables the fallback lookup
	JitoURL         string `yaml:"jito_url"`
}

// Wallet stores encrypted or env-backed signing material metadata.
type Wallet struct {
	PrivateKeyBase58 string `yaml:"private_key_base58"`
	KeypairPath      string `yaml:"keypair_path"`
}

func (d *Dex) applyDefaults() {
	setString(&d.RpcURL, "https://api.mainnet-beta.solana.com")
	setString(&d.Commitment, "confirmed")
	setString(&d.JupiterBase, "https://quote-api.jup.ag")
	setString(&d.PumpPortalBase, "https://pumpportal.fun")
	setString(&d.PumpAPIBase, "https://frontend-api.pump.fun")
	setString(&d.JitoURL, "https://mainnet.block-engine.jito.wtf/api/v1/transactions")
}
