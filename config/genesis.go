package config

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/blockberries/stakeledger/crypto"
	"github.com/blockberries/stakeledger/ledger"
	"github.com/blockberries/stakeledger/types"
)

// Genesis is the initial chain state.
type Genesis struct {
	ChainID string `yaml:"chain_id"`
	// InitialHeight is the first block height; genesis state is
	// committed at InitialHeight-1.
	InitialHeight uint64             `yaml:"initial_height"`
	Params        GenesisParams      `yaml:"params"`
	Assets        []GenesisAsset     `yaml:"assets"`
	Balances      []GenesisBalance   `yaml:"balances"`
	Validators    []GenesisValidator `yaml:"validators"`
}

// GenesisParams mirrors ledger.Params.
type GenesisParams struct {
	StakingAsset        string `yaml:"staking_asset"`
	MinBond             uint64 `yaml:"min_bond"`
	UnbondingPeriod     uint64 `yaml:"unbonding_period"`
	EpochLength         uint64 `yaml:"epoch_length"`
	MaxValidators       uint32 `yaml:"max_validators"`
	JailThresholdBps    uint32 `yaml:"jail_threshold_bps"`
	JailPeriod          uint64 `yaml:"jail_period"`
	DoubleSignSlashBps  uint32 `yaml:"double_sign_slash_bps"`
	LightClientSlashBps uint32 `yaml:"light_client_slash_bps"`
	MaxEvidenceAge      uint64 `yaml:"max_evidence_age"`
	MaxCommissionBps    uint32 `yaml:"max_commission_bps"`
	MinFee              uint64 `yaml:"min_fee"`
	MaxOpsPerTx         uint32 `yaml:"max_ops_per_tx"`
	MaxTxBytes          uint32 `yaml:"max_tx_bytes"`
}

// GenesisAsset defines an asset present at genesis.
type GenesisAsset struct {
	Code         string `yaml:"code"`
	Issuer       string `yaml:"issuer,omitempty"`
	Decimals     uint8  `yaml:"decimals"`
	MaxUnits     uint64 `yaml:"max_units"`
	Transferable bool   `yaml:"transferable"`
	Memo         string `yaml:"memo,omitempty"`
}

// GenesisBalance credits an account at genesis.
type GenesisBalance struct {
	Address string `yaml:"address"`
	Asset   string `yaml:"asset"`
	Amount  uint64 `yaml:"amount"`
}

// GenesisValidator registers a validator with its operator's
// self-bond. The operator must hold SelfBond spendable units of the
// staking asset in Balances.
type GenesisValidator struct {
	PubKey        string `yaml:"pub_key"` // hex ed25519
	Operator      string `yaml:"operator"`
	CommissionBps uint32 `yaml:"commission_bps"`
	SelfBond      uint64 `yaml:"self_bond"`
	Moniker       string `yaml:"moniker,omitempty"`
}

// DefaultGenesisParams returns the genesis form of ledger.DefaultParams.
func DefaultGenesisParams() GenesisParams {
	p := ledger.DefaultParams()
	return GenesisParams{
		StakingAsset:        string(p.StakingAsset),
		MinBond:             p.MinBond,
		UnbondingPeriod:     p.UnbondingPeriod,
		EpochLength:         p.EpochLength,
		MaxValidators:       p.MaxValidators,
		JailThresholdBps:    p.JailThresholdBps,
		JailPeriod:          p.JailPeriod,
		DoubleSignSlashBps:  p.DoubleSignSlashBps,
		LightClientSlashBps: p.LightClientSlashBps,
		MaxEvidenceAge:      p.MaxEvidenceAge,
		MaxCommissionBps:    p.MaxCommissionBps,
		MinFee:              p.MinFee,
		MaxOpsPerTx:         p.MaxOpsPerTx,
		MaxTxBytes:          p.MaxTxBytes,
	}
}

// LedgerParams converts to ledger.Params for chainID.
func (p GenesisParams) LedgerParams(chainID string) ledger.Params {
	return ledger.Params{
		StakingAsset:        ledger.AssetCode(p.StakingAsset),
		MinBond:             p.MinBond,
		UnbondingPeriod:     p.UnbondingPeriod,
		EpochLength:         p.EpochLength,
		MaxValidators:       p.MaxValidators,
		JailThresholdBps:    p.JailThresholdBps,
		JailPeriod:          p.JailPeriod,
		DoubleSignSlashBps:  p.DoubleSignSlashBps,
		LightClientSlashBps: p.LightClientSlashBps,
		MaxEvidenceAge:      p.MaxEvidenceAge,
		MaxCommissionBps:    p.MaxCommissionBps,
		MinFee:              p.MinFee,
		MaxOpsPerTx:         p.MaxOpsPerTx,
		MaxTxBytes:          p.MaxTxBytes,
		ChainID:             chainID,
	}
}

// ParseGenesis decodes and validates a YAML genesis document.
func ParseGenesis(data []byte) (*Genesis, error) {
	g := &Genesis{Params: DefaultGenesisParams()}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(g); err != nil {
		return nil, fmt.Errorf("decode genesis: %w", err)
	}
	if g.InitialHeight == 0 {
		g.InitialHeight = 1
	}
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("genesis: %w", err)
	}
	return g, nil
}

// LoadGenesis reads the genesis document at path.
func LoadGenesis(path string) (*Genesis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read genesis: %w", err)
	}
	return ParseGenesis(data)
}

// Marshal encodes g as YAML.
func (g *Genesis) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(g); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Validate checks the document for structural errors. Economic
// consistency (balances covering self-bonds) is checked when the
// genesis is applied.
func (g *Genesis) Validate() error {
	if g.ChainID == "" {
		return fmt.Errorf("chain_id is required")
	}
	if err := g.Params.LedgerParams(g.ChainID).Validate(); err != nil {
		return fmt.Errorf("params: %w", err)
	}
	seen := make(map[string]bool)
	staking := false
	for i, a := range g.Assets {
		if err := ledger.AssetCode(a.Code).Validate(); err != nil {
			return fmt.Errorf("assets[%d]: %w", i, err)
		}
		if seen[a.Code] {
			return fmt.Errorf("assets[%d]: duplicate asset %s", i, a.Code)
		}
		seen[a.Code] = true
		if a.Issuer != "" {
			if _, err := crypto.ParseAddress(a.Issuer); err != nil {
				return fmt.Errorf("assets[%d]: %w", i, err)
			}
		}
		staking = staking || a.Code == g.Params.StakingAsset
	}
	if !staking {
		return fmt.Errorf("staking asset %s is not defined", g.Params.StakingAsset)
	}
	for i, b := range g.Balances {
		if _, err := crypto.ParseAddress(b.Address); err != nil {
			return fmt.Errorf("balances[%d]: %w", i, err)
		}
		if !seen[b.Asset] {
			return fmt.Errorf("balances[%d]: unknown asset %s", i, b.Asset)
		}
	}
	keys := make(map[string]bool)
	for i, v := range g.Validators {
		pk, err := v.Key()
		if err != nil {
			return fmt.Errorf("validators[%d]: %w", i, err)
		}
		if keys[string(pk.Identity())] {
			return fmt.Errorf("validators[%d]: duplicate key", i)
		}
		keys[string(pk.Identity())] = true
		if _, err := crypto.ParseAddress(v.Operator); err != nil {
			return fmt.Errorf("validators[%d]: %w", i, err)
		}
	}
	return nil
}

// Key decodes the validator's consensus key.
func (v GenesisValidator) Key() (types.PublicKey, error) {
	data, err := hex.DecodeString(v.PubKey)
	if err != nil || len(data) != 32 {
		return types.PublicKey{}, fmt.Errorf("pub_key must be 32 hex-encoded bytes")
	}
	return types.PublicKey{Type: types.KeyTypeEd25519, Data: data}, nil
}
