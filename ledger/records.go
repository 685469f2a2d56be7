package ledger

import (
	"fmt"
	"regexp"

	"github.com/blockberries/stakeledger/crypto"
	"github.com/blockberries/stakeledger/types"
)

// AssetCode identifies a fungible asset type.
type AssetCode string

var assetCodeRe = regexp.MustCompile(`^[A-Z0-9]{1,16}$`)

// Validate checks the code is 1..16 upper-case alphanumerics.
func (c AssetCode) Validate() error {
	if !assetCodeRe.MatchString(string(c)) {
		return fmt.Errorf("invalid asset code %q", string(c))
	}
	return nil
}

// Account holds per-account replay protection.
type Account struct {
	Address crypto.Address `cramberry:"1"`
	// Sequence is the next sequence number the account must use.
	Sequence uint64 `cramberry:"2"`
}

// Asset is the definition record of an asset type.
type Asset struct {
	Code         AssetCode      `cramberry:"1"`
	Issuer       crypto.Address `cramberry:"2"`
	Decimals     uint8          `cramberry:"3"`
	MaxUnits     uint64         `cramberry:"4"` // 0 = unlimited
	Transferable bool           `cramberry:"5"`
	Memo         string         `cramberry:"6"`
	// Supply is the amount currently in existence, in any form.
	Supply uint64 `cramberry:"7"`
}

// ValidatorStatus is the staking status of a validator.
type ValidatorStatus uint8

const (
	StatusUnbonded ValidatorStatus = iota + 1
	StatusBonded
	StatusUnbonding
	StatusJailed
)

func (s ValidatorStatus) String() string {
	switch s {
	case StatusBonded:
		return "bonded"
	case StatusUnbonding:
		return "unbonding"
	case StatusUnbonded:
		return "unbonded"
	case StatusJailed:
		return "jailed"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(s))
	}
}

// ValidatorMemo is operator supplied descriptive data.
type ValidatorMemo struct {
	Moniker string `cramberry:"1"`
	Website string `cramberry:"2"`
	Details string `cramberry:"3"`
}

// Validator is the staking record of a consensus participant.
type Validator struct {
	PubKey   types.PublicKey `cramberry:"1"`
	Operator crypto.Address  `cramberry:"2"`
	Status   ValidatorStatus `cramberry:"3"`
	// Commission in basis points of the validator's reward.
	CommissionBps uint32 `cramberry:"4"`
	// BondedTotal is the sum of all delegations, self-bond included.
	BondedTotal uint64 `cramberry:"5"`
	// UnbondingTotal is the sum of pending unbonding entries.
	UnbondingTotal uint64 `cramberry:"6"`
	// Power is the voting power last reported to consensus.
	Power         uint64        `cramberry:"7"`
	JailedUntil   uint64        `cramberry:"8"`
	Memo          ValidatorMemo `cramberry:"9"`
	CreatedHeight uint64        `cramberry:"10"`
}

// Identity returns the validator's canonical identity.
func (v *Validator) Identity() types.Identity { return v.PubKey.Identity() }

// Prunable reports whether the record carries no stake at all.
func (v *Validator) Prunable() bool { return v.BondedTotal == 0 && v.UnbondingTotal == 0 }

// Delegation is a bonded amount from one delegator to one validator.
type Delegation struct {
	Validator types.PublicKey `cramberry:"1"`
	Delegator crypto.Address  `cramberry:"2"`
	Amount    uint64          `cramberry:"3"`
}

// UnbondingEntry is stake waiting for its maturity height.
type UnbondingEntry struct {
	Validator      types.PublicKey `cramberry:"1"`
	Delegator      crypto.Address  `cramberry:"2"`
	Amount         uint64          `cramberry:"3"`
	CreationHeight uint64          `cramberry:"4"`
	MaturityHeight uint64          `cramberry:"5"`
}

// Params are the chain parameters fixed at genesis.
type Params struct {
	// StakingAsset is bonded, pays fees and receives rewards.
	StakingAsset AssetCode `cramberry:"1"`
	MinBond      uint64    `cramberry:"2"`
	// UnbondingPeriod in blocks.
	UnbondingPeriod uint64 `cramberry:"3"`
	// EpochLength in blocks; rewards are distributed when
	// height % EpochLength == 0.
	EpochLength   uint64 `cramberry:"4"`
	MaxValidators uint32 `cramberry:"5"`
	// Slashes of at least JailThresholdBps jail the validator.
	JailThresholdBps    uint32 `cramberry:"6"`
	JailPeriod          uint64 `cramberry:"7"`
	DoubleSignSlashBps  uint32 `cramberry:"8"`
	LightClientSlashBps uint32 `cramberry:"9"`
	// MaxEvidenceAge in blocks.
	MaxEvidenceAge   uint64 `cramberry:"10"`
	MaxCommissionBps uint32 `cramberry:"11"`
	MinFee           uint64 `cramberry:"12"`
	MaxOpsPerTx      uint32 `cramberry:"13"`
	MaxTxBytes       uint32 `cramberry:"14"`
	// ChainID is the chain every transaction must be signed for.
	ChainID string `cramberry:"15"`
}

// BpsDenominator is 100% in basis points.
const BpsDenominator = 10_000

// DefaultParams returns parameters suitable for tests and devnets.
func DefaultParams() Params {
	return Params{
		StakingAsset:        "STAKE",
		MinBond:             100,
		UnbondingPeriod:     10,
		EpochLength:         5,
		MaxValidators:       4,
		JailThresholdBps:    500,
		JailPeriod:          20,
		DoubleSignSlashBps:  500,
		LightClientSlashBps: 1000,
		MaxEvidenceAge:      100,
		MaxCommissionBps:    BpsDenominator,
		MinFee:              1,
		MaxOpsPerTx:         16,
		MaxTxBytes:          64 * 1024,
	}
}

// Validate checks the parameters for internal consistency.
func (p Params) Validate() error {
	if err := p.StakingAsset.Validate(); err != nil {
		return fmt.Errorf("staking asset: %w", err)
	}
	switch {
	case p.MinBond == 0:
		return fmt.Errorf("min bond must be positive")
	case p.EpochLength == 0:
		return fmt.Errorf("epoch length must be positive")
	case p.MaxValidators == 0:
		return fmt.Errorf("max validators must be positive")
	case p.MaxCommissionBps > BpsDenominator:
		return fmt.Errorf("max commission %d bps exceeds %d", p.MaxCommissionBps, BpsDenominator)
	case p.JailThresholdBps > BpsDenominator, p.DoubleSignSlashBps > BpsDenominator, p.LightClientSlashBps > BpsDenominator:
		return fmt.Errorf("slash fractions must not exceed %d bps", BpsDenominator)
	case p.MaxOpsPerTx == 0:
		return fmt.Errorf("max ops per tx must be positive")
	case p.MaxTxBytes == 0:
		return fmt.Errorf("max tx bytes must be positive")
	}
	return nil
}
