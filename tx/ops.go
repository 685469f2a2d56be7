package tx

import (
	"errors"
	"fmt"

	"github.com/blockberries/stakeledger/crypto"
	"github.com/blockberries/stakeledger/ledger"
	"github.com/blockberries/stakeledger/types"
)

// ErrMalformed wraps every structural defect of a transaction.
var ErrMalformed = errors.New("malformed transaction")

// Op is one operation of a transaction. The set of implementations
// is closed: every Op is one of the types in this file.
type Op interface {
	// Kind names the operation for logs and events.
	Kind() string
	// ValidateBasic performs stateless structural checks.
	ValidateBasic() error

	sealed()
}

// Transfer moves Amount of Asset from the sender to To.
type Transfer struct {
	To     crypto.Address   `cramberry:"1"`
	Asset  ledger.AssetCode `cramberry:"2"`
	Amount uint64           `cramberry:"3"`
}

// DefineAsset registers a new asset issued by the sender.
type DefineAsset struct {
	Code         ledger.AssetCode `cramberry:"1"`
	Decimals     uint8            `cramberry:"2"`
	MaxUnits     uint64           `cramberry:"3"`
	Transferable bool             `cramberry:"4"`
	Memo         string           `cramberry:"5"`
}

// IssueAsset mints Amount of an asset the sender issued to To.
type IssueAsset struct {
	Code   ledger.AssetCode `cramberry:"1"`
	To     crypto.Address   `cramberry:"2"`
	Amount uint64           `cramberry:"3"`
}

// CreateValidator registers the sender as operator of a new
// validator and bonds SelfBond to it.
type CreateValidator struct {
	PubKey        types.PublicKey      `cramberry:"1"`
	CommissionBps uint32               `cramberry:"2"`
	Memo          ledger.ValidatorMemo `cramberry:"3"`
	SelfBond      uint64               `cramberry:"4"`
}

// Bond delegates Amount of the staking asset to Validator.
type Bond struct {
	Validator types.PublicKey `cramberry:"1"`
	Amount    uint64          `cramberry:"2"`
}

// Unbond starts unbonding Amount from Validator. Zero unbonds the
// whole delegation.
type Unbond struct {
	Validator types.PublicKey `cramberry:"1"`
	Amount    uint64          `cramberry:"2"`
}

// ClaimReward moves accumulated rewards to the spendable balance.
// Zero claims everything.
type ClaimReward struct {
	Amount uint64 `cramberry:"1"`
}

// UpdateValidator changes a validator operated by the sender. Memo
// replaces the current memo only when SetMemo is true, so an empty
// memo can be set.
type UpdateValidator struct {
	Validator     types.PublicKey      `cramberry:"1"`
	SetCommission bool                 `cramberry:"2"`
	CommissionBps uint32               `cramberry:"3"`
	SetMemo       bool                 `cramberry:"4"`
	Memo          ledger.ValidatorMemo `cramberry:"5"`
	Unjail        bool                 `cramberry:"6"`
}

func (Transfer) sealed()        {}
func (DefineAsset) sealed()     {}
func (IssueAsset) sealed()      {}
func (CreateValidator) sealed() {}
func (Bond) sealed()            {}
func (Unbond) sealed()          {}
func (ClaimReward) sealed()     {}
func (UpdateValidator) sealed() {}

func (Transfer) Kind() string        { return "transfer" }
func (DefineAsset) Kind() string     { return "define_asset" }
func (IssueAsset) Kind() string      { return "issue_asset" }
func (CreateValidator) Kind() string { return "create_validator" }
func (Bond) Kind() string            { return "bond" }
func (Unbond) Kind() string          { return "unbond" }
func (ClaimReward) Kind() string     { return "claim_reward" }
func (UpdateValidator) Kind() string { return "update_validator" }

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformed, fmt.Sprintf(format, args...))
}

// ValidatePubKey checks a consensus key is a 32-byte ed25519 key.
func ValidatePubKey(pk types.PublicKey) error {
	if pk.Type != types.KeyTypeEd25519 || len(pk.Data) != 32 {
		return malformed("validator key must be a 32-byte ed25519 key")
	}
	return nil
}

func (op Transfer) ValidateBasic() error {
	if err := op.Asset.Validate(); err != nil {
		return malformed("%v", err)
	}
	if op.Amount == 0 {
		return malformed("transfer amount must be positive")
	}
	return nil
}

func (op DefineAsset) ValidateBasic() error {
	if err := op.Code.Validate(); err != nil {
		return malformed("%v", err)
	}
	if op.Decimals > 19 {
		return malformed("decimals %d out of range", op.Decimals)
	}
	return nil
}

func (op IssueAsset) ValidateBasic() error {
	if err := op.Code.Validate(); err != nil {
		return malformed("%v", err)
	}
	if op.Amount == 0 {
		return malformed("issue amount must be positive")
	}
	return nil
}

func (op CreateValidator) ValidateBasic() error {
	if err := ValidatePubKey(op.PubKey); err != nil {
		return err
	}
	if op.CommissionBps > ledger.BpsDenominator {
		return malformed("commission %d bps exceeds 100%%", op.CommissionBps)
	}
	if op.SelfBond == 0 {
		return malformed("self bond must be positive")
	}
	return nil
}

func (op Bond) ValidateBasic() error {
	if err := ValidatePubKey(op.Validator); err != nil {
		return err
	}
	if op.Amount == 0 {
		return malformed("bond amount must be positive")
	}
	return nil
}

func (op Unbond) ValidateBasic() error { return ValidatePubKey(op.Validator) }

func (ClaimReward) ValidateBasic() error { return nil }

func (op UpdateValidator) ValidateBasic() error {
	if err := ValidatePubKey(op.Validator); err != nil {
		return err
	}
	if op.SetCommission && op.CommissionBps > ledger.BpsDenominator {
		return malformed("commission %d bps exceeds 100%%", op.CommissionBps)
	}
	if !op.SetCommission && !op.SetMemo && !op.Unjail {
		return malformed("validator update changes nothing")
	}
	return nil
}
