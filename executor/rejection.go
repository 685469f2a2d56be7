package executor

import (
	"errors"
	"fmt"

	"github.com/blockberries/stakeledger/crypto"
	"github.com/blockberries/stakeledger/ledger"
	"github.com/blockberries/stakeledger/staking"
	"github.com/blockberries/stakeledger/tx"
)

// Code is the numeric rejection reason reported in TxResult.Code.
type Code uint32

const (
	CodeOK                   Code = 0
	CodeInvalidSignature     Code = 1
	CodeStaleNonce           Code = 2
	CodeInsufficientBalance  Code = 3
	CodeUnknownAsset         Code = 4
	CodeInvalidStakeAmount   Code = 5
	CodeUnknownValidator     Code = 6
	CodeMalformedTransaction Code = 7
)

func (c Code) String() string {
	switch c {
	case CodeOK:
		return "OK"
	case CodeInvalidSignature:
		return "InvalidSignature"
	case CodeStaleNonce:
		return "StaleNonce"
	case CodeInsufficientBalance:
		return "InsufficientBalance"
	case CodeUnknownAsset:
		return "UnknownAsset"
	case CodeInvalidStakeAmount:
		return "InvalidStakeAmount"
	case CodeUnknownValidator:
		return "UnknownValidator"
	case CodeMalformedTransaction:
		return "MalformedTransaction"
	default:
		return fmt.Sprintf("Code(%d)", uint32(c))
	}
}

var (
	errUnknownAsset    = errors.New("unknown asset")
	errAssetExists     = errors.New("asset already defined")
	errNotIssuer       = errors.New("sender is not the asset issuer")
	errNotTransferable = errors.New("asset is not transferable")
	errMaxUnits        = errors.New("issuance exceeds max units")
	errChainID         = errors.New("chain id mismatch")
)

// Rejection is a typed transaction failure. It never aborts the block.
type Rejection struct {
	Code Code
	// Op is the index of the failing operation, or -1 when the whole
	// transaction failed before any operation ran.
	Op  int
	Err error
}

func (r *Rejection) Error() string {
	if r.Op < 0 {
		return fmt.Sprintf("%s: %v", r.Code, r.Err)
	}
	return fmt.Sprintf("%s: op %d: %v", r.Code, r.Op, r.Err)
}

func (r *Rejection) Unwrap() error { return r.Err }

func reject(code Code, op int, err error) *Rejection {
	return &Rejection{Code: code, Op: op, Err: err}
}

// classify maps an operation error onto the rejection taxonomy.
func classify(err error) Code {
	switch {
	case errors.Is(err, ledger.ErrInsufficientBalance):
		return CodeInsufficientBalance
	case errors.Is(err, errUnknownAsset):
		return CodeUnknownAsset
	case errors.Is(err, staking.ErrInvalidStakeAmount):
		return CodeInvalidStakeAmount
	case errors.Is(err, staking.ErrUnknownValidator):
		return CodeUnknownValidator
	case errors.Is(err, staking.ErrNotOperator),
		errors.Is(err, errNotIssuer),
		errors.Is(err, errNotTransferable),
		errors.Is(err, errChainID),
		errors.Is(err, crypto.ErrInvalidSignature),
		errors.Is(err, crypto.ErrInvalidPubKey):
		return CodeInvalidSignature
	case errors.Is(err, tx.ErrMalformed),
		errors.Is(err, ledger.ErrOverflow),
		errors.Is(err, staking.ErrValidatorExists),
		errors.Is(err, errAssetExists),
		errors.Is(err, errMaxUnits):
		return CodeMalformedTransaction
	default:
		return CodeMalformedTransaction
	}
}
