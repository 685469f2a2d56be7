package ledger

import (
	"errors"
	"math/bits"
)

var (
	// ErrOverflow is returned when an amount would exceed uint64.
	ErrOverflow = errors.New("ledger: amount overflow")
	// ErrInsufficientBalance is returned when a debit exceeds the
	// available amount.
	ErrInsufficientBalance = errors.New("ledger: insufficient balance")
)

// SafeAdd returns a+b or ErrOverflow.
func SafeAdd(a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, ErrOverflow
	}
	return sum, nil
}

// SafeSub returns a-b or ErrInsufficientBalance.
func SafeSub(a, b uint64) (uint64, error) {
	if b > a {
		return 0, ErrInsufficientBalance
	}
	return a - b, nil
}
