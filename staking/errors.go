package staking

import "errors"

var (
	// ErrInvalidStakeAmount covers amounts below the minimum bond,
	// commission rates above the cap, and bonds to jailed validators.
	ErrInvalidStakeAmount = errors.New("invalid stake amount")
	// ErrUnknownValidator is returned for operations naming a
	// validator that does not exist.
	ErrUnknownValidator = errors.New("unknown validator")
	// ErrValidatorExists is returned when creating a validator whose
	// consensus key is already registered.
	ErrValidatorExists = errors.New("validator already exists")
	// ErrNotOperator is returned when the sender does not operate the
	// validator it tries to update.
	ErrNotOperator = errors.New("sender is not the validator operator")
)
