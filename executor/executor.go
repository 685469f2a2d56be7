// Package executor validates and applies transactions against the
// ledger state.
//
// A transaction runs against a disposable shadow of the working
// state. The shadow is merged back only when every operation
// succeeded, so a rejected transaction leaves no trace.
package executor

import (
	"fmt"
	"log/slog"

	"github.com/blockberries/stakeledger/crypto"
	"github.com/blockberries/stakeledger/ledger"
	"github.com/blockberries/stakeledger/staking"
	"github.com/blockberries/stakeledger/tx"
	"github.com/blockberries/stakeledger/types"
)

// Effects is the outcome of a successful transaction.
type Effects struct {
	Sender   crypto.Address
	Sequence uint64
	Fee      uint64
	Events   []types.Event
}

// Executor applies transactions for one chain.
type Executor struct {
	chainID string
	params  ledger.Params
	staking *staking.Ledger
	log     *slog.Logger
}

// New returns an executor for chainID.
func New(chainID string, st *staking.Ledger, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{
		chainID: chainID,
		params:  st.Params(),
		staking: st,
		log:     logger.With("pkg", "executor"),
	}
}

// Execute validates raw and applies it to s at height. On rejection
// s is left untouched.
func (e *Executor) Execute(s *ledger.State, raw types.Tx, height uint64) (Effects, *Rejection) {
	t, rej := e.decode(raw)
	if rej != nil {
		return Effects{}, rej
	}
	if rej := e.authorize(t); rej != nil {
		return Effects{}, rej
	}
	sender := t.Body.SenderAddress()
	acct := s.Account(sender)
	if t.Body.Sequence != acct.Sequence {
		return Effects{}, reject(CodeStaleNonce, -1,
			fmt.Errorf("sequence %d, expected %d", t.Body.Sequence, acct.Sequence))
	}
	ops, rej := e.validateBasic(t)
	if rej != nil {
		return Effects{}, rej
	}

	shadow := s.Shadow()
	fx := Effects{Sender: sender, Sequence: acct.Sequence, Fee: t.Body.Fee}
	if err := e.chargeFee(shadow, sender, t.Body.Fee); err != nil {
		return Effects{}, reject(classify(err), -1, fmt.Errorf("fee: %w", err))
	}
	for i, op := range ops {
		events, err := e.apply(shadow, sender, op, height)
		if err != nil {
			rej := reject(classify(err), i, fmt.Errorf("%s: %w", op.Kind(), err))
			e.log.Debug("tx rejected", "sender", sender, "code", rej.Code, "err", rej.Err)
			return Effects{}, rej
		}
		fx.Events = append(fx.Events, events...)
	}
	acct.Sequence++
	shadow.SetAccount(acct)
	s.Merge(shadow)

	fx.Events = append(fx.Events, types.NewEvent("fee",
		"sender", sender.String(),
		"amount", types.Uint(fx.Fee)))
	return fx, nil
}

func (e *Executor) decode(raw types.Tx) (*tx.Tx, *Rejection) {
	if uint64(len(raw)) > uint64(e.params.MaxTxBytes) {
		return nil, reject(CodeMalformedTransaction, -1,
			fmt.Errorf("%w: %d bytes exceeds limit %d", tx.ErrMalformed, len(raw), e.params.MaxTxBytes))
	}
	t, err := tx.Decode(raw)
	if err != nil {
		return nil, reject(CodeMalformedTransaction, -1, err)
	}
	return t, nil
}

func (e *Executor) authorize(t *tx.Tx) *Rejection {
	if t.Body.ChainID != e.chainID {
		return reject(CodeInvalidSignature, -1, fmt.Errorf("%w: %q", errChainID, t.Body.ChainID))
	}
	if err := t.Verify(); err != nil {
		return reject(CodeInvalidSignature, -1, err)
	}
	return nil
}

func (e *Executor) validateBasic(t *tx.Tx) ([]tx.Op, *Rejection) {
	ops, err := t.Body.Operations()
	if err != nil {
		return nil, reject(CodeMalformedTransaction, -1, err)
	}
	if len(ops) == 0 || len(ops) > int(e.params.MaxOpsPerTx) {
		return nil, reject(CodeMalformedTransaction, -1,
			fmt.Errorf("%w: %d operations, limit %d", tx.ErrMalformed, len(ops), e.params.MaxOpsPerTx))
	}
	if t.Body.Fee < e.params.MinFee {
		return nil, reject(CodeMalformedTransaction, -1,
			fmt.Errorf("%w: fee %d below minimum %d", tx.ErrMalformed, t.Body.Fee, e.params.MinFee))
	}
	for i, op := range ops {
		if err := op.ValidateBasic(); err != nil {
			return nil, reject(CodeMalformedTransaction, i, fmt.Errorf("%s: %w", op.Kind(), err))
		}
	}
	return ops, nil
}

func (e *Executor) chargeFee(s *ledger.State, sender crypto.Address, fee uint64) error {
	if fee == 0 {
		return nil
	}
	if err := s.SubBalance(sender, e.params.StakingAsset, fee); err != nil {
		return err
	}
	pool, err := ledger.SafeAdd(s.FeePool(), fee)
	if err != nil {
		return err
	}
	s.SetFeePool(pool)
	return nil
}
