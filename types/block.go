package types

// BeginBlockRequest opens a block for execution.
type BeginBlockRequest struct {
	Height   uint64    `cramberry:"1"`
	Proposer PublicKey `cramberry:"2"`
	// Evidence of Byzantine behavior to be considered for
	// slashing at EndBlock.
	Evidence []Evidence `cramberry:"3"`
}

// TxResult is the result of delivering a single transaction.
type TxResult struct {
	// Position of this tx in the block (0-indexed).
	Index uint32 `cramberry:"1"`
	// Result code. 0 = success, otherwise a rejection reason.
	Code uint32 `cramberry:"2"`
	// Deterministic result description.
	Log string `cramberry:"3"`
	// Events emitted by this transaction.
	Events []Event `cramberry:"4"`
}

// OK returns true if the transaction executed successfully.
func (r TxResult) OK() bool { return r.Code == 0 }

// EndBlockResult carries the block-boundary effects returned
// to consensus.
type EndBlockResult struct {
	// Changes to the validator set, ordered by identity.
	// Empty slice = no change.
	ValidatorUpdates []ValidatorUpdate `cramberry:"1"`
	// Block-level events (rewards, slashing, unbonding payouts).
	Events []Event `cramberry:"2"`
}

// CommitResult is returned after the application persists
// state to disk.
type CommitResult struct {
	Height    uint64    `cramberry:"1"`
	StateRoot StateRoot `cramberry:"2"`
}

// FinalizedBlock is a decided block delivered as a whole. The
// adapters translate it into the BeginBlock/DeliverTx/EndBlock
// call sequence.
type FinalizedBlock struct {
	Height   uint64     `cramberry:"1"`
	Proposer PublicKey  `cramberry:"2"`
	Txs      []Tx       `cramberry:"3"`
	Evidence []Evidence `cramberry:"4"`
}

// BlockOutcome collects everything produced by executing a
// FinalizedBlock up to, but not including, Commit.
type BlockOutcome struct {
	TxResults []TxResult     `cramberry:"1"`
	EndBlock  EndBlockResult `cramberry:"2"`
}
