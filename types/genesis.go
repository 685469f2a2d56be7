package types

// InitChainRequest initializes an empty application.
type InitChainRequest struct {
	ChainID string `cramberry:"1"`
	// Application genesis state (YAML, see config.Genesis).
	AppState []byte `cramberry:"2"`
}

// InitChainResponse reports the genesis validator set and root.
type InitChainResponse struct {
	Validators []ValidatorUpdate `cramberry:"1"`
	StateRoot  StateRoot         `cramberry:"2"`
	Height     uint64            `cramberry:"3"`
}

// InfoResponse reports the last committed block of the
// application, used by consensus to decide on replay.
type InfoResponse struct {
	LastBlock *BlockID `cramberry:"1"`
	ChainID   string   `cramberry:"2"`
}
