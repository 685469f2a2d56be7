package stakeledgergrpc

import "github.com/blockberries/stakeledger/types"

// Transport-specific wrapper types for RPC methods whose interface
// signatures don't map to a single request/response struct.
// These are used only for gRPC serialization boundaries.

// InfoRequest is the (empty) request for Lifecycle.Info.
type InfoRequest struct{}

// DeliverTxRequest wraps the parameter for Lifecycle.DeliverTx.
type DeliverTxRequest struct {
	Tx types.Tx `cramberry:"1"`
}

// EndBlockRequest wraps the parameter for Lifecycle.EndBlock.
type EndBlockRequest struct {
	Height uint64 `cramberry:"1"`
}

// CommitRequest is the (empty) request for Lifecycle.Commit.
type CommitRequest struct{}

// CheckTxRequest wraps the parameter for Lifecycle.CheckTx.
type CheckTxRequest struct {
	Tx types.Tx `cramberry:"1"`
}

// Empty is the response of calls that return only an error.
type Empty struct{}
