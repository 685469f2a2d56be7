// Package local provides a zero-copy, in-process stakeledger
// connection.
//
// For a consensus engine compiled into the same binary as the
// application, this adapter wraps the application with lifecycle
// state machine enforcement, with no serialization overhead.
package local

import (
	"context"

	"github.com/blockberries/stakeledger"
	"github.com/blockberries/stakeledger/server"
	"github.com/blockberries/stakeledger/types"
)

// Compile-time interface check.
var _ stakeledger.Connection = (*Connection)(nil)

// Connection wraps a local Lifecycle implementation with lifecycle
// enforcement.
type Connection struct {
	srv *server.Server
}

// NewConnection creates an in-process connection wrapping the given
// application.
func NewConnection(app stakeledger.Lifecycle) *Connection {
	return &Connection{srv: server.New(app)}
}

func (c *Connection) Info(ctx context.Context) (types.InfoResponse, error) {
	return c.srv.Info(ctx)
}

func (c *Connection) InitChain(ctx context.Context, req types.InitChainRequest) (types.InitChainResponse, error) {
	return c.srv.InitChain(ctx, req)
}

func (c *Connection) BeginBlock(ctx context.Context, req types.BeginBlockRequest) error {
	return c.srv.BeginBlock(ctx, req)
}

func (c *Connection) DeliverTx(ctx context.Context, tx types.Tx) (types.TxResult, error) {
	return c.srv.DeliverTx(ctx, tx)
}

func (c *Connection) EndBlock(ctx context.Context, height uint64) (types.EndBlockResult, error) {
	return c.srv.EndBlock(ctx, height)
}

func (c *Connection) Commit(ctx context.Context) (types.CommitResult, error) {
	return c.srv.Commit(ctx)
}

func (c *Connection) CheckTx(ctx context.Context, tx types.Tx) (types.GateVerdict, error) {
	return c.srv.CheckTx(ctx, tx)
}

func (c *Connection) Query(ctx context.Context, req types.StateQuery) (types.StateQueryResult, error) {
	return c.srv.Query(ctx, req)
}

func (c *Connection) Close() error { return nil }

// Server returns the underlying server for advanced use cases.
func (c *Connection) Server() *server.Server {
	return c.srv
}
