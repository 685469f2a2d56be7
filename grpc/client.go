package stakeledgergrpc

import (
	"context"
	"fmt"

	"github.com/blockberries/stakeledger"
	"github.com/blockberries/stakeledger/server"
	"github.com/blockberries/stakeledger/types"

	"google.golang.org/grpc"
)

// Compile-time interface check.
var _ stakeledger.Connection = (*Client)(nil)

// Client implements stakeledger.Connection for remote applications
// over gRPC using cramberry serialization. It carries its own
// lifecycle guard, so ordering mistakes panic on the caller's side
// before anything goes over the wire.
type Client struct {
	cc    *grpc.ClientConn
	guard *server.LifecycleGuard
}

// Dial connects to a remote stakeledger application.
func Dial(ctx context.Context, addr string, opts ...grpc.DialOption) (*Client, error) {
	opts = append(opts, grpc.WithDefaultCallOptions(
		grpc.ForceCodec(CramberryCodec{}),
	))
	cc, err := grpc.DialContext(ctx, addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("stakeledger client: dial %s: %w", addr, err)
	}
	return &Client{
		cc:    cc,
		guard: server.NewLifecycleGuard(),
	}, nil
}

func (c *Client) Close() error {
	return c.cc.Close()
}

func (c *Client) invoke(ctx context.Context, method string, req, resp any) error {
	if err := c.cc.Invoke(ctx, fullMethod(method), req, resp); err != nil {
		return fromStatus(err)
	}
	return nil
}

// fail mirrors server.Server: a halt is terminal, anything else
// returns the guard to the state held before the call.
func (c *Client) fail(err error) {
	if _, ok := stakeledger.IsHalt(err); ok {
		c.guard.Halt()
		return
	}
	c.guard.Abort()
}

func (c *Client) Info(ctx context.Context) (types.InfoResponse, error) {
	resp := new(types.InfoResponse)
	if err := c.invoke(ctx, "Info", &InfoRequest{}, resp); err != nil {
		return types.InfoResponse{}, err
	}
	if resp.LastBlock != nil {
		c.guard.Resume()
	}
	return *resp, nil
}

func (c *Client) InitChain(ctx context.Context, req types.InitChainRequest) (types.InitChainResponse, error) {
	c.guard.AcquireInit()

	resp := new(types.InitChainResponse)
	if err := c.invoke(ctx, "InitChain", &req, resp); err != nil {
		c.fail(err)
		return types.InitChainResponse{}, err
	}

	c.guard.CompleteInit()
	return *resp, nil
}

func (c *Client) BeginBlock(ctx context.Context, req types.BeginBlockRequest) error {
	c.guard.AcquireBegin()

	if err := c.invoke(ctx, "BeginBlock", &req, &Empty{}); err != nil {
		c.fail(err)
		return err
	}

	c.guard.CompleteBegin()
	return nil
}

func (c *Client) DeliverTx(ctx context.Context, tx types.Tx) (types.TxResult, error) {
	c.guard.AcquireDeliver()

	resp := new(types.TxResult)
	if err := c.invoke(ctx, "DeliverTx", &DeliverTxRequest{Tx: tx}, resp); err != nil {
		c.fail(err)
		return types.TxResult{}, err
	}

	c.guard.CompleteDeliver()
	return *resp, nil
}

func (c *Client) EndBlock(ctx context.Context, height uint64) (types.EndBlockResult, error) {
	c.guard.AcquireEnd()

	resp := new(types.EndBlockResult)
	if err := c.invoke(ctx, "EndBlock", &EndBlockRequest{Height: height}, resp); err != nil {
		c.fail(err)
		return types.EndBlockResult{}, err
	}

	c.guard.CompleteEnd()
	return *resp, nil
}

func (c *Client) Commit(ctx context.Context) (types.CommitResult, error) {
	c.guard.AcquireCommit()

	resp := new(types.CommitResult)
	if err := c.invoke(ctx, "Commit", &CommitRequest{}, resp); err != nil {
		c.fail(err)
		return types.CommitResult{}, err
	}

	c.guard.CompleteCommit()
	return *resp, nil
}

func (c *Client) CheckTx(ctx context.Context, tx types.Tx) (types.GateVerdict, error) {
	if err := c.guard.CheckConcurrent(); err != nil {
		return types.GateVerdict{}, err
	}

	resp := new(types.GateVerdict)
	if err := c.invoke(ctx, "CheckTx", &CheckTxRequest{Tx: tx}, resp); err != nil {
		return types.GateVerdict{}, err
	}
	return *resp, nil
}

func (c *Client) Query(ctx context.Context, req types.StateQuery) (types.StateQueryResult, error) {
	if err := c.guard.CheckConcurrent(); err != nil {
		return types.StateQueryResult{}, err
	}

	resp := new(types.StateQueryResult)
	if err := c.invoke(ctx, "Query", &req, resp); err != nil {
		return types.StateQueryResult{}, err
	}
	return *resp, nil
}
