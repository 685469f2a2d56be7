package stakeledgergrpc

import (
	"context"
	"net"

	"github.com/blockberries/stakeledger"
	"github.com/blockberries/stakeledger/server"
	"github.com/blockberries/stakeledger/types"

	"google.golang.org/grpc"
)

// Compile-time interface check.
var _ LifecycleServiceServer = (*GRPCServer)(nil)

// GRPCServer wraps a stakeledger application as a gRPC server. Calls
// pass through a server.Server, so a misbehaving remote engine is
// caught by the same lifecycle guard as an in-process one.
type GRPCServer struct {
	srv *server.Server
}

// NewGRPCServer creates a gRPC server wrapping the given application.
func NewGRPCServer(app stakeledger.Lifecycle) *GRPCServer {
	return &GRPCServer{
		srv: server.New(app),
	}
}

// Register adds the lifecycle service to a gRPC server.
func (s *GRPCServer) Register(gs *grpc.Server) {
	RegisterLifecycleServiceServer(gs, s)
}

// Serve starts a gRPC server on the given listener.
func (s *GRPCServer) Serve(lis net.Listener, opts ...grpc.ServerOption) error {
	gs := grpc.NewServer(opts...)
	s.Register(gs)
	return gs.Serve(lis)
}

// Server returns the underlying server for advanced use.
func (s *GRPCServer) Server() *server.Server {
	return s.srv
}

func (s *GRPCServer) Info(ctx context.Context, _ *InfoRequest) (*types.InfoResponse, error) {
	resp, err := s.srv.Info(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return &resp, nil
}

func (s *GRPCServer) InitChain(ctx context.Context, req *types.InitChainRequest) (*types.InitChainResponse, error) {
	resp, err := s.srv.InitChain(ctx, *req)
	if err != nil {
		return nil, toStatus(err)
	}
	return &resp, nil
}

func (s *GRPCServer) BeginBlock(ctx context.Context, req *types.BeginBlockRequest) (*Empty, error) {
	if err := s.srv.BeginBlock(ctx, *req); err != nil {
		return nil, toStatus(err)
	}
	return &Empty{}, nil
}

func (s *GRPCServer) DeliverTx(ctx context.Context, req *DeliverTxRequest) (*types.TxResult, error) {
	res, err := s.srv.DeliverTx(ctx, req.Tx)
	if err != nil {
		return nil, toStatus(err)
	}
	return &res, nil
}

func (s *GRPCServer) EndBlock(ctx context.Context, req *EndBlockRequest) (*types.EndBlockResult, error) {
	res, err := s.srv.EndBlock(ctx, req.Height)
	if err != nil {
		return nil, toStatus(err)
	}
	return &res, nil
}

func (s *GRPCServer) Commit(ctx context.Context, _ *CommitRequest) (*types.CommitResult, error) {
	res, err := s.srv.Commit(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return &res, nil
}

func (s *GRPCServer) CheckTx(ctx context.Context, req *CheckTxRequest) (*types.GateVerdict, error) {
	verdict, err := s.srv.CheckTx(ctx, req.Tx)
	if err != nil {
		return nil, toStatus(err)
	}
	return &verdict, nil
}

func (s *GRPCServer) Query(ctx context.Context, req *types.StateQuery) (*types.StateQueryResult, error) {
	res, err := s.srv.Query(ctx, *req)
	if err != nil {
		return nil, toStatus(err)
	}
	return &res, nil
}
