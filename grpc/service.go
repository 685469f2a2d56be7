package stakeledgergrpc

import (
	"context"

	"github.com/blockberries/stakeledger/types"

	"google.golang.org/grpc"
)

const serviceName = "stakeledger.v1.Lifecycle"

// LifecycleServiceServer is the server-side interface for the
// stakeledger gRPC service.
type LifecycleServiceServer interface {
	Info(context.Context, *InfoRequest) (*types.InfoResponse, error)
	InitChain(context.Context, *types.InitChainRequest) (*types.InitChainResponse, error)
	BeginBlock(context.Context, *types.BeginBlockRequest) (*Empty, error)
	DeliverTx(context.Context, *DeliverTxRequest) (*types.TxResult, error)
	EndBlock(context.Context, *EndBlockRequest) (*types.EndBlockResult, error)
	Commit(context.Context, *CommitRequest) (*types.CommitResult, error)
	CheckTx(context.Context, *CheckTxRequest) (*types.GateVerdict, error)
	Query(context.Context, *types.StateQuery) (*types.StateQueryResult, error)
}

// RegisterLifecycleServiceServer registers srv on a gRPC server.
func RegisterLifecycleServiceServer(s *grpc.Server, srv LifecycleServiceServer) {
	s.RegisterService(&serviceDesc, srv)
}

// unary adapts a typed handler to a grpc.MethodDesc handler.
func unary[Req any, Resp any](call func(LifecycleServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, _ grpc.UnaryServerInterceptor) (any, error) {
		req := new(Req)
		if err := dec(req); err != nil {
			return nil, err
		}
		return call(srv.(LifecycleServiceServer), ctx, req)
	}
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*LifecycleServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Info", Handler: unary(LifecycleServiceServer.Info)},
		{MethodName: "InitChain", Handler: unary(LifecycleServiceServer.InitChain)},
		{MethodName: "BeginBlock", Handler: unary(LifecycleServiceServer.BeginBlock)},
		{MethodName: "DeliverTx", Handler: unary(LifecycleServiceServer.DeliverTx)},
		{MethodName: "EndBlock", Handler: unary(LifecycleServiceServer.EndBlock)},
		{MethodName: "Commit", Handler: unary(LifecycleServiceServer.Commit)},
		{MethodName: "CheckTx", Handler: unary(LifecycleServiceServer.CheckTx)},
		{MethodName: "Query", Handler: unary(LifecycleServiceServer.Query)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "stakeledger/v1/lifecycle.cram",
}

func fullMethod(method string) string {
	return "/" + serviceName + "/" + method
}
