package grpc

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/felixgeelhaar/astrobridge/internal/bridge/sdk"
	"github.com/felixgeelhaar/astrobridge/internal/bridge/term"
)

// codeAlreadyInitialized marks a repeated kernel load on the wire.
const codeAlreadyInitialized = "ALREADY_INITIALIZED"

// Server exposes an sdk.Bridge as a NativeBridgeServer.
type Server struct {
	impl sdk.Bridge
}

var _ NativeBridgeServer = (*Server)(nil)

// NewServer wraps impl.
func NewServer(impl sdk.Bridge) *Server {
	return &Server{impl: impl}
}

// Initialize loads the kernel list carried in the request.
func (s *Server) Initialize(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	var req initializeRequest
	if err := decMode.Unmarshal(in.GetValue(), &req); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "decode initialize request: %v", err)
	}
	kernels, err := term.UnmarshalCBOR(req.Kernels)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "decode kernel list: %v", err)
	}

	var resp initializeResponse
	if err := s.impl.Initialize(ctx, kernels); err != nil {
		resp.Failure = toWireFailure(err)
		if errors.Is(err, sdk.ErrAlreadyInitialized) {
			resp.Failure.Code = codeAlreadyInitialized
		}
	}
	return reply(resp)
}

// Call dispatches one operation.
func (s *Server) Call(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	var req callRequest
	if err := decMode.Unmarshal(in.GetValue(), &req); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "decode call request: %v", err)
	}
	var args []term.Term
	if len(req.Args) > 0 {
		decoded, err := term.UnmarshalCBOR(req.Args)
		if err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "decode arguments: %v", err)
		}
		args = decoded
	}

	res := s.impl.Call(ctx, req.Operation, args)
	if errors.Is(res.Err(), context.Canceled) {
		return nil, status.Error(codes.Canceled, res.Err().Error())
	}
	data, err := encodeCallResponse(res)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode result: %v", err)
	}
	return wrapperspb.Bytes(data), nil
}

// Operations lists the registered operations.
func (s *Server) Operations(_ context.Context, _ *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	return reply(s.impl.Operations())
}

// Health reports the bridge health.
func (s *Server) Health(ctx context.Context, _ *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	return reply(toHealthMessage(s.impl.HealthCheck(ctx)))
}

// Shutdown stops the bridge. The child process exits when the host kills it.
func (s *Server) Shutdown(ctx context.Context, _ *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	if err := s.impl.Shutdown(ctx); err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return wrapperspb.Bytes(nil), nil
}

func reply(v any) (*wrapperspb.BytesValue, error) {
	data, err := encMode.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode reply: %v", err)
	}
	return wrapperspb.Bytes(data), nil
}
