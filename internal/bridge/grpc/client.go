package grpc

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/felixgeelhaar/astrobridge/internal/bridge/sdk"
	"github.com/felixgeelhaar/astrobridge/internal/bridge/term"
)

// DefaultCallTimeout bounds an RPC when the caller's context has no deadline.
const DefaultCallTimeout = 30 * time.Second

// Client is the host-side sdk.Bridge backed by a remote NativeBridge service.
type Client struct {
	conn    grpc.ClientConnInterface
	timeout time.Duration
	logger  *slog.Logger
}

var _ sdk.Bridge = (*Client)(nil)

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithCallTimeout sets the per-RPC timeout applied when ctx has no deadline.
func WithCallTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.timeout = d }
}

// WithLogger sets the client logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a client over conn.
func NewClient(conn grpc.ClientConnInterface, opts ...ClientOption) *Client {
	c := &Client{
		conn:    conn,
		timeout: DefaultCallTimeout,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) invoke(ctx context.Context, method string, payload []byte) ([]byte, error) {
	if _, ok := ctx.Deadline(); !ok && c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	out := new(wrapperspb.BytesValue)
	if err := c.conn.Invoke(ctx, fullMethod(method), wrapperspb.Bytes(payload), out); err != nil {
		return nil, err
	}
	return out.GetValue(), nil
}

// transportError maps an RPC failure onto the error taxonomy.
func transportError(operation string, err error) error {
	if status.Code(err) == codes.Canceled {
		return context.Canceled
	}
	return &sdk.TransportError{Operation: operation, Err: err}
}

// Initialize loads kernels in the remote process.
func (c *Client) Initialize(ctx context.Context, kernels []term.Term) error {
	list, err := term.MarshalCBOR(kernels...)
	if err != nil {
		return sdk.NewInitializationError(-1, "", "encode kernel list", err)
	}
	req, err := encMode.Marshal(initializeRequest{Kernels: list})
	if err != nil {
		return sdk.NewInitializationError(-1, "", "encode kernel list", err)
	}
	data, err := c.invoke(ctx, "Initialize", req)
	if err != nil {
		return transportError("initialize", err)
	}

	var resp initializeResponse
	if err := decMode.Unmarshal(data, &resp); err != nil {
		return transportError("initialize", err)
	}
	if resp.Failure == nil {
		return nil
	}
	if resp.Failure.Code == codeAlreadyInitialized {
		return sdk.ErrAlreadyInitialized
	}
	return fromWireFailure("initialize", resp.Failure)
}

// Call dispatches an operation to the remote process.
func (c *Client) Call(ctx context.Context, operation string, args []term.Term) sdk.Result {
	encoded, err := term.MarshalCBOR(args...)
	if err != nil {
		return sdk.Failure(sdk.NewDecodeError(operation, -1, "", err.Error()))
	}
	req, err := encMode.Marshal(callRequest{Operation: operation, Args: encoded})
	if err != nil {
		return sdk.Failure(&sdk.TransportError{Operation: operation, Err: err})
	}

	data, err := c.invoke(ctx, "Call", req)
	if err != nil {
		return sdk.Failure(transportError(operation, err))
	}
	res, err := decodeCallResponse(operation, data)
	if err != nil {
		return sdk.Failure(&sdk.TransportError{Operation: operation, Err: fmt.Errorf("decode result: %w", err)})
	}
	return res
}

// Operations lists the remote operations. It returns nil if the remote is unreachable.
func (c *Client) Operations() []sdk.OperationInfo {
	data, err := c.invoke(context.Background(), "Operations", nil)
	if err != nil {
		c.logger.Warn("list remote operations", "error", err)
		return nil
	}
	var infos []sdk.OperationInfo
	if err := decMode.Unmarshal(data, &infos); err != nil {
		c.logger.Warn("decode remote operations", "error", err)
		return nil
	}
	return infos
}

// HealthCheck asks the remote process for its health.
func (c *Client) HealthCheck(ctx context.Context) sdk.HealthStatus {
	data, err := c.invoke(ctx, "Health", nil)
	if err != nil {
		return sdk.NewHealthStatus(false, transportError("health", err).Error())
	}
	var msg healthMessage
	if err := decMode.Unmarshal(data, &msg); err != nil {
		return sdk.NewHealthStatus(false, "decode health: "+err.Error())
	}
	return fromHealthMessage(msg)
}

// Shutdown stops the remote bridge.
func (c *Client) Shutdown(ctx context.Context) error {
	if _, err := c.invoke(ctx, "Shutdown", nil); err != nil {
		return transportError("shutdown", err)
	}
	return nil
}
