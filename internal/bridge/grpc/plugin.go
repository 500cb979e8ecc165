// Package grpc carries the bridge call surface across a process boundary.
// The native library runs in a go-plugin child process and the host talks
// to it over gRPC with CBOR-encoded messages.
package grpc

import (
	"context"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"
	"google.golang.org/grpc"

	"github.com/felixgeelhaar/astrobridge/internal/bridge/sdk"
)

// PluginName is the key the bridge is dispensed under.
const PluginName = "bridge"

// HandshakeConfig is used to verify that the native host is compatible.
// Both the host and the child must use the same handshake configuration.
var HandshakeConfig = plugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "ASTRO_NATIVE_PLUGIN",
	MagicCookieValue: "astro-native-v1",
}

// PluginMap is the map of plugins the host can dispense.
var PluginMap = map[string]plugin.Plugin{
	PluginName: &BridgePlugin{},
}

// BridgePlugin is the plugin.Plugin implementation for the native bridge.
type BridgePlugin struct {
	plugin.Plugin
	// Impl is the concrete implementation (child side).
	Impl sdk.Bridge
	// ClientOptions configure the dispensed client (host side).
	ClientOptions []ClientOption
}

var _ plugin.GRPCPlugin = (*BridgePlugin)(nil)

// GRPCServer registers the bridge service on s.
func (p *BridgePlugin) GRPCServer(_ *plugin.GRPCBroker, s *grpc.Server) error {
	RegisterNativeBridgeServer(s, NewServer(p.Impl))
	return nil
}

// GRPCClient returns a host-side sdk.Bridge over c.
func (p *BridgePlugin) GRPCClient(_ context.Context, _ *plugin.GRPCBroker, c *grpc.ClientConn) (interface{}, error) {
	return NewClient(c, p.ClientOptions...), nil
}

// Serve runs impl as a plugin child process. It blocks until the host disconnects.
func Serve(impl sdk.Bridge, logger hclog.Logger) {
	plugin.Serve(&plugin.ServeConfig{
		HandshakeConfig: HandshakeConfig,
		Plugins: map[string]plugin.Plugin{
			PluginName: &BridgePlugin{Impl: impl},
		},
		GRPCServer: plugin.DefaultGRPCServer,
		Logger:     logger,
	})
}
