package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/felixgeelhaar/mcp-go"
)

// RegisterResources registers read-only views of the bridge.
func RegisterResources(srv *mcp.Server, deps ToolDependencies) error {
	if srv == nil {
		return fmt.Errorf("server is required")
	}
	bridge := deps.Bridge

	srv.Resource("astro://operations").
		Name("Operations").
		Description("Operation catalogue with parameter kinds").
		MimeType("application/json").
		Handler(func(ctx context.Context, uri string, params map[string]string) (*mcp.ResourceContent, error) {
			return jsonResource(uri, bridge.Operations())
		})

	srv.Resource("astro://kernels").
		Name("Kernels").
		Description("Kernel load status and fingerprint").
		MimeType("application/json").
		Handler(func(ctx context.Context, uri string, params map[string]string) (*mcp.ResourceContent, error) {
			status := bridge.HealthCheck(ctx)
			return jsonResource(uri, map[string]any{
				"status":      status.Details["kernels"],
				"count":       status.Details["kernel_count"],
				"fingerprint": status.Details["fingerprint"],
			})
		})

	return nil
}

func jsonResource(uri string, v any) (*mcp.ResourceContent, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return &mcp.ResourceContent{
		URI:      uri,
		MimeType: "application/json",
		Text:     string(data),
	}, nil
}
