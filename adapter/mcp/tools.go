package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/mcp-go"

	"github.com/felixgeelhaar/astrobridge/internal/bridge/journal"
	"github.com/felixgeelhaar/astrobridge/internal/bridge/sdk"
	"github.com/felixgeelhaar/astrobridge/internal/bridge/term"
	"github.com/felixgeelhaar/astrobridge/pkg/observability"
)

// ToolPrefix namespaces every tool name.
const ToolPrefix = "astro."

// ToolDependencies provides what MCP tools call into.
type ToolDependencies struct {
	Bridge  sdk.Bridge
	Journal *journal.Journal
	Health  *observability.HealthRegistry
}

type callInput struct {
	Args []any `json:"args" jsonschema:"required"`
}

type historyInput struct {
	Limit int `json:"limit"`
}

// RegisterTools registers one tool per operation plus the bridge tools.
func RegisterTools(srv *mcp.Server, deps ToolDependencies) error {
	if srv == nil {
		return errors.New("server is required")
	}
	if deps.Bridge == nil {
		return errors.New("bridge is required")
	}

	if err := registerOperationTools(srv, deps); err != nil {
		return err
	}
	return registerBridgeTools(srv, deps)
}

func registerOperationTools(srv *mcp.Server, deps ToolDependencies) error {
	seen := make(map[string]bool)
	for _, info := range deps.Bridge.Operations() {
		if seen[info.Name] {
			continue
		}
		seen[info.Name] = true

		name := info.Name
		srv.Tool(ToolPrefix + name).
			Description(describeOperation(info)).
			Handler(func(ctx context.Context, input callInput) (map[string]any, error) {
				return callOperation(ctx, deps.Bridge, name, input)
			})
	}
	return nil
}

func registerBridgeTools(srv *mcp.Server, deps ToolDependencies) error {
	bridge := deps.Bridge

	srv.Tool(ToolPrefix + "operations").
		Description("List the operations the bridge serves").
		Handler(func(ctx context.Context, input struct{}) (map[string]any, error) {
			return map[string]any{"operations": bridge.Operations()}, nil
		})

	srv.Tool(ToolPrefix + "health").
		Description("Report bridge health: kernel status, native error state, journal and cache").
		Handler(func(ctx context.Context, input struct{}) (map[string]any, error) {
			if deps.Health == nil {
				status := bridge.HealthCheck(ctx)
				return map[string]any{"healthy": status.Healthy, "message": status.Message, "details": status.Details}, nil
			}
			health := deps.Health.GetOverallHealth(ctx)
			return map[string]any{"status": health.Status, "checks": health.Checks}, nil
		})

	srv.Tool(ToolPrefix + "history").
		Description("Recent calls recorded in the journal").
		Handler(func(ctx context.Context, input historyInput) (map[string]any, error) {
			if deps.Journal == nil {
				return nil, errors.New("journal disabled")
			}
			calls, err := deps.Journal.RecentCalls(ctx, input.Limit)
			if err != nil {
				return nil, err
			}
			return map[string]any{"calls": calls}, nil
		})

	return nil
}

// callOperation runs one operation. Failures of the call are part of the
// returned map; only malformed input is a tool error.
func callOperation(ctx context.Context, bridge sdk.Bridge, name string, input callInput) (map[string]any, error) {
	args := make([]term.Term, len(input.Args))
	for i, raw := range input.Args {
		t, err := term.FromAny(raw)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		args[i] = t
	}

	res := bridge.Call(ctx, name, args)
	if res.OK() {
		payload := make([]any, len(res.Payload()))
		for i, p := range res.Payload() {
			payload[i] = p.ToAny()
		}
		return map[string]any{
			"status":  string(res.Status()),
			"payload": payload,
			"term":    res.String(),
		}, nil
	}
	return map[string]any{
		"status":  string(res.Status()),
		"kind":    string(res.Kind()),
		"code":    sdk.ErrorCode(res.Err()),
		"message": res.Message(),
	}, nil
}

func describeOperation(info sdk.OperationInfo) string {
	params := make([]string, len(info.Params))
	for i, p := range info.Params {
		params[i] = p.Name + " (" + p.Kind + ")"
	}
	desc := info.Description
	if desc == "" {
		desc = info.Name
	}
	return fmt.Sprintf("%s. Native routine %s. args: [%s]. Returns %s.",
		desc, info.Routine, strings.Join(params, ", "), info.Returns)
}
