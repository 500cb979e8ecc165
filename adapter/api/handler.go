package api

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/felixgeelhaar/astrobridge/internal/bridge/sdk"
	"github.com/felixgeelhaar/astrobridge/internal/bridge/term"
	"github.com/felixgeelhaar/astrobridge/pkg/observability"
)

// maxBodyBytes bounds a call request body.
const maxBodyBytes = 1 << 20

// BridgeHandler handles bridge API requests.
type BridgeHandler struct {
	bridge sdk.Bridge
	logger *slog.Logger
}

// NewBridgeHandler creates a new bridge handler.
func NewBridgeHandler(bridge sdk.Bridge, logger *slog.Logger) *BridgeHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &BridgeHandler{bridge: bridge, logger: logger}
}

// callRequest keeps args raw so integers and floats stay distinct.
type callRequest struct {
	Args []json.RawMessage `json:"args"`
}

// CallResponse is the JSON form of a result.
type CallResponse struct {
	Status  sdk.Status  `json:"status"`
	Payload []term.Term `json:"payload,omitempty"`
	Kind    string      `json:"kind,omitempty"`
	Code    string      `json:"code,omitempty"`
	Message string      `json:"message,omitempty"`
}

// Call handles POST /api/v1/calls/{operation}
//
// Call failures are results, not HTTP errors: they are returned with 200 and
// status "error". Only unreadable requests and transport failures change the
// status code.
func (h *BridgeHandler) Call(w http.ResponseWriter, r *http.Request) {
	operation := r.PathValue("operation")

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	var req callRequest
	if len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
	}

	args := make([]term.Term, len(req.Args))
	for i, raw := range req.Args {
		t, err := term.ParseJSON(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("argument %d: %v", i, err))
			return
		}
		args[i] = t
	}

	ctx := r.Context()
	if id := r.Header.Get("X-Correlation-ID"); id != "" {
		ctx = observability.WithCorrelationID(ctx, id)
	}

	res := h.bridge.Call(ctx, operation, args)
	if res.OK() {
		writeJSON(w, http.StatusOK, CallResponse{Status: res.Status(), Payload: res.Payload()})
		return
	}

	status := http.StatusOK
	switch res.Kind() {
	case sdk.KindTransport:
		status = http.StatusBadGateway
	case sdk.KindCanceled:
		status = http.StatusRequestTimeout
	}
	if status != http.StatusOK {
		h.logger.WarnContext(ctx, "bridge call failed", "operation", operation, "error", res.Message())
	}
	writeJSON(w, status, CallResponse{
		Status:  res.Status(),
		Kind:    string(res.Kind()),
		Code:    sdk.ErrorCode(res.Err()),
		Message: res.Message(),
	})
}

// ListOperations handles GET /api/v1/operations
func (h *BridgeHandler) ListOperations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"operations": h.bridge.Operations(),
	})
}

// GetKernels handles GET /api/v1/kernels
func (h *BridgeHandler) GetKernels(w http.ResponseWriter, r *http.Request) {
	status := h.bridge.HealthCheck(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      status.Details["kernels"],
		"count":       status.Details["kernel_count"],
		"fingerprint": status.Details["fingerprint"],
		"ready":       status.Healthy,
	})
}
