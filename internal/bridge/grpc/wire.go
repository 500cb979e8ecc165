package grpc

import (
	"reflect"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/felixgeelhaar/astrobridge/internal/bridge/sdk"
	"github.com/felixgeelhaar/astrobridge/internal/bridge/term"
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	if encMode, err = cbor.CanonicalEncOptions().EncMode(); err != nil {
		panic(err)
	}
	decMode, err = cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic(err)
	}
}

type wireFailure struct {
	Kind    string `cbor:"1,keyasint"`
	Code    string `cbor:"2,keyasint,omitempty"`
	Message string `cbor:"3,keyasint"`
}

type initializeRequest struct {
	Kernels []byte `cbor:"1,keyasint"`
}

type initializeResponse struct {
	Failure *wireFailure `cbor:"1,keyasint,omitempty"`
}

type callRequest struct {
	Operation string `cbor:"1,keyasint"`
	Args      []byte `cbor:"2,keyasint"`
}

type callResponse struct {
	Payload []byte       `cbor:"1,keyasint,omitempty"`
	Failure *wireFailure `cbor:"2,keyasint,omitempty"`
}

type healthMessage struct {
	Healthy   bool           `cbor:"1,keyasint"`
	Message   string         `cbor:"2,keyasint,omitempty"`
	Details   map[string]any `cbor:"3,keyasint,omitempty"`
	CheckedAt int64          `cbor:"4,keyasint"`
}

func toWireFailure(err error) *wireFailure {
	if err == nil {
		return nil
	}
	return &wireFailure{
		Kind:    string(sdk.KindOf(err)),
		Code:    sdk.ErrorCode(err),
		Message: err.Error(),
	}
}

func fromWireFailure(operation string, f *wireFailure) error {
	if f == nil {
		return nil
	}
	return sdk.RebuildError(sdk.ErrorKind(f.Kind), operation, f.Code, f.Message)
}

func encodeCallResponse(res sdk.Result) ([]byte, error) {
	var resp callResponse
	if res.OK() {
		payload, err := term.MarshalCBOR(res.Payload()...)
		if err != nil {
			return nil, err
		}
		resp.Payload = payload
	} else {
		resp.Failure = toWireFailure(res.Err())
	}
	return encMode.Marshal(resp)
}

func decodeCallResponse(operation string, data []byte) (sdk.Result, error) {
	var resp callResponse
	if err := decMode.Unmarshal(data, &resp); err != nil {
		return sdk.Result{}, err
	}
	if resp.Failure != nil {
		return sdk.Failure(fromWireFailure(operation, resp.Failure)), nil
	}
	if len(resp.Payload) == 0 {
		return sdk.Success(), nil
	}
	payload, err := term.UnmarshalCBOR(resp.Payload)
	if err != nil {
		return sdk.Result{}, err
	}
	return sdk.Success(payload...), nil
}

func toHealthMessage(h sdk.HealthStatus) healthMessage {
	return healthMessage{
		Healthy:   h.Healthy,
		Message:   h.Message,
		Details:   h.Details,
		CheckedAt: h.CheckedAt.UnixNano(),
	}
}

func fromHealthMessage(m healthMessage) sdk.HealthStatus {
	details := m.Details
	if details == nil {
		details = make(map[string]any)
	}
	return sdk.HealthStatus{
		Healthy:   m.Healthy,
		Message:   m.Message,
		Details:   details,
		CheckedAt: time.Unix(0, m.CheckedAt),
	}
}

