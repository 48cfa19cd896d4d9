package tplink

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"tplc/internal/domain"
)

// DeviceClient sends passthrough commands to one device through the
// cloud relay. The relay forwards the inner command JSON to the device
// and hands back its reply, itself embedded as a JSON string inside the
// outer envelope.
type DeviceClient struct {
	client *Client
	token  string
}

// NewDeviceClient wraps an account client with the token used for
// passthrough calls. The host should be the device's appServerUrl when
// the list reported one.
func NewDeviceClient(httpc *http.Client, provider domain.Provider, host, token, termID string, logger *slog.Logger) *DeviceClient {
	return &DeviceClient{
		client: NewClientWithHost(httpc, provider, host, termID, logger),
		token:  token,
	}
}

// SetNonceFunc pins the nonce source, for deterministic tests.
func (dc *DeviceClient) SetNonceFunc(fn func() string) {
	dc.client.SetNonceFunc(fn)
}

// Passthrough sends command to deviceID and returns the double-decoded
// inner response. A non-empty childID scopes the command to one outlet
// of a multi-outlet unit via the context field; it is omitted entirely
// otherwise.
func (dc *DeviceClient) Passthrough(ctx context.Context, deviceID, childID string, command map[string]any) (json.RawMessage, error) {
	if childID != "" {
		scoped := make(map[string]any, len(command)+1)
		for k, v := range command {
			scoped[k] = v
		}
		scoped["context"] = map[string]any{"child_ids": []string{childID}}
		command = scoped
	}

	requestData, err := json.Marshal(command)
	if err != nil {
		return nil, fmt.Errorf("encoding passthrough command: %w", err)
	}

	cfg := dc.client.cfg
	var body any
	if cfg.WrapPassthrough {
		body = map[string]any{
			"method": "passthrough",
			"params": map[string]any{
				"deviceId":    deviceID,
				"requestData": string(requestData),
			},
		}
	} else {
		body = map[string]any{
			"deviceId":    deviceID,
			"requestData": string(requestData),
		}
	}

	resp, err := dc.client.postSigned(ctx, dc.client.host, cfg.PassthroughPath, body, dc.token)
	if err != nil {
		return nil, err
	}

	switch {
	case resp.ErrorCode == codeTokenExpired:
		return nil, &domain.TokenExpiredError{Provider: cfg.Provider, Code: resp.ErrorCode}
	case resp.ErrorCode == codeDeviceOffline:
		return nil, &domain.OfflineError{Device: deviceID, Code: resp.ErrorCode}
	case !resp.successful():
		return nil, &domain.APIError{
			Message: orDefault(resp.Msg, fmt.Sprintf("device error code %d", resp.ErrorCode)),
			Code:    resp.ErrorCode,
		}
	}

	return decodeResponseData(resp)
}

// decodeResponseData enforces the double-decode contract: the outer
// result must hold responseData as a JSON string whose content is itself
// valid JSON. Anything else is a protocol violation, never a partial
// success.
func decodeResponseData(resp *apiResponse) (json.RawMessage, error) {
	raw, ok := resp.resultField("responseData")
	if !ok {
		return nil, &domain.ProtocolError{Message: "response missing responseData"}
	}

	var encoded string
	if err := json.Unmarshal(raw, &encoded); err != nil {
		return nil, &domain.ProtocolError{Message: "responseData is not a JSON string", Err: err}
	}

	inner := json.RawMessage(encoded)
	if !json.Valid(inner) {
		return nil, &domain.ProtocolError{Message: "responseData does not contain valid JSON"}
	}
	return inner, nil
}
