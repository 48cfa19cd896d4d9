package tplink_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"tplc/internal/domain"
	"tplc/internal/infra"
	"tplc/internal/infra/tplink"
)

// passthroughServer records the request body and answers with a fixed
// envelope.
func passthroughServer(t *testing.T, reply map[string]any) (*httptest.Server, *map[string]json.RawMessage) {
	t.Helper()
	captured := &map[string]json.RawMessage{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(captured); err != nil {
			t.Errorf("decoding request body: %v", err)
		}
		json.NewEncoder(w).Encode(reply)
	}))
	return server, captured
}

func encodedResponse(inner string) map[string]any {
	return map[string]any{
		"error_code": 0,
		"result":     map[string]any{"responseData": inner},
	}
}

func TestDeviceClient_KasaEnvelope(t *testing.T) {
	server, captured := passthroughServer(t, encodedResponse(`{"system":{"get_sysinfo":{"relay_state":1}}}`))
	defer server.Close()

	dc := tplink.NewDeviceClient(infra.NewHTTPClient(0), domain.ProviderKasa, server.URL, "tok", "term-1", discardLogger())

	resp, err := dc.Passthrough(context.Background(), "8001", "", map[string]any{
		"system": map[string]any{"get_sysinfo": nil},
	})
	if err != nil {
		t.Fatalf("Passthrough error: %v", err)
	}

	var method string
	json.Unmarshal((*captured)["method"], &method)
	if method != "passthrough" {
		t.Errorf("method: got %q, want passthrough", method)
	}

	var params struct {
		DeviceID    string `json:"deviceId"`
		RequestData string `json:"requestData"`
	}
	if err := json.Unmarshal((*captured)["params"], &params); err != nil {
		t.Fatalf("decoding params: %v", err)
	}
	if params.DeviceID != "8001" {
		t.Errorf("deviceId: got %s, want 8001", params.DeviceID)
	}

	var inner map[string]any
	if err := json.Unmarshal([]byte(params.RequestData), &inner); err != nil {
		t.Fatalf("requestData is not an encoded JSON string: %v", err)
	}
	if _, ok := inner["context"]; ok {
		t.Error("context injected without a child id")
	}

	var sysinfo struct {
		System struct {
			GetSysinfo struct {
				RelayState int `json:"relay_state"`
			} `json:"get_sysinfo"`
		} `json:"system"`
	}
	if err := json.Unmarshal(resp, &sysinfo); err != nil {
		t.Fatalf("decoding inner response: %v", err)
	}
	if sysinfo.System.GetSysinfo.RelayState != 1 {
		t.Error("inner response not double-decoded")
	}
}

func TestDeviceClient_TapoFlatBody(t *testing.T) {
	server, captured := passthroughServer(t, encodedResponse(`{}`))
	defer server.Close()

	dc := tplink.NewDeviceClient(infra.NewHTTPClient(0), domain.ProviderTapo, server.URL, "tok", "term-1", discardLogger())

	_, err := dc.Passthrough(context.Background(), "9001", "", map[string]any{
		"system": map[string]any{"get_sysinfo": nil},
	})
	if err != nil {
		t.Fatalf("Passthrough error: %v", err)
	}

	if _, ok := (*captured)["method"]; ok {
		t.Error("tapo body should not carry the method wrapper")
	}
	var deviceID string
	json.Unmarshal((*captured)["deviceId"], &deviceID)
	if deviceID != "9001" {
		t.Errorf("deviceId: got %s, want 9001", deviceID)
	}
}

func TestDeviceClient_ChildContext(t *testing.T) {
	server, captured := passthroughServer(t, encodedResponse(`{}`))
	defer server.Close()

	dc := tplink.NewDeviceClient(infra.NewHTTPClient(0), domain.ProviderKasa, server.URL, "tok", "term-1", discardLogger())

	command := map[string]any{"system": map[string]any{"set_relay_state": map[string]any{"state": 1}}}
	_, err := dc.Passthrough(context.Background(), "8001", "8001-01", command)
	if err != nil {
		t.Fatalf("Passthrough error: %v", err)
	}

	var params struct {
		RequestData string `json:"requestData"`
	}
	json.Unmarshal((*captured)["params"], &params)

	var inner struct {
		Context struct {
			ChildIDs []string `json:"child_ids"`
		} `json:"context"`
	}
	if err := json.Unmarshal([]byte(params.RequestData), &inner); err != nil {
		t.Fatalf("decoding requestData: %v", err)
	}
	if len(inner.Context.ChildIDs) != 1 || inner.Context.ChildIDs[0] != "8001-01" {
		t.Errorf("child_ids: got %v, want [8001-01]", inner.Context.ChildIDs)
	}

	if _, ok := command["context"]; ok {
		t.Error("caller's command map was mutated")
	}
}

func TestDeviceClient_DoubleDecodeViolations(t *testing.T) {
	tests := []struct {
		name  string
		reply map[string]any
	}{
		{
			name: "responseData is an object, not a string",
			reply: map[string]any{
				"error_code": 0,
				"result":     map[string]any{"responseData": map[string]any{"system": map[string]any{}}},
			},
		},
		{
			name:  "responseData string holds invalid JSON",
			reply: encodedResponse(`not json at all`),
		},
		{
			name: "responseData missing",
			reply: map[string]any{
				"error_code": 0,
				"result":     map[string]any{},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, _ := passthroughServer(t, tt.reply)
			defer server.Close()

			dc := tplink.NewDeviceClient(infra.NewHTTPClient(0), domain.ProviderKasa, server.URL, "tok", "term-1", discardLogger())

			_, err := dc.Passthrough(context.Background(), "8001", "", map[string]any{"system": map[string]any{"get_sysinfo": nil}})
			var protoErr *domain.ProtocolError
			if !errors.As(err, &protoErr) {
				t.Fatalf("expected ProtocolError, got %T: %v", err, err)
			}
		})
	}
}

func TestDeviceClient_ErrorCodeMapping(t *testing.T) {
	tests := []struct {
		name string
		code int
		kind domain.ErrorKind
	}{
		{"token expired", -20651, domain.KindTokenExpired},
		{"device offline", -20571, domain.KindDeviceOffline},
		{"anything else", -20104, domain.KindAPI},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, _ := passthroughServer(t, map[string]any{"error_code": tt.code})
			defer server.Close()

			dc := tplink.NewDeviceClient(infra.NewHTTPClient(0), domain.ProviderKasa, server.URL, "tok", "term-1", discardLogger())

			_, err := dc.Passthrough(context.Background(), "8001", "", map[string]any{"system": map[string]any{"get_sysinfo": nil}})
			if domain.Kind(err) != tt.kind {
				t.Errorf("kind: got %s, want %s (%v)", domain.Kind(err), tt.kind, err)
			}
		})
	}
}
