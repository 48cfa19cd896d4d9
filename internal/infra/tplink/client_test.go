package tplink_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"tplc/internal/domain"
	"tplc/internal/infra"
	"tplc/internal/infra/tplink"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeEnvelope(w http.ResponseWriter, code int, result any) {
	json.NewEncoder(w).Encode(map[string]any{
		"error_code": code,
		"result":     result,
	})
}

func TestClient_Login(t *testing.T) {
	var loginBody map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v2/account/getAccountStatusAndUrl":
			writeEnvelope(w, 0, map[string]any{"appServerUrl": ""})
		case "/api/v2/account/login":
			if r.Header.Get("Content-MD5") == "" {
				t.Error("login request missing Content-MD5 header")
			}
			if r.Header.Get("X-Authorization") == "" {
				t.Error("login request missing X-Authorization header")
			}
			json.NewDecoder(r.Body).Decode(&loginBody)
			writeEnvelope(w, 0, map[string]any{
				"token":        "access-token",
				"refreshToken": "refresh-token",
			})
		default:
			http.Error(w, "not found", http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := tplink.NewClientWithHost(infra.NewHTTPClient(0), domain.ProviderKasa, server.URL, "term-1", discardLogger())

	result, err := client.Login(context.Background(), "user@example.com", "hunter2")
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}

	if result.Token != "access-token" {
		t.Errorf("token: got %s, want access-token", result.Token)
	}
	if result.RefreshToken != "refresh-token" {
		t.Errorf("refresh token: got %s, want refresh-token", result.RefreshToken)
	}
	if loginBody["cloudUserName"] != "user@example.com" {
		t.Errorf("cloudUserName: got %v", loginBody["cloudUserName"])
	}
	if loginBody["appType"] != "Kasa_Android_Mix" {
		t.Errorf("appType: got %v", loginBody["appType"])
	}
}

func TestClient_LoginPinsRegionalHost(t *testing.T) {
	regional := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v2/account/login" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		writeEnvelope(w, 0, map[string]any{"token": "regional-token"})
	}))
	defer regional.Close()

	discovery := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, 0, map[string]any{"appServerUrl": regional.URL})
	}))
	defer discovery.Close()

	client := tplink.NewClientWithHost(infra.NewHTTPClient(0), domain.ProviderKasa, discovery.URL, "term-1", discardLogger())

	result, err := client.Login(context.Background(), "user@example.com", "hunter2")
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}
	if result.Token != "regional-token" {
		t.Errorf("token: got %s, want regional-token", result.Token)
	}
	if result.RegionalURL != regional.URL {
		t.Errorf("regional url: got %s, want %s", result.RegionalURL, regional.URL)
	}
	if client.Host() != regional.URL {
		t.Errorf("client host: got %s, want %s", client.Host(), regional.URL)
	}
}

func TestClient_LoginWrongCredentials(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v2/account/getAccountStatusAndUrl" {
			writeEnvelope(w, 0, nil)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"error_code": -20601,
			"msg":        "Incorrect email or password",
		})
	}))
	defer server.Close()

	client := tplink.NewClientWithHost(infra.NewHTTPClient(0), domain.ProviderKasa, server.URL, "term-1", discardLogger())

	_, err := client.Login(context.Background(), "user@example.com", "wrong")
	var authErr *domain.AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthError, got %T: %v", err, err)
	}
	if authErr.Code != -20601 {
		t.Errorf("code: got %d, want -20601", authErr.Code)
	}
}

func TestClient_LoginInnerErrorCode(t *testing.T) {
	// The V2 API sometimes reports error_code 0 with the real failure
	// buried in the result object, encoded as a string.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v2/account/getAccountStatusAndUrl" {
			writeEnvelope(w, 0, nil)
			return
		}
		writeEnvelope(w, 0, map[string]any{
			"errorCode": "-20601",
			"errorMsg":  "Incorrect email or password",
		})
	}))
	defer server.Close()

	client := tplink.NewClientWithHost(infra.NewHTTPClient(0), domain.ProviderKasa, server.URL, "term-1", discardLogger())

	_, err := client.Login(context.Background(), "user@example.com", "wrong")
	var authErr *domain.AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthError, got %T: %v", err, err)
	}
}

func TestClient_LoginMFAChallenge(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v2/account/getAccountStatusAndUrl":
			writeEnvelope(w, 0, nil)
		case "/api/v2/account/login":
			json.NewEncoder(w).Encode(map[string]any{"error_code": -20676})
		case "/api/v2/account/checkMFACodeAndLogin":
			var body map[string]any
			json.NewDecoder(r.Body).Decode(&body)
			if body["code"] != "123456" {
				t.Errorf("mfa code: got %v, want 123456", body["code"])
			}
			writeEnvelope(w, 0, map[string]any{"token": "mfa-token"})
		default:
			http.Error(w, "not found", http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := tplink.NewClientWithHost(infra.NewHTTPClient(0), domain.ProviderTapo, server.URL, "term-1", discardLogger())

	_, err := client.Login(context.Background(), "user@example.com", "hunter2")
	var mfa *domain.MFARequiredError
	if !errors.As(err, &mfa) {
		t.Fatalf("expected MFARequiredError, got %T: %v", err, err)
	}
	if mfa.Email != "user@example.com" {
		t.Errorf("mfa email: got %s", mfa.Email)
	}

	result, err := client.VerifyMFA(context.Background(), "user@example.com", "hunter2", "123456")
	if err != nil {
		t.Fatalf("VerifyMFA error: %v", err)
	}
	if result.Token != "mfa-token" {
		t.Errorf("token: got %s, want mfa-token", result.Token)
	}
}

func TestClient_RefreshToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		if body["refreshToken"] != "old-refresh" {
			t.Errorf("refreshToken: got %v, want old-refresh", body["refreshToken"])
		}
		writeEnvelope(w, 0, map[string]any{"token": "new-token"})
	}))
	defer server.Close()

	client := tplink.NewClientWithHost(infra.NewHTTPClient(0), domain.ProviderKasa, server.URL, "term-1", discardLogger())

	result, err := client.RefreshToken(context.Background(), "old-refresh")
	if err != nil {
		t.Fatalf("RefreshToken error: %v", err)
	}
	if result.Token != "new-token" {
		t.Errorf("token: got %s, want new-token", result.Token)
	}
}

func TestClient_RefreshTokenExpired(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"error_code": -20652})
	}))
	defer server.Close()

	client := tplink.NewClientWithHost(infra.NewHTTPClient(0), domain.ProviderKasa, server.URL, "term-1", discardLogger())

	_, err := client.RefreshToken(context.Background(), "stale")
	var authErr *domain.AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthError, got %T: %v", err, err)
	}
	if authErr.Code != -20652 {
		t.Errorf("code: got %d, want -20652", authErr.Code)
	}
}

func TestClient_DeviceList(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("token") != "tok" {
			t.Errorf("token query param: got %q, want tok", r.URL.Query().Get("token"))
		}
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		if body["method"] != "getDeviceList" {
			t.Errorf("method: got %v, want getDeviceList", body["method"])
		}
		writeEnvelope(w, 0, map[string]any{
			"deviceList": []map[string]any{
				{
					"deviceId":     "8001",
					"alias":        "Desk Lamp",
					"deviceModel":  "HS103(US)",
					"status":       1,
					"appServerUrl": "https://use1-wap.tplinkcloud.com",
				},
				{"deviceId": "8002", "alias": "Heater", "deviceModel": "HS110(US)", "status": 0},
			},
		})
	}))
	defer server.Close()

	client := tplink.NewClientWithHost(infra.NewHTTPClient(0), domain.ProviderKasa, server.URL, "term-1", discardLogger())

	devices, err := client.DeviceList(context.Background(), "tok")
	if err != nil {
		t.Fatalf("DeviceList error: %v", err)
	}
	if len(devices) != 2 {
		t.Fatalf("devices count: got %d, want 2", len(devices))
	}

	record := devices[0].Record(domain.ProviderKasa)
	if record.Alias != "Desk Lamp" {
		t.Errorf("alias: got %s, want Desk Lamp", record.Alias)
	}
	if record.Type != domain.TypeHS103 {
		t.Errorf("type: got %s, want HS103", record.Type)
	}
	if !record.Online {
		t.Error("first device should be online")
	}
	if devices[1].Online() {
		t.Error("second device should be offline")
	}
}

func TestClient_DeviceListTokenExpired(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"error_code": -20651, "msg": "Token expired"})
	}))
	defer server.Close()

	client := tplink.NewClientWithHost(infra.NewHTTPClient(0), domain.ProviderKasa, server.URL, "term-1", discardLogger())

	_, err := client.DeviceList(context.Background(), "stale")
	var expired *domain.TokenExpiredError
	if !errors.As(err, &expired) {
		t.Fatalf("expected TokenExpiredError, got %T: %v", err, err)
	}
	if expired.Provider != domain.ProviderKasa {
		t.Errorf("provider: got %s, want kasa", expired.Provider)
	}
}

func TestClient_HTTPErrorIsAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer server.Close()

	client := tplink.NewClientWithHost(infra.NewHTTPClient(0), domain.ProviderKasa, server.URL, "term-1", discardLogger())

	_, err := client.DeviceList(context.Background(), "tok")
	if domain.Kind(err) != domain.KindAPI {
		t.Fatalf("expected api error kind, got %s (%v)", domain.Kind(err), err)
	}
}
