package tplink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"tplc/internal/domain"
	"tplc/internal/infra"
)

const (
	pathAccountStatus = "/api/v2/account/getAccountStatusAndUrl"
	pathLogin         = "/api/v2/account/login"
	pathRefreshToken  = "/api/v2/account/refreshToken"
	pathMFALogin      = "/api/v2/account/checkMFACodeAndLogin"
)

// LoginResult is what a successful login, MFA verification or token
// refresh yields.
type LoginResult struct {
	Token        string
	RefreshToken string
	RegionalURL  string
}

// Client talks to one provider's account API: login (with optional MFA
// round trip), token refresh and the device list.
type Client struct {
	httpc  *http.Client
	cfg    CloudConfig
	host   string
	termID string
	nonce  func() string
	logger *slog.Logger
}

// NewClient builds a client against the provider's default host.
func NewClient(httpc *http.Client, provider domain.Provider, termID string, logger *slog.Logger) *Client {
	return NewClientWithHost(httpc, provider, "", termID, logger)
}

// NewClientWithHost pins the client to a specific host, either a
// discovered regional URL or a test server.
func NewClientWithHost(httpc *http.Client, provider domain.Provider, host string, termID string, logger *slog.Logger) *Client {
	cfg := Cloud(provider)
	if host == "" {
		host = cfg.Host
	}
	return &Client{
		httpc:  httpc,
		cfg:    cfg,
		host:   strings.TrimSuffix(host, "/"),
		termID: termID,
		nonce:  NewNonce,
		logger: logger,
	}
}

// SetNonceFunc replaces the per-request nonce source, for deterministic
// signatures in tests.
func (c *Client) SetNonceFunc(fn func() string) {
	c.nonce = fn
}

func (c *Client) Provider() domain.Provider {
	return c.cfg.Provider
}

func (c *Client) Host() string {
	return c.host
}

// queryParams is the device metadata the app sends with every request.
func (c *Client) queryParams(token string) url.Values {
	params := url.Values{}
	params.Set("appName", c.cfg.AppType)
	params.Set("appVer", AppVersion)
	params.Set("netType", "wifi")
	params.Set("termID", c.termID)
	params.Set("ospf", "Android 14")
	params.Set("brand", "TPLINK")
	params.Set("locale", "en_US")
	params.Set("model", "Pixel")
	params.Set("termName", "Pixel")
	params.Set("termMeta", "Pixel")
	if token != "" {
		params.Set("token", token)
	}
	return params
}

// postSigned marshals body, signs it against urlPath and posts it to
// host, returning the decoded outer envelope.
func (c *Client) postSigned(ctx context.Context, host, urlPath string, body any, token string) (*apiResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	signing := Sign(c.cfg, urlPath, payload, c.nonce())

	reqURL := strings.TrimSuffix(host, "/") + urlPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.URL.RawQuery = c.queryParams(token).Encode()
	req.Header.Set("Content-Type", "application/json;charset=UTF-8")
	req.Header.Set("Content-MD5", signing.ContentMD5)
	req.Header.Set("X-Authorization", signing.XAuthorization)
	req.Header.Set("User-Agent", infra.UserAgent)

	c.logger.Debug("cloud request",
		"provider", c.cfg.Provider,
		"url", reqURL,
		"body", string(payload),
	)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, &domain.TransportError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.TransportError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &domain.APIError{
			Message: fmt.Sprintf("%s: %s", resp.Status, strings.TrimSpace(string(raw))),
		}
	}

	var envelope apiResponse
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, &domain.ProtocolError{Message: "decoding response envelope", Err: err}
	}

	c.logger.Debug("cloud response",
		"provider", c.cfg.Provider,
		"error_code", envelope.ErrorCode,
		"msg", envelope.Msg,
	)

	return &envelope, nil
}

// regionalURL asks the account-status endpoint where this account lives.
// Falls back to the static host when discovery yields nothing.
func (c *Client) regionalURL(ctx context.Context, username string) (string, error) {
	body := map[string]any{
		"appType":       c.cfg.AppType,
		"cloudUserName": username,
	}
	resp, err := c.postSigned(ctx, c.host, pathAccountStatus, body, "")
	if err != nil {
		return "", err
	}
	if resp.successful() {
		if raw, ok := resp.resultField("appServerUrl"); ok {
			var u string
			if err := json.Unmarshal(raw, &u); err == nil && u != "" {
				return u, nil
			}
		}
	}
	return c.host, nil
}

// Login authenticates against the provider. MFA challenges surface as
// *domain.MFARequiredError; the caller completes them via VerifyMFA.
// On success the client is re-pinned to the account's regional host.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	if username == "" {
		return nil, &domain.InvalidInputError{Message: "username is required"}
	}
	if password == "" {
		return nil, &domain.InvalidInputError{Message: "password is required"}
	}

	regional, err := c.regionalURL(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("discovering regional url: %w", err)
	}
	c.host = strings.TrimSuffix(regional, "/")

	body := map[string]any{
		"appType":            c.cfg.AppType,
		"appVersion":         AppVersion,
		"cloudUserName":      username,
		"cloudPassword":      password,
		"platform":           "Android",
		"refreshTokenNeeded": true,
		"supportBindAccount": false,
		"terminalUUID":       c.termID,
		"terminalName":       "Pixel",
		"terminalMeta":       "Pixel",
	}

	resp, err := c.postSigned(ctx, c.host, pathLogin, body, "")
	if err != nil {
		return nil, err
	}

	if resp.successful() {
		// The V2 API can answer error_code 0 yet carry an inner errorCode
		// in the result object, as a string or an int.
		if code := innerErrorCode(resp.Result); code != 0 {
			return nil, c.loginError(code, innerErrorMsg(resp.Result), username)
		}
		return c.loginResult(resp), nil
	}

	return nil, c.loginError(resp.ErrorCode, resp.Msg, username)
}

// VerifyMFA completes a login that was challenged, one extra round trip.
func (c *Client) VerifyMFA(ctx context.Context, username, password, code string) (*LoginResult, error) {
	body := map[string]any{
		"appType":       c.cfg.AppType,
		"cloudUserName": username,
		"cloudPassword": password,
		"code":          code,
		"terminalUUID":  c.termID,
	}

	resp, err := c.postSigned(ctx, c.host, pathMFALogin, body, "")
	if err != nil {
		return nil, err
	}
	if resp.successful() {
		return c.loginResult(resp), nil
	}
	return nil, &domain.AuthError{
		Message: orDefault(resp.Msg, "mfa verification failed"),
		Code:    resp.ErrorCode,
	}
}

// RefreshToken exchanges a refresh token for a fresh access token.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (*LoginResult, error) {
	body := map[string]any{
		"appType":      c.cfg.AppType,
		"refreshToken": refreshToken,
		"terminalUUID": c.termID,
	}

	resp, err := c.postSigned(ctx, c.host, pathRefreshToken, body, "")
	if err != nil {
		return nil, err
	}
	if resp.successful() {
		return c.loginResult(resp), nil
	}
	if resp.ErrorCode == codeRefreshTokenExpired {
		return nil, &domain.AuthError{
			Message: "refresh token has expired, run 'tplc login' to re-authenticate",
			Code:    resp.ErrorCode,
		}
	}
	return nil, &domain.APIError{
		Message: orDefault(resp.Msg, "token refresh failed"),
		Code:    resp.ErrorCode,
	}
}

// DeviceList fetches the account's registered devices via the V1
// method/params wrapper on the root path.
func (c *Client) DeviceList(ctx context.Context, token string) ([]DeviceInfo, error) {
	body := map[string]any{"method": "getDeviceList"}

	resp, err := c.postSigned(ctx, c.host, "/", body, token)
	if err != nil {
		return nil, err
	}

	if resp.ErrorCode == codeTokenExpired {
		return nil, &domain.TokenExpiredError{Provider: c.cfg.Provider, Code: resp.ErrorCode}
	}
	if !resp.successful() {
		return nil, &domain.APIError{
			Message: orDefault(resp.Msg, "device list failed"),
			Code:    resp.ErrorCode,
		}
	}

	raw, ok := resp.resultField("deviceList")
	if !ok {
		return nil, nil
	}
	var devices []DeviceInfo
	if err := json.Unmarshal(raw, &devices); err != nil {
		return nil, &domain.ProtocolError{Message: "decoding device list", Err: err}
	}
	return devices, nil
}

func (c *Client) loginResult(resp *apiResponse) *LoginResult {
	result := &LoginResult{RegionalURL: c.host}
	if raw, ok := resp.resultField("token"); ok {
		_ = json.Unmarshal(raw, &result.Token)
	}
	if raw, ok := resp.resultField("refreshToken"); ok {
		_ = json.Unmarshal(raw, &result.RefreshToken)
	}
	return result
}

func (c *Client) loginError(code int, msg, username string) error {
	switch code {
	case codeMFARequired:
		return &domain.MFARequiredError{Provider: c.cfg.Provider, Email: username}
	case codeWrongCredentials, codeAccountLocked:
		return &domain.AuthError{Message: orDefault(msg, "authentication failed"), Code: code}
	default:
		return &domain.APIError{
			Message: orDefault(msg, fmt.Sprintf("login failed with error code %d", code)),
			Code:    code,
		}
	}
}

// innerErrorCode digs the result-level errorCode out of a login reply,
// tolerating both string and numeric encodings.
func innerErrorCode(result json.RawMessage) int {
	if len(result) == 0 {
		return 0
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(result, &fields); err != nil {
		return 0
	}
	raw, ok := fields["errorCode"]
	if !ok {
		return 0
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}
	return 0
}

func innerErrorMsg(result json.RawMessage) string {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(result, &fields); err != nil {
		return ""
	}
	var s string
	_ = json.Unmarshal(fields["errorMsg"], &s)
	return s
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
