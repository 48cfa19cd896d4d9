package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"tplc/internal/domain"
	"tplc/internal/infra"
	"tplc/internal/infra/secrets"
	"tplc/internal/infra/tplink"
)

// Environment variables consulted before prompting for credentials.
const (
	EnvUsername = "TPLC_USERNAME"
	EnvPassword = "TPLC_PASSWORD"
)

// Prompter supplies the interactive inputs a login may need. The session
// asks for an MFA code at most once per provider per login.
type Prompter interface {
	Credentials(ctx context.Context) (domain.Credentials, error)
	MFACode(ctx context.Context, provider domain.Provider, email string) (string, error)
}

// CredentialSource records which rung of the resolution ladder produced
// the credentials.
type CredentialSource string

const (
	SourceExplicit CredentialSource = "explicit"
	SourceEnv      CredentialSource = "environment"
	SourceStored   CredentialSource = "stored_token"
	SourcePrompt   CredentialSource = "prompt"
)

// ResolveCredentials applies the login resolution order: explicit
// credentials, then the environment, then a previously stored token
// (which skips login entirely), then an interactive prompt. It is the
// single place this policy lives.
func ResolveCredentials(ctx context.Context, explicit *domain.Credentials, store secrets.Store, prompter Prompter) (domain.Credentials, CredentialSource, error) {
	if explicit != nil && explicit.Username != "" && explicit.Password != "" {
		return *explicit, SourceExplicit, nil
	}

	username := os.Getenv(EnvUsername)
	password := os.Getenv(EnvPassword)
	if username != "" && password != "" {
		return domain.Credentials{Username: username, Password: password}, SourceEnv, nil
	}

	if state, err := loadTokenState(store, domain.ProviderKasa); err == nil && state.Token != "" {
		return domain.Credentials{}, SourceStored, nil
	}

	creds, err := prompter.Credentials(ctx)
	if err != nil {
		return domain.Credentials{}, SourcePrompt, &domain.InvalidInputError{Message: err.Error()}
	}
	return creds, SourcePrompt, nil
}

// tokenState is the per-provider blob persisted in the secret store.
type tokenState struct {
	Token        string    `json:"token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	RegionalURL  string    `json:"regional_url"`
	Username     string    `json:"username"`
	TermID       string    `json:"term_id"`
	ObtainedAt   time.Time `json:"obtained_at"`
}

func storeKey(p domain.Provider) string {
	return string(p) + "-tokens"
}

func loadTokenState(store secrets.Store, p domain.Provider) (*tokenState, error) {
	blob, err := store.Get(storeKey(p))
	if err != nil {
		return nil, err
	}
	var state tokenState
	if err := json.Unmarshal([]byte(blob), &state); err != nil {
		return nil, fmt.Errorf("decoding stored %s tokens: %w", p, err)
	}
	return &state, nil
}

// SessionOptions tune the session for tests and host overrides.
type SessionOptions struct {
	// Hosts overrides the provider endpoints (test servers, staging).
	Hosts map[domain.Provider]string
	// Timeout bounds every outbound call; zero selects the default.
	Timeout time.Duration
	// Nonce overrides the per-request nonce source.
	Nonce func() string
}

// Session owns the per-provider token state: login with optional MFA,
// transparent refresh-once on expiry, and logout. Kasa is required;
// Tapo is best-effort and simply absent when its login fails.
type Session struct {
	store    secrets.Store
	prompter Prompter
	logger   *slog.Logger
	httpc    *http.Client
	hosts    map[domain.Provider]string
	nonce    func() string

	mu     sync.Mutex
	tokens map[domain.Provider]*tokenState
	loaded bool

	refreshGroup singleflight.Group
}

func NewSession(store secrets.Store, prompter Prompter, opts SessionOptions, logger *slog.Logger) *Session {
	return &Session{
		store:    store,
		prompter: prompter,
		logger:   logger,
		httpc:    infra.NewHTTPClient(opts.Timeout),
		hosts:    opts.Hosts,
		nonce:    opts.Nonce,
		tokens:   make(map[domain.Provider]*tokenState),
	}
}

func (s *Session) accountClient(p domain.Provider, host, termID string) *tplink.Client {
	if override := s.hosts[p]; override != "" {
		host = override
	}
	c := tplink.NewClientWithHost(s.httpc, p, host, termID, s.logger)
	if s.nonce != nil {
		c.SetNonceFunc(s.nonce)
	}
	return c
}

// Login authenticates both clouds. Kasa failure is fatal; Tapo failure
// is logged and leaves the Tapo slot empty so later catalog queries
// operate on Kasa only. When a stored token already exists and no
// explicit credentials are given, login is skipped entirely.
func (s *Session) Login(ctx context.Context, explicit *domain.Credentials) error {
	creds, source, err := ResolveCredentials(ctx, explicit, s.store, s.prompter)
	if err != nil {
		return err
	}
	if source == SourceStored {
		s.logger.Info("using stored token, skipping login")
		return s.loadFromStore()
	}

	termID := uuid.NewString()

	kasaState, err := s.loginProvider(ctx, domain.ProviderKasa, creds, termID)
	if err != nil {
		return fmt.Errorf("kasa login: %w", err)
	}

	tapoState, err := s.loginProvider(ctx, domain.ProviderTapo, creds, termID)
	if err != nil {
		s.logger.Warn("tapo login failed, continuing with kasa only", "error", err)
		tapoState = nil
	}

	s.mu.Lock()
	s.tokens = map[domain.Provider]*tokenState{domain.ProviderKasa: kasaState}
	if tapoState != nil {
		s.tokens[domain.ProviderTapo] = tapoState
	}
	s.loaded = true
	s.mu.Unlock()

	if err := s.persist(domain.ProviderKasa); err != nil {
		return err
	}
	if tapoState != nil {
		if err := s.persist(domain.ProviderTapo); err != nil {
			return err
		}
	}
	return nil
}

// loginProvider runs one provider's login, completing a single MFA round
// trip via the prompter when challenged.
func (s *Session) loginProvider(ctx context.Context, p domain.Provider, creds domain.Credentials, termID string) (*tokenState, error) {
	client := s.accountClient(p, "", termID)

	result, err := client.Login(ctx, creds.Username, creds.Password)
	var mfa *domain.MFARequiredError
	if errors.As(err, &mfa) {
		code, perr := s.prompter.MFACode(ctx, p, mfa.Email)
		if perr != nil {
			return nil, &domain.InvalidInputError{Message: perr.Error()}
		}
		result, err = client.VerifyMFA(ctx, creds.Username, creds.Password, code)
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("authenticated", "provider", p, "regional_url", result.RegionalURL)

	return &tokenState{
		Token:        result.Token,
		RefreshToken: result.RefreshToken,
		RegionalURL:  result.RegionalURL,
		Username:     creds.Username,
		TermID:       termID,
		ObtainedAt:   time.Now(),
	}, nil
}

// loadFromStore hydrates in-memory state from the secret store. A
// missing Kasa blob means the user never logged in.
func (s *Session) loadFromStore() error {
	kasa, err := loadTokenState(s.store, domain.ProviderKasa)
	if errors.Is(err, secrets.ErrNotFound) {
		return &domain.NotAuthenticatedError{}
	}
	if err != nil {
		return &domain.SecretStoreError{Err: err}
	}
	if kasa.Token == "" {
		return &domain.NotAuthenticatedError{}
	}

	tokens := map[domain.Provider]*tokenState{domain.ProviderKasa: kasa}
	if tapo, err := loadTokenState(s.store, domain.ProviderTapo); err == nil && tapo.Token != "" {
		tokens[domain.ProviderTapo] = tapo
	}

	s.mu.Lock()
	s.tokens = tokens
	s.loaded = true
	s.mu.Unlock()
	return nil
}

func (s *Session) ensureLoaded() error {
	s.mu.Lock()
	loaded := s.loaded
	s.mu.Unlock()
	if loaded {
		return nil
	}
	return s.loadFromStore()
}

// HasProvider reports whether the session holds a token for p.
func (s *Session) HasProvider(p domain.Provider) bool {
	if err := s.ensureLoaded(); err != nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.tokens[p]
	return ok && state.Token != ""
}

// Username returns the account the stored tokens belong to.
func (s *Session) Username() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if state, ok := s.tokens[domain.ProviderKasa]; ok {
		return state.Username
	}
	return ""
}

func (s *Session) snapshot(p domain.Provider) (tokenState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.tokens[p]
	if !ok || state.Token == "" {
		return tokenState{}, &domain.NotAuthenticatedError{}
	}
	return *state, nil
}

func (s *Session) persist(p domain.Provider) error {
	s.mu.Lock()
	state, ok := s.tokens[p]
	var blob []byte
	var err error
	if ok {
		blob, err = json.Marshal(state)
	}
	s.mu.Unlock()
	if !ok {
		return nil
	}
	if err != nil {
		return fmt.Errorf("encoding %s tokens: %w", p, err)
	}
	if err := s.store.Set(storeKey(p), string(blob)); err != nil {
		return &domain.SecretStoreError{Err: err}
	}
	return nil
}

// withAuthRetry runs fn with the current token and, when the provider
// reports the token expired, performs exactly one refresh-and-retry
// cycle. A second expiry surfaces as an auth error, never another retry.
func (s *Session) withAuthRetry(ctx context.Context, p domain.Provider, fn func(state tokenState) error) error {
	if err := s.ensureLoaded(); err != nil {
		return err
	}
	state, err := s.snapshot(p)
	if err != nil {
		return err
	}

	err = fn(state)
	var expired *domain.TokenExpiredError
	if !errors.As(err, &expired) {
		return err
	}

	s.logger.Debug("token expired, refreshing", "provider", p)
	if rerr := s.refresh(ctx, p); rerr != nil {
		return rerr
	}

	state, err = s.snapshot(p)
	if err != nil {
		return err
	}
	err = fn(state)
	if errors.As(err, &expired) {
		return &domain.AuthError{
			Message: fmt.Sprintf("%s token rejected again after refresh", p),
			Code:    expired.Code,
		}
	}
	return err
}

// refresh exchanges the stored refresh token for a new access token.
// Concurrent callers for the same provider share one in-flight refresh
// instead of racing duplicates.
func (s *Session) refresh(ctx context.Context, p domain.Provider) error {
	_, err, _ := s.refreshGroup.Do(string(p), func() (any, error) {
		state, err := s.snapshot(p)
		if err != nil {
			return nil, err
		}
		if state.RefreshToken == "" {
			return nil, &domain.AuthError{Message: fmt.Sprintf("no %s refresh token stored, run 'tplc login'", p)}
		}

		client := s.accountClient(p, state.RegionalURL, state.TermID)
		result, err := client.RefreshToken(ctx, state.RefreshToken)
		if err != nil {
			var authErr *domain.AuthError
			if errors.As(err, &authErr) {
				return nil, err
			}
			return nil, &domain.AuthError{Message: fmt.Sprintf("%s token refresh failed: %v", p, err)}
		}

		s.mu.Lock()
		if cur, ok := s.tokens[p]; ok {
			cur.Token = result.Token
			if result.RefreshToken != "" {
				cur.RefreshToken = result.RefreshToken
			}
			cur.RegionalURL = result.RegionalURL
			cur.ObtainedAt = time.Now()
		}
		s.mu.Unlock()

		return nil, s.persist(p)
	})
	return err
}

// DeviceList fetches the provider's registered devices, refreshing the
// token once if it has expired.
func (s *Session) DeviceList(ctx context.Context, p domain.Provider) ([]tplink.DeviceInfo, error) {
	var devices []tplink.DeviceInfo
	err := s.withAuthRetry(ctx, p, func(state tokenState) error {
		client := s.accountClient(p, state.RegionalURL, state.TermID)
		list, err := client.DeviceList(ctx, state.Token)
		if err != nil {
			return err
		}
		devices = list
		return nil
	})
	return devices, err
}

// Passthrough sends a device command through p's relay with the same
// refresh-once guarantee. appServerURL is the device's regional relay;
// empty falls back to the session's regional URL for the provider.
func (s *Session) Passthrough(ctx context.Context, p domain.Provider, appServerURL, deviceID, childID string, command map[string]any) (json.RawMessage, error) {
	var response json.RawMessage
	err := s.withAuthRetry(ctx, p, func(state tokenState) error {
		host := appServerURL
		if host == "" {
			host = state.RegionalURL
		}
		dc := tplink.NewDeviceClient(s.httpc, p, s.hostOrOverride(p, host), state.Token, state.TermID, s.logger)
		if s.nonce != nil {
			dc.SetNonceFunc(s.nonce)
		}
		resp, err := dc.Passthrough(ctx, deviceID, childID, command)
		if err != nil {
			return err
		}
		response = resp
		return nil
	})
	return response, err
}

func (s *Session) hostOrOverride(p domain.Provider, host string) string {
	if override := s.hosts[p]; override != "" {
		return override
	}
	return host
}

// Status describes what authentication state is persisted.
type Status struct {
	Authenticated     bool
	Username          string
	KasaRegionalURL   string
	HasKasaRefresh    bool
	TapoAuthenticated bool
	HasTapoRefresh    bool
}

// Status reports the stored authentication state without touching the
// network.
func (s *Session) Status() Status {
	kasa, err := loadTokenState(s.store, domain.ProviderKasa)
	if err != nil || kasa.Token == "" {
		return Status{}
	}
	status := Status{
		Authenticated:   true,
		Username:        kasa.Username,
		KasaRegionalURL: kasa.RegionalURL,
		HasKasaRefresh:  kasa.RefreshToken != "",
	}
	if tapo, err := loadTokenState(s.store, domain.ProviderTapo); err == nil && tapo.Token != "" {
		status.TapoAuthenticated = true
		status.HasTapoRefresh = tapo.RefreshToken != ""
	}
	return status
}

// Logout clears in-memory tokens and drops the persisted blobs for both
// providers. Logging out with nothing stored succeeds.
func (s *Session) Logout() error {
	s.mu.Lock()
	s.tokens = make(map[domain.Provider]*tokenState)
	s.loaded = false
	s.mu.Unlock()

	for _, p := range domain.Providers() {
		if err := s.store.Delete(storeKey(p)); err != nil {
			return &domain.SecretStoreError{Err: err}
		}
	}
	return nil
}
