package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind is the stable classification consumed by callers (the CLI
// maps kinds to exit codes and structured error output).
type ErrorKind string

const (
	KindAuth             ErrorKind = "auth"
	KindMFARequired      ErrorKind = "mfa_required"
	KindTokenExpired     ErrorKind = "token_expired"
	KindNotAuthenticated ErrorKind = "not_authenticated"
	KindDeviceNotFound   ErrorKind = "device_not_found"
	KindAmbiguousDevice  ErrorKind = "ambiguous_device"
	KindDeviceOffline    ErrorKind = "device_offline"
	KindUnsupported      ErrorKind = "unsupported_operation"
	KindTransport        ErrorKind = "transport"
	KindProtocol         ErrorKind = "protocol"
	KindAPI              ErrorKind = "api"
	KindInvalidInput     ErrorKind = "invalid_input"
	KindSecretStore      ErrorKind = "secret_store"
	KindUnknown          ErrorKind = "unknown"
)

// AuthError covers login failure and exhausted refresh.
type AuthError struct {
	Message string
	Code    int
}

func (e *AuthError) Error() string {
	if e == nil {
		return "authentication failed"
	}
	return fmt.Sprintf("authentication failed: %s", e.Message)
}

// MFARequiredError signals the provider wants a verification code before
// completing login.
type MFARequiredError struct {
	Provider Provider
	MFAType  string
	Email    string
}

func (e *MFARequiredError) Error() string {
	if e == nil {
		return "mfa verification required"
	}
	return fmt.Sprintf("%s: mfa verification required for %s", e.Provider, e.Email)
}

// TokenExpiredError is the provider's token-expired report. The session
// layer consumes it to drive the single refresh-and-retry cycle.
type TokenExpiredError struct {
	Provider Provider
	Code     int
}

func (e *TokenExpiredError) Error() string {
	if e == nil {
		return "auth token expired"
	}
	return fmt.Sprintf("%s: auth token expired (code %d)", e.Provider, e.Code)
}

// NotAuthenticatedError means no usable token exists in memory or the
// secret store.
type NotAuthenticatedError struct{}

func (e *NotAuthenticatedError) Error() string {
	return "not authenticated, run 'tplc login' first"
}

// NotFoundError means a device query matched nothing.
type NotFoundError struct {
	Query string
}

func (e *NotFoundError) Error() string {
	if e == nil {
		return "device not found"
	}
	return fmt.Sprintf("device not found: %q", e.Query)
}

// AmbiguousError means a substring query matched more than one device.
type AmbiguousError struct {
	Query   string
	Matches []string
}

func (e *AmbiguousError) Error() string {
	if e == nil {
		return "ambiguous device query"
	}
	return fmt.Sprintf("multiple devices match %q: %s", e.Query, strings.Join(e.Matches, ", "))
}

// OfflineError is a device-reported offline condition.
type OfflineError struct {
	Device string
	Code   int
}

func (e *OfflineError) Error() string {
	if e == nil {
		return "device offline"
	}
	return fmt.Sprintf("device offline: %s", e.Device)
}

// UnsupportedError is a static capability mismatch, raised before any
// network call is made.
type UnsupportedError struct {
	Operation string
	Type      DeviceType
}

func (e *UnsupportedError) Error() string {
	if e == nil {
		return "unsupported operation"
	}
	return fmt.Sprintf("%s does not support %s", e.Type.DisplayName(), e.Operation)
}

// TransportError wraps network and timeout failures.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	if e == nil || e.Err == nil {
		return "transport error"
	}
	return fmt.Sprintf("transport error: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ProtocolError marks a malformed response, including a passthrough
// payload that does not survive the second decode. Never retried.
type ProtocolError struct {
	Message string
	Err     error
}

func (e *ProtocolError) Error() string {
	if e == nil {
		return "protocol error"
	}
	if e.Err != nil {
		return fmt.Sprintf("protocol error: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("protocol error: %s", e.Message)
}

func (e *ProtocolError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// APIError is a cloud- or device-reported error code that has no more
// specific mapping.
type APIError struct {
	Message string
	Code    int
}

func (e *APIError) Error() string {
	if e == nil {
		return "api error"
	}
	if e.Code != 0 {
		return fmt.Sprintf("api error %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("api error: %s", e.Message)
}

// InvalidInputError rejects malformed user input before any call is made.
type InvalidInputError struct {
	Message string
}

func (e *InvalidInputError) Error() string {
	if e == nil {
		return "invalid input"
	}
	return e.Message
}

// SecretStoreError wraps failures of the token persistence backend.
type SecretStoreError struct {
	Err error
}

func (e *SecretStoreError) Error() string {
	if e == nil || e.Err == nil {
		return "secret store error"
	}
	return fmt.Sprintf("secret store error: %v", e.Err)
}

func (e *SecretStoreError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Kind classifies any error into the stable taxonomy.
func Kind(err error) ErrorKind {
	switch {
	case err == nil:
		return KindUnknown
	case is[*AuthError](err):
		return KindAuth
	case is[*MFARequiredError](err):
		return KindMFARequired
	case is[*TokenExpiredError](err):
		return KindTokenExpired
	case is[*NotAuthenticatedError](err):
		return KindNotAuthenticated
	case is[*NotFoundError](err):
		return KindDeviceNotFound
	case is[*AmbiguousError](err):
		return KindAmbiguousDevice
	case is[*OfflineError](err):
		return KindDeviceOffline
	case is[*UnsupportedError](err):
		return KindUnsupported
	case is[*TransportError](err):
		return KindTransport
	case is[*ProtocolError](err):
		return KindProtocol
	case is[*APIError](err):
		return KindAPI
	case is[*InvalidInputError](err):
		return KindInvalidInput
	case is[*SecretStoreError](err):
		return KindSecretStore
	default:
		return KindUnknown
	}
}

// ErrorCode extracts the vendor error code when one is attached.
func ErrorCode(err error) (int, bool) {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr.Code, authErr.Code != 0
	}
	var tokErr *TokenExpiredError
	if errors.As(err, &tokErr) {
		return tokErr.Code, tokErr.Code != 0
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code, apiErr.Code != 0
	}
	var offErr *OfflineError
	if errors.As(err, &offErr) {
		return offErr.Code, offErr.Code != 0
	}
	return 0, false
}

func is[T error](err error) bool {
	var target T
	return errors.As(err, &target)
}
