package tplink

import (
	"crypto/hmac"
	"crypto/md5"
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

// The app signs every request with this fixed timestamp; the server only
// checks that both sides use the same value, not wall-clock time.
const signingTimestamp = "9999999999"

// SigningHeaders carries the two headers a signed request needs.
type SigningHeaders struct {
	ContentMD5     string
	XAuthorization string
}

// NewNonce is the default per-request nonce source.
func NewNonce() string {
	return uuid.NewString()
}

// Sign computes the request signature for a body posted to urlPath.
// The nonce is caller-supplied so tests can pin it; production callers
// pass a fresh NewNonce() per request.
func Sign(cfg CloudConfig, urlPath string, body []byte, nonce string) SigningHeaders {
	sum := md5.Sum(body)
	contentMD5 := base64.StdEncoding.EncodeToString(sum[:])

	msg := contentMD5 + "\n" + signingTimestamp + "\n" + nonce + "\n" + urlPath
	mac := hmac.New(sha1.New, []byte(cfg.SecretKey))
	mac.Write([]byte(msg))
	signature := hex.EncodeToString(mac.Sum(nil))

	return SigningHeaders{
		ContentMD5: contentMD5,
		XAuthorization: fmt.Sprintf("Timestamp=%s, Nonce=%s, AccessKey=%s, Signature=%s",
			signingTimestamp, nonce, cfg.AccessKey, signature),
	}
}
