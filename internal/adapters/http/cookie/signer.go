// Package cookie issues the signed device-id cookie. Signed values use the
// cookie-parser format "s:<value>.<signature>" so cookies set by earlier
// Node deployments stay valid.
package cookie

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/url"
	"strings"
)

const signedPrefix = "s:"

// Signer signs and verifies cookie values with HMAC-SHA256.
type Signer struct {
	secret []byte
}

// NewSigner creates a Signer for secret.
func NewSigner(secret string) *Signer {
	return &Signer{secret: []byte(secret)}
}

func (s *Signer) mac(value string) string {
	h := hmac.New(sha256.New, s.secret)
	h.Write([]byte(value))
	return base64.RawStdEncoding.EncodeToString(h.Sum(nil))
}

// Sign returns the signed form of value, escaped for use as a cookie value.
func (s *Signer) Sign(value string) string {
	return url.QueryEscape(signedPrefix + value + "." + s.mac(value))
}

// Unsign verifies a raw cookie value produced by Sign and returns the
// original value. Unsigned or tampered values report false.
func (s *Signer) Unsign(raw string) (string, bool) {
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return "", false
	}
	signed, ok := strings.CutPrefix(decoded, signedPrefix)
	if !ok {
		return "", false
	}
	dot := strings.LastIndexByte(signed, '.')
	if dot < 0 {
		return "", false
	}
	value, sig := signed[:dot], signed[dot+1:]
	if !hmac.Equal([]byte(sig), []byte(s.mac(value))) {
		return "", false
	}
	return value, true
}
