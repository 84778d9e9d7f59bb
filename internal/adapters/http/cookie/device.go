package cookie

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/ivansugi/enketo-express-oc/pkg/metrics"
)

const (
	// DeviceIDName is the name of the device-id cookie.
	DeviceIDName = "__enketo_meta_deviceid"

	// DeviceIDMaxAge keeps the cookie for ten 365-day years.
	DeviceIDMaxAge = 10 * 365 * 24 * time.Hour

	deviceIDRandomLen = 16
	// The alphabet omits v and V.
	deviceIDAlphabet = "abcdefghijklmnopqrstuwxyzABCDEFGHIJKLMNOPQRSTUWXYZ0123456789"
)

// DeviceID reads and re-issues the signed device-id cookie.
type DeviceID struct {
	signer     *Signer
	secure     bool
	trustProxy bool
	now        func() time.Time
}

// Option applies a configuration option to DeviceID.
type Option func(*DeviceID)

// WithSecure marks issued cookies Secure.
func WithSecure(secure bool) Option {
	return func(d *DeviceID) { d.secure = secure }
}

// WithTrustProxy makes X-Forwarded-Host the source of the hostname.
func WithTrustProxy(trust bool) Option {
	return func(d *DeviceID) { d.trustProxy = trust }
}

// WithClock overrides the time source used for Expires.
func WithClock(now func() time.Time) Option {
	return func(d *DeviceID) {
		if now != nil {
			d.now = now
		}
	}
}

// NewDeviceID creates a DeviceID signing cookies with secret.
func NewDeviceID(secret string, opts ...Option) *DeviceID {
	d := &DeviceID{signer: NewSigner(secret), now: time.Now}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Ensure returns the request's verified device id, or mints
// "<hostname>:<16 random chars>" when there is none. Either way the cookie
// is written again so its expiry slides forward.
func (d *DeviceID) Ensure(w http.ResponseWriter, r *http.Request) (string, error) {
	id, ok := d.Read(r)
	if !ok {
		random, err := randomString(deviceIDRandomLen)
		if err != nil {
			return "", fmt.Errorf("generate device id: %w", err)
		}
		id = Hostname(r, d.trustProxy) + ":" + random
	}
	metrics.RecordDeviceID(!ok)

	http.SetCookie(w, &http.Cookie{
		Name:     DeviceIDName,
		Value:    d.signer.Sign(id),
		Path:     "/",
		MaxAge:   int(DeviceIDMaxAge / time.Second),
		Expires:  d.now().Add(DeviceIDMaxAge).UTC(),
		Secure:   d.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return id, nil
}

// Read returns the verified device id carried by the request.
func (d *DeviceID) Read(r *http.Request) (string, bool) {
	c, err := r.Cookie(DeviceIDName)
	if err != nil {
		return "", false
	}
	return d.signer.Unsign(c.Value)
}

// Hostname returns the request host without its port. With trustProxy the
// first X-Forwarded-Host value takes precedence.
func Hostname(r *http.Request, trustProxy bool) string {
	host := r.Host
	if trustProxy {
		if fwd := r.Header.Get("X-Forwarded-Host"); fwd != "" {
			host = strings.TrimSpace(strings.Split(fwd, ",")[0])
		}
	}
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return host
}

func randomString(n int) (string, error) {
	max := big.NewInt(int64(len(deviceIDAlphabet)))
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = deviceIDAlphabet[idx.Int64()]
	}
	return string(b), nil
}
