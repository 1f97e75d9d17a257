// Package cookie provides domain-scoped cookie helpers.
// Every cookie the API sets goes through this package so the domain,
// path and security flags stay consistent.
package cookie

import (
	"net/http"
	"time"
)

// SessionCookieName is the single slot that holds the visitor's session.
const SessionCookieName = "pinfill_session"

// Config holds cookie configuration for domain-aware cookie operations.
type Config struct {
	// Domain scopes cookies (e.g. "shop.example.in"). Empty means host-only.
	Domain string

	// Secure determines whether cookies require HTTPS.
	// Should be true in production, false in development.
	Secure bool
}

// NewConfig creates a new cookie configuration.
//
//	cfg := cookie.NewConfig("shop.example.in", true) // production
//	cfg := cookie.NewConfig("", false)               // development
func NewConfig(domain string, secure bool) *Config {
	return &Config{Domain: domain, Secure: secure}
}

func (c *Config) base(name, value string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Domain:   c.Domain,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// Set writes a cookie that lives for maxAge seconds.
func (c *Config) Set(w http.ResponseWriter, name, value string, maxAge int) {
	ck := c.base(name, value)
	ck.MaxAge = maxAge
	http.SetCookie(w, ck)
}

// SetWithExpiry writes a cookie that expires at a fixed time.
func (c *Config) SetWithExpiry(w http.ResponseWriter, name, value string, expires time.Time) {
	ck := c.base(name, value)
	ck.Expires = expires
	http.SetCookie(w, ck)
}

// Clear removes a cookie. The domain must match the one it was set with.
func (c *Config) Clear(w http.ResponseWriter, name string) {
	ck := c.base(name, "")
	ck.MaxAge = -1
	ck.Expires = time.Unix(0, 0)
	http.SetCookie(w, ck)
}

// Get retrieves a cookie value from the request.
// Returns empty string if cookie not found.
func Get(r *http.Request, name string) string {
	ck, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return ck.Value
}
