package session

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/pinfill/internal/cookie"
	"github.com/gorilla/securecookie"
)

// DefaultMaxAge is how long a saved session cookie lives.
const DefaultMaxAge = 30 * 24 * time.Hour

// CookieStore keeps the session in one signed, timestamped cookie.
type CookieStore struct {
	codec   *securecookie.SecureCookie
	cookies *cookie.Config
	maxAge  time.Duration
	logger  *slog.Logger
}

// NewCookieStore creates a store. secret must not be empty.
func NewCookieStore(secret string, cookies *cookie.Config, logger *slog.Logger) (*CookieStore, error) {
	if secret == "" {
		return nil, errors.New("session: secret is required")
	}
	if cookies == nil {
		cookies = cookie.NewConfig("", false)
	}
	if logger == nil {
		logger = slog.Default()
	}

	codec := securecookie.New([]byte(secret), nil).
		SetSerializer(securecookie.JSONEncoder{}).
		MaxAge(int(DefaultMaxAge / time.Second))

	return &CookieStore{
		codec:   codec,
		cookies: cookies,
		maxAge:  DefaultMaxAge,
		logger:  logger,
	}, nil
}

// Load returns the session in the request cookie, or Anonymous.
func (s *CookieStore) Load(r *http.Request) Session {
	raw := cookie.Get(r, cookie.SessionCookieName)
	if raw == "" {
		return Anonymous()
	}

	var sess Session
	if err := s.codec.Decode(cookie.SessionCookieName, raw, &sess); err != nil {
		s.logger.Debug("ignoring session cookie", slog.Any("error", err))
		return Anonymous()
	}
	sess, err := New(sess.Kind, sess.Principal)
	if err != nil {
		s.logger.Debug("ignoring session cookie", slog.Any("error", err))
		return Anonymous()
	}
	return sess
}

// Save overwrites the slot with sess. Saving an anonymous session clears it.
func (s *CookieStore) Save(w http.ResponseWriter, sess Session) error {
	if sess.IsAnonymous() {
		s.Clear(w)
		return nil
	}
	if _, err := New(sess.Kind, sess.Principal); err != nil {
		return err
	}
	value, err := s.codec.Encode(cookie.SessionCookieName, sess)
	if err != nil {
		return err
	}
	s.cookies.Set(w, cookie.SessionCookieName, value, int(s.maxAge/time.Second))
	return nil
}

// Clear removes the session cookie.
func (s *CookieStore) Clear(w http.ResponseWriter) {
	s.cookies.Clear(w, cookie.SessionCookieName)
}

// MemoryStore is a Store for tests. It ignores the request and response.
type MemoryStore struct {
	Current Session
}

func (m *MemoryStore) Load(*http.Request) Session {
	if m.Current.Kind == "" {
		return Anonymous()
	}
	return m.Current
}

func (m *MemoryStore) Save(_ http.ResponseWriter, s Session) error {
	m.Current = s
	return nil
}

func (m *MemoryStore) Clear(http.ResponseWriter) {
	m.Current = Anonymous()
}
