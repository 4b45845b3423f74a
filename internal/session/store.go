// Package session owns the bearer credential.  It is the only code that reads
// or writes the token; the gates receive a Store and never touch cookies
// directly, so tests can swap in an in-memory store.
package session

import (
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/school-portal/internal/utils"
)

// Store persists the bearer token for the current browser session.
type Store interface {
	// Token returns the stored token or "" when none exists.
	Token(c echo.Context) string
	// Save persists a token issued by the login flow.
	Save(c echo.Context, token string) error
	// Clear removes the token (logout).
	Clear(c echo.Context) error
}

// CookieStore keeps the token in a root-scoped HttpOnly cookie.
type CookieStore struct {
	Name   string
	Secure bool
	// MaxAge is used when the token carries no exp claim.  Zero makes the
	// cookie a browser-session cookie.
	MaxAge time.Duration
}

// NewCookieStore returns a CookieStore for the given cookie name.
func NewCookieStore(name string, secure bool) *CookieStore {
	if name == "" {
		name = "token"
	}
	return &CookieStore{Name: name, Secure: secure}
}

func (s *CookieStore) Token(c echo.Context) string {
	ck, err := c.Cookie(s.Name)
	if err != nil {
		return ""
	}
	return ck.Value
}

func (s *CookieStore) Save(c echo.Context, token string) error {
	ck := s.base()
	ck.Value = token
	if exp, ok := utils.TokenExpiry(token); ok {
		ck.Expires = exp
	} else if s.MaxAge > 0 {
		ck.MaxAge = int(s.MaxAge / time.Second)
	}
	c.SetCookie(ck)
	return nil
}

func (s *CookieStore) Clear(c echo.Context) error {
	ck := s.base()
	ck.MaxAge = -1
	ck.Expires = time.Unix(0, 0)
	c.SetCookie(ck)
	return nil
}

func (s *CookieStore) base() *http.Cookie {
	return &http.Cookie{
		Name:     s.Name,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// MemoryStore is a Store that ignores the request and holds a single token,
// like a browser with one cookie jar.  It is safe for concurrent use.
type MemoryStore struct {
	mu    sync.Mutex
	token string
}

// NewMemoryStore returns a MemoryStore pre-populated with token.
func NewMemoryStore(token string) *MemoryStore { return &MemoryStore{token: token} }

func (m *MemoryStore) Token(echo.Context) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

func (m *MemoryStore) Save(_ echo.Context, token string) error {
	m.mu.Lock()
	m.token = token
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Clear(echo.Context) error { return m.Save(nil, "") }
