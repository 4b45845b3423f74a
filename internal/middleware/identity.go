package middleware

// identity.go holds the context keys the gate uses to hand per-request auth
// results down the chain.  Values live only for the current request.

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/school-portal/internal/model"
	"github.com/iliyamo/school-portal/internal/utils"
)

const (
	ctxRole  = "role"
	ctxToken = "token_fp"
)

// SetRole records the role resolved for this request.
func SetRole(c echo.Context, r model.Role) { c.Set(ctxRole, r) }

// CurrentRole returns the role resolved for this request, or RoleNone when
// the gate has not run.
func CurrentRole(c echo.Context) model.Role {
	if r, ok := c.Get(ctxRole).(model.Role); ok {
		return r
	}
	return model.RoleNone
}

// SetToken records a fingerprint of the request's credential.  The raw
// token is never placed on the context.
func SetToken(c echo.Context, raw string) { c.Set(ctxToken, utils.Fingerprint(raw)) }

// clientID identifies the caller for rate-limit keys: the token fingerprint
// when a credential was seen, "anon" otherwise.
func clientID(c echo.Context) string {
	if s, ok := c.Get(ctxToken).(string); ok && s != "" {
		return s
	}
	return "anon"
}

type roleKey struct{}

// WithRole attaches the resolved role to the request so a route table
// served by a separate router can pick it up with LoadRole.
func WithRole(r *http.Request, role model.Role) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), roleKey{}, role))
}

// LoadRole copies the role attached by WithRole onto the echo context.
func LoadRole(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if r, ok := c.Request().Context().Value(roleKey{}).(model.Role); ok {
			SetRole(c, r)
		}
		return next(c)
	}
}
