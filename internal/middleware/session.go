package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/school-portal/internal/auth"
	"github.com/iliyamo/school-portal/internal/session"
)

// SessionConfig wires RequireSession.
type SessionConfig struct {
	Store     session.Store
	Verifier  *auth.Verifier
	LoginPath string
	// OnDeny is called before redirecting an unauthenticated request.
	OnDeny func(c echo.Context, st auth.AuthState)
}

// RequireSession gates a protected route subtree behind a fresh server-side
// validation of the stored credential.  The check runs once per request,
// i.e. once per mount of the gate, no matter how many handlers follow.
// Unauthenticated requests get a redirect to the login page and none of the
// protected content.  If the request context ends mid-check nothing is
// written.
func RequireSession(cfg SessionConfig) echo.MiddlewareFunc {
	if cfg.LoginPath == "" {
		cfg.LoginPath = "/login"
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := cfg.Store.Token(c)
			SetToken(c, token)
			st := cfg.Verifier.Verify(c.Request().Context(), token)
			if !st.Settled {
				return nil
			}
			if !st.Authenticated {
				if st.Err != nil {
					c.Logger().Debugf("session rejected path=%s: %v", c.Request().URL.Path, st.Err)
				}
				if cfg.OnDeny != nil {
					cfg.OnDeny(c, st)
				}
				return c.Redirect(http.StatusFound, cfg.LoginPath)
			}
			return next(c)
		}
	}
}
