package router

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/school-portal/internal/auth"
	"github.com/iliyamo/school-portal/internal/handler"
	"github.com/iliyamo/school-portal/internal/middleware"
	"github.com/iliyamo/school-portal/internal/model"
	"github.com/iliyamo/school-portal/internal/queue"
	"github.com/iliyamo/school-portal/internal/session"
)

const (
	loginPath    = "/login"
	homePath     = "/home"
	notFoundPath = "/404"
)

// Gate picks the route table for a request.  Each role's table is its own
// echo router, so a request can only ever reach paths of the table its role
// mounted.  Requests without a role go to a guest router that knows every
// protected path only to decide between /login and /404.
type Gate struct {
	store    session.Store
	resolver *auth.Resolver
	tables   map[model.Role]*echo.Echo
}

func newGate(parent *echo.Echo, d Deps) *Gate {
	g := &Gate{store: d.Store, resolver: d.Resolver, tables: map[model.Role]*echo.Echo{}}
	requireSession := middleware.RequireSession(middleware.SessionConfig{
		Store:     d.Store,
		Verifier:  d.Verifier,
		LoginPath: loginPath,
		OnDeny: func(c echo.Context, st auth.AuthState) {
			reason := "missing token"
			if st.Err != nil {
				reason = "rejected"
			}
			d.Audit.Record(c, queue.EventDenied, middleware.CurrentRole(c), d.Store.Token(c), reason)
		},
	})

	for _, role := range model.Roles {
		sub := newSubRouter(parent)
		roleGuard := middleware.RequireRole(notFoundPath, role)
		for _, r := range Table[role] {
			sub.GET(r.Path, d.Views.Serve(r.View), roleGuard, requireSession)
		}
		g.tables[role] = sub
	}

	// No role: a protected path still needs a session check so that a
	// visitor without a valid credential is sent to log in, while a valid
	// session that simply has no role lands on 404.
	guest := newSubRouter(parent)
	for _, p := range protectedPaths() {
		guest.GET(p, redirect(notFoundPath), requireSession)
	}
	g.tables[model.RoleNone] = guest
	return g
}

// newSubRouter builds a router that shares the parent's renderer and logger
// and sends every unmatched path to /404 without a session check.
func newSubRouter(parent *echo.Echo) *echo.Echo {
	sub := echo.New()
	sub.HideBanner = true
	sub.Renderer = parent.Renderer
	sub.Logger = parent.Logger
	sub.HTTPErrorHandler = parent.HTTPErrorHandler
	sub.Use(middleware.LoadRole)
	sub.RouteNotFound("/*", redirect(notFoundPath))
	return sub
}

// resolve runs the permission resolver for this request, once.
func (g *Gate) resolve(c echo.Context) auth.PermissionState {
	st := g.resolver.Resolve(c.Request().Context(), g.store.Token(c))
	if st.Err != nil {
		c.Logger().Debugf("permission resolved to none: %v", st.Err)
	}
	return st
}

// Root sends "/" to /login without a role and to /home with one.
func (g *Gate) Root(c echo.Context) error {
	st := g.resolve(c)
	if st.Resolving {
		return handler.Blank(c)
	}
	if st.Role == model.RoleNone {
		return c.Redirect(http.StatusFound, loginPath)
	}
	return c.Redirect(http.StatusFound, homePath)
}

// Dispatch is the catch-all: it resolves the role and hands the request to
// the matching route table.  Nothing is rendered while resolution is pending.
func (g *Gate) Dispatch(c echo.Context) error {
	st := g.resolve(c)
	if st.Resolving {
		return handler.Blank(c)
	}
	table, ok := g.tables[st.Role]
	if !ok {
		return c.Redirect(http.StatusFound, notFoundPath)
	}
	middleware.SetRole(c, st.Role)
	table.ServeHTTP(c.Response(), middleware.WithRole(c.Request(), st.Role))
	return nil
}

// navigation lists the links of the request's own table.
func navigation(c echo.Context) []handler.NavLink {
	return navFor(middleware.CurrentRole(c))
}

func redirect(to string) echo.HandlerFunc {
	return func(c echo.Context) error { return c.Redirect(http.StatusFound, to) }
}
