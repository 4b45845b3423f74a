package router // package router defines how portal routes are registered

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/school-portal/internal/auth"
	"github.com/iliyamo/school-portal/internal/handler"
	"github.com/iliyamo/school-portal/internal/session"
)

// Deps bundles everything the route registration needs.
type Deps struct {
	Store    session.Store
	Resolver *auth.Resolver
	Verifier *auth.Verifier
	Auth     *handler.AuthHandler
	Views    *handler.ViewHandler
	Audit    *handler.Auditor
	// LoginLimit guards login submissions; nil disables it.
	LoginLimit echo.MiddlewareFunc
}

// RegisterRoutes mounts the always-available routes on e and installs the
// gate as the catch-all.  /login, /logout, /404 and /healthz are never
// behind the session check; every role route is.
func RegisterRoutes(e *echo.Echo, d Deps) *Gate {
	if d.Views.Nav == nil {
		d.Views.Nav = navigation
	}
	gate := newGate(e, d)

	e.GET("/healthz", handler.Health)
	e.GET("/", gate.Root)

	var loginMW []echo.MiddlewareFunc
	if d.LoginLimit != nil {
		loginMW = append(loginMW, d.LoginLimit)
	}
	e.GET(loginPath, d.Auth.LoginForm)
	e.POST(loginPath, d.Auth.Login, loginMW...)
	e.POST("/logout", d.Auth.Logout)
	e.GET(notFoundPath, handler.NotFound)

	e.Any("/*", gate.Dispatch)
	return gate
}
