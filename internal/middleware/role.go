package middleware // middleware provides shared request processing for handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/school-portal/internal/model"
)

// RequireRole guards a route table so it only serves requests whose resolved
// role (see SetRole) is one of roles.  The gate already picks the table by
// role; this keeps a table from ever serving another role if it is mounted
// elsewhere.  Rejected requests are sent to notFound, matching how an
// unmounted path behaves.
func RequireRole(notFound string, roles ...model.Role) echo.MiddlewareFunc {
	allowed := make(map[model.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !allowed[CurrentRole(c)] {
				return c.Redirect(http.StatusFound, notFound)
			}
			return next(c)
		}
	}
}
