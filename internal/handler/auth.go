package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/school-portal/internal/backend"
	"github.com/iliyamo/school-portal/internal/model"
	"github.com/iliyamo/school-portal/internal/queue"
	"github.com/iliyamo/school-portal/internal/session"
)

// Authenticator is the slice of the backend the login flow needs.
type Authenticator interface {
	Login(ctx context.Context, cred backend.Credentials) (string, error)
	Logout(ctx context.Context, token string) error
}

// AuthHandler serves the login form and the logout action.  These are the
// only places the stored credential is created or destroyed.
type AuthHandler struct {
	Backend  Authenticator
	Store    session.Store
	Audit    *Auditor
	HomePath string
	validate *validator.Validate
}

func NewAuthHandler(be Authenticator, store session.Store, audit *Auditor) *AuthHandler {
	return &AuthHandler{
		Backend:  be,
		Store:    store,
		Audit:    audit,
		HomePath: "/home",
		validate: validator.New(),
	}
}

// ----- DTOs -----

type loginReq struct {
	Email    string `json:"email" form:"email" validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required"`
}

const (
	msgInvalidInput = "Informe um e-mail e uma senha válidos."
	msgBadCreds     = "E-mail ou senha incorretos."
	msgUnavailable  = "Serviço indisponível. Tente novamente em instantes."
	msgTooMany      = "Muitas tentativas. Aguarde antes de tentar novamente."
)

// LoginForm renders the login page.
func (h *AuthHandler) LoginForm(c echo.Context) error {
	return c.Render(http.StatusOK, "login", page{Title: "Entrar"})
}

// Login validates the form, exchanges the credentials for a token and stores
// it.  Failures re-render the form with an inline error.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return h.loginError(c, http.StatusBadRequest, msgInvalidInput, "")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := h.validate.Struct(req); err != nil {
		return h.loginError(c, http.StatusBadRequest, msgInvalidInput, req.Email)
	}

	token, err := h.Backend.Login(c.Request().Context(), backend.Credentials{Email: req.Email, Password: req.Password})
	if err != nil {
		var se *backend.StatusError
		if errors.As(err, &se) && se.Code >= 400 && se.Code < 500 {
			h.Audit.Record(c, queue.EventLoginFailed, model.RoleNone, "", "rejected")
			return h.loginError(c, http.StatusUnauthorized, msgBadCreds, req.Email)
		}
		c.Logger().Errorf("login: %v", err)
		h.Audit.Record(c, queue.EventLoginFailed, model.RoleNone, "", "backend unavailable")
		return h.loginError(c, http.StatusBadGateway, msgUnavailable, req.Email)
	}
	if err := h.Store.Save(c, token); err != nil {
		return err
	}
	h.Audit.Record(c, queue.EventLogin, model.RoleNone, token, "")
	return c.Redirect(http.StatusSeeOther, h.HomePath)
}

// TooManyAttempts renders the login form for a rate-limited submission.
func (h *AuthHandler) TooManyAttempts(c echo.Context, _ int) error {
	return h.loginError(c, http.StatusTooManyRequests, msgTooMany, "")
}

// Logout revokes the token on the backend, clears it locally and sends the
// user to the login page.  If the backend refuses, the error is logged and
// the user stays logged in.
func (h *AuthHandler) Logout(c echo.Context) error {
	token := h.Store.Token(c)
	if err := h.Backend.Logout(c.Request().Context(), token); err != nil && !errors.Is(err, backend.ErrNoToken) {
		c.Logger().Errorf("logout: %v", err)
		return c.Redirect(http.StatusSeeOther, h.HomePath)
	}
	if err := h.Store.Clear(c); err != nil {
		return err
	}
	h.Audit.Record(c, queue.EventLogout, model.RoleNone, token, "")
	return c.Redirect(http.StatusSeeOther, "/login")
}

func (h *AuthHandler) loginError(c echo.Context, code int, msg, email string) error {
	return c.Render(code, "login", page{Title: "Entrar", Error: msg, Email: email})
}
