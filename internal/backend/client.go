// Package backend is the HTTP client for the remote school REST API.  Every
// call takes a context so a caller that goes away (client disconnect, request
// timeout) cancels the round trip instead of applying a stale result.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrNoToken is returned by authenticated calls made without a credential.
var ErrNoToken = errors.New("backend: missing token")

// StatusError is returned when the backend answers with a non-2xx status.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("backend: %s %s: %d %s", e.Method, e.Path, e.Code, http.StatusText(e.Code))
	}
	return fmt.Sprintf("backend: %s %s: %d: %s", e.Method, e.Path, e.Code, e.Body)
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == code
}

// Client talks to the auth and data endpoints.  Auth and data may live on
// different hosts; both are plain base URLs without a trailing slash.
type Client struct {
	http     *http.Client
	authBase string
	dataBase string
}

// New builds a Client.  A non-positive timeout defaults to ten seconds.
func New(authBase, dataBase string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		http:     &http.Client{Timeout: timeout},
		authBase: strings.TrimRight(authBase, "/"),
		dataBase: strings.TrimRight(dataBase, "/"),
	}
}

type tokenBody struct {
	Token string `json:"token"`
}

type permissionResp struct {
	Permissao string `json:"permissao"`
}

// Credentials is the login request body.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// VerifyToken asks the backend whether token is still accepted.  A nil error
// means the session is valid.
func (c *Client) VerifyToken(ctx context.Context, token string) error {
	if token == "" {
		return ErrNoToken
	}
	resp, err := c.do(ctx, http.MethodPost, c.authBase, "/verify-token", token, tokenBody{Token: token})
	if err != nil {
		return err
	}
	drainAndClose(resp.Body)
	return nil
}

// UserPermission returns the raw permission string the backend assigns to
// token.  Mapping it onto a role is left to the caller.
func (c *Client) UserPermission(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrNoToken
	}
	resp, err := c.do(ctx, http.MethodPost, c.authBase, "/user-permission", token, tokenBody{Token: token})
	if err != nil {
		return "", err
	}
	defer drainAndClose(resp.Body)
	var out permissionResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode user-permission: %w", err)
	}
	return out.Permissao, nil
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, cred Credentials) (string, error) {
	resp, err := c.do(ctx, http.MethodPost, c.authBase, "/login", "", cred)
	if err != nil {
		return "", err
	}
	defer drainAndClose(resp.Body)
	var out tokenBody
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode login: %w", err)
	}
	if out.Token == "" {
		return "", errors.New("decode login: empty token")
	}
	return out.Token, nil
}

// Logout invalidates token on the backend.
func (c *Client) Logout(ctx context.Context, token string) error {
	if token == "" {
		return ErrNoToken
	}
	resp, err := c.do(ctx, http.MethodPost, c.authBase, "/logout", token, tokenBody{Token: token})
	if err != nil {
		return err
	}
	drainAndClose(resp.Body)
	return nil
}

// Fetch GETs a data endpoint and decodes the JSON body into an untyped value
// (object, array or scalar).
func (c *Client) Fetch(ctx context.Context, token, path string) (any, error) {
	resp, err := c.do(ctx, http.MethodGet, c.dataBase, path, token, nil)
	if err != nil {
		return nil, err
	}
	defer drainAndClose(resp.Body)
	var out any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return out, nil
}

// do sends one request and returns the response only for 2xx statuses; the
// caller owns the body.  Other statuses become a *StatusError.
func (c *Client) do(ctx context.Context, method, base, path, token string, body any) (*http.Response, error) {
	var rdr io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		rdr = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, base+path, rdr)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer drainAndClose(resp.Body)
		return nil, &StatusError{Method: method, Path: path, Code: resp.StatusCode, Body: readErrorBody(resp)}
	}
	return resp, nil
}

func drainAndClose(r io.ReadCloser) {
	_, _ = io.Copy(io.Discard, r)
	r.Close()
}

func readErrorBody(resp *http.Response) string {
	b, err := io.ReadAll(io.LimitReader(resp.Body, 512))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}
