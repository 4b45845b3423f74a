package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/school-portal/internal/auth"
	"github.com/iliyamo/school-portal/internal/backend"
	"github.com/iliyamo/school-portal/internal/handler"
	"github.com/iliyamo/school-portal/internal/model"
	"github.com/iliyamo/school-portal/internal/queue"
	"github.com/iliyamo/school-portal/internal/session"
)

// fakeAPI is the remote school API as seen by the portal.
type fakeAPI struct {
	perm       string
	permCode   int
	verifyCode int

	mu    sync.Mutex
	calls map[string]int
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.calls[r.URL.Path]++
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case "/user-permission":
		w.WriteHeader(f.permCode)
		if f.permCode == http.StatusOK {
			_, _ = w.Write([]byte(`{"permissao":"` + f.perm + `"}`))
		}
	case "/verify-token":
		w.WriteHeader(f.verifyCode)
	default:
		_, _ = w.Write([]byte(`[{"titulo":"` + strings.TrimPrefix(r.URL.Path, "/") + `"}]`))
	}
}

func (f *fakeAPI) count(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[path]
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.AccessEvent
}

func (p *recordingPublisher) Publish(_ context.Context, ev queue.AccessEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

type portal struct {
	e   *echo.Echo
	api *fakeAPI
	pub *recordingPublisher
}

func setup(t *testing.T, token string, api *fakeAPI) *portal {
	t.Helper()
	api.calls = map[string]int{}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	client := backend.New(srv.URL, srv.URL, time.Second)
	store := session.NewMemoryStore(token)
	pub := &recordingPublisher{}
	audit := handler.NewAuditor(pub)

	e := echo.New()
	e.Renderer = handler.NewRenderer()
	RegisterRoutes(e, Deps{
		Store:    store,
		Resolver: auth.NewResolver(client),
		Verifier: auth.NewVerifier(client),
		Auth:     handler.NewAuthHandler(client, store, audit),
		Views:    &handler.ViewHandler{Data: client, Store: store},
		Audit:    audit,
	})
	return &portal{e: e, api: api, pub: pub}
}

func (p *portal) get(path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	p.e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func loggedIn(role model.Role) *fakeAPI {
	return &fakeAPI{perm: string(role), permCode: http.StatusOK, verifyCode: http.StatusOK}
}

func TestMissingCredentialRedirectsToLoginWithoutCalls(t *testing.T) {
	p := setup(t, "", &fakeAPI{permCode: http.StatusOK, verifyCode: http.StatusOK})

	for _, path := range protectedPaths() {
		path = strings.Replace(path, ":id", "3", 1)
		rec := p.get(path)
		assert.Equal(t, http.StatusFound, rec.Code, path)
		assert.Equal(t, "/login", rec.Header().Get(echo.HeaderLocation), path)
		assert.Empty(t, rec.Body.String(), path)
	}
	assert.Zero(t, p.api.count("/user-permission"))
	assert.Zero(t, p.api.count("/verify-token"))
	assert.Eventually(t, func() bool { return p.pub.len() == len(protectedPaths()) }, time.Second, 5*time.Millisecond)
}

func TestMonitoramentoWithoutCredential(t *testing.T) {
	p := setup(t, "", loggedIn(model.RoleGestao))

	rec := p.get("/monitoramento")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get(echo.HeaderLocation))
	assert.Zero(t, p.api.count("/user-permission"))
	assert.Zero(t, p.api.count("/verify-token"))
	assert.Zero(t, p.api.count("/turmas"))
}

func TestRejectedCredentialRedirectsToLogin(t *testing.T) {
	for _, code := range []int{http.StatusUnauthorized, http.StatusForbidden, http.StatusInternalServerError} {
		t.Run(http.StatusText(code), func(t *testing.T) {
			api := loggedIn(model.RoleAluno)
			api.verifyCode = code
			p := setup(t, "expired", api)

			rec := p.get("/notas")
			assert.Equal(t, http.StatusFound, rec.Code)
			assert.Equal(t, "/login", rec.Header().Get(echo.HeaderLocation))
			assert.NotContains(t, rec.Body.String(), "notas")
			assert.Equal(t, 1, api.count("/verify-token"))
			assert.Zero(t, api.count("/notas"), "no data fetched for a rejected session")
		})
	}
}

func TestAcceptedCredentialRendersView(t *testing.T) {
	p := setup(t, "good", loggedIn(model.RoleAluno))

	rec := p.get("/notas")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get(echo.HeaderLocation))
	assert.Contains(t, rec.Body.String(), "Minhas notas")
	assert.Contains(t, rec.Body.String(), "<td>notas</td>")
	assert.Equal(t, 1, p.api.count("/user-permission"), "role resolved once per request")
	assert.Equal(t, 1, p.api.count("/verify-token"), "session verified once per request")
}

func TestEachRoleMountsExactlyItsTable(t *testing.T) {
	for _, role := range model.Roles {
		t.Run(role.String(), func(t *testing.T) {
			p := setup(t, "good", loggedIn(role))
			own := map[string]bool{}
			for _, path := range PathsFor(role) {
				own[path] = true
			}
			for _, path := range protectedPaths() {
				rec := p.get(strings.Replace(path, ":id", "9", 1))
				if own[path] {
					assert.Equal(t, http.StatusOK, rec.Code, path)
				} else {
					assert.Equal(t, http.StatusFound, rec.Code, path)
					assert.Equal(t, "/404", rec.Header().Get(echo.HeaderLocation), path)
				}
			}
		})
	}
}

func TestTablesAreDisjointExceptSharedPaths(t *testing.T) {
	seen := map[string][]model.Role{}
	for _, role := range model.Roles {
		for _, p := range PathsFor(role) {
			seen[p] = append(seen[p], role)
		}
	}
	assert.Len(t, seen["/home"], 3)
	assert.ElementsMatch(t, []string{"/home", "/grade", "/notas"}, PathsFor(model.RoleAluno))
	assert.ElementsMatch(t, []string{"/home", "/conteudo", "/usuarios", "/monitoramento", "/monitoramento/notas/:id"}, PathsFor(model.RoleGestao))
	assert.ElementsMatch(t, []string{"/home", "/conteudo", "/monitoramento/notas/:id"}, PathsFor(model.RoleProfessor))
	assert.Empty(t, PathsFor(model.RoleNone))

	var aluno []string
	for p, roles := range seen {
		for _, r := range roles {
			if r == model.RoleAluno && p != "/home" {
				aluno = append(aluno, p)
				assert.Len(t, roles, 1, p)
			}
		}
	}
	sort.Strings(aluno)
	assert.Equal(t, []string{"/grade", "/notas"}, aluno)
}

func TestHomeIsPolymorphicByRole(t *testing.T) {
	titles := map[model.Role]string{}
	for _, role := range model.Roles {
		p := setup(t, "good", loggedIn(role))
		rec := p.get("/home")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `<span class="role">`+string(role)+`</span>`)
		titles[role] = rec.Body.String()
	}
	assert.Contains(t, titles[model.RoleAluno], `href="/grade"`)
	assert.NotContains(t, titles[model.RoleProfessor], `href="/usuarios"`)
	assert.Contains(t, titles[model.RoleGestao], `href="/usuarios"`)
}

func TestPendingResolutionRendersBlank(t *testing.T) {
	api := loggedIn(model.RoleGestao)
	api.calls = map[string]int{}
	srv := httptest.NewServer(api)
	defer srv.Close()
	client := backend.New(srv.URL, srv.URL, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	// The request goes away while the permission lookup is in flight.
	resolver := auth.NewResolver(permissionFunc(func(ctx context.Context, token string) (string, error) {
		cancel()
		return client.UserPermission(ctx, token)
	}))
	store := session.NewMemoryStore("good")
	e := echo.New()
	e.Renderer = handler.NewRenderer()
	RegisterRoutes(e, Deps{
		Store:    store,
		Resolver: resolver,
		Verifier: auth.NewVerifier(client),
		Auth:     handler.NewAuthHandler(client, store, nil),
		Views:    &handler.ViewHandler{Data: client, Store: store},
	})

	for _, path := range []string{"/usuarios", "/"} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, path, nil).WithContext(ctx)
		e.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code, path)
		assert.Empty(t, rec.Body.String(), path)
		assert.Empty(t, rec.Header().Get(echo.HeaderLocation), path)
	}
	assert.Zero(t, api.count("/verify-token"))
}

type permissionFunc func(ctx context.Context, token string) (string, error)

func (f permissionFunc) UserPermission(ctx context.Context, token string) (string, error) {
	return f(ctx, token)
}

func TestRootRedirect(t *testing.T) {
	tests := []struct {
		name    string
		token   string
		api     *fakeAPI
		wantLoc string
	}{
		{name: "no credential", token: "", api: loggedIn(model.RoleAluno), wantLoc: "/login"},
		{name: "permission denied", token: "t", api: &fakeAPI{permCode: http.StatusForbidden, verifyCode: http.StatusOK}, wantLoc: "/login"},
		{name: "unknown role", token: "t", api: &fakeAPI{perm: "DIRETOR", permCode: http.StatusOK, verifyCode: http.StatusOK}, wantLoc: "/login"},
		{name: "aluno", token: "t", api: loggedIn(model.RoleAluno), wantLoc: "/home"},
		{name: "professor", token: "t", api: loggedIn(model.RoleProfessor), wantLoc: "/home"},
		{name: "gestao", token: "t", api: loggedIn(model.RoleGestao), wantLoc: "/home"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := setup(t, tt.token, tt.api).get("/")
			assert.Equal(t, http.StatusFound, rec.Code)
			assert.Equal(t, tt.wantLoc, rec.Header().Get(echo.HeaderLocation))
		})
	}
}

func TestProfessorScenario(t *testing.T) {
	p := setup(t, "prof-token", loggedIn(model.RoleProfessor))

	rec := p.get("/conteudo")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Meus conteúdos")
	assert.Contains(t, rec.Body.String(), "<td>conteudos</td>")

	rec = p.get("/usuarios")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/404", rec.Header().Get(echo.HeaderLocation))
	assert.Zero(t, p.api.count("/usuarios"))

	rec = p.get("/monitoramento/notas/12")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, p.api.count("/turmas/12/notas"))
}

func TestNullRoleWithValidSessionGoesTo404(t *testing.T) {
	api := &fakeAPI{permCode: http.StatusNotFound, verifyCode: http.StatusOK}
	p := setup(t, "valid-but-roleless", api)

	rec := p.get("/notas")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/404", rec.Header().Get(echo.HeaderLocation))
	assert.Equal(t, 1, api.count("/verify-token"))
}

func TestUnknownPathsGoTo404(t *testing.T) {
	for _, token := range []string{"", "good"} {
		p := setup(t, token, loggedIn(model.RoleGestao))
		rec := p.get("/nao-existe/mesmo")
		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/404", rec.Header().Get(echo.HeaderLocation))
		assert.Zero(t, p.api.count("/verify-token"), "catch-all is not behind the session check")
	}
}

func TestPublicRoutesAlwaysMounted(t *testing.T) {
	p := setup(t, "", &fakeAPI{permCode: http.StatusOK, verifyCode: http.StatusOK})

	rec := p.get("/login")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `action="/login"`)

	rec = p.get("/404")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = p.get("/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)

	assert.Zero(t, p.api.count("/user-permission"))
	assert.Zero(t, p.api.count("/verify-token"))
}

func TestNavFor(t *testing.T) {
	nav := navFor(model.RoleProfessor)
	require.Len(t, nav, 2)
	assert.Equal(t, handler.NavLink{Path: "/home", Title: "Início"}, nav[0])
	assert.Equal(t, "/conteudo", nav[1].Path)
	assert.Empty(t, navFor(model.RoleNone))
}
