package handlers_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"handmade/internal/config"
	"handmade/internal/http/handlers"
	"handmade/internal/repos"
)

type testApp struct {
	app  *fiber.App
	deps *handlers.Deps
	db   *sqlx.DB
	csrf string
}

func testConfig() config.Config {
	return config.Config{DBDSN: ":memory:", BodyLimit: 1 << 20, RateMax: 1000, LoginRateMax: 50}
}

func newTestApp(t *testing.T, cfg config.Config) *testApp {
	t.Helper()
	db, err := repos.OpenDB(cfg.DBDSN)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	deps := handlers.NewDeps(db, cfg, nil, nil)
	ta := &testApp{app: handlers.NewApp(deps, cfg), deps: deps, db: db}

	resp, err := ta.app.Test(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.NoError(t, err)
	ta.csrf = cookie(resp, "csrf_")
	require.NotEmpty(t, ta.csrf, "csrf token missing")
	return ta
}

func cookie(resp *http.Response, name string) string {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

// do sends a JSON request carrying the CSRF token and, when sid is set, the session.
func (ta *testApp) do(t *testing.T, method, path, body, sid string) *http.Response {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-CSRF-Token", ta.csrf)
	req.AddCookie(&http.Cookie{Name: "csrf_", Value: ta.csrf})
	if sid != "" {
		req.AddCookie(&http.Cookie{Name: "sid", Value: sid})
	}
	resp, err := ta.app.Test(req, 5000)
	require.NoError(t, err)
	return resp
}

func (ta *testApp) login(t *testing.T, email string) string {
	t.Helper()
	resp := ta.do(t, http.MethodPost, "/api/v1/auth/login", `{"email":"`+email+`","password":"`+repos.SeedPassword+`"}`, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	sid := cookie(resp, "sid")
	require.NotEmpty(t, sid)
	return sid
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func errorOf(t *testing.T, resp *http.Response) string {
	t.Helper()
	return decode[map[string]string](t, resp)["error"]
}
