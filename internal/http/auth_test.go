package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"handmade/internal/domain"
	"handmade/internal/repos"
)

func TestPasswordsSeededAreHashed(t *testing.T) {
	db, err := repos.OpenDB(":memory:")
	require.NoError(t, err)
	defer db.Close()

	var hashes []string
	require.NoError(t, db.Select(&hashes, `SELECT password_hash FROM users`))
	require.NotEmpty(t, hashes, "no users seeded")
	for _, h := range hashes {
		assert.NotContains(t, h, repos.SeedPassword)
		assert.True(t, strings.HasPrefix(h, "$2"), "unexpected hash format: %s", h)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(h), []byte(repos.SeedPassword)))
	}
}

func TestLoginSuccessFailAndThrottle(t *testing.T) {
	cfg := testConfig()
	cfg.LoginRateMax = 2
	ta := newTestApp(t, cfg)

	bad := ta.do(t, http.MethodPost, "/api/v1/auth/login", `{"email":"alice@handmade.test","password":"wrongpass!"}`, "")
	assert.Equal(t, http.StatusUnauthorized, bad.StatusCode)
	assert.Empty(t, cookie(bad, "sid"))

	good := ta.do(t, http.MethodPost, "/api/v1/auth/login", `{"email":"Alice@Handmade.test","password":"Passw0rd!"}`, "")
	require.Equal(t, http.StatusOK, good.StatusCode)
	assert.NotEmpty(t, cookie(good, "sid"))
	u := decode[domain.User](t, good)
	assert.Equal(t, "u-alice", u.ID)

	third := ta.do(t, http.MethodPost, "/api/v1/auth/login", `{"email":"alice@handmade.test","password":"wrongpass!"}`, "")
	assert.Equal(t, http.StatusTooManyRequests, third.StatusCode)
}

func TestLoginRotatesSessionAndLogoutEndsIt(t *testing.T) {
	ta := newTestApp(t, testConfig())

	first := ta.login(t, "alice@handmade.test")
	resp := ta.do(t, http.MethodPost, "/api/v1/auth/login", `{"email":"alice@handmade.test","password":"Passw0rd!"}`, first)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	second := cookie(resp, "sid")
	assert.NotEqual(t, first, second)

	assert.Equal(t, http.StatusUnauthorized, ta.do(t, http.MethodGet, "/api/v1/me", "", first).StatusCode)
	assert.Equal(t, http.StatusOK, ta.do(t, http.MethodGet, "/api/v1/me", "", second).StatusCode)

	assert.Equal(t, http.StatusNoContent, ta.do(t, http.MethodPost, "/api/v1/auth/logout", "", second).StatusCode)
	assert.Equal(t, http.StatusUnauthorized, ta.do(t, http.MethodGet, "/api/v1/me", "", second).StatusCode)
}

func TestRegisterThenLogin(t *testing.T) {
	ta := newTestApp(t, testConfig())

	body := `{"email":"dina@handmade.test","password":"Str0ng!pass","displayName":"Dina","role":"vendor"}`
	resp := ta.do(t, http.MethodPost, "/api/v1/auth/register", body, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	u := decode[domain.User](t, resp)
	assert.Equal(t, domain.RoleVendor, u.Role)

	dup := ta.do(t, http.MethodPost, "/api/v1/auth/register", body, "")
	assert.Equal(t, http.StatusConflict, dup.StatusCode)

	admin := ta.do(t, http.MethodPost, "/api/v1/auth/register",
		`{"email":"eve@handmade.test","password":"Str0ng!pass","displayName":"Eve","role":"admin"}`, "")
	assert.Equal(t, http.StatusBadRequest, admin.StatusCode)

	resp = ta.do(t, http.MethodPost, "/api/v1/auth/login", `{"email":"dina@handmade.test","password":"Str0ng!pass"}`, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	me := decode[domain.User](t, ta.do(t, http.MethodGet, "/api/v1/me", "", cookie(resp, "sid")))
	assert.Equal(t, "Dina", me.DisplayName)
}

func TestMutationsRequireCSRFToken(t *testing.T) {
	ta := newTestApp(t, testConfig())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"email":"alice@handmade.test","password":"Passw0rd!"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-CSRF-Token", "forged")
	req.AddCookie(&http.Cookie{Name: "csrf_", Value: ta.csrf})
	resp, err := ta.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Contains(t, errorOf(t, resp), "security check failed")
}
