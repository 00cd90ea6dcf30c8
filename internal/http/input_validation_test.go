package handlers_test

import (
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRejectsMalformedInput(t *testing.T) {
	ta := newTestApp(t, testConfig())
	alice := ta.login(t, "alice@handmade.test")
	nour := ta.login(t, "nour@handmade.test")
	admin := ta.login(t, "admin@handmade.test")

	cases := []struct {
		name, method, path, body, sid string
	}{
		{"product id", http.MethodGet, "/api/v1/products/" + url.PathEscape("p-vase'--"), "", ""},
		{"search markup", http.MethodGet, "/api/v1/search?q=" + url.QueryEscape("<script>"), "", ""},
		{"search empty", http.MethodGet, "/api/v1/search?q=%20", "", ""},
		{"category", http.MethodGet, "/api/v1/products?category=" + url.QueryEscape(strings.Repeat("a b", 20)), "", ""},
		{"blank category", http.MethodGet, "/api/v1/search?q=vase&category=" + url.QueryEscape("   "), "", ""},
		{"users search control", http.MethodGet, "/api/v1/admin/users?q=" + url.QueryEscape("a\x00b"), "", admin},
		{"availability", http.MethodGet, "/api/v1/availability?productId=", "", ""},
		{"weak password", http.MethodPost, "/api/v1/auth/register", `{"email":"x@handmade.test","password":"short","displayName":"X"}`, ""},
		{"bad email", http.MethodPost, "/api/v1/auth/register", `{"email":"not-an-email","password":"Str0ng!pass","displayName":"X"}`, ""},
		{"cart body", http.MethodPost, "/api/v1/cart", `{"productId":`, alice},
		{"rating range", http.MethodPost, "/api/v1/products/p-vase/feedback", `{"rating":9}`, alice},
		{"empty feedback", http.MethodPost, "/api/v1/products/p-vase/feedback", `{"rating":0,"comment":"  "}`, alice},
		{"negative price", http.MethodPost, "/api/v1/vendor/products", `{"categoryId":"pottery","title":"Cup","price":-1,"stock":1}`, nour},
		{"unknown category", http.MethodPost, "/api/v1/vendor/products", `{"categoryId":"glass","title":"Cup","price":10,"stock":1}`, nour},
		{"order status", http.MethodGet, "/api/v1/admin/orders?status=lost", "", admin},
		{"product status", http.MethodGet, "/api/v1/admin/products?status=sold", "", admin},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := ta.do(t, tc.method, tc.path, tc.body, tc.sid)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.NotEmpty(t, errorOf(t, resp))
		})
	}
}

func TestSearchAcceptsUnicodeAndTrims(t *testing.T) {
	ta := newTestApp(t, testConfig())
	resp := ta.do(t, http.MethodGet, "/api/v1/search?q="+url.QueryEscape("  vase "), "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	res := decode[struct {
		Q     string           `json:"q"`
		Items []map[string]any `json:"items"`
	}](t, resp)
	assert.Equal(t, "vase", res.Q)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "p-vase", res.Items[0]["id"])

	assert.Equal(t, http.StatusOK, ta.do(t, http.MethodGet, "/api/v1/search?q="+url.QueryEscape("خزف"), "", "").StatusCode)
}

func TestNotFoundResponses(t *testing.T) {
	ta := newTestApp(t, testConfig())

	resp := ta.do(t, http.MethodGet, "/api/v1/products/p-missing", "", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "product not found", errorOf(t, resp))

	resp = ta.do(t, http.MethodGet, "/api/v1/nowhere", "", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "not found", errorOf(t, resp))

	resp = ta.do(t, http.MethodGet, "/nowhere", "", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "Page not found")
}

func TestInternalErrorsDoNotLeak(t *testing.T) {
	ta := newTestApp(t, testConfig())
	require.NoError(t, ta.db.Close())

	resp := ta.do(t, http.MethodGet, "/api/v1/categories", "", "")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	msg := errorOf(t, resp)
	assert.Equal(t, "Something went wrong. Please try again.", msg)
	assert.False(t, strings.Contains(strings.ToLower(msg), "sql"))
}
