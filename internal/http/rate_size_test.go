package handlers_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAvailabilityRateLimit(t *testing.T) {
	ta := newTestApp(t, testConfig())

	for i := 0; i < 15; i++ {
		resp := ta.do(t, http.MethodGet, "/api/v1/availability?productId=p-vase", "", "")
		require.NotEqual(t, http.StatusTooManyRequests, resp.StatusCode, "hit rate limit too early at %d", i)
	}
	resp := ta.do(t, http.MethodGet, "/api/v1/availability?productId=p-vase", "", "")
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Contains(t, errorOf(t, resp), "rate limit")
}

func TestGlobalRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateMax = 3
	ta := newTestApp(t, cfg) // the csrf bootstrap uses /healthz, which is exempt

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, ta.do(t, http.MethodGet, "/api/v1/categories", "", "").StatusCode)
	}
	assert.Equal(t, http.StatusTooManyRequests, ta.do(t, http.MethodGet, "/api/v1/categories", "", "").StatusCode)
	assert.Equal(t, http.StatusOK, ta.do(t, http.MethodGet, "/healthz", "", "").StatusCode)
}

func TestBodySizeLimit(t *testing.T) {
	cfg := testConfig()
	cfg.BodyLimit = 1 << 10
	ta := newTestApp(t, cfg)
	alice := ta.login(t, "alice@handmade.test")

	big := `{"productId":"p-vase","pad":"` + strings.Repeat("x", 2<<10) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart", bytes.NewBufferString(big))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-CSRF-Token", ta.csrf)
	req.AddCookie(&http.Cookie{Name: "csrf_", Value: ta.csrf})
	req.AddCookie(&http.Cookie{Name: "sid", Value: alice})
	resp, err := ta.app.Test(req)
	if err != nil {
		// fasthttp may reject the request before a response is written
		assert.Contains(t, err.Error(), "body size exceeds")
		return
	}
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
}
