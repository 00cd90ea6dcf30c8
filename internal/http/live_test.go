package handlers_test

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"handmade/internal/domain"
)

// streamOnce opens the live feed and stops the hub once the handler has
// subscribed, so the stream ends after the first snapshot.
func streamOnce(t *testing.T, ta *testApp, sid string) []domain.ProductCard {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { _ = ta.deps.Hub.Run(ctx); close(done) }()
	go func() {
		for ta.deps.Hub.Subscribers() == 0 {
			time.Sleep(5 * time.Millisecond)
		}
		cancel()
	}()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/live", nil)
	if sid != "" {
		req.AddCookie(&http.Cookie{Name: "sid", Value: sid})
	}
	resp, err := ta.app.Test(req, 5000)
	require.NoError(t, err)
	<-done
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	var snap []domain.ProductCard
	sc := bufio.NewScanner(resp.Body)
	sc.Buffer(make([]byte, 0, 64<<10), 1<<20)
	for sc.Scan() {
		if data, ok := strings.CutPrefix(sc.Text(), "data: "); ok {
			require.NoError(t, json.Unmarshal([]byte(data), &snap))
		}
	}
	require.NotNil(t, snap, "no snapshot event")
	return snap
}

func ids(cards []domain.ProductCard) []string {
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = c.ID
	}
	return out
}

func TestLiveFeedStreamsApprovedSnapshot(t *testing.T) {
	ta := newTestApp(t, testConfig())

	got := ids(streamOnce(t, ta, ""))
	assert.ElementsMatch(t, []string{"p-vase", "p-mug", "p-ring", "p-bowl"}, got)
	assert.Zero(t, ta.deps.Hub.Subscribers())
}

func TestLiveFeedHidesViewersOwnListings(t *testing.T) {
	ta := newTestApp(t, testConfig())
	nour := ta.login(t, "nour@handmade.test")

	assert.Equal(t, []string{"p-bowl"}, ids(streamOnce(t, ta, nour)))
}
