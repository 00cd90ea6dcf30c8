package feed

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"handmade/internal/domain"
)

func card(id, vendor string) domain.ProductCard {
	return domain.ProductCard{Product: domain.Product{ID: id, VendorID: vendor}}
}

func counterLoad(n *atomic.Int32) SnapshotFunc {
	return func(context.Context) ([]domain.ProductCard, error) {
		v := n.Add(1)
		snap := []domain.ProductCard{card("p-vase", "u-nour")}
		if v > 1 {
			snap = append(snap, card("p-bowl", "u-omar"))
		}
		return snap, nil
	}
}

func recv(t *testing.T, ch <-chan []domain.ProductCard) []domain.ProductCard {
	t.Helper()
	select {
	case snap, ok := <-ch:
		require.True(t, ok, "channel closed")
		return snap
	case <-time.After(2 * time.Second):
		t.Fatal("no snapshot delivered")
		return nil
	}
}

func TestHub_SubscribeGetsCurrentSnapshot(t *testing.T) {
	var loads atomic.Int32
	h := NewHub(counterLoad(&loads))
	require.NoError(t, h.Refresh(context.Background()))

	ch, unsubscribe := h.Subscribe()
	defer unsubscribe()
	assert.Len(t, recv(t, ch), 1)
}

func TestHub_CatalogEventsTriggerRefresh(t *testing.T) {
	var loads atomic.Int32
	h := NewHub(counterLoad(&loads))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, unsubscribe := h.Subscribe()
	defer unsubscribe()
	go func() { _ = h.Run(ctx) }()

	assert.Len(t, recv(t, ch), 1)

	// cart events do not change the catalog
	require.NoError(t, h.Dispatch(domain.CartItemAdded{UserID: "u-alice", ProductID: "p-vase"}))
	require.NoError(t, h.Dispatch(domain.ProductReviewed{ProductID: "p-bowl", Status: domain.StatusApproved}))
	assert.Len(t, recv(t, ch), 2)
	assert.Equal(t, int32(2), loads.Load())
}

func TestHub_SlowSubscriberSeesLatestOnly(t *testing.T) {
	var loads atomic.Int32
	h := NewHub(counterLoad(&loads))
	ch, unsubscribe := h.Subscribe()
	defer unsubscribe()

	for i := 0; i < 5; i++ {
		require.NoError(t, h.Refresh(context.Background()))
	}
	assert.Len(t, recv(t, ch), 2)
	select {
	case <-ch:
		t.Fatal("stale snapshot was queued")
	default:
	}
}

func TestHub_UnsubscribeAndStop(t *testing.T) {
	var loads atomic.Int32
	h := NewHub(counterLoad(&loads))
	_, unsubscribe := h.Subscribe()
	ch2, _ := h.Subscribe()
	assert.Equal(t, 2, h.Subscribers())

	unsubscribe()
	unsubscribe()
	assert.Equal(t, 1, h.Subscribers())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { _ = h.Run(ctx); close(done) }()
	recv(t, ch2)
	cancel()
	<-done

	_, ok := <-ch2
	assert.False(t, ok)
	assert.Zero(t, h.Subscribers())
}

func TestForViewer(t *testing.T) {
	snap := []domain.ProductCard{card("p-vase", "u-nour"), card("p-bowl", "u-omar")}
	assert.Len(t, ForViewer(snap, ""), 2)
	got := ForViewer(snap, "u-nour")
	require.Len(t, got, 1)
	assert.Equal(t, "p-bowl", got[0].ID)
}
