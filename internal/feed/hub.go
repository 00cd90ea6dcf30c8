package feed

import (
	"context"
	"sync"

	"handmade/internal/domain"
	applog "handmade/internal/log"
)

// SnapshotFunc loads the current approved catalog.
type SnapshotFunc func(ctx context.Context) ([]domain.ProductCard, error)

// Hub pushes catalog snapshots to live subscribers. A subscriber gets the
// current snapshot on subscribe and a fresh one after every catalog-changing
// event; a slow subscriber only ever holds the latest snapshot.
type Hub struct {
	load  SnapshotFunc
	dirty chan struct{}

	mu      sync.Mutex
	current []domain.ProductCard
	loaded  bool
	subs    map[int]chan []domain.ProductCard
	next    int
}

func NewHub(load SnapshotFunc) *Hub {
	return &Hub{
		load:  load,
		dirty: make(chan struct{}, 1),
		subs:  map[int]chan []domain.ProductCard{},
	}
}

// Dispatch marks the snapshot stale when e changes the catalog. It never blocks.
func (h *Hub) Dispatch(e domain.Event) error {
	ce, ok := e.(domain.CatalogEvent)
	if !ok || !ce.AffectsCatalog() {
		return nil
	}
	select {
	case h.dirty <- struct{}{}:
	default:
	}
	return nil
}

// Run loads the first snapshot and then rebuilds it whenever Dispatch marks it
// stale, until ctx is done.
func (h *Hub) Run(ctx context.Context) error {
	if err := h.Refresh(ctx); err != nil {
		applog.Logger().Error().Err(err).Msg("live feed: initial snapshot failed")
	}
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return nil
		case <-h.dirty:
			if err := h.Refresh(ctx); err != nil {
				applog.Logger().Error().Err(err).Msg("live feed: snapshot refresh failed")
			}
		}
	}
}

// Refresh reloads the snapshot and hands it to every subscriber.
func (h *Hub) Refresh(ctx context.Context) error {
	snap, err := h.load(ctx)
	if err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.current = snap
	h.loaded = true
	for _, ch := range h.subs {
		offer(ch, snap)
	}
	return nil
}

// Subscribe returns a channel of snapshots and a func that releases it.
// The channel is closed on unsubscribe or when the hub stops.
func (h *Hub) Subscribe() (<-chan []domain.ProductCard, func()) {
	ch := make(chan []domain.ProductCard, 1)
	h.mu.Lock()
	id := h.next
	h.next++
	h.subs[id] = ch
	if h.loaded {
		offer(ch, h.current)
	}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if c, ok := h.subs[id]; ok {
				delete(h.subs, id)
				close(c)
			}
		})
	}
}

// Subscribers reports how many subscriptions are open.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
}

// offer replaces whatever is buffered in ch with snap. Callers hold h.mu.
func offer(ch chan []domain.ProductCard, snap []domain.ProductCard) {
	select {
	case <-ch:
	default:
	}
	ch <- snap
}

// ForViewer drops the viewer's own listings from a snapshot.
func ForViewer(snap []domain.ProductCard, viewerID string) []domain.ProductCard {
	if viewerID == "" {
		return snap
	}
	out := make([]domain.ProductCard, 0, len(snap))
	for _, p := range snap {
		if p.VendorID != viewerID {
			out = append(out, p)
		}
	}
	return out
}
