package handlers

import (
	"bufio"
	"encoding/json"
	"fmt"
	"time"

	"handmade/internal/domain"
	"handmade/internal/feed"
	applog "handmade/internal/log"

	"github.com/gofiber/fiber/v2"
)

const liveKeepAlive = 25 * time.Second

// LiveHandler streams catalog snapshots as Server-Sent Events.
type LiveHandler struct {
	Hub       *feed.Hub
	KeepAlive time.Duration
}

// GET /api/v1/products/live
func (h *LiveHandler) Stream(c *fiber.Ctx) error {
	viewer := currentUserID(c)
	snaps, unsubscribe := h.Hub.Subscribe()
	applog.Info(c, "live.subscribe", map[string]any{"subscribers": h.Hub.Subscribers()})

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	keepAlive := h.KeepAlive
	if keepAlive <= 0 {
		keepAlive = liveKeepAlive
	}
	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer unsubscribe()
		ticker := time.NewTicker(keepAlive)
		defer ticker.Stop()
		for {
			select {
			case snap, ok := <-snaps:
				if !ok {
					return
				}
				if err := writeSnapshot(w, feed.ForViewer(snap, viewer)); err != nil {
					return
				}
			case <-ticker.C:
				if _, err := w.WriteString(": ping\n\n"); err != nil {
					return
				}
				if err := w.Flush(); err != nil {
					return
				}
			}
		}
	})
	return nil
}

func writeSnapshot(w *bufio.Writer, snap []domain.ProductCard) error {
	if snap == nil {
		snap = []domain.ProductCard{}
	}
	body, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", body); err != nil {
		return err
	}
	return w.Flush()
}
