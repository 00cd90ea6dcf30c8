package log

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

var (
	mu     sync.RWMutex
	out    io.Writer = os.Stdout
	logger           = zerolog.New(os.Stdout).With().Timestamp().Logger()
)

// SetOutput redirects every structured entry (and the access log, see Writer) to w.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out = w
	logger = zerolog.New(w).With().Timestamp().Logger()
}

// Writer returns the current sink, for middleware that writes its own lines.
func Writer() io.Writer {
	mu.RLock()
	defer mu.RUnlock()
	return out
}

// SetLevel accepts debug, info, warn or error; anything else means info.
func SetLevel(level string) {
	switch strings.ToLower(level) {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// Logger returns the process logger for code that runs outside a request.
func Logger() *zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	l := logger
	return &l
}

func write(ev *zerolog.Event, c *fiber.Ctx, action string, fields map[string]any) {
	if c != nil {
		ev = ev.
			Str("ip", c.IP()).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", c.Response().StatusCode())
		if rid, ok := c.Locals("requestid").(string); ok && rid != "" {
			ev = ev.Str("req_id", rid)
		}
		if uid, ok := c.Locals("userID").(string); ok && uid != "" {
			ev = ev.Str("user_id", uid)
		}
	}
	if len(fields) > 0 {
		ev = ev.Interface("fields", fields)
	}
	ev.Str("action", action).Send()
}

func Info(c *fiber.Ctx, action string, fields map[string]any) {
	write(Logger().Info(), c, action, fields)
}

// Audit records state changes made by a user or admin.
func Audit(c *fiber.Ctx, action string, fields map[string]any) {
	write(Logger().Info().Str("kind", "audit"), c, action, fields)
}

func Security(c *fiber.Ctx, action string, fields map[string]any) {
	write(Logger().Warn().Str("kind", "security"), c, action, fields)
}

func Error(c *fiber.Ctx, action string, err error, fields map[string]any) {
	write(Logger().Error().Err(err), c, action, fields)
}
