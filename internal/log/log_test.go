package log_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	applog "handmade/internal/log"
)

func TestEntriesCarryRequestContext(t *testing.T) {
	var buf bytes.Buffer
	applog.SetOutput(&buf)
	defer applog.SetOutput(os.Stdout)

	app := fiber.New()
	app.Use(requestid.New())
	app.Get("/x", func(c *fiber.Ctx) error {
		c.Locals("userID", "u-1")
		applog.Audit(c, "thing.done", map[string]any{"n": 3})
		applog.Error(c, "thing.fail", errors.New("boom"), nil)
		return c.SendStatus(fiber.StatusNoContent)
	})
	_, err := app.Test(httptest.NewRequest("GET", "/x", nil))
	require.NoError(t, err)

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)

	var audit map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &audit))
	assert.Equal(t, "thing.done", audit["action"])
	assert.Equal(t, "audit", audit["kind"])
	assert.Equal(t, "u-1", audit["user_id"])
	assert.Equal(t, "/x", audit["path"])
	assert.NotEmpty(t, audit["req_id"])
	assert.Equal(t, float64(3), audit["fields"].(map[string]any)["n"])

	var failure map[string]any
	require.NoError(t, json.Unmarshal(lines[1], &failure))
	assert.Equal(t, "error", failure["level"])
	assert.Equal(t, "boom", failure["error"])
}
