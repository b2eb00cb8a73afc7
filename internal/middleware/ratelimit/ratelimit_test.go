package ratelimit

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestLimiter(t *testing.T, perMinute int) (*RateLimiter, *clock) {
	t.Helper()
	rl := New(Config{MaxRequestsPerMinute: perMinute})
	t.Cleanup(rl.Stop)
	clk := &clock{t: time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)}
	rl.now = clk.now
	return rl, clk
}

func TestAllowRefillsOverTime(t *testing.T) {
	rl, clk := newTestLimiter(t, 2)

	assert.True(t, rl.allow("a"))
	assert.True(t, rl.allow("a"))
	assert.False(t, rl.allow("a"))
	assert.True(t, rl.allow("b"), "buckets are per key")

	clk.t = clk.t.Add(30 * time.Second)
	assert.True(t, rl.allow("a"))
	assert.False(t, rl.allow("a"))

	clk.t = clk.t.Add(10 * time.Minute)
	assert.True(t, rl.allow("a"))
	assert.True(t, rl.allow("a"))
	assert.False(t, rl.allow("a"), "refill is capped at the bucket size")
}

func TestEvictIdle(t *testing.T) {
	rl, clk := newTestLimiter(t, 10)
	rl.allow("a")

	clk.t = clk.t.Add(rl.idleAfter + time.Second)
	rl.evictIdle()

	rl.mu.RLock()
	defer rl.mu.RUnlock()
	assert.Empty(t, rl.buckets)
}

func TestMiddlewareKeysByUser(t *testing.T) {
	rl, _ := newTestLimiter(t, 1)

	app := fiber.New()
	app.Use(rl.Middleware())
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString("ok") })

	do := func(user string) int {
		req := httptest.NewRequest("GET", "/", nil)
		if user != "" {
			req.Header.Set("X-User-ID", user)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp.StatusCode
	}

	assert.Equal(t, fiber.StatusOK, do("u1"))
	assert.Equal(t, fiber.StatusTooManyRequests, do("u1"))
	assert.Equal(t, fiber.StatusOK, do("u2"))
	assert.Equal(t, fiber.StatusOK, do(""))
	assert.Equal(t, fiber.StatusTooManyRequests, do(""))
}

func TestStopEndsCleanupLoop(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	rl := New(Config{CleanupInterval: time.Millisecond})
	time.Sleep(5 * time.Millisecond)
	rl.Stop()
	rl.Stop()
}
