package middleware

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

// WindowLimiter allows perMinute and perHour attempts per key. Both windows
// must have room for an attempt to pass.
type WindowLimiter struct {
	mu        sync.Mutex
	perMinute int
	perHour   int
	entries   map[string]*windowEntry
	idleAfter time.Duration
	lastSweep time.Time
	now       func() time.Time
}

type windowEntry struct {
	minute   *rate.Limiter
	hour     *rate.Limiter
	lastSeen time.Time
}

func NewWindowLimiter(perMinute, perHour int) *WindowLimiter {
	return &WindowLimiter{
		perMinute: perMinute,
		perHour:   perHour,
		entries:   make(map[string]*windowEntry),
		idleAfter: time.Hour,
		now:       time.Now,
	}
}

func (l *WindowLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.evictIdle(now)

	e, ok := l.entries[key]
	if !ok {
		e = &windowEntry{
			minute: rate.NewLimiter(rate.Every(time.Minute/time.Duration(l.perMinute)), l.perMinute),
			hour:   rate.NewLimiter(rate.Every(time.Hour/time.Duration(l.perHour)), l.perHour),
		}
		l.entries[key] = e
	}
	e.lastSeen = now

	if e.minute.TokensAt(now) < 1 || e.hour.TokensAt(now) < 1 {
		return false
	}
	e.minute.AllowN(now, 1)
	e.hour.AllowN(now, 1)
	return true
}

// 1時間使われていないキーを捨てる（10分に1回）
func (l *WindowLimiter) evictIdle(now time.Time) {
	if now.Sub(l.lastSweep) < 10*time.Minute {
		return
	}
	l.lastSweep = now
	for k, e := range l.entries {
		if now.Sub(e.lastSeen) > l.idleAfter {
			delete(l.entries, k)
		}
	}
}

// ClientIPExtractor decides what c.RealIP returns. X-Forwarded-For is only
// read when the direct peer is inside trusted; otherwise the socket address
// is used.
func ClientIPExtractor(trusted []*net.IPNet) echo.IPExtractor {
	if len(trusted) == 0 {
		return echo.ExtractIPDirect()
	}
	opts := []echo.TrustOption{
		echo.TrustLoopback(false),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(false),
	}
	for _, n := range trusted {
		opts = append(opts, echo.TrustIPRange(n))
	}
	return echo.ExtractIPFromXFFHeader(opts...)
}

// RateLimit rejects with 429 once the caller's IP runs out of attempts.
// Pair it with ClientIPExtractor so forwarded headers cannot pick the key.
func RateLimit(l *WindowLimiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !l.Allow(c.RealIP()) {
				c.Response().Header().Set("Retry-After", strconv.Itoa(60))
				return c.JSON(http.StatusTooManyRequests, errorJSON("too many attempts, try again later"))
			}
			return next(c)
		}
	}
}
