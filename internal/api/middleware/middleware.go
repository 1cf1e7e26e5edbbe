package middleware

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/Migui-6/Launcher-VRacing/internal/auth"
	"github.com/Migui-6/Launcher-VRacing/internal/logging"
	"github.com/gin-gonic/gin"
)

// PinHeader carries the admin PIN on mutating requests.
const PinHeader = "X-Admin-Pin"

// Logger is a custom logging middleware
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Start timer
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		// Process request
		c.Next()

		latency := time.Since(start)
		if raw != "" {
			path = path + "?" + raw
		}

		c.Writer.Header().Set("X-Response-Time", latency.String())

		if path != "/health" || gin.Mode() == gin.DebugMode {
			logging.L().Info("http_request",
				"method", c.Request.Method,
				"path", path,
				"status", c.Writer.Status(),
				"latency", latency.String(),
				"ip", c.ClientIP(),
			)
		}
	}
}

// AdminPIN requires the PIN matching pinHash in the X-Admin-Pin header.
// An empty pinHash disables the check. Clients that fail more than
// maxFailures times in a minute are locked out until the window passes.
func AdminPIN(pinHash string, maxFailures int) gin.HandlerFunc {
	limiter := newFailureLimiter(maxFailures)

	return func(c *gin.Context) {
		if pinHash == "" {
			c.Next()
			return
		}

		key := c.ClientIP()
		if limiter.locked(key) {
			c.Header("Retry-After", "60")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many failed PIN attempts"})
			return
		}

		err := auth.VerifyPIN(c.GetHeader(PinHeader), pinHash)
		if err == nil {
			limiter.reset(key)
			c.Next()
			return
		}

		if errors.Is(err, auth.ErrInvalidPIN) {
			limiter.fail(key)
			logging.Component("api").Warn("admin pin rejected", "ip", key, "path", c.Request.URL.Path)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid admin PIN"})
			return
		}

		logging.Component("api").Error("admin pin check failed", "error", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "PIN verification failed"})
	}
}

type failureLimiter struct {
	maxFailures int
	window      time.Duration
	mu          sync.Mutex
	entries     map[string]*failureEntry
	now         func() time.Time
}

type failureEntry struct {
	windowStart time.Time
	count       int
}

func newFailureLimiter(maxFailures int) *failureLimiter {
	if maxFailures <= 0 {
		maxFailures = 5
	}
	return &failureLimiter{
		maxFailures: maxFailures,
		window:      time.Minute,
		entries:     make(map[string]*failureEntry),
		now:         time.Now,
	}
}

func (fl *failureLimiter) locked(key string) bool {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	entry, ok := fl.entries[key]
	if !ok {
		return false
	}
	if fl.now().Sub(entry.windowStart) >= fl.window {
		delete(fl.entries, key)
		return false
	}
	return entry.count >= fl.maxFailures
}

func (fl *failureLimiter) fail(key string) {
	now := fl.now()

	fl.mu.Lock()
	defer fl.mu.Unlock()

	entry, ok := fl.entries[key]
	if !ok || now.Sub(entry.windowStart) >= fl.window {
		fl.entries[key] = &failureEntry{windowStart: now, count: 1}
		return
	}
	entry.count++
}

func (fl *failureLimiter) reset(key string) {
	fl.mu.Lock()
	defer fl.mu.Unlock()
	delete(fl.entries, key)
}
