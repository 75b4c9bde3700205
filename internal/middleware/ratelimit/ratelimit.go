// Package ratelimit throttles form submissions per client with a fixed
// one-minute window.
package ratelimit

import (
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"billminder/internal/log"
)

const window = time.Minute

type Config struct {
	RequestsPerMinute int
	CleanupInterval   time.Duration
	// StaleAfter drops clients idle for longer than this on cleanup.
	StaleAfter time.Duration
}

func DefaultConfig() Config {
	return Config{
		RequestsPerMinute: 60,
		CleanupInterval:   5 * time.Minute,
		StaleAfter:        10 * time.Minute,
	}
}

type Limiter struct {
	mu      sync.Mutex
	clients map[string]*client
	cfg     Config
	now     func() time.Time
	logger  *log.Logger
	limited atomic.Int64

	stop     chan struct{}
	stopOnce sync.Once
}

type client struct {
	windowStart time.Time
	lastSeen    time.Time
	requests    int
}

// NewLimiter creates a limiter and starts its cleanup loop. Call Stop to
// release it.
func NewLimiter(cfg Config, logger *log.Logger) *Limiter {
	def := DefaultConfig()
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = def.RequestsPerMinute
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = def.CleanupInterval
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = def.StaleAfter
	}
	if logger == nil {
		logger = log.Discard()
	}

	l := &Limiter{
		clients: make(map[string]*client),
		cfg:     cfg,
		now:     time.Now,
		logger:  logger.WithComponent(log.ComponentRateLimit),
		stop:    make(chan struct{}),
	}
	go l.cleanupLoop()
	return l
}

// Allow reports whether clientIP may make another request in the current
// window.
func (l *Limiter) Allow(clientIP string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	c, ok := l.clients[clientIP]
	if !ok || now.Sub(c.windowStart) >= window {
		l.clients[clientIP] = &client{windowStart: now, lastSeen: now, requests: 1}
		return true
	}

	c.lastSeen = now
	if c.requests >= l.cfg.RequestsPerMinute {
		l.limited.Add(1)
		return false
	}
	c.requests++
	return true
}

func (l *Limiter) cleanupLoop() {
	ticker := time.NewTicker(l.cfg.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := l.Cleanup(); n > 0 {
				l.logger.Debug("Stale rate limit entries removed", log.FieldCount, n)
			}
		case <-l.stop:
			return
		}
	}
}

// Cleanup removes idle clients and returns how many were removed.
func (l *Limiter) Cleanup() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.cfg.StaleAfter)
	removed := 0
	for ip, c := range l.clients {
		if c.lastSeen.Before(cutoff) {
			delete(l.clients, ip)
			removed++
		}
	}
	return removed
}

func (l *Limiter) ActiveClients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

// Limited returns the number of rejected requests since start.
func (l *Limiter) Limited() int64 {
	return l.limited.Load()
}

func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}

// Middleware limits mutating requests only. Reads are never throttled.
func (l *Limiter) Middleware(extractIP func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}

			clientIP := extractIP(r)
			if !l.Allow(clientIP) {
				l.logger.WarnContext(r.Context(), "Rate limit exceeded",
					log.FieldClientIP, clientIP,
					log.FieldMethod, r.Method,
					log.FieldPath, r.URL.Path)
				w.Header().Set("Retry-After", strconv.Itoa(int(window.Seconds())))
				http.Error(w, "Too many requests. Please try again later.", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
