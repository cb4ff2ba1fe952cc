package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/Tchelovb/clinicpro-manager-sub008/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// Per-IP sliding-window limiters. One map for the login endpoint (tight) and
// one for the general API.

type rateEntry struct {
	count     int
	windowEnd time.Time
	mu        sync.Mutex
}

var (
	loginMap   = make(map[string]*rateEntry)
	loginMapMu sync.Mutex

	apiMap   = make(map[string]*rateEntry)
	apiMapMu sync.Mutex
)

func take(m map[string]*rateEntry, mu *sync.Mutex, ip string, limit int, window time.Duration) bool {
	mu.Lock()
	entry, exists := m[ip]
	if !exists {
		entry = &rateEntry{}
		m[ip] = entry
	}
	mu.Unlock()

	entry.mu.Lock()
	defer entry.mu.Unlock()

	now := time.Now()
	if now.After(entry.windowEnd) {
		entry.count = 0
		entry.windowEnd = now.Add(window)
	}
	entry.count++
	return entry.count <= limit
}

// LoginRateLimiter limits login attempts to 20 per minute per IP.
func LoginRateLimiter() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !take(loginMap, &loginMapMu, c.ClientIP(), 20, time.Minute) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New("Muitas tentativas de login. Tente em 1 minuto."))
			return
		}
		c.Next()
	}
}

// RateLimiter returns a general-purpose sliding-window rate limiter per IP.
func RateLimiter(limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !take(apiMap, &apiMapMu, c.ClientIP(), limit, window) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New("Muitas solicitações. Tente novamente em instantes."))
			return
		}
		c.Next()
	}
}

// ── Purge goroutine ───────────────────────────────────────────────────────────
// Periodically removes expired entries from both maps so IPs that never
// return do not accumulate.

const purgeInterval = 5 * time.Minute

func init() {
	go purgeExpiredEntries()
}

func purgeExpiredEntries() {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()

	for range ticker.C {
		now := time.Now()
		purged := 0
		for _, pair := range []struct {
			m  map[string]*rateEntry
			mu *sync.Mutex
		}{{loginMap, &loginMapMu}, {apiMap, &apiMapMu}} {
			pair.mu.Lock()
			for ip, entry := range pair.m {
				entry.mu.Lock()
				if now.After(entry.windowEnd) {
					delete(pair.m, ip)
					purged++
				}
				entry.mu.Unlock()
			}
			pair.mu.Unlock()
		}
		if purged > 0 {
			log.Debug().Int("entries_purged", purged).Msg("rate limiter maps purged")
		}
	}
}
