package cache

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"time"
)

// StatsTTL is the fixed TTL for stats cache entries.
const StatsTTL = 60 * time.Second

// Three independent key namespaces live in the cache. Each is invalidated on
// its own: mutating a link touches its redirect and stats entries, while
// search entries simply age out.

// RedirectKey is the cache key for a link's redirect target.
func RedirectKey(shortCode string) string {
	return fmt.Sprintf("redirect:%s", shortCode)
}

// StatsKey is the cache key for a link's stats payload.
func StatsKey(shortCode string) string {
	return fmt.Sprintf("stats:%s", shortCode)
}

// SearchKey is the cache key for a search-by-URL result. The URL is hashed so
// arbitrarily long URLs produce fixed-size keys.
func SearchKey(originalURL string) string {
	sum := md5.Sum([]byte(originalURL))
	return fmt.Sprintf("search:%s", hex.EncodeToString(sum[:]))
}
