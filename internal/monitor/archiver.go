// Package monitor runs the background sweep that retires expired links.
// Resolution already archives an expired link the moment someone requests it;
// the sweeper catches the links nobody asks for anymore, so the active table
// doesn't accumulate dead rows. Both paths go through the same repository
// transaction, keeping the archive transition atomic either way.
package monitor

import (
	"context"
	"log"
	"time"

	"github.com/axellelanca/shortly/internal/cache"
	"github.com/axellelanca/shortly/internal/repository"
)

// ExpirationArchiver periodically moves expired active links to the archive.
type ExpirationArchiver struct {
	linkRepo repository.LinkRepository
	cache    cache.Cache
	interval time.Duration
	stop     chan struct{}
}

// NewExpirationArchiver creates an archiver sweeping at the given interval.
func NewExpirationArchiver(linkRepo repository.LinkRepository, c cache.Cache, interval time.Duration) *ExpirationArchiver {
	return &ExpirationArchiver{
		linkRepo: linkRepo,
		cache:    c,
		interval: interval,
		stop:     make(chan struct{}),
	}
}

// Start runs the sweep loop until Stop is called. An immediate first sweep
// runs before the ticker kicks in.
func (a *ExpirationArchiver) Start() {
	log.Printf("Expiration archiver started with interval %v", a.interval)
	a.sweep()

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.sweep()
		case <-a.stop:
			log.Println("Expiration archiver stopped")
			return
		}
	}
}

// Stop signals the sweep loop to exit.
func (a *ExpirationArchiver) Stop() {
	close(a.stop)
}

// sweep archives every active link whose expiration has passed and drops its
// cache entries. Errors on individual links are logged and skipped so one bad
// row can't wedge the sweep.
func (a *ExpirationArchiver) sweep() {
	now := time.Now().UTC()
	expired, err := a.linkRepo.FindExpired(now)
	if err != nil {
		log.Printf("ERROR: expiration sweep failed to list expired links: %v", err)
		return
	}
	if len(expired) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	archivedCount := 0
	for i := range expired {
		link := &expired[i]
		if err := a.linkRepo.ArchiveLink(link, now); err != nil {
			log.Printf("ERROR: failed to archive expired link %s: %v", link.ShortCode, err)
			continue
		}
		if err := a.cache.Delete(ctx, cache.RedirectKey(link.ShortCode), cache.StatsKey(link.ShortCode)); err != nil {
			log.Printf("WARN: failed to invalidate cache for archived link %s: %v", link.ShortCode, err)
		}
		archivedCount++
	}
	log.Printf("Expiration sweep archived %d link(s)", archivedCount)
}
