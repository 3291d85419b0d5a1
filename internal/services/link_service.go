// Package services contains the business logic layer for the link shortener
// application: short-code allocation, the redirect hot path, expiration
// archival and cache invalidation.
package services

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/big"
	"time"

	"gorm.io/gorm"

	"github.com/axellelanca/shortly/internal/cache"
	apperrors "github.com/axellelanca/shortly/internal/errors"
	"github.com/axellelanca/shortly/internal/models"
	"github.com/axellelanca/shortly/internal/repository"
)

// charset defines the character set used for generating short codes.
// Uses alphanumeric characters (both cases) for a total of 62 possible characters.
// This gives us 62^6 = ~56 billion possible combinations for 6-character codes.
const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// defaultExpirationDays is applied when a creation request carries no
// expiration, and stacked on top of the midnight normalization (see
// normalizeExpiration).
const defaultExpirationDays = 90

// maxGenerateRetries bounds the collision loop. With 62^6 codes and a link
// table orders of magnitude smaller, a single retry is already rare.
const maxGenerateRetries = 10

// CreateLinkInput carries everything needed to create a link. UserID is nil
// for anonymous creations; ExpiresAt nil means "use the default".
type CreateLinkInput struct {
	OriginalURL string
	CustomAlias *string
	ExpiresAt   *time.Time
	UserID      *uint
}

// ResolveResult is returned by Resolve. Link is nil when the answer came from
// the cache; in that case no store access happened and no stats were updated.
type ResolveResult struct {
	URL  string
	Link *models.Link
}

// LinkStats is the cached stats payload for a link.
type LinkStats struct {
	OriginalURL  string  `json:"original_url"`
	CreatedAt    string  `json:"created_at"`
	Clicks       int     `json:"clicks"`
	LastAccessed *string `json:"last_accessed"`
	ExpiresAt    *string `json:"expires_at"`
}

// SearchResult is one entry of a search-by-URL response.
type SearchResult struct {
	OriginalURL string  `json:"original_url"`
	ShortCode   string  `json:"short_code"`
	CreatedAt   string  `json:"created_at"`
	ExpiresAt   *string `json:"expires_at"`
}

// LinkService provides business logic methods for managing shortened links.
// The repository and the cache are injected at construction so tests can
// substitute fakes; there is no ambient global client.
type LinkService struct {
	linkRepo repository.LinkRepository
	cache    cache.Cache
	cacheTTL time.Duration // TTL for redirect and search entries
}

// NewLinkService creates and returns a new instance of LinkService.
func NewLinkService(linkRepo repository.LinkRepository, c cache.Cache, cacheTTL time.Duration) *LinkService {
	return &LinkService{
		linkRepo: linkRepo,
		cache:    c,
		cacheTTL: cacheTTL,
	}
}

// GenerateShortCode generates a cryptographically secure random short code.
// Codes are the sole access key to potentially anonymous links, so they must
// not be guessable; crypto/rand keeps them unpredictable.
func (s *LinkService) GenerateShortCode(length int) (string, error) {
	code := make([]byte, length)
	for i := range code {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", fmt.Errorf("failed to generate random number: %w", err)
		}
		code[i] = charset[num.Int64()]
	}
	return string(code), nil
}

// normalizeExpiration applies the expiration rules at creation time:
//   - nil means now + 90 days
//   - a timestamp at exactly midnight is a caller convention for "date only";
//     it becomes 23:59:59 of that date, plus another 90 days on top. The
//     stacked extension matches the historical behavior and is kept on purpose.
//   - anything else is trusted verbatim.
//
// A timestamp already in the past is rejected before persistence.
func normalizeExpiration(expiresAt *time.Time, now time.Time) (time.Time, error) {
	if expiresAt == nil {
		return now.AddDate(0, 0, defaultExpirationDays), nil
	}
	if expiresAt.Before(now) {
		return time.Time{}, apperrors.ErrExpirationInPast
	}
	h, m, sec := expiresAt.Clock()
	if h == 0 && m == 0 && sec == 0 && expiresAt.Nanosecond() == 0 {
		endOfDay := time.Date(expiresAt.Year(), expiresAt.Month(), expiresAt.Day(),
			23, 59, 59, 0, expiresAt.Location())
		return endOfDay.AddDate(0, 0, defaultExpirationDays), nil
	}
	return *expiresAt, nil
}

// CreateLink creates a new shortened link.
//
// With a custom alias, the alias must not collide with any active short code
// or alias; the pre-check gives a friendly conflict error, the unique indexes
// on the links table make the check race-safe (a concurrent duplicate insert
// fails with a unique violation, which is also mapped to ErrAliasConflict).
// Without an alias, a code is generated with collision detection and retry.
func (s *LinkService) CreateLink(in CreateLinkInput) (*models.Link, error) {
	now := time.Now().UTC()

	expiresAt, err := normalizeExpiration(in.ExpiresAt, now)
	if err != nil {
		return nil, err
	}

	var shortCode string
	if in.CustomAlias != nil && *in.CustomAlias != "" {
		alias := *in.CustomAlias
		_, err := s.linkRepo.FindActiveByCodeOrAlias(alias)
		if err == nil {
			return nil, apperrors.ErrAliasConflict
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("database error checking alias uniqueness: %w", err)
		}
		shortCode = alias
	} else {
		in.CustomAlias = nil // normalize empty string to absent
		shortCode, err = s.generateUniqueCode()
		if err != nil {
			return nil, err
		}
	}

	link := &models.Link{
		OriginalURL: in.OriginalURL,
		ShortCode:   shortCode,
		CustomAlias: in.CustomAlias,
		CreatedAt:   now,
		ExpiresAt:   &expiresAt,
		IsActive:    true,
		UserID:      in.UserID,
	}

	if err := s.linkRepo.CreateLink(link); err != nil {
		if repository.IsUniqueViolation(err) {
			// Lost a check-then-act race; the store constraint is authoritative.
			return nil, apperrors.ErrAliasConflict
		}
		return nil, fmt.Errorf("failed to create link: %w", err)
	}

	return link, nil
}

// generateUniqueCode runs the generate-and-recheck loop until an unused code
// is found.
func (s *LinkService) generateUniqueCode() (string, error) {
	for i := 0; i < maxGenerateRetries; i++ {
		code, err := s.GenerateShortCode(6)
		if err != nil {
			return "", fmt.Errorf("failed to generate short code: %w", err)
		}

		_, err = s.linkRepo.FindActiveByCodeOrAlias(code)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return code, nil
			}
			return "", fmt.Errorf("database error checking short code uniqueness: %w", err)
		}

		log.Printf("Short code '%s' already exists, retrying generation (%d/%d)...", code, i+1, maxGenerateRetries)
	}
	return "", apperrors.ErrShortCodeGenerationFailed
}

// ResolveLink resolves a short code to its original URL.
//
// The read path is cache-aside: a cache hit returns immediately with no store
// access and no stats update. On a miss the active store is consulted; an
// expired link is archived on the spot (a destructive read) and reported as
// ErrLinkExpired, after which the code is fully free for reuse. Cache failures
// of any kind degrade to a miss — the store path alone is authoritative.
func (s *LinkService) ResolveLink(ctx context.Context, shortCode string) (*ResolveResult, error) {
	key := cache.RedirectKey(shortCode)
	if data, err := s.cache.Get(ctx, key); err == nil {
		return &ResolveResult{URL: string(data)}, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		log.Printf("WARN: cache lookup failed for %s, falling back to store: %v", key, err)
	}

	link, err := s.linkRepo.GetActiveLinkByShortCode(shortCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrLinkNotFound
		}
		return nil, fmt.Errorf("failed to look up link: %w", err)
	}

	now := time.Now().UTC()
	if link.ExpiresAt != nil && link.ExpiresAt.Before(now) {
		if err := s.linkRepo.ArchiveLink(link, now); err != nil {
			return nil, fmt.Errorf("failed to archive expired link: %w", err)
		}
		if err := s.cache.Delete(ctx, key); err != nil {
			log.Printf("WARN: failed to invalidate cache for archived link %s: %v", shortCode, err)
		}
		return nil, apperrors.ErrLinkExpired
	}

	// The cached value comes from the committed row read above, so the store
	// commit always precedes the cache population.
	if err := s.cache.Set(ctx, key, []byte(link.OriginalURL), s.cacheTTL); err != nil {
		log.Printf("WARN: failed to populate redirect cache for %s: %v", shortCode, err)
	}

	if err := s.linkRepo.RecordAccess(link, now); err != nil {
		return nil, fmt.Errorf("failed to record access: %w", err)
	}

	return &ResolveResult{URL: link.OriginalURL, Link: link}, nil
}

// UpdateLinkURL changes the target URL of a link owned by userID.
//
// The redirect and stats cache entries are invalidated eagerly so the update
// takes effect on the next resolution rather than after the TTL lapses.
func (s *LinkService) UpdateLinkURL(ctx context.Context, shortCode, newURL string, userID *uint) error {
	link, err := s.linkRepo.GetLinkByShortCode(shortCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrLinkNotFound
		}
		return fmt.Errorf("failed to look up link: %w", err)
	}

	if err := CheckLinkOwnership(link, userID); err != nil {
		return err
	}

	if err := s.linkRepo.UpdateOriginalURL(link.ID, newURL); err != nil {
		return err
	}

	if err := s.cache.Delete(ctx, cache.RedirectKey(shortCode), cache.StatsKey(shortCode)); err != nil {
		log.Printf("WARN: failed to invalidate cache after update of %s: %v", shortCode, err)
	}
	return nil
}

// DeleteLink removes a link owned by userID and invalidates its redirect and
// stats cache entries.
func (s *LinkService) DeleteLink(ctx context.Context, shortCode string, userID *uint) error {
	link, err := s.linkRepo.GetLinkByShortCode(shortCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrLinkNotFound
		}
		return fmt.Errorf("failed to look up link: %w", err)
	}

	if err := CheckLinkOwnership(link, userID); err != nil {
		return err
	}

	if err := s.linkRepo.DeleteLink(link); err != nil {
		return err
	}

	if err := s.cache.Delete(ctx, cache.RedirectKey(shortCode), cache.StatsKey(shortCode)); err != nil {
		log.Printf("WARN: failed to invalidate cache after delete of %s: %v", shortCode, err)
	}
	return nil
}

// GetLinkStats returns the stats payload for a short code, cache-aside with a
// fixed 60 second TTL. Archived links are not reachable through this path.
func (s *LinkService) GetLinkStats(ctx context.Context, shortCode string) (*LinkStats, error) {
	key := cache.StatsKey(shortCode)
	if data, err := s.cache.Get(ctx, key); err == nil {
		var stats LinkStats
		if err := json.Unmarshal(data, &stats); err == nil {
			return &stats, nil
		}
		log.Printf("WARN: corrupt stats cache entry for %s, falling back to store", shortCode)
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		log.Printf("WARN: cache lookup failed for %s, falling back to store: %v", key, err)
	}

	link, err := s.linkRepo.GetLinkByShortCode(shortCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrLinkNotFound
		}
		return nil, fmt.Errorf("failed to look up link: %w", err)
	}

	stats := &LinkStats{
		OriginalURL:  link.OriginalURL,
		CreatedAt:    link.CreatedAt.Format(time.RFC3339),
		Clicks:       link.Clicks,
		LastAccessed: formatOptionalTime(link.LastAccessed),
		ExpiresAt:    formatOptionalTime(link.ExpiresAt),
	}

	if data, err := json.Marshal(stats); err == nil {
		if err := s.cache.Set(ctx, key, data, cache.StatsTTL); err != nil {
			log.Printf("WARN: failed to populate stats cache for %s: %v", shortCode, err)
		}
	}

	return stats, nil
}

// SearchLinksByURL returns every active link whose stored URL equals the query
// exactly. Results are cache-aside keyed by a hash of the URL; an empty result
// is ErrLinkNotFound and is never cached.
func (s *LinkService) SearchLinksByURL(ctx context.Context, originalURL string) ([]SearchResult, error) {
	key := cache.SearchKey(originalURL)
	if data, err := s.cache.Get(ctx, key); err == nil {
		var results []SearchResult
		if err := json.Unmarshal(data, &results); err == nil {
			return results, nil
		}
		log.Printf("WARN: corrupt search cache entry for %s, falling back to store", key)
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		log.Printf("WARN: cache lookup failed for %s, falling back to store: %v", key, err)
	}

	links, err := s.linkRepo.FindActiveByOriginalURL(originalURL)
	if err != nil {
		return nil, err
	}
	if len(links) == 0 {
		return nil, apperrors.ErrLinkNotFound
	}

	results := make([]SearchResult, 0, len(links))
	for _, link := range links {
		results = append(results, SearchResult{
			OriginalURL: link.OriginalURL,
			ShortCode:   link.ShortCode,
			CreatedAt:   link.CreatedAt.Format(time.RFC3339),
			ExpiresAt:   formatOptionalTime(link.ExpiresAt),
		})
	}

	if data, err := json.Marshal(results); err == nil {
		if err := s.cache.Set(ctx, key, data, s.cacheTTL); err != nil {
			log.Printf("WARN: failed to populate search cache for %s: %v", key, err)
		}
	}

	return results, nil
}

// GetArchivedLinks lists the archived links owned by userID, newest first.
// Deliberately uncached: low traffic and freshness-sensitive.
func (s *LinkService) GetArchivedLinks(userID uint) ([]models.ArchivedLink, error) {
	return s.linkRepo.GetArchivedByUserID(userID)
}

func formatOptionalTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	formatted := t.Format(time.RFC3339)
	return &formatted
}
