package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"hotel_concierge/internal/domain"
)

type ImportService struct {
	feed  domain.CatalogFeed
	repo  domain.CatalogWriter
	cache domain.Cache
}

func NewImportService(f domain.CatalogFeed, r domain.CatalogWriter, cache domain.Cache) *ImportService {
	return &ImportService{feed: f, repo: r, cache: cache}
}

// ImportHotel pulls one hotel from the feed and upserts it. Feed misses
// (404/401/403) are logged and skipped; malformed payloads are errors.
func (s *ImportService) ImportHotel(ctx context.Context, id string) error {
	p, err := s.feed.GetHotel(ctx, id)
	if err != nil {
		if isFeedMiss(err) {
			log.Warn().Str("hotel_id", id).Err(err).Msg("feed miss, skipping hotel")
			s.invalidate(ctx, id)
			return nil
		}
		return err
	}

	h, err := mapHotel(p)
	if err != nil {
		return fmt.Errorf("map hotel %s: %w", id, err)
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode raw payload for %s: %w", id, err)
	}
	if err := s.repo.UpsertHotel(ctx, h, raw); err != nil {
		return fmt.Errorf("upsert hotel %s: %w", id, err)
	}

	// the hotel itself and every catalog-wide aggregate are now stale
	s.invalidate(ctx, h.ID)
	return nil
}

// ImportAll lists the feed and imports every id sequentially. The importer
// binary fans out itself; this is the simple path used by tests and tools.
func (s *ImportService) ImportAll(ctx context.Context) (imported int, err error) {
	ids, err := s.feed.ListHotelIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("list feed: %w", err)
	}
	for _, id := range ids {
		if err := s.ImportHotel(ctx, id); err != nil {
			return imported, err
		}
		imported++
	}
	return imported, nil
}

// ListHotelIDs exposes the feed listing to the importer's worker pool.
func (s *ImportService) ListHotelIDs(ctx context.Context) ([]string, error) {
	return s.feed.ListHotelIDs(ctx)
}

func (s *ImportService) invalidate(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Del(ctx, hotelKey(id))
	for _, k := range CatalogKeys() {
		_ = s.cache.Del(ctx, k)
	}
}

func isFeedMiss(err error) bool {
	if errors.Is(err, domain.ErrNotFound) {
		return true
	}
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "not found") ||
		strings.Contains(low, "403") || strings.Contains(low, "forbidden") ||
		strings.Contains(low, "401") || strings.Contains(low, "unauthorized")
}
