package domain

import "context"

// CatalogSource hands out the current catalog snapshot.
type CatalogSource interface {
	Snapshot(ctx context.Context) (*Catalog, error)
}

// CatalogWriter is the import-side view of the catalog store.
type CatalogWriter interface {
	UpsertHotel(ctx context.Context, h HotelRecord, raw []byte) error
}

// Ledger is the booking store. Append must refuse (ErrUnavailable) a
// confirmed booking that overlaps another confirmed booking of the same
// hotel, checked inside the store's own critical section.
type Ledger interface {
	Append(ctx context.Context, b Booking) error
	Get(ctx context.Context, id string) (Booking, error)
	FindByHotel(ctx context.Context, hotelID string) ([]Booking, error)
	UpdateStatus(ctx context.Context, id string, status BookingStatus) error
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

// CatalogFeed is the remote source the importer pulls hotel payloads from.
type CatalogFeed interface {
	ListHotelIDs(ctx context.Context) ([]string, error)
	GetHotel(ctx context.Context, id string) (map[string]any, error)
}

// EventPublisher receives booking lifecycle events after commit.
type EventPublisher interface {
	PublishJSON(ctx context.Context, key string, v any) error
}

// UtteranceParser turns a free-text utterance into typed search criteria.
// Implementations are locale specific and live outside the engine.
type UtteranceParser interface {
	ParseCriteria(ctx context.Context, utterance string) (SearchCriteria, error)
}
