package app_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"hotel_concierge/internal/domain"
	"hotel_concierge/internal/storage/memory"
)

// ---- fixtures ----

func sampleHotels() []domain.HotelRecord {
	return []domain.HotelRecord{
		{ID: "HOTEL001", Name: "Taj Palace", Location: "Delhi", Stars: 5, GuestRating: 4.9, PricePerNight: 18000,
			Amenities: []string{"Pool", "Spa", "Free WiFi"}, RoomTypes: []string{"Deluxe", "Suite"}, MaxAdults: 4, MaxChildren: 2},
		{ID: "HOTEL002", Name: "Sea Breeze", Location: "Goa", Stars: 4, GuestRating: 4.5, PricePerNight: 8000,
			Amenities: []string{"Beach Access", "Pool"}, RoomTypes: []string{"Deluxe"}, MaxAdults: 3, MaxChildren: 2},
		{ID: "HOTEL003", Name: "City Inn", Location: "Mumbai", Stars: 3, GuestRating: 4.1, PricePerNight: 4500,
			Amenities: []string{"Free WiFi", "Gym"}, RoomTypes: []string{"Deluxe"}, MaxAdults: 2, MaxChildren: 1},
		{ID: "HOTEL004", Name: "Marine Crest", Location: "Mumbai", Stars: 5, GuestRating: 4.5, PricePerNight: 15000,
			Amenities: []string{"Spa", "Gym", "Pool"}, RoomTypes: []string{"Suite", "Presidential"}, MaxAdults: 4, MaxChildren: 3},
		{ID: "HOTEL005", Name: "Hill View", Location: "Shimla", Stars: 3, GuestRating: 3.8, PricePerNight: 3000,
			Amenities: []string{"Parking"}, MaxAdults: 2, MaxChildren: 0},
		{ID: "HOTEL006", Name: "Lake Pearl", Location: "Udaipur", Stars: 4, GuestRating: 4.5, PricePerNight: 8000,
			Amenities: []string{"Pool", "Restaurant"}, RoomTypes: []string{"Deluxe", "Suite"}, MaxAdults: 3, MaxChildren: 1},
		{ID: "HOTEL007", Name: "Old Fort Stay", Location: "Jaipur", Stars: 2, GuestRating: 3.2, PricePerNight: 2000,
			Amenities: []string{"Parking", "Free WiFi"}, MaxAdults: 2, MaxChildren: 2},
	}
}

func newCatalog(t *testing.T) *memory.Catalog {
	t.Helper()
	c, err := memory.NewCatalog(sampleHotels())
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	return c
}

func mustDate(t *testing.T, s string) domain.Date {
	t.Helper()
	d, err := domain.ParseDate(s)
	if err != nil {
		t.Fatalf("date %s: %v", s, err)
	}
	return d
}

func ptr[T any](v T) *T { return &v }

func ids(hs []domain.HotelRecord) []string {
	out := make([]string, 0, len(hs))
	for _, h := range hs {
		out = append(out, h.ID)
	}
	return out
}

// ---- fakes ----

// fakeCache round-trips through JSON like the redis adapter does.
type fakeCache struct {
	mu    sync.Mutex
	store map[string][]byte
	dels  []string
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.store[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(v, dst)
}

func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil {
		c.store = map[string][]byte{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.store[key] = b
	return nil
}

func (c *fakeCache) Del(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.store, key)
	c.dels = append(c.dels, key)
	return nil
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type recordingPublisher struct {
	mu   sync.Mutex
	keys []string
}

func (p *recordingPublisher) PublishJSON(ctx context.Context, key string, v any) error {
	p.mu.Lock()
	p.keys = append(p.keys, key)
	p.mu.Unlock()
	return nil
}
