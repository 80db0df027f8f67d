package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"hotel_concierge/internal/domain"
)

// Catalog holds the current snapshot behind an atomic pointer. Readers never
// block; UpsertHotel publishes a fresh snapshot.
type Catalog struct {
	snap   atomic.Pointer[domain.Catalog]
	writes chan struct{} // serialises upserts
}

func NewCatalog(hotels []domain.HotelRecord) (*Catalog, error) {
	cat, err := domain.NewCatalog(hotels)
	if err != nil {
		return nil, err
	}
	c := &Catalog{writes: make(chan struct{}, 1)}
	c.snap.Store(cat)
	return c, nil
}

// LoadCatalogFile reads a catalog file and decodes it with decode,
// which maps the raw payload to records.
func LoadCatalogFile(path string, decode func([]byte) ([]domain.HotelRecord, error)) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	hotels, err := decode(raw)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return NewCatalog(hotels)
}

func (c *Catalog) Snapshot(context.Context) (*domain.Catalog, error) {
	return c.snap.Load(), nil
}

// UpsertHotel replaces or appends h. The raw payload is not retained.
func (c *Catalog) UpsertHotel(ctx context.Context, h domain.HotelRecord, _ []byte) error {
	select {
	case c.writes <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-c.writes }()

	hotels := c.snap.Load().All()
	replaced := false
	for i := range hotels {
		if hotels[i].ID == h.ID {
			hotels[i] = h
			replaced = true
			break
		}
	}
	if !replaced {
		hotels = append(hotels, h)
	}
	next, err := domain.NewCatalog(hotels)
	if err != nil {
		return err
	}
	c.snap.Store(next)
	return nil
}

// SaveFile writes the current snapshot to path as a JSON array of records,
// replacing the file atomically.
func (c *Catalog) SaveFile(path string) error {
	raw, err := json.MarshalIndent(c.snap.Load().All(), "", "  ")
	if err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".catalog-*.json")
	if err != nil {
		return fmt.Errorf("save catalog: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("save catalog: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("save catalog: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}
