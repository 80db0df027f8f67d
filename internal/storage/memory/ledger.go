package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"hotel_concierge/internal/domain"
)

// Ledger is an in-process booking store. With a path set, every mutation
// rewrites the JSON file atomically (temp file plus rename).
type Ledger struct {
	mu    sync.RWMutex
	byID  map[string]domain.Booking
	order []string
	path  string
}

func NewLedger() *Ledger {
	return &Ledger{byID: map[string]domain.Booking{}}
}

// NewFileLedger loads path if it exists and persists to it afterwards.
func NewFileLedger(path string) (*Ledger, error) {
	l := NewLedger()
	l.path = path

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return l, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read ledger %s: %w", path, err)
	}
	if len(raw) == 0 {
		return l, nil
	}
	var bs []domain.Booking
	if err := json.Unmarshal(raw, &bs); err != nil {
		return nil, fmt.Errorf("decode ledger %s: %w", path, err)
	}
	for _, b := range bs {
		if _, dup := l.byID[b.ID]; dup {
			return nil, fmt.Errorf("ledger %s: duplicate booking_id %s", path, b.ID)
		}
		l.byID[b.ID] = b
		l.order = append(l.order, b.ID)
	}
	return l, nil
}

func (l *Ledger) Append(_ context.Context, b domain.Booking) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, dup := l.byID[b.ID]; dup {
		return fmt.Errorf("booking_id %s already exists", b.ID)
	}
	if b.Status == domain.StatusConfirmed {
		for _, id := range l.order {
			o := l.byID[id]
			if o.HotelID == b.HotelID && o.Status == domain.StatusConfirmed && o.Stay().Overlaps(b.Stay()) {
				return fmt.Errorf("%w: overlaps booking %s", domain.ErrUnavailable, o.ID)
			}
		}
	}

	l.byID[b.ID] = b
	l.order = append(l.order, b.ID)
	if err := l.persist(); err != nil {
		delete(l.byID, b.ID)
		l.order = l.order[:len(l.order)-1]
		return err
	}
	return nil
}

func (l *Ledger) Get(_ context.Context, id string) (domain.Booking, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	b, ok := l.byID[id]
	if !ok {
		return domain.Booking{}, domain.ErrNotFound
	}
	return b, nil
}

// FindByHotel returns the hotel's bookings in insertion order, any status.
func (l *Ledger) FindByHotel(_ context.Context, hotelID string) ([]domain.Booking, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []domain.Booking
	for _, id := range l.order {
		if b := l.byID[id]; b.HotelID == hotelID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (l *Ledger) UpdateStatus(_ context.Context, id string, status domain.BookingStatus) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	prev := b.Status
	b.Status = status
	l.byID[id] = b
	if err := l.persist(); err != nil {
		b.Status = prev
		l.byID[id] = b
		return err
	}
	return nil
}

// Len is the number of bookings of any status.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.order)
}

// persist must be called with mu held.
func (l *Ledger) persist() error {
	if l.path == "" {
		return nil
	}
	all := make([]domain.Booking, 0, len(l.order))
	for _, id := range l.order {
		all = append(all, l.byID[id])
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].CreatedAt.Before(all[j].CreatedAt) })

	raw, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(l.path), ".ledger-*.json")
	if err != nil {
		return fmt.Errorf("persist ledger: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("persist ledger: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("persist ledger: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("persist ledger: %w", err)
	}
	if err := os.Rename(tmp.Name(), l.path); err != nil {
		return fmt.Errorf("persist ledger: %w", err)
	}
	return nil
}
