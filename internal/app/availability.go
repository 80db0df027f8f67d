package app

import (
	"context"
	"fmt"

	"hotel_concierge/internal/domain"
)

type AvailabilityChecker struct {
	ledger domain.Ledger
}

func NewAvailabilityChecker(l domain.Ledger) *AvailabilityChecker {
	return &AvailabilityChecker{ledger: l}
}

// IsAvailable reports whether no confirmed booking of hotelID overlaps stay.
func (c *AvailabilityChecker) IsAvailable(ctx context.Context, hotelID string, stay domain.Stay) (bool, error) {
	bs, err := c.ledger.FindByHotel(ctx, hotelID)
	if err != nil {
		return false, fmt.Errorf("%w: ledger lookup for %s: %v", domain.ErrInternal, hotelID, err)
	}
	return stayIsFree(hotelID, stay, bs), nil
}

// DailyAvailability computes one flag per night starting at from.
// The ledger is read once; each day is tested as [d, d+1).
func (c *AvailabilityChecker) DailyAvailability(ctx context.Context, hotelID string, from domain.Date, days int) ([]domain.DayAvailability, error) {
	bs, err := c.ledger.FindByHotel(ctx, hotelID)
	if err != nil {
		return nil, fmt.Errorf("%w: ledger lookup for %s: %v", domain.ErrInternal, hotelID, err)
	}
	out := make([]domain.DayAvailability, 0, days)
	for i := 0; i < days; i++ {
		d := from.AddDays(i)
		night := domain.Stay{CheckIn: d, CheckOut: d.AddDays(1)}
		out = append(out, domain.DayAvailability{Date: d, Available: stayIsFree(hotelID, night, bs)})
	}
	return out, nil
}

// stayIsFree ignores cancelled bookings and bookings of other hotels.
func stayIsFree(hotelID string, stay domain.Stay, bookings []domain.Booking) bool {
	for _, b := range bookings {
		if b.HotelID != hotelID || b.Status != domain.StatusConfirmed {
			continue
		}
		if stay.Overlaps(b.Stay()) {
			return false
		}
	}
	return true
}
