package app

import (
	"cmp"
	"slices"
	"strings"

	"hotel_concierge/internal/domain"
)

const DefaultTopN = 5

// Rank sorts hotels in place by key/order. Ties fall through to price
// ascending and then hotel_id, so the order is total and reproducible.
func Rank(hotels []domain.HotelRecord, key domain.SortKey, order domain.SortOrder) []domain.HotelRecord {
	primary := comparator(key)
	slices.SortStableFunc(hotels, func(a, b domain.HotelRecord) int {
		c := primary(a, b)
		if order == domain.Desc {
			c = -c
		}
		if c != 0 {
			return c
		}
		if c := cmp.Compare(a.PricePerNight, b.PricePerNight); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return hotels
}

// RankDefault is guest rating descending, cheapest first on ties.
func RankDefault(hotels []domain.HotelRecord) []domain.HotelRecord {
	return Rank(hotels, domain.SortByGuestRating, domain.Desc)
}

// Top truncates an already ranked slice. n <= 0 means unbounded.
func Top(hotels []domain.HotelRecord, n int) []domain.HotelRecord {
	if n <= 0 || len(hotels) <= n {
		return hotels
	}
	return hotels[:n]
}

func comparator(key domain.SortKey) func(a, b domain.HotelRecord) int {
	switch key {
	case domain.SortByID:
		return func(a, b domain.HotelRecord) int { return cmp.Compare(a.ID, b.ID) }
	case domain.SortByName:
		return func(a, b domain.HotelRecord) int { return strings.Compare(a.Name, b.Name) }
	case domain.SortByLocation:
		return func(a, b domain.HotelRecord) int { return strings.Compare(a.Location, b.Location) }
	case domain.SortByStars:
		return func(a, b domain.HotelRecord) int { return cmp.Compare(a.Stars, b.Stars) }
	case domain.SortByPrice:
		return func(a, b domain.HotelRecord) int { return cmp.Compare(a.PricePerNight, b.PricePerNight) }
	case domain.SortByMaxAdults:
		return func(a, b domain.HotelRecord) int { return cmp.Compare(a.MaxAdults, b.MaxAdults) }
	case domain.SortByMaxChildren:
		return func(a, b domain.HotelRecord) int { return cmp.Compare(a.MaxChildren, b.MaxChildren) }
	default:
		return func(a, b domain.HotelRecord) int { return cmp.Compare(a.GuestRating, b.GuestRating) }
	}
}
