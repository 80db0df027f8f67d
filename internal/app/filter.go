package app

import (
	"context"
	"strings"

	"hotel_concierge/internal/domain"
)

// Predicate is one independent field constraint.
type Predicate func(h domain.HotelRecord) bool

// Predicates builds the catalog-only predicates implied by the non-empty
// fields of c. Date availability needs the ledger and is applied by Pipeline.
func Predicates(c domain.SearchCriteria) []Predicate {
	var ps []Predicate

	if c.Location != nil && strings.TrimSpace(*c.Location) != "" {
		needle := strings.ToLower(strings.TrimSpace(*c.Location))
		ps = append(ps, func(h domain.HotelRecord) bool {
			return strings.Contains(strings.ToLower(h.Location), needle)
		})
	}
	if c.Adults != nil {
		n := *c.Adults
		ps = append(ps, func(h domain.HotelRecord) bool { return h.MaxAdults >= n })
	}
	if c.Children != nil {
		n := *c.Children
		ps = append(ps, func(h domain.HotelRecord) bool { return h.MaxChildren >= n })
	}
	if c.Amenities != nil {
		if wanted := splitList(*c.Amenities); len(wanted) > 0 {
			ps = append(ps, func(h domain.HotelRecord) bool { return hasAllAmenities(h.Amenities, wanted) })
		}
	}
	if c.MinPrice != nil {
		v := *c.MinPrice
		ps = append(ps, func(h domain.HotelRecord) bool { return float64(h.PricePerNight) >= v })
	}
	if c.MaxPrice != nil {
		v := *c.MaxPrice
		ps = append(ps, func(h domain.HotelRecord) bool { return float64(h.PricePerNight) <= v })
	}
	if c.MinStars != nil {
		v := *c.MinStars
		ps = append(ps, func(h domain.HotelRecord) bool { return h.Stars >= v })
	}
	if c.MaxStars != nil {
		v := *c.MaxStars
		ps = append(ps, func(h domain.HotelRecord) bool { return h.Stars <= v })
	}
	if c.MinRating != nil {
		v := *c.MinRating
		ps = append(ps, func(h domain.HotelRecord) bool { return h.GuestRating >= v })
	}
	if c.MaxRating != nil {
		v := *c.MaxRating
		ps = append(ps, func(h domain.HotelRecord) bool { return h.GuestRating <= v })
	}
	return ps
}

// Matches reports whether h satisfies every predicate.
func Matches(h domain.HotelRecord, ps []Predicate) bool {
	for _, p := range ps {
		if !p(h) {
			return false
		}
	}
	return true
}

// hasAllAmenities: every wanted term must be a case-insensitive substring
// of at least one of the hotel's amenity tokens.
func hasAllAmenities(have []string, wanted []string) bool {
	for _, w := range wanted {
		w = strings.ToLower(w)
		found := false
		for _, a := range have {
			if strings.Contains(strings.ToLower(a), w) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// splitList splits a comma-delimited list, trimming blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// Pipeline is the predicate filter over a catalog snapshot.
type Pipeline struct {
	avail *AvailabilityChecker
}

func NewPipeline(a *AvailabilityChecker) *Pipeline { return &Pipeline{avail: a} }

// Filter returns the hotels of cat that satisfy c, in catalog order.
// Catalog predicates run first; the ledger is consulted only for survivors.
func (p *Pipeline) Filter(ctx context.Context, cat *domain.Catalog, c domain.SearchCriteria) ([]domain.HotelRecord, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	ps := Predicates(c)
	stay, byDate := c.Stay()

	out := make([]domain.HotelRecord, 0, cat.Len())
	for _, h := range cat.All() {
		if !Matches(h, ps) {
			continue
		}
		if byDate {
			ok, err := p.avail.IsAvailable(ctx, h.ID, stay)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
		}
		out = append(out, h)
	}
	return out, nil
}
