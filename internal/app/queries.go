package app

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"hotel_concierge/internal/domain"
)

// DetailsHorizon is how many days of availability GetHotelDetails reports.
const DetailsHorizon = 30

// Cache keys for catalog-derived reads. The importer evicts them.
const (
	keyLocations = "catalog:locations"
	keyAmenities = "catalog:amenities"
	keyRoomTypes = "catalog:room_types"
	keyStats     = "catalog:stats"
)

func hotelKey(id string) string { return "hotel:" + id }

// CatalogKeys lists every cache key derived from the whole catalog.
func CatalogKeys() []string { return []string{keyLocations, keyAmenities, keyRoomTypes, keyStats} }

type QueryService struct {
	catalog  domain.CatalogSource
	pipeline *Pipeline
	avail    *AvailabilityChecker
	cache    domain.Cache
	cacheTTL time.Duration
	now      func() time.Time
}

func NewQueryService(cat domain.CatalogSource, l domain.Ledger, c domain.Cache, ttl time.Duration) *QueryService {
	avail := NewAvailabilityChecker(l)
	if c == nil {
		c = nopCache{}
	}
	return &QueryService{
		catalog:  cat,
		pipeline: NewPipeline(avail),
		avail:    avail,
		cache:    c,
		cacheTTL: ttl,
		now:      time.Now,
	}
}

// Search filters, ranks by rating and keeps the top DefaultTopN.
// Summary figures cover every match, not just the returned slice.
func (s *QueryService) Search(ctx context.Context, c domain.SearchCriteria) (domain.SearchResult, error) {
	matches, err := s.filter(ctx, c)
	if err != nil {
		return domain.SearchResult{}, err
	}
	RankDefault(matches)

	res := domain.SearchResult{
		TotalMatches: len(matches),
		Hotels:       append([]domain.HotelRecord{}, Top(matches, DefaultTopN)...),
		Criteria:     c,
	}
	if len(matches) > 0 {
		res.PriceRange = priceRange(matches)
		res.AverageRating = round2(averageRating(matches))
	}
	res.Message = fmt.Sprintf("Found %d hotels matching your criteria. Showing top %d by rating.",
		res.TotalMatches, len(res.Hotels))
	return res, nil
}

// List filters and ranks by the supplied key/order without truncation.
func (s *QueryService) List(ctx context.Context, c domain.SearchCriteria, sortBy, sortOrder string) (domain.HotelList, error) {
	matches, err := s.filter(ctx, c)
	if err != nil {
		return domain.HotelList{}, err
	}
	key, order := domain.ParseSortKey(sortBy), domain.ParseSortOrder(sortOrder)
	Rank(matches, key, order)
	return domain.HotelList{
		Hotels:     matches,
		TotalCount: len(matches),
		Filters:    c,
		SortBy:     key,
		SortOrder:  order,
	}, nil
}

func (s *QueryService) filter(ctx context.Context, c domain.SearchCriteria) ([]domain.HotelRecord, error) {
	cat, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return s.pipeline.Filter(ctx, cat, c)
}

func (s *QueryService) GetHotel(ctx context.Context, id string) (domain.HotelRecord, error) {
	key := hotelKey(id)
	var h domain.HotelRecord
	if ok, _ := s.cache.Get(ctx, key, &h); ok {
		return h, nil
	}
	cat, err := s.snapshot(ctx)
	if err != nil {
		return domain.HotelRecord{}, err
	}
	h, ok := cat.Get(id)
	if !ok {
		return domain.HotelRecord{}, fmt.Errorf("%w: no hotel with id %s", domain.ErrNotFound, id)
	}
	_ = s.cache.Set(ctx, key, h, int(s.cacheTTL.Seconds()))
	return h, nil
}

// GetHotelDetails adds per-night availability for the next DetailsHorizon days.
// Availability is never cached.
func (s *QueryService) GetHotelDetails(ctx context.Context, id string) (domain.HotelDetails, error) {
	h, err := s.GetHotel(ctx, id)
	if err != nil {
		return domain.HotelDetails{}, err
	}
	days, err := s.avail.DailyAvailability(ctx, h.ID, domain.DateOf(s.now()), DetailsHorizon)
	if err != nil {
		return domain.HotelDetails{}, err
	}
	return domain.HotelDetails{HotelRecord: h, Availability: days}, nil
}

func (s *QueryService) Locations(ctx context.Context) ([]string, error) {
	return s.cachedList(ctx, keyLocations, func(h domain.HotelRecord) []string { return []string{h.Location} })
}

func (s *QueryService) Amenities(ctx context.Context) ([]string, error) {
	return s.cachedList(ctx, keyAmenities, func(h domain.HotelRecord) []string { return h.Amenities })
}

func (s *QueryService) RoomTypes(ctx context.Context) ([]string, error) {
	return s.cachedList(ctx, keyRoomTypes, func(h domain.HotelRecord) []string { return h.RoomTypes })
}

// cachedList collects distinct, trimmed, sorted values across the catalog.
func (s *QueryService) cachedList(ctx context.Context, key string, values func(domain.HotelRecord) []string) ([]string, error) {
	var out []string
	if ok, _ := s.cache.Get(ctx, key, &out); ok {
		return out, nil
	}
	cat, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	seen := map[string]struct{}{}
	out = []string{}
	for _, h := range cat.All() {
		for _, v := range values(h) {
			v = strings.TrimSpace(v)
			if v == "" {
				continue
			}
			if _, dup := seen[v]; dup {
				continue
			}
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	sort.Strings(out)
	_ = s.cache.Set(ctx, key, out, int(s.cacheTTL.Seconds()))
	return out, nil
}

func (s *QueryService) Stats(ctx context.Context) (domain.CatalogStats, error) {
	var st domain.CatalogStats
	if ok, _ := s.cache.Get(ctx, keyStats, &st); ok {
		return st, nil
	}
	cat, err := s.snapshot(ctx)
	if err != nil {
		return domain.CatalogStats{}, err
	}
	hotels := cat.All()
	st = domain.CatalogStats{TotalHotels: len(hotels), StarsDistribution: map[string]int{}}
	if len(hotels) == 0 {
		return st, nil
	}

	var priceSum float64
	locations := map[string]struct{}{}
	st.RatingRange = domain.RatingRange{Min: hotels[0].GuestRating, Max: hotels[0].GuestRating}
	for _, h := range hotels {
		priceSum += float64(h.PricePerNight)
		st.RatingRange.Min = math.Min(st.RatingRange.Min, h.GuestRating)
		st.RatingRange.Max = math.Max(st.RatingRange.Max, h.GuestRating)
		st.StarsDistribution[strconv.Itoa(h.Stars)]++
		locations[h.Location] = struct{}{}
	}
	st.AveragePrice = round2(priceSum / float64(len(hotels)))
	st.AverageRating = round2(averageRating(hotels))
	st.PriceRange = priceRange(hotels)
	st.LocationsCount = len(locations)

	_ = s.cache.Set(ctx, keyStats, st, int(s.cacheTTL.Seconds()))
	return st, nil
}

func (s *QueryService) snapshot(ctx context.Context) (*domain.Catalog, error) {
	cat, err := s.catalog.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: load catalog: %v", domain.ErrInternal, err)
	}
	return cat, nil
}

func priceRange(hs []domain.HotelRecord) domain.PriceRange {
	pr := domain.PriceRange{Min: hs[0].PricePerNight, Max: hs[0].PricePerNight}
	for _, h := range hs[1:] {
		pr.Min = min(pr.Min, h.PricePerNight)
		pr.Max = max(pr.Max, h.PricePerNight)
	}
	return pr
}

func averageRating(hs []domain.HotelRecord) float64 {
	var sum float64
	for _, h := range hs {
		sum += h.GuestRating
	}
	return sum / float64(len(hs))
}

func round2(f float64) float64 { return math.Round(f*100) / 100 }

type nopCache struct{}

func (nopCache) Get(context.Context, string, any) (bool, error) { return false, nil }
func (nopCache) Set(context.Context, string, any, int) error    { return nil }
func (nopCache) Del(context.Context, string) error              { return nil }
