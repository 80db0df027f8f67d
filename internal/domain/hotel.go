package domain

type HotelRecord struct {
	ID            string   `json:"hotel_id"`
	Name          string   `json:"name"`
	Location      string   `json:"location"`
	Address       string   `json:"address,omitempty"`
	Description   string   `json:"description,omitempty"`
	Stars         int      `json:"stars"`
	GuestRating   float64  `json:"guest_rating"`
	Amenities     []string `json:"amenities"`
	RoomTypes     []string `json:"room_types,omitempty"`
	PricePerNight int64    `json:"price_per_night"`
	MaxAdults     int      `json:"max_adults"`
	MaxChildren   int      `json:"max_children"`
}

// SearchCriteria is the optional constraint set for search and list.
// A nil field places no constraint on its dimension.
type SearchCriteria struct {
	Location  *string  `json:"location,omitempty"`
	CheckIn   *Date    `json:"check_in,omitempty"`
	CheckOut  *Date    `json:"check_out,omitempty"`
	Adults    *int     `json:"adults,omitempty"`
	Children  *int     `json:"children,omitempty"`
	Amenities *string  `json:"amenities,omitempty"` // comma-delimited
	MinPrice  *float64 `json:"min_price,omitempty"`
	MaxPrice  *float64 `json:"max_price,omitempty"`
	MinStars  *int     `json:"min_stars,omitempty"`
	MaxStars  *int     `json:"max_stars,omitempty"`
	MinRating *float64 `json:"min_rating,omitempty"`
	MaxRating *float64 `json:"max_rating,omitempty"`
}

// Stay returns the requested interval when both dates are set.
func (c SearchCriteria) Stay() (Stay, bool) {
	if c.CheckIn == nil || c.CheckOut == nil {
		return Stay{}, false
	}
	return Stay{CheckIn: *c.CheckIn, CheckOut: *c.CheckOut}, true
}

// Validate rejects a date pair that does not form at least one night.
func (c SearchCriteria) Validate() error {
	if s, ok := c.Stay(); ok {
		return s.Validate()
	}
	return nil
}

type SortKey string

const (
	SortByID          SortKey = "hotel_id"
	SortByName        SortKey = "name"
	SortByLocation    SortKey = "location"
	SortByStars       SortKey = "stars"
	SortByGuestRating SortKey = "guest_rating"
	SortByPrice       SortKey = "price"
	SortByMaxAdults   SortKey = "max_adults"
	SortByMaxChildren SortKey = "max_children"
)

// column names accepted on the wire in addition to the canonical keys
var sortAliases = map[string]SortKey{
	"hotel_name":      SortByName,
	"price_per_night": SortByPrice,
	"rating":          SortByGuestRating,
}

// ParseSortKey falls back to guest_rating for anything it does not recognise.
func ParseSortKey(s string) SortKey {
	switch k := SortKey(s); k {
	case SortByID, SortByName, SortByLocation, SortByStars, SortByGuestRating,
		SortByPrice, SortByMaxAdults, SortByMaxChildren:
		return k
	}
	if k, ok := sortAliases[s]; ok {
		return k
	}
	return SortByGuestRating
}

type SortOrder string

const (
	Asc  SortOrder = "asc"
	Desc SortOrder = "desc"
)

func ParseSortOrder(s string) SortOrder {
	if SortOrder(s) == Asc {
		return Asc
	}
	return Desc
}

type PriceRange struct {
	Min int64 `json:"min"`
	Max int64 `json:"max"`
}

type RatingRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Read models returned by the query service.

type SearchResult struct {
	TotalMatches  int            `json:"total_matches"`
	Hotels        []HotelRecord  `json:"hotels"`
	PriceRange    PriceRange     `json:"price_range"`
	AverageRating float64        `json:"average_rating"`
	Criteria      SearchCriteria `json:"search_criteria"`
	Message       string         `json:"message"`
}

type HotelList struct {
	Hotels     []HotelRecord  `json:"hotels"`
	TotalCount int            `json:"total_count"`
	Filters    SearchCriteria `json:"filters_applied"`
	SortBy     SortKey        `json:"sort_by"`
	SortOrder  SortOrder      `json:"sort_order"`
}

type DayAvailability struct {
	Date      Date `json:"date"`
	Available bool `json:"available"`
}

type HotelDetails struct {
	HotelRecord
	Availability []DayAvailability `json:"availability"`
}

type CatalogStats struct {
	TotalHotels       int            `json:"total_hotels"`
	AveragePrice      float64        `json:"average_price"`
	AverageRating     float64        `json:"average_rating"`
	PriceRange        PriceRange     `json:"price_range"`
	RatingRange       RatingRange    `json:"rating_range"`
	StarsDistribution map[string]int `json:"stars_distribution"`
	LocationsCount    int            `json:"locations_count"`
}
