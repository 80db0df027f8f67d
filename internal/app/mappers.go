package app

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"hotel_concierge/internal/domain"
)

/********** alias registries (single source of truth) **********/

// hotelAliases covers the column names seen across catalog feeds and CSV exports.
var hotelAliases = map[string][]string{
	"id":          {"hotel_id", "id", "property_id"},
	"name":        {"name", "hotel_name", "title"},
	"location":    {"location", "city", "address.city"},
	"address":     {"address", "address.line", "full_address"},
	"description": {"description", "summary"},
	"stars":       {"stars", "star_rating", "rating.stars"},
	"rating":      {"guest_rating", "rating", "review_score"},
	"price":       {"price_per_night", "price", "nightly_rate"},
	"max_adults":  {"max_adults", "capacity.adults"},
	"max_kids":    {"max_children", "capacity.children"},
	"amenities":   {"amenities", "facilities"},
	"room_types":  {"room_types", "rooms"},
}

// argAliases maps tool/query argument names onto criteria and booking fields.
var argAliases = map[string][]string{
	"location":   {"location", "city"},
	"check_in":   {"check_in", "check_in_date", "checkin"},
	"check_out":  {"check_out", "check_out_date", "checkout"},
	"adults":     {"adults", "num_adults"},
	"children":   {"children", "kids", "num_children"},
	"amenities":  {"amenities"},
	"min_price":  {"min_price"},
	"max_price":  {"max_price"},
	"min_stars":  {"min_stars"},
	"max_stars":  {"max_stars"},
	"min_rating": {"min_rating"},
	"max_rating": {"max_rating"},
	"hotel_id":   {"hotel_id"},
	"name":       {"guest_name", "name"},
	"email":      {"guest_email", "email"},
	"phone":      {"guest_phone", "phone"},
	"room_type":  {"room_type"},
	"requests":   {"special_requests", "special_request"},
}

/********** tiny helpers **********/

// lookupAny: safe nested lookup with dot paths on maps.
func lookupAny(m map[string]any, path string) any {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := obj[part]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}

// lookupStr returns the string (or stringified number) at path, or "".
func lookupStr(m map[string]any, path string) string {
	switch v := lookupAny(m, path).(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	}
	return ""
}

func firstStr(m map[string]any, paths ...string) string {
	for _, p := range paths {
		if s := lookupStr(m, p); s != "" {
			return s
		}
	}
	return ""
}

// getFloatFlexible: number from several paths (float64/int/string like "4,5").
func getFloatFlexible(m map[string]any, paths ...string) *float64 {
	for _, k := range paths {
		switch v := lookupAny(m, k).(type) {
		case float64:
			f := v
			return &f
		case int:
			f := float64(v)
			return &f
		case int64:
			f := float64(v)
			return &f
		case string:
			s := strings.TrimSpace(strings.ReplaceAll(v, ",", "."))
			if s == "" {
				continue
			}
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				return &f
			}
		}
	}
	return nil
}

// getIntFlexible: integer from several paths; fractional values are truncated.
func getIntFlexible(m map[string]any, paths ...string) *int {
	if f := getFloatFlexible(m, paths...); f != nil && !math.IsNaN(*f) && !math.IsInf(*f, 0) {
		n := int(*f)
		return &n
	}
	return nil
}

// firstSliceStrings: accept []any of strings/{name}, or a comma-separated string.
func firstSliceStrings(m map[string]any, paths ...string) []string {
	for _, k := range paths {
		switch raw := lookupAny(m, k).(type) {
		case []any:
			out := make([]string, 0, len(raw))
			for _, it := range raw {
				switch t := it.(type) {
				case string:
					if s := strings.TrimSpace(t); s != "" {
						out = append(out, s)
					}
				case map[string]any:
					if n, ok := t["name"].(string); ok && strings.TrimSpace(n) != "" {
						out = append(out, strings.TrimSpace(n))
					}
				}
			}
			if len(out) > 0 {
				return out
			}
		case []string:
			if out := splitList(strings.Join(raw, ",")); len(out) > 0 {
				return out
			}
		case string:
			if out := splitList(raw); len(out) > 0 {
				return out
			}
		}
	}
	return nil
}

func ptrStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

/********** catalog record mapper **********/

// mapHotel turns a feed/file payload into a HotelRecord.
func mapHotel(p map[string]any) (domain.HotelRecord, error) {
	h := domain.HotelRecord{
		ID:          firstStr(p, hotelAliases["id"]...),
		Name:        firstStr(p, hotelAliases["name"]...),
		Location:    firstStr(p, hotelAliases["location"]...),
		Address:     firstStr(p, hotelAliases["address"]...),
		Description: firstStr(p, hotelAliases["description"]...),
		Amenities:   firstSliceStrings(p, hotelAliases["amenities"]...),
		RoomTypes:   firstSliceStrings(p, hotelAliases["room_types"]...),
	}
	if h.ID == "" {
		return domain.HotelRecord{}, fmt.Errorf("%w: hotel payload without id", domain.ErrValidation)
	}
	if v := getIntFlexible(p, hotelAliases["stars"]...); v != nil {
		h.Stars = *v
	}
	if v := getFloatFlexible(p, hotelAliases["rating"]...); v != nil {
		h.GuestRating = *v
	}
	if v := getFloatFlexible(p, hotelAliases["price"]...); v != nil {
		h.PricePerNight = int64(math.Round(*v))
	}
	if v := getIntFlexible(p, hotelAliases["max_adults"]...); v != nil {
		h.MaxAdults = *v
	}
	if v := getIntFlexible(p, hotelAliases["max_kids"]...); v != nil {
		h.MaxChildren = *v
	}
	if h.Amenities == nil {
		h.Amenities = []string{}
	}

	switch {
	case h.Stars < 1 || h.Stars > 5:
		return domain.HotelRecord{}, fmt.Errorf("%w: hotel %s: stars %d outside 1-5", domain.ErrValidation, h.ID, h.Stars)
	case h.GuestRating < 0 || h.GuestRating > 5:
		return domain.HotelRecord{}, fmt.Errorf("%w: hotel %s: guest_rating %.2f outside 0-5", domain.ErrValidation, h.ID, h.GuestRating)
	case h.PricePerNight < 0:
		return domain.HotelRecord{}, fmt.Errorf("%w: hotel %s: negative price", domain.ErrValidation, h.ID)
	}
	return h, nil
}

// MapHotels maps a JSON array of hotel payloads, as stored in a catalog file.
func MapHotels(raw []byte) ([]domain.HotelRecord, error) {
	var items []map[string]any
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	out := make([]domain.HotelRecord, 0, len(items))
	for i, it := range items {
		h, err := mapHotel(it)
		if err != nil {
			return nil, fmt.Errorf("catalog item %d: %w", i, err)
		}
		out = append(out, h)
	}
	return out, nil
}

/********** argument mappers (tool calls, query strings) **********/

// CriteriaFromArgs builds search criteria from loosely typed arguments.
// Unparseable optional numbers are ignored; unparseable dates are InvalidDate.
func CriteriaFromArgs(args map[string]any) (domain.SearchCriteria, error) {
	var c domain.SearchCriteria
	c.Location = ptrStr(firstStr(args, argAliases["location"]...))
	c.Amenities = ptrStr(strings.Join(firstSliceStrings(args, argAliases["amenities"]...), ","))

	for _, d := range []struct {
		key string
		dst **domain.Date
	}{{"check_in", &c.CheckIn}, {"check_out", &c.CheckOut}} {
		s := firstStr(args, argAliases[d.key]...)
		if s == "" {
			continue
		}
		parsed, err := domain.ParseDate(s)
		if err != nil {
			return domain.SearchCriteria{}, err
		}
		*d.dst = &parsed
	}

	c.Adults = getIntFlexible(args, argAliases["adults"]...)
	c.Children = getIntFlexible(args, argAliases["children"]...)
	c.MinStars = getIntFlexible(args, argAliases["min_stars"]...)
	c.MaxStars = getIntFlexible(args, argAliases["max_stars"]...)
	c.MinPrice = getFloatFlexible(args, argAliases["min_price"]...)
	c.MaxPrice = getFloatFlexible(args, argAliases["max_price"]...)
	c.MinRating = getFloatFlexible(args, argAliases["min_rating"]...)
	c.MaxRating = getFloatFlexible(args, argAliases["max_rating"]...)

	if err := c.Validate(); err != nil {
		return domain.SearchCriteria{}, err
	}
	return c, nil
}

// BookingRequestFromArgs never substitutes defaults for required fields;
// a non-numeric adults value is left nil and reported as missing.
func BookingRequestFromArgs(args map[string]any) domain.BookingRequest {
	r := domain.BookingRequest{
		HotelID:         firstStr(args, argAliases["hotel_id"]...),
		GuestName:       firstStr(args, argAliases["name"]...),
		GuestEmail:      firstStr(args, argAliases["email"]...),
		GuestPhone:      firstStr(args, argAliases["phone"]...),
		CheckIn:         firstStr(args, argAliases["check_in"]...),
		CheckOut:        firstStr(args, argAliases["check_out"]...),
		Adults:          getIntFlexible(args, argAliases["adults"]...),
		Children:        getIntFlexible(args, argAliases["children"]...),
		RoomType:        firstStr(args, argAliases["room_type"]...),
		SpecialRequests: firstStr(args, argAliases["requests"]...),
	}
	if r.Adults == nil && firstStr(args, argAliases["adults"]...) != "" {
		log.Debug().Str("adults", firstStr(args, argAliases["adults"]...)).Msg("non-numeric adults argument")
	}
	return r
}
