package app_test

import (
	"errors"
	"testing"

	"hotel_concierge/internal/app"
	"hotel_concierge/internal/domain"
)

func TestCriteriaFromArgs_LooseTypes(t *testing.T) {
	c, err := app.CriteriaFromArgs(map[string]any{
		"location":       "Goa",
		"check_in_date":  "2099-01-10",
		"check_out":      "2099-01-12",
		"adults":         "2",
		"children":       float64(1),
		"amenities":      []any{"pool", "spa"},
		"min_price":      "abc", // junk optional number is ignored
		"max_price":      9000,
		"min_stars":      "4",
		"min_rating":     "4,2",
		"unrelated_flag": true,
	})
	if err != nil {
		t.Fatalf("criteria: %v", err)
	}
	if c.Location == nil || *c.Location != "Goa" {
		t.Fatalf("location=%v", c.Location)
	}
	if c.CheckIn == nil || c.CheckIn.String() != "2099-01-10" || c.CheckOut == nil {
		t.Fatalf("dates=%v %v", c.CheckIn, c.CheckOut)
	}
	if *c.Adults != 2 || *c.Children != 1 || *c.MinStars != 4 {
		t.Fatalf("numbers: adults=%d children=%d stars=%d", *c.Adults, *c.Children, *c.MinStars)
	}
	if c.MinPrice != nil {
		t.Fatalf("junk min_price should be dropped, got %v", *c.MinPrice)
	}
	if *c.MaxPrice != 9000 || *c.MinRating != 4.2 {
		t.Fatalf("max_price=%v min_rating=%v", *c.MaxPrice, *c.MinRating)
	}
	if *c.Amenities != "pool,spa" {
		t.Fatalf("amenities=%q", *c.Amenities)
	}
}

func TestCriteriaFromArgs_BadDates(t *testing.T) {
	if _, err := app.CriteriaFromArgs(map[string]any{"check_in": "tomorrow"}); !errors.Is(err, domain.ErrInvalidDate) {
		t.Fatalf("bad format: %v", err)
	}
	_, err := app.CriteriaFromArgs(map[string]any{"check_in": "2099-01-12", "check_out": "2099-01-10"})
	if !errors.Is(err, domain.ErrInvalidDate) {
		t.Fatalf("inverted: %v", err)
	}
}

func TestBookingRequestFromArgs(t *testing.T) {
	r := app.BookingRequestFromArgs(map[string]any{
		"hotel_id":    "HOTEL001",
		"guest_name":  "Asha",
		"guest_email": "asha@example.com",
		"check_in":    "2099-01-10",
		"check_out":   "2099-01-12",
		"adults":      "two",
		"room_type":   "Suite",
	})
	if r.HotelID != "HOTEL001" || r.GuestName != "Asha" || r.RoomType != "Suite" {
		t.Fatalf("unexpected request: %+v", r)
	}
	if got := r.MissingField(); got != "adults" {
		t.Fatalf("non-numeric adults must stay missing, got %q", got)
	}
}

func TestMapHotels_Aliases(t *testing.T) {
	raw := []byte(`[
		{"hotel_id":"H1","hotel_name":"One","city":"Pune","star_rating":"4","rating":4.4,"price":"5500","max_adults":3,"max_children":1,"amenities":"Pool, Gym"},
		{"id":"H2","name":"Two","location":"Goa","stars":5,"guest_rating":4.8,"price_per_night":12000,"amenities":[{"name":"Spa"}],"room_types":["Suite"]}
	]`)
	hs, err := app.MapHotels(raw)
	if err != nil {
		t.Fatalf("map: %v", err)
	}
	if len(hs) != 2 {
		t.Fatalf("got %d hotels", len(hs))
	}
	one := hs[0]
	if one.ID != "H1" || one.Name != "One" || one.Location != "Pune" || one.Stars != 4 || one.PricePerNight != 5500 {
		t.Fatalf("unexpected H1: %+v", one)
	}
	if len(one.Amenities) != 2 || one.Amenities[1] != "Gym" {
		t.Fatalf("amenities=%v", one.Amenities)
	}
	if hs[1].Amenities[0] != "Spa" || hs[1].RoomTypes[0] != "Suite" {
		t.Fatalf("unexpected H2: %+v", hs[1])
	}
}

func TestMapHotels_RejectsBadRecords(t *testing.T) {
	for _, raw := range []string{
		`[{"name":"no id","stars":3}]`,
		`[{"hotel_id":"H1","stars":9}]`,
		`{"not":"an array"}`,
	} {
		if _, err := app.MapHotels([]byte(raw)); err == nil {
			t.Errorf("expected error for %s", raw)
		}
	}
}
