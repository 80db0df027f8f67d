package httpserver_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	httpserver "hotel_concierge/internal/adapters/http_server"
	"hotel_concierge/internal/adapters/slots"
	"hotel_concierge/internal/app"
	"hotel_concierge/internal/domain"
	"hotel_concierge/internal/storage/memory"
)

var today = time.Date(2030, 3, 1, 9, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T, rps float64) *httptest.Server {
	t.Helper()
	cat, err := memory.NewCatalog([]domain.HotelRecord{
		{ID: "HOTEL001", Name: "Taj Palace", Location: "Delhi", Stars: 5, GuestRating: 4.9, PricePerNight: 18000,
			Amenities: []string{"Pool", "Spa"}, RoomTypes: []string{"Deluxe", "Suite"}, MaxAdults: 4, MaxChildren: 2},
		{ID: "HOTEL002", Name: "Sea Breeze", Location: "Goa", Stars: 4, GuestRating: 4.5, PricePerNight: 8000,
			Amenities: []string{"Beach Access", "Pool"}, RoomTypes: []string{"Deluxe"}, MaxAdults: 3, MaxChildren: 2},
		{ID: "HOTEL003", Name: "City Inn", Location: "Mumbai", Stars: 3, GuestRating: 4.1, PricePerNight: 4500,
			Amenities: []string{"Free WiFi", "Gym"}, MaxAdults: 2, MaxChildren: 1},
	})
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	ledger := memory.NewLedger()
	q := app.NewQueryService(cat, ledger, nil, time.Minute)
	b := app.NewBookingService(cat, ledger, app.WithClock(func() time.Time { return today }))

	srv := httpserver.New(0)
	srv.MountHandlers(&httpserver.Handlers{
		Q:            q,
		B:            b,
		Parser:       slots.NewRegexParser(q),
		BookingRPS:   rps,
		BookingBurst: 2,
	})
	ts := httptest.NewServer(srv.Mux())
	t.Cleanup(ts.Close)
	return ts
}

func do(t *testing.T, method, url string, body any, hdr map[string]string) (*http.Response, map[string]any) {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		buf, _ := json.Marshal(body)
		rd = bytes.NewReader(buf)
	} else {
		rd = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, rd)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer res.Body.Close()
	var out map[string]any
	_ = json.NewDecoder(res.Body).Decode(&out)
	return res, out
}

func bookingArgs(checkIn, checkOut string) map[string]any {
	return map[string]any{
		"hotel_id":    "HOTEL001",
		"guest_name":  "Asha Rao",
		"guest_email": "asha@example.com",
		"check_in":    checkIn,
		"check_out":   checkOut,
		"adults":      2,
	}
}

func TestSearch_FiltersAndRanks(t *testing.T) {
	ts := newTestServer(t, 0)

	res, body := do(t, http.MethodGet, ts.URL+"/v1/hotels/search?amenities=pool", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status %d", res.StatusCode)
	}
	if body["total_matches"].(float64) != 2 {
		t.Fatalf("total_matches: %v", body["total_matches"])
	}
	hotels := body["hotels"].([]any)
	if first := hotels[0].(map[string]any)["hotel_id"]; first != "HOTEL001" {
		t.Fatalf("expected HOTEL001 first, got %v", first)
	}
	if res.Header.Get("ETag") == "" {
		t.Fatalf("expected ETag header")
	}
}

func TestSearch_InvertedDatesIsBadRequest(t *testing.T) {
	ts := newTestServer(t, 0)

	res, body := do(t, http.MethodGet, ts.URL+"/v1/hotels/search?check_in=2030-03-10&check_out=2030-03-05", nil, nil)
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("status %d", res.StatusCode)
	}
	if body["code"] != domain.CodeInvalidDate {
		t.Fatalf("code: %v", body["code"])
	}
	if ct := res.Header.Get("Content-Type"); ct != "application/problem+json" {
		t.Fatalf("content type %q", ct)
	}
}

func TestGetHotel_NotFoundProblem(t *testing.T) {
	ts := newTestServer(t, 0)

	res, body := do(t, http.MethodGet, ts.URL+"/v1/hotels/NOPE", nil, nil)
	if res.StatusCode != http.StatusNotFound || body["code"] != domain.CodeNotFound {
		t.Fatalf("got %d %v", res.StatusCode, body)
	}
}

func TestGetHotel_ETagNotModified(t *testing.T) {
	ts := newTestServer(t, 0)

	res, _ := do(t, http.MethodGet, ts.URL+"/v1/hotels/HOTEL002", nil, nil)
	etag := res.Header.Get("ETag")
	if res.StatusCode != http.StatusOK || etag == "" {
		t.Fatalf("first GET: %d etag=%q", res.StatusCode, etag)
	}
	res, _ = do(t, http.MethodGet, ts.URL+"/v1/hotels/HOTEL002", nil, map[string]string{"If-None-Match": etag})
	if res.StatusCode != http.StatusNotModified {
		t.Fatalf("expected 304, got %d", res.StatusCode)
	}
}

func TestVocabularies(t *testing.T) {
	ts := newTestServer(t, 0)

	_, body := do(t, http.MethodGet, ts.URL+"/v1/locations", nil, nil)
	if body["count"].(float64) != 3 {
		t.Fatalf("locations: %v", body)
	}
	_, body = do(t, http.MethodGet, ts.URL+"/v1/room-types", nil, nil)
	if body["count"].(float64) != 2 {
		t.Fatalf("room types: %v", body)
	}
	_, body = do(t, http.MethodGet, ts.URL+"/v1/stats", nil, nil)
	if body["total_hotels"].(float64) != 3 {
		t.Fatalf("stats: %v", body)
	}
}

func TestBooking_CreateConflictCancel(t *testing.T) {
	ts := newTestServer(t, 0)

	res, body := do(t, http.MethodPost, ts.URL+"/v1/bookings", bookingArgs("2030-03-10", "2030-03-12"), nil)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create: %d %v", res.StatusCode, body)
	}
	id, _ := body["booking_id"].(string)
	if id == "" || res.Header.Get("Location") != "/v1/bookings/"+id {
		t.Fatalf("missing id or location: %v %q", body, res.Header.Get("Location"))
	}
	if body["total_price"].(float64) != 36000 || body["room_type"] != "Deluxe" {
		t.Fatalf("unexpected booking: %v", body)
	}

	res, body = do(t, http.MethodPost, ts.URL+"/v1/bookings", bookingArgs("2030-03-11", "2030-03-13"), nil)
	if res.StatusCode != http.StatusConflict || body["code"] != domain.CodeUnavailable {
		t.Fatalf("overlap: %d %v", res.StatusCode, body)
	}

	res, body = do(t, http.MethodGet, ts.URL+"/v1/bookings/"+id, nil, nil)
	if res.StatusCode != http.StatusOK || body["status"] != "confirmed" {
		t.Fatalf("get: %d %v", res.StatusCode, body)
	}

	res, body = do(t, http.MethodPost, ts.URL+"/v1/bookings/"+id+"/cancel", nil, nil)
	if res.StatusCode != http.StatusOK || body["status"] != "cancelled" {
		t.Fatalf("cancel: %d %v", res.StatusCode, body)
	}
	res, body = do(t, http.MethodPost, ts.URL+"/v1/bookings/"+id+"/cancel", nil, nil)
	if res.StatusCode != http.StatusConflict || body["code"] != domain.CodeAlreadyCanceled {
		t.Fatalf("second cancel: %d %v", res.StatusCode, body)
	}

	res, _ = do(t, http.MethodPost, ts.URL+"/v1/bookings", bookingArgs("2030-03-11", "2030-03-13"), nil)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("rebook after cancel: %d", res.StatusCode)
	}
}

func TestBooking_ValidationProblems(t *testing.T) {
	ts := newTestServer(t, 0)

	cases := []struct {
		name string
		edit func(m map[string]any)
		code string
	}{
		{"missing email", func(m map[string]any) { delete(m, "guest_email") }, domain.CodeValidation},
		{"bad email", func(m map[string]any) { m["guest_email"] = "not-an-email" }, domain.CodeInvalidEmail},
		{"past check-in", func(m map[string]any) { m["check_in"] = "2030-02-01" }, domain.CodeInvalidDate},
		{"zero adults", func(m map[string]any) { m["adults"] = 0 }, domain.CodeValidation},
		{"bad room", func(m map[string]any) { m["room_type"] = "Penthouse" }, domain.CodeValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			args := bookingArgs("2030-04-01", "2030-04-03")
			tc.edit(args)
			res, body := do(t, http.MethodPost, ts.URL+"/v1/bookings", args, nil)
			if res.StatusCode != http.StatusBadRequest || body["code"] != tc.code {
				t.Fatalf("got %d %v", res.StatusCode, body)
			}
		})
	}
}

func TestBooking_MalformedBody(t *testing.T) {
	ts := newTestServer(t, 0)

	res, err := http.Post(ts.URL+"/v1/bookings", "application/json", strings.NewReader("{oops"))
	if err != nil {
		t.Fatal(err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("status %d", res.StatusCode)
	}
}

func TestTools_ListAndExecute(t *testing.T) {
	ts := newTestServer(t, 0)

	res, body := do(t, http.MethodGet, ts.URL+"/v1/tools", nil, nil)
	if res.StatusCode != http.StatusOK || len(body["tools"].([]any)) != 11 {
		t.Fatalf("tools: %d %v", res.StatusCode, body)
	}

	_, body = do(t, http.MethodPost, ts.URL+"/v1/tools/execute", map[string]any{
		"tool":      "searchHotels",
		"arguments": map[string]any{"location": "goa"},
	}, nil)
	if body["success"] != true {
		t.Fatalf("searchHotels: %v", body)
	}
	result := body["result"].(map[string]any)
	if result["total_matches"].(float64) != 1 {
		t.Fatalf("result: %v", result)
	}

	_, body = do(t, http.MethodPost, ts.URL+"/v1/tools/execute", map[string]any{
		"tool":       "createBooking",
		"parameters": bookingArgs("2030-05-01", "2030-05-02"),
	}, nil)
	if body["success"] != true {
		t.Fatalf("createBooking: %v", body)
	}

	_, body = do(t, http.MethodPost, ts.URL+"/v1/tools/execute", map[string]any{
		"tool":      "getBooking",
		"arguments": map[string]any{"booking_id": "missing"},
	}, nil)
	if body["success"] != false {
		t.Fatalf("expected failure: %v", body)
	}
	if e := body["error"].(map[string]any); e["code"] != domain.CodeNotFound {
		t.Fatalf("error: %v", e)
	}

	res, body = do(t, http.MethodPost, ts.URL+"/v1/tools/execute", map[string]any{"tool": "bookFlight"}, nil)
	if res.StatusCode != http.StatusBadRequest || body["code"] != domain.CodeValidation {
		t.Fatalf("unknown tool: %d %v", res.StatusCode, body)
	}
}

func TestAssistSearch(t *testing.T) {
	ts := newTestServer(t, 0)

	res, body := do(t, http.MethodPost, ts.URL+"/v1/assist/search", map[string]any{"text": "hotel in Goa with pool"}, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status %d %v", res.StatusCode, body)
	}
	crit := body["criteria"].(map[string]any)
	if crit["location"] != "Goa" {
		t.Fatalf("criteria: %v", crit)
	}
	missing := body["missing"].([]any)
	if len(missing) != 1 || missing[0] != "adults" {
		t.Fatalf("missing: %v", missing)
	}
	if r := body["result"].(map[string]any); r["total_matches"].(float64) != 1 {
		t.Fatalf("result: %v", r)
	}

	res, _ = do(t, http.MethodPost, ts.URL+"/v1/assist/search", map[string]any{"text": "  "}, nil)
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("empty utterance: %d", res.StatusCode)
	}
}

func TestBookingRateLimit(t *testing.T) {
	ts := newTestServer(t, 0.001)

	hdr := map[string]string{"X-Forwarded-For": "203.0.113.7"}
	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		res, _ := do(t, http.MethodPost, ts.URL+"/v1/bookings/none/cancel", nil, hdr)
		codes = append(codes, res.StatusCode)
	}
	if codes[0] != http.StatusNotFound || codes[1] != http.StatusNotFound || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("codes: %v", codes)
	}

	// reads are not throttled
	res, _ := do(t, http.MethodGet, ts.URL+"/v1/hotels/HOTEL001", nil, hdr)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("read throttled: %d", res.StatusCode)
	}
}

func TestUnknownRouteAndMethod(t *testing.T) {
	ts := newTestServer(t, 0)

	res, body := do(t, http.MethodGet, ts.URL+"/v1/flights", nil, nil)
	if res.StatusCode != http.StatusNotFound || body["code"] != domain.CodeNotFound {
		t.Fatalf("unknown route: %d %v", res.StatusCode, body)
	}
	res, _ = do(t, http.MethodDelete, ts.URL+"/v1/bookings", nil, nil)
	if res.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("method: %d", res.StatusCode)
	}
}
