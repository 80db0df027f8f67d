package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"hotel_concierge/internal/app"
	"hotel_concierge/internal/domain"
)

// Tool calls come from voice/chat agents. Every outcome, including domain
// failures, is answered 200 with success=false so the agent can phrase it;
// only a malformed envelope or unknown tool is a 4xx.

type toolParam struct {
	Type        string `json:"type"`
	Required    bool   `json:"required"`
	Description string `json:"description"`
}

type toolSpec struct {
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Parameters  map[string]toolParam `json:"parameters"`
}

type toolError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type toolResponse struct {
	Success bool       `json:"success"`
	Tool    string     `json:"tool"`
	Result  any        `json:"result,omitempty"`
	Error   *toolError `json:"error,omitempty"`
}

var criteriaParams = map[string]toolParam{
	"location":   {"string", false, "City or location, matched case-insensitively"},
	"check_in":   {"string", false, "Check-in date (YYYY-MM-DD)"},
	"check_out":  {"string", false, "Check-out date (YYYY-MM-DD)"},
	"adults":     {"integer", false, "Number of adults"},
	"children":   {"integer", false, "Number of children"},
	"amenities":  {"string", false, "Required amenities, comma-separated"},
	"min_price":  {"number", false, "Minimum price per night"},
	"max_price":  {"number", false, "Maximum price per night"},
	"min_stars":  {"integer", false, "Minimum star rating (1-5)"},
	"max_stars":  {"integer", false, "Maximum star rating (1-5)"},
	"min_rating": {"number", false, "Minimum guest rating (0.0-5.0)"},
	"max_rating": {"number", false, "Maximum guest rating (0.0-5.0)"},
}

func withParams(base map[string]toolParam, extra map[string]toolParam) map[string]toolParam {
	out := make(map[string]toolParam, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

var hotelIDParam = map[string]toolParam{"hotel_id": {"string", true, "Hotel identifier"}}
var bookingIDParam = map[string]toolParam{"booking_id": {"string", true, "Booking identifier"}}

var tools = []toolSpec{
	{"searchHotels", "Search hotels and return the five best rated matches", criteriaParams},
	{"listHotels", "List every matching hotel with optional sorting", withParams(criteriaParams, map[string]toolParam{
		"sort_by":    {"string", false, "hotel_id, name, location, stars, guest_rating, price, max_adults or max_children"},
		"sort_order": {"string", false, "asc or desc"},
	})},
	{"getHotel", "Get one hotel by id", hotelIDParam},
	{"getHotelDetails", "Get one hotel with availability for the next 30 nights", hotelIDParam},
	{"getLocations", "Get all available hotel locations", map[string]toolParam{}},
	{"getAmenities", "Get all available hotel amenities", map[string]toolParam{}},
	{"getRoomTypes", "Get all room types offered across the catalog", map[string]toolParam{}},
	{"getStats", "Get catalog statistics", map[string]toolParam{}},
	{"createBooking", "Book a hotel for a stay", map[string]toolParam{
		"hotel_id":         {"string", true, "Hotel identifier"},
		"guest_name":       {"string", true, "Guest full name"},
		"guest_email":      {"string", true, "Guest email address"},
		"guest_phone":      {"string", false, "Guest phone number"},
		"check_in":         {"string", true, "Check-in date (YYYY-MM-DD)"},
		"check_out":        {"string", true, "Check-out date (YYYY-MM-DD)"},
		"adults":           {"integer", true, "Number of adults"},
		"children":         {"integer", false, "Number of children"},
		"room_type":        {"string", false, "Deluxe, Suite or Presidential (default Deluxe)"},
		"special_requests": {"string", false, "Free-text special requests"},
	}},
	{"getBooking", "Get a booking by id", bookingIDParam},
	{"cancelBooking", "Cancel a booking within 24 hours of creating it", bookingIDParam},
}

func (h *Handlers) listTools(w http.ResponseWriter, r *http.Request) {
	writeCached(w, r, map[string]any{"tools": tools})
}

func (h *Handlers) executeTool(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Tool       string         `json:"tool"`
		Arguments  map[string]any `json:"arguments"`
		Parameters map[string]any `json:"parameters"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBody)).Decode(&in); err != nil {
		writeError(w, r, fmt.Errorf("%w: malformed tool call: %v", domain.ErrValidation, err))
		return
	}
	args := in.Arguments
	if args == nil {
		args = in.Parameters
	}
	if args == nil {
		args = map[string]any{}
	}

	run, ok := h.toolFuncs()[in.Tool]
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Unknown Tool", domain.CodeValidation, fmt.Sprintf("unknown tool: %q", in.Tool))
		return
	}

	res, err := run(r.Context(), args)
	if err != nil {
		writeJSON(w, http.StatusOK, toolResponse{
			Tool:  in.Tool,
			Error: &toolError{Code: domain.Code(err), Message: toolMessage(err)},
		})
		return
	}
	writeJSON(w, http.StatusOK, toolResponse{Success: true, Tool: in.Tool, Result: res})
}

func toolMessage(err error) string {
	if domain.Code(err) == domain.CodeInternal {
		return "internal error"
	}
	return err.Error()
}

type toolFunc func(ctx context.Context, args map[string]any) (any, error)

func (h *Handlers) toolFuncs() map[string]toolFunc {
	str := func(args map[string]any, k string) string {
		s, _ := args[k].(string)
		return s
	}
	list := func(get func(context.Context) ([]string, error), key string) toolFunc {
		return func(ctx context.Context, _ map[string]any) (any, error) {
			vs, err := get(ctx)
			if err != nil {
				return nil, err
			}
			return map[string]any{key: vs, "count": len(vs)}, nil
		}
	}

	return map[string]toolFunc{
		"searchHotels": func(ctx context.Context, args map[string]any) (any, error) {
			c, err := app.CriteriaFromArgs(args)
			if err != nil {
				return nil, err
			}
			return h.Q.Search(ctx, c)
		},
		"listHotels": func(ctx context.Context, args map[string]any) (any, error) {
			c, err := app.CriteriaFromArgs(args)
			if err != nil {
				return nil, err
			}
			return h.Q.List(ctx, c, str(args, "sort_by"), str(args, "sort_order"))
		},
		"getHotel": func(ctx context.Context, args map[string]any) (any, error) {
			return h.Q.GetHotel(ctx, str(args, "hotel_id"))
		},
		"getHotelDetails": func(ctx context.Context, args map[string]any) (any, error) {
			return h.Q.GetHotelDetails(ctx, str(args, "hotel_id"))
		},
		"getLocations": list(h.Q.Locations, "locations"),
		"getAmenities": list(h.Q.Amenities, "amenities"),
		"getRoomTypes": list(h.Q.RoomTypes, "room_types"),
		"getStats": func(ctx context.Context, _ map[string]any) (any, error) {
			return h.Q.Stats(ctx)
		},
		"createBooking": func(ctx context.Context, args map[string]any) (any, error) {
			return h.B.Create(ctx, app.BookingRequestFromArgs(args))
		},
		"getBooking": func(ctx context.Context, args map[string]any) (any, error) {
			return h.B.Get(ctx, str(args, "booking_id"))
		},
		"cancelBooking": func(ctx context.Context, args map[string]any) (any, error) {
			return h.B.Cancel(ctx, str(args, "booking_id"))
		},
	}
}
