package httpserver

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"hotel_concierge/internal/app"
	"hotel_concierge/internal/domain"
)

const maxBody = 64 << 10

type Handlers struct {
	Q      *app.QueryService
	B      *app.BookingService
	Parser domain.UtteranceParser

	// BookingRPS/BookingBurst throttle booking mutations per client; 0 disables.
	BookingRPS   float64
	BookingBurst int
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Code   string `json:"code"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })

	s.mux.Route("/v1", func(r chi.Router) {
		r.Get("/hotels", h.listHotels)
		r.Get("/hotels/search", h.searchHotels)
		r.Get("/hotels/{id}", h.getHotel)
		r.Get("/hotels/{id}/details", h.getHotelDetails)
		r.Get("/locations", h.locations)
		r.Get("/amenities", h.amenities)
		r.Get("/room-types", h.roomTypes)
		r.Get("/stats", h.stats)

		r.Get("/bookings/{id}", h.getBooking)
		r.Group(func(r chi.Router) {
			r.Use(RateLimit(h.BookingRPS, h.BookingBurst))
			r.Post("/bookings", h.createBooking)
			r.Post("/bookings/{id}/cancel", h.cancelBooking)
			r.Post("/tools/execute", h.executeTool)
		})

		r.Get("/tools", h.listTools)
		r.Post("/assist/search", h.assistSearch)
	})
}

// ---- response helpers ----

func writeProblem(w http.ResponseWriter, status int, title, code, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Code: code, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// statusFor maps an outcome code onto its HTTP status.
func statusFor(code string) int {
	switch code {
	case domain.CodeValidation, domain.CodeInvalidDate, domain.CodeInvalidEmail:
		return http.StatusBadRequest
	case domain.CodeNotFound:
		return http.StatusNotFound
	case domain.CodeUnavailable, domain.CodeAlreadyCanceled:
		return http.StatusConflict
	case domain.CodeWindowExpired:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := domain.Code(err)
	status := statusFor(code)
	detail := err.Error()
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("route", routeOf(r)).Msg("request failed")
		detail = "internal error"
	}
	writeProblem(w, status, http.StatusText(status), code, detail)
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	return `W/"` + hex.EncodeToString(sum[:]) + `"`, body
}

// writeCached serves a GET body with a weak ETag and honours If-None-Match.
func writeCached(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if body == nil {
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", domain.CodeInternal, "encode response")
		return
	}
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Str("route", routeOf(r)).Msg("failed to write body")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to write JSON body")
	}
}

// queryArgs flattens a query string to first-value arguments.
func queryArgs(q url.Values) map[string]any {
	out := make(map[string]any, len(q))
	for k, vs := range q {
		if len(vs) > 0 && strings.TrimSpace(vs[0]) != "" {
			out[k] = vs[0]
		}
	}
	return out
}

func decodeArgs(r *http.Request) (map[string]any, error) {
	var args map[string]any
	err := json.NewDecoder(io.LimitReader(r.Body, maxBody)).Decode(&args)
	if errors.Is(err, io.EOF) {
		return map[string]any{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: malformed JSON body: %v", domain.ErrValidation, err)
	}
	if args == nil {
		args = map[string]any{}
	}
	return args, nil
}

// ---- hotels ----

func (h *Handlers) searchHotels(w http.ResponseWriter, r *http.Request) {
	c, err := app.CriteriaFromArgs(queryArgs(r.URL.Query()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.Q.Search(r.Context(), c)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeCached(w, r, res)
}

func (h *Handlers) listHotels(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	c, err := app.CriteriaFromArgs(queryArgs(q))
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.Q.List(r.Context(), c, q.Get("sort_by"), q.Get("sort_order"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeCached(w, r, res)
}

func (h *Handlers) getHotel(w http.ResponseWriter, r *http.Request) {
	res, err := h.Q.GetHotel(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeCached(w, r, res)
}

func (h *Handlers) getHotelDetails(w http.ResponseWriter, r *http.Request) {
	res, err := h.Q.GetHotelDetails(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeCached(w, r, res)
}

func (h *Handlers) locations(w http.ResponseWriter, r *http.Request) {
	h.vocabulary(w, r, "locations", h.Q.Locations)
}

func (h *Handlers) amenities(w http.ResponseWriter, r *http.Request) {
	h.vocabulary(w, r, "amenities", h.Q.Amenities)
}

func (h *Handlers) roomTypes(w http.ResponseWriter, r *http.Request) {
	h.vocabulary(w, r, "room_types", h.Q.RoomTypes)
}

func (h *Handlers) vocabulary(w http.ResponseWriter, r *http.Request, key string, get func(context.Context) ([]string, error)) {
	vs, err := get(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeCached(w, r, map[string]any{key: vs, "count": len(vs)})
}

func (h *Handlers) stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.Q.Stats(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeCached(w, r, st)
}

// ---- bookings ----

func (h *Handlers) createBooking(w http.ResponseWriter, r *http.Request) {
	args, err := decodeArgs(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	b, err := h.B.Create(r.Context(), app.BookingRequestFromArgs(args))
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/v1/bookings/"+b.ID)
	writeJSON(w, http.StatusCreated, b)
}

func (h *Handlers) getBooking(w http.ResponseWriter, r *http.Request) {
	b, err := h.B.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeCached(w, r, b)
}

func (h *Handlers) cancelBooking(w http.ResponseWriter, r *http.Request) {
	b, err := h.B.Cancel(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// ---- assist ----

type assistResponse struct {
	Criteria domain.SearchCriteria `json:"criteria"`
	Missing  []string              `json:"missing"`
	Result   *domain.SearchResult  `json:"result,omitempty"`
}

// assistSearch parses a free-text request and searches with whatever was
// understood. Missing lists the slots a front-end should still ask for.
func (h *Handlers) assistSearch(w http.ResponseWriter, r *http.Request) {
	if h.Parser == nil {
		writeProblem(w, http.StatusNotImplemented, "Not Implemented", domain.CodeInternal, "no utterance parser configured")
		return
	}
	var in struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBody)).Decode(&in); err != nil {
		writeError(w, r, fmt.Errorf("%w: malformed JSON body: %v", domain.ErrValidation, err))
		return
	}
	c, err := h.Parser.ParseCriteria(r.Context(), in.Text)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := assistResponse{Criteria: c, Missing: []string{}}
	if c.Location == nil {
		out.Missing = append(out.Missing, "location")
	}
	if c.Adults == nil {
		out.Missing = append(out.Missing, "adults")
	}
	res, err := h.Q.Search(r.Context(), c)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out.Result = &res
	writeJSON(w, http.StatusOK, out)
}
