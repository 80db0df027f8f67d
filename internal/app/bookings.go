package app

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"hotel_concierge/internal/adapters/observability"
	"hotel_concierge/internal/domain"
)

const CancellationWindow = 24 * time.Hour

var emailRE = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

type BookingService struct {
	catalog domain.CatalogSource
	ledger  domain.Ledger
	avail   *AvailabilityChecker
	events  domain.EventPublisher
	locks   *hotelLocks
	now     func() time.Time
	newID   func() string
}

type BookingOption func(*BookingService)

// WithClock overrides the wall clock used for past-date checks and the cancellation window.
func WithClock(now func() time.Time) BookingOption {
	return func(s *BookingService) { s.now = now }
}

func WithEvents(p domain.EventPublisher) BookingOption {
	return func(s *BookingService) {
		if p != nil {
			s.events = p
		}
	}
}

func NewBookingService(cat domain.CatalogSource, l domain.Ledger, opts ...BookingOption) *BookingService {
	s := &BookingService{
		catalog: cat,
		ledger:  l,
		avail:   NewAvailabilityChecker(l),
		events:  noopPublisher{},
		locks:   newHotelLocks(),
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Create validates the request, checks availability and commits a confirmed
// booking. Check and commit run under the hotel's lock.
func (s *BookingService) Create(ctx context.Context, req domain.BookingRequest) (b domain.Booking, err error) {
	defer func() { observability.ObserveBooking("create", domain.Code(err)) }()

	if f := req.MissingField(); f != "" {
		return domain.Booking{}, fmt.Errorf("%w: missing required field: %s", domain.ErrValidation, f)
	}
	if *req.Adults < 1 {
		return domain.Booking{}, fmt.Errorf("%w: adults must be at least 1", domain.ErrValidation)
	}
	children := 0
	if req.Children != nil {
		if *req.Children < 0 {
			return domain.Booking{}, fmt.Errorf("%w: children must not be negative", domain.ErrValidation)
		}
		children = *req.Children
	}

	hotelID := strings.TrimSpace(req.HotelID)
	cat, err := s.snapshot(ctx)
	if err != nil {
		return domain.Booking{}, err
	}
	hotel, ok := cat.Get(hotelID)
	if !ok {
		return domain.Booking{}, fmt.Errorf("%w: no hotel with id %s", domain.ErrNotFound, hotelID)
	}

	roomType, err := domain.ParseRoomType(req.RoomType)
	if err != nil {
		return domain.Booking{}, err
	}

	stay, err := s.validateStay(req.CheckIn, req.CheckOut)
	if err != nil {
		return domain.Booking{}, err
	}

	email := strings.TrimSpace(req.GuestEmail)
	if !emailRE.MatchString(email) {
		return domain.Booking{}, fmt.Errorf("%w: %q is not a valid email address", domain.ErrInvalidEmail, email)
	}

	b = domain.Booking{
		HotelID:         hotel.ID,
		GuestName:       strings.TrimSpace(req.GuestName),
		GuestEmail:      email,
		GuestPhone:      strings.TrimSpace(req.GuestPhone),
		CheckIn:         stay.CheckIn,
		CheckOut:        stay.CheckOut,
		Adults:          *req.Adults,
		Children:        children,
		RoomType:        roomType,
		SpecialRequests: strings.TrimSpace(req.SpecialRequests),
		PricePerNight:   hotel.PricePerNight,
		TotalPrice:      int64(stay.Nights()) * hotel.PricePerNight,
		Status:          domain.StatusConfirmed,
	}

	if err := s.commit(ctx, &b); err != nil {
		return domain.Booking{}, err
	}

	log.Info().
		Str("booking_id", b.ID).
		Str("hotel_id", b.HotelID).
		Str("check_in", b.CheckIn.String()).
		Str("check_out", b.CheckOut.String()).
		Int64("total_price", b.TotalPrice).
		Msg("booking confirmed")
	s.publish(ctx, "booking.created", b)
	return b, nil
}

func (s *BookingService) commit(ctx context.Context, b *domain.Booking) error {
	unlock := s.locks.lock(b.HotelID)
	defer unlock()

	free, err := s.avail.IsAvailable(ctx, b.HotelID, b.Stay())
	if err != nil {
		return err
	}
	if !free {
		return fmt.Errorf("%w: hotel %s is booked between %s and %s", domain.ErrUnavailable, b.HotelID, b.CheckIn, b.CheckOut)
	}

	b.ID = s.newID()
	b.CreatedAt = s.now().UTC()
	if err := s.ledger.Append(ctx, *b); err != nil {
		if errors.Is(err, domain.ErrUnavailable) {
			return err
		}
		return fmt.Errorf("%w: append booking: %v", domain.ErrInternal, err)
	}
	return nil
}

func (s *BookingService) validateStay(in, out string) (domain.Stay, error) {
	checkIn, err := domain.ParseDate(strings.TrimSpace(in))
	if err != nil {
		return domain.Stay{}, err
	}
	checkOut, err := domain.ParseDate(strings.TrimSpace(out))
	if err != nil {
		return domain.Stay{}, err
	}
	if checkIn.Before(domain.DateOf(s.now())) {
		return domain.Stay{}, fmt.Errorf("%w: check-in date must not be in the past", domain.ErrInvalidDate)
	}
	stay := domain.Stay{CheckIn: checkIn, CheckOut: checkOut}
	if err := stay.Validate(); err != nil {
		return domain.Stay{}, err
	}
	return stay, nil
}

func (s *BookingService) Get(ctx context.Context, id string) (domain.Booking, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Booking{}, fmt.Errorf("%w: missing required field: booking_id", domain.ErrValidation)
	}
	b, err := s.ledger.Get(ctx, id)
	if err != nil {
		return domain.Booking{}, ledgerErr(err, id)
	}
	return b, nil
}

// Cancel flips a confirmed booking to cancelled when it was created no more
// than CancellationWindow ago.
func (s *BookingService) Cancel(ctx context.Context, id string) (b domain.Booking, err error) {
	defer func() { observability.ObserveBooking("cancel", domain.Code(err)) }()

	b, err = s.Get(ctx, id)
	if err != nil {
		return domain.Booking{}, err
	}

	unlock := s.locks.lock(b.HotelID)
	// re-read under the lock: a concurrent cancel may have won
	b, err = s.ledger.Get(ctx, b.ID)
	if err != nil {
		unlock()
		return domain.Booking{}, ledgerErr(err, id)
	}
	if b.Status == domain.StatusCancelled {
		unlock()
		return domain.Booking{}, fmt.Errorf("%w: booking %s", domain.ErrAlreadyCancelled, b.ID)
	}
	if elapsed := s.now().Sub(b.CreatedAt); elapsed > CancellationWindow {
		unlock()
		return domain.Booking{}, fmt.Errorf("%w: booking %s was created %s ago",
			domain.ErrCancellationWindowExpired, b.ID, elapsed.Truncate(time.Minute))
	}
	if err := s.ledger.UpdateStatus(ctx, b.ID, domain.StatusCancelled); err != nil {
		unlock()
		return domain.Booking{}, ledgerErr(err, id)
	}
	unlock()

	b.Status = domain.StatusCancelled
	log.Info().Str("booking_id", b.ID).Str("hotel_id", b.HotelID).Msg("booking cancelled")
	s.publish(ctx, "booking.cancelled", b)
	return b, nil
}

func (s *BookingService) snapshot(ctx context.Context) (*domain.Catalog, error) {
	cat, err := s.catalog.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: load catalog: %v", domain.ErrInternal, err)
	}
	return cat, nil
}

// publish is best effort; the booking is already committed.
func (s *BookingService) publish(ctx context.Context, key string, b domain.Booking) {
	if err := s.events.PublishJSON(ctx, key, bookingEvent(b)); err != nil {
		log.Warn().Err(err).Str("event", key).Str("booking_id", b.ID).Msg("publish booking event failed")
	}
}

func bookingEvent(b domain.Booking) map[string]any {
	return map[string]any{
		"booking_id":  b.ID,
		"hotel_id":    b.HotelID,
		"check_in":    b.CheckIn.String(),
		"check_out":   b.CheckOut.String(),
		"status":      string(b.Status),
		"total_price": b.TotalPrice,
	}
}

func ledgerErr(err error, id string) error {
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("%w: no booking with id %s", domain.ErrNotFound, id)
	}
	return fmt.Errorf("%w: ledger: %v", domain.ErrInternal, err)
}

type noopPublisher struct{}

func (noopPublisher) PublishJSON(context.Context, string, any) error { return nil }
