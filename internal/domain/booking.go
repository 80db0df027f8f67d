package domain

import (
	"fmt"
	"strings"
	"time"
)

type BookingStatus string

const (
	StatusConfirmed BookingStatus = "confirmed"
	StatusCancelled BookingStatus = "cancelled"
)

type RoomType string

const (
	RoomDeluxe       RoomType = "Deluxe"
	RoomSuite        RoomType = "Suite"
	RoomPresidential RoomType = "Presidential"
)

var RoomTypes = []RoomType{RoomDeluxe, RoomSuite, RoomPresidential}

// ParseRoomType matches case-insensitively; empty means Deluxe.
func ParseRoomType(s string) (RoomType, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return RoomDeluxe, nil
	}
	for _, rt := range RoomTypes {
		if strings.EqualFold(s, string(rt)) {
			return rt, nil
		}
	}
	return "", fmt.Errorf("%w: room_type must be one of Deluxe, Suite, Presidential", ErrValidation)
}

type Booking struct {
	ID              string        `json:"booking_id"`
	HotelID         string        `json:"hotel_id"`
	GuestName       string        `json:"guest_name"`
	GuestEmail      string        `json:"guest_email"`
	GuestPhone      string        `json:"guest_phone,omitempty"`
	CheckIn         Date          `json:"check_in"`
	CheckOut        Date          `json:"check_out"`
	Adults          int           `json:"adults"`
	Children        int           `json:"children"`
	RoomType        RoomType      `json:"room_type"`
	SpecialRequests string        `json:"special_requests,omitempty"`
	PricePerNight   int64         `json:"price_per_night"`
	TotalPrice      int64         `json:"total_price"`
	Status          BookingStatus `json:"status"`
	CreatedAt       time.Time     `json:"created_at"`
}

func (b Booking) Stay() Stay { return Stay{CheckIn: b.CheckIn, CheckOut: b.CheckOut} }

func (b Booking) Nights() int { return b.Stay().Nights() }

// BookingRequest carries raw caller input. Strings stay unparsed so the
// lifecycle manager can name the exact field that is missing or malformed.
type BookingRequest struct {
	HotelID         string `json:"hotel_id"`
	GuestName       string `json:"guest_name"`
	GuestEmail      string `json:"guest_email"`
	GuestPhone      string `json:"guest_phone,omitempty"`
	CheckIn         string `json:"check_in"`
	CheckOut        string `json:"check_out"`
	Adults          *int   `json:"adults"`
	Children        *int   `json:"children,omitempty"`
	RoomType        string `json:"room_type,omitempty"`
	SpecialRequests string `json:"special_requests,omitempty"`
}

// MissingField returns the first required field that is absent, in the
// order hotel_id, guest_name, guest_email, check_in, check_out, adults.
func (r BookingRequest) MissingField() string {
	switch {
	case strings.TrimSpace(r.HotelID) == "":
		return "hotel_id"
	case strings.TrimSpace(r.GuestName) == "":
		return "guest_name"
	case strings.TrimSpace(r.GuestEmail) == "":
		return "guest_email"
	case strings.TrimSpace(r.CheckIn) == "":
		return "check_in"
	case strings.TrimSpace(r.CheckOut) == "":
		return "check_out"
	case r.Adults == nil:
		return "adults"
	}
	return ""
}
