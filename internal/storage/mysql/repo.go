package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"hotel_concierge/internal/domain"
)

func valStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func valJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}

// CatalogRepo stores hotel records. Snapshot reads the whole table; callers
// that need it hot keep the result.
type CatalogRepo struct{ db *sql.DB }

func NewCatalogRepo(db *sql.DB) *CatalogRepo { return &CatalogRepo{db: db} }

func (r *CatalogRepo) UpsertHotel(ctx context.Context, h domain.HotelRecord, raw []byte) error {
	amen, _ := json.Marshal(h.Amenities)
	var rooms []byte
	if h.RoomTypes != nil {
		rooms, _ = json.Marshal(h.RoomTypes)
	}
	_, err := r.db.ExecContext(ctx, upsertHotelSQL,
		h.ID,
		h.Name,
		h.Location,
		valStr(h.Address),
		valStr(h.Description),
		h.Stars,
		h.GuestRating,
		string(amen),
		valJSON(rooms),
		h.PricePerNight,
		h.MaxAdults,
		h.MaxChildren,
		valJSON(raw),
	)
	return err
}

func (r *CatalogRepo) Snapshot(ctx context.Context) (*domain.Catalog, error) {
	rows, err := r.db.QueryContext(ctx, listHotelsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hotels []domain.HotelRecord
	for rows.Next() {
		var h domain.HotelRecord
		var address, desc sql.NullString
		var amenitiesJSON, roomsJSON []byte
		if err := rows.Scan(
			&h.ID, &h.Name, &h.Location, &address, &desc,
			&h.Stars, &h.GuestRating, &amenitiesJSON, &roomsJSON,
			&h.PricePerNight, &h.MaxAdults, &h.MaxChildren,
		); err != nil {
			return nil, err
		}
		h.Address = address.String
		h.Description = desc.String
		if err := json.Unmarshal(amenitiesJSON, &h.Amenities); err != nil {
			return nil, fmt.Errorf("hotel %s: amenities: %w", h.ID, err)
		}
		if len(roomsJSON) > 0 {
			if err := json.Unmarshal(roomsJSON, &h.RoomTypes); err != nil {
				return nil, fmt.Errorf("hotel %s: room_types: %w", h.ID, err)
			}
		}
		hotels = append(hotels, h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return domain.NewCatalog(hotels)
}

// LedgerRepo is the durable booking store.
type LedgerRepo struct{ db *sql.DB }

func NewLedgerRepo(db *sql.DB) *LedgerRepo { return &LedgerRepo{db: db} }

// Append locks the hotel's row in booking_locks, re-checks overlap and inserts,
// all in one transaction. Concurrent appends for one hotel queue on that lock.
func (r *LedgerRepo) Append(ctx context.Context, b domain.Booking) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, ensureLockRowSQL, b.HotelID); err != nil {
		return fmt.Errorf("ensure lock row: %w", err)
	}
	var locked string
	if err = tx.QueryRowContext(ctx, lockHotelSQL, b.HotelID).Scan(&locked); err != nil {
		return fmt.Errorf("lock hotel %s: %w", b.HotelID, err)
	}

	if b.Status == domain.StatusConfirmed {
		var clash string
		switch e := tx.QueryRowContext(ctx, findOverlapSQL, b.HotelID, b.CheckOut.Time, b.CheckIn.Time).Scan(&clash); {
		case e == nil:
			err = fmt.Errorf("%w: overlaps booking %s", domain.ErrUnavailable, clash)
			return err
		case !errors.Is(e, sql.ErrNoRows):
			err = e
			return err
		}
	}

	if _, err = tx.ExecContext(ctx, insertBookingSQL,
		b.ID,
		b.HotelID,
		b.GuestName,
		b.GuestEmail,
		valStr(b.GuestPhone),
		b.CheckIn.Time,
		b.CheckOut.Time,
		b.Adults,
		b.Children,
		string(b.RoomType),
		valStr(b.SpecialRequests),
		b.PricePerNight,
		b.TotalPrice,
		string(b.Status),
		b.CreatedAt.UTC(),
	); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *LedgerRepo) Get(ctx context.Context, id string) (domain.Booking, error) {
	b, err := scanBooking(r.db.QueryRowContext(ctx, getBookingSQL, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Booking{}, domain.ErrNotFound
	}
	return b, err
}

func (r *LedgerRepo) FindByHotel(ctx context.Context, hotelID string) ([]domain.Booking, error) {
	rows, err := r.db.QueryContext(ctx, bookingsByHotelSQL, hotelID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *LedgerRepo) UpdateStatus(ctx context.Context, id string, status domain.BookingStatus) error {
	res, err := r.db.ExecContext(ctx, updateStatusSQL, string(status), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	// zero rows: either unknown id or the status was already set
	if _, err := r.Get(ctx, id); err != nil {
		return err
	}
	return nil
}

type scanner interface{ Scan(dest ...any) error }

func scanBooking(s scanner) (domain.Booking, error) {
	var b domain.Booking
	var phone, requests sql.NullString
	var checkIn, checkOut, createdAt time.Time
	var roomType, status string
	if err := s.Scan(
		&b.ID, &b.HotelID, &b.GuestName, &b.GuestEmail, &phone,
		&checkIn, &checkOut, &b.Adults, &b.Children,
		&roomType, &requests, &b.PricePerNight, &b.TotalPrice, &status, &createdAt,
	); err != nil {
		return domain.Booking{}, err
	}
	b.GuestPhone = phone.String
	b.SpecialRequests = requests.String
	b.CheckIn = domain.DateOf(checkIn)
	b.CheckOut = domain.DateOf(checkOut)
	b.RoomType = domain.RoomType(roomType)
	b.Status = domain.BookingStatus(status)
	b.CreatedAt = createdAt.UTC()
	return b, nil
}
