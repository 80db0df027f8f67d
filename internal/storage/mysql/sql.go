package mysql

const upsertHotelSQL = `
INSERT INTO hotels
  (id, name, location, address, description, stars, guest_rating, amenities, room_types,
   price_per_night, max_adults, max_children, raw)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  name            = VALUES(name),
  location        = VALUES(location),
  address         = VALUES(address),
  description     = VALUES(description),
  stars           = VALUES(stars),
  guest_rating    = VALUES(guest_rating),
  amenities       = VALUES(amenities),
  room_types      = VALUES(room_types),
  price_per_night = VALUES(price_per_night),
  max_adults      = VALUES(max_adults),
  max_children    = VALUES(max_children),
  raw             = VALUES(raw),
  updated_at      = CURRENT_TIMESTAMP
`

// Load order is id order so snapshots are reproducible across restarts.
const listHotelsSQL = `
SELECT id, name, location, address, description, stars, guest_rating, amenities, room_types,
       price_per_night, max_adults, max_children
FROM hotels
ORDER BY id
`

// -----------------------------------------------------------------------------
// LEDGER
// -----------------------------------------------------------------------------

const ensureLockRowSQL = `INSERT IGNORE INTO booking_locks (hotel_id) VALUES (?)`

const lockHotelSQL = `SELECT hotel_id FROM booking_locks WHERE hotel_id = ? FOR UPDATE`

// Half-open overlap: existing.check_in < new.check_out AND new.check_in < existing.check_out.
const findOverlapSQL = `
SELECT id FROM bookings
WHERE hotel_id = ? AND status = 'confirmed'
  AND check_in < ? AND check_out > ?
LIMIT 1
`

const insertBookingSQL = `
INSERT INTO bookings
  (id, hotel_id, guest_name, guest_email, guest_phone, check_in, check_out, adults, children,
   room_type, special_requests, price_per_night, total_price, status, created_at)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const bookingColumns = `
  id, hotel_id, guest_name, guest_email, guest_phone, check_in, check_out, adults, children,
  room_type, special_requests, price_per_night, total_price, status, created_at
`

const getBookingSQL = `SELECT` + bookingColumns + `FROM bookings WHERE id = ?`

const bookingsByHotelSQL = `SELECT` + bookingColumns + `FROM bookings WHERE hotel_id = ? ORDER BY created_at, id`

const updateStatusSQL = `UPDATE bookings SET status = ? WHERE id = ?`
