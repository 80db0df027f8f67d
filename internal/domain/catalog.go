package domain

import "fmt"

// Catalog is an immutable snapshot of hotel inventory. Safe for concurrent readers.
type Catalog struct {
	byID  map[string]HotelRecord
	order []string
}

func NewCatalog(hotels []HotelRecord) (*Catalog, error) {
	c := &Catalog{byID: make(map[string]HotelRecord, len(hotels)), order: make([]string, 0, len(hotels))}
	for _, h := range hotels {
		if h.ID == "" {
			return nil, fmt.Errorf("%w: catalog record without hotel_id", ErrInternal)
		}
		if _, dup := c.byID[h.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate hotel_id %q in catalog", ErrInternal, h.ID)
		}
		c.byID[h.ID] = cloneHotel(h)
		c.order = append(c.order, h.ID)
	}
	return c, nil
}

func (c *Catalog) Get(id string) (HotelRecord, bool) {
	h, ok := c.byID[id]
	if !ok {
		return HotelRecord{}, false
	}
	return cloneHotel(h), true
}

// All returns copies in load order.
func (c *Catalog) All() []HotelRecord {
	out := make([]HotelRecord, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, cloneHotel(c.byID[id]))
	}
	return out
}

func (c *Catalog) Len() int { return len(c.order) }

func cloneHotel(h HotelRecord) HotelRecord {
	if h.Amenities != nil {
		h.Amenities = append([]string(nil), h.Amenities...)
	}
	if h.RoomTypes != nil {
		h.RoomTypes = append([]string(nil), h.RoomTypes...)
	}
	return h
}
