package seating

// =============================================================================
// CATALOG - Seat/facility lookup in stable order
// =============================================================================

// Catalog is an immutable snapshot of seats and facilities. Seat order is
// catalog order: the reconciler selects seats in the order they appear here.
type Catalog struct {
	seats      []Seat
	facilities map[string]Facility
}

func NewCatalog(seats []Seat, facilities []Facility) *Catalog {
	c := &Catalog{
		seats:      make([]Seat, len(seats)),
		facilities: make(map[string]Facility, len(facilities)),
	}
	copy(c.seats, seats)
	for _, f := range facilities {
		c.facilities[f.ID] = f
	}
	return c
}

// Seats returns all seats in catalog order.
func (c *Catalog) Seats() []Seat { return c.seats }

// Facility returns the facility for an id, if known.
func (c *Catalog) Facility(id string) (Facility, bool) {
	f, ok := c.facilities[id]
	return f, ok
}

// SeatsInMetro returns, in catalog order, the seats whose facility sits in
// the given metro city. Seats referencing unknown facilities are skipped.
func (c *Catalog) SeatsInMetro(metroCity string) []Seat {
	var out []Seat
	for _, s := range c.seats {
		f, ok := c.facilities[s.FacilityID]
		if !ok {
			continue
		}
		if f.MetroCity == metroCity {
			out = append(out, s)
		}
	}
	return out
}
