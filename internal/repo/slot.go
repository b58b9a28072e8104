package repo

import (
	"context"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
)

// SlotStatus is the booking state of a slot.
type SlotStatus string

const (
	SlotStatusFree                SlotStatus = "free"
	SlotStatusBooked              SlotStatus = "booked"
	SlotStatusConfirmed           SlotStatus = "confirmed"
	SlotStatusCancelledByPlayer   SlotStatus = "cancelled_by_player"
	SlotStatusCancelledByFacility SlotStatus = "cancelled_by_facility"
)

func (s SlotStatus) Valid() bool {
	switch s {
	case SlotStatusFree, SlotStatusBooked, SlotStatusConfirmed,
		SlotStatusCancelledByPlayer, SlotStatusCancelledByFacility:
		return true
	}
	return false
}

// Slot is a bookable interval [StartsAt, EndsAt) of one facility. Price is in
// minor units and is a snapshot taken at creation.
type Slot struct {
	ID         uuid.UUID  `json:"id"`
	FacilityID int64      `json:"facility_id"`
	StartsAt   time.Time  `json:"starts_at"`
	EndsAt     time.Time  `json:"ends_at"`
	Price      int64      `json:"price"`
	Status     SlotStatus `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
}

var slotColumns = []string{"id", "facility_id", "starts_at", "ends_at", "price", "status", "created_at"}

// SlotClient reads and writes the slots table.
type SlotClient struct {
	conn    dialect.ExecQuerier
	dialect string
}

// Create inserts s. A time-ordered ID is assigned when unset and the status
// defaults to free.
func (c *SlotClient) Create(ctx context.Context, s *Slot) (*Slot, error) {
	if s.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return nil, err
		}
		s.ID = id
	}
	if s.Status == "" {
		s.Status = SlotStatusFree
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now()
	}
	q, args := sql.Dialect(c.dialect).
		Insert("slots").
		Columns(slotColumns...).
		Values(s.ID, s.FacilityID, utc(s.StartsAt), utc(s.EndsAt), s.Price, string(s.Status), utc(s.CreatedAt)).
		Query()
	if _, err := exec(ctx, c.conn, q, args); err != nil {
		return nil, fmt.Errorf("insert slot: %w", asConstraint(err))
	}
	return s, nil
}

// Get returns the slot with id inside facilityID.
func (c *SlotClient) Get(ctx context.Context, facilityID int64, id uuid.UUID) (*Slot, error) {
	list, err := c.list(ctx, sql.And(sql.EQ("facility_id", facilityID), sql.EQ("id", id)))
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, &NotFoundError{label: "slot"}
	}
	return list[0], nil
}

// FindByFacilityAndRange returns every slot of the facility, whatever its
// status, whose interval intersects [from, to).
func (c *SlotClient) FindByFacilityAndRange(ctx context.Context, facilityID int64, from, to time.Time) ([]*Slot, error) {
	return c.list(ctx, sql.And(
		sql.EQ("facility_id", facilityID),
		sql.LT("starts_at", utc(to)),
		sql.GT("ends_at", utc(from)),
	))
}

// ListStartingBetween returns the facility's slots starting in [from, to).
func (c *SlotClient) ListStartingBetween(ctx context.Context, facilityID int64, from, to time.Time) ([]*Slot, error) {
	return c.list(ctx, sql.And(
		sql.EQ("facility_id", facilityID),
		sql.GTE("starts_at", utc(from)),
		sql.LT("starts_at", utc(to)),
	))
}

// UpdateStatus sets the status of a slot, failing with NotFoundError when no
// row matches.
func (c *SlotClient) UpdateStatus(ctx context.Context, facilityID int64, id uuid.UUID, status SlotStatus) error {
	q, args := sql.Dialect(c.dialect).
		Update("slots").
		Set("status", string(status)).
		Where(sql.And(sql.EQ("facility_id", facilityID), sql.EQ("id", id))).
		Query()
	n, err := exec(ctx, c.conn, q, args)
	if err != nil {
		return fmt.Errorf("update slot status: %w", err)
	}
	if n == 0 {
		return &NotFoundError{label: "slot"}
	}
	return nil
}

func (c *SlotClient) Delete(ctx context.Context, facilityID int64, id uuid.UUID) error {
	q, args := sql.Dialect(c.dialect).
		Delete("slots").
		Where(sql.And(sql.EQ("facility_id", facilityID), sql.EQ("id", id))).
		Query()
	n, err := exec(ctx, c.conn, q, args)
	if err != nil {
		return fmt.Errorf("delete slot: %w", err)
	}
	if n == 0 {
		return &NotFoundError{label: "slot"}
	}
	return nil
}

func (c *SlotClient) list(ctx context.Context, p *sql.Predicate) ([]*Slot, error) {
	q, args := sql.Dialect(c.dialect).
		Select(slotColumns...).
		From(sql.Table("slots")).
		Where(p).
		OrderBy(sql.Asc("starts_at"), sql.Asc("id")).
		Query()
	rows, err := query(ctx, c.conn, q, args)
	if err != nil {
		return nil, fmt.Errorf("query slots: %w", err)
	}
	defer rows.Close()

	var out []*Slot
	for rows.Next() {
		var (
			s      Slot
			status string
		)
		if err := rows.Scan(&s.ID, &s.FacilityID, &s.StartsAt, &s.EndsAt, &s.Price, &status, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		s.Status = SlotStatus(status)
		s.StartsAt, s.EndsAt, s.CreatedAt = utc(s.StartsAt), utc(s.EndsAt), utc(s.CreatedAt)
		out = append(out, &s)
	}
	return out, rows.Err()
}
