package repo

import (
	"context"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
)

// Facility is a bookable sports ground ("terrain") owned by a club account.
type Facility struct {
	ID        int64     `json:"id"`
	OwnerID   uuid.UUID `json:"owner_id"`
	Name      string    `json:"name"`
	Sport     string    `json:"sport"`
	City      string    `json:"city"`
	CreatedAt time.Time `json:"created_at"`
}

var facilityColumns = []string{"id", "owner_id", "name", "sport", "city", "created_at"}

// FacilityClient reads and writes the facilities table.
type FacilityClient struct {
	conn    dialect.ExecQuerier
	dialect string
}

// Create inserts f and sets its generated ID.
func (c *FacilityClient) Create(ctx context.Context, f *Facility) (*Facility, error) {
	if f.CreatedAt.IsZero() {
		f.CreatedAt = now()
	}
	q, args := sql.Dialect(c.dialect).
		Insert("facilities").
		Columns("owner_id", "name", "sport", "city", "created_at").
		Values(f.OwnerID, f.Name, f.Sport, f.City, utc(f.CreatedAt)).
		Returning("id").
		Query()
	rows, err := query(ctx, c.conn, q, args)
	if err != nil {
		return nil, fmt.Errorf("insert facility: %w", asConstraint(err))
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("insert facility: %w", asConstraint(err))
		}
		return nil, fmt.Errorf("insert facility: no id returned")
	}
	if err := rows.Scan(&f.ID); err != nil {
		return nil, fmt.Errorf("scan facility id: %w", err)
	}
	return f, nil
}

func (c *FacilityClient) Get(ctx context.Context, id int64) (*Facility, error) {
	list, err := c.list(ctx, sql.EQ("id", id), false)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, &NotFoundError{label: "facility"}
	}
	return list[0], nil
}

// GetForUpdate loads the facility and, on PostgreSQL, row-locks it until the
// surrounding transaction ends. SQLite serializes writers on its own.
func (c *FacilityClient) GetForUpdate(ctx context.Context, id int64) (*Facility, error) {
	list, err := c.list(ctx, sql.EQ("id", id), c.dialect == dialect.Postgres)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, &NotFoundError{label: "facility"}
	}
	return list[0], nil
}

func (c *FacilityClient) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*Facility, error) {
	return c.list(ctx, sql.EQ("owner_id", ownerID), false)
}

func (c *FacilityClient) List(ctx context.Context) ([]*Facility, error) {
	return c.list(ctx, nil, false)
}

func (c *FacilityClient) list(ctx context.Context, p *sql.Predicate, forUpdate bool) ([]*Facility, error) {
	s := sql.Dialect(c.dialect).
		Select(facilityColumns...).
		From(sql.Table("facilities")).
		OrderBy(sql.Asc("id"))
	if p != nil {
		s.Where(p)
	}
	if forUpdate {
		s.ForUpdate()
	}
	q, args := s.Query()

	rows, err := query(ctx, c.conn, q, args)
	if err != nil {
		return nil, fmt.Errorf("query facilities: %w", err)
	}
	defer rows.Close()

	var out []*Facility
	for rows.Next() {
		var f Facility
		if err := rows.Scan(&f.ID, &f.OwnerID, &f.Name, &f.Sport, &f.City, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan facility: %w", err)
		}
		f.CreatedAt = utc(f.CreatedAt)
		out = append(out, &f)
	}
	return out, rows.Err()
}
