package repo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
)

// Role values stored in users.role.
const (
	RolePlayer = "player"
	RoleClub   = "club"
	RoleAdmin  = "admin"
)

// User is an account of the platform.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FullName     string    `json:"full_name"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

var userColumns = []string{"id", "email", "password_hash", "full_name", "role", "created_at"}

// UserClient reads and writes the users table.
type UserClient struct {
	conn    dialect.ExecQuerier
	dialect string
}

// Create inserts u, assigning its ID and CreatedAt when unset.
func (c *UserClient) Create(ctx context.Context, u *User) (*User, error) {
	if u.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return nil, err
		}
		u.ID = id
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now()
	}
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))

	q, args := sql.Dialect(c.dialect).
		Insert("users").
		Columns(userColumns...).
		Values(u.ID, u.Email, u.PasswordHash, u.FullName, u.Role, utc(u.CreatedAt)).
		Query()
	if _, err := exec(ctx, c.conn, q, args); err != nil {
		return nil, fmt.Errorf("insert user: %w", asConstraint(err))
	}
	return u, nil
}

func (c *UserClient) Get(ctx context.Context, id uuid.UUID) (*User, error) {
	return c.one(ctx, sql.EQ("id", id))
}

func (c *UserClient) GetByEmail(ctx context.Context, email string) (*User, error) {
	return c.one(ctx, sql.EQ("email", strings.ToLower(strings.TrimSpace(email))))
}

// SetPasswordHash replaces the stored hash of user id.
func (c *UserClient) SetPasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	q, args := sql.Dialect(c.dialect).
		Update("users").
		Set("password_hash", hash).
		Where(sql.EQ("id", id)).
		Query()
	n, err := exec(ctx, c.conn, q, args)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if n == 0 {
		return &NotFoundError{label: "user"}
	}
	return nil
}

func (c *UserClient) one(ctx context.Context, p *sql.Predicate) (*User, error) {
	q, args := sql.Dialect(c.dialect).
		Select(userColumns...).
		From(sql.Table("users")).
		Where(p).
		Limit(1).
		Query()
	rows, err := query(ctx, c.conn, q, args)
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, &NotFoundError{label: "user"}
	}
	var u User
	if err := rows.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.Role, &u.CreatedAt); err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	u.CreatedAt = utc(u.CreatedAt)
	return &u, nil
}
