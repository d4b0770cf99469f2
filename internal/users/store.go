// Package users is the staff account store. Accounts are relational
// (not documents): identity is an external collaborator to the sync
// engine and never flows through the snapshot pipeline.
package users

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type User struct {
	ID             uuid.UUID
	Email          string
	HashedPassword string
	Name           string
	Phone          string
}

// PG is the pgx-backed user store.
type PG struct {
	pool *pgxpool.Pool
}

func NewPG(pool *pgxpool.Pool) *PG {
	return &PG{pool: pool}
}

func (s *PG) Create(ctx context.Context, email, hashedPassword, name, phone string) (uuid.UUID, error) {
	var id uuid.UUID
	err := s.pool.QueryRow(ctx,
		`INSERT INTO users (email, password_hash, name, phone)
		 VALUES ($1, $2, $3, $4) RETURNING id`,
		email, hashedPassword, name, phone,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("create user: %w", err)
	}
	return id, nil
}

func (s *PG) GetByEmail(ctx context.Context, email string) (User, error) {
	var u User
	err := s.pool.QueryRow(ctx,
		`SELECT id, email, password_hash, name, phone FROM users WHERE email = $1`,
		email,
	).Scan(&u.ID, &u.Email, &u.HashedPassword, &u.Name, &u.Phone)
	if err != nil {
		return User{}, err
	}
	return u, nil
}

func (s *PG) GetByID(ctx context.Context, id uuid.UUID) (User, error) {
	var u User
	err := s.pool.QueryRow(ctx,
		`SELECT id, email, password_hash, name, phone FROM users WHERE id = $1`,
		id,
	).Scan(&u.ID, &u.Email, &u.HashedPassword, &u.Name, &u.Phone)
	if err != nil {
		return User{}, err
	}
	return u, nil
}
