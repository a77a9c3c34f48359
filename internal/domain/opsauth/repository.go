package opsauth

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

type Repository interface {
	GetByUsername(ctx context.Context, username string) (*Operator, error)
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetByUsername(ctx context.Context, username string) (*Operator, error) {
	var op Operator

	query := `SELECT id, username, password_hash, active, created_at
		FROM ops_operators
		WHERE username = $1`

	if err := r.db.GetContext(ctx, &op, query, username); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	return &op, nil
}
