package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"advisory-api/internal/model"
)

const businessColumns = `b.id, b.business_id, b.name, b.description, b.created_at, b.updated_at`

func collectBusinesses(rows pgx.Rows) ([]model.Business, error) {
	defer rows.Close()
	out := []model.Business{}
	for rows.Next() {
		var b model.Business
		if err := rows.Scan(&b.ID, &b.BusinessID, &b.Name, &b.Description, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan business: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *Store) loadManagers(ctx context.Context, pool *pgxpool.Pool, bs []model.Business) error {
	for i := range bs {
		rows, err := pool.Query(ctx,
			`SELECT user_id FROM business_managers WHERE business_id = $1 ORDER BY linked_at`, bs[i].ID)
		if err != nil {
			return fmt.Errorf("load managers: %w", err)
		}
		bs[i].ManagerIDs, err = pgx.CollectRows(rows, pgx.RowTo[string])
		if err != nil {
			return err
		}
	}
	return nil
}

// CreateBusiness inserts the business and links it to its owner in one
// transaction, so a failed link never leaves an orphaned business.
func (s *Store) CreateBusiness(ctx context.Context, b *model.Business, ownerID string) error {
	pool, err := s.conn(ctx)
	if err != nil {
		return err
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, ownerID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}

	b.ID = uuid.NewString()
	b.BusinessID = b.ID
	b.ManagerIDs = []string{ownerID}

	err = tx.QueryRow(ctx,
		`INSERT INTO businesses (id, business_id, name, description)
		 VALUES ($1, $2, $3, $4)
		 RETURNING created_at, updated_at`,
		b.ID, b.BusinessID, b.Name, b.Description,
	).Scan(&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert business: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO business_managers (business_id, user_id) VALUES ($1, $2)`,
		b.ID, ownerID,
	)
	if err != nil {
		return fmt.Errorf("link business: %w", err)
	}

	return tx.Commit(ctx)
}

func (s *Store) BusinessByID(ctx context.Context, id string) (*model.Business, error) {
	pool, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := pool.Query(ctx, `SELECT `+businessColumns+` FROM businesses b WHERE b.id = $1`, id)
	if err != nil {
		return nil, err
	}
	bs, err := collectBusinesses(rows)
	if err != nil {
		return nil, err
	}
	if len(bs) == 0 {
		return nil, ErrNotFound
	}
	if err := s.loadManagers(ctx, pool, bs); err != nil {
		return nil, err
	}
	return &bs[0], nil
}
