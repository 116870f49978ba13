package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"advisory-api/internal/model"
)

func (s *Store) CreateAdvisor(ctx context.Context, a *model.Advisor) error {
	pool, err := s.conn(ctx)
	if err != nil {
		return err
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	err = pool.QueryRow(ctx,
		`INSERT INTO advisors (id, email, name, password_hash) VALUES ($1,$2,$3,$4)
		 RETURNING created_at`,
		a.ID, a.Email, a.Name, a.PasswordHash,
	).Scan(&a.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return fmt.Errorf("create advisor: %w", err)
	}
	return nil
}

func (s *Store) AdvisorByEmail(ctx context.Context, email string) (*model.Advisor, error) {
	pool, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	a := &model.Advisor{}
	err = pool.QueryRow(ctx,
		`SELECT id, email, name, password_hash, created_at FROM advisors WHERE email = $1`, email,
	).Scan(&a.ID, &a.Email, &a.Name, &a.PasswordHash, &a.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return a, nil
}

// ListClients builds the advisor dashboard. q filters on user name or
// business name, case-insensitive.
func (s *Store) ListClients(ctx context.Context, q string) ([]model.ClientSummary, error) {
	pool, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := pool.Query(ctx,
		`SELECT u.id,
		        (SELECT COUNT(*) FROM appointments a WHERE a.user_id = u.id),
		        (SELECT MIN(a.date) FROM appointments a
		          WHERE a.user_id = u.id AND a.status = 'scheduled' AND a.date >= NOW())
		 FROM users u
		 WHERE $1 = ''
		    OR u.name ILIKE '%' || $1 || '%'
		    OR EXISTS (SELECT 1 FROM business_managers m JOIN businesses b ON b.id = m.business_id
		               WHERE m.user_id = u.id AND b.name ILIKE '%' || $1 || '%')
		 ORDER BY u.created_at`, q)
	if err != nil {
		return nil, err
	}

	type row struct {
		summary model.ClientSummary
		id      string
	}
	var found []row
	for rows.Next() {
		var r row
		if err := rows.Scan(&r.id, &r.summary.AppointmentCount, &r.summary.NextAppointment); err != nil {
			rows.Close()
			return nil, err
		}
		found = append(found, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]model.ClientSummary, 0, len(found))
	for _, r := range found {
		u, err := s.UserByID(ctx, r.id)
		if err != nil {
			return nil, err
		}
		r.summary.User = *u
		out = append(out, r.summary)
	}
	return out, nil
}
