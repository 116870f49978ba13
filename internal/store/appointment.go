package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"advisory-api/internal/model"
)

// CreateAppointment inserts without any overlap check; concurrent bookings
// of the same business and time both succeed.
func (s *Store) CreateAppointment(ctx context.Context, a *model.Appointment) error {
	if err := a.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	pool, err := s.conn(ctx)
	if err != nil {
		return err
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}

	err = pool.QueryRow(ctx,
		`INSERT INTO appointments (id, business_id, user_id, date, notes, type, status)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)
		 RETURNING created_at, updated_at`,
		a.ID, a.BusinessID, a.UserID, a.Date, a.Notes, string(a.Type), string(a.Status),
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23503": // foreign key: business or user missing
				return ErrNotFound
			case "23514": // check: enum
				return ErrInvalid
			}
		}
		return fmt.Errorf("insert appointment: %w", err)
	}
	return nil
}

func (s *Store) AppointmentsByBusiness(ctx context.Context, businessID string) ([]model.Appointment, error) {
	pool, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := pool.Query(ctx,
		`SELECT id, business_id, user_id, date, notes, type, status, created_at, updated_at
		 FROM appointments
		 WHERE business_id = $1
		 ORDER BY date, created_at`, businessID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Appointment{}
	for rows.Next() {
		var a model.Appointment
		var typ, status string
		if err := rows.Scan(
			&a.ID, &a.BusinessID, &a.UserID, &a.Date, &a.Notes,
			&typ, &status, &a.CreatedAt, &a.UpdatedAt,
		); err != nil {
			return nil, err
		}
		a.Type, a.Status = model.MeetingType(typ), model.Status(status)
		out = append(out, a)
	}
	return out, rows.Err()
}
