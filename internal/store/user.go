package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"advisory-api/internal/model"
)

const userColumns = `id, name, COALESCE(username,''), COALESCE(email,''), COALESCE(dob,''),
	COALESCE(number,''), COALESCE(hometown,''), COALESCE(oauth_provider,''), COALESCE(oauth_id,''),
	created_at, updated_at`

func scanUser(row pgx.Row) (*model.User, error) {
	u := &model.User{}
	err := row.Scan(&u.ID, &u.Name, &u.Username, &u.Email, &u.DOB,
		&u.Number, &u.Hometown, &u.OAuthProvider, &u.OAuthID,
		&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return u, nil
}

func (s *Store) CreateUser(ctx context.Context, u *model.User) error {
	pool, err := s.conn(ctx)
	if err != nil {
		return err
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	err = pool.QueryRow(ctx,
		`INSERT INTO users (id, name, username, email, oauth_provider, oauth_id)
		 VALUES ($1, $2, NULLIF($3,''), NULLIF($4,''), NULLIF($5,''), NULLIF($6,''))
		 RETURNING created_at, updated_at`,
		u.ID, u.Name, u.Username, u.Email, u.OAuthProvider, u.OAuthID,
	).Scan(&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// UserByID loads the user with its businesses populated and appointment refs.
func (s *Store) UserByID(ctx context.Context, id string) (*model.User, error) {
	pool, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	u, err := scanUser(pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	if err := s.populate(ctx, pool, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Store) UserByEmail(ctx context.Context, email string) (*model.User, error) {
	pool, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	u, err := scanUser(pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if err != nil {
		return nil, err
	}
	return u, s.populate(ctx, pool, u)
}

func (s *Store) UserByOAuthID(ctx context.Context, provider, oauthID string) (*model.User, error) {
	pool, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	u, err := scanUser(pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE oauth_provider = $1 AND oauth_id = $2`,
		provider, oauthID))
	if err != nil {
		return nil, err
	}
	return u, s.populate(ctx, pool, u)
}

func (s *Store) UsernameExists(ctx context.Context, username string) (bool, error) {
	pool, err := s.conn(ctx)
	if err != nil {
		return false, err
	}
	var exists bool
	err = pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`, username).Scan(&exists)
	return exists, err
}

// UpdateUserProfile overwrites only the supplied fields.
func (s *Store) UpdateUserProfile(ctx context.Context, id string, p model.ProfileUpdate) (*model.User, error) {
	pool, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	u, err := scanUser(pool.QueryRow(ctx,
		`UPDATE users
		 SET dob = COALESCE($2, dob),
		     number = COALESCE($3, number),
		     hometown = COALESCE($4, hometown),
		     updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+userColumns,
		id, p.DOB, p.Number, p.Hometown))
	if err != nil {
		return nil, err
	}
	return u, s.populate(ctx, pool, u)
}

func (s *Store) populate(ctx context.Context, pool *pgxpool.Pool, u *model.User) error {
	rows, err := pool.Query(ctx,
		`SELECT `+businessColumns+`
		 FROM businesses b
		 JOIN business_managers m ON m.business_id = b.id
		 WHERE m.user_id = $1
		 ORDER BY m.linked_at`, u.ID)
	if err != nil {
		return fmt.Errorf("load businesses: %w", err)
	}
	u.Businesses, err = collectBusinesses(rows)
	if err != nil {
		return err
	}
	if err := s.loadManagers(ctx, pool, u.Businesses); err != nil {
		return err
	}

	rows, err = pool.Query(ctx,
		`SELECT id FROM appointments WHERE user_id = $1 ORDER BY created_at`, u.ID)
	if err != nil {
		return fmt.Errorf("load appointments: %w", err)
	}
	u.AppointmentIDs, err = pgx.CollectRows(rows, pgx.RowTo[string])
	return err
}
