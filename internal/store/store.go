package store

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound = errors.New("not found")
	ErrInvalid  = errors.New("invalid record")
	ErrConflict = errors.New("already exists")
)

//go:embed migrations/*.sql
var migrations embed.FS

// Store is the postgres backend. The pool is opened lazily by Connect and
// reused for the life of the process.
type Store struct {
	dsn string

	mu   sync.Mutex
	pool *pgxpool.Pool
}

// Open returns an unconnected store; the first Connect dials.
func Open(dsn string) *Store {
	return &Store{dsn: dsn}
}

// New wraps an already connected pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Connect dials and pings once; later calls reuse the pool. A failed
// attempt leaves the store unconnected so the next call retries.
func (s *Store) Connect(ctx context.Context) error {
	_, err := s.conn(ctx)
	return err
}

func (s *Store) conn(ctx context.Context) (*pgxpool.Pool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pool != nil {
		return s.pool, nil
	}
	if s.dsn == "" {
		return nil, errors.New("postgres: empty DATABASE_URL")
	}
	pool, err := pgxpool.New(ctx, s.dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	s.pool = pool
	return pool, nil
}

func (s *Store) Ping(ctx context.Context) error {
	pool, err := s.conn(ctx)
	if err != nil {
		return err
	}
	return pool.Ping(ctx)
}

func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pool != nil {
		s.pool.Close()
		s.pool = nil
	}
}

// Migrate applies the embedded schema files in name order. Every statement
// is idempotent so it is safe to run on each start.
func (s *Store) Migrate(ctx context.Context) ([]string, error) {
	pool, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	entries, err := migrations.ReadDir("migrations")
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		sql, err := migrations.ReadFile("migrations/" + name)
		if err != nil {
			return nil, err
		}
		if _, err := pool.Exec(ctx, string(sql)); err != nil {
			return nil, fmt.Errorf("migration %s: %w", name, err)
		}
	}
	return names, nil
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
