// Package mongostore keeps users, businesses and appointments as documents in
// three collections linked by ObjectID references.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"advisory-api/internal/store"
)

const (
	colUsers        = "users"
	colBusinesses   = "businesses"
	colAppointments = "appointments"
	colAdvisors     = "advisors"
)

// Store talks to MongoDB. Multi-document writes use transactions, which need
// a replica set or sharded cluster.
type Store struct {
	uri    string
	dbName string

	mu     sync.Mutex
	client *mongo.Client
	db     *mongo.Database

	now func() time.Time
}

func Open(uri, dbName string) *Store {
	return &Store{uri: uri, dbName: dbName, now: time.Now}
}

// Connect is idempotent: the first successful call dials, pings and builds
// indexes, later calls return immediately.
func (s *Store) Connect(ctx context.Context) error {
	_, err := s.conn(ctx)
	return err
}

func (s *Store) conn(ctx context.Context) (*mongo.Database, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		return s.db, nil
	}
	if s.uri == "" {
		return nil, errors.New("mongo: empty MONGO_URI")
	}
	client, err := mongo.Connect(options.Client().ApplyURI(s.uri))
	if err != nil {
		return nil, fmt.Errorf("mongo: connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo: ping: %w", err)
	}
	db := client.Database(s.dbName)
	if err := ensureValidators(ctx, db); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	if err := ensureIndexes(ctx, db); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	s.client, s.db = client, db
	return db, nil
}

func ensureIndexes(ctx context.Context, db *mongo.Database) error {
	idx := map[string][]mongo.IndexModel{
		colUsers: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetSparse(true)},
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true).SetSparse(true)},
			{Keys: bson.D{{Key: "oauthProvider", Value: 1}, {Key: "oauthId", Value: 1}}},
		},
		colBusinesses: {
			{Keys: bson.D{{Key: "businessId", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		colAppointments: {
			{Keys: bson.D{{Key: "business", Value: 1}, {Key: "date", Value: 1}}},
		},
		colAdvisors: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
	}
	for col, models := range idx {
		if _, err := db.Collection(col).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("mongo: indexes on %s: %w", col, err)
		}
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	if _, err := s.conn(ctx); err != nil {
		return err
	}
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *Store) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client == nil {
		return nil
	}
	err := s.client.Disconnect(ctx)
	s.client, s.db = nil, nil
	return err
}

// inTx runs fn inside a session transaction.
func (s *Store) inTx(ctx context.Context, fn func(ctx context.Context, db *mongo.Database) error) error {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}
	sess, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("mongo: start session: %w", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(ctx context.Context) (any, error) {
		return nil, fn(ctx, db)
	})
	return err
}

func oid(id string) (bson.ObjectID, error) {
	o, err := bson.ObjectIDFromHex(id)
	if err != nil {
		// a malformed id can never match a stored document
		return bson.NilObjectID, store.ErrNotFound
	}
	return o, nil
}

func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return store.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return store.ErrConflict
	case hasCode(err, codeDocumentValidation):
		return fmt.Errorf("%w: %v", store.ErrInvalid, err)
	}
	return err
}
