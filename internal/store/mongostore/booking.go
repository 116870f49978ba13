package mongostore

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"advisory-api/internal/model"
	"advisory-api/internal/store"
)

// CreateBusiness inserts the business and pushes its ref onto the owner in
// one transaction. businessId mirrors the generated _id.
func (s *Store) CreateBusiness(ctx context.Context, b *model.Business, ownerID string) error {
	owner, err := oid(ownerID)
	if err != nil {
		return err
	}
	now := s.now().UTC()
	doc := businessDoc{
		ID:          bson.NewObjectID(),
		Name:        b.Name,
		Description: b.Description,
		Managers:    []bson.ObjectID{owner},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	doc.BusinessID = doc.ID.Hex()

	err = s.inTx(ctx, func(ctx context.Context, db *mongo.Database) error {
		if _, err := db.Collection(colBusinesses).InsertOne(ctx, doc); err != nil {
			return mapErr(err)
		}
		res, err := db.Collection(colUsers).UpdateOne(ctx,
			bson.D{{Key: "_id", Value: owner}},
			bson.D{
				{Key: "$push", Value: bson.D{{Key: "business", Value: doc.ID}}},
				{Key: "$set", Value: bson.D{{Key: "updatedAt", Value: now}}},
			})
		if err != nil {
			return err
		}
		if res.MatchedCount == 0 {
			return store.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}
	*b = doc.model()
	return nil
}

func (s *Store) BusinessByID(ctx context.Context, id string) (*model.Business, error) {
	o, err := oid(id)
	if err != nil {
		return nil, err
	}
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	var doc businessDoc
	if err := db.Collection(colBusinesses).FindOne(ctx, bson.D{{Key: "_id", Value: o}}).Decode(&doc); err != nil {
		return nil, mapErr(err)
	}
	b := doc.model()
	return &b, nil
}

// CreateAppointment validates the enums before touching the collection and
// records the ref on the booking user.
func (s *Store) CreateAppointment(ctx context.Context, a *model.Appointment) error {
	if err := a.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalid, err)
	}
	biz, err := oid(a.BusinessID)
	if err != nil {
		return err
	}
	user, err := oid(a.UserID)
	if err != nil {
		return err
	}
	now := s.now().UTC()
	doc := appointmentDoc{
		ID:        bson.NewObjectID(),
		Business:  biz,
		User:      user,
		Date:      a.Date.UTC(),
		Notes:     a.Notes,
		Type:      string(a.Type),
		Status:    string(a.Status),
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.inTx(ctx, func(ctx context.Context, db *mongo.Database) error {
		n, err := db.Collection(colBusinesses).CountDocuments(ctx, bson.D{{Key: "_id", Value: biz}})
		if err != nil {
			return err
		}
		if n == 0 {
			return store.ErrNotFound
		}
		if _, err := db.Collection(colAppointments).InsertOne(ctx, doc); err != nil {
			return mapErr(err)
		}
		res, err := db.Collection(colUsers).UpdateOne(ctx,
			bson.D{{Key: "_id", Value: user}},
			bson.D{{Key: "$push", Value: bson.D{{Key: "appointments", Value: doc.ID}}}})
		if err != nil {
			return err
		}
		if res.MatchedCount == 0 {
			return store.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}
	*a = doc.model()
	return nil
}

func (s *Store) AppointmentsByBusiness(ctx context.Context, businessID string) ([]model.Appointment, error) {
	biz, err := oid(businessID)
	if err != nil {
		// unknown id format: nothing can reference it
		return []model.Appointment{}, nil
	}
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	cur, err := db.Collection(colAppointments).Find(ctx,
		bson.D{{Key: "business", Value: biz}},
		options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "createdAt", Value: 1}}),
	)
	if err != nil {
		return nil, err
	}
	var docs []appointmentDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]model.Appointment, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].model())
	}
	return out, nil
}
