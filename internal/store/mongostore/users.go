package mongostore

import (
	"context"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"advisory-api/internal/model"
	"advisory-api/internal/store"
)

func (s *Store) CreateUser(ctx context.Context, u *model.User) error {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}
	now := s.now().UTC()
	doc := userDoc{
		ID:            bson.NewObjectID(),
		Name:          u.Name,
		Username:      u.Username,
		Email:         u.Email,
		OAuthProvider: u.OAuthProvider,
		OAuthID:       u.OAuthID,
		Business:      []bson.ObjectID{},
		Appointments:  []bson.ObjectID{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if _, err := db.Collection(colUsers).InsertOne(ctx, doc); err != nil {
		return mapErr(err)
	}
	u.ID = doc.ID.Hex()
	u.CreatedAt, u.UpdatedAt = now, now
	return nil
}

func (s *Store) findUser(ctx context.Context, filter bson.D) (*model.User, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	var doc userDoc
	if err := db.Collection(colUsers).FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, mapErr(err)
	}
	return s.populate(ctx, db, &doc)
}

// populate resolves the business refs in list order.
func (s *Store) populate(ctx context.Context, db *mongo.Database, doc *userDoc) (*model.User, error) {
	u := doc.model()
	if len(doc.Business) == 0 {
		return u, nil
	}
	cur, err := db.Collection(colBusinesses).Find(ctx, bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: doc.Business}}}})
	if err != nil {
		return nil, fmt.Errorf("mongo: load businesses: %w", err)
	}
	var docs []businessDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	byID := make(map[bson.ObjectID]businessDoc, len(docs))
	for _, d := range docs {
		byID[d.ID] = d
	}
	for _, id := range doc.Business {
		if d, ok := byID[id]; ok {
			u.Businesses = append(u.Businesses, d.model())
		}
	}
	return u, nil
}

func (s *Store) UserByID(ctx context.Context, id string) (*model.User, error) {
	o, err := oid(id)
	if err != nil {
		return nil, err
	}
	return s.findUser(ctx, bson.D{{Key: "_id", Value: o}})
}

func (s *Store) UserByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.findUser(ctx, bson.D{{Key: "email", Value: email}})
}

func (s *Store) UserByOAuthID(ctx context.Context, provider, oauthID string) (*model.User, error) {
	return s.findUser(ctx, bson.D{{Key: "oauthProvider", Value: provider}, {Key: "oauthId", Value: oauthID}})
}

func (s *Store) UsernameExists(ctx context.Context, username string) (bool, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return false, err
	}
	n, err := db.Collection(colUsers).CountDocuments(ctx, bson.D{{Key: "username", Value: username}})
	return n > 0, err
}

func (s *Store) UpdateUserProfile(ctx context.Context, id string, p model.ProfileUpdate) (*model.User, error) {
	o, err := oid(id)
	if err != nil {
		return nil, err
	}
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	set := bson.D{{Key: "updatedAt", Value: s.now().UTC()}}
	if p.DOB != nil {
		set = append(set, bson.E{Key: "dob", Value: *p.DOB})
	}
	if p.Number != nil {
		set = append(set, bson.E{Key: "number", Value: *p.Number})
	}
	if p.Hometown != nil {
		set = append(set, bson.E{Key: "hometown", Value: *p.Hometown})
	}

	var doc userDoc
	err = db.Collection(colUsers).FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: o}},
		bson.D{{Key: "$set", Value: set}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return nil, mapErr(err)
	}
	return s.populate(ctx, db, &doc)
}

func (s *Store) CreateAdvisor(ctx context.Context, a *model.Advisor) error {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}
	doc := advisorDoc{
		ID:           bson.NewObjectID(),
		Email:        a.Email,
		Name:         a.Name,
		PasswordHash: a.PasswordHash,
		CreatedAt:    s.now().UTC(),
	}
	if _, err := db.Collection(colAdvisors).InsertOne(ctx, doc); err != nil {
		return mapErr(err)
	}
	a.ID, a.CreatedAt = doc.ID.Hex(), doc.CreatedAt
	return nil
}

func (s *Store) AdvisorByEmail(ctx context.Context, email string) (*model.Advisor, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	var doc advisorDoc
	if err := db.Collection(colAdvisors).FindOne(ctx, bson.D{{Key: "email", Value: email}}).Decode(&doc); err != nil {
		return nil, mapErr(err)
	}
	return &model.Advisor{
		ID:           doc.ID.Hex(),
		Email:        doc.Email,
		Name:         doc.Name,
		PasswordHash: doc.PasswordHash,
		CreatedAt:    doc.CreatedAt,
	}, nil
}

func (s *Store) ListClients(ctx context.Context, q string) ([]model.ClientSummary, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	cur, err := db.Collection(colUsers).Find(ctx, bson.D{},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var docs []userDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	q = strings.ToLower(q)
	now := s.now().UTC()
	appts := db.Collection(colAppointments)
	out := []model.ClientSummary{}
	for i := range docs {
		u, err := s.populate(ctx, db, &docs[i])
		if err != nil {
			return nil, err
		}
		if q != "" && !matches(u, q) {
			continue
		}
		sum := model.ClientSummary{User: *u}
		n, err := appts.CountDocuments(ctx, bson.D{{Key: "user", Value: docs[i].ID}})
		if err != nil {
			return nil, err
		}
		sum.AppointmentCount = int(n)

		var next appointmentDoc
		err = appts.FindOne(ctx,
			bson.D{
				{Key: "user", Value: docs[i].ID},
				{Key: "status", Value: string(model.StatusScheduled)},
				{Key: "date", Value: bson.D{{Key: "$gte", Value: now}}},
			},
			options.FindOne().SetSort(bson.D{{Key: "date", Value: 1}}),
		).Decode(&next)
		switch err = mapErr(err); err {
		case nil:
			d := next.Date
			sum.NextAppointment = &d
		case store.ErrNotFound:
		default:
			return nil, err
		}
		out = append(out, sum)
	}
	return out, nil
}

func matches(u *model.User, q string) bool {
	if strings.Contains(strings.ToLower(u.Name), q) {
		return true
	}
	for _, b := range u.Businesses {
		if strings.Contains(strings.ToLower(b.Name), q) {
			return true
		}
	}
	return false
}
