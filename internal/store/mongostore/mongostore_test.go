package mongostore

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"

	"advisory-api/internal/model"
	"advisory-api/internal/store"
)

// Transactions need a replica set, e.g. mongod --replSet rs0.
func setup(t *testing.T) *Store {
	t.Helper()
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("MONGO_URI not set")
	}
	st := Open(uri, "advisory_test")
	ctx := context.Background()
	if err := st.Connect(ctx); err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = st.Close(context.Background()) })
	return st
}

func TestOIDRejectsMalformed(t *testing.T) {
	if _, err := oid("not-hex"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("got %v", err)
	}
}

func TestBookingFlow(t *testing.T) {
	st := setup(t)
	ctx := context.Background()
	tag := uuid.New().String()[:8]

	u := &model.User{Name: "Mongo " + tag, Username: "mongo_" + tag, Email: tag + "@test.com"}
	if err := st.CreateUser(ctx, u); err != nil {
		t.Fatalf("create user: %v", err)
	}

	b := &model.Business{Name: "Acme", Description: "Bikes"}
	if err := st.CreateBusiness(ctx, b, u.ID); err != nil {
		t.Fatalf("create business: %v", err)
	}
	if b.BusinessID != b.ID {
		t.Errorf("businessId %q != id %q", b.BusinessID, b.ID)
	}

	base := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	for _, d := range []int{2, 1} {
		a := &model.Appointment{BusinessID: b.ID, UserID: u.ID, Date: base.AddDate(0, 0, d), Type: model.MeetingRemote, Status: model.StatusScheduled}
		if err := st.CreateAppointment(ctx, a); err != nil {
			t.Fatalf("create appointment: %v", err)
		}
	}
	list, err := st.AppointmentsByBusiness(ctx, b.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].Date.After(list[1].Date) {
		t.Errorf("unexpected order: %+v", list)
	}

	got, err := st.UserByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("by id: %v", err)
	}
	if len(got.Businesses) != 1 || len(got.AppointmentIDs) != 2 {
		t.Errorf("refs not populated: %+v", got)
	}

}

func TestCreateBusinessUnknownOwnerRollsBack(t *testing.T) {
	st := setup(t)
	ctx := context.Background()
	name := "Orphan-" + uuid.New().String()[:8]

	// the insert runs before the owner update fails, so only an aborted
	// transaction keeps the collection clean
	orphan := &model.Business{Name: name, Description: "x"}
	ghost := bson.NewObjectID().Hex()
	if err := st.CreateBusiness(ctx, orphan, ghost); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	db, err := st.conn(ctx)
	if err != nil {
		t.Fatalf("conn: %v", err)
	}
	n, err := db.Collection(colBusinesses).CountDocuments(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Errorf("orphan business persisted: %d documents", n)
	}
}

func TestValidatorsCoverEnums(t *testing.T) {
	v := validators()
	props := v[colAppointments][0].Value.(bson.D)[2].Value.(bson.D)
	want := map[string]int{"type": 2, "status": 3}
	for _, p := range props {
		n, ok := want[p.Key]
		if !ok {
			continue
		}
		enum := p.Value.(bson.D)[0].Value.(bson.A)
		if len(enum) != n {
			t.Errorf("%s enum has %d values, want %d", p.Key, len(enum), n)
		}
		delete(want, p.Key)
	}
	if len(want) != 0 {
		t.Errorf("missing enums: %v", want)
	}
}

func TestRawInsertRejectedByValidator(t *testing.T) {
	st := setup(t)
	ctx := context.Background()
	db, err := st.conn(ctx)
	if err != nil {
		t.Fatalf("conn: %v", err)
	}
	doc := bson.D{
		{Key: "business", Value: bson.NewObjectID()},
		{Key: "user", Value: bson.NewObjectID()},
		{Key: "date", Value: time.Now()},
		{Key: "type", Value: "phone"},
		{Key: "status", Value: "scheduled"},
	}
	_, err = db.Collection(colAppointments).InsertOne(ctx, doc)
	if !errors.Is(mapErr(err), store.ErrInvalid) {
		t.Fatalf("expected invalid, got %v", err)
	}
}
