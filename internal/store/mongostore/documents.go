package mongostore

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"advisory-api/internal/model"
)

type userDoc struct {
	ID            bson.ObjectID   `bson:"_id,omitempty"`
	Name          string          `bson:"name"`
	Username      string          `bson:"username,omitempty"`
	Email         string          `bson:"email,omitempty"`
	DOB           string          `bson:"dob,omitempty"`
	Number        string          `bson:"number,omitempty"`
	Hometown      string          `bson:"hometown,omitempty"`
	OAuthProvider string          `bson:"oauthProvider,omitempty"`
	OAuthID       string          `bson:"oauthId,omitempty"`
	Business      []bson.ObjectID `bson:"business"`
	Appointments  []bson.ObjectID `bson:"appointments"`
	CreatedAt     time.Time       `bson:"createdAt"`
	UpdatedAt     time.Time       `bson:"updatedAt"`
}

type businessDoc struct {
	ID          bson.ObjectID   `bson:"_id,omitempty"`
	BusinessID  string          `bson:"businessId"`
	Name        string          `bson:"name"`
	Description string          `bson:"description"`
	Managers    []bson.ObjectID `bson:"managers"`
	CreatedAt   time.Time       `bson:"createdAt"`
	UpdatedAt   time.Time       `bson:"updatedAt"`
}

type appointmentDoc struct {
	ID        bson.ObjectID `bson:"_id,omitempty"`
	Business  bson.ObjectID `bson:"business"`
	User      bson.ObjectID `bson:"user"`
	Date      time.Time     `bson:"date"`
	Notes     string        `bson:"notes,omitempty"`
	Type      string        `bson:"type"`
	Status    string        `bson:"status"`
	CreatedAt time.Time     `bson:"createdAt"`
	UpdatedAt time.Time     `bson:"updatedAt"`
}

type advisorDoc struct {
	ID           bson.ObjectID `bson:"_id,omitempty"`
	Email        string        `bson:"email"`
	Name         string        `bson:"name"`
	PasswordHash string        `bson:"passwordHash"`
	CreatedAt    time.Time     `bson:"createdAt"`
}

func hexes(ids []bson.ObjectID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.Hex())
	}
	return out
}

func (d *userDoc) model() *model.User {
	return &model.User{
		ID:             d.ID.Hex(),
		Name:           d.Name,
		Username:       d.Username,
		Email:          d.Email,
		DOB:            d.DOB,
		Number:         d.Number,
		Hometown:       d.Hometown,
		OAuthProvider:  d.OAuthProvider,
		OAuthID:        d.OAuthID,
		Businesses:     []model.Business{},
		AppointmentIDs: hexes(d.Appointments),
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}

func (d *businessDoc) model() model.Business {
	return model.Business{
		ID:          d.ID.Hex(),
		BusinessID:  d.BusinessID,
		Name:        d.Name,
		Description: d.Description,
		ManagerIDs:  hexes(d.Managers),
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

func (d *appointmentDoc) model() model.Appointment {
	return model.Appointment{
		ID:         d.ID.Hex(),
		BusinessID: d.Business.Hex(),
		UserID:     d.User.Hex(),
		Date:       d.Date,
		Notes:      d.Notes,
		Type:       model.MeetingType(d.Type),
		Status:     model.Status(d.Status),
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}
}
