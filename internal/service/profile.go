package service

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"advisory-api/internal/auth"
	"advisory-api/internal/model"
)

const (
	FieldDOB                 = "dob"
	FieldNumber              = "number"
	FieldHometown            = "hometown"
	FieldBusinessName        = "business.name"
	FieldBusinessDescription = "business.description"
)

// DOBLayout is the stored representation of a date of birth.
const DOBLayout = "2006-01-02T15:04:05.000Z07:00"

// MissingFields lists the profile fields userID has not supplied yet. Any
// lookup problem yields an empty list.
func (s *Service) MissingFields(ctx context.Context, userID string) []string {
	ctx, span := s.tracer.Start(ctx, "service.MissingFields")
	defer span.End()

	missing := []string{}
	if userID == "" {
		return missing
	}
	u, err := s.repo.UserByID(ctx, userID)
	if err != nil {
		s.log.Debug("missing fields lookup", zap.String("user", userID), zap.Error(err))
		return missing
	}
	return Missing(u)
}

// Missing is the pure completeness check over a loaded user.
func Missing(u *model.User) []string {
	missing := []string{}
	if u.DOB == "" {
		missing = append(missing, FieldDOB)
	}
	if u.Number == "" {
		missing = append(missing, FieldNumber)
	}
	if u.Hometown == "" {
		missing = append(missing, FieldHometown)
	}
	b := u.PrimaryBusiness()
	if b == nil {
		return append(missing, FieldBusinessName, FieldBusinessDescription)
	}
	if b.Name == "" {
		missing = append(missing, FieldBusinessName)
	}
	if b.Description == "" {
		missing = append(missing, FieldBusinessDescription)
	}
	return missing
}

type ProfileInput struct {
	DOB      string `json:"dob,omitempty"`
	Number   string `json:"number,omitempty"`
	Hometown string `json:"hometown,omitempty"`
}

// UpdateUser overwrites the supplied profile fields of targetID. Only the
// user themselves may do so.
func (s *Service) UpdateUser(ctx context.Context, targetID string, in ProfileInput) (*model.User, error) {
	ctx, span := s.tracer.Start(ctx, "service.UpdateUser")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", targetID))

	id, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrNoSession
	}
	if id.UserID != targetID {
		return nil, ErrForbidden
	}

	var p model.ProfileUpdate
	if v := strings.TrimSpace(in.DOB); v != "" {
		dob, err := NormalizeDOB(v)
		if err != nil {
			return nil, invalid("dob must be a date")
		}
		p.DOB = &dob
	}
	if v := strings.TrimSpace(in.Number); v != "" {
		p.Number = &v
	}
	if v := strings.TrimSpace(in.Hometown); v != "" {
		p.Hometown = &v
	}

	var (
		u   *model.User
		err error
	)
	if p.Empty() {
		u, err = s.repo.UserByID(ctx, targetID)
	} else {
		u, err = s.repo.UpdateUserProfile(ctx, targetID, p)
	}
	if err != nil {
		return nil, s.storeErr(err, "user", "update user")
	}
	return u, nil
}

var dobLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02",
}

// NormalizeDOB parses a client supplied date and renders it as DOBLayout in UTC.
func NormalizeDOB(v string) (string, error) {
	t, err := parseTime(v)
	if err != nil {
		return "", err
	}
	return t.UTC().Format(DOBLayout), nil
}

func parseTime(v string) (time.Time, error) {
	var err error
	for _, layout := range dobLayouts {
		var t time.Time
		if t, err = time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}

// Me returns the caller's own record.
func (s *Service) Me(ctx context.Context) (*model.User, error) {
	id, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrNoSession
	}
	u, err := s.repo.UserByID(ctx, id.UserID)
	if err != nil {
		return nil, s.storeErr(err, "user", "load session user")
	}
	return u, nil
}
