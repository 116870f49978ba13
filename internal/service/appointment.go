package service

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"advisory-api/internal/auth"
	"advisory-api/internal/events"
	"advisory-api/internal/model"
)

// ListAppointments returns every appointment of businessID by ascending date.
// Membership of the caller in the business is not checked.
func (s *Service) ListAppointments(ctx context.Context, businessID string) ([]model.Appointment, error) {
	ctx, span := s.tracer.Start(ctx, "service.ListAppointments")
	defer span.End()

	if _, ok := auth.FromContext(ctx); !ok {
		return nil, ErrNoSession
	}
	businessID = strings.TrimSpace(businessID)
	if businessID == "" {
		return nil, invalid("businessId is required")
	}
	span.SetAttributes(attribute.String("business.id", businessID))

	list, err := s.repo.AppointmentsByBusiness(ctx, businessID)
	if err != nil {
		return nil, s.storeErr(err, "business", "list appointments")
	}
	return list, nil
}

type AppointmentInput struct {
	BusinessID string `json:"businessId"`
	Date       string `json:"date"`
	Notes      string `json:"notes,omitempty"`
	Type       string `json:"type,omitempty"`
	Status     string `json:"status,omitempty"`
}

// CreateAppointment books the caller into businessID. Identical bookings are
// accepted; there is no slot conflict check.
func (s *Service) CreateAppointment(ctx context.Context, in AppointmentInput) (*model.Appointment, error) {
	ctx, span := s.tracer.Start(ctx, "service.CreateAppointment")
	defer span.End()

	id, err := entrepreneur(ctx)
	if err != nil {
		return nil, err
	}
	businessID := strings.TrimSpace(in.BusinessID)
	if businessID == "" || strings.TrimSpace(in.Date) == "" {
		return nil, invalid("businessId and date are required")
	}
	date, err := parseTime(strings.TrimSpace(in.Date))
	if err != nil {
		return nil, invalid("date must be an ISO-8601 timestamp")
	}

	a := &model.Appointment{
		BusinessID: businessID,
		UserID:     id.UserID,
		Date:       date.UTC(),
		Notes:      in.Notes,
		Type:       model.MeetingRemote,
		Status:     model.StatusScheduled,
	}
	if in.Type != "" {
		a.Type = model.MeetingType(in.Type)
	}
	if in.Status != "" {
		a.Status = model.Status(in.Status)
	}
	if err := a.Validate(); err != nil {
		return nil, &Error{Kind: KindValidation, Msg: err.Error()}
	}

	if _, err := s.repo.BusinessByID(ctx, businessID); err != nil {
		return nil, s.storeErr(err, "business", "load business")
	}
	// the business exists, so a missing row now is the booking user
	if err := s.repo.CreateAppointment(ctx, a); err != nil {
		return nil, s.storeErr(err, "user", "create appointment")
	}
	span.SetAttributes(attribute.String("appointment.id", a.ID))

	s.publish(ctx, events.RKAppointmentCreated, events.AppointmentCreated{
		AppointmentID: a.ID,
		BusinessID:    a.BusinessID,
		UserID:        a.UserID,
		Date:          a.Date.Unix(),
		Type:          string(a.Type),
		Notes:         a.Notes,
	})
	return a, nil
}
