package service

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"advisory-api/internal/events"
	"advisory-api/internal/model"
)

type BusinessInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// CreateBusiness stores a business managed by the caller and links it to the
// caller's business list in one unit of work.
func (s *Service) CreateBusiness(ctx context.Context, in BusinessInput) (*model.Business, error) {
	ctx, span := s.tracer.Start(ctx, "service.CreateBusiness")
	defer span.End()

	id, err := entrepreneur(ctx)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	desc := strings.TrimSpace(in.Description)
	if name == "" || desc == "" {
		return nil, invalid("name and description are required")
	}

	b := &model.Business{Name: name, Description: desc}
	if err := s.repo.CreateBusiness(ctx, b, id.UserID); err != nil {
		return nil, s.storeErr(err, "user", "create business")
	}
	span.SetAttributes(attribute.String("business.id", b.ID))

	s.publish(ctx, events.RKBusinessCreated, events.BusinessCreated{
		BusinessID: b.ID,
		Name:       b.Name,
		OwnerID:    id.UserID,
	})
	return b, nil
}
