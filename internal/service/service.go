// Package service implements the advisory operations on top of a storage
// backend: profile completeness, profile reconciliation, business and
// appointment creation, sign-in and the advisor dashboard.
package service

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"advisory-api/internal/events"
	"advisory-api/internal/model"
)

// Repository is implemented by the postgres, mongo and memory stores.
type Repository interface {
	Ping(ctx context.Context) error

	CreateUser(ctx context.Context, u *model.User) error
	UserByID(ctx context.Context, id string) (*model.User, error)
	UserByEmail(ctx context.Context, email string) (*model.User, error)
	UserByOAuthID(ctx context.Context, provider, oauthID string) (*model.User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	UpdateUserProfile(ctx context.Context, id string, p model.ProfileUpdate) (*model.User, error)

	CreateBusiness(ctx context.Context, b *model.Business, ownerID string) error
	BusinessByID(ctx context.Context, id string) (*model.Business, error)

	CreateAppointment(ctx context.Context, a *model.Appointment) error
	AppointmentsByBusiness(ctx context.Context, businessID string) ([]model.Appointment, error)

	CreateAdvisor(ctx context.Context, a *model.Advisor) error
	AdvisorByEmail(ctx context.Context, email string) (*model.Advisor, error)
	ListClients(ctx context.Context, q string) ([]model.ClientSummary, error)
}

type Options struct {
	Secret     string
	SessionTTL time.Duration
}

type Service struct {
	repo   Repository
	pub    events.Publisher
	log    *zap.Logger
	tracer trace.Tracer
	opts   Options
}

func New(repo Repository, pub events.Publisher, log *zap.Logger, opts Options) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	if pub == nil {
		pub = events.LogPublisher{Log: log}
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 30 * 24 * time.Hour
	}
	return &Service{
		repo:   repo,
		pub:    pub,
		log:    log,
		tracer: otel.Tracer("advisory-api/service"),
		opts:   opts,
	}
}

// Health reports whether the backing store is reachable.
func (s *Service) Health(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

// publish never fails the caller; the write already happened.
func (s *Service) publish(ctx context.Context, key string, v any) {
	if err := s.pub.PublishJSON(ctx, key, v); err != nil {
		s.log.Warn("publish failed", zap.String("key", key), zap.Error(err))
	}
}
