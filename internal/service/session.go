package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"advisory-api/internal/auth"
	"advisory-api/internal/model"
	"advisory-api/internal/store"
)

const (
	ProviderGoogle   = "google"
	ProviderLinkedIn = "linkedin"
)

// SignInInput is the profile a trusted OAuth callback hands over.
type SignInInput struct {
	Provider string `json:"provider"`
	OAuthID  string `json:"oauthId"`
	Email    string `json:"email,omitempty"`
	Name     string `json:"name"`
}

type Session struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

// SignIn finds or creates the user behind an OAuth profile and issues a
// session token. Google accounts are matched by email, LinkedIn accounts by
// provider id.
func (s *Service) SignIn(ctx context.Context, in SignInInput) (*Session, error) {
	ctx, span := s.tracer.Start(ctx, "service.SignIn")
	defer span.End()

	in.Provider = strings.ToLower(strings.TrimSpace(in.Provider))
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.OAuthID == "" {
		return nil, invalid("oauthId is required")
	}

	var (
		u   *model.User
		err error
	)
	switch in.Provider {
	case ProviderGoogle:
		if in.Email == "" {
			return nil, invalid("email is required for google sign-in")
		}
		u, err = s.repo.UserByEmail(ctx, in.Email)
	case ProviderLinkedIn:
		u, err = s.repo.UserByOAuthID(ctx, in.Provider, in.OAuthID)
	default:
		return nil, invalid(fmt.Sprintf("unsupported provider %q", in.Provider))
	}

	switch {
	case errors.Is(err, store.ErrNotFound):
		if u, err = s.register(ctx, in); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, s.storeErr(err, "user", "sign-in lookup")
	}

	tok, err := auth.MakeToken(u.ID, auth.RoleEntrepreneur, s.opts.Secret, s.opts.SessionTTL)
	if err != nil {
		return nil, internal(err)
	}
	return &Session{Token: tok, User: u}, nil
}

func (s *Service) register(ctx context.Context, in SignInInput) (*model.User, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = in.Provider + " user"
	}
	username, err := s.uniqueUsername(ctx, name)
	if err != nil {
		return nil, s.storeErr(err, "user", "username lookup")
	}
	email := in.Email
	if email == "" {
		email = fmt.Sprintf("%s_%s@placeholder.com", in.Provider, in.OAuthID)
	}
	u := &model.User{
		Name:          name,
		Username:      username,
		Email:         email,
		OAuthProvider: in.Provider,
		OAuthID:       in.OAuthID,
	}
	if err := s.repo.CreateUser(ctx, u); err != nil {
		return nil, s.storeErr(err, "user", "create user")
	}
	s.log.Info("user registered", zap.String("user", u.ID), zap.String("provider", in.Provider))
	// reload so the references come back populated
	created, err := s.repo.UserByID(ctx, u.ID)
	if err != nil {
		return nil, s.storeErr(err, "user", "load user")
	}
	return created, nil
}

// BaseUsername lowercases name and joins words with underscores.
func BaseUsername(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "_")
}

func (s *Service) uniqueUsername(ctx context.Context, name string) (string, error) {
	base := BaseUsername(name)
	candidate := base
	for i := 1; ; i++ {
		taken, err := s.repo.UsernameExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s_%d", base, i)
	}
}

type AdvisorSession struct {
	Token   string         `json:"token"`
	Advisor *model.Advisor `json:"advisor"`
}

// AdvisorLogin checks an advisor's password and issues an advisor session.
func (s *Service) AdvisorLogin(ctx context.Context, email, password string) (*AdvisorSession, error) {
	ctx, span := s.tracer.Start(ctx, "service.AdvisorLogin")
	defer span.End()

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, invalid("email and password are required")
	}
	a, err := s.repo.AdvisorByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, &Error{Kind: KindUnauthorized, Msg: "invalid credentials"}
		}
		return nil, s.storeErr(err, "advisor", "advisor lookup")
	}
	if !auth.CheckPassword(a.PasswordHash, password) {
		return nil, &Error{Kind: KindUnauthorized, Msg: "invalid credentials"}
	}
	tok, err := auth.MakeToken(a.ID, auth.RoleAdvisor, s.opts.Secret, s.opts.SessionTTL)
	if err != nil {
		return nil, internal(err)
	}
	return &AdvisorSession{Token: tok, Advisor: a}, nil
}

// CreateAdvisor provisions an advisor account. It is reachable from the CLI
// only.
func (s *Service) CreateAdvisor(ctx context.Context, email, name, password string) (*model.Advisor, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || len(password) < 8 {
		return nil, invalid("email and a password of at least 8 characters are required")
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, internal(err)
	}
	a := &model.Advisor{Email: email, Name: strings.TrimSpace(name), PasswordHash: hash}
	if err := s.repo.CreateAdvisor(ctx, a); err != nil {
		return nil, s.storeErr(err, "advisor", "create advisor")
	}
	return a, nil
}

// ListClients is the advisor dashboard query.
func (s *Service) ListClients(ctx context.Context, q string) ([]model.ClientSummary, error) {
	ctx, span := s.tracer.Start(ctx, "service.ListClients")
	defer span.End()

	id, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrNoSession
	}
	if id.Role != auth.RoleAdvisor {
		return nil, &Error{Kind: KindUnauthorized, Msg: "advisor role required"}
	}
	out, err := s.repo.ListClients(ctx, strings.TrimSpace(q))
	if err != nil {
		return nil, s.storeErr(err, "client", "list clients")
	}
	return out, nil
}

// entrepreneur returns the caller when it is a client session. Advisor
// accounts live outside the users collection and cannot own businesses or
// book appointments.
func entrepreneur(ctx context.Context) (auth.Identity, error) {
	id, ok := auth.FromContext(ctx)
	if !ok {
		return id, ErrNoSession
	}
	if id.Role == auth.RoleAdvisor {
		return id, ErrNotClient
	}
	return id, nil
}
