// Package memstore is an in-process backend used by the memory store driver
// and by the service and transport tests.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"advisory-api/internal/model"
	"advisory-api/internal/store"
)

type Store struct {
	mu           sync.RWMutex
	users        map[string]*model.User
	businesses   map[string]*model.Business
	userBiz      map[string][]string
	appointments []model.Appointment
	advisors     map[string]*model.Advisor

	now func() time.Time
}

func New() *Store {
	return &Store{
		users:      make(map[string]*model.User),
		businesses: make(map[string]*model.Business),
		userBiz:    make(map[string][]string),
		advisors:   make(map[string]*model.Advisor),
		now:        time.Now,
	}
}

func (s *Store) Connect(context.Context) error { return nil }
func (s *Store) Ping(context.Context) error    { return nil }

func (s *Store) CreateUser(_ context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ex := range s.users {
		if (u.Email != "" && ex.Email == u.Email) || (u.Username != "" && ex.Username == u.Username) {
			return store.ErrConflict
		}
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := s.now()
	u.CreatedAt, u.UpdatedAt = now, now
	cp := *u
	cp.Businesses, cp.AppointmentIDs = nil, nil
	s.users[u.ID] = &cp
	return nil
}

// view copies the stored user and populates its references. Caller holds the lock.
func (s *Store) view(u *model.User) *model.User {
	out := *u
	out.Businesses = []model.Business{}
	for _, id := range s.userBiz[u.ID] {
		if b, ok := s.businesses[id]; ok {
			bc := *b
			bc.ManagerIDs = append([]string(nil), b.ManagerIDs...)
			out.Businesses = append(out.Businesses, bc)
		}
	}
	out.AppointmentIDs = []string{}
	for _, a := range s.appointments {
		if a.UserID == u.ID {
			out.AppointmentIDs = append(out.AppointmentIDs, a.ID)
		}
	}
	return &out
}

func (s *Store) UserByID(_ context.Context, id string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return s.view(u), nil
}

func (s *Store) UserByEmail(_ context.Context, email string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Email == email {
			return s.view(u), nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) UserByOAuthID(_ context.Context, provider, oauthID string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.OAuthProvider == provider && u.OAuthID == oauthID {
			return s.view(u), nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) UsernameExists(_ context.Context, username string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) UpdateUserProfile(_ context.Context, id string, p model.ProfileUpdate) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if p.DOB != nil {
		u.DOB = *p.DOB
	}
	if p.Number != nil {
		u.Number = *p.Number
	}
	if p.Hometown != nil {
		u.Hometown = *p.Hometown
	}
	u.UpdatedAt = s.now()
	return s.view(u), nil
}

// CreateBusiness persists and links under one lock, matching the
// transactional contract of the database backends.
func (s *Store) CreateBusiness(_ context.Context, b *model.Business, ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[ownerID]; !ok {
		return store.ErrNotFound
	}
	b.ID = uuid.NewString()
	b.BusinessID = b.ID
	for _, ex := range s.businesses {
		if ex.BusinessID == b.BusinessID {
			return store.ErrConflict
		}
	}
	b.ManagerIDs = []string{ownerID}
	now := s.now()
	b.CreatedAt, b.UpdatedAt = now, now

	cp := *b
	cp.ManagerIDs = append([]string(nil), b.ManagerIDs...)
	s.businesses[b.ID] = &cp
	s.userBiz[ownerID] = append(s.userBiz[ownerID], b.ID)
	return nil
}

func (s *Store) BusinessByID(_ context.Context, id string) (*model.Business, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.businesses[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *b
	cp.ManagerIDs = append([]string(nil), b.ManagerIDs...)
	return &cp, nil
}

func (s *Store) CreateAppointment(_ context.Context, a *model.Appointment) error {
	if err := a.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalid, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.businesses[a.BusinessID]; !ok {
		return store.ErrNotFound
	}
	if _, ok := s.users[a.UserID]; !ok {
		return store.ErrNotFound
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	now := s.now()
	a.CreatedAt, a.UpdatedAt = now, now
	s.appointments = append(s.appointments, *a)
	return nil
}

func (s *Store) AppointmentsByBusiness(_ context.Context, businessID string) ([]model.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []model.Appointment{}
	for _, a := range s.appointments {
		if a.BusinessID == businessID {
			out = append(out, a)
		}
	}
	// stable keeps insertion order for equal dates
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (s *Store) CreateAdvisor(_ context.Context, a *model.Advisor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.advisors[a.Email]; ok {
		return store.ErrConflict
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	a.CreatedAt = s.now()
	cp := *a
	s.advisors[a.Email] = &cp
	return nil
}

func (s *Store) AdvisorByEmail(_ context.Context, email string) (*model.Advisor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.advisors[email]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *Store) ListClients(_ context.Context, q string) ([]model.ClientSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q = strings.ToLower(q)
	now := s.now()

	out := []model.ClientSummary{}
	for _, u := range s.users {
		v := s.view(u)
		if q != "" && !matches(v, q) {
			continue
		}
		sum := model.ClientSummary{User: *v}
		for _, a := range s.appointments {
			if a.UserID != u.ID {
				continue
			}
			sum.AppointmentCount++
			if a.Status == model.StatusScheduled && !a.Date.Before(now) {
				if sum.NextAppointment == nil || a.Date.Before(*sum.NextAppointment) {
					d := a.Date
					sum.NextAppointment = &d
				}
			}
		}
		out = append(out, sum)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].User.CreatedAt.Before(out[j].User.CreatedAt) })
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
