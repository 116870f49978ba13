// Package httpapi exposes the advisory operations as a JSON HTTP API.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"advisory-api/internal/auth"
	"advisory-api/internal/middleware"
	"advisory-api/internal/service"
)

// Asker answers chat prompts.
type Asker interface {
	Ask(ctx context.Context, prompt string) (string, error)
}

type Options struct {
	Secret         string
	CookieName     string
	CookieSecure   bool
	SessionTTL     time.Duration
	ProviderSecret string
	Origins        []string
}

type Server struct {
	svc     *service.Service
	chat    Asker
	log     *zap.Logger
	opts    Options
	limiter *middleware.RateLimiter
}

func New(svc *service.Service, chat Asker, limiter *middleware.RateLimiter, log *zap.Logger, opts Options) *Server {
	if opts.CookieName == "" {
		opts.CookieName = "advisory_session"
	}
	return &Server{svc: svc, chat: chat, log: log, opts: opts, limiter: limiter}
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(s.logRequests)
	if len(s.opts.Origins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.opts.Origins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-User-Id"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}
	r.Use(middleware.Identity(s.opts.Secret, s.opts.CookieName))

	r.Get("/healthz", s.health)

	r.Get("/appointments", s.listAppointments)
	r.Post("/appointments", s.createAppointment)
	r.Post("/business/create", s.createBusiness)
	r.Put("/user/{id}", s.updateUser)
	r.Get("/user/missing", s.missingFields)

	r.Group(func(r chi.Router) {
		if s.limiter != nil {
			r.Use(middleware.Limit(s.limiter))
		}
		r.Post("/auth/sign-in", s.signIn)
		r.Post("/auth/advisor/login", s.advisorLogin)
		r.Post("/chat", s.ask)
	})
	r.Get("/auth/me", s.me)
	r.Post("/auth/sign-out", s.signOut)

	r.With(middleware.RequireRole(auth.RoleAdvisor)).Get("/advisor/clients", s.listClients)
	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug("http",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("took", time.Since(start)),
			zap.String("request_id", chimw.GetReqID(r.Context())),
		)
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Health(r.Context()); err != nil {
		s.log.Warn("health check failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"ok": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
