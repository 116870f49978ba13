package httpapi

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"advisory-api/internal/assistant"
	"advisory-api/internal/auth"
	"advisory-api/internal/service"
)

// GET /appointments?businessId=
func (s *Server) listAppointments(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.ListAppointments(r.Context(), r.URL.Query().Get("businessId"))
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"appointments": list})
}

// POST /appointments
func (s *Server) createAppointment(w http.ResponseWriter, r *http.Request) {
	var in service.AppointmentInput
	if !readJSON(w, r, &in) {
		return
	}
	a, err := s.svc.CreateAppointment(r.Context(), in)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"appointment": a})
}

// POST /business/create
func (s *Server) createBusiness(w http.ResponseWriter, r *http.Request) {
	var in service.BusinessInput
	if !readJSON(w, r, &in) {
		return
	}
	b, err := s.svc.CreateBusiness(r.Context(), in)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "business": b})
}

// PUT /user/{id}
func (s *Server) updateUser(w http.ResponseWriter, r *http.Request) {
	var in service.ProfileInput
	if !readJSON(w, r, &in) {
		return
	}
	u, err := s.svc.UpdateUser(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "user": u})
}

// GET /user/missing never fails; unknown users get an empty list.
func (s *Server) missingFields(w http.ResponseWriter, r *http.Request) {
	uid := strings.TrimSpace(r.Header.Get("X-User-Id"))
	if uid == "" {
		if id, ok := auth.FromContext(r.Context()); ok {
			uid = id.UserID
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"missingFields": s.svc.MissingFields(r.Context(), uid)})
}

func (s *Server) setSession(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.opts.CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.opts.CookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.opts.SessionTTL.Seconds()),
	})
}

// POST /auth/sign-in is called by the OAuth callback, never by browsers.
func (s *Server) signIn(w http.ResponseWriter, r *http.Request) {
	got := r.Header.Get("X-Provider-Secret")
	if s.opts.ProviderSecret == "" || subtle.ConstantTimeCompare([]byte(got), []byte(s.opts.ProviderSecret)) != 1 {
		errorJSON(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var in service.SignInInput
	if !readJSON(w, r, &in) {
		return
	}
	sess, err := s.svc.SignIn(r.Context(), in)
	if err != nil {
		fail(w, err)
		return
	}
	s.setSession(w, sess.Token)
	writeJSON(w, http.StatusOK, sess)
}

// GET /auth/me
func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	u, err := s.svc.Me(r.Context())
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": u})
}

// POST /auth/sign-out
func (s *Server) signOut(w http.ResponseWriter, _ *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.opts.CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   s.opts.CookieSecure,
		MaxAge:   -1,
	})
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// POST /auth/advisor/login
func (s *Server) advisorLogin(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !readJSON(w, r, &in) {
		return
	}
	sess, err := s.svc.AdvisorLogin(r.Context(), in.Email, in.Password)
	if err != nil {
		fail(w, err)
		return
	}
	s.setSession(w, sess.Token)
	writeJSON(w, http.StatusOK, sess)
}

// GET /advisor/clients?q=
func (s *Server) listClients(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.ListClients(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"clients": list})
}

// POST /chat
func (s *Server) ask(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Message string `json:"message"`
	}
	if !readJSON(w, r, &in) {
		return
	}
	if s.chat == nil {
		errorJSON(w, http.StatusServiceUnavailable, "assistant unavailable")
		return
	}
	answer, err := s.chat.Ask(r.Context(), in.Message)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]string{"response": answer})
	case errors.Is(err, assistant.ErrEmptyPrompt):
		errorJSON(w, http.StatusBadRequest, "message is required")
	case errors.Is(err, assistant.ErrNotConfigured):
		errorJSON(w, http.StatusServiceUnavailable, "assistant unavailable")
	default:
		s.log.Warn("assistant failed", zap.Error(err))
		errorJSON(w, http.StatusBadGateway, "Sorry, I encountered an error connecting to the server. Please try again later.")
	}
}
