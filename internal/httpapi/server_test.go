package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"advisory-api/internal/assistant"
	"advisory-api/internal/auth"
	"advisory-api/internal/model"
	"advisory-api/internal/service"
	"advisory-api/internal/store/memstore"
)

const secret = "http-secret"

type fakeAsker struct {
	answer string
	err    error
}

func (f fakeAsker) Ask(context.Context, string) (string, error) { return f.answer, f.err }

type env struct {
	t    *testing.T
	repo *memstore.Store
	svc  *service.Service
	h    http.Handler
}

func setup(t *testing.T, chat Asker) *env {
	t.Helper()
	repo := memstore.New()
	svc := service.New(repo, nil, zap.NewNop(), service.Options{Secret: secret, SessionTTL: time.Hour})
	srv := New(svc, chat, nil, zap.NewNop(), Options{
		Secret:         secret,
		CookieName:     "sess",
		SessionTTL:     time.Hour,
		ProviderSecret: "provider",
	})
	return &env{t: t, repo: repo, svc: svc, h: srv.Routes()}
}

func (e *env) user(name string) (*model.User, string) {
	e.t.Helper()
	u := &model.User{Name: name}
	require.NoError(e.t, e.repo.CreateUser(context.Background(), u))
	tok, err := auth.MakeToken(u.ID, auth.RoleEntrepreneur, secret, time.Hour)
	require.NoError(e.t, err)
	return u, tok
}

func (e *env) do(method, path, token string, body any, hdr ...string) (*httptest.ResponseRecorder, map[string]any) {
	e.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(e.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	w := httptest.NewRecorder()
	e.h.ServeHTTP(w, req)
	out := map[string]any{}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w, out
}

func TestReconciliationFlow(t *testing.T) {
	e := setup(t, nil)
	a, tok := e.user("User A")

	_, out := e.do(http.MethodGet, "/user/missing", "", nil, "X-User-Id", a.ID)
	assert.Equal(t, []any{"dob", "number", "hometown", "business.name", "business.description"}, out["missingFields"])

	w, out := e.do(http.MethodPost, "/business/create", tok, map[string]string{"name": "Acme", "description": "Bikes"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, out["success"])
	biz := out["business"].(map[string]any)
	assert.Equal(t, biz["id"], biz["businessId"])

	// session fallback when no header is sent
	_, out = e.do(http.MethodGet, "/user/missing", tok, nil)
	assert.Equal(t, []any{"dob", "number", "hometown"}, out["missingFields"])

	w, out = e.do(http.MethodPut, "/user/"+a.ID, tok, map[string]string{"dob": "1990-04-01", "number": "555", "hometown": "Lagos"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "1990-04-01T00:00:00.000Z", out["user"].(map[string]any)["dob"])

	_, out = e.do(http.MethodGet, "/user/missing", tok, nil)
	assert.Equal(t, []any{}, out["missingFields"])
}

func TestMissingNeverFails(t *testing.T) {
	e := setup(t, nil)
	w, out := e.do(http.MethodGet, "/user/missing", "", nil, "X-User-Id", "ghost")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []any{}, out["missingFields"])

	w, out = e.do(http.MethodGet, "/user/missing", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []any{}, out["missingFields"])
}

func TestAppointmentsHTTP(t *testing.T) {
	e := setup(t, nil)
	_, tok := e.user("Ada")
	_, out := e.do(http.MethodPost, "/business/create", tok, map[string]string{"name": "Acme", "description": "Bikes"})
	bizID := out["business"].(map[string]any)["id"].(string)

	w, out := e.do(http.MethodPost, "/appointments", tok, map[string]string{"businessId": bizID, "date": "2025-01-01T10:00:00Z"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	appt := out["appointment"].(map[string]any)
	assert.Equal(t, "remote", appt["type"])
	assert.Equal(t, "scheduled", appt["status"])

	_, _ = e.do(http.MethodPost, "/appointments", tok, map[string]string{"businessId": bizID, "date": "2024-06-01T10:00:00Z", "type": "onsite"})

	w, out = e.do(http.MethodGet, "/appointments?businessId="+bizID, tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := out["appointments"].([]any)
	require.Len(t, list, 2)
	assert.Equal(t, "onsite", list[0].(map[string]any)["type"])

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   any
		code   int
	}{
		{"list without session", http.MethodGet, "/appointments?businessId=" + bizID, "", nil, http.StatusUnauthorized},
		{"list without businessId", http.MethodGet, "/appointments", tok, nil, http.StatusBadRequest},
		{"create without session", http.MethodPost, "/appointments", "", map[string]string{"businessId": bizID, "date": "2025-01-01"}, http.StatusUnauthorized},
		{"create without date", http.MethodPost, "/appointments", tok, map[string]string{"businessId": bizID}, http.StatusBadRequest},
		{"create for unknown business", http.MethodPost, "/appointments", tok, map[string]string{"businessId": "X", "date": "2025-01-01T10:00:00Z"}, http.StatusNotFound},
		{"business without name", http.MethodPost, "/business/create", tok, map[string]string{"description": "Bikes"}, http.StatusBadRequest},
		{"business without session", http.MethodPost, "/business/create", "", map[string]string{"name": "A", "description": "B"}, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, out := e.do(tt.method, tt.path, tt.token, tt.body)
			assert.Equal(t, tt.code, w.Code)
			assert.NotEmpty(t, out["error"])
		})
	}
}

func TestMalformedBody(t *testing.T) {
	e := setup(t, nil)
	_, tok := e.user("Ada")
	req := httptest.NewRequest(http.MethodPost, "/appointments", bytes.NewBufferString("{nope"))
	req.Header.Set("Authorization", "Bearer "+tok)
	w := httptest.NewRecorder()
	e.h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateUserHTTP(t *testing.T) {
	e := setup(t, nil)
	target, _ := e.user("Target")
	_, otherTok := e.user("Other")

	w, _ := e.do(http.MethodPut, "/user/"+target.ID, otherTok, map[string]string{"hometown": "X"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = e.do(http.MethodPut, "/user/"+target.ID, "", map[string]string{"hometown": "X"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	ghostTok, _ := auth.MakeToken("ghost", "", secret, time.Hour)
	w, _ = e.do(http.MethodPut, "/user/ghost", ghostTok, map[string]string{"hometown": "X"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSignInHTTP(t *testing.T) {
	e := setup(t, nil)
	body := map[string]string{"provider": "google", "oauthId": "g1", "email": "ada@example.com", "name": "Ada"}

	w, _ := e.do(http.MethodPost, "/auth/sign-in", "", body)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, out := e.do(http.MethodPost, "/auth/sign-in", "", body, "X-Provider-Secret", "provider")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	tok := out["token"].(string)
	require.NotEmpty(t, w.Result().Cookies())
	assert.Equal(t, "sess", w.Result().Cookies()[0].Name)

	// cookie session works the same as the bearer header
	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: "sess", Value: tok})
	mw := httptest.NewRecorder()
	e.h.ServeHTTP(mw, req)
	require.Equal(t, http.StatusOK, mw.Code)
	assert.Contains(t, mw.Body.String(), `"username":"ada"`)

	w, _ = e.do(http.MethodGet, "/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = e.do(http.MethodPost, "/auth/sign-out", tok, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, -1, w.Result().Cookies()[0].MaxAge)
}

func TestAdvisorHTTP(t *testing.T) {
	e := setup(t, nil)
	_, err := e.svc.CreateAdvisor(context.Background(), "coach@example.com", "Coach", "long-enough-pw")
	require.NoError(t, err)
	_, userTok := e.user("Ada")

	w, _ := e.do(http.MethodPost, "/auth/advisor/login", "", map[string]string{"email": "coach@example.com", "password": "bad-password"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, out := e.do(http.MethodPost, "/auth/advisor/login", "", map[string]string{"email": "coach@example.com", "password": "long-enough-pw"})
	require.Equal(t, http.StatusOK, w.Code)
	advTok := out["token"].(string)

	w, out = e.do(http.MethodGet, "/advisor/clients", advTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, out["clients"], 1)

	w, _ = e.do(http.MethodGet, "/advisor/clients", userTok, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	_, out = e.do(http.MethodPost, "/business/create", userTok, map[string]string{"name": "Acme", "description": "Bikes"})
	bizID := out["business"].(map[string]any)["id"].(string)
	w, out = e.do(http.MethodPost, "/appointments", advTok, map[string]string{"businessId": bizID, "date": "2025-01-01T10:00:00Z"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "entrepreneur session required", out["error"])
}

func TestChat(t *testing.T) {
	tests := []struct {
		name string
		chat Asker
		msg  string
		code int
	}{
		{"answer", fakeAsker{answer: "hello"}, "hi", http.StatusOK},
		{"upstream down", fakeAsker{err: assistant.ErrUpstream}, "hi", http.StatusBadGateway},
		{"other failure", fakeAsker{err: errors.New("boom")}, "hi", http.StatusBadGateway},
		{"empty", fakeAsker{err: assistant.ErrEmptyPrompt}, "", http.StatusBadRequest},
		{"unconfigured", nil, "hi", http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := setup(t, tt.chat)
			w, out := e.do(http.MethodPost, "/chat", "", map[string]string{"message": tt.msg})
			assert.Equal(t, tt.code, w.Code)
			if tt.code == http.StatusOK {
				assert.Equal(t, "hello", out["response"])
			}
		})
	}
}

func TestHealthz(t *testing.T) {
	e := setup(t, nil)
	w, out := e.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, out["ok"])
}
