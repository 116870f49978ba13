package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"advisory-api/internal/auth"
)

const secret = "mw-secret"

func whoami(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	_, _ = w.Write([]byte(id.UserID + "/" + id.Role))
}

func TestIdentityHTTP(t *testing.T) {
	h := Identity(secret, "sess")(http.HandlerFunc(whoami))
	tok, err := auth.MakeToken("u1", auth.RoleEntrepreneur, secret, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name string
		prep func(r *http.Request)
		want string
	}{
		{"bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+tok) }, "u1/entrepreneur"},
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "sess", Value: tok}) }, "u1/entrepreneur"},
		{"bad token", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, ""},
		{"anonymous", func(r *http.Request) {}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			tt.prep(r)
			w := httptest.NewRecorder()
			h.ServeHTTP(w, r)
			assert.Equal(t, tt.want, w.Body.String())
		})
	}
}

func TestRequireRole(t *testing.T) {
	h := Identity(secret, "sess")(RequireRole(auth.RoleAdvisor)(http.HandlerFunc(whoami)))

	adv, _ := auth.MakeToken("a1", auth.RoleAdvisor, secret, time.Hour)
	ent, _ := auth.MakeToken("u1", auth.RoleEntrepreneur, secret, time.Hour)

	for tok, code := range map[string]int{adv: http.StatusOK, ent: http.StatusUnauthorized, "": http.StatusUnauthorized} {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		if tok != "" {
			r.Header.Set("Authorization", "Bearer "+tok)
		}
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		assert.Equal(t, code, w.Code)
	}
}

func TestGRPCAuth(t *testing.T) {
	open := map[string]bool{"/svc/Open": true}
	intercept := Auth(secret, open)
	handler := func(ctx context.Context, _ any) (any, error) {
		id, _ := auth.FromContext(ctx)
		return id.UserID, nil
	}

	got, err := intercept(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/svc/Open"}, handler)
	require.NoError(t, err)
	assert.Equal(t, "", got)

	_, err = intercept(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/svc/Closed"}, handler)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	tok, _ := auth.MakeToken("u9", "", secret, time.Hour)
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer "+tok))
	got, err = intercept(ctx, nil, &grpc.UnaryServerInfo{FullMethod: "/svc/Closed"}, handler)
	require.NoError(t, err)
	assert.Equal(t, "u9", got)
}

func TestLimitHTTP(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rl := NewRateLimiter(ctx, 0.001, 2)
	h := Limit(rl)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))

	got := []int{}
	for i := 0; i < 3; i++ {
		r := httptest.NewRequest(http.MethodPost, "/auth/sign-in", nil)
		r.RemoteAddr = "10.0.0.1:5555"
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		got = append(got, w.Code)
	}
	assert.Equal(t, []int{200, 200, http.StatusTooManyRequests}, got)

	// another address has its own bucket
	r := httptest.NewRequest(http.MethodPost, "/auth/sign-in", nil)
	r.RemoteAddr = "10.0.0.2:5555"
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, 200, w.Code)
}

func TestSweep(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rl := NewRateLimiter(ctx, 1, 1)
	rl.Allow("a")
	rl.sweep(-time.Second)
	rl.mu.Lock()
	defer rl.mu.Unlock()
	assert.Empty(t, rl.clients)
}
