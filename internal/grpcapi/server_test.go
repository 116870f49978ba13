package grpcapi

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"advisory-api/internal/auth"
	"advisory-api/internal/middleware"
	"advisory-api/internal/model"
	"advisory-api/internal/service"
	"advisory-api/internal/store/memstore"
)

const secret = "grpc-secret"

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fixture struct {
	repo   *memstore.Store
	svc    *service.Service
	client *Client
	conn   *grpc.ClientConn
}

func start(t *testing.T) *fixture {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())

	repo := memstore.New()
	svc := service.New(repo, nil, zap.NewNop(), service.Options{Secret: secret, SessionTTL: time.Hour})
	srv := NewServer(NewHandler(svc, zap.NewNop()), secret, middleware.NewRateLimiter(ctx, 100, 100))

	lis := bufconn.Listen(1 << 20)
	go func() { _ = srv.Serve(lis) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = conn.Close()
		srv.Stop()
		cancel()
	})
	return &fixture{repo: repo, svc: svc, client: NewClient(conn), conn: conn}
}

func (f *fixture) user(t *testing.T, name string) (*model.User, context.Context) {
	t.Helper()
	u := &model.User{Name: name}
	require.NoError(t, f.repo.CreateUser(context.Background(), u))
	tok, err := auth.MakeToken(u.ID, auth.RoleEntrepreneur, secret, time.Hour)
	require.NoError(t, err)
	return u, metadata.AppendToOutgoingContext(context.Background(), "authorization", "Bearer "+tok)
}

func req(t *testing.T, m map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(m)
	require.NoError(t, err)
	return s
}

func TestBookingOverGRPC(t *testing.T) {
	f := start(t)
	u, ctx := f.user(t, "Ada")

	out, err := f.client.Call(context.Background(), MethodMissingFields, req(t, map[string]any{"userId": u.ID}))
	require.NoError(t, err)
	assert.Len(t, out.Fields["missingFields"].GetListValue().GetValues(), 5)

	out, err = f.client.Call(ctx, MethodCreateBusiness, req(t, map[string]any{"name": "Acme", "description": "Bikes"}))
	require.NoError(t, err)
	bizID := out.Fields["business"].GetStructValue().Fields["id"].GetStringValue()
	require.NotEmpty(t, bizID)

	out, err = f.client.Call(ctx, MethodCreateAppointment, req(t, map[string]any{"businessId": bizID, "date": "2025-01-01T10:00:00Z"}))
	require.NoError(t, err)
	appt := out.Fields["appointment"].GetStructValue().Fields
	assert.Equal(t, "remote", appt["type"].GetStringValue())
	assert.Equal(t, "scheduled", appt["status"].GetStringValue())

	out, err = f.client.Call(ctx, MethodListAppointments, req(t, map[string]any{"businessId": bizID}))
	require.NoError(t, err)
	assert.Len(t, out.Fields["appointments"].GetListValue().GetValues(), 1)

	out, err = f.client.Call(ctx, MethodUpdateUser, req(t, map[string]any{"id": u.ID, "hometown": "Lagos"}))
	require.NoError(t, err)
	assert.Equal(t, "Lagos", out.Fields["user"].GetStructValue().Fields["hometown"].GetStringValue())
}

func TestGRPCErrors(t *testing.T) {
	f := start(t)
	u, ctx := f.user(t, "Ada")
	_, otherCtx := f.user(t, "Other")

	tests := []struct {
		name   string
		ctx    context.Context
		method string
		in     map[string]any
		code   codes.Code
	}{
		{"no token", context.Background(), MethodCreateBusiness, map[string]any{"name": "A", "description": "B"}, codes.Unauthenticated},
		{"validation", ctx, MethodCreateBusiness, map[string]any{"name": "A"}, codes.InvalidArgument},
		{"unknown business", ctx, MethodCreateAppointment, map[string]any{"businessId": "X", "date": "2025-01-01"}, codes.NotFound},
		{"other identity", otherCtx, MethodUpdateUser, map[string]any{"id": u.ID, "hometown": "X"}, codes.Unauthenticated},
		{"advisor only", ctx, MethodListClients, map[string]any{}, codes.Unauthenticated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.client.Call(tt.ctx, tt.method, req(t, tt.in))
			assert.Equal(t, tt.code, status.Code(err))
		})
	}
}

func TestAdvisorOverGRPC(t *testing.T) {
	f := start(t)
	_, err := f.svc.CreateAdvisor(context.Background(), "coach@example.com", "Coach", "long-enough-pw")
	require.NoError(t, err)
	f.user(t, "Ada")

	out, err := f.client.Call(context.Background(), MethodAdvisorLogin, req(t, map[string]any{"email": "coach@example.com", "password": "long-enough-pw"}))
	require.NoError(t, err)
	tok := out.Fields["token"].GetStringValue()

	ctx := metadata.AppendToOutgoingContext(context.Background(), "authorization", "Bearer "+tok)
	out, err = f.client.Call(ctx, MethodListClients, req(t, map[string]any{"q": "ada"}))
	require.NoError(t, err)
	assert.Len(t, out.Fields["clients"].GetListValue().GetValues(), 1)
}

func TestHealth(t *testing.T) {
	f := start(t)
	resp, err := healthpb.NewHealthClient(f.conn).Check(context.Background(), &healthpb.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
}
