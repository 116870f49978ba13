// Package grpcapi serves the advisory operations over gRPC.
package grpcapi

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"advisory-api/internal/middleware"
	"advisory-api/internal/service"
)

// skip auth for these
var open = map[string]bool{
	MethodMissingFields:            true,
	MethodAdvisorLogin:             true,
	"/grpc.health.v1.Health/Check": true,
	"/grpc.health.v1.Health/Watch": true,
}

// methods that should be rate limited
var limited = map[string]bool{
	MethodAdvisorLogin: true,
}

type Handler struct {
	svc *service.Service
	log *zap.Logger
}

func NewHandler(svc *service.Service, log *zap.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// NewServer builds a gRPC server with the auth and rate limit interceptors,
// the advisory service and the standard health service registered.
func NewServer(h *Handler, secret string, rl *middleware.RateLimiter) *grpc.Server {
	ints := []grpc.UnaryServerInterceptor{}
	if rl != nil {
		ints = append(ints, middleware.RateLimit(rl, limited))
	}
	ints = append(ints, middleware.Auth(secret, open))

	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(ints...))
	RegisterAdvisoryServer(srv, h)

	hs := health.NewServer()
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, hs)
	return srv
}

func decode(in *structpb.Struct, v any) error {
	b, err := protojson.Marshal(in)
	if err != nil {
		return status.Error(codes.InvalidArgument, "bad request")
	}
	if err := json.Unmarshal(b, v); err != nil {
		return status.Error(codes.InvalidArgument, "bad request")
	}
	return nil
}

func encode(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, status.Error(codes.Internal, "internal error")
	}
	out := new(structpb.Struct)
	if err := protojson.Unmarshal(b, out); err != nil {
		return nil, status.Error(codes.Internal, "internal error")
	}
	return out, nil
}

func codeFor(k service.Kind) codes.Code {
	switch k {
	case service.KindValidation:
		return codes.InvalidArgument
	case service.KindUnauthorized:
		return codes.Unauthenticated
	case service.KindNotFound:
		return codes.NotFound
	case service.KindConflict:
		return codes.AlreadyExists
	}
	return codes.Internal
}

func toStatus(err error) error {
	return status.Error(codeFor(service.KindOf(err)), service.Message(err))
}

func (h *Handler) MissingFields(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req struct {
		UserID string `json:"userId"`
	}
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	return encode(map[string]any{"missingFields": h.svc.MissingFields(ctx, req.UserID)})
}

func (h *Handler) UpdateUser(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req struct {
		ID string `json:"id"`
		service.ProfileInput
	}
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	u, err := h.svc.UpdateUser(ctx, req.ID, req.ProfileInput)
	if err != nil {
		return nil, toStatus(err)
	}
	return encode(map[string]any{"success": true, "user": u})
}

func (h *Handler) CreateBusiness(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req service.BusinessInput
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	b, err := h.svc.CreateBusiness(ctx, req)
	if err != nil {
		return nil, toStatus(err)
	}
	return encode(map[string]any{"success": true, "business": b})
}

func (h *Handler) ListAppointments(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req struct {
		BusinessID string `json:"businessId"`
	}
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	list, err := h.svc.ListAppointments(ctx, req.BusinessID)
	if err != nil {
		return nil, toStatus(err)
	}
	return encode(map[string]any{"appointments": list})
}

func (h *Handler) CreateAppointment(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req service.AppointmentInput
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	a, err := h.svc.CreateAppointment(ctx, req)
	if err != nil {
		return nil, toStatus(err)
	}
	return encode(map[string]any{"appointment": a})
}

func (h *Handler) AdvisorLogin(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	sess, err := h.svc.AdvisorLogin(ctx, req.Email, req.Password)
	if err != nil {
		return nil, toStatus(err)
	}
	return encode(sess)
}

func (h *Handler) ListClients(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req struct {
		Q string `json:"q"`
	}
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	list, err := h.svc.ListClients(ctx, req.Q)
	if err != nil {
		return nil, toStatus(err)
	}
	return encode(map[string]any{"clients": list})
}
