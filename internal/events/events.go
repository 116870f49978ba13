// Package events publishes and consumes domain events on a RabbitMQ topic
// exchange.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
)

const (
	RKAppointmentCreated = "appointment.created"
	RKBusinessCreated    = "business.created"
)

type AppointmentCreated struct {
	AppointmentID string `json:"appointment_id"`
	BusinessID    string `json:"business_id"`
	UserID        string `json:"user_id"`
	Date          int64  `json:"date"` // unix seconds
	Type          string `json:"type"`
	Notes         string `json:"notes,omitempty"`
}

type BusinessCreated struct {
	BusinessID string `json:"business_id"`
	Name       string `json:"name"`
	OwnerID    string `json:"owner_id"`
}

type Publisher interface {
	PublishJSON(ctx context.Context, key string, v any) error
	Close() error
}

// LogPublisher stands in when no broker is configured.
type LogPublisher struct {
	Log *zap.Logger
}

func (p LogPublisher) PublishJSON(_ context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	p.Log.Debug("event", zap.String("key", key), zap.ByteString("payload", b))
	return nil
}

func (LogPublisher) Close() error { return nil }

func Decode[T any](b []byte) (T, error) {
	var t T
	if err := json.Unmarshal(b, &t); err != nil {
		var zero T
		return zero, fmt.Errorf("decode payload failed: %w", err)
	}
	return t, nil
}
