// Package notify turns appointment events into reminder notifications.
package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"advisory-api/internal/events"
)

// Notifier delivers a message to a user. Email or SMS implementations can
// replace the log notifier.
type Notifier interface {
	Notify(ctx context.Context, userID, subject, message string) error
}

type LogNotifier struct {
	Log *zap.Logger
}

func (n LogNotifier) Notify(_ context.Context, userID, subject, message string) error {
	n.Log.Info("notify", zap.String("user", userID), zap.String("subject", subject), zap.String("message", message))
	return nil
}

var ErrUnknownEvent = errors.New("unknown event")

type Worker struct {
	notifier Notifier
	log      *zap.Logger
	loc      *time.Location
}

func NewWorker(n Notifier, log *zap.Logger, loc *time.Location) *Worker {
	if loc == nil {
		loc = time.UTC
	}
	return &Worker{notifier: n, log: log, loc: loc}
}

// Handle processes one event body by routing key.
func (w *Worker) Handle(ctx context.Context, key string, body []byte) error {
	switch key {
	case events.RKAppointmentCreated:
		ev, err := events.Decode[events.AppointmentCreated](body)
		if err != nil {
			return err
		}
		return w.notifier.Notify(ctx, ev.UserID, "Appointment confirmed", ReminderText(ev, w.loc))
	default:
		return fmt.Errorf("%w: %s", ErrUnknownEvent, key)
	}
}

// Run consumes until ctx is cancelled or the channel closes. Failed
// messages are dropped, not requeued.
func (w *Worker) Run(ctx context.Context, deliveries <-chan amqp.Delivery) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return nil
			}
			if err := w.Handle(ctx, d.RoutingKey, d.Body); err != nil {
				w.log.Warn("notify failed", zap.String("key", d.RoutingKey), zap.Error(err))
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func ReminderText(ev events.AppointmentCreated, loc *time.Location) string {
	kind := "remote"
	if ev.Type == "onsite" {
		kind = "on-site"
	}
	at := time.Unix(ev.Date, 0).In(loc)
	return fmt.Sprintf("Your %s meeting is scheduled for %s at %s (1 hour).",
		kind, at.Format("2006-01-02"), at.Format("15:04"))
}
