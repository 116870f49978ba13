package main

import (
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"advisory-api/internal/events"
	"advisory-api/internal/notify"
)

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Consume appointment events and send reminders",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		if cfg.RabbitURL == "" {
			return errors.New("RABBIT_URL is required")
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		c, err := events.NewConsumer(cfg.RabbitURL, cfg.EventsExchange, cfg.NotifyQueue, []string{events.RKAppointmentCreated})
		if err != nil {
			return err
		}
		defer c.Close()

		deliveries, err := c.Deliveries(ctx)
		if err != nil {
			return err
		}
		log.Info("notify worker consuming", zap.String("queue", cfg.NotifyQueue))
		w := notify.NewWorker(notify.LogNotifier{Log: log}, log, nil)
		if err := w.Run(ctx, deliveries); err != nil && !errors.Is(err, ctx.Err()) {
			return err
		}
		return nil
	},
}
