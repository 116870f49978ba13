package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"advisory-api/internal/assistant"
	"advisory-api/internal/config"
	"advisory-api/internal/events"
	"advisory-api/internal/grpcapi"
	"advisory-api/internal/httpapi"
	"advisory-api/internal/middleware"
	"advisory-api/internal/obs"
	"advisory-api/internal/service"
	"advisory-api/internal/store"
)

var serveMigrate bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP and gRPC servers",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveMigrate, "migrate", false, "apply postgres migrations before serving")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := obs.InitTracer(ctx, "advisoryd", cfg.OTLPEndpoint, cfg.Env)
	if err != nil {
		return err
	}
	defer func() { _ = shutdownTracer(context.Background()) }()

	repo, release, err := openRepo(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer release()

	if serveMigrate {
		if pg, ok := repo.(*store.Store); ok {
			applied, err := pg.Migrate(ctx)
			if err != nil {
				return err
			}
			log.Info("migrations applied", zap.Strings("files", applied))
		}
	}

	pub := newPublisher(cfg, log)
	defer func() { _ = pub.Close() }()

	svc := service.New(repo, pub, log, service.Options{Secret: cfg.JWTSecret, SessionTTL: cfg.SessionTTL})
	rl := middleware.NewRateLimiter(ctx, cfg.RateRPS, cfg.RateBurst)

	// grpc server
	gsrv := grpcapi.NewServer(grpcapi.NewHandler(svc, log), cfg.JWTSecret, rl)
	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		return err
	}
	go func() {
		log.Info("grpc listening", zap.String("port", cfg.GRPCPort))
		if err := gsrv.Serve(lis); err != nil {
			log.Error("grpc", zap.Error(err))
		}
	}()

	var chat httpapi.Asker
	if cfg.AssistantURL != "" {
		chat = assistant.New(cfg.AssistantURL, cfg.AssistantTimeout)
	}
	api := httpapi.New(svc, chat, rl, log, httpapi.Options{
		Secret:         cfg.JWTSecret,
		CookieName:     cfg.CookieName,
		CookieSecure:   cfg.CookieSecure,
		SessionTTL:     cfg.SessionTTL,
		ProviderSecret: cfg.ProviderSecret,
		Origins:        cfg.Origins(),
	})
	hsrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info("http listening", zap.String("port", cfg.Port))
		if err := hsrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http", zap.Error(err))
			stop()
		}
	}()

	// graceful shutdown
	<-ctx.Done()
	log.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = hsrv.Shutdown(sctx)
	gsrv.GracefulStop()
	return nil
}

func newPublisher(cfg config.Config, log *zap.Logger) events.Publisher {
	if cfg.RabbitURL == "" {
		return events.LogPublisher{Log: log}
	}
	p, err := events.NewPublisher(cfg.RabbitURL, cfg.EventsExchange)
	if err != nil {
		log.Warn("rabbitmq unavailable, events are logged only", zap.Error(err))
		return events.LogPublisher{Log: log}
	}
	log.Info("publishing events", zap.String("exchange", cfg.EventsExchange))
	return p
}
