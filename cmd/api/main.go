package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"launchpad/internal/feed"
	"launchpad/internal/handlers"
	"launchpad/internal/handlers/business"
	"launchpad/internal/middleware"
	"launchpad/internal/routes"
	"launchpad/pkg/bondingcurve"
	"launchpad/pkg/config"
)

func main() {
	config.InitLogger()

	settings, err := config.LoadCurveSettings()
	if err != nil {
		log.Fatal("Failed to load curve settings: ", err)
	}
	params, err := settings.Params()
	if err != nil {
		log.Fatal("Invalid curve parameters: ", err)
	}
	engine, err := bondingcurve.New(params)
	if err != nil {
		log.Fatal("Failed to create pricing engine: ", err)
	}

	// API_STORE=memory runs without postgres, state is lost on restart
	var store business.Store
	if os.Getenv("API_STORE") == "memory" {
		log.Warn("Using in-memory store")
		store = business.NewMemoryStore()
	} else {
		config.InitDB()
		store = business.NewGormStore(config.DB)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := feed.NewHub(routes.CheckOrigin(routes.AllowedOrigins()))
	opts := []business.Option{business.WithNotifier(hub)}

	// RabbitMQ is optional, graduations stay pending without it
	if os.Getenv("RABBITMQ_HOST") != "" {
		config.InitRabbitMQ()
		defer config.RabbitMQ.Close()

		publisher, err := config.NewPublisher(config.RabbitMQ)
		if err != nil {
			log.Fatal("Failed to create publisher: ", err)
		}
		defer publisher.Close()
		opts = append(opts, business.WithPublisher(publisher))
	} else {
		log.Info("RabbitMQ not configured, skipping initialization")
	}

	svc := business.NewCurveService(engine, store, settings.ServiceConfig(), opts...)
	limiter := middleware.NewRateLimiter(settings.RateLimiterConfig())

	r := routes.SetupRouter(routes.Dependencies{
		Curves:      handlers.NewTokenCurveHandler(svc),
		Feed:        hub,
		TradeLimits: limiter,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{Addr: ":" + port, Handler: r, ReadHeaderTimeout: 10 * time.Second}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		limiter.Run(gctx)
		return nil
	})
	g.Go(func() error {
		log.Infof("API listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatal("Server stopped: ", err)
	}
	log.Info("Server stopped")
}
