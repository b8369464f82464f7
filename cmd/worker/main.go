package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"launchpad/internal/handlers/business"
	"launchpad/internal/worker"
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

	config.InitDB()
	config.InitRabbitMQ()
	defer config.RabbitMQ.Close()

	svc := business.NewCurveService(engine, business.NewGormStore(config.DB), settings.ServiceConfig())
	handler := worker.NewGraduationHandler(worker.LogSeeder{}, svc, worker.DefaultMaxErrorCount)

	msgConsumer, err := config.NewConsumer(config.RabbitMQ, business.GraduationQueue)
	if err != nil {
		log.Fatal("Failed to create consumer: ", err)
	}
	defer msgConsumer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("Graduation worker started, waiting for messages...")
	if err := msgConsumer.Consume(ctx, handler.Handle); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("Consumer stopped: ", err)
		return
	}
	log.Info("Graduation worker stopped")
}
