package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	logger "github.com/sirupsen/logrus"

	"launchpad/internal/handlers/business"
	"launchpad/pkg/bondingcurve"
	dbconfig "launchpad/pkg/config"
)

func main() {
	dbconfig.InitLogger()
	os.MkdirAll("logs", 0755)
	file, err := os.OpenFile("logs/curve_snapshot_schedule.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err == nil {
		logger.SetOutput(file)
	} else {
		logger.Warn("Cannot open log file, logging to stdout")
	}

	settings, err := dbconfig.LoadCurveSettings()
	if err != nil {
		logger.Fatalf("> Failed to load curve settings: %v", err)
	}
	params, err := settings.Params()
	if err != nil {
		logger.Fatalf("> Invalid curve parameters: %v", err)
	}
	engine, err := bondingcurve.New(params)
	if err != nil {
		logger.Fatalf("> Failed to create pricing engine: %v", err)
	}

	dbconfig.InitDB()
	logger.Info("> Database connection initialized")

	var opts []business.Option
	if os.Getenv("RABBITMQ_HOST") != "" {
		dbconfig.InitRabbitMQ()
		defer dbconfig.RabbitMQ.Close()
		publisher, err := dbconfig.NewPublisher(dbconfig.RabbitMQ)
		if err != nil {
			logger.Fatalf("> Failed to create publisher: %v", err)
		}
		defer publisher.Close()
		opts = append(opts, business.WithPublisher(publisher))
	}
	svc := business.NewCurveService(engine, business.NewGormStore(dbconfig.DB), settings.ServiceConfig(), opts...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// SkipIfStillRunning keeps a slow run from overlapping the next tick
	c := cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))

	_, err = c.AddFunc(settings.SnapshotSchedule, func() {
		n, err := svc.RecordSnapshots(ctx)
		if err != nil {
			logger.Errorf("> Failed to record curve snapshots: %v", err)
			return
		}
		logger.Infof("> Recorded %d curve snapshots", n)
	})
	if err != nil {
		logger.Fatalf("> Failed to add snapshot job: %v", err)
	}

	if len(opts) > 0 {
		_, err = c.AddFunc(settings.RepublishSchedule, func() {
			n, err := svc.RepublishPendingGraduations(ctx, settings.RepublishAfter)
			if err != nil {
				logger.Errorf("> Failed to republish pending graduations: %v", err)
				return
			}
			if n > 0 {
				logger.Infof("> Republished %d pending graduations", n)
			}
		})
		if err != nil {
			logger.Fatalf("> Failed to add republish job: %v", err)
		}
	}

	c.Start()
	logger.Infof("> Curve snapshot schedule started (%s)", settings.SnapshotSchedule)

	<-ctx.Done()
	<-c.Stop().Done()
	logger.Info("> Curve snapshot schedule stopped")
}
