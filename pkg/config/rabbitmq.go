package config

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/cenkalti/backoff/v5"
	amqp "github.com/rabbitmq/amqp091-go"
	log "github.com/sirupsen/logrus"
)

var RabbitMQ *amqp.Connection

const (
	rabbitMQMaxTries   = 10
	rabbitMQRetryDelay = 3 * time.Second
)

// RabbitMQURL builds the broker URL from RABBITMQ_* variables.
func RabbitMQURL() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%s/",
		os.Getenv("RABBITMQ_USER"),
		os.Getenv("RABBITMQ_PASSWORD"),
		os.Getenv("RABBITMQ_HOST"),
		getenv("RABBITMQ_PORT", "5672"),
	)
}

// DialRabbitMQ connects to url, retrying with a constant delay.
func DialRabbitMQ(ctx context.Context, url string, maxTries uint, delay time.Duration) (*amqp.Connection, error) {
	notify := func(err error, d time.Duration) {
		log.Warnf("Failed to connect to RabbitMQ: %v. Retrying in %v...", err, d)
	}
	return backoff.Retry(ctx, func() (*amqp.Connection, error) {
		return amqp.Dial(url)
	},
		backoff.WithBackOff(backoff.NewConstantBackOff(delay)),
		backoff.WithMaxTries(maxTries),
		backoff.WithNotify(notify))
}

// InitRabbitMQ RabbitMQ with retry logic
func InitRabbitMQ() {
	conn, err := DialRabbitMQ(context.Background(), RabbitMQURL(), rabbitMQMaxTries, rabbitMQRetryDelay)
	if err != nil {
		log.Fatalf("Failed to connect to RabbitMQ after %d attempts: %v", rabbitMQMaxTries, err)
	}
	RabbitMQ = conn
	log.Infof("Successfully connected to RabbitMQ at %s", os.Getenv("RABBITMQ_HOST"))
}

func declareQueue(ch *amqp.Channel, queueName string) (amqp.Queue, error) {
	return ch.QueueDeclare(
		queueName,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,   // args
	)
}
