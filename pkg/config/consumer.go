package config

import (
	"context"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	log "github.com/sirupsen/logrus"
)

// Delivery is the part of an amqp.Delivery a handler decision needs.
type Delivery interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

// HandlerFunc processes one message body.
type HandlerFunc func(ctx context.Context, body []byte) error

// ErrDropMessage tells the consumer to discard a message without requeueing it.
var ErrDropMessage = errors.New("drop message")

type Consumer struct {
	channel *amqp.Channel
	queue   string
}

func NewConsumer(conn *amqp.Connection, queueName string) (*Consumer, error) {
	if conn == nil {
		return nil, fmt.Errorf("RabbitMQ connection not initialized")
	}
	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}
	if err := ch.Qos(1, 0, false); err != nil {
		ch.Close()
		return nil, err
	}

	q, err := declareQueue(ch, queueName)
	if err != nil {
		ch.Close()
		return nil, err
	}

	return &Consumer{channel: ch, queue: q.Name}, nil
}

// Consume delivers messages to handler until ctx is cancelled or the channel closes.
// Messages are acked on success, dropped on ErrDropMessage and requeued otherwise.
func (c *Consumer) Consume(ctx context.Context, handler HandlerFunc) error {
	msgs, err := c.channel.ConsumeWithContext(ctx,
		c.queue,
		"",    // consumer
		false, // autoAck
		false, // exclusive
		false, // noLocal
		false, // noWait
		nil,   // args
	)
	if err != nil {
		return err
	}

	log.Infof("Consumer is running... the queue is: %s", c.queue)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("delivery channel of queue %s closed", c.queue)
			}
			settle(&msg, handler(ctx, msg.Body))
		}
	}
}

// settle acks, drops or requeues d according to the handler result.
func settle(d Delivery, err error) {
	switch {
	case err == nil:
		_ = d.Ack(false)
	case errors.Is(err, ErrDropMessage):
		log.Warnf("Dropping message: %v", err)
		_ = d.Nack(false, false)
	default:
		log.Errorf("Handle msg failed: %v", err)
		_ = d.Nack(false, true) // requeue the message
	}
}

func (c *Consumer) Close() error {
	return c.channel.Close()
}
