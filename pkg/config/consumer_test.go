package config

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeDelivery struct {
	acked    bool
	nacked   bool
	requeued bool
}

func (d *fakeDelivery) Ack(bool) error {
	d.acked = true
	return nil
}

func (d *fakeDelivery) Nack(_, requeue bool) error {
	d.nacked = true
	d.requeued = requeue
	return nil
}

func TestSettle(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		acked    bool
		requeued bool
	}{
		{"success", nil, true, false},
		{"transient failure", errors.New("db down"), false, true},
		{"dropped", fmt.Errorf("%w: bad payload", ErrDropMessage), false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &fakeDelivery{}
			settle(d, tt.err)
			assert.Equal(t, tt.acked, d.acked)
			assert.Equal(t, !tt.acked, d.nacked)
			assert.Equal(t, tt.requeued, d.requeued)
		})
	}
}

func TestConnectionStrings(t *testing.T) {
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_USER", "curve")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_NAME", "launchpad")
	t.Setenv("DB_PORT", "")
	t.Setenv("RABBITMQ_USER", "guest")
	t.Setenv("RABBITMQ_PASSWORD", "guest")
	t.Setenv("RABBITMQ_HOST", "mq")
	t.Setenv("RABBITMQ_PORT", "5673")

	assert.Equal(t, "host=db user=curve password=secret dbname=launchpad port=5432 sslmode=disable TimeZone=UTC", DatabaseDSN())
	assert.Equal(t, "postgres://curve:secret@db:5432/launchpad?sslmode=disable", MigrationURL())
	assert.Equal(t, "amqp://guest:guest@mq:5673/", RabbitMQURL())
}
