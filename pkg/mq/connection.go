package mq

import (
	"fmt"
	"net/url"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

const ExchangeName = "events"

const heartbeat = 10 * time.Second

// NewConnection dials RabbitMQ. name is shown as the client connection name
// in the management UI.
func NewConnection(rawURL, name string) (*amqp091.Connection, error) {
	props := amqp091.NewConnectionProperties()
	props.SetClientConnectionName(name)

	conn, err := amqp091.DialConfig(rawURL, amqp091.Config{
		Heartbeat:  heartbeat,
		Locale:     "en_US",
		Properties: props,
	})
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq %s: %w", redactURL(rawURL), err)
	}
	return conn, nil
}

// redactURL hides the password so errors can be logged.
func redactURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "<invalid url>"
	}
	return u.Redacted()
}

// DeclareExchange declares the durable topic exchange all domain events go through.
func DeclareExchange(ch *amqp091.Channel) error {
	return ch.ExchangeDeclare(ExchangeName, amqp091.ExchangeTopic, true, false, false, false, nil)
}
