package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"sampleapps/pkg/metrics"
	"sampleapps/pkg/trace"
	"sampleapps/pkg/util"
)

type MessageHandler func(ctx context.Context, data json.RawMessage) error

// RetryTracker counts deliveries of one message across requeues.
type RetryTracker interface {
	IncrementAndGet(ctx context.Context, key string) (int64, error)
	Reset(ctx context.Context, key string) error
}

type Consumer struct {
	channel     *amqp091.Channel
	queue       amqp091.Queue
	routingKey  string
	consumerTag string
	handler     MessageHandler
	conn        *amqp091.Connection
	logger      *zap.Logger

	dlq        *Publisher
	service    string
	retries    RetryTracker
	maxRetries int64

	stopOnce sync.Once
}

// NewConsumer creates a consumer for a specific routing key.
func NewConsumer(url, queueName, routingKey string, logger *zap.Logger) (*Consumer, error) {
	conn, err := NewConnection(url, queueName+".worker")
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := DeclareExchange(ch); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	q, err := ch.QueueDeclare(
		queueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	err = ch.QueueBind(
		q.Name,
		routingKey,
		ExchangeName,
		false,
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to bind queue: %w", err)
	}

	if err := ch.Qos(10, 0, false); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to set qos: %w", err)
	}

	logger.Info("Consumer initialized",
		zap.String("routing_key", routingKey),
		zap.String("queue", queueName),
		zap.String("exchange", ExchangeName),
	)

	return &Consumer{
		conn:        conn,
		channel:     ch,
		queue:       q,
		routingKey:  routingKey,
		consumerTag: queueName + ".worker",
		logger:      logger,
		maxRetries:  3,
	}, nil
}

func (c *Consumer) SetHandler(h MessageHandler) {
	c.handler = h
}

// WithDeadLetter routes non-retryable failures to the DLQ instead of requeueing them forever.
func (c *Consumer) WithDeadLetter(pub *Publisher, service string) *Consumer {
	c.dlq = pub
	c.service = service
	return c
}

// WithRetryLimit caps how many times a retryable failure is requeued.
func (c *Consumer) WithRetryLimit(tracker RetryTracker, maxRetries int64) *Consumer {
	c.retries = tracker
	c.maxRetries = maxRetries
	return c
}

// IsConnected reports whether the underlying AMQP connection is alive.
func (c *Consumer) IsConnected() bool {
	return c != nil && c.conn != nil && !c.conn.IsClosed()
}

// Stop cancels the delivery stream; StartConsuming returns once in-flight messages finish.
func (c *Consumer) Stop() {
	c.stopOnce.Do(func() {
		if c.channel != nil {
			if err := c.channel.Cancel(c.consumerTag, false); err != nil {
				c.logger.Warn("Failed to cancel consumer",
					zap.String("queue", c.queue.Name),
					zap.Error(err),
				)
			}
		}
	})
}

func (c *Consumer) Close() {
	if c.channel != nil {
		_ = c.channel.Close()
	}
	if c.conn != nil {
		_ = c.conn.Close()
	}
}

// StartConsuming starts consuming messages. This method blocks and should be called in a goroutine.
func (c *Consumer) StartConsuming() error {
	if c.handler == nil {
		return fmt.Errorf("consumer handler not set")
	}

	deliveries, err := c.channel.Consume(
		c.queue.Name,
		c.consumerTag,
		false, // 手动ack
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	c.logger.Info("Consumer started consuming messages",
		zap.String("routing_key", c.routingKey),
		zap.String("queue", c.queue.Name),
	)

	// 保证每条消息都会被 ack 或 nack
	for msg := range deliveries {
		c.process(msg)
	}

	c.logger.Info("Consumer delivery channel closed",
		zap.String("queue", c.queue.Name),
	)
	return nil
}

func (c *Consumer) process(msg amqp091.Delivery) {
	start := time.Now()
	ctx := context.Background()
	if traceID, ok := msg.Headers[TraceHeader].(string); ok && traceID != "" {
		ctx = trace.WithContext(ctx, traceID)
	}
	log := c.logger.With(
		zap.String("routing_key", c.routingKey),
		zap.String("queue", c.queue.Name),
		zap.String("message_id", msg.MessageId),
	)

	defer func() {
		metrics.RecordMQConsumeLatency(c.routingKey, c.queue.Name, time.Since(start))
	}()

	err := c.invoke(ctx, msg.Body)
	if err == nil {
		if c.retries != nil && msg.MessageId != "" {
			_ = c.retries.Reset(ctx, c.retryKey(msg.MessageId))
		}
		if err := msg.Ack(false); err != nil {
			log.Error("Failed to ack message", zap.Error(err))
		}
		return
	}

	retryable, errType := util.IsRetryableError(err)
	var attempts int64
	if retryable && c.retries != nil && msg.MessageId != "" {
		n, rerr := c.retries.IncrementAndGet(ctx, c.retryKey(msg.MessageId))
		if rerr != nil {
			log.Warn("Retry counter unavailable", zap.Error(rerr))
		} else {
			attempts = n
		}
	}

	switch decide(retryable, attempts, c.maxRetries, c.dlq != nil) {
	case actionRequeue:
		log.Warn("Handler error, requeueing",
			zap.String("error_type", errType),
			zap.Int64("attempt", attempts),
			zap.Error(err),
		)
		if err := msg.Nack(false, true); err != nil {
			log.Error("Failed to nack message", zap.Error(err))
		}
	case actionDeadLetter:
		log.Error("Handler error, moving message to DLQ",
			zap.String("error_type", errType),
			zap.Error(err),
		)
		headers := DLQHeaders(msg.Headers, err.Error(), errType, c.service)
		if perr := c.dlq.PublishToDLQ(ctx, c.routingKey, msg.Body, headers); perr != nil {
			log.Error("Failed to publish to DLQ, requeueing", zap.Error(perr))
			_ = msg.Nack(false, true)
			return
		}
		if err := msg.Ack(false); err != nil {
			log.Error("Failed to ack dead-lettered message", zap.Error(err))
		}
	case actionDrop:
		log.Error("Handler error, dropping message",
			zap.String("error_type", errType),
			zap.Error(err),
		)
		_ = msg.Nack(false, false)
	}
}

// invoke runs the handler and turns a panic into an error.
func (c *Consumer) invoke(ctx context.Context, body []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("Handler panic recovered",
				zap.String("routing_key", c.routingKey),
				zap.Any("panic", r),
			)
			err = fmt.Errorf("%w: %w: %v", ErrHandlerPanic, util.ErrTransient, r)
		}
	}()
	return c.handler(ctx, body)
}

func (c *Consumer) retryKey(messageID string) string {
	return fmt.Sprintf("retry:%s:%s", c.queue.Name, messageID)
}

type action int

const (
	actionRequeue action = iota
	actionDeadLetter
	actionDrop
)

// decide picks what to do with a failed delivery. attempts is 0 when no tracker is configured.
func decide(retryable bool, attempts, maxRetries int64, hasDLQ bool) action {
	if retryable && util.ShouldRetry(attempts, maxRetries, true) {
		return actionRequeue
	}
	if hasDLQ {
		return actionDeadLetter
	}
	if retryable {
		// 没有 DLQ 时不能丢弃可重试的消息
		return actionRequeue
	}
	return actionDrop
}
