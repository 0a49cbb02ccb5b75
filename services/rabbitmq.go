package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"citipulse/models"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// amqpPublisher is the publishing half of amqp.Channel
type amqpPublisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// RabbitMQService publishes every raised alert to a direct exchange, routed by level
type RabbitMQService struct {
	url       string
	exchange  string
	conn      *amqp.Connection
	mu        sync.RWMutex
	channel   amqpPublisher
	logger    *zap.Logger
	isClosing atomic.Bool
}

// NewRabbitMQService connects and declares the alert exchange
func NewRabbitMQService(url, exchange string, logger *zap.Logger) (*RabbitMQService, error) {
	service := &RabbitMQService{
		url:      url,
		exchange: exchange,
		logger:   logger,
	}

	if err := service.connect(); err != nil {
		return nil, err
	}

	return service, nil
}

func newRabbitMQPublisher(channel amqpPublisher, exchange string, logger *zap.Logger) *RabbitMQService {
	return &RabbitMQService{
		exchange: exchange,
		channel:  channel,
		logger:   logger,
	}
}

func (r *RabbitMQService) connect() error {
	var err error

	r.logger.Info("Connecting to RabbitMQ", zap.String("exchange", r.exchange))

	maxRetries := 5
	for attempt := 1; attempt <= maxRetries; attempt++ {
		r.conn, err = amqp.Dial(r.url)
		if err == nil {
			break
		}

		r.logger.Warn("Failed to connect to RabbitMQ",
			zap.Int("attempt", attempt),
			zap.Int("max_retries", maxRetries),
			zap.Error(err))

		if attempt < maxRetries {
			time.Sleep(time.Duration(attempt) * 2 * time.Second)
		}
	}

	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ after %d attempts: %w", maxRetries, err)
	}

	r.logger.Info("Connected to RabbitMQ successfully")

	channel, err := r.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		r.exchange, // name
		"direct",   // type
		true,       // durable
		false,      // auto-deleted
		false,      // internal
		false,      // no-wait
		nil,        // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}
	r.mu.Lock()
	r.channel = channel
	r.mu.Unlock()

	r.logger.Info("Exchange declared", zap.String("exchange", r.exchange))

	go r.watchClose()
	return nil
}

// watchClose reconnects after an unexpected connection loss
func (r *RabbitMQService) watchClose() {
	closeErr := <-r.conn.NotifyClose(make(chan *amqp.Error, 1))
	if r.isClosing.Load() {
		r.logger.Info("RabbitMQ connection closed gracefully")
		return
	}

	r.logger.Error("RabbitMQ connection lost", zap.Error(closeErr))
	for {
		r.logger.Info("Attempting to reconnect to RabbitMQ...")
		err := r.connect()
		if err == nil {
			r.logger.Info("Successfully reconnected to RabbitMQ")
			return
		}
		r.logger.Error("Failed to reconnect", zap.Error(err))
		time.Sleep(5 * time.Second)
	}
}

func (r *RabbitMQService) Name() string { return "rabbitmq" }

// Publish sends each alert of the report with its level as routing key
func (r *RabbitMQService) Publish(ctx context.Context, report models.TickReport) error {
	r.mu.RLock()
	channel := r.channel
	r.mu.RUnlock()

	for _, a := range report.Alerts {
		body, err := json.Marshal(a)
		if err != nil {
			return fmt.Errorf("failed to marshal alert: %w", err)
		}

		err = channel.PublishWithContext(ctx,
			r.exchange,      // exchange
			string(a.Level), // routing key
			false,           // mandatory
			false,           // immediate
			amqp.Publishing{
				ContentType:  "application/json",
				Body:         body,
				DeliveryMode: amqp.Persistent,
				MessageId:    a.ID,
				Timestamp:    a.Timestamp,
			},
		)
		if err != nil {
			return fmt.Errorf("failed to publish alert %s: %w", a.ID, err)
		}

		r.logger.Debug("Published alert to RabbitMQ",
			zap.Int("sensor_id", a.SensorID),
			zap.String("parameter", string(a.Parameter)),
			zap.String("level", string(a.Level)))
	}
	return nil
}

// Close gracefully closes the RabbitMQ connection
func (r *RabbitMQService) Close() error {
	r.isClosing.Store(true)

	r.logger.Info("Closing RabbitMQ connection")

	r.mu.RLock()
	ch, ok := r.channel.(*amqp.Channel)
	r.mu.RUnlock()
	if ok && ch != nil {
		if err := ch.Close(); err != nil {
			r.logger.Error("Error closing channel", zap.Error(err))
		}
	}

	if r.conn != nil {
		if err := r.conn.Close(); err != nil {
			r.logger.Error("Error closing connection", zap.Error(err))
			return err
		}
	}

	r.logger.Info("RabbitMQ connection closed")
	return nil
}
