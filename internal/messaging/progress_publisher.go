package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"storybook-server/internal/models"
)

// ProgressPublisher pushes progress snapshots to the realtime update queue so
// websocket gateways do not need to poll the database.
type ProgressPublisher interface {
	PublishProgress(ctx context.Context, progress *models.GenerationProgress) error
	Close() error
}

type rabbitMQProgressPublisher struct {
	conn      *amqp.Connection
	channel   *amqp.Channel
	queueName string
	logger    *zap.Logger
}

// NewRabbitMQProgressPublisher connects to RabbitMQ and declares the durable
// progress queue.
func NewRabbitMQProgressPublisher(amqpURL, queueName string, logger *zap.Logger) (ProgressPublisher, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open RabbitMQ channel: %w", err)
	}
	_, err = channel.QueueDeclare(
		queueName,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue %s: %w", queueName, err)
	}

	logger.Info("Progress publisher connected", zap.String("queue", queueName))
	return &rabbitMQProgressPublisher{
		conn:      conn,
		channel:   channel,
		queueName: queueName,
		logger:    logger.Named("ProgressPublisher"),
	}, nil
}

var _ ProgressPublisher = (*rabbitMQProgressPublisher)(nil)

func (p *rabbitMQProgressPublisher) PublishProgress(ctx context.Context, progress *models.GenerationProgress) error {
	body, err := json.Marshal(progress)
	if err != nil {
		return fmt.Errorf("failed to marshal progress update: %w", err)
	}

	err = p.channel.PublishWithContext(ctx,
		"",          // default exchange
		p.queueName, // routing key
		false,       // mandatory
		false,       // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish progress update for order %s: %w", progress.OrderID, err)
	}

	p.logger.Debug("Progress update published",
		zap.Stringer("orderID", progress.OrderID),
		zap.String("stage", string(progress.Stage)),
		zap.Int("overall", progress.OverallProgress),
	)
	return nil
}

func (p *rabbitMQProgressPublisher) Close() error {
	if err := p.channel.Close(); err != nil {
		p.logger.Warn("Failed to close RabbitMQ channel", zap.Error(err))
	}
	return p.conn.Close()
}
