package queue

import (
	"fmt"

	"github.com/phambaophuc/image-variants/internal/services/pipeline"
	"github.com/phambaophuc/image-variants/internal/services/storage"
	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

const DefaultQueueName = "image_variants"

type QueueService struct {
	conn            *amqp.Connection
	channel         *amqp.Channel
	logger          *zap.Logger
	queueName       string
	pipeline        *pipeline.Pipeline
	jobs            *storage.JobStore
	maxDownloadSize int64
}

func NewQueueService(
	rabbitmqURL string,
	pipe *pipeline.Pipeline,
	jobs *storage.JobStore,
	maxDownloadSize int64,
	logger *zap.Logger,
) (*QueueService, error) {
	conn, err := amqp.Dial(rabbitmqURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	// Declare queue
	_, err = channel.QueueDeclare(
		DefaultQueueName, // name
		true,             // durable
		false,            // delete when unused
		false,            // exclusive
		false,            // no-wait
		nil,              // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	// one unacked job per consumer; a run already fans out internally
	if err := channel.Qos(1, 0, false); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to set qos: %w", err)
	}

	return &QueueService{
		conn:            conn,
		channel:         channel,
		logger:          logger,
		queueName:       DefaultQueueName,
		pipeline:        pipe,
		jobs:            jobs,
		maxDownloadSize: maxDownloadSize,
	}, nil
}

// Close closes the queue connection
func (q *QueueService) Close() error {
	if q.channel != nil {
		q.channel.Close()
	}
	if q.conn != nil {
		q.conn.Close()
	}
	return nil
}
