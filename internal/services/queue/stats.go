package queue

import "fmt"

// QueueStats is a snapshot of the job queue as seen by the broker.
type QueueStats struct {
	Name      string `json:"name"`
	Pending   int    `json:"pending"`
	Consumers int    `json:"consumers"`
}

func (q *QueueService) Stats() (QueueStats, error) {
	info, err := q.channel.QueueInspect(q.queueName)
	if err != nil {
		return QueueStats{}, fmt.Errorf("failed to inspect queue: %w", err)
	}
	return QueueStats{Name: info.Name, Pending: info.Messages, Consumers: info.Consumers}, nil
}

// HealthCheck reports the RabbitMQ connection state. A queue without
// consumers is unhealthy: published jobs would never run.
func (q *QueueService) HealthCheck() string {
	if q.conn == nil || q.conn.IsClosed() {
		return "unhealthy: connection closed"
	}
	if q.channel == nil {
		return "unhealthy: channel not available"
	}

	stats, err := q.Stats()
	if err != nil {
		return "unhealthy: " + err.Error()
	}
	if stats.Consumers == 0 {
		return "unhealthy: no consumers"
	}
	return "healthy"
}
