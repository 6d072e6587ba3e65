package models

import "time"

// HealthCheck is the health payload. Services maps a dependency name to
// "healthy", "not configured" or "unhealthy: <reason>".
type HealthCheck struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Services  map[string]string `json:"services"`
}
