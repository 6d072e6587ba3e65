package storage

import (
	"context"

	"go.uber.org/zap"
)

// HealthCheck reports the object store status.
func (s *StorageService) HealthCheck(ctx context.Context) map[string]string {
	status := make(map[string]string)

	if err := s.store.Ping(ctx); err != nil {
		s.logger.Warn("Object store unhealthy", zap.String("store", s.store.Name()), zap.Error(err))
		status[s.store.Name()] = "unhealthy: " + err.Error()
	} else {
		status[s.store.Name()] = "healthy"
	}

	return status
}
