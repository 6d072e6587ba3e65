package storage

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Put uploads data under key. Failed attempts are retried with exponential
// backoff until maxRetries is exhausted or ctx is done.
func (s *StorageService) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	var (
		url string
		err error
	)

	for attempt := 1; ; attempt++ {
		url, err = s.putOnce(ctx, key, data, contentType)
		if err == nil {
			if attempt > 1 {
				s.logger.Info("Upload succeeded after retry",
					zap.String("key", key),
					zap.Int("attempt", attempt))
			}
			return url, nil
		}

		if attempt > s.maxRetries || ctx.Err() != nil {
			break
		}

		delay := s.backoffDelay(attempt)
		s.logger.Warn("Upload attempt failed, retrying",
			zap.String("key", key),
			zap.String("store", s.store.Name()),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", delay),
			zap.Error(err))

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return "", fmt.Errorf("failed to upload %q: %w", key, ctx.Err())
		}
	}

	return "", fmt.Errorf("failed to upload %q to %s: %w", key, s.store.Name(), err)
}

func (s *StorageService) putOnce(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if s.uploadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.uploadTimeout)
		defer cancel()
	}
	return s.store.PutObject(ctx, key, data, contentType)
}

func (s *StorageService) backoffDelay(attempt int) time.Duration {
	delay := s.retryBaseDelay << (attempt - 1)
	jitter := delay / 10
	return delay - jitter/2 + time.Duration(time.Now().UnixNano()%int64(jitter+1))
}
