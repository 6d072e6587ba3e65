package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/phambaophuc/image-variants/internal/config"
	"go.uber.org/zap"
)

// ObjectStore is a bucket that stores bytes under a key. PutObject
// overwrites existing objects.
type ObjectStore interface {
	Name() string
	PutObject(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Ping(ctx context.Context) error
}

// StorageService uploads artifacts to an ObjectStore with per-attempt
// timeouts and retries.
type StorageService struct {
	store          ObjectStore
	logger         *zap.Logger
	uploadTimeout  time.Duration
	maxRetries     int
	retryBaseDelay time.Duration
}

func NewStorageService(store ObjectStore, cfg config.StorageConfig, logger *zap.Logger) *StorageService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StorageService{
		store:          store,
		logger:         logger,
		uploadTimeout:  cfg.UploadTimeout,
		maxRetries:     cfg.MaxRetries,
		retryBaseDelay: cfg.RetryBaseDelay,
	}
}

// NewObjectStore builds the store selected by STORAGE_PROVIDER.
func NewObjectStore(ctx context.Context, cfg *config.Config) (ObjectStore, error) {
	switch cfg.Storage.Provider {
	case "supabase":
		return NewSupabaseStore(cfg.Supabase), nil
	case "s3":
		return NewS3Store(ctx, cfg.S3)
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage provider %q", cfg.Storage.Provider)
	}
}

func (s *StorageService) Store() ObjectStore {
	return s.store
}
