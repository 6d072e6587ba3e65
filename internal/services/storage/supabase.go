package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/phambaophuc/image-variants/internal/config"
	storage_go "github.com/supabase-community/storage-go"
)

type SupabaseStore struct {
	client *storage_go.Client
	bucket string
}

func NewSupabaseStore(cfg config.SupabaseConfig) *SupabaseStore {
	return &SupabaseStore{
		client: storage_go.NewClient(cfg.URL+"/storage/v1", cfg.KEY, nil),
		bucket: cfg.BUCKET,
	}
}

func (s *SupabaseStore) Name() string { return "supabase" }

// PutObject upserts the object. The client has no context support, so ctx
// only bounds how long we wait for it.
func (s *SupabaseStore) PutObject(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	upsert := true
	opts := storage_go.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	}

	done := make(chan error, 1)
	go func() {
		_, err := s.client.UploadFile(s.bucket, key, bytes.NewReader(data), opts)
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			return "", fmt.Errorf("failed to upload to supabase: %w", err)
		}
	case <-ctx.Done():
		return "", ctx.Err()
	}

	publicURL := s.client.GetPublicUrl(s.bucket, key)
	return publicURL.SignedURL, nil
}

func (s *SupabaseStore) Ping(ctx context.Context) error {
	if _, err := s.client.ListFiles(s.bucket, "", storage_go.FileSearchOptions{}); err != nil {
		return fmt.Errorf("failed to list supabase bucket: %w", err)
	}
	return nil
}
