// Package storage keeps rendered chart artifacts on disk or in an
// S3-compatible bucket.
package storage

import (
	"context"
	"fmt"

	"trafficcast/internal/infra"
)

// Store is the artifact backend used by the pipeline.
type Store interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Get(ctx context.Context, key string) ([]byte, error)
}

// New returns the backend selected by cfg.ArtifactStore, or nil when
// artifacts are disabled.
func New(cfg *infra.Config) (Store, error) {
	switch cfg.ArtifactStore {
	case infra.ArtifactStoreNone, "":
		return nil, nil
	case infra.ArtifactStoreFS:
		fs, err := NewFileStore(cfg.ArtifactPath)
		if err != nil {
			return nil, err
		}
		return fs, nil
	case infra.ArtifactStoreS3:
		obj, err := NewObjectStore(ObjectConfig{
			Endpoint:  cfg.S3Endpoint,
			Bucket:    cfg.S3Bucket,
			UseSSL:    cfg.S3UseSSL,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
		if err != nil {
			return nil, err
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("storage: unknown artifact store %q", cfg.ArtifactStore)
	}
}
