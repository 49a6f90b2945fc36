package sidecar

import (
	"context"
	"fmt"
	"os"

	"aplib-go/internal/config"
)

// Environment variables holding static S3 credentials. When unset the
// default AWS credential chain applies.
const (
	EnvS3AccessKeyID     = "APLIB_S3_ACCESS_KEY_ID"
	EnvS3SecretAccessKey = "APLIB_S3_SECRET_ACCESS_KEY"
)

// NewSinkFromConfig creates a Sink implementation based on the sidecar config type.
func NewSinkFromConfig(ctx context.Context, cfg config.SidecarConfig) (Sink, error) {
	switch cfg.Type {
	case "memory":
		return NewMemorySink(cfg.Name), nil
	case "filesystem":
		if cfg.FSRoot == "" {
			return nil, fmt.Errorf("filesystem sidecar sink requires fs_root to be set")
		}
		return NewFileSystemSink(cfg.Name, cfg.FSRoot)
	case "s3":
		if cfg.S3Bucket == "" {
			return nil, fmt.Errorf("s3 sidecar sink requires s3_bucket to be set")
		}
		client, err := NewS3Client(ctx, S3Options{
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     os.Getenv(EnvS3AccessKeyID),
			SecretAccessKey: os.Getenv(EnvS3SecretAccessKey),
		})
		if err != nil {
			return nil, err
		}
		return NewS3Sink(cfg.Name, cfg.S3Bucket, cfg.S3Prefix, client), nil
	default:
		return nil, fmt.Errorf("unknown sidecar type: %s", cfg.Type)
	}
}
