package origin

import (
	"context"
	"errors"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/any-hub/img-edge/internal/config"
)

type minioStore struct {
	client *minio.Client
	bucket string
	prefix string
}

// NewMinIO 通过 minio-go 访问任意 S3 兼容端点。
func NewMinIO(cfg config.OriginConfig) (Store, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, errors.New("minio endpoint and bucket required")
	}
	opts := &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	}
	if cfg.PathStyle {
		opts.BucketLookup = minio.BucketLookupPath
	}
	client, err := minio.New(cfg.Endpoint, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}
	return &minioStore{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

func (s *minioStore) Kind() string { return "minio" }

// Get 先 StatObject：GetObject 是惰性的，不存在的对象要到首次读取才会报错。
func (s *minioStore) Get(ctx context.Context, key string) (*Object, error) {
	objectName := objectKey(s.prefix, key)
	info, err := s.client.StatObject(ctx, s.bucket, objectName, minio.StatObjectOptions{})
	if err != nil {
		return nil, translateMinIOError(err)
	}
	obj, err := s.client.GetObject(ctx, s.bucket, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, translateMinIOError(err)
	}
	return &Object{Body: obj, Size: info.Size, ModTime: info.LastModified}, nil
}

func translateMinIOError(err error) error {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NotFound":
		return ErrNotFound
	default:
		return err
	}
}
