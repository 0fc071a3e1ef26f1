package origin

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"

	"github.com/any-hub/img-edge/internal/config"
)

type s3Store struct {
	client *s3.S3
	bucket string
	prefix string
}

// NewS3 通过 aws-sdk-go 读取 S3 对象；Endpoint 非空时可指向兼容 S3 的服务。
func NewS3(cfg config.OriginConfig) (Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 bucket required")
	}
	awsCfg := &aws.Config{
		Region:           aws.String(cfg.Region),
		S3ForcePathStyle: aws.Bool(cfg.PathStyle),
		MaxRetries:       aws.Int(0),
	}
	if cfg.Region == "" {
		awsCfg.Region = aws.String("us-east-1")
	}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
	}
	if cfg.HasCredentials() {
		awsCfg.Credentials = credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, "")
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("create aws session: %w", err)
	}
	return &s3Store{
		client: s3.New(sess),
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
	}, nil
}

func (s *s3Store) Kind() string { return "s3" }

func (s *s3Store) Get(ctx context.Context, key string) (*Object, error) {
	out, err := s.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey(s.prefix, key)),
	})
	if err != nil {
		return nil, translateS3Error(err)
	}
	size := int64(-1)
	if out.ContentLength != nil {
		size = *out.ContentLength
	}
	return &Object{
		Body:    out.Body,
		Size:    size,
		ModTime: aws.TimeValue(out.LastModified),
	}, nil
}

// translateS3Error 将 NoSuchKey/404 归为 ErrNotFound，其余错误原样返回。
func translateS3Error(err error) error {
	var reqErr awserr.RequestFailure
	if errors.As(err, &reqErr) && reqErr.StatusCode() == http.StatusNotFound && reqErr.Code() != s3.ErrCodeNoSuchBucket {
		return ErrNotFound
	}
	var awsErr awserr.Error
	if errors.As(err, &awsErr) {
		switch awsErr.Code() {
		case s3.ErrCodeNoSuchKey, "NotFound":
			return ErrNotFound
		}
	}
	return err
}
