package origin

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/any-hub/img-edge/internal/config"
)

func readAll(t *testing.T, obj *Object) string {
	t.Helper()
	defer obj.Body.Close()
	body, err := io.ReadAll(obj.Body)
	require.NoError(t, err)
	return string(body)
}

func TestDiskStore(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "nike"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "nike", "jordan12.jpg"), []byte("jpeg"), 0o644))

	store, err := NewDisk(root)
	require.NoError(t, err)
	assert.Equal(t, "disk", store.Kind())

	obj, err := store.Get(context.Background(), "nike/jordan12.jpg")
	require.NoError(t, err)
	assert.Equal(t, int64(4), obj.Size)
	assert.Equal(t, "jpeg", readAll(t, obj))

	_, err = store.Get(context.Background(), "nike/missing.jpg")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.Get(context.Background(), "nike")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.Get(context.Background(), "nike/jordan12.jpg/side.jpg")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = NewDisk(filepath.Join(root, "nike", "jordan12.jpg"))
	assert.Error(t, err)
}

func TestHTTPStore(t *testing.T) {
	lastModified := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		switch r.URL.Path {
		case "/bucket/nike/jordan12.jpg":
			w.Header().Set("Last-Modified", lastModified.Format(http.TimeFormat))
			w.Write([]byte("image-bytes"))
		case "/bucket/nike/boom.jpg":
			w.WriteHeader(http.StatusBadGateway)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	store, err := NewHTTP(srv.URL+"/bucket/", srv.Client())
	require.NoError(t, err)

	obj, err := store.Get(context.Background(), "nike/jordan12.jpg")
	require.NoError(t, err)
	assert.Equal(t, "/bucket/nike/jordan12.jpg", gotPath)
	assert.Equal(t, int64(len("image-bytes")), obj.Size)
	assert.True(t, obj.ModTime.Equal(lastModified))
	assert.Equal(t, "image-bytes", readAll(t, obj))

	_, err = store.Get(context.Background(), "nike/missing.jpg")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.Get(context.Background(), "nike/boom.jpg")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestHTTPStoreTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	store, err := NewHTTP(url, nil)
	require.NoError(t, err)
	_, err = store.Get(context.Background(), "nike/a.jpg")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestS3Store(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/images/cdn/nike/jordan12.jpg":
			w.Header().Set("Content-Length", "5")
			w.Write([]byte("bytes"))
		default:
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message></Error>`))
		}
	}))
	defer srv.Close()

	store, err := NewS3(config.OriginConfig{
		Type:      config.OriginS3,
		Endpoint:  srv.URL,
		Region:    "us-east-1",
		Bucket:    "images",
		Prefix:    "cdn",
		AccessKey: "key",
		SecretKey: "secret",
		PathStyle: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "s3", store.Kind())

	obj, err := store.Get(context.Background(), "nike/jordan12.jpg")
	require.NoError(t, err)
	assert.Equal(t, int64(5), obj.Size)
	assert.Equal(t, "bytes", readAll(t, obj))

	_, err = store.Get(context.Background(), "nike/missing.jpg")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMinIOStore(t *testing.T) {
	lastModified := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	var (
		mu      sync.Mutex
		methods []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		methods = append(methods, r.Method+" "+r.URL.Path)
		mu.Unlock()
		switch r.URL.Path {
		case "/images/cdn/nike/jordan12.jpg":
			w.Header().Set("Content-Length", "5")
			w.Header().Set("Content-Type", "image/jpeg")
			w.Header().Set("ETag", `"5d41402abc4b2a76b9719d911017c592"`)
			w.Header().Set("Last-Modified", lastModified.Format(http.TimeFormat))
			if r.Method == http.MethodGet {
				w.Write([]byte("bytes"))
			}
		default:
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			if r.Method == http.MethodGet {
				w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message></Error>`))
			}
		}
	}))
	defer srv.Close()

	store, err := NewMinIO(config.OriginConfig{
		Type:      config.OriginMinIO,
		Endpoint:  strings.TrimPrefix(srv.URL, "http://"),
		Region:    "us-east-1",
		Bucket:    "images",
		Prefix:    "cdn",
		AccessKey: "key",
		SecretKey: "secret",
		PathStyle: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "minio", store.Kind())

	obj, err := store.Get(context.Background(), "nike/jordan12.jpg")
	require.NoError(t, err)
	assert.Equal(t, int64(5), obj.Size)
	assert.True(t, obj.ModTime.Equal(lastModified))
	assert.Equal(t, "bytes", readAll(t, obj))

	_, err = store.Get(context.Background(), "nike/missing.jpg")
	assert.ErrorIs(t, err, ErrNotFound)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{
		"HEAD /images/cdn/nike/jordan12.jpg",
		"GET /images/cdn/nike/jordan12.jpg",
		"HEAD /images/cdn/nike/missing.jpg",
	}, methods)
}

func TestTranslateErrors(t *testing.T) {
	assert.ErrorIs(t, translateS3Error(awserr.New(s3.ErrCodeNoSuchKey, "missing", nil)), ErrNotFound)
	assert.ErrorIs(t, translateS3Error(awserr.NewRequestFailure(awserr.New("NotFound", "", nil), http.StatusNotFound, "req")), ErrNotFound)
	bucketErr := awserr.NewRequestFailure(awserr.New(s3.ErrCodeNoSuchBucket, "", nil), http.StatusNotFound, "req")
	assert.NotErrorIs(t, translateS3Error(bucketErr), ErrNotFound)
	assert.NotErrorIs(t, translateS3Error(awserr.New("AccessDenied", "", nil)), ErrNotFound)

	assert.ErrorIs(t, translateMinIOError(minio.ErrorResponse{Code: "NoSuchKey"}), ErrNotFound)
	assert.NotErrorIs(t, translateMinIOError(minio.ErrorResponse{Code: "NoSuchBucket"}), ErrNotFound)
	assert.NotErrorIs(t, translateMinIOError(errors.New("dial tcp: refused")), ErrNotFound)
}

func TestNewSelectsBackend(t *testing.T) {
	cases := []struct {
		cfg  config.OriginConfig
		kind string
	}{
		{config.OriginConfig{Type: "http", BaseURL: "https://images.example.com"}, "http"},
		{config.OriginConfig{Type: "s3", Bucket: "images", Region: "eu-west-1"}, "s3"},
		{config.OriginConfig{Type: "minio", Endpoint: "minio.local:9000", Bucket: "images", PathStyle: true}, "minio"},
		{config.OriginConfig{Type: "disk", Path: t.TempDir()}, "disk"},
	}
	for _, tc := range cases {
		store, err := New(tc.cfg, nil)
		require.NoError(t, err, tc.kind)
		assert.Equal(t, tc.kind, store.Kind())
	}

	_, err := New(config.OriginConfig{Type: "gcs"}, nil)
	assert.Error(t, err)
}

func TestObjectKey(t *testing.T) {
	assert.Equal(t, "nike/a.jpg", objectKey("", "/nike/a.jpg"))
	assert.Equal(t, "cdn/nike/a.jpg", objectKey("/cdn/", "nike/a.jpg"))
}
