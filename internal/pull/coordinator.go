package pull

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"

	"github.com/any-hub/img-edge/internal/cache"
	"github.com/any-hub/img-edge/internal/cdnerr"
	"github.com/any-hub/img-edge/internal/identity"
	"github.com/any-hub/img-edge/internal/logging"
	"github.com/any-hub/img-edge/internal/metrics"
	"github.com/any-hub/img-edge/internal/origin"
)

const (
	defaultTimeout       = 30 * time.Second
	defaultMaxConcurrent = 32
)

// Options 控制拉取超时、并发与观测组件，零值字段使用默认值。
type Options struct {
	Timeout       time.Duration
	MaxConcurrent int
	Logger        *logrus.Logger
	Metrics       *metrics.Recorder
}

// Coordinator 以 singleflight 保证同一原图键同时只有一次源站拉取。
type Coordinator struct {
	store   cache.Store
	origin  origin.Store
	group   singleflight.Group
	slots   *semaphore.Weighted
	timeout time.Duration
	logger  *logrus.Logger
	metrics *metrics.Recorder
}

// New 构建拉取协调器；store 与 src 由调用方注入。
func New(store cache.Store, src origin.Store, opts Options) *Coordinator {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = defaultMaxConcurrent
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	return &Coordinator{
		store:   store,
		origin:  src,
		slots:   semaphore.NewWeighted(int64(opts.MaxConcurrent)),
		timeout: opts.Timeout,
		logger:  opts.Logger,
		metrics: opts.Metrics,
	}
}

// EnsureOriginal 保证原图已落盘并返回其缓存条目。调用方 ctx 取消只会放弃等待，
// 不会中断共享的拉取。
func (c *Coordinator) EnsureOriginal(ctx context.Context, keys identity.Keys) (*cache.Entry, error) {
	key := keys.OriginKey()
	flight := c.group.DoChan(key, func() (interface{}, error) {
		return c.fetch(context.WithoutCancel(ctx), keys)
	})

	select {
	case res := <-flight:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*cache.Entry), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Coordinator) fetch(ctx context.Context, keys identity.Keys) (*cache.Entry, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	key := keys.OriginKey()
	locator := cache.OriginalLocator(keys)

	// 上一轮拉取可能刚完成
	entry, err := c.store.Stat(ctx, locator)
	switch {
	case err == nil:
		return entry, nil
	case !errors.Is(err, cache.ErrNotFound):
		return nil, withKey(cdnerr.FilesystemFailure(err, "check cached original before pull"), keys)
	}

	if err := c.slots.Acquire(ctx, 1); err != nil {
		return nil, withKey(cdnerr.OriginFailure(err, "wait for origin pull slot"), keys)
	}
	defer c.slots.Release(1)

	start := time.Now()
	log := c.logger.WithFields(logging.KeyFields("origin_pull", key))
	log.Debug("origin pull started")

	entry, err = c.download(ctx, keys, locator)
	elapsed := time.Since(start)
	if err != nil {
		result := "error"
		if cdnerr.Is(err, cdnerr.KindNotFound) {
			result = "not_found"
		}
		c.metrics.ObservePull(result, elapsed)
		fields := logging.ErrorFields(err)
		fields["elapsed_ms"] = elapsed.Milliseconds()
		if cdnerr.Is(err, cdnerr.KindFilesystemFailure) {
			log.WithFields(fields).Error("origin pull failed")
		} else {
			log.WithFields(fields).Warn("origin pull failed")
		}
		return nil, err
	}

	c.metrics.ObservePull("ok", elapsed)
	log.WithFields(logrus.Fields{
		"elapsed_ms": elapsed.Milliseconds(),
		"size":       entry.SizeBytes,
	}).Info("origin pull completed")
	return entry, nil
}

func (c *Coordinator) download(ctx context.Context, keys identity.Keys, locator cache.Locator) (*cache.Entry, error) {
	obj, err := c.origin.Get(ctx, keys.OriginKey())
	if err != nil {
		if errors.Is(err, origin.ErrNotFound) {
			return nil, withKey(cdnerr.NotFound("%s not found at origin", keys.OriginKey()), keys)
		}
		return nil, withKey(cdnerr.OriginFailure(err, "origin get %s", keys.OriginKey()), keys)
	}
	defer obj.Body.Close()

	var body io.Reader = obj.Body
	if obj.Size >= 0 {
		body = &sizedReader{r: obj.Body, remaining: obj.Size}
	}

	entry, err := c.store.Put(ctx, locator, body, cache.PutOptions{ModTime: obj.ModTime})
	if err != nil {
		var srcErr *cache.SourceError
		if errors.As(err, &srcErr) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, withKey(cdnerr.OriginFailure(err, "origin transfer %s", keys.OriginKey()), keys)
		}
		if errors.Is(err, cache.ErrPathConflict) {
			return nil, withKey(cdnerr.NotFound("%s is not addressable on this node: %v", keys.OriginKey(), err), keys)
		}
		return nil, withKey(cdnerr.FilesystemFailure(err, "write original %s", locator), keys)
	}
	return entry, nil
}

// sizedReader 在源站声明了长度时校验实际字节数，短读视为传输失败。
type sizedReader struct {
	r         io.Reader
	remaining int64
}

func (s *sizedReader) Read(p []byte) (int, error) {
	n, err := s.r.Read(p)
	s.remaining -= int64(n)
	if s.remaining < 0 {
		return n, fmt.Errorf("origin sent more bytes than declared")
	}
	if errors.Is(err, io.EOF) && s.remaining > 0 {
		return n, io.ErrUnexpectedEOF
	}
	return n, err
}

func withKey(err error, keys identity.Keys) error {
	return cdnerr.With(cdnerr.With(err, "tenant", keys.Tenant), "key", keys.OriginKey())
}
