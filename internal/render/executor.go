package render

import (
	"context"
	"errors"
	"image"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"

	"github.com/any-hub/img-edge/internal/cache"
	"github.com/any-hub/img-edge/internal/cdnerr"
	"github.com/any-hub/img-edge/internal/identity"
	"github.com/any-hub/img-edge/internal/logging"
	"github.com/any-hub/img-edge/internal/metrics"
	"github.com/any-hub/img-edge/internal/transform"
)

// Options 控制渲染并发、解码像素预算与观测组件。
// MaxPixels 为 0 时取 DefaultMaxDimension 的平方。
type Options struct {
	MaxConcurrent int
	MaxPixels     int64
	Logger        *logrus.Logger
	Metrics       *metrics.Recorder
}

// Executor 将变换链应用到原图并写入衍生图缓存。
type Executor struct {
	store   cache.Store
	group   singleflight.Group
	slots     *semaphore.Weighted
	maxPixels int64
	logger    *logrus.Logger
	metrics   *metrics.Recorder
}

// New 构建渲染器；MaxConcurrent 为 0 时按 CPU 数量限制。
func New(store cache.Store, opts Options) *Executor {
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = runtime.NumCPU()
	}
	if opts.MaxPixels <= 0 {
		opts.MaxPixels = int64(transform.DefaultMaxDimension) * int64(transform.DefaultMaxDimension)
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	return &Executor{
		store:     store,
		slots:     semaphore.NewWeighted(int64(opts.MaxConcurrent)),
		maxPixels: opts.MaxPixels,
		logger:    opts.Logger,
		metrics:   opts.Metrics,
	}
}

// Apply 返回应当响应给客户端的条目：空变换链直接返回原图，不产生任何文件。
func (e *Executor) Apply(ctx context.Context, original *cache.Entry, spec transform.Spec, keys identity.Keys) (*cache.Entry, error) {
	if spec.Empty() {
		return original, nil
	}

	flight := e.group.DoChan(keys.DerivativeKey(), func() (interface{}, error) {
		return e.render(context.WithoutCancel(ctx), original, spec, keys)
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

func (e *Executor) render(ctx context.Context, original *cache.Entry, spec transform.Spec, keys identity.Keys) (*cache.Entry, error) {
	locator := cache.DerivativeLocator(keys)

	entry, err := e.store.Stat(ctx, locator)
	switch {
	case err == nil:
		return entry, nil
	case !errors.Is(err, cache.ErrNotFound):
		return nil, withKey(cdnerr.FilesystemFailure(err, "check cached derivative before render"), keys)
	}

	if err := e.slots.Acquire(ctx, 1); err != nil {
		return nil, withKey(cdnerr.TransformFailure(err, "wait for render slot"), keys)
	}
	defer e.slots.Release(1)

	start := time.Now()
	log := e.logger.WithFields(logging.KeyFields("transform", keys.DerivativeKey())).WithField("spec", spec.String())

	entry, err = e.produce(ctx, original, spec, locator)
	elapsed := time.Since(start)
	if err != nil {
		err = withKey(err, keys)
		e.metrics.ObserveTransform("error", elapsed)
		fields := logging.ErrorFields(err)
		fields["elapsed_ms"] = elapsed.Milliseconds()
		if cdnerr.Is(err, cdnerr.KindFilesystemFailure) {
			log.WithFields(fields).Error("transform failed")
		} else {
			log.WithFields(fields).Warn("transform failed")
		}
		return nil, err
	}

	e.metrics.ObserveTransform("ok", elapsed)
	log.WithFields(logrus.Fields{
		"elapsed_ms": elapsed.Milliseconds(),
		"size":       entry.SizeBytes,
	}).Info("derivative rendered")
	return entry, nil
}

func (e *Executor) produce(ctx context.Context, original *cache.Entry, spec transform.Spec, locator cache.Locator) (*cache.Entry, error) {
	format, err := formatFor(locator.Key)
	if err != nil {
		return nil, cdnerr.TransformFailure(err, "select encoder")
	}

	img, err := e.decode(original)
	if err != nil {
		return nil, err
	}

	out, err := spec.Apply(img)
	if err != nil {
		return nil, cdnerr.TransformFailure(err, "apply %s", spec)
	}

	pr, pw := io.Pipe()
	go func() {
		pw.CloseWithError(encode(pw, out, format, spec))
	}()
	entry, err := e.store.Put(ctx, locator, pr, cache.PutOptions{})
	pr.Close()
	if err != nil {
		var srcErr *cache.SourceError
		if errors.As(err, &srcErr) {
			return nil, cdnerr.TransformFailure(err, "encode derivative")
		}
		if errors.Is(err, cache.ErrPathConflict) {
			return nil, cdnerr.NotFound("derivative %s is not addressable on this node: %v", locator, err)
		}
		return nil, cdnerr.FilesystemFailure(err, "write derivative %s", locator)
	}
	return entry, nil
}

// decode 先读取图像头部检查像素预算，通过后再完整解码。
func (e *Executor) decode(original *cache.Entry) (image.Image, error) {
	f, err := os.Open(original.FilePath)
	if err != nil {
		return nil, cdnerr.FilesystemFailure(err, "open original %s", original.Locator)
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return nil, cdnerr.TransformFailure(err, "decode original header %s", original.Locator)
	}
	if pixels := int64(cfg.Width) * int64(cfg.Height); pixels > e.maxPixels {
		return nil, cdnerr.With(
			cdnerr.TransformFailure(nil, "original %s is %dx%d, above the %d pixel budget", original.Locator, cfg.Width, cfg.Height, e.maxPixels),
			"pixels", pixels)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, cdnerr.FilesystemFailure(err, "rewind original %s", original.Locator)
	}

	img, err := imaging.Decode(f, imaging.AutoOrientation(true))
	if err != nil {
		return nil, cdnerr.TransformFailure(err, "decode original %s", original.Locator)
	}
	return img, nil
}

func withKey(err error, keys identity.Keys) error {
	return cdnerr.With(cdnerr.With(err, "tenant", keys.Tenant), "key", keys.DerivativeKey())
}
