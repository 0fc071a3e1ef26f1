package edge

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/any-hub/img-edge/internal/cache"
	"github.com/any-hub/img-edge/internal/cdnerr"
	"github.com/any-hub/img-edge/internal/identity"
	"github.com/any-hub/img-edge/internal/transform"
)

// 响应头 X-Img-Edge-Cache 的取值。
const (
	CacheHit     = "hit"
	CacheDerived = "derived"
	CacheMiss    = "miss"
)

// SpecParser 将查询串解析为变换链，通常是带缓存的 transform.Parser。
type SpecParser interface {
	Parse(rawQuery string) (transform.Spec, error)
}

// OriginPuller 保证原图落盘。
type OriginPuller interface {
	EnsureOriginal(ctx context.Context, keys identity.Keys) (*cache.Entry, error)
}

// Renderer 基于原图生成衍生图。
type Renderer interface {
	Apply(ctx context.Context, original *cache.Entry, spec transform.Spec, keys identity.Keys) (*cache.Entry, error)
}

// Outcome 是一次成功解析的结果：待发送的文件、MIME 以及缓存状态。
type Outcome struct {
	Identity    identity.Identity
	Keys        identity.Keys
	Spec        transform.Spec
	Resolution  cache.ResolutionKind
	Entry       *cache.Entry
	MIME        string
	CacheStatus string
}

// Pipeline 持有解析请求所需的全部协作者，均由构造函数注入。
type Pipeline struct {
	parser SpecParser
	store  cache.Store
	puller OriginPuller
	render Renderer
	logger *logrus.Logger
}

// NewPipeline 构建请求流水线。
func NewPipeline(parser SpecParser, store cache.Store, puller OriginPuller, render Renderer, logger *logrus.Logger) (*Pipeline, error) {
	switch {
	case parser == nil:
		return nil, errors.New("spec parser is required")
	case store == nil:
		return nil, errors.New("cache store is required")
	case puller == nil:
		return nil, errors.New("origin puller is required")
	case render == nil:
		return nil, errors.New("renderer is required")
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Pipeline{
		parser: parser,
		store:  store,
		puller: puller,
		render: render,
		logger: logger,
	}, nil
}

// Resolve 按 身份 → 变换链 → 缓存键 → 三级缓存 的顺序解析请求，并补齐缺失的原图或衍生图。
// 任何校验失败都发生在触碰磁盘之前。
func (p *Pipeline) Resolve(ctx context.Context, host, requestPath, rawQuery string) (Outcome, error) {
	id, err := identity.Resolve(host, requestPath, rawQuery)
	if err != nil {
		return Outcome{}, err
	}
	spec, err := p.parser.Parse(rawQuery)
	if err != nil {
		return Outcome{}, cdnerr.With(cdnerr.With(err, "tenant", id.Tenant), "path", id.OriginPath)
	}
	keys := identity.DeriveKeys(id, spec.Canonical())

	out := Outcome{
		Identity: id,
		Keys:     keys,
		Spec:     spec,
		MIME:     id.MIMEType(),
	}

	res, err := cache.Resolve(ctx, p.store, keys)
	if err != nil {
		return Outcome{}, err
	}
	out.Resolution = res.Kind

	switch res.Kind {
	case cache.DerivativeHit:
		out.Entry = res.Entry
		out.CacheStatus = CacheHit
	case cache.OriginalHit:
		entry, err := p.render.Apply(ctx, res.Entry, spec, keys)
		if err != nil {
			return Outcome{}, err
		}
		out.Entry = entry
		out.CacheStatus = CacheDerived
	default:
		original, err := p.puller.EnsureOriginal(ctx, keys)
		if err != nil {
			return Outcome{}, err
		}
		entry, err := p.render.Apply(ctx, original, spec, keys)
		if err != nil {
			return Outcome{}, err
		}
		out.Entry = entry
		out.CacheStatus = CacheMiss
	}

	p.logger.WithFields(logrus.Fields{
		"action":     "resolve",
		"tenant":     id.Tenant,
		"key":        keys.DerivativeKey(),
		"resolution": res.Kind.String(),
		"spec":       spec.String(),
	}).Debug("request resolved")
	return out, nil
}
