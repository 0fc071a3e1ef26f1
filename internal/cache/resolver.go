package cache

import (
	"context"
	"errors"

	"github.com/any-hub/img-edge/internal/cdnerr"
	"github.com/any-hub/img-edge/internal/identity"
)

// ResolutionKind 描述缓存探测的三种结果。
type ResolutionKind int

const (
	// Miss 表示衍生图与原图均不在本地。
	Miss ResolutionKind = iota
	// OriginalHit 表示原图已缓存，仍需执行变换。
	OriginalHit
	// DerivativeHit 表示可直接返回的文件已就绪（空变换链时即原图）。
	DerivativeHit
)

func (k ResolutionKind) String() string {
	switch k {
	case DerivativeHit:
		return "derivative_hit"
	case OriginalHit:
		return "original_hit"
	default:
		return "miss"
	}
}

// Resolution 为 Resolve 的结果；Miss 时 Entry 为 nil。
type Resolution struct {
	Kind  ResolutionKind
	Entry *Entry
}

// OriginalLocator 返回原图在缓存中的位置。
func OriginalLocator(keys identity.Keys) Locator {
	return Locator{Tenant: keys.Tenant, Key: keys.Original}
}

// DerivativeLocator 返回衍生图在缓存中的位置。
func DerivativeLocator(keys identity.Keys) Locator {
	return Locator{Tenant: keys.Tenant, Key: keys.Derivative}
}

// Resolve 先探测衍生图，再探测原图；不存在视为下一层，其他读取错误归类为 FilesystemFailure。
func Resolve(ctx context.Context, store Store, keys identity.Keys) (Resolution, error) {
	entry, err := lookup(ctx, store, DerivativeLocator(keys))
	if err != nil {
		return Resolution{}, err
	}
	if entry != nil {
		return Resolution{Kind: DerivativeHit, Entry: entry}, nil
	}
	if !keys.Transformed() {
		return Resolution{Kind: Miss}, nil
	}

	entry, err = lookup(ctx, store, OriginalLocator(keys))
	if err != nil {
		return Resolution{}, err
	}
	if entry != nil {
		return Resolution{Kind: OriginalHit, Entry: entry}, nil
	}
	return Resolution{Kind: Miss}, nil
}

func lookup(ctx context.Context, store Store, locator Locator) (*Entry, error) {
	entry, err := store.Stat(ctx, locator)
	switch {
	case err == nil:
		return entry, nil
	case errors.Is(err, ErrNotFound):
		return nil, nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return nil, err
	default:
		return nil, cdnerr.With(cdnerr.FilesystemFailure(err, "look up cache entry %s", locator), "key", locator.String())
	}
}
