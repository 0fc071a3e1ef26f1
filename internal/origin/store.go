package origin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/any-hub/img-edge/internal/config"
)

// ErrNotFound 表示源站明确答复对象不存在。
var ErrNotFound = errors.New("origin object not found")

// Store 是源站的只读接口，key 形如 tenant/originPath。
type Store interface {
	Get(ctx context.Context, key string) (*Object, error)
	Kind() string
}

// Object 为一次源站读取结果；Size 未知时为 -1，调用方负责关闭 Body。
type Object struct {
	Body    io.ReadCloser
	Size    int64
	ModTime time.Time
}

// New 按 Origin.Type 构建后端，http 后端复用传入的 client。
func New(cfg config.OriginConfig, client *http.Client) (Store, error) {
	switch strings.ToLower(cfg.Type) {
	case config.OriginHTTP:
		return NewHTTP(cfg.BaseURL, client)
	case config.OriginS3:
		return NewS3(cfg)
	case config.OriginMinIO:
		return NewMinIO(cfg)
	case config.OriginDisk:
		return NewDisk(cfg.Path)
	default:
		return nil, fmt.Errorf("unsupported origin type %q", cfg.Type)
	}
}

// objectKey 拼接可选前缀与对象键，统一使用正斜杠。
func objectKey(prefix, key string) string {
	key = strings.TrimLeft(key, "/")
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return key
	}
	return prefix + "/" + key
}
