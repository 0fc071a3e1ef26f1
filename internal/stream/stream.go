package stream

import (
	"errors"
	"os"
	"syscall"

	"github.com/gofiber/fiber/v3"

	"github.com/any-hub/img-edge/internal/cache"
	"github.com/any-hub/img-edge/internal/cdnerr"
)

// HeaderCache 标记本次响应的缓存结果（hit / derived / miss）。
const HeaderCache = "X-Img-Edge-Cache"

// Send 打开缓存文件并以文件流形式写回响应体；文件由 fasthttp 在发送完毕后关闭。
func Send(c fiber.Ctx, entry *cache.Entry, mime, cacheStatus string) error {
	if entry == nil {
		return cdnerr.FilesystemFailure(nil, "no cache entry to stream")
	}
	f, err := os.Open(entry.FilePath)
	if err != nil {
		return cdnerr.With(cdnerr.FilesystemFailure(err, "open cached file"), "key", entry.Locator.String())
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return cdnerr.With(cdnerr.FilesystemFailure(err, "stat cached file"), "key", entry.Locator.String())
	}
	if !info.Mode().IsRegular() {
		_ = f.Close()
		return cdnerr.With(cdnerr.FilesystemFailure(nil, "cached entry is not a regular file"), "key", entry.Locator.String())
	}

	size := info.Size()
	c.Status(fiber.StatusOK)
	c.Set(fiber.HeaderContentType, mime)
	if cacheStatus != "" {
		c.Set(HeaderCache, cacheStatus)
	}
	c.Response().SetBodyStream(f, int(size))
	return nil
}

// IsClientGone 判断写响应时的错误是否源于客户端提前断开。
func IsClientGone(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, syscall.EPIPE) || errors.Is(err, syscall.ECONNRESET)
}
