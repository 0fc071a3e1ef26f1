package stream

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http/httptest"
	"os"
	"syscall"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/any-hub/img-edge/internal/cache"
	"github.com/any-hub/img-edge/internal/cdnerr"
)

func newStreamApp(entry *cache.Entry, mime, status string) *fiber.App {
	app := fiber.New()
	app.Get("/*", func(c fiber.Ctx) error {
		if err := Send(c, entry, mime, status); err != nil {
			return c.Status(cdnerr.Status(err)).JSON(cdnerr.Response(err))
		}
		return nil
	})
	return app
}

func TestSendStreamsFileWithExactLength(t *testing.T) {
	store, err := cache.NewStore(t.TempDir())
	require.NoError(t, err)
	payload := bytes.Repeat([]byte("0123456789"), 10_000)
	entry, err := store.Put(context.Background(), cache.Locator{Tenant: "nike", Key: "jordan12.png"}, bytes.NewReader(payload), cache.PutOptions{})
	require.NoError(t, err)

	app := newStreamApp(entry, "image/png", "hit")
	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "http://nike.cdn.example.com/jordan12.png", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get(fiber.HeaderContentType))
	assert.Equal(t, fmt.Sprint(len(payload)), resp.Header.Get(fiber.HeaderContentLength))
	assert.Equal(t, "hit", resp.Header.Get(HeaderCache))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, payload, body)
}

func TestSendMissingFileIsFilesystemFailure(t *testing.T) {
	entry := &cache.Entry{
		Locator:  cache.Locator{Tenant: "nike", Key: "gone.jpg"},
		FilePath: t.TempDir() + "/gone.jpg",
	}
	app := newStreamApp(entry, "image/jpeg", "hit")
	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "http://nike.cdn.example.com/gone.jpg", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	assert.Empty(t, resp.Header.Get(HeaderCache))
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), `"INTERNAL_ERROR"`)
}

func TestSendRejectsDirectory(t *testing.T) {
	dir := t.TempDir()
	entry := &cache.Entry{Locator: cache.Locator{Tenant: "nike", Key: "dir.jpg"}, FilePath: dir}
	app := newStreamApp(entry, "image/jpeg", "hit")
	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "http://nike.cdn.example.com/dir.jpg", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
}

func TestIsClientGone(t *testing.T) {
	assert.True(t, IsClientGone(syscall.EPIPE))
	assert.True(t, IsClientGone(&os.SyscallError{Syscall: "write", Err: syscall.ECONNRESET}))
	assert.True(t, IsClientGone(fmt.Errorf("flush: %w", syscall.EPIPE)))
	assert.False(t, IsClientGone(nil))
	assert.False(t, IsClientGone(io.ErrUnexpectedEOF))
}
