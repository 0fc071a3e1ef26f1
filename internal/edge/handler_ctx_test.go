package edge

import (
	"bytes"
	"context"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"
	"github.com/valyala/fasthttp"

	"github.com/any-hub/img-edge/internal/origin"
	"github.com/any-hub/img-edge/internal/pull"
	"github.com/any-hub/img-edge/internal/stream"
	"github.com/any-hub/img-edge/internal/transform"
)

const requestIDKey = "_imgedge_request_id"

func acquire(t *testing.T, app *fiber.App, host, uri, reqID string) fiber.Ctx {
	t.Helper()
	rc := new(fasthttp.RequestCtx)
	rc.Init(new(fasthttp.Request), nil, nil)
	rc.Request.Header.SetMethod(fiber.MethodGet)
	rc.Request.SetRequestURI(uri)
	rc.Request.Header.SetHost(host)
	ctx := app.AcquireCtx(rc)
	ctx.Locals(requestIDKey, reqID)
	t.Cleanup(func() { app.ReleaseCtx(ctx) })
	return ctx
}

func TestHandleLogsRejectionWithRequestID(t *testing.T) {
	e := newEnv(t)
	logBuf := &bytes.Buffer{}
	e.logger.SetOutput(logBuf)
	e.logger.SetFormatter(&logrus.JSONFormatter{})

	app := fiber.New()
	defer app.Shutdown()
	ctx := acquire(t, app, "nike.cdn.example.com", "/jordan12.jpg?width=abc", "bad-req")

	handler := NewHandler(e.pipeline, e.logger, e.recorder)
	if err := handler.Handle(ctx); err != nil {
		t.Fatalf("Handle returned unexpected error: %v", err)
	}
	if status := ctx.Response().StatusCode(); status != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d", status)
	}
	if body := string(ctx.Response().Body()); !strings.Contains(body, "INVALID_INPUT") {
		t.Fatalf("expected INVALID_INPUT body, got %s", body)
	}
	logs := logBuf.String()
	if !strings.Contains(logs, "bad-req") || !strings.Contains(logs, `"error_param":"width"`) {
		t.Fatalf("expected log to carry request id and offending param, got %s", logs)
	}
}

func TestHandleStreamsFileBody(t *testing.T) {
	e := newEnv(t)
	payload := jpegBytes(t, 12, 12)
	writeFile(t, e.storage, "nike/jordan12.jpg", payload)

	app := fiber.New()
	defer app.Shutdown()
	ctx := acquire(t, app, "nike.cdn.example.com", "/jordan12.jpg", "ok-req")

	handler := NewHandler(e.pipeline, e.logger, e.recorder)
	if err := handler.Handle(ctx); err != nil {
		t.Fatalf("Handle returned unexpected error: %v", err)
	}
	resp := ctx.Response()
	if !resp.IsBodyStream() {
		t.Fatalf("expected body to be handed over as a stream")
	}
	if resp.Header.ContentLength() != len(payload) {
		t.Fatalf("expected content length %d, got %d", len(payload), resp.Header.ContentLength())
	}
	if got := string(resp.Header.Peek(stream.HeaderCache)); got != CacheHit {
		t.Fatalf("expected cache status hit, got %s", got)
	}
	if !bytes.Equal(resp.Body(), payload) {
		t.Fatalf("streamed body differs from cached file")
	}
}

// valueOrigin 记录拉取时上下文中携带的请求 ID。
type valueOrigin struct {
	origin.Store
	seen atomic.Value
}

func (v *valueOrigin) Get(ctx context.Context, key string) (*origin.Object, error) {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		v.seen.Store(id)
	}
	return v.Store.Get(ctx, key)
}

func TestHandlePassesRequestContextToPull(t *testing.T) {
	e := newEnv(t)
	writeFile(t, e.origin, "nike/jordan12.jpg", jpegBytes(t, 8, 8))

	disk, err := origin.NewDisk(e.origin)
	if err != nil {
		t.Fatalf("disk origin: %v", err)
	}
	src := &valueOrigin{Store: disk}
	puller := pull.New(e.store, src, pull.Options{Logger: e.logger})
	parser, err := transform.NewParser(0, 0)
	if err != nil {
		t.Fatalf("parser: %v", err)
	}
	pipeline, err := NewPipeline(parser, e.store, puller, e.renderer, e.logger)
	if err != nil {
		t.Fatalf("pipeline: %v", err)
	}

	app := fiber.New()
	defer app.Shutdown()
	ctx := acquire(t, app, "nike.cdn.example.com", "/jordan12.jpg", "ctx-req")
	if err := NewHandler(pipeline, e.logger, nil).Handle(ctx); err != nil {
		t.Fatalf("Handle returned unexpected error: %v", err)
	}
	if status := ctx.Response().StatusCode(); status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if got, _ := src.seen.Load().(string); got != "ctx-req" {
		t.Fatalf("expected origin pull to see the request context, got %q", got)
	}
}
