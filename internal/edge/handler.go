package edge

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"

	"github.com/any-hub/img-edge/internal/cdnerr"
	"github.com/any-hub/img-edge/internal/logging"
	"github.com/any-hub/img-edge/internal/metrics"
	"github.com/any-hub/img-edge/internal/server"
	"github.com/any-hub/img-edge/internal/stream"
)

// Handler 是图片请求的 fiber 入口：调用 Pipeline 解析，再把结果或错误翻译为 HTTP 响应。
type Handler struct {
	pipeline *Pipeline
	logger   *logrus.Logger
	metrics  *metrics.Recorder
}

// NewHandler 构建图片请求处理器，metrics 可为 nil。
func NewHandler(pipeline *Pipeline, logger *logrus.Logger, recorder *metrics.Recorder) *Handler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Handler{pipeline: pipeline, logger: logger, metrics: recorder}
}

// Handle 解析并发送图片；错误以 JSON 形式返回，状态码取自错误分类。
func (h *Handler) Handle(c fiber.Ctx) error {
	started := time.Now()
	// fasthttp 在服务关闭时取消 RequestCtx，等待中的请求随之返回，共享拉取继续完成
	ctx := c.RequestCtx()

	host := server.HostHeader(c)
	path := string(c.Request().URI().Path())
	rawQuery := string(c.Request().URI().QueryString())

	out, err := h.pipeline.Resolve(ctx, host, path, rawQuery)
	if err == nil {
		err = stream.Send(c, out.Entry, out.MIME, out.CacheStatus)
	}
	if err != nil {
		return h.fail(c, out, host, path, started, err)
	}

	h.metrics.ObserveRequest(fiber.StatusOK, out.CacheStatus)
	fields := logging.RequestFields(out.Identity.Tenant, out.Identity.OriginPath, out.CacheStatus)
	fields["action"] = "stream"
	fields["request_id"] = server.RequestID(c)
	fields["status"] = fiber.StatusOK
	fields["size"] = out.Entry.SizeBytes
	fields["elapsed_ms"] = time.Since(started).Milliseconds()
	h.logger.WithFields(fields).Info("image served")
	return nil
}

func (h *Handler) fail(c fiber.Ctx, out Outcome, host, path string, started time.Time, err error) error {
	status := cdnerr.Status(err)
	h.metrics.ObserveRequest(status, out.CacheStatus)

	fields := logging.ErrorFields(err)
	fields["action"] = "resolve"
	fields["host"] = host
	fields["path"] = path
	fields["request_id"] = server.RequestID(c)
	fields["status"] = status
	fields["elapsed_ms"] = time.Since(started).Milliseconds()
	entry := h.logger.WithFields(fields)
	switch {
	case errors.Is(err, context.Canceled), stream.IsClientGone(err):
		entry.Debug("client went away")
	case cdnerr.Is(err, cdnerr.KindFilesystemFailure):
		entry.Error("request failed")
	case status >= fiber.StatusInternalServerError:
		entry.Warn("request failed")
	default:
		entry.Info("request rejected")
	}

	return c.Status(status).JSON(cdnerr.Response(err))
}
