package server

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/any-hub/img-edge/internal/cdnerr"
	"github.com/any-hub/img-edge/internal/metrics"
)

// ImageHandler 处理一次图片请求；测试中可注入假实现。
type ImageHandler interface {
	Handle(fiber.Ctx) error
}

// ImageHandlerFunc 将函数适配为 ImageHandler。
type ImageHandlerFunc func(fiber.Ctx) error

// Handle makes ImageHandlerFunc satisfy ImageHandler.
func (f ImageHandlerFunc) Handle(c fiber.Ctx) error {
	return f(c)
}

// AppOptions controls how the Fiber application should behave.
type AppOptions struct {
	Logger     *logrus.Logger
	Images     ImageHandler
	Metrics    *metrics.Recorder
	ListenPort int
}

const contextKeyRequestID = "_imgedge_request_id"

// NewApp builds a Fiber application with the request-ID middleware, the
// GET-only gate and structured JSON error handling.
func NewApp(opts AppOptions) (*fiber.App, error) {
	if opts.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if opts.Images == nil {
		return nil, errors.New("image handler is required")
	}
	if opts.ListenPort <= 0 {
		return nil, fmt.Errorf("invalid listen port: %d", opts.ListenPort)
	}

	app := fiber.New(fiber.Config{
		CaseSensitive: true,
		ErrorHandler:  errorHandler(opts.Logger),
	})

	app.Use(recover.New())
	app.Use(requestContextMiddleware())
	app.Use(methodGate(opts))

	app.All("/*", func(c fiber.Ctx) error {
		if isDiagnosticsPath(string(c.Request().URI().Path())) {
			return c.Next()
		}
		return opts.Images.Handle(c)
	})

	return app, nil
}

// requestContextMiddleware 为每个请求生成请求 ID 并写回响应头。
func requestContextMiddleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		reqID := uuid.NewString()
		c.Locals(contextKeyRequestID, reqID)
		c.Set("X-Request-ID", reqID)
		return c.Next()
	}
}

// methodGate 只放行 GET，HEAD 在内的其他方法一律 405。
func methodGate(opts AppOptions) fiber.Handler {
	return func(c fiber.Ctx) error {
		if c.Method() == fiber.MethodGet {
			return c.Next()
		}
		opts.Metrics.ObserveRequest(fiber.StatusMethodNotAllowed, "")
		opts.Logger.WithFields(logrus.Fields{
			"action":     "resolve",
			"method":     c.Method(),
			"path":       string(c.Request().URI().Path()),
			"request_id": RequestID(c),
		}).Info("method not allowed")

		c.Set(fiber.HeaderAllow, fiber.MethodGet)
		return c.Status(fiber.StatusMethodNotAllowed).JSON(fiber.Map{
			"code":           "METHOD_NOT_ALLOWED",
			"message":        fmt.Sprintf("method %s is not allowed", c.Method()),
			"classification": "PERMANENT",
		})
	}
}

// errorHandler 兜底处理 handler 返回的错误（包括 recover 捕获的 panic）。
func errorHandler(logger *logrus.Logger) fiber.ErrorHandler {
	return func(c fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(fiber.Map{
				"code":    "HTTP_ERROR",
				"message": fe.Message,
			})
		}
		logger.WithError(err).WithFields(logrus.Fields{
			"action":     "resolve",
			"request_id": RequestID(c),
		}).Error("unhandled error")
		return c.Status(cdnerr.Status(err)).JSON(cdnerr.Response(err))
	}
}

// HostHeader 返回原始 Host 头，缺失时退回 fiber 解析出的主机名。
func HostHeader(c fiber.Ctx) string {
	if raw := c.Request().Header.Peek(fiber.HeaderHost); len(raw) > 0 {
		return string(raw)
	}
	return c.Hostname()
}

// RequestID returns the request identifier stored by the router middleware.
func RequestID(c fiber.Ctx) string {
	if value := c.Locals(contextKeyRequestID); value != nil {
		if reqID, ok := value.(string); ok {
			return reqID
		}
	}
	return ""
}

func isDiagnosticsPath(path string) bool {
	return strings.HasPrefix(path, "/-/")
}
