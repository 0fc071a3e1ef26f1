package routes

import (
	"sort"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"

	"github.com/any-hub/img-edge/internal/config"
	"github.com/any-hub/img-edge/internal/metrics"
	"github.com/any-hub/img-edge/internal/transform"
	"github.com/any-hub/img-edge/internal/version"
)

// Diagnostics 汇总诊断接口依赖的只读组件。
type Diagnostics struct {
	Origin  config.OriginConfig
	Parser  *transform.Parser
	Metrics *metrics.Recorder
}

// RegisterDiagnosticsRoutes 暴露 /-/ 下的诊断接口，供 SRE 查询变换注册表、源站与指标。
func RegisterDiagnosticsRoutes(app *fiber.App, diag Diagnostics) {
	if app == nil {
		return
	}

	app.Get("/-/healthz", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"version": version.Full(),
		})
	})

	app.Get("/-/operations", func(c fiber.Ctx) error {
		payload := fiber.Map{
			"operations": encodeOperations(transform.List()),
			"effects":    transform.Effects(),
		}
		if diag.Parser != nil {
			payload["max_dimension"] = diag.Parser.MaxDimension()
			payload["cached_specs"] = diag.Parser.Cached()
		}
		return c.JSON(payload)
	})

	app.Get("/-/operations/:key", func(c fiber.Ctx) error {
		key := strings.ToLower(strings.TrimSpace(c.Params("key")))
		if key == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "operation_key_required"})
		}
		meta, ok := transform.Resolve(key)
		if !ok {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "operation_not_found"})
		}
		return c.JSON(encodeOperation(meta))
	})

	app.Get("/-/origin", func(c fiber.Ctx) error {
		return c.JSON(originPayload{
			Type:        diag.Origin.Type,
			Target:      diag.Origin.Describe(),
			Credentials: diag.Origin.AuthMode(),
		})
	})

	if diag.Metrics != nil {
		app.Get("/-/metrics", adaptor.HTTPHandler(diag.Metrics.Handler()))
	}
}

type operationPayload struct {
	Key         string   `json:"key"`
	Description string   `json:"description"`
	Params      []string `json:"params"`
	Idempotent  bool     `json:"idempotent"`
}

type originPayload struct {
	Type        string `json:"type"`
	Target      string `json:"target"`
	Credentials string `json:"credentials"`
}

func encodeOperations(ops []transform.OperationMetadata) []operationPayload {
	if len(ops) == 0 {
		return nil
	}
	sort.Slice(ops, func(i, j int) bool {
		return ops[i].Key < ops[j].Key
	})
	result := make([]operationPayload, 0, len(ops))
	for _, meta := range ops {
		result = append(result, encodeOperation(meta))
	}
	return result
}

func encodeOperation(meta transform.OperationMetadata) operationPayload {
	return operationPayload{
		Key:         meta.Key,
		Description: meta.Description,
		Params:      append([]string(nil), meta.Params...),
		Idempotent:  meta.Idempotent,
	}
}
