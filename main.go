package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"

	"github.com/any-hub/img-edge/internal/cache"
	"github.com/any-hub/img-edge/internal/config"
	"github.com/any-hub/img-edge/internal/edge"
	"github.com/any-hub/img-edge/internal/logging"
	"github.com/any-hub/img-edge/internal/metrics"
	"github.com/any-hub/img-edge/internal/origin"
	"github.com/any-hub/img-edge/internal/pull"
	"github.com/any-hub/img-edge/internal/render"
	"github.com/any-hub/img-edge/internal/server"
	"github.com/any-hub/img-edge/internal/server/routes"
	"github.com/any-hub/img-edge/internal/transform"
	"github.com/any-hub/img-edge/internal/version"
)

// cliOptions 汇总 CLI 标志解析后的结果，便于在测试中注入。
type cliOptions struct {
	configPath  string
	checkOnly   bool
	showVersion bool
}

var (
	stdOut io.Writer = os.Stdout
	stdErr io.Writer = os.Stderr
)

func main() {
	opts, err := parseCLIFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(stdErr, err.Error())
		os.Exit(2)
	}
	os.Exit(run(opts))
}

// run 根据解析到的 CLI 选项执行业务流程，并返回退出码，方便测试。
func run(opts cliOptions) int {
	if opts.showVersion {
		printVersion()
		return 0
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(stdErr, "加载配置失败: %v\n", err)
		return 1
	}

	logger, err := logging.InitLogger(cfg.Global)
	if err != nil {
		fmt.Fprintf(stdErr, "初始化日志失败: %v\n", err)
		return 1
	}

	if opts.checkOnly {
		fields := logging.BaseFields("check_config", opts.configPath)
		fields["origin"] = cfg.Origin.Describe()
		fields["credentials"] = cfg.Origin.AuthMode()
		fields["result"] = "ok"
		logger.WithFields(fields).Info("配置校验通过")
		return 0
	}

	// 启动顺序：配置 → 磁盘缓存 → 源站 → 拉取/变换 → Fiber server，
	// 所有请求共享同一组缓存、single-flight 与并发上限。
	app, err := buildApp(cfg, logger)
	if err != nil {
		fmt.Fprintf(stdErr, "初始化服务失败: %v\n", err)
		return 1
	}

	limits := cfg.RuntimeLimits()
	fields := logging.BaseFields("startup", opts.configPath)
	fields["listen_port"] = cfg.Global.ListenPort
	fields["storage_path"] = cfg.Global.StoragePath
	fields["origin"] = cfg.Origin.Describe()
	fields["credentials"] = cfg.Origin.AuthMode()
	fields["max_concurrent_pulls"] = limits.MaxConcurrentPulls
	fields["max_concurrent_transforms"] = limits.MaxConcurrentTransforms
	fields["version"] = version.Full()
	logger.WithFields(fields).Info("配置加载完成")

	if err := startHTTPServer(app, cfg.Global.ListenPort, logger); err != nil {
		fmt.Fprintf(stdErr, "HTTP 服务启动失败: %v\n", err)
		return 1
	}
	return 0
}

// parseCLIFlags 解析 CLI 参数，并结合环境变量计算最终的配置路径。
func parseCLIFlags(args []string) (cliOptions, error) {
	fs := flag.NewFlagSet("img-edge", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		configFlag string
		checkOnly  bool
		showVer    bool
	)

	fs.StringVar(&configFlag, "config", "", "配置文件路径（默认 ./config.toml，可被 IMG_EDGE_CONFIG 覆盖）")
	fs.BoolVar(&checkOnly, "check-config", false, "仅校验配置后退出")
	fs.BoolVar(&showVer, "version", false, "显示版本信息")

	if err := fs.Parse(args); err != nil {
		return cliOptions{}, fmt.Errorf("解析参数失败: %w", err)
	}

	path := os.Getenv("IMG_EDGE_CONFIG")
	if configFlag != "" {
		path = configFlag
	}
	if path == "" {
		path = "config.toml"
	}

	return cliOptions{
		configPath:  path,
		checkOnly:   checkOnly,
		showVersion: showVer,
	}, nil
}

// buildApp 按配置装配缓存、源站、拉取协调器、变换执行器与诊断路由。
func buildApp(cfg *config.Config, logger *logrus.Logger) (*fiber.App, error) {
	limits := cfg.RuntimeLimits()

	store, err := cache.NewStore(cfg.Global.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("初始化缓存目录失败: %w", err)
	}

	src, err := origin.New(cfg.Origin, server.NewOriginClient(cfg))
	if err != nil {
		return nil, fmt.Errorf("初始化源站失败: %w", err)
	}

	recorder, err := metrics.NewRecorder()
	if err != nil {
		return nil, fmt.Errorf("初始化指标失败: %w", err)
	}

	parser, err := transform.NewParser(limits.MaxDimension, limits.SpecCacheSize)
	if err != nil {
		return nil, err
	}

	puller := pull.New(store, src, pull.Options{
		Timeout:       limits.OriginTimeout,
		MaxConcurrent: limits.MaxConcurrentPulls,
		Logger:        logger,
		Metrics:       recorder,
	})
	executor := render.New(store, render.Options{
		MaxConcurrent: limits.MaxConcurrentTransforms,
		MaxPixels:     int64(limits.MaxDimension) * int64(limits.MaxDimension),
		Logger:        logger,
		Metrics:       recorder,
	})

	pipeline, err := edge.NewPipeline(parser, store, puller, executor, logger)
	if err != nil {
		return nil, err
	}

	app, err := server.NewApp(server.AppOptions{
		Logger:     logger,
		Images:     edge.NewHandler(pipeline, logger, recorder),
		Metrics:    recorder,
		ListenPort: cfg.Global.ListenPort,
	})
	if err != nil {
		return nil, err
	}
	routes.RegisterDiagnosticsRoutes(app, routes.Diagnostics{
		Origin:  cfg.Origin,
		Parser:  parser,
		Metrics: recorder,
	})
	return app, nil
}

func startHTTPServer(app *fiber.App, port int, logger *logrus.Logger) error {
	logger.WithFields(logrus.Fields{
		"action": "listen",
		"port":   port,
	}).Info("Fiber 服务启动")

	return app.Listen(fmt.Sprintf(":%d", port))
}
