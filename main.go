package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/tbx126/console/internal/config"
	"github.com/tbx126/console/internal/gamecache"
	"github.com/tbx126/console/internal/gaming"
	"github.com/tbx126/console/internal/library"
	"github.com/tbx126/console/internal/logging"
	"github.com/tbx126/console/internal/server"
	"github.com/tbx126/console/internal/server/routes"
	"github.com/tbx126/console/internal/steam"
	"github.com/tbx126/console/internal/version"
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
		fields["steam_auth"] = cfg.Steam.AuthMode()
		fields["result"] = "ok"
		logger.WithFields(fields).Info("配置校验通过")
		return 0
	}

	// 启动遵循“配置 → 存储 → 客户端 → 服务 → Fiber server”顺序，
	// 所有请求共享同一份缓存实例与 http.Client。
	cacheStore, err := gamecache.NewStore(cfg.Global.CachePath, gamecache.TTLConfig{
		Details:      cfg.Cache.Details.DurationValue(),
		Achievements: cfg.Cache.Achievements.DurationValue(),
		News:         cfg.Cache.News.DurationValue(),
	}, logger)
	if err != nil {
		fmt.Fprintf(stdErr, "初始化缓存目录失败: %v\n", err)
		return 1
	}

	libraryStore, err := library.NewStore(cfg.Global.DataPath, cfg.Global.MaxDataBackups, logger)
	if err != nil {
		fmt.Fprintf(stdErr, "初始化数据目录失败: %v\n", err)
		return 1
	}

	httpClient := server.NewUpstreamClient(cfg)
	steamClient := steam.NewClient(steam.Options{
		APIKey:    cfg.Steam.APIKey,
		SteamID:   cfg.Steam.SteamID,
		APIBase:   cfg.Steam.APIBase,
		StoreBase: cfg.Steam.StoreBase,
		Client:    httpClient,
		Logger:    logger,
	})

	downloader := gamecache.NewDownloader(httpClient, logger)
	mediaCacher := gamecache.NewMediaCacher(cacheStore, downloader, logger)

	gamingService := gaming.NewService(gaming.ServiceOptions{
		Steam:   steamClient,
		Cache:   cacheStore,
		Media:   mediaCacher,
		Library: libraryStore,
		Logger:  logger,
	})
	syncer := gaming.NewSyncer(gamingService, cfg.Global.SyncDelay.DurationValue(), logger)

	fields := logging.BaseFields("startup", opts.configPath)
	fields["listen_port"] = cfg.Global.ListenPort
	fields["cache_path"] = cfg.Global.CachePath
	fields["steam_auth"] = cfg.Steam.AuthMode()
	fields["version"] = version.Full()
	logger.WithFields(fields).Info("配置加载完成")

	if err := startHTTPServer(cfg, gamingService, syncer, logger); err != nil {
		fmt.Fprintf(stdErr, "HTTP 服务启动失败: %v\n", err)
		return 1
	}
	return 0
}

// parseCLIFlags 解析 CLI 参数，并结合环境变量计算最终的配置路径。
func parseCLIFlags(args []string) (cliOptions, error) {
	fs := flag.NewFlagSet("console", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		configFlag string
		checkOnly  bool
		showVer    bool
	)

	fs.StringVar(&configFlag, "config", "", "配置文件路径（默认 ./config.toml，可被 CONSOLE_CONFIG 覆盖）")
	fs.BoolVar(&checkOnly, "check-config", false, "仅校验配置后退出")
	fs.BoolVar(&showVer, "version", false, "显示版本信息")

	if err := fs.Parse(args); err != nil {
		return cliOptions{}, fmt.Errorf("解析参数失败: %w", err)
	}

	path := os.Getenv("CONSOLE_CONFIG")
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

func startHTTPServer(cfg *config.Config, service *gaming.Service, syncer *gaming.Syncer, logger *logrus.Logger) error {
	app, err := server.NewApp(server.AppOptions{
		Logger:    logger,
		MediaRoot: cfg.Global.CachePath,
	})
	if err != nil {
		return err
	}
	routes.RegisterGamingRoutes(app, routes.GamingDeps{
		Logger:  logger,
		Service: service,
		Syncer:  syncer,
	})

	logger.WithFields(logrus.Fields{
		"action": "listen",
		"port":   cfg.Global.ListenPort,
	}).Info("Fiber 服务启动")

	return app.Listen(fmt.Sprintf(":%d", cfg.Global.ListenPort))
}
