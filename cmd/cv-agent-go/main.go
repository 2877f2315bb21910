package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudwego/hertz/pkg/app/server"
	hertzconfig "github.com/cloudwego/hertz/pkg/common/config"
	glog "github.com/cloudwego/hertz/pkg/common/hlog"
	hertzadapter "github.com/hertz-contrib/logger/zerolog"
	hertztracing "github.com/hertz-contrib/obs-opentelemetry/tracing"
	"github.com/spf13/pflag"

	"cv-agent-go/internal/agent"
	"cv-agent-go/internal/api/handler"
	"cv-agent-go/internal/api/router"
	"cv-agent-go/internal/config"
	appLogger "cv-agent-go/internal/logger"
	"cv-agent-go/internal/parser"
	"cv-agent-go/internal/storage"
	"cv-agent-go/internal/tracing"
)

const serviceName = "cv-agent-go"

func main() {
	var configPath string
	pflag.StringVarP(&configPath, "config", "c", "", "Path to config file")
	pflag.Parse()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	initLogger(cfg)
	glog.Info("配置加载成功")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Tracing.Enabled {
		shutdownTracing, err := tracing.InitTracerProvider(ctx, serviceName, cfg.Tracing.Endpoint)
		if err != nil {
			glog.Fatalf("初始化链路追踪失败: %v", err)
		}
		defer func() {
			shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancelShutdown()
			if err := shutdownTracing(shutdownCtx); err != nil {
				glog.Warnf("关闭链路追踪失败: %v", err)
			}
		}()
		glog.Info("链路追踪初始化成功")
	}

	storageManager, err := storage.NewStorage(ctx, cfg)
	if err != nil {
		glog.Fatalf("初始化存储失败: %v", err)
	}
	defer storageManager.Close()
	glog.Info("存储服务初始化成功")

	llmModel, err := agent.NewAliyunQwenChatModel(cfg.Aliyun.APIKey, cfg.Aliyun.Model, cfg.Aliyun.APIURL)
	if err != nil {
		glog.Fatalf("初始化LLM客户端失败: %v", err)
	}

	// 调试模式下让解析组件打印内部日志
	var parserLogger *log.Logger
	if cfg.Logger.Level == "debug" {
		parserLogger = log.New(os.Stderr, "[ParserMain] ", log.LstdFlags|log.Lshortfile)
	} else {
		parserLogger = log.New(io.Discard, "", 0)
	}

	pdfExtractor, err := parser.NewEinoPDFTextExtractor(ctx, parser.WithEinoLogger(parserLogger))
	if err != nil {
		glog.Fatalf("创建PDF提取器失败: %v", err)
	}

	ocrExtractor := parser.NewOCRPDFExtractor(
		parser.WithOCRLanguage(cfg.OCR.Language),
		parser.WithOCRDPI(cfg.OCR.DPI),
		parser.WithOCRMedianSize(cfg.OCR.MedianSize),
		parser.WithOCRLogger(parserLogger),
	)

	wordExtractor := parser.NewWordTextExtractor(parserLogger)

	textExtractor := parser.NewCVTextExtractor(pdfExtractor, ocrExtractor, wordExtractor, parserLogger)
	glog.Info("文本提取器初始化成功")

	cvExtractor := parser.NewLLMCVExtractor(llmModel,
		parser.WithMaxAttempts(cfg.LLMParser.MaxAttempts),
		parser.WithCallTimeout(cfg.LLMParser.ExtractionTimeoutDuration()),
		parser.WithExtractorLogger(parserLogger),
	)
	glog.Info("LLM结构化抽取器初始化成功")

	var chatMemory agent.ChatMemory
	if storageManager.Redis != nil {
		chatMemory, err = agent.NewRedisChatMemory(storageManager.Redis.Client, cfg.Redis.SessionTTL())
		if err != nil {
			glog.Fatalf("初始化Redis会话存储失败: %v", err)
		}
		glog.Info("会话历史使用Redis存储")
	} else {
		chatMemory = agent.NewInMemoryChatMemory()
		glog.Warn("Redis未配置，会话历史仅保存在内存中")
	}

	chatAgent, err := agent.NewCVChatAgent(llmModel, chatMemory, storageManager.MySQL)
	if err != nil {
		glog.Fatalf("初始化聊天代理失败: %v", err)
	}
	glog.Info("聊天代理初始化成功")

	var archiver handler.ObjectArchiver
	if storageManager.MinIO != nil {
		archiver = storageManager.MinIO
	}
	var publisher handler.EventPublisher
	if storageManager.RabbitMQ != nil {
		publisher = storageManager.RabbitMQ
	}

	cvHandler := handler.NewCVHandler(cfg, textExtractor, cvExtractor,
		storageManager.MySQL, storageManager.Local, archiver, publisher, chatAgent)
	glog.Info("CVHandler初始化成功")

	serverOpts := []hertzconfig.Option{
		server.WithHostPorts(cfg.Server.Address),
		server.WithHandleMethodNotAllowed(true),
	}
	var tracerCfg *hertztracing.Config
	if cfg.Tracing.Enabled {
		tracer, tCfg := hertztracing.NewServerTracer()
		tracerCfg = tCfg
		serverOpts = append(serverOpts, tracer)
	}

	h := server.New(serverOpts...)
	if tracerCfg != nil {
		h.Use(hertztracing.ServerMiddleware(tracerCfg))
	}

	router.RegisterRoutes(h, cfg, cvHandler)
	glog.Info("HTTP路由注册成功")

	glog.Infof("HTTP 服务器启动中，监听地址: %s", cfg.Server.Address)
	go func() {
		if err := h.Run(); err != nil {
			glog.Fatalf("启动HTTP服务器失败: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	glog.Info("接收到终止信号，正在优雅退出...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := h.Shutdown(shutdownCtx); err != nil {
		glog.Fatalf("服务器关闭失败: %v", err)
	}
	glog.Info("优雅退出完成")
}

// initLogger 初始化zerolog并把Hertz的日志接到同一个输出上
func initLogger(cfg *config.Config) {
	appLogger.Init(appLogger.Config{
		Level:        cfg.Logger.Level,
		Format:       cfg.Logger.Format,
		TimeFormat:   cfg.Logger.TimeFormat,
		ReportCaller: cfg.Logger.ReportCaller,
	})

	glog.SetLogger(hertzadapter.From(appLogger.Logger))
	switch cfg.Logger.Level {
	case "debug":
		glog.SetLevel(glog.LevelDebug)
	case "warn":
		glog.SetLevel(glog.LevelWarn)
	case "error":
		glog.SetLevel(glog.LevelError)
	default:
		glog.SetLevel(glog.LevelInfo)
	}
}
