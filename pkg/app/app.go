// Package app 提供应用程序的初始化和配置功能.
package app

import (
	contextPkg "context"
	"fmt"
	"os"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/yeisme/bidvault/pkg/api"
	"github.com/yeisme/bidvault/pkg/cache"
	"github.com/yeisme/bidvault/pkg/configs"
	"github.com/yeisme/bidvault/pkg/context"
	"github.com/yeisme/bidvault/pkg/internal/archive"
	"github.com/yeisme/bidvault/pkg/internal/extract"
	"github.com/yeisme/bidvault/pkg/internal/finreport"
	"github.com/yeisme/bidvault/pkg/internal/images"
	"github.com/yeisme/bidvault/pkg/internal/jobs"
	"github.com/yeisme/bidvault/pkg/internal/model"
	"github.com/yeisme/bidvault/pkg/internal/pipeline"
	"github.com/yeisme/bidvault/pkg/internal/storage"
	s3c "github.com/yeisme/bidvault/pkg/internal/storage/s3"
	"github.com/yeisme/bidvault/pkg/log"
	"github.com/yeisme/bidvault/pkg/metrics"
	"github.com/yeisme/bidvault/pkg/middleware"
	"github.com/yeisme/bidvault/pkg/queue"
	"github.com/yeisme/bidvault/pkg/scheduler"
	"github.com/yeisme/bidvault/pkg/tracing"
)

type App struct {
	Engine *gin.Engine
	config *configs.AppConfig

	sched  *scheduler.Scheduler
	cancel contextPkg.CancelFunc
}

func NewApp(configPath string) *App {
	ctx, cancel := contextPkg.WithCancel(contextPkg.Background())
	engine := gin.New()

	// 初始化配置
	if err := configs.InitConfig(configPath); err != nil {
		fmt.Printf("Error initializing config: %v\n", err)
		os.Exit(1)
	}

	// 初始化追踪
	config := configs.GetConfig()
	if err := tracing.InitTracer(config.Tracing); err != nil {
		fmt.Printf("Error initializing tracing: %v\n", err)
		os.Exit(1)
	}

	// 初始化监控
	if err := metrics.InitMetrics(config.Metrics); err != nil {
		fmt.Printf("Error initializing metrics: %v\n", err)
		os.Exit(1)
	}

	manager, err := storage.Init(ctx)
	if err != nil {
		fmt.Printf("Error initializing storage: %v\n", err)
		os.Exit(1)
	}

	baseCtx := context.WithStorageManager(ctx, manager)

	db := manager.GetDBClient().GetDB()
	if err := db.AutoMigrate(
		&model.UploadedFile{},
		&model.Chapter{},
		&model.ExtractedImage{},
		&model.FinancialReportSegment{},
	); err != nil {
		fmt.Printf("Error migrating database: %v\n", err)
		os.Exit(1)
	}

	// 外部 OCR 服务客户端（带熔断）
	extract.InitOCR(config.OCR, config.CircuitBreaker)

	pl := newPipeline(config, manager)

	l := log.Logger()
	gin.DefaultWriter = log.NewGinWriter(l, zerolog.InfoLevel)
	gin.DefaultErrorWriter = log.NewGinWriter(l, zerolog.ErrorLevel)

	sched, err := scheduler.NewScheduler()
	if err != nil {
		fmt.Printf("Error initializing scheduler: %v\n", err)
		os.Exit(1)
	}

	if err := jobs.RegisterCronJobs(sched, manager, pl); err != nil {
		fmt.Printf("Error registering cron jobs: %v\n", err)
		os.Exit(1)
	}

	sched.Start()

	engine.Use(
		gin.Recovery(),
		middleware.GinLoggerMiddleware(),
		gzip.Gzip(gzip.DefaultCompression),
		middleware.CORSMiddleware(config.Server),
		middleware.TracingMiddleware(),
		middleware.PrometheusMiddleware(),
		middleware.RateLimitMiddleware(config.RateLimit),
		middleware.CircuitBreakerMiddleware(config.CircuitBreaker),
		middleware.StorageMiddleware(manager),
		middleware.SchedulerMiddleware(sched),
	)

	// 读接口走 KV 缓存，写操作不受影响
	if kvClient := manager.GetKVClient(); kvClient != nil {
		engine.Use(middleware.CacheMiddleware(
			middleware.DefaultCacheConfig(cache.NewCache(kvClient))))
	}

	api.RegisterRoutes(engine)

	if config.Metrics.Enabled {
		_ = metrics.StartMetricsServer(config.Metrics, engine)
	}

	// 订阅上传事件，驱动解析流水线
	if mqClient := manager.GetMQClient(); mqClient != nil {
		msgs, err := mqClient.Subscribe(baseCtx, queue.TopicFileUploaded)
		if err != nil {
			fmt.Printf("Error subscribing to upload events: %v\n", err)
			os.Exit(1)
		}

		go pl.Run(baseCtx, msgs)
	}

	return &App{
		Engine: engine,
		config: config,
		sched:  sched,
		cancel: cancel,
	}
}

// newPipeline 按配置组装解析流水线.
func newPipeline(config *configs.AppConfig, manager *storage.Manager) *pipeline.Pipeline {
	var (
		mirror *s3c.Client
		bucket string
	)

	if config.Storage.MirrorToS3 {
		mirror = manager.GetS3Client()
		bucket = config.S3.BucketName
	}

	archiver := archive.NewArchiver(config.Storage.ArchiveDir, mirror, bucket)
	imgExtractor := images.NewExtractor(config.Storage.ImageDir)
	splitter := finreport.NewSplitter(config.Storage.ArchiveDir, config.Pipeline.MinRangePages)
	embed := pipeline.NewEmbeddingClient(config.Embedding, config.CircuitBreaker)

	var pub message.Publisher
	if mqClient := manager.GetMQClient(); mqClient != nil {
		pub = mqClient.Publisher()
	}

	pl := pipeline.New(manager.GetDBClient().GetDB(), config.Pipeline,
		archiver, imgExtractor, splitter.Split, embed, pub)

	if kvClient := manager.GetKVClient(); kvClient != nil {
		pl = pl.WithCache(cache.NewCache(kvClient))
	}

	return pl
}

func (a *App) Run() error {
	return a.Engine.Run(fmt.Sprintf("%s:%d", a.config.Server.Host, a.config.Server.Port))
}

// Shutdown 停止调度器并取消后台任务.
func (a *App) Shutdown() error {
	a.cancel()

	return a.sched.Shutdown()
}
