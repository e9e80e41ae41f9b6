package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/DRSN-tech/pos-backend/internal/cfg"
	v1Grpc "github.com/DRSN-tech/pos-backend/internal/delivery/v1/grpc"
	v1Http "github.com/DRSN-tech/pos-backend/internal/delivery/v1/http"
	"github.com/DRSN-tech/pos-backend/internal/infrastructure/excel"
	"github.com/DRSN-tech/pos-backend/internal/infrastructure/gemini"
	"github.com/DRSN-tech/pos-backend/internal/infrastructure/kafka"
	minioInfra "github.com/DRSN-tech/pos-backend/internal/infrastructure/minio"
	s3Repo "github.com/DRSN-tech/pos-backend/internal/repository/minio"
	"github.com/DRSN-tech/pos-backend/internal/repository/redis"
	redisConv "github.com/DRSN-tech/pos-backend/internal/repository/redis/converter"
	"github.com/DRSN-tech/pos-backend/internal/usecase"
	"github.com/DRSN-tech/pos-backend/pkg/clients"
	"github.com/DRSN-tech/pos-backend/pkg/closer"
	"github.com/DRSN-tech/pos-backend/pkg/e"
	"github.com/DRSN-tech/pos-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/jimlawless/whereami"
)

const (
	shutdownTimeout = 10 * time.Second
	startupTimeout  = 10 * time.Second
)

type App struct {
	cfg    *config.Config
	logger logger.Logger
	closer *closer.Closer

	httpSrv *v1Http.Server
	grpcSrv *v1Grpc.GRPCServer

	outboxWorker *kafka.OutboxWorker // nil, если Kafka не настроена
	workerCtx    context.Context
	stopWorkers  context.CancelFunc
}

// NewApp инициализирует хранилище, внешние сервисы и транспорт.
// Ресурсы, открытые до ошибки, закрываются здесь же.
func NewApp(cfg *config.Config, logger logger.Logger) (_ *App, err error) {
	a := &App{
		cfg:    cfg,
		logger: logger,
		closer: closer.NewCloser(2 * time.Second),
	}
	a.workerCtx, a.stopWorkers = context.WithCancel(context.Background())

	defer func() {
		if err != nil {
			a.stopWorkers()
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if cerr := a.closer.Close(ctx); cerr != nil {
				logger.Warnf("cleanup after failed start: %v", cerr)
			}
		}
	}()

	store, err := initStorage(logger, cfg, a.closer)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	var (
		cacheRepo   usecase.CacheRepository = redis.NopCacheRepo{}
		idempotency usecase.IdempotencyRepository
		imagesInfra usecase.ImagesInfra
		generator   usecase.InsightGenerator
		outboxRepo  usecase.OutboxRepository
		encoder     usecase.EventEncoder
	)

	if cfg.Redis != nil {
		redisClient := clients.NewRedisClient(cfg.Redis)
		a.closer.Add("redis", func(context.Context) error { return redisClient.Close() })

		ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
		err = redisClient.Ping(ctx)
		cancel()
		if err != nil {
			logger.Errorf(err, "failed to connect to redis")
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}

		cacheRepo = redis.NewCacheRepo(redisClient, redisConv.ProductInfoConverterImpl{}, cfg.Redis, logger)
		idempotency = redis.NewIdempotencyRepo(redisClient, cfg.Redis)
	} else {
		logger.Infof("REDIS_ADDR is not set, product cache and idempotency keys are disabled")
	}

	if cfg.Minio != nil {
		minioClient, err := clients.NewMinIOClient(cfg.Minio)
		if err != nil {
			logger.Errorf(err, "failed to initialize minio client")
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
		err = clients.EnsureBucket(ctx, minioClient, cfg.Minio.BucketName)
		cancel()
		if err != nil {
			logger.Errorf(err, "failed to initialize MinIO bucket")
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}

		infra := minioInfra.NewMinioInfrastructure(s3Repo.NewImageRepo(minioClient, cfg.Minio.BucketName), cfg.Minio, logger, a.workerCtx)
		a.closer.Add("minio cleanup", infra.WaitForCleanup)
		imagesInfra = infra
	} else {
		logger.Infof("BUCKET_NAME is not set, product images are disabled")
	}

	if cfg.Kafka != nil {
		if store.outbox == nil {
			logger.Warnf("Kafka is configured but storage backend %q has no outbox, sale events are disabled", cfg.Storage.Backend)
		} else {
			producer := kafka.NewProducer(logger, cfg.Kafka)
			a.closer.Add("kafka producer", func(context.Context) error { return producer.Close() })

			if err := producer.EnsureTopic(startupTimeout); err != nil {
				logger.Errorf(err, "failed to ensure kafka topic")
				return nil, e.Wrap(whereami.WhereAmI(), err)
			}

			outboxRepo = store.outbox
			encoder = kafka.NewProtoEncoder()
			a.outboxWorker = kafka.NewOutboxWorker(store.outbox, logger, producer, store.dsn, cfg.Kafka.BatchLimit)
		}
	}

	if cfg.Gemini.APIKey != "" {
		ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
		client, err := gemini.NewClient(ctx, cfg.Gemini, logger)
		cancel()
		if err != nil {
			logger.Errorf(err, "failed to initialize gemini client")
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
		a.closer.Add("gemini", func(context.Context) error { return client.Close() })
		generator = client
	} else {
		logger.Warnf("GEMINI_API_KEY is not set, insights will report service unavailable")
	}

	threshold := cfg.Report.LowStockThreshold
	productUC := usecase.NewProductUC(store.products, imagesInfra, cacheRepo, logger, threshold)
	saleUC := usecase.NewSaleUC(
		store.txManager,
		store.products,
		store.sales,
		cacheRepo,
		idempotency,
		outboxRepo,
		encoder,
		excel.NewExporter(),
		logger,
	)
	reportUC := usecase.NewReportUC(store.products, store.sales, store.goals, logger, threshold)
	insightUC := usecase.NewInsightUC(store.products, store.sales, generator, logger, threshold)

	var maxImageSize int64
	if cfg.Minio != nil {
		maxImageSize = cfg.Minio.MaxImageSize
	}

	r := chi.NewRouter()
	router := v1Http.NewRouter(r, logger)
	router.Init(v1Http.UseCases{
		Product:      productUC,
		Sale:         saleUC,
		Report:       reportUC,
		Insight:      insightUC,
		MaxImageSize: maxImageSize,
	})

	a.httpSrv = v1Http.NewServer(router.Handler(), cfg.Http)
	a.grpcSrv = v1Grpc.NewGRPCServer(cfg.Grpc, logger)

	return a, nil
}

// Run запускает серверы и блокируется до сигнала завершения или фатальной ошибки сервера.
func (a *App) Run() error {
	if a.outboxWorker != nil {
		a.outboxWorker.Start(a.workerCtx)
		a.closer.AddFunc("outbox worker", a.outboxWorker.Stop)
	}

	errCh := make(chan error, 2)
	go func() {
		a.logger.Infof("gRPC server starting on %s:%s", a.cfg.Grpc.NetworkMode, a.cfg.Grpc.Port)
		if err := a.grpcSrv.Start(); err != nil {
			a.logger.Errorf(err, "gRPC server failed")
			errCh <- err
		}
	}()

	go func() {
		a.logger.Infof("HTTP server started on port %s", a.cfg.Http.Port)
		if err := a.httpSrv.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Errorf(err, "HTTP server failed")
			errCh <- err
		}
	}()

	a.grpcSrv.SetServing(true)

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	var appErr error
	select {
	case appErr = <-errCh:
		a.logger.Errorf(appErr, "server fatal error")
	case <-shutdown:
		a.logger.Infof("Received shutdown signal, stopping gracefully...")
	}

	a.shutdown()
	return appErr
}

func (a *App) shutdown() {
	a.grpcSrv.SetServing(false)

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.httpSrv.Stop(ctx); err != nil {
		a.logger.Errorf(err, "HTTP server shutdown error")
	} else {
		a.logger.Infof("HTTP server stopped")
	}

	if err := a.grpcSrv.Stop(ctx); err != nil {
		a.logger.Warnf("gRPC server shutdown: %v", err)
	}

	// Closer закрывает ресурсы в обратном порядке: сначала воркеры, затем клиенты и пулы
	if err := a.closer.Close(ctx); err != nil {
		a.logger.Warnf("resource shutdown: %v", err)
	}
	a.stopWorkers()

	a.logger.Infof("Application shutdown complete")
}
