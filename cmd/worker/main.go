package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/site2data/graph-worker/internal/config"
	"github.com/site2data/graph-worker/internal/logger"
	"github.com/site2data/graph-worker/internal/progress"
	"github.com/site2data/graph-worker/internal/queue"
	"github.com/site2data/graph-worker/internal/repository"
	"github.com/site2data/graph-worker/internal/storage"
	"github.com/site2data/graph-worker/internal/worker"
)

func main() {
	if err := config.LoadDotEnv(".env", ".env.local"); err != nil {
		os.Stderr.WriteString("failed loading .env files: " + err.Error() + "\n")
	}
	cfg := config.Load()

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		os.Stderr.WriteString("failed to initialize logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// All three stores must be reachable before the loop starts; any failure
	// exits non-zero without consuming a single message.
	redisClient, err := setupRedis(ctx, cfg)
	if err != nil {
		fatal(log, "failed to initialize redis client", err)
	}
	log.Info("redis client connected")

	consumer, err := queue.NewStreamConsumer(ctx, redisClient, queue.StreamConsumerConfig{
		Stream:    cfg.GraphStream,
		DLQStream: cfg.GraphDLQStream,
		Group:     cfg.GraphGroup,
		Consumer:  cfg.ConsumerID,
		PollBlock: time.Duration(cfg.PollBlockMS) * time.Millisecond,
	}, log)
	if err != nil {
		fatal(log, "failed to initialize stream consumer", err)
	}

	repo, err := repository.NewMongoRepository(ctx, repository.MongoConfig{
		URI:              cfg.MongoURI,
		Database:         cfg.MongoDBName,
		JobsCollection:   cfg.MongoJobsCollection,
		ScenesCollection: cfg.MongoScenesCollection,
	}, log)
	if err != nil {
		fatal(log, "failed to initialize mongodb repository", err)
	}
	log.Info("mongodb client connected")

	store, err := storage.NewMinioStore(ctx, storage.MinioConfig{
		Endpoint:  cfg.MinioEndpoint,
		AccessKey: cfg.MinioAccessKey,
		SecretKey: cfg.MinioSecretKey,
		Bucket:    cfg.MinioBucket,
		UseSSL:    cfg.MinioUseSSL,
	}, log)
	if err != nil {
		fatal(log, "failed to initialize object store", err)
	}
	log.Info("object store connected", "bucket", cfg.MinioBucket)

	publisher := progress.NewRedisPublisher(redisClient, log)
	processor := worker.NewProcessor(worker.Dependencies{
		Jobs:        repo,
		Scenes:      repo,
		Store:       store,
		Progress:    publisher,
		Acker:       consumer,
		DeadLetters: consumer,
		Logger:      log,
	})

	w := worker.NewWorker(consumer, processor, time.Duration(cfg.ErrorBackoffMS)*time.Millisecond, log)
	log.Info("worker initialized",
		"stream", cfg.GraphStream, "group", cfg.GraphGroup, "consumer", cfg.ConsumerID)
	w.Run(ctx)

	// Best-effort cleanup after the loop exits; each failure is logged, none
	// is fatal.
	closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := repo.Close(closeCtx); err != nil {
		log.Error("error closing mongodb connection", "error", err)
	}
	if err := redisClient.Close(); err != nil {
		log.Error("error closing redis connection", "error", err)
	}
	log.Info("worker shut down gracefully")
}

func setupRedis(ctx context.Context, cfg config.Config) (*goredis.Client, error) {
	options, err := goredis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	client := goredis.NewClient(options)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

func fatal(log *logger.Logger, msg string, err error) {
	log.Error(msg, "error", err)
	log.Sync()
	os.Exit(1)
}
