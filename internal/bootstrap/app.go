// Package bootstrap builds the process-wide clients once and wires them into
// the HTTP router, the operation registry and the telemetry worker.
package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/gin-gonic/gin"

	"career-backend/internal/aiops"
	"career-backend/internal/aiops/recovery"
	"career-backend/internal/generations"
	"career-backend/internal/graphql"
	"career-backend/internal/llm"
	"career-backend/internal/llm/anthropic"
	"career-backend/internal/llm/bedrock"
	"career-backend/internal/llm/openai"
	"career-backend/internal/materials"
	"career-backend/internal/queue"
	"career-backend/internal/shared/config"
	"career-backend/internal/shared/server"
	"career-backend/internal/shared/storage/db"
	"career-backend/internal/shared/storage/object"
	localstore "career-backend/internal/shared/storage/object/local"
	s3store "career-backend/internal/shared/storage/object/s3"
)

// App holds shared dependencies.
type App struct {
	Config          config.Config
	Router          *gin.Engine
	DB              *sql.DB
	Store           object.ObjectStore
	Queue           queue.Client
	Recorder        *generations.Recorder
	Gateway         llm.Gateway
	GenerationsRepo generations.Repo
	MaterialsRepo   materials.Repo
	AI              *aiops.Service
	Materials       *materials.Service
	GraphQL         *graphql.Executor

	closers []func() error
}

// Build prepares every dependency and the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}
	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{Config: cfg, DB: sqlDB, Store: store}
	if sqlDB != nil {
		app.GenerationsRepo = &generations.PGRepo{DB: sqlDB}
		app.MaterialsRepo = &materials.PGRepo{DB: sqlDB}
		app.closers = append(app.closers, sqlDB.Close)
	} else {
		app.GenerationsRepo = generations.NewMemoryRepo()
		app.MaterialsRepo = materials.NewMemoryRepo()
	}

	sink, err := app.buildSink(ctx)
	if err != nil {
		return nil, err
	}
	app.Recorder = generations.NewRecorder(sink)

	transport, err := buildTransport(ctx, cfg)
	if err != nil {
		return nil, err
	}
	var recorder llm.Recorder
	if app.Recorder != nil {
		recorder = app.Recorder
	}
	app.Gateway = llm.NewGateway(transport, cfg.LLM.ModelID, recorder)

	ctrl := recovery.New(app.Gateway, cfg.LLM.MaxTokens, cfg.LLM.InitialTemperature, cfg.LLM.RetryTemperature)
	app.AI = aiops.NewService(ctrl)
	app.Materials = &materials.Service{Repo: app.MaterialsRepo, Store: store}

	app.GraphQL, err = graphql.NewExecutor(app.AI, app.Materials)
	if err != nil {
		return nil, err
	}

	var uploads object.ObjectStore
	if cfg.KeepUploads {
		uploads = store
	}
	app.Router = server.NewRouter(server.RouterDeps{
		Config:             cfg,
		DB:                 sqlDB,
		AIHandler:          aiops.NewHandler(app.AI, app.Materials, uploads),
		GraphQLHandler:     graphql.NewHandler(app.GraphQL),
		MaterialsHandler:   materials.NewHandler(app.Materials),
		GenerationsHandler: generations.NewHandler(app.GenerationsRepo),
	})
	return app, nil
}

// Close flushes pending telemetry and releases connections.
func (a *App) Close(ctx context.Context) error {
	if a == nil {
		return nil
	}
	errs := []error{a.Recorder.Flush(ctx)}
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if cfg.IsDevLike() {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	var (
		sqlDB *sql.DB
		err   error
	)
	opts := db.OptionsFromEnv(db.DefaultOptions(db.ProfileFor(cfg.Worker)))
	if opts.Profile == db.ProfileLambda {
		sqlDB, err = db.GetSingleton(ctx, cfg.DatabaseURL, opts)
	} else {
		sqlDB, err = db.Connect(ctx, cfg.DatabaseURL, opts)
	}
	if err != nil {
		if cfg.IsDevLike() {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}

	if cfg.IsDevLike() {
		if err := db.RunMigrations(ctx, sqlDB); err != nil {
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

// buildSink picks the generation event sink. A nil sink disables telemetry.
func (a *App) buildSink(ctx context.Context) (generations.Sink, error) {
	t := a.Config.Telemetry
	if !t.Enabled {
		return nil, nil
	}
	switch t.Sink {
	case "sqs":
		client, err := queue.NewSQSClient(ctx, a.Config.AWSRegion, a.Config.GenerationsQueue)
		if err != nil {
			return nil, err
		}
		a.Queue = client
		return generations.QueueSink{Queue: client}, nil
	case "redis":
		client, err := queue.NewRedisClient(a.Config.RedisURL, a.Config.RedisQueue)
		if err != nil {
			return nil, err
		}
		a.Queue = client
		a.closers = append(a.closers, client.Close)
		return generations.QueueSink{Queue: client}, nil
	case "http":
		if strings.TrimSpace(t.Endpoint) == "" {
			return nil, fmt.Errorf("TELEMETRY_ENDPOINT is required for the http sink")
		}
		return generations.NewHTTPSink(t.Endpoint, t.APIKey), nil
	default:
		return generations.RepoSink{Repo: a.GenerationsRepo}, nil
	}
}

func buildTransport(ctx context.Context, cfg config.Config) (llm.Transport, error) {
	var (
		transport llm.Transport
		err       error
	)
	switch cfg.LLM.Provider {
	case "anthropic":
		transport, err = anthropic.NewClient(cfg.LLM.APIKey, cfg.LLM.ModelID)
	case "openai":
		transport, err = openai.NewClient(cfg.LLM.APIKey, cfg.LLM.ModelID, cfg.LLM.Timeout)
	default:
		transport, err = bedrock.New(ctx, cfg.AWSRegion, cfg.LLM.ModelID)
	}
	if err != nil {
		return nil, fmt.Errorf("build %s transport: %w", cfg.LLM.Provider, err)
	}
	transport = llm.WithTimeout(transport, cfg.LLM.Timeout)
	if cfg.LLM.TransportRetry {
		transport = llm.WithTransportRetry(transport)
	}
	return transport, nil
}

// NewReceiver returns the queue the telemetry worker drains, chosen by sink.
func NewReceiver(ctx context.Context, cfg config.Config) (queue.Receiver, func() error, error) {
	switch cfg.Telemetry.Sink {
	case "redis":
		client, err := queue.NewRedisClient(cfg.RedisURL, cfg.RedisQueue)
		if err != nil {
			return nil, nil, err
		}
		return client, client.Close, nil
	default:
		client, err := queue.NewSQSClient(ctx, cfg.AWSRegion, cfg.GenerationsQueue)
		if err != nil {
			return nil, nil, err
		}
		return client, func() error { return nil }, nil
	}
}
