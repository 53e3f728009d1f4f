package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/phrazzld/resumeq/internal/config"
	"github.com/phrazzld/resumeq/internal/generation"
	"github.com/phrazzld/resumeq/internal/platform/gemini"
	"github.com/phrazzld/resumeq/internal/platform/kit"
	"github.com/phrazzld/resumeq/internal/platform/logger"
	"github.com/phrazzld/resumeq/internal/platform/metrics"
	"github.com/phrazzld/resumeq/internal/platform/postgres"
	"github.com/phrazzld/resumeq/internal/platform/redis"
	"github.com/phrazzld/resumeq/internal/platform/storage"
	"github.com/phrazzld/resumeq/internal/queue"
	"github.com/phrazzld/resumeq/internal/render"
	"github.com/phrazzld/resumeq/internal/task"
	goredis "github.com/redis/go-redis/v9"
)

// httpTimeout applies to calls against object storage and the email list.
const httpTimeout = 30 * time.Second

// application holds the process dependencies. Connections are opened on
// first use so that each command only dials what it needs.
type application struct {
	config *config.Config
	logger *slog.Logger
	out    io.Writer

	redisClient *goredis.Client
	queueStore  queue.Store
	manager     *queue.Manager
	db          *sql.DB
	httpClient  *http.Client
}

func newApplication(cfg *config.Config, log *slog.Logger, out io.Writer) *application {
	metrics.SetNamespace("resumeq")
	return &application{
		config:     cfg,
		logger:     log,
		out:        out,
		httpClient: &http.Client{Timeout: httpTimeout},
	}
}

// loadApplication reads configuration from path (or the environment alone)
// and builds the application logger. Logs go to logOut so that command output
// on out stays machine-readable.
func loadApplication(path string, out, logOut io.Writer) (*application, error) {
	cfg, err := config.LoadFile(path)
	if err != nil {
		return nil, err
	}
	log, err := logger.Setup(logger.LoggerConfig{Level: cfg.Server.LogLevel, Output: logOut})
	if err != nil {
		return nil, fmt.Errorf("failed to set up logger: %w", err)
	}
	return newApplication(cfg, log, out), nil
}

// Queue returns the queue manager, connecting to Redis on first use.
func (a *application) Queue(ctx context.Context) (*queue.Manager, error) {
	if a.manager != nil {
		return a.manager, nil
	}
	if a.queueStore == nil {
		client, err := redis.NewClient(ctx, a.config.Redis)
		if err != nil {
			return nil, err
		}
		s, err := redis.NewStore(client, a.logger)
		if err != nil {
			_ = client.Close()
			return nil, err
		}
		a.redisClient = client
		a.queueStore = s
	}

	managerConfig := queue.DefaultManagerConfig()
	managerConfig.DefaultMaxAttempts = a.config.Queue.MaxAttempts
	managerConfig.Backoff.Max = a.config.Queue.MaxBackoff

	m, err := queue.NewManager(a.queueStore, managerConfig, a.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create queue manager: %w", err)
	}
	a.manager = m
	return m, nil
}

// DB returns the business-record database, connecting on first use.
func (a *application) DB(ctx context.Context) (*sql.DB, error) {
	if a.db != nil {
		return a.db, nil
	}
	db, err := postgres.Open(ctx, a.config.Database.URL)
	if err != nil {
		return nil, err
	}
	a.db = db
	return db, nil
}

// ObjectStore returns the client for the generated-files bucket.
func (a *application) ObjectStore() (*storage.Client, error) {
	return storage.NewClient(a.config.Storage, a.httpClient, a.logger)
}

// Rewriter returns the primary Gemini rewriter, wrapped in a failover chain
// when a fallback model is configured.
func (a *application) Rewriter(ctx context.Context) (generation.Rewriter, error) {
	primary, err := gemini.NewRewriter(ctx, a.logger, a.config.LLM)
	if err != nil {
		return nil, fmt.Errorf("failed to create rewriter: %w", err)
	}
	if a.config.LLM.FallbackModelName == "" {
		return primary, nil
	}

	fallbackConfig := a.config.LLM
	fallbackConfig.ModelName = a.config.LLM.FallbackModelName
	fallback, err := gemini.NewRewriter(ctx, a.logger, fallbackConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create fallback rewriter: %w", err)
	}
	chain, err := generation.NewFallbackRewriter(a.logger,
		generation.NamedRewriter{Name: primary.Model(), Rewriter: primary},
		generation.NamedRewriter{Name: fallback.Model(), Rewriter: fallback},
	)
	if err != nil {
		return nil, err
	}
	return chain, nil
}

// Tracker returns the email-list tracker, or nil when tracking is disabled.
func (a *application) Tracker() task.SubscriberTracker {
	if c := kit.NewClient(a.config.Kit, a.httpClient, a.logger); c != nil {
		return c
	}
	return nil
}

// ResumeGenerationHandler wires the generation worker.
func (a *application) ResumeGenerationHandler(ctx context.Context) (*task.ResumeGenerationHandler, error) {
	db, err := a.DB(ctx)
	if err != nil {
		return nil, err
	}
	rewriter, err := a.Rewriter(ctx)
	if err != nil {
		return nil, err
	}
	objects, err := a.ObjectStore()
	if err != nil {
		return nil, err
	}

	return task.NewResumeGenerationHandler(task.ResumeGenerationDeps{
		Generations: postgres.NewPostgresGenerationStore(db, a.logger),
		Analyses:    postgres.NewPostgresAnalysisStore(db, a.logger),
		Profiles:    postgres.NewPostgresProfileStore(db, a.logger),
		Rewriter:    rewriter,
		Renderer:    render.NewRenderer(),
		Storage:     objects,
		Tracker:     a.Tracker(),
	}, a.logger)
}

// FileDeletionHandler wires the deletion worker.
func (a *application) FileDeletionHandler() (*task.FileDeletionHandler, error) {
	objects, err := a.ObjectStore()
	if err != nil {
		return nil, err
	}
	return task.NewFileDeletionHandler(objects, a.logger)
}

// RetentionSweeper wires the retention sweep.
func (a *application) RetentionSweeper(ctx context.Context) (*task.RetentionSweeper, error) {
	db, err := a.DB(ctx)
	if err != nil {
		return nil, err
	}
	m, err := a.Queue(ctx)
	if err != nil {
		return nil, err
	}
	return task.NewRetentionSweeper(
		postgres.NewPostgresGenerationStore(db, a.logger),
		db,
		m,
		task.RetentionConfig{
			Months:   a.config.Retention.Months,
			Interval: a.config.Retention.Interval,
		},
		a.logger,
	)
}

// RunnerConfig applies configured intervals to the defaults for q.
func (a *application) RunnerConfig(q queue.Name) task.RunnerConfig {
	rc := task.DefaultRunnerConfig(q)
	qc := a.config.Queue
	switch q {
	case queue.ResumeGeneration:
		rc.PollInterval = qc.GenerationPollInterval
		rc.ErrorBackoff = qc.GenerationErrorBackoff
	case queue.FileDeletion:
		rc.PollInterval = qc.DeletionPollInterval
		rc.ErrorBackoff = qc.DeletionErrorBackoff
	}
	rc.LeaseTimeout = qc.LeaseTimeout
	return rc
}

// Close releases every opened connection.
func (a *application) Close() {
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warn("failed to close redis client", "error", err)
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("failed to close database", "error", err)
		}
	}
}
