// Command server runs the intake service: the application workflow API, the
// public directory listings, and the audit pipeline. External collaborators
// (postgres, redis, s3, kafka) are optional; absent ones fall back to
// in-memory implementations so local development needs no infrastructure.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	apphandler "github.com/stagelink/stagelink/internal/application/handler"
	appmetrics "github.com/stagelink/stagelink/internal/application/metrics"
	appservice "github.com/stagelink/stagelink/internal/application/service"
	appstore "github.com/stagelink/stagelink/internal/application/store"
	"github.com/stagelink/stagelink/internal/auth"
	dirhandler "github.com/stagelink/stagelink/internal/directory/handler"
	dirservice "github.com/stagelink/stagelink/internal/directory/service"
	dirstore "github.com/stagelink/stagelink/internal/directory/store"
	"github.com/stagelink/stagelink/internal/platform/config"
	"github.com/stagelink/stagelink/internal/platform/httpserver"
	"github.com/stagelink/stagelink/internal/platform/logger"
	"github.com/stagelink/stagelink/internal/platform/middleware"
	platredis "github.com/stagelink/stagelink/internal/platform/redis"
	profilestore "github.com/stagelink/stagelink/internal/profile/store"
	"github.com/stagelink/stagelink/internal/storage"
	"github.com/stagelink/stagelink/pkg/platform/audit"
	"github.com/stagelink/stagelink/pkg/platform/audit/publisher"
	auditmemory "github.com/stagelink/stagelink/pkg/platform/audit/store/memory"
	auditpostgres "github.com/stagelink/stagelink/pkg/platform/audit/store/postgres"
	auditworker "github.com/stagelink/stagelink/pkg/platform/audit/worker"
	"github.com/stagelink/stagelink/pkg/platform/tx"
)

const auditBuffer = 256

func main() {
	if err := run(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	log := logger.New()
	slog.SetDefault(log)

	var db *sql.DB
	if cfg.DatabaseURL != "" {
		db, err = sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			return fmt.Errorf("ping database: %w", err)
		}
	}

	redisClient, err := platredis.New(cfg.RedisURL)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	objects, err := newObjectStore(ctx, cfg, log)
	if err != nil {
		return err
	}

	var (
		apps     appservice.ApplicationStore
		profiles appservice.ProfileStore
		dirs     interface {
			appservice.DirectoryWriter
			dirservice.Store
		}
		auditStore audit.Store
	)
	if db != nil {
		apps = appstore.NewPostgres(db)
		profiles = profilestore.NewPostgres(db)
		dirs = dirstore.NewPostgres(db)
		auditStore = auditpostgres.New(db)
	} else {
		log.Warn("no DATABASE_URL configured, using in-memory stores")
		apps = appstore.NewInMemory()
		profiles = profilestore.NewInMemory()
		dirs = dirstore.NewInMemory()
		auditStore = auditmemory.New()
	}

	var cache dirservice.Cache
	if redisClient != nil {
		cache = redisClient
	}
	directory := dirservice.New(dirs, cache, cfg.DirectoryCacheTTL, log)

	auditCh := make(chan audit.Event, auditBuffer)
	metrics := appmetrics.New()

	workflowOpts := []appservice.Option{
		appservice.WithAuditChannel(auditCh),
		appservice.WithMetrics(metrics),
		appservice.WithLogger(log),
		appservice.WithDirectoryInvalidator(directory),
		appservice.WithImageProber(func(ctx context.Context, url string) string {
			return dirservice.ProbeImageURL(ctx, nil, url)
		}),
	}
	if db != nil {
		workflowOpts = append(workflowOpts, appservice.WithTransactor(tx.NewRunner(db)))
	}
	workflow := appservice.New(apps, profiles, dirs, objects, workflowOpts...)

	sessions := auth.NewManager(cfg.JWTSigningKey)
	router := newRouter(cfg, log, sessions, workflow, directory, db, redisClient)
	server := httpserver.New(cfg.Addr, router)

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return auditworker.New(auditStore, auditCh, log).Run(ctx)
	})

	if pg, ok := auditStore.(*auditpostgres.Store); ok && len(cfg.KafkaBrokers) > 0 {
		kafka, err := publisher.NewKafka(ctx, cfg.KafkaBrokers, cfg.AuditTopic, outboxSource{pg}, log)
		if err != nil {
			return err
		}
		group.Go(func() error { return kafka.Run(ctx) })
	}

	group.Go(func() error {
		log.Info("server listening", "addr", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return group.Wait()
}

func newObjectStore(ctx context.Context, cfg config.Config, log *slog.Logger) (storage.Store, error) {
	if cfg.S3Bucket == "" {
		log.Warn("no S3 bucket configured, using in-memory photo storage")
		return storage.NewInMemory(), nil
	}
	return storage.NewS3(ctx, cfg.S3Bucket, cfg.S3Region, cfg.S3PublicURL)
}

func newRouter(
	cfg config.Config,
	log *slog.Logger,
	sessions *auth.Manager,
	workflow *appservice.Service,
	directory *dirservice.Service,
	db *sql.DB,
	redisClient *platredis.Client,
) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.ClientMetadata)

	r.Get("/healthz", healthHandler(db, redisClient))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	dirhandler.New(directory, log).Register(r)

	apps := apphandler.New(workflow, log)
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(sessions, log))
		apps.Register(r)
		apps.RegisterAdmin(r)
	})

	return r
}

func healthHandler(db *sql.DB, redisClient *platredis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if db != nil {
			if err := db.PingContext(ctx); err != nil {
				http.Error(w, "database unreachable", http.StatusServiceUnavailable)
				return
			}
		}
		if redisClient != nil {
			if err := redisClient.Health(ctx); err != nil {
				http.Error(w, "redis unreachable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}

// outboxSource adapts the postgres audit store's row type onto the
// publisher's feed interface.
type outboxSource struct {
	store *auditpostgres.Store
}

func (s outboxSource) NextBatch(ctx context.Context, limit int) ([]publisher.Row, error) {
	rows, err := s.store.NextBatch(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]publisher.Row, len(rows))
	for i, row := range rows {
		out[i] = publisher.Row(row)
	}
	return out, nil
}

func (s outboxSource) MarkPublished(ctx context.Context, ids []uuid.UUID) error {
	return s.store.MarkPublished(ctx, ids)
}
