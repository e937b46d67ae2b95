// Command boardd serves the community board: auth, the three record tables
// and image uploads over HTTP, with an audit feed behind every write.
//
//	@title						Community Board API
//	@version					1.0
//	@BasePath					/
//	@securityDefinitions.apikey	ApiKeyAuth
//	@in							header
//	@name						apikey
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/communityboard/board-system/internal/api"
	"github.com/communityboard/board-system/internal/api/handler"
	"github.com/communityboard/board-system/internal/core/domain"
	"github.com/communityboard/board-system/internal/core/ports"
	"github.com/communityboard/board-system/internal/core/service"
	mongodb "github.com/communityboard/board-system/internal/infrastructure/db/mongo"
	redisdb "github.com/communityboard/board-system/internal/infrastructure/db/redis"
	"github.com/communityboard/board-system/internal/infrastructure/media"
	"github.com/communityboard/board-system/internal/infrastructure/queue"
	"github.com/communityboard/board-system/internal/pkg/config"
	"github.com/communityboard/board-system/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "boardd:", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadServer(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "boardd",
	})

	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		AppName:  "boardd",
		Timeout:  cfg.Mongo.ConnectTimeout,
	})
	if err != nil {
		return err
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := mongoClient.Disconnect(dctx); err != nil {
			log.Warn().Err(err).Msg("mongo disconnect")
		}
	}()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		URL:      cfg.Redis.URL,
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})
	if err != nil {
		return err
	}
	defer rdb.Close()

	identities := mongodb.NewIdentityRepository(db)
	lostFoundRepo := mongodb.NewRecordRepository[domain.LostFoundRecord](db, domain.TableLostFound)
	jobRepo := mongodb.NewRecordRepository[domain.JobRecord](db, domain.TableJobs)
	newsRepo := mongodb.NewRecordRepository[domain.NewsRecord](db, domain.TableNews)
	events := mongodb.NewEventRepository(db)

	if err := mongodb.EnsureIndexes(ctx, identities, lostFoundRepo, jobRepo, newsRepo, events); err != nil {
		return err
	}

	auditSvc := service.NewEventService(events, redisdb.NewDedupChecker(rdb, cfg.AuditDedupWindow), logger.Component("audit"))
	dispatcher := queue.NewDispatcher(cfg.AuditWorkers, auditSvc, logger.Component("dispatcher"))

	authSvc := service.NewAuthService(
		identities,
		redisdb.NewTokenDenylist(rdb),
		cfg.JWTSecret,
		cfg.TokenTTL,
		logger.Component("auth"),
		service.WithAdminSignup(cfg.AdminSignupEnabled),
		service.WithEventPublisher(dispatcher),
	)
	if cfg.AdminSignupEnabled {
		log.Warn().Msg("sign-up may request the admin role; set ADMIN_SIGNUP_ENABLED=false to close it")
	}

	var images ports.MediaStore
	if cfg.CloudinaryURL != "" {
		store, err := media.NewCloudinaryStore(cfg.CloudinaryURL)
		if err != nil {
			return err
		}
		images = store
	} else {
		log.Info().Msg("CLOUDINARY_URL not set, image uploads disabled")
	}

	router := api.NewRouter(api.Deps{
		Log:            log,
		AnonKey:        cfg.AnonKey,
		ServiceRoleKey: cfg.ServiceRoleKey,
		Auth:           authSvc,
		LostFound:      service.NewLostFoundService(lostFoundRepo, dispatcher, logger.Component("lost_found")),
		Jobs:           service.NewJobService(jobRepo, dispatcher, logger.Component("jobs")),
		News:           service.NewNewsService(newsRepo, dispatcher, logger.Component("news")),
		Media:          images,
		Readiness: map[string]handler.Pinger{
			"mongo": mongodb.NewPinger(db),
			"redis": redisdb.NewPinger(rdb),
		},
		Registerer: prometheus.DefaultRegisterer,
		Gatherer:   prometheus.DefaultGatherer,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	// The audit queue outlives the HTTP server so in-flight writes are
	// still recorded.
	auditCtx, stopAudit := context.WithCancel(context.Background())
	defer stopAudit()
	auditDone := make(chan error, 1)
	go func() { auditDone <- dispatcher.Run(auditCtx) }()

	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Str("env", cfg.Env).Msg("boardd listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := srv.Shutdown(sctx)
		stopAudit()
		return errors.Join(err, <-auditDone)
	})

	return g.Wait()
}
