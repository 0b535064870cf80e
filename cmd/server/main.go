package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/tokenline/queue-display/internal/announce"
	"github.com/tokenline/queue-display/internal/api"
	"github.com/tokenline/queue-display/internal/core/domain"
	"github.com/tokenline/queue-display/internal/core/service"
	"github.com/tokenline/queue-display/internal/hub"
	"github.com/tokenline/queue-display/internal/infrastructure/config"
	mongodb "github.com/tokenline/queue-display/internal/infrastructure/db/mongo"
	redisdb "github.com/tokenline/queue-display/internal/infrastructure/db/redis"
	"github.com/tokenline/queue-display/internal/syncer"
	"github.com/tokenline/queue-display/pkg/logger"
)

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: cfg.Env == "development"})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer func() { _ = rdb.Close() }()

	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongo connection failed")
	}

	clock := clockwork.NewRealClock()

	stateStore := redisdb.NewStateStore(rdb, log)
	sessionStore := redisdb.NewSessionStore(rdb)
	issueDedup := redisdb.NewIssueDedup(rdb)
	authRepo := mongodb.NewAuthRepository(db)
	if err := authRepo.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("user index setup failed")
	}

	if err := seedState(ctx, stateStore, cfg.DefaultSector); err != nil {
		log.Fatal().Err(err).Msg("state bootstrap failed")
	}

	announcer := announce.NewAnnouncer(cfg.AnnounceWorkers, cfg.AnnounceDelay, redisdb.NewAnnounceSink(rdb), clock, log)
	announcer.Start(ctx)

	queueSvc := service.NewQueueService(stateStore, sessionStore, announcer, issueDedup, clock, cfg.SaveRetries, log)
	viewSvc := service.NewViewService(cfg.LobbyPreview)
	authSvc := service.NewAuthService(authRepo, sessionStore, cfg.JWTSecret, 24*time.Hour)

	boardHub := hub.New(log)
	sync := syncer.New(stateStore, viewSvc, boardHub, clock, cfg.LobbyRefresh, log)
	go func() {
		if err := sync.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("synchronizer stopped")
		}
	}()

	e := api.NewRouter(api.Deps{
		Auth:      authSvc,
		Queue:     queueSvc,
		Views:     viewSvc,
		Store:     stateStore,
		Hub:       boardHub,
		Syncer:    sync,
		Mongo:     db,
		Redis:     rdb,
		JWTSecret: cfg.JWTSecret,
		Log:       log,
	})

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()
	log.Info().Str("port", cfg.Port).Str("sector", cfg.DefaultSector).Msg("queue-display started")

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}
	if err := mongoClient.Disconnect(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("mongo disconnect failed")
	}
}

// seedState writes the initial aggregate on first boot so the configured
// sector, not the built-in default, becomes active. A concurrent seeder
// winning the race is fine: the state exists either way.
func seedState(ctx context.Context, store *redisdb.StateStore, sector string) error {
	state, err := store.Load(ctx)
	if err != nil {
		return err
	}
	if state.Version != 0 {
		return nil
	}
	state.ActiveSector = sector
	if _, err := store.Save(ctx, state); err != nil && !errors.Is(err, domain.ErrVersionConflict) {
		return err
	}
	return nil
}
