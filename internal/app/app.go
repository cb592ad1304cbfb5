package app

import (
	"context"
	"database/sql"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"chargeamps/internal/clients"
	appconfig "chargeamps/internal/config"
	redisstore "chargeamps/internal/redis"
	"chargeamps/internal/repository"
	"chargeamps/internal/service"
	"chargeamps/libs/db"
	libredis "chargeamps/libs/redis"
)

// App wires the API client and its optional cache and archive.
type App struct {
	cfg         *appconfig.Config
	client      *clients.ChargeAmpsClient
	redisClient *redis.Client
	db          *sql.DB
	archive     *service.ArchiveService
	logger      *zap.Logger
}

// New builds the application graph. The credential cache is best effort: an
// unreachable redis only costs a login per run.
func New(ctx context.Context, cfg *appconfig.Config, logger *zap.Logger) (*App, error) {
	a := &App{cfg: cfg, logger: logger}

	var opts []clients.Option
	if cfg.CacheEnabled() {
		redisClient, err := libredis.NewRedisClient(ctx, libredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			logger.Warn("credential cache unavailable", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		} else {
			a.redisClient = redisClient
			opts = append(opts, clients.WithCredentialStore(redisstore.NewCredentialStore(redisClient)))
		}
	}

	client, err := clients.NewChargeAmpsClient(clients.Config{
		BaseURL:            cfg.API.BaseURL,
		Email:              cfg.Username,
		Password:           cfg.Password,
		APIKey:             cfg.APIKey,
		InsecureSkipVerify: cfg.API.InsecureSkipVerify,
		Timeout:            cfg.HTTPTimeout(),
	}, logger, opts...)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.client = client
	return a, nil
}

// Client returns the authenticated API client.
func (a *App) Client() *clients.ChargeAmpsClient {
	return a.client
}

// Archive returns the session archive, connecting to the database on first use.
func (a *App) Archive(ctx context.Context) (*service.ArchiveService, error) {
	if a.archive != nil {
		return a.archive, nil
	}
	if !a.cfg.ArchiveEnabled() {
		return service.NewArchiveService(a.client, nil, a.logger), nil
	}
	sqlDB, err := db.NewPostgresDB(ctx, a.cfg.Database.DSN)
	if err != nil {
		return nil, err
	}
	a.db = sqlDB
	a.archive = service.NewArchiveService(a.client, repository.NewSessionRepository(sqlDB), a.logger)
	return a.archive, nil
}

// Close releases acquired resources.
func (a *App) Close() {
	if a.client != nil {
		if err := a.client.Close(); err != nil {
			a.logger.Warn("failed to close api client", zap.Error(err))
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("failed to close db", zap.Error(err))
		}
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warn("failed to close redis", zap.Error(err))
		}
	}
}
