package app

import (
	"log/slog"

	"github.com/jmoiron/sqlx"
	"gorm.io/gorm"

	"github.com/david-shiko/rubik-sub000/internal/cache"
	"github.com/david-shiko/rubik-sub000/internal/config"
	"github.com/david-shiko/rubik-sub000/internal/store"
)

// AppContext holds shared dependencies (DB, Redis, Logger, etc.)
type AppContext struct {
	Config     *config.Config
	DB         *gorm.DB
	SQL        *sqlx.DB
	Store      store.Store
	RedisCache *cache.RedisCache
	Logger     *slog.Logger
}

// New creates a new AppContext. The store runs named statements over the
// sqlx handle; gorm repositories share the same pool.
func New(cfg *config.Config, db *gorm.DB, sqlDB *sqlx.DB, rdb *cache.RedisCache, logger *slog.Logger) *AppContext {
	return &AppContext{
		Config:     cfg,
		DB:         db,
		SQL:        sqlDB,
		Store:      store.New(nil, logger),
		RedisCache: rdb,
		Logger:     logger,
	}
}
