package app

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"Gin_postgres_redis_tool_issuance/blobstore"
	"Gin_postgres_redis_tool_issuance/db"
	"Gin_postgres_redis_tool_issuance/issuance"
	"Gin_postgres_redis_tool_issuance/ledger"
	"Gin_postgres_redis_tool_issuance/logger"
	"Gin_postgres_redis_tool_issuance/overdue"
	"Gin_postgres_redis_tool_issuance/report"
	"Gin_postgres_redis_tool_issuance/session"
	"Gin_postgres_redis_tool_issuance/store"
	"Gin_postgres_redis_tool_issuance/store/memstore"
)

// Short aliases for handlers.
type Ctx = gin.Context
type H = gin.H

// App aggregates the dependencies of the server.
type App struct {
	Router *gin.Engine
	DB     *gorm.DB
	RDB    *redis.Client
	Config Config

	Store     store.Store
	Sessions  session.Store
	Issuances *issuance.Service
	Reports   *report.Aggregator
	Scheduler *overdue.Scheduler

	// Now is the clock of every time-dependent operation.
	Now func() time.Time
}

// MustNew connects the configured backend and wires the server. Connection
// failures are fatal.
func MustNew(cfg Config) *App {
	var (
		st      store.Store
		sess    session.Store
		dbConn  *gorm.DB
		rdb     *redis.Client
		needRDB = cfg.StoreBackend != BackendMemory
	)

	if needRDB {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPwd, DB: 0})
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Logger.Fatal().Err(err).Str("addr", cfg.RedisAddr).Msg("Failed to connect to redis")
		}
		sess = session.NewAppSessionStore(rdb, cfg.SessionTTL)
	}

	switch cfg.StoreBackend {
	case BackendPostgres:
		conn, err := db.ConnectDB(cfg.DB)
		if err != nil {
			logger.Logger.Fatal().Err(err).Str("host", cfg.DB.Host).Msg("Failed to open database")
		}
		dbConn = conn
		st = db.NewRepo(conn)
	case BackendRedis:
		st = blobstore.New(rdb)
	default:
		st = memstore.New()
		sess = session.NewMemoryStore(cfg.SessionTTL)
	}
	logger.Logger.Info().Str("backend", cfg.StoreBackend).Msg("Store ready")

	a := New(cfg, st, sess)
	a.DB = dbConn
	a.RDB = rdb
	return a
}

// New wires services and the router over an already opened store.
func New(cfg Config, st store.Store, sess session.Store) *App {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	now := time.Now

	l := ledger.New(st, now)
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(), Metrics())
	useCORS(r, cfg.WebOrigin)

	return &App{
		Router:    r,
		Config:    cfg,
		Store:     st,
		Sessions:  sess,
		Issuances: issuance.New(st, l, cfg.Location, now),
		Reports:   report.New(st, cfg.Location),
		Scheduler: overdue.NewScheduler(overdue.NewScanner(st), cfg.SweepInterval, cfg.SweepDelay, now),
		Now:       now,
	}
}

func (a *App) Close() {
	if a.RDB != nil {
		_ = a.RDB.Close()
	}
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}
