package app

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"todoapp/internal/config"
	"todoapp/internal/database"
	"todoapp/internal/repo"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type App struct {
	cfg    config.Config
	pg     *pgxpool.Pool
	sqlite *sql.DB
	redis  *redis.Client
	router *gin.Engine
}

// New connects the configured store and Redis, applies migrations and builds the router.
func New(ctx context.Context, cfg config.Config, logger *log.Logger) (*App, error) {
	a := &App{cfg: cfg}

	deps, err := a.openStore(ctx, logger)
	if err != nil {
		a.Close()
		return nil, err
	}

	rdb, err := newRedis(ctx, cfg.Redis)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.redis = rdb
	deps.Redis = rdb

	a.router = NewRouter(cfg, deps, logger)
	return a, nil
}

func (a *App) openStore(ctx context.Context, logger *log.Logger) (Dependencies, error) {
	switch a.cfg.Store.Driver {
	case config.DriverSQLite:
		db, err := database.OpenSQLite(a.cfg.Store.SQLitePath)
		if err != nil {
			return Dependencies{}, err
		}
		a.sqlite = db
		n, err := database.MigrateSQLite(ctx, db)
		if err != nil {
			return Dependencies{}, err
		}
		logger.Info("store ready", "driver", config.DriverSQLite, "path", a.cfg.Store.SQLitePath, "migrations", n)
		return Dependencies{Todos: repo.NewSQLiteTodoRepo(db), Users: repo.NewSQLiteUserRepo(db)}, nil
	default:
		pool, err := database.OpenPostgres(ctx, a.cfg.PG.DSN)
		if err != nil {
			return Dependencies{}, err
		}
		a.pg = pool
		n, err := database.MigratePostgres(ctx, pool)
		if err != nil {
			return Dependencies{}, err
		}
		logger.Info("store ready", "driver", config.DriverPostgres, "migrations", n)
		return Dependencies{Todos: repo.NewPGTodoRepo(pool), Users: repo.NewPGUserRepo(pool)}, nil
	}
}

func (a *App) Router() *gin.Engine {
	return a.router
}

func (a *App) Close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.pg != nil {
		a.pg.Close()
	}
	if a.sqlite != nil {
		_ = a.sqlite.Close()
	}
}

func newRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	opt, err := cfg.Options()
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return rdb, nil
}
