package app

import (
	"context"
	"errors"

	goredis "github.com/redis/go-redis/v9"

	"auth-client/internal/audit"
	"auth-client/internal/config"
	"auth-client/internal/db"
	"auth-client/internal/logger"
	"auth-client/internal/redis"
	"auth-client/internal/session"
)

type Infra struct {
	DB    *db.DB
	Redis *goredis.Client
}

// setupInfra connects only what the configuration asks for: the database
// when a DSN is set and Redis when it backs the session store.
func setupInfra(ctx context.Context, cfg config.Config) (*Infra, error) {
	infra := &Infra{}

	if cfg.DatabaseDSN != "" {
		database, err := db.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseDSN)
		if err != nil {
			return nil, err
		}
		infra.DB = database
		logger.Info("database ready", map[string]any{
			"driver": cfg.DatabaseDriver,
		})
	}

	if cfg.SessionStore == config.StoreRedis {
		client, err := redis.New(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			_ = infra.Close()
			return nil, err
		}
		infra.Redis = client
		logger.Info("redis ready", map[string]any{
			"addr": cfg.RedisAddr,
		})
	}

	return infra, nil
}

func (i *Infra) sessionStore(kind string) (session.Store, error) {
	switch kind {
	case config.StoreRedis:
		return session.NewRedisStore(i.Redis), nil
	case config.StoreSQL:
		if i.DB == nil {
			return nil, errors.New("app: sql session store needs a database")
		}
		return session.NewSQLStore(i.DB), nil
	default:
		return session.NewMemoryStore(), nil
	}
}

// auditRecorder returns the SQL recorder when a database is available.
func (i *Infra) auditRecorder() (audit.Recorder, *audit.SQLRecorder) {
	if i.DB == nil {
		return audit.Nop{}, nil
	}
	rec := audit.NewSQLRecorder(i.DB)
	return rec, rec
}

func (i *Infra) Close() error {
	var errs []error
	if i.Redis != nil {
		errs = append(errs, i.Redis.Close())
	}
	if i.DB != nil {
		errs = append(errs, i.DB.Close())
	}
	return errors.Join(errs...)
}
