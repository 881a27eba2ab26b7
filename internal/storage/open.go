package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"tasknest/internal/config"
	"tasknest/internal/db"
)

const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
	DriverRedis  = "redis"
	DriverMongo  = "mongo"
)

// Open builds the Storage selected by cfg.StorageDriver. The returned close func
// releases the underlying connection and is never nil.
func Open(ctx context.Context, cfg *config.Config) (Storage, func() error, error) {
	noop := func() error { return nil }

	switch cfg.StorageDriver {
	case DriverMemory:
		return NewMemory(), noop, nil

	case DriverSQLite, DriverMySQL:
		open := db.NewSQLite
		target := cfg.SQLitePath
		if cfg.StorageDriver == DriverMySQL {
			open = db.NewMySQL
			target = cfg.MySQLDSN
		}
		gormDB, err := open(target)
		if err != nil {
			return nil, noop, err
		}
		s, err := NewGorm(gormDB)
		if err != nil {
			_ = db.Close(gormDB)
			return nil, noop, err
		}
		return s, func() error { return db.Close(gormDB) }, nil

	case DriverRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPass,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, noop, fmt.Errorf("ping redis: %w", err)
		}
		return NewRedis(client, "tasknest:"), client.Close, nil

	case DriverMongo:
		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			return nil, noop, fmt.Errorf("connect mongo: %w", err)
		}
		if err := client.Ping(ctx, nil); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, noop, fmt.Errorf("ping mongo: %w", err)
		}
		coll := client.Database(cfg.MongoDB).Collection("blobs")
		return NewMongo(coll), func() error { return client.Disconnect(context.Background()) }, nil
	}

	return nil, noop, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
}
