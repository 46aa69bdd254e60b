package data

import (
	"context"
	"fmt"
	"time"

	"github.com/lk2023060901/rag-search-gateway/internal/conf"
	"github.com/lk2023060901/rag-search-gateway/internal/knowledge/models"
	"github.com/lk2023060901/rag-search-gateway/internal/pkg/logger"
	"github.com/lk2023060901/rag-search-gateway/internal/pkg/milvus"
	"github.com/lk2023060901/rag-search-gateway/internal/pkg/redis"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Data bundles the infrastructure clients. Redis and Milvus are optional:
// a failed connection leaves the field nil and the dependent feature degrades
// (no caching, text-only knowledge search).
type Data struct {
	DB           *gorm.DB
	RedisClient  *redis.Client
	MilvusClient *milvus.Client
	Logger       *logger.Logger
}

// NewData connects to Postgres, Redis and Milvus.
func NewData(config *conf.Config, log *logger.Logger) (*Data, func(), error) {
	if log == nil {
		log = logger.L()
	}

	db, err := initDB(config, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to init database: %w", err)
	}

	redisClient, err := redis.New(&config.Redis, log)
	if err != nil {
		log.Warn("failed to init redis, caching disabled", zap.Error(err))
		redisClient = nil
	}

	milvusClient, err := milvus.New(context.Background(), &config.Milvus, log)
	if err != nil {
		log.Warn("failed to init milvus, semantic search disabled", zap.Error(err))
		milvusClient = nil
	}

	d := &Data{
		DB:           db,
		RedisClient:  redisClient,
		MilvusClient: milvusClient,
		Logger:       log,
	}

	cleanup := func() {
		log.Info("cleaning up data resources")

		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}

		if redisClient != nil {
			redisClient.Close()
		}

		if milvusClient != nil {
			milvusClient.Close(context.Background())
		}
	}

	return d, cleanup, nil
}

func initDB(config *conf.Config, log *logger.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(config.Database.DSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := models.AutoMigrate(context.Background(), db); err != nil {
		return nil, fmt.Errorf("failed to auto migrate: %w", err)
	}

	log.Info("database initialized successfully")
	return db, nil
}
