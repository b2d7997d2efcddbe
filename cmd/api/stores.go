package main

import (
	"context"
	"fmt"

	"github.com/crucial707/hci-catalog/internal/config"
	"github.com/crucial707/hci-catalog/internal/db"
	"github.com/crucial707/hci-catalog/internal/repo"
	"github.com/crucial707/hci-catalog/internal/repo/mongostore"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// openStores builds the product store and audit log for cfg.StoreDriver.
// The returned func releases the underlying connections.
func openStores(ctx context.Context, cfg config.Config, logger *zap.Logger) (deps, func(), error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		sqlDB, err := db.Connect(cfg.DBHost, cfg.DBPort, cfg.DBName, cfg.DBUser, cfg.DBPass,
			cfg.DBMaxOpenConns, cfg.DBMaxIdleConns)
		if err != nil {
			return deps{}, nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := db.Run(db.URL(cfg.DBHost, cfg.DBPort, cfg.DBName, cfg.DBUser, cfg.DBPass), logger); err != nil {
			sqlDB.Close()
			return deps{}, nil, err
		}
		return deps{
			Products: repo.NewProductRepo(sqlDB),
			Audit:    repo.NewAuditRepo(sqlDB),
			Ping:     sqlDB.PingContext,
			Logger:   logger,
		}, func() { sqlDB.Close() }, nil

	case config.DriverMongo:
		client, err := db.ConnectMongo(ctx, cfg.MongoURI)
		if err != nil {
			return deps{}, nil, err
		}
		database := client.Database(cfg.MongoDatabase)
		audit := mongostore.NewAuditRepo(database)
		if err := audit.EnsureIndexes(ctx); err != nil {
			_ = db.DisconnectMongo(context.Background(), client)
			return deps{}, nil, fmt.Errorf("ensure audit indexes: %w", err)
		}
		return deps{
			Products: mongostore.NewProductRepo(database),
			Audit:    audit,
			Ping: func(ctx context.Context) error {
				return client.Ping(ctx, readpref.Primary())
			},
			Logger: logger,
		}, func() { _ = db.DisconnectMongo(context.Background(), client) }, nil

	case config.DriverMemory:
		logger.Warn("memory store driver: data is lost on restart")
		return deps{
			Products: repo.NewMemoryProductRepo(nil),
			Audit:    repo.NewMemoryAuditRepo(nil),
			Logger:   logger,
		}, func() {}, nil
	}
	return deps{}, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}
