package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"vietlingo/config"
	"vietlingo/logger"
	"vietlingo/repository"
)

// DbInstance holds the open connection for whichever driver is configured
type DbInstance struct {
	Db    *gorm.DB
	Mongo *mongo.Client
	Store *repository.Store
}

// Database is the global database instance
var Database DbInstance

const connectTimeout = 10 * time.Second

// ConnectDb opens the configured backend, runs migrations (or index creation for mongo)
// and installs the repository store globally.
func ConnectDb(ctx context.Context, cfg *config.Config) (*repository.Store, error) {
	if cfg.DBDriver == "mongo" {
		return connectMongo(ctx, cfg)
	}

	db, err := OpenGorm(cfg)
	if err != nil {
		return nil, err
	}

	// Set up connection pooling
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get database instance: %w", err)
	}
	sqlDB.SetMaxOpenConns(10)   // Maximum open connections
	sqlDB.SetMaxIdleConns(5)    // Maximum idle connections
	sqlDB.SetConnMaxLifetime(0) // No timeout

	// Run database migrations
	if err := runMigrations(db); err != nil {
		return nil, err
	}

	store := repository.NewGormStore(db)
	Database = DbInstance{Db: db, Store: store}
	return store, nil
}

// OpenGorm opens a gorm connection for the postgres, mysql or sqlite driver.
func OpenGorm(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "postgres", "":
		dialector = postgres.Open(fmt.Sprintf(
			"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
			cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort,
		))
	case "mysql":
		dialector = mysql.Open(fmt.Sprintf(
			"%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName,
		))
	case "sqlite":
		dialector = sqlite.Open(cfg.DBPath)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}

	logLevel := gormlogger.Warn
	if cfg.Env == "production" {
		logLevel = gormlogger.Error
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(logLevel),
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", cfg.DBDriver, err)
	}
	logger.Log.Info("Connected to database", zap.String("driver", dialector.Name()))
	return db, nil
}

func connectMongo(ctx context.Context, cfg *config.Config) (*repository.Store, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	db := client.Database(cfg.MongoDB)
	logger.Log.Info("Creating mongo indexes...", zap.String("database", cfg.MongoDB))
	if err := repository.EnsureMongoIndexes(ctx, db); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	store := repository.NewMongoStore(client, db)
	Database = DbInstance{Mongo: client, Store: store}
	return store, nil
}

// runMigrations performs database migrations
func runMigrations(db *gorm.DB) error {
	logger.Log.Info("Running Migrations...")

	if err := repository.Migrate(db); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	logger.Log.Info("Migrations completed successfully.")
	return nil
}

// Migrate opens the configured backend only to bring its schema or indexes up to date.
func Migrate(ctx context.Context, cfg *config.Config) error {
	store, err := ConnectDb(ctx, cfg)
	if err != nil {
		return err
	}
	return store.Close(ctx)
}
