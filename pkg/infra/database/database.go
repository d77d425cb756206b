package database

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// DB wraps the gorm handle used by the postgres cache backend.
type DB struct {
	logger *logrus.Logger
	*gorm.DB
}

type Config struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

func (c *Config) withDefaults() Config {
	out := *c
	if out.MaxOpenConns <= 0 {
		out.MaxOpenConns = 20
	}
	if out.MaxIdleConns <= 0 {
		out.MaxIdleConns = 10
	}
	if out.ConnMaxLifetime <= 0 {
		out.ConnMaxLifetime = 5 * time.Minute
	}
	if out.SSLMode == "" {
		out.SSLMode = "disable"
	}
	return out
}

// NewDB opens the connection, sizes the pool and applies pending migrations.
func NewDB(logger *logrus.Logger, cfg *Config) (*DB, error) {
	conf := cfg.withDefaults()
	logger.WithFields(logrus.Fields{
		"host":    conf.Host,
		"port":    conf.Port,
		"db":      conf.DBName,
		"user":    conf.User,
		"sslmode": conf.SSLMode,
	}).Info("connecting to database")

	gormDB, err := gorm.Open(postgres.Open(conf.DSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(conf.MaxOpenConns)
	sqlDB.SetMaxIdleConns(conf.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(conf.ConnMaxLifetime)
	logger.WithFields(logrus.Fields{
		"max_open_conns":    conf.MaxOpenConns,
		"max_idle_conns":    conf.MaxIdleConns,
		"conn_max_lifetime": conf.ConnMaxLifetime.String(),
	}).Info("configured database connection pool")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	db := &DB{logger: logger, DB: gormDB}
	if err := db.migrate(30 * time.Second); err != nil {
		return nil, err
	}
	return db, nil
}

func (db *DB) migrate(timeout time.Duration) error {
	manager := NewMigrationsManager(db.DB)
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- manager.ApplyPending()
	}()
	select {
	case err := <-errCh:
		if err != nil {
			db.logger.WithError(err).Error("failed to apply database migrations")
			return fmt.Errorf("failed to apply database migrations: %w", err)
		}
		db.logger.Info("database migrations applied")
		return nil
	case <-ctx.Done():
		db.logger.WithError(ctx.Err()).Error("database migrations timed out")
		return fmt.Errorf("database migrations timed out: %w", ctx.Err())
	}
}

func (db *DB) Close() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
