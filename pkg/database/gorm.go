package database

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"newsbox-topics/pkg/apperr"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type GormConfig struct {
	DSN          string
	Verbose      bool
	MaxIdleConns int
	MaxOpenConns int
}

func getLogger(verbose bool) logger.Interface {
	level := logger.Warn
	if verbose {
		level = logger.Info
	}
	return logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
			ParameterizedQueries:      true, // Don't include params in the SQL log
			Colorful:                  true,
		},
	)
}

func configureConnectionPool(db *gorm.DB, cfg GormConfig) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	idle, open := cfg.MaxIdleConns, cfg.MaxOpenConns
	if idle <= 0 {
		idle = 10
	}
	if open <= 0 {
		open = 100
	}
	sqlDB.SetMaxIdleConns(idle)
	sqlDB.SetMaxOpenConns(open)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return nil
}

func NewGormDB(cfg GormConfig) (*gorm.DB, error) {
	if cfg.DSN == "" {
		return nil, apperr.New(apperr.KindConfiguration, "open database", "DB_CONNECTION_STRING is empty",
			"set DB_CONNECTION_STRING to a postgres DSN with the pgvector extension installed")
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
		Logger: getLogger(cfg.Verbose),
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.KindConfiguration, "open database", DescribeError(err),
			"check DB_CONNECTION_STRING and that postgres is reachable")
	}

	if err := configureConnectionPool(db, cfg); err != nil {
		return nil, err
	}

	return db, nil
}

func NewGormDBFromDSN(dsn string) (*gorm.DB, error) {
	return NewGormDB(GormConfig{DSN: dsn})
}

// DescribeError adds the SQLSTATE and constraint of a postgres error to its message.
// Non-postgres errors are returned unchanged.
func DescribeError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	if pgErr.ConstraintName != "" {
		return fmt.Errorf("%w (sqlstate %s, constraint %s)", err, pgErr.Code, pgErr.ConstraintName)
	}
	return fmt.Errorf("%w (sqlstate %s)", err, pgErr.Code)
}
