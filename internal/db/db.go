package db

import (
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// Open connects to the database named by driver and dsn.
func Open(driver, dsn string, log logrus.FieldLogger) (*gorm.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("db: DATABASE_URL is required for the %s backend", driver)
	}

	var dialector gorm.Dialector
	switch driver {
	case DriverSQLite:
		dialector = sqlite.Open(dsn)
	case DriverPostgres:
		dialector = postgres.Open(dsn)
	case DriverMySQL:
		dialector = mysql.Open(dsn)
	default:
		return nil, fmt.Errorf("db: unsupported driver %q", driver)
	}

	newLogger := gormlogger.New(
		log,
		gormlogger.Config{
			SlowThreshold:             500 * time.Millisecond,
			IgnoreRecordNotFoundError: true,
			LogLevel:                  gormlogger.Warn,
		},
	)

	conn, err := gorm.Open(dialector, &gorm.Config{Logger: newLogger, TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("db: connect %s: %w", driver, err)
	}

	if driver == DriverSQLite {
		// one writer at a time, avoids SQLITE_BUSY under concurrent requests
		sqlDB, err := conn.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	log.WithField("driver", driver).Info("Database connection established")
	return conn, nil
}

// Migrate creates or updates the given tables.
func Migrate(conn *gorm.DB, tables ...any) error {
	if err := conn.AutoMigrate(tables...); err != nil {
		return fmt.Errorf("db: migrate: %w", err)
	}
	return nil
}
