package db

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/glotbridge/glotbridge-backend/internal/platform/envutil"
	"github.com/glotbridge/glotbridge-backend/internal/platform/logger"
)

// Service owns the shared GORM handle. DB_DRIVER selects postgres
// (default) or sqlite for local single-process runs; skip-locked dequeues
// require postgres.
type Service struct {
	db     *gorm.DB
	driver string
	log    *logger.Logger
}

func NewService(logg *logger.Logger) (*Service, error) {
	serviceLog := logg.With("service", "DatabaseService")
	driver := strings.ToLower(envutil.String("DB_DRIVER", "postgres"))

	gormLog := gormLogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormLogger.Config{
			SlowThreshold:             1 * time.Second,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	cfg := &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormLog,
	}

	var (
		handle *gorm.DB
		err    error
	)
	switch driver {
	case "sqlite", "sqlite3":
		path := envutil.String("SQLITE_PATH", "glotbridge.db")
		handle, err = gorm.Open(sqlite.Open(path), cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite at %s: %w", path, err)
		}
	case "postgres", "postgresql":
		dsn := postgresDSN()
		handle, err = gorm.Open(postgres.Open(dsn), cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
		}
		if err := handle.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
			return nil, fmt.Errorf("failed to enable uuid-ossp extension: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown DB_DRIVER %q", driver)
	}

	return &Service{db: handle, driver: driver, log: serviceLog}, nil
}

func postgresDSN() string {
	if dsn := envutil.String("POSTGRES_DSN", ""); dsn != "" {
		return dsn
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		envutil.String("POSTGRES_USER", "postgres"),
		envutil.String("POSTGRES_PASSWORD", ""),
		envutil.String("POSTGRES_HOST", "localhost"),
		envutil.String("POSTGRES_PORT", "5432"),
		envutil.String("POSTGRES_NAME", "glotbridge"),
	)
}

func (s *Service) DB() *gorm.DB { return s.db }

// SupportsSkipLocked reports whether the backing store understands
// FOR UPDATE SKIP LOCKED.
func (s *Service) SupportsSkipLocked() bool {
	return s.driver == "postgres" || s.driver == "postgresql"
}

func (s *Service) AutoMigrateAll() error {
	return AutoMigrateAll(s.db)
}
