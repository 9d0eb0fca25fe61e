package db

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/k-lohani/ruthieAI/internal/domain"
	"github.com/k-lohani/ruthieAI/internal/platform/envutil"
	"github.com/k-lohani/ruthieAI/internal/platform/logger"
)

const (
	reconnectAttempts = 3
	reconnectDelay    = 2 * time.Second
)

// Service owns the process-wide Postgres pool. Repos acquire a handle per
// operation via Acquire, which validates the connection and transparently
// reopens it (bounded attempts) when it has gone stale.
type Service struct {
	log *logger.Logger
	dsn string

	mu sync.Mutex
	db *gorm.DB
}

func NewService(logg *logger.Logger) (*Service, error) {
	serviceLog := logg.With("service", "PostgresService")

	host := envutil.String("POSTGRES_HOST", "localhost")
	port := envutil.String("POSTGRES_PORT", "5432")
	user := envutil.String("POSTGRES_USER", "postgres")
	password := envutil.String("POSTGRES_PASSWORD", "")
	name := envutil.String("POSTGRES_NAME", "ruthie")

	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		user, password, host, port, name,
	)

	s := &Service{log: serviceLog, dsn: dsn}
	if _, err := s.Acquire(context.Background()); err != nil {
		return nil, err
	}
	return s, nil
}

// Acquire returns a live *gorm.DB, reconnecting when the pooled connection no
// longer answers a ping. First use is guarded so concurrent callers share one
// pool.
func (s *Service) Acquire(ctx context.Context) (*gorm.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		if sqlDB, err := s.db.DB(); err == nil {
			if err := sqlDB.PingContext(ctx); err == nil {
				return s.db, nil
			}
			s.log.Warn("Postgres connection stale, reconnecting")
		}
		s.db = nil
	}

	var lastErr error
	for attempt := 1; attempt <= reconnectAttempts; attempt++ {
		db, err := open(s.dsn)
		if err == nil {
			s.db = db
			return s.db, nil
		}
		lastErr = err
		s.log.Warn("Postgres connect failed",
			"attempt", attempt,
			"max_attempts", reconnectAttempts,
			"error", err.Error(),
		)
		if attempt < reconnectAttempts {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(reconnectDelay):
			}
		}
	}
	return nil, fmt.Errorf("postgres connect: %w", lastErr)
}

// AutoMigrate creates/updates the patient and visit tables.
func (s *Service) AutoMigrate(ctx context.Context) error {
	db, err := s.Acquire(ctx)
	if err != nil {
		return err
	}
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
		return fmt.Errorf("enable uuid-ossp extension: %w", err)
	}
	return db.AutoMigrate(
		&domain.Patient{},
		&domain.Visit{},
	)
}

func open(dsn string) (*gorm.DB, error) {
	gormLog := gormLogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormLogger.Config{
			SlowThreshold:             1 * time.Second,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormLog,
	})
	if err != nil {
		return nil, err
	}
	return db, nil
}
