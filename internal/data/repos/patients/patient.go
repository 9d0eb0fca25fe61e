package patients

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/k-lohani/ruthieAI/internal/data/db"
	"github.com/k-lohani/ruthieAI/internal/domain"
	"github.com/k-lohani/ruthieAI/internal/pkg/errors"
	"github.com/k-lohani/ruthieAI/internal/platform/logger"
)

type Repo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Patient, error)
	Create(ctx context.Context, p *domain.Patient) error
}

type repo struct {
	pool db.Pool
	log  *logger.Logger
}

func NewRepo(pool db.Pool, baseLog *logger.Logger) Repo {
	return &repo{
		pool: pool,
		log:  baseLog.With("repo", "PatientRepo"),
	}
}

// GetByID returns errors.ErrNotFound when no patient exists with id.
func (r *repo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Patient, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("patient id: %w", errors.ErrInvalidArgument)
	}
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	var p domain.Patient
	if err := conn.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("patient %s: %w", id, errors.ErrNotFound)
		}
		return nil, err
	}
	return &p, nil
}

func (r *repo) Create(ctx context.Context, p *domain.Patient) error {
	if p == nil {
		return fmt.Errorf("patient: %w", errors.ErrInvalidArgument)
	}
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	return conn.WithContext(ctx).Create(p).Error
}
