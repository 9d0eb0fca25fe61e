package visits

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/k-lohani/ruthieAI/internal/data/db"
	"github.com/k-lohani/ruthieAI/internal/domain"
	"github.com/k-lohani/ruthieAI/internal/pkg/errors"
	"github.com/k-lohani/ruthieAI/internal/platform/logger"
)

type Repo interface {
	Insert(ctx context.Context, v *domain.Visit) error
	// GetLatestByPatient returns (nil, nil) when the patient has no visits.
	GetLatestByPatient(ctx context.Context, patientID uuid.UUID) (*domain.Visit, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit int) ([]*domain.Visit, error)
}

type repo struct {
	pool db.Pool
	log  *logger.Logger
}

func NewRepo(pool db.Pool, baseLog *logger.Logger) Repo {
	return &repo{
		pool: pool,
		log:  baseLog.With("repo", "VisitRepo"),
	}
}

func (r *repo) Insert(ctx context.Context, v *domain.Visit) error {
	if v == nil || v.PatientID == uuid.Nil {
		return fmt.Errorf("visit: %w", errors.ErrInvalidArgument)
	}
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	return conn.WithContext(ctx).Create(v).Error
}

func (r *repo) GetLatestByPatient(ctx context.Context, patientID uuid.UUID) (*domain.Visit, error) {
	if patientID == uuid.Nil {
		return nil, fmt.Errorf("patient id: %w", errors.ErrInvalidArgument)
	}
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	var v domain.Visit
	err = conn.WithContext(ctx).
		Where("patient_id = ?", patientID).
		Order("timestamp DESC").
		Limit(1).
		Find(&v).Error
	if err != nil {
		return nil, err
	}
	if v.ID == uuid.Nil {
		return nil, nil
	}
	return &v, nil
}

func (r *repo) ListByPatient(ctx context.Context, patientID uuid.UUID, limit int) ([]*domain.Visit, error) {
	if patientID == uuid.Nil {
		return nil, fmt.Errorf("patient id: %w", errors.ErrInvalidArgument)
	}
	if limit <= 0 {
		limit = 20
	}
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	var out []*domain.Visit
	err = conn.WithContext(ctx).
		Where("patient_id = ?", patientID).
		Order("timestamp DESC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
