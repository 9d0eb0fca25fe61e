package db

import (
	"context"

	"gorm.io/gorm"
)

// Pool is the scoped-acquisition surface repos depend on. Service is the
// production implementation; tests use Static over a transaction.
type Pool interface {
	Acquire(ctx context.Context) (*gorm.DB, error)
}

// Static wraps a fixed handle (typically a test transaction) as a Pool.
func Static(gdb *gorm.DB) Pool { return staticPool{db: gdb} }

type staticPool struct {
	db *gorm.DB
}

func (p staticPool) Acquire(ctx context.Context) (*gorm.DB, error) {
	return p.db.WithContext(ctx), nil
}
