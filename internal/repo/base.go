package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// Base is embedded by repositories that switch between the pool and a tx.
type Base struct {
	db *gorm.DB
}

func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

func (b Base) DB(ctx context.Context) *gorm.DB {
	return b.db.WithContext(ctx)
}

// WithTx rebinds the base to tx. A nil tx keeps the current connection.
func (b Base) WithTx(tx *gorm.DB) Base {
	if tx == nil {
		return b
	}
	return Base{db: tx}
}

// FindOne loads the first T matching the condition. Missing rows yield nil, nil
// so services decide what not-found means to them.
func FindOne[T any](db *gorm.DB, query string, args ...any) (*T, error) {
	var row T
	err := db.Where(query, args...).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// UpdateWhere applies updates to rows of model matching the condition and
// reports whether any row changed. Callers encode their preconditions in the
// condition to get compare-and-set semantics.
func UpdateWhere(db *gorm.DB, model any, updates map[string]any, query string, args ...any) (bool, error) {
	res := db.Model(model).Where(query, args...).Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
