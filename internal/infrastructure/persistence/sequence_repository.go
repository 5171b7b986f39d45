package persistence

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// GormSequenceRepository implements billing.SequenceRepository using GORM.
// Counters live in the number_sequences table, one row per (scope, year).
type GormSequenceRepository struct {
	db *gorm.DB
}

// NewGormSequenceRepository creates a new GormSequenceRepository
func NewGormSequenceRepository(db *gorm.DB) *GormSequenceRepository {
	return &GormSequenceRepository{db: db}
}

// NextNumber atomically allocates the next number for a scope and year.
// The UPDATE takes a row lock, so concurrent allocations serialize and
// every caller sees a distinct value. Numbers are gapless as long as
// the enclosing operation commits; an abandoned allocation leaves a gap
// only if the caller already consumed the value outside the database.
func (r *GormSequenceRepository) NextNumber(ctx context.Context, scope string, year int) (int64, error) {
	if scope == "" {
		return 0, fmt.Errorf("sequence scope cannot be empty")
	}
	if year <= 0 {
		return 0, fmt.Errorf("sequence year must be positive, got %d", year)
	}

	var next int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()

		if err := tx.Exec(
			`INSERT INTO number_sequences (scope, year, counter, updated_at) VALUES (?, ?, 0, ?)
			 ON CONFLICT (scope, year) DO NOTHING`,
			scope, year, now,
		).Error; err != nil {
			return err
		}

		return tx.Raw(
			`UPDATE number_sequences SET counter = counter + 1, updated_at = ?
			 WHERE scope = ? AND year = ?
			 RETURNING counter`,
			now, scope, year,
		).Scan(&next).Error
	})
	if err != nil {
		return 0, err
	}
	return next, nil
}
