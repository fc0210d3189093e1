package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository aggregate of all repositories
type Repository struct {
	db *gorm.DB

	Floor   FloorRepository
	Section SectionRepository
	Table   TableRepository
	Session SessionRepository
	Merge   MergeRepository
	History HistoryRepository
	Shift   ShiftRepository
}

// NewRepository builds the aggregate
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:      db,
		Floor:   NewFloorRepo(db),
		Section: NewSectionRepo(db),
		Table:   NewTableRepo(db),
		Session: NewSessionRepo(db),
		Merge:   NewMergeRepo(db),
		History: NewHistoryRepo(db),
		Shift:   NewShiftRepo(db),
	}
}

// BeginTx starts a transaction. Returns nil tx when the aggregate has no db (mocks in tests).
func (r *Repository) BeginTx(ctx context.Context) (*gorm.DB, error) {
	if r.db == nil {
		return nil, nil
	}
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	return tx, nil
}

// WithTx returns an aggregate bound to tx; nil tx returns r unchanged
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return NewRepository(tx)
}

// RunInTx runs fn in one transaction, committing on nil and rolling back on error or panic
func (r *Repository) RunInTx(ctx context.Context, fn func(txRepo *Repository) error) (err error) {
	tx, err := r.BeginTx(ctx)
	if err != nil {
		return err
	}
	if tx == nil {
		return fn(r)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err = fn(r.WithTx(tx)); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit().Error
}

// forUpdate row lock; ignored by dialects without FOR UPDATE support
func forUpdate(db *gorm.DB) *gorm.DB {
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}
