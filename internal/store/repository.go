// Package store is the persistence layer for clinic records. Repositories are
// stateless; every call takes the *gorm.DB handle of the current request or
// transaction.
package store

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	ErrNotFound   = errors.New("record not found")
	ErrForeignKey = errors.New("foreign key violation")
)

const pgForeignKeyViolation = "23503"

// Repository implements create, list, get, update and delete for one record type.
type Repository[T any] struct {
	name string
}

// NewRepository returns a repository for records of type T. The name is used
// in error messages ("doctor", "patient").
func NewRepository[T any](name string) *Repository[T] {
	return &Repository[T]{name: name}
}

// Name returns the record kind handled by the repository.
func (r *Repository[T]) Name() string {
	return r.name
}

// Create inserts rec. The store assigns the primary key and rec is refreshed in place.
func (r *Repository[T]) Create(db *gorm.DB, rec *T) error {
	if err := db.Create(rec).Error; err != nil {
		return r.wrap("create", err)
	}
	return nil
}

// List returns every record ordered by id.
func (r *Repository[T]) List(db *gorm.DB) ([]T, error) {
	recs := []T{}
	if err := db.Order("id").Find(&recs).Error; err != nil {
		return nil, r.wrap("list", err)
	}
	return recs, nil
}

// Get returns the record with the given id or ErrNotFound.
func (r *Repository[T]) Get(db *gorm.DB, id uint) (*T, error) {
	var rec T
	if err := db.First(&rec, id).Error; err != nil {
		return nil, r.wrap("get", err)
	}
	return &rec, nil
}

// Exists reports whether a record with the given id is present.
func (r *Repository[T]) Exists(db *gorm.DB, id uint) (bool, error) {
	var count int64
	if err := db.Model(new(T)).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, r.wrap("exists", err)
	}
	return count > 0, nil
}

// Update loads the record, lets apply overwrite its fields and saves the whole row.
func (r *Repository[T]) Update(db *gorm.DB, id uint, apply func(*T)) (*T, error) {
	rec, err := r.Get(db, id)
	if err != nil {
		return nil, err
	}
	apply(rec)
	if err := db.Save(rec).Error; err != nil {
		return nil, r.wrap("update", err)
	}
	return rec, nil
}

// Save writes every column of an already loaded record.
func (r *Repository[T]) Save(db *gorm.DB, rec *T) error {
	if err := db.Save(rec).Error; err != nil {
		return r.wrap("save", err)
	}
	return nil
}

// Delete removes the record permanently or returns ErrNotFound.
func (r *Repository[T]) Delete(db *gorm.DB, id uint) error {
	res := db.Delete(new(T), id)
	if res.Error != nil {
		return r.wrap("delete", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%s %d: %w", r.name, id, ErrNotFound)
	}
	return nil
}

func (r *Repository[T]) wrap(op string, err error) error {
	return fmt.Errorf("%s %s: %w", op, r.name, translate(err))
}

// translate maps driver errors onto the package sentinels.
func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return ErrForeignKey
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
		return fmt.Errorf("%w: %s", ErrForeignKey, pgErr.ConstraintName)
	}
	return err
}
