// Package repository holds the id-keyed CRUD shared by the gorm
// repositories whose tables use a snowflake "id" primary key.
package repository

import (
	"context"
	"errors"

	"github.com/smallbiznis/storagedesk/pkg/db/option"
	"gorm.io/gorm"
)

type Store[T any] struct {
	db *gorm.DB
}

// On binds a store to db, which may be a transaction.
func On[T any](db *gorm.DB) Store[T] {
	return Store[T]{db: db}
}

func (s Store[T]) Create(ctx context.Context, row *T) error {
	return s.db.WithContext(ctx).Create(row).Error
}

// FindOne matches the non-zero fields of where. A missing row is (nil, nil).
func (s Store[T]) FindOne(ctx context.Context, where *T, opts ...option.QueryOption) (*T, error) {
	stmt := s.db.WithContext(ctx).Model(new(T)).Where(where)
	for _, opt := range opts {
		stmt = opt.Apply(stmt)
	}

	var row T
	if err := stmt.Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// Update writes fields as given, zero values included.
func (s Store[T]) Update(ctx context.Context, id any, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Model(new(T)).Where("id = ?", id).Updates(fields).Error
}

func (s Store[T]) Delete(ctx context.Context, id any) error {
	return s.db.WithContext(ctx).Where("id = ?", id).Delete(new(T)).Error
}
