package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/smallbiznis/storagedesk/internal/ledger/domain"
	"gorm.io/gorm"
)

const (
	opSelect = "select"
	opInsert = "insert"
	opUpdate = "update"
	opDelete = "delete"
)

var (
	errEmptyFilter   = errors.New("refusing to write without a filter")
	errUnknownTable  = errors.New("unknown table")
	errInvalidColumn = errors.New("invalid column name")

	columnName = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)
)

// deletable lists the tables Delete may build raw statements for.
var deletable = map[string]struct{}{
	"buildings": {},
	"units":     {},
	"customers": {},
	"rentals":   {},
	"payments":  {},
}

// GormStore is the ledger's Store over a gorm connection.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Provide exposes the gorm store as the ledger's Store.
func Provide(db *gorm.DB) domain.Store {
	return NewGormStore(db)
}

func (s *GormStore) Select(ctx context.Context, table string, filter domain.Filter, dest any) error {
	q := s.db.WithContext(ctx).Table(table)
	if len(filter) > 0 {
		q = q.Where(map[string]any(filter))
	}
	if err := q.Order("id").Find(dest).Error; err != nil {
		return &domain.PersistenceError{Op: opSelect, Table: table, Err: err}
	}
	return nil
}

func (s *GormStore) Insert(ctx context.Context, table string, row any) error {
	if err := s.db.WithContext(ctx).Table(table).Create(row).Error; err != nil {
		return &domain.PersistenceError{Op: opInsert, Table: table, Err: err}
	}
	return nil
}

func (s *GormStore) Update(ctx context.Context, table string, filter domain.Filter, patch map[string]any) error {
	if len(filter) == 0 {
		return &domain.PersistenceError{Op: opUpdate, Table: table, Err: errEmptyFilter}
	}
	if len(patch) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).
		Table(table).
		Where(map[string]any(filter)).
		Updates(patch).Error
	if err != nil {
		return &domain.PersistenceError{Op: opUpdate, Table: table, Err: err}
	}
	return nil
}

func (s *GormStore) Delete(ctx context.Context, table string, filter domain.Filter) error {
	query, args, err := buildDelete(table, filter)
	if err != nil {
		return &domain.PersistenceError{Op: opDelete, Table: table, Err: err}
	}
	if err := s.db.WithContext(ctx).Exec(query, args...).Error; err != nil {
		return &domain.PersistenceError{Op: opDelete, Table: table, Err: err}
	}
	return nil
}

func (s *GormStore) WithinTransaction(ctx context.Context, fn func(domain.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

// buildDelete renders a DELETE with one equality condition per filter key,
// in key order so the statement text is stable.
func buildDelete(table string, filter domain.Filter) (string, []any, error) {
	if _, ok := deletable[table]; !ok {
		return "", nil, fmt.Errorf("%w: %s", errUnknownTable, table)
	}
	if len(filter) == 0 {
		return "", nil, errEmptyFilter
	}

	keys := make([]string, 0, len(filter))
	for key := range filter {
		if !columnName.MatchString(key) {
			return "", nil, fmt.Errorf("%w: %q", errInvalidColumn, key)
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	conds := make([]string, 0, len(keys))
	args := make([]any, 0, len(keys))
	for _, key := range keys {
		conds = append(conds, key+" = ?")
		args = append(args, filter[key])
	}
	return "DELETE FROM " + table + " WHERE " + strings.Join(conds, " AND "), args, nil
}
