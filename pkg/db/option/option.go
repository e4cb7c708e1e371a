package option

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/storagedesk/pkg/db/pagination"
	"gorm.io/gorm"
)

// QueryOption mutates a gorm statement before it is executed.
type QueryOption interface {
	Apply(db *gorm.DB) *gorm.DB
}

type QueryOptionFunc func(db *gorm.DB) *gorm.DB

func (f QueryOptionFunc) Apply(db *gorm.DB) *gorm.DB {
	return f(db)
}

func WithOrder(order string) QueryOption {
	return QueryOptionFunc(func(db *gorm.DB) *gorm.DB {
		return db.Order(order)
	})
}

func WithLimit(limit int) QueryOption {
	return QueryOptionFunc(func(db *gorm.DB) *gorm.DB {
		if limit <= 0 {
			return db
		}
		return db.Limit(limit)
	})
}

// ApplyPagination resumes after the cursor row (ordered by created_at desc,
// id desc) and fetches one extra row to detect the next page.
func ApplyPagination(page pagination.Pagination) QueryOption {
	return ApplyTablePagination("", page)
}

// ApplyTablePagination is ApplyPagination with the cursor columns qualified
// by table, for statements that join tables sharing column names.
func ApplyTablePagination(table string, page pagination.Pagination) QueryOption {
	createdCol, idCol := "created_at", "id"
	if table != "" {
		createdCol, idCol = table+".created_at", table+".id"
	}
	return QueryOptionFunc(func(db *gorm.DB) *gorm.DB {
		if cursor, err := pagination.ParseToken(page.PageToken); err == nil {
			if id, err := snowflake.ParseString(cursor.ID); err == nil {
				db = db.Where(
					createdCol+" < ? OR ("+createdCol+" = ? AND "+idCol+" < ?)",
					cursor.CreatedAt, cursor.CreatedAt, id,
				)
			}
		}
		if page.PageSize > 0 {
			db = db.Limit(page.PageSize + 1)
		}
		return db
	})
}
