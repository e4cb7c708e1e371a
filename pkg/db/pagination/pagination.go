package pagination

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"time"
)

var ErrInvalidPageToken = errors.New("invalid page token")

// MaxPageSize bounds page_size on every list endpoint.
const MaxPageSize = 250

// Pagination binds ?page_token= and ?page_size= on list endpoints.
type Pagination struct {
	PageToken string `form:"page_token"`
	PageSize  int    `form:"page_size"`
}

// Normalize rejects a malformed page token and bounds the page size,
// falling back to def when the client sent none.
func (p Pagination) Normalize(def int) (Pagination, error) {
	if p.PageToken != "" {
		if _, err := ParseToken(p.PageToken); err != nil {
			return Pagination{}, err
		}
	}
	switch {
	case p.PageSize <= 0:
		p.PageSize = def
	case p.PageSize > MaxPageSize:
		p.PageSize = MaxPageSize
	}
	return p, nil
}

// Cursor is the last row of a page in (created_at desc, id desc) order.
type Cursor struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

// Token is the opaque page_token handed back to clients.
func (c Cursor) Token() string {
	raw, _ := json.Marshal(c)
	return base64.RawURLEncoding.EncodeToString(raw)
}

func ParseToken(token string) (Cursor, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, ErrInvalidPageToken
	}

	var c Cursor
	if err := json.Unmarshal(raw, &c); err != nil {
		return Cursor{}, ErrInvalidPageToken
	}
	if c.ID == "" || c.CreatedAt.IsZero() {
		return Cursor{}, ErrInvalidPageToken
	}
	return c, nil
}

type PageInfo struct {
	NextPageToken string `json:"next_page_token"`
	HasMore       bool   `json:"has_more"`
}

// Trim drops the look-ahead row that repositories fetch past limit and
// points the next page at the last row kept.
func Trim[T any](rows []*T, limit int, cursorOf func(*T) Cursor) ([]*T, PageInfo) {
	if limit <= 0 || len(rows) <= limit {
		return rows, PageInfo{}
	}
	rows = rows[:limit]
	return rows, PageInfo{
		HasMore:       true,
		NextPageToken: cursorOf(rows[limit-1]).Token(),
	}
}
