package pagination

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorToken(t *testing.T) {
	at := time.Date(2024, 3, 1, 8, 30, 0, 123, time.UTC)
	token := Cursor{ID: "42", CreatedAt: at}.Token()

	cursor, err := ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "42", cursor.ID)
	assert.True(t, cursor.CreatedAt.Equal(at))
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	for _, token := range []string{"%%%", "bm90LWpzb24", Cursor{}.Token()} {
		_, err := ParseToken(token)
		assert.ErrorIs(t, err, ErrInvalidPageToken, token)
	}
}

func TestTrim(t *testing.T) {
	type row struct{ id string }
	at := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	rows := []*row{{"1"}, {"2"}, {"3"}}
	cursorOf := func(r *row) Cursor { return Cursor{ID: r.id, CreatedAt: at} }

	kept, info := Trim(rows, 2, cursorOf)
	assert.Len(t, kept, 2)
	assert.True(t, info.HasMore)
	next, err := ParseToken(info.NextPageToken)
	require.NoError(t, err)
	assert.Equal(t, "2", next.ID)

	kept, info = Trim(rows, 3, cursorOf)
	assert.Len(t, kept, 3)
	assert.False(t, info.HasMore)
	assert.Empty(t, info.NextPageToken)

	kept, info = Trim([]*row{}, 3, cursorOf)
	assert.Empty(t, kept)
	assert.False(t, info.HasMore)
}

func TestNormalize(t *testing.T) {
	page, err := Pagination{}.Normalize(50)
	require.NoError(t, err)
	assert.Equal(t, 50, page.PageSize)

	page, err = Pagination{PageSize: 10}.Normalize(50)
	require.NoError(t, err)
	assert.Equal(t, 10, page.PageSize)

	page, err = Pagination{PageSize: 10_000}.Normalize(50)
	require.NoError(t, err)
	assert.Equal(t, MaxPageSize, page.PageSize)

	token := Cursor{ID: "9", CreatedAt: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)}.Token()
	page, err = Pagination{PageToken: token}.Normalize(50)
	require.NoError(t, err)
	assert.Equal(t, token, page.PageToken)

	_, err = Pagination{PageToken: "!!"}.Normalize(50)
	assert.ErrorIs(t, err, ErrInvalidPageToken)
}
