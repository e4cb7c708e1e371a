package db

import (
	"testing"

	"github.com/smallbiznis/storagedesk/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresDSNQuotesValues(t *testing.T) {
	dsn := postgresDSN(config.Config{
		DBHost:     "db.internal",
		DBPort:     "5432",
		DBUser:     "desk",
		DBPassword: "it's secret",
		DBName:     "storagedesk",
	})
	assert.Equal(t, `host=db.internal port=5432 user=desk password='it\'s secret' dbname=storagedesk sslmode=disable TimeZone=UTC`, dsn)
}

func TestMySQLDSNUsesUTC(t *testing.T) {
	dsn := mysqlDSN(config.Config{
		DBHost:     "127.0.0.1",
		DBPort:     "3306",
		DBUser:     "desk",
		DBPassword: "pw",
		DBName:     "storagedesk",
	})
	assert.Contains(t, dsn, "desk:pw@tcp(127.0.0.1:3306)/storagedesk?")
	assert.Contains(t, dsn, "parseTime=true")
	assert.Contains(t, dsn, "charset=utf8mb4")
}

func TestDialectRejectsUnknownType(t *testing.T) {
	_, err := Dialect(config.Config{DBType: "oracle"})
	require.Error(t, err)

	d, err := Dialect(config.Config{DBType: "SQLite", DBSQLitePath: "/tmp/desk.db"})
	require.NoError(t, err)
	assert.Equal(t, "sqlite", d.Name())
	assert.Equal(t, "/tmp/desk.db?_foreign_keys=on", sqliteDSN(config.Config{DBSQLitePath: "/tmp/desk.db"}))
}
