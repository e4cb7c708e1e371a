package db

import (
	"fmt"
	"net"
	"strings"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/smallbiznis/storagedesk/internal/config"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const (
	TypePostgres = "postgres"
	TypeMySQL    = "mysql"
	TypeSQLite   = "sqlite"
)

// Dialect picks the gorm driver for DATABASE_TYPE. All three store
// timestamps in UTC so rental dates compare the same way everywhere.
func Dialect(cfg config.Config) (gorm.Dialector, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.DBType)) {
	case TypePostgres:
		return postgres.Open(postgresDSN(cfg)), nil
	case TypeMySQL:
		return mysql.Open(mysqlDSN(cfg)), nil
	case TypeSQLite:
		return sqlite.Open(sqliteDSN(cfg)), nil
	default:
		return nil, fmt.Errorf("unsupported database type %q", cfg.DBType)
	}
}

func postgresDSN(cfg config.Config) string {
	sslmode := cfg.DBSSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	parts := []string{
		"host=" + quoteDSNValue(cfg.DBHost),
		"port=" + quoteDSNValue(cfg.DBPort),
		"user=" + quoteDSNValue(cfg.DBUser),
		"password=" + quoteDSNValue(cfg.DBPassword),
		"dbname=" + quoteDSNValue(cfg.DBName),
		"sslmode=" + sslmode,
		"TimeZone=UTC",
	}
	return strings.Join(parts, " ")
}

// quoteDSNValue quotes libpq keyword values that contain spaces or quotes.
func quoteDSNValue(value string) string {
	if value != "" && !strings.ContainsAny(value, ` '\`) {
		return value
	}
	value = strings.ReplaceAll(value, `\`, `\\`)
	value = strings.ReplaceAll(value, `'`, `\'`)
	return "'" + value + "'"
}

func mysqlDSN(cfg config.Config) string {
	dsn := mysqldriver.NewConfig()
	dsn.User = cfg.DBUser
	dsn.Passwd = cfg.DBPassword
	dsn.Net = "tcp"
	dsn.Addr = net.JoinHostPort(cfg.DBHost, cfg.DBPort)
	dsn.DBName = cfg.DBName
	dsn.ParseTime = true
	dsn.Loc = time.UTC
	dsn.Params = map[string]string{"charset": "utf8mb4"}
	return dsn.FormatDSN()
}

func sqliteDSN(cfg config.Config) string {
	path := strings.TrimSpace(cfg.DBSQLitePath)
	if path == "" {
		path = "storagedesk.db"
	}
	return path + "?_foreign_keys=on"
}
