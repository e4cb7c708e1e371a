package migration

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	buildingdomain "github.com/smallbiznis/storagedesk/internal/building/domain"
	customerdomain "github.com/smallbiznis/storagedesk/internal/customer/domain"
	paymentdomain "github.com/smallbiznis/storagedesk/internal/payment/domain"
	rentaldomain "github.com/smallbiznis/storagedesk/internal/rental/domain"
	unitdomain "github.com/smallbiznis/storagedesk/internal/unit/domain"
	"github.com/smallbiznis/storagedesk/pkg/db"
	"gorm.io/gorm"
)

// Models lists every persisted entity in foreign key order.
func Models() []any {
	return []any{
		&buildingdomain.Building{},
		&unitdomain.Unit{},
		&customerdomain.Customer{},
		&rentaldomain.Rental{},
		&paymentdomain.Payment{},
	}
}

// Apply brings the schema up to date. Postgres runs the embedded SQL
// migrations; other dialects fall back to gorm AutoMigrate.
func Apply(conn *gorm.DB, dbType string) error {
	if conn == nil {
		return errors.New("migration database handle is required")
	}
	if strings.EqualFold(dbType, db.TypePostgres) {
		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB)
	}
	if err := conn.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	return nil
}

func RunMigrations(sqlDB *sql.DB) error {
	if sqlDB == nil {
		return errors.New("migration database handle is required")
	}

	sub, err := fs.Sub(embeddedMigrations, migrationsDir)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	driver, err := postgres.WithInstance(sqlDB, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	upErr := migrator.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", upErr)
	}
	// Closing the migrator would close the shared *sql.DB.

	return nil
}
