// Package store opens the relational database behind a dialect-neutral
// surface. The driver is chosen once at startup from configuration; call
// sites only ever see *gorm.DB.
package store

import (
	"fmt"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"auths/internal/models"
)

type openFn func(dsn string) gorm.Dialector

var drivers = map[string]openFn{
	"postgres": postgres.Open,
	"mysql":    mysql.Open,
	"sqlite":   sqlite.Open,
}

// Open connects using the named driver and runs schema migration.
func Open(driver, dsn string) (*gorm.DB, error) {
	open, ok := drivers[driver]
	if !ok {
		return nil, fmt.Errorf("store: unknown driver %q", driver)
	}
	db, err := gorm.Open(open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("store: connect: %w", err)
	}
	if err := db.AutoMigrate(models.All()...); err != nil {
		return nil, fmt.Errorf("store: migrate: %w", err)
	}
	return db, nil
}
