// Package database is the gorm persistence adapter for drivers and users.
package database

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/dispatchhub/dispatch/config"
	"github.com/dispatchhub/dispatch/database/model"
	"github.com/dispatchhub/dispatch/util/clock"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	db     *gorm.DB
	dbType config.DatabaseType
)

// Records lists every record the adapter migrates and verifies.
func Records() []model.Describable {
	return []model.Describable{
		&model.Driver{},
		&model.User{},
	}
}

func initModels(conn *gorm.DB) error {
	for _, record := range Records() {
		if err := conn.AutoMigrate(record); err != nil {
			log.Printf("Error auto migrating model: %v", err)
			return err
		}
	}
	return nil
}

// VerifySchema checks that every column and unique index declared by the
// records' descriptors exists in the connected database.
func VerifySchema(conn *gorm.DB, records ...model.Describable) error {
	migrator := conn.Migrator()
	for _, record := range records {
		d := record.Descriptor()
		for _, f := range d.Fields {
			if !migrator.HasColumn(record, f.Column) {
				return fmt.Errorf("table %s: missing column %s", d.Table, f.Column)
			}
			if f.Unique {
				idx := conn.NamingStrategy.IndexName(d.Table, f.Column)
				if !migrator.HasIndex(record, idx) {
					return fmt.Errorf("table %s: missing unique index %s", d.Table, idx)
				}
			}
		}
	}
	return nil
}

// Open connects to the configured engine, migrates and verifies the schema.
// Timestamps gorm fills on its own come from clk.
func Open(cfg *config.DatabaseConfig, clk clock.Clock) (*gorm.DB, error) {
	if err := cfg.ValidateConfig(); err != nil {
		return nil, err
	}

	var gormLogger logger.Interface
	if config.IsDebug() {
		gormLogger = logger.Default
	} else {
		gormLogger = logger.Discard
	}

	c := &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
		TranslateError:         true,
		NowFunc:                func() time.Time { return clk.Now() },
	}

	var dialector gorm.Dialector
	switch cfg.Type {
	case config.DatabaseTypePostgreSQL:
		dialector = postgres.Open(cfg.GetDSN())
	default:
		if err := cfg.EnsureDirectoryExists(); err != nil {
			return nil, err
		}
		dsn := cfg.GetDSN() + "?cache=shared&_journal_mode=WAL&_synchronous=NORMAL"
		dialector = sqlite.Open(dsn)
	}

	conn, err := gorm.Open(dialector, c)
	if err != nil {
		return nil, err
	}

	if cfg.IsSQLite() {
		sqlDB, err := conn.DB()
		if err != nil {
			return nil, err
		}
		for _, pragma := range []string{
			"PRAGMA cache_size = -64000;",
			"PRAGMA temp_store = MEMORY;",
			"PRAGMA foreign_keys = ON;",
		} {
			if _, err := sqlDB.Exec(pragma); err != nil {
				return nil, err
			}
		}
	}

	if err := initModels(conn); err != nil {
		return nil, err
	}
	if err := VerifySchema(conn, Records()...); err != nil {
		return nil, err
	}
	return conn, nil
}

// InitDB opens the process-wide connection returned by GetDB.
func InitDB(cfg *config.DatabaseConfig, clk clock.Clock) error {
	conn, err := Open(cfg, clk)
	if err != nil {
		return err
	}
	db = conn
	dbType = cfg.Type
	return nil
}

func CloseDB() error {
	if db != nil {
		if err := Checkpoint(); err != nil {
			log.Printf("error executing checkpoint: %v", err)
		}

		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		err = sqlDB.Close()
		db = nil
		return err
	}
	return nil
}

func GetDB() *gorm.DB {
	return db
}

// IsSQLite reports whether the process-wide connection is SQLite.
func IsSQLite() bool {
	return db != nil && dbType == config.DatabaseTypeSQLite
}

func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// IsConflict reports whether err is a unique constraint violation.
// The message checks cover drivers that do not translate errors.
func IsConflict(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}

// Checkpoint flushes the SQLite WAL into the main database file.
// It is a no-op for other engines.
func Checkpoint() error {
	if !IsSQLite() {
		return nil
	}
	return db.Exec("PRAGMA wal_checkpoint;").Error
}
