package db

import (
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// OpenSQLite opens an sqlite database and migrates it. Used by tests and the
// sqlite driver; ":memory:" keeps a single connection so every query sees
// the same database.
func OpenSQLite(dsn string) (*gorm.DB, error) {
	cfg := newGormConfig()
	cfg.Logger = gormlogger.Default.LogMode(gormlogger.Silent)

	gdb, err := gorm.Open(sqlite.Open(dsn), cfg)
	if err != nil {
		return nil, err
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := Migrate(gdb); err != nil {
		return nil, err
	}
	return gdb, nil
}
