/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package db opens the session database and runs migrations.
package db

import (
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/friendsincode/gjallar/internal/config"
	"github.com/friendsincode/gjallar/internal/models"
)

// Connect opens the configured database backend.
func Connect(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DBBackend {
	case config.DatabaseSQLite:
		dialector = sqlite.Open(cfg.DBDSN)
	case config.DatabasePostgres:
		dialector = postgres.Open(cfg.DBDSN)
	case config.DatabaseMySQL:
		dialector = mysql.Open(cfg.DBDSN)
	default:
		return nil, fmt.Errorf("unsupported db backend: %s", cfg.DBBackend)
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return gdb, nil
}

// Migrate applies the schema.
func Migrate(gdb *gorm.DB) error {
	return gdb.AutoMigrate(
		&models.PlaylistItem{},
		&models.Jingle{},
		&models.ScheduleConfig{},
		&models.FixedTime{},
	)
}
