package models

import (
	"log"

	"github.com/GrainArc/GeoCAD/config"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

var DB *gorm.DB

func InitDB() {
	var err error
	DB, err = gorm.Open(postgres.Open(config.DSN), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
		NamingStrategy: schema.NamingStrategy{SingularTable: true},
	})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := migrateAllTables(DB); err != nil {
		log.Printf("Failed to migrate tables: %v", err)
	}
}

// InitSQLiteDB opens a file or in-memory SQLite database. Used by tests and
// by single-machine deployments without PostGIS.
func InitSQLiteDB(dsn string) error {
	var err error
	DB, err = gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
		NamingStrategy: schema.NamingStrategy{SingularTable: true},
	})
	if err != nil {
		log.Printf("Failed to open sqlite database: %v", err)
		return err
	}
	return migrateAllTables(DB)
}

func migrateAllTables(db *gorm.DB) error {
	models := []interface{}{
		&Drawing{},
		&Layer{},
		&Entity{},
		&EntityData{},
		&SpatialRefSys{},
	}

	return db.AutoMigrate(models...)
}

func GetDB() *gorm.DB {
	return DB
}
