package main

import (
	"os"

	"github.com/golang-migrate/migrate"
	"github.com/golang-migrate/migrate/database/postgres"
	_ "github.com/golang-migrate/migrate/source/file"
	dbconf "github.com/kthomas/go-db-config"
	"github.com/nexusverse/core/common"
)

const defaultMigrationsPath = "file://./ops/migrations"

func main() {
	cfg := dbconf.GetDBConfig()

	db := dbconf.DatabaseConnection()
	driver, err := postgres.WithInstance(db.DB(), &postgres.Config{})
	if err != nil {
		common.Log.Panicf("failed to initialize postgres migration driver; %s", err.Error())
	}

	migrationsPath := os.Getenv("MIGRATIONS_PATH")
	if migrationsPath == "" {
		migrationsPath = defaultMigrationsPath
	}

	m, err := migrate.NewWithDatabaseInstance(migrationsPath, cfg.DatabaseName, driver)
	if err != nil {
		common.Log.Panicf("failed to initialize migrations; %s", err.Error())
	}

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		common.Log.Panicf("failed to apply migrations; %s", err.Error())
	}

	common.Log.Debug("migrations applied")
}
