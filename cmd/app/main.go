// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	_ "time/tzdata" // Africa/Lagos on hosts without zoneinfo

	"codeberg.org/cyberguard-ng/cyberguard/internal/config"
	"codeberg.org/cyberguard-ng/cyberguard/internal/database"
	"codeberg.org/cyberguard-ng/cyberguard/internal/server"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
)

// Version information (set via ldflags during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatal(err)
	}

	cmd := &cli.Command{
		Name:    "cyberguard",
		Usage:   "Fraud awareness API for USSD codes, SMS messages and links",
		Version: fmt.Sprintf("%s (built %s)", Version, BuildTime),
		Flags:   config.Flags(),
		Action:  server.Run,
		Commands: []*cli.Command{
			migrateCommand(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Manage the database schema",
		Commands: []*cli.Command{
			{Name: "up", Usage: "Apply pending migrations", Action: migrate(database.RunMigrations)},
			{Name: "down", Usage: "Roll back the last migration", Action: migrate(database.MigrateDown)},
			{Name: "reset", Usage: "Roll back all migrations", Action: migrate(database.MigrateReset)},
			{Name: "status", Usage: "Show migration status", Action: migrate(database.MigrateStatus)},
		},
	}
}

func migrate(run func(*sql.DB, string) error) cli.ActionFunc {
	return func(_ context.Context, cmd *cli.Command) error {
		cfg := config.NewFromCLI(cmd)
		if cfg.Database.Driver == server.DriverMemory {
			return errors.New("the memory store has no schema to migrate")
		}

		db, err := database.Connect(cfg.Database.Driver, cfg.Database.DSN)
		if err != nil {
			return err
		}
		defer func() {
			_ = db.Close()
		}()

		return run(db.DB, cfg.Database.Driver)
	}
}
