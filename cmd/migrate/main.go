package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/netstore-backend/pkg/config"
	"github.com/angelmondragon/netstore-backend/pkg/db"
	"github.com/angelmondragon/netstore-backend/pkg/logger"
	"github.com/angelmondragon/netstore-backend/pkg/migrate"
)

const usage = `usage: migrate [-dir path] <command> [arg]

commands:
  up               apply every pending migration
  down             roll back the latest migration
  status           print applied and pending migrations
  to <version>     move the schema to YYYYMMDDHHMMSS
  create <name>    write a new SQL migration (no database)
  validate         check migration files (no database)`

func main() {
	dir := flag.String("dir", migrate.DefaultDir, "goose migrations directory")
	flag.Usage = func() { fmt.Fprintln(os.Stderr, usage) }
	flag.Parse()
	command, arg := flag.Arg(0), flag.Arg(1)
	if command == "" {
		flag.Usage()
		os.Exit(2)
	}

	_ = godotenv.Load()
	logg := logger.New(logger.Options{ServiceName: "migrate"})
	ctx := logg.WithFields(context.Background(), map[string]any{"command": command, "dir": *dir})

	switch command {
	case "create":
		path, err := migrate.CreateSQLMigration(*dir, arg)
		exitOn(ctx, logg, "create migration", err)
		logg.Info(logg.WithField(ctx, "path", path), "migration created")
		return
	case "validate":
		exitOn(ctx, logg, "validate migrations", migrate.ValidateDir(*dir))
		logg.Info(ctx, "migrations valid")
		return
	}

	cfg, err := config.Load()
	exitOn(ctx, logg, "load config", err)
	if cfg.DB.Driver == config.DriverSQLite {
		exitOn(ctx, logg, "check driver", fmt.Errorf("goose migrations target postgres; sqlite applies its schema on boot"))
	}

	dbClient, err := db.New(ctx, cfg.DB, logg)
	exitOn(ctx, logg, "connect database", err)
	defer dbClient.Close()
	sqlDB, err := dbClient.DB().DB()
	exitOn(ctx, logg, "unwrap sql.DB", err)

	runner, err := migrate.NewRunner(sqlDB, *dir)
	exitOn(ctx, logg, "build runner", err)

	switch command {
	case "up":
		err = runner.Up(ctx)
	case "down":
		err = runner.Down(ctx)
	case "status":
		err = runner.Status(ctx)
	case "to":
		version, parseErr := strconv.ParseInt(arg, 10, 64)
		if parseErr != nil {
			exitOn(ctx, logg, "parse version", fmt.Errorf("version %q: %w", arg, parseErr))
		}
		err = runner.To(ctx, version)
	default:
		flag.Usage()
		os.Exit(2)
	}
	exitOn(ctx, logg, command, err)
	logg.Info(ctx, "migration command finished")
}

func exitOn(ctx context.Context, logg *logger.Logger, step string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, step+" failed", err)
	os.Exit(1)
}
