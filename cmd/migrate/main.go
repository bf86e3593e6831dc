package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/cartai/ledger/internal/app"
	"github.com/cartai/ledger/internal/db"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var errUsage = errors.New("usage: migrate up | down N | status")

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		return errUsage
	}

	_ = godotenv.Load()
	v := viper.New()
	_ = v.BindEnv("database_url", "DATABASE_URL", "CARTAI_DATABASE_URL")
	_ = v.BindEnv("log_level", "LOG_LEVEL", "CARTAI_LOG_LEVEL")
	databaseURL := v.GetString("database_url")
	if databaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	logger, err := app.NewLogger(v.GetString("log_level"))
	if err != nil {
		return err
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	switch args[0] {
	case "up":
		return db.MigrateUp(databaseURL)
	case "down":
		if len(args) < 2 {
			return errUsage
		}
		steps, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid step count %q: %w", args[1], err)
		}
		return db.MigrateDown(databaseURL, steps)
	case "status":
		status, err := db.Status(databaseURL)
		if err != nil {
			return err
		}
		if !status.Applied {
			fmt.Println("no migrations applied")
			return nil
		}
		fmt.Printf("version %d dirty=%t\n", status.Version, status.Dirty)
		return nil
	}
	return errUsage
}
