package main

import (
	"context"
	"fmt"
	"log"
	"os"

	_ "github.com/joho/godotenv/autoload"

	"apistarter/internal/config"
	"apistarter/internal/database"
)

const usage = `Usage: migrate <command>

Commands:
  up            apply all pending migrations
  down          roll back the most recent migration
  status        print the status of every migration
  create NAME   scaffold a new SQL migration file
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	cmd := os.Args[1]

	if cmd == "create" {
		if len(os.Args) < 3 {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(2)
		}
		if err := database.CreateMigration(os.Args[2]); err != nil {
			log.Fatalf("failed to create migration: %v", err)
		}
		return
	}

	cfg := config.Load()
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()

	switch cmd {
	case "up":
		err = database.MigrateUp(ctx, db)
	case "down":
		err = database.MigrateDownOne(ctx, db)
	case "status":
		err = database.MigrationStatus(ctx, db)
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("migration command %q failed: %v", cmd, err)
	}
}
