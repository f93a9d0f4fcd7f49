package main

import (
	"database/sql"
	"flag"
	"log"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"deskmatch/migrations"
)

func main() {
	var command string
	flag.StringVar(&command, "cmd", "up", "goose command: up, down, status")
	flag.Parse()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL is required")
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		log.Fatalf("set dialect: %v", err)
	}

	var runErr error
	switch command {
	case "up":
		runErr = goose.Up(db, ".")
	case "down":
		runErr = goose.Down(db, ".")
	case "status":
		runErr = goose.Status(db, ".")
	default:
		log.Fatalf("unknown command %q", command)
	}
	if runErr != nil {
		log.Fatalf("migrate %s: %v", command, runErr)
	}
}
