package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/samirrijal/elevprofile/internal/pkg/config"
	"github.com/samirrijal/elevprofile/migrations"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: migrate <up|down>")
	}
	direction := os.Args[1]
	if direction != "up" && direction != "down" {
		log.Fatalf("unknown command: %s", direction)
	}

	cfg, err := config.Load("elevprofile-migrate")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	runMigrations(ctx, pool, direction)
}

func runMigrations(ctx context.Context, pool *pgxpool.Pool, direction string) {
	files, err := migrations.Files(direction)
	if err != nil {
		log.Fatalf("list migrations: %v", err)
	}

	for _, f := range files {
		sql, err := migrations.Read(f)
		if err != nil {
			log.Fatalf("read %s: %v", f, err)
		}

		if _, err := pool.Exec(ctx, sql); err != nil {
			log.Fatalf("exec %s: %v", f, err)
		}

		fmt.Printf("OK  %s\n", f)
	}

	log.Printf("all %s migrations applied", direction)
}
