package main

import (
	"database/sql"
	"log"
	"os"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/RamonASM/aerialshots-portal-sub015/internal/adapters/repositories"
	"github.com/RamonASM/aerialshots-portal-sub015/internal/platform/db"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if strings.TrimSpace(databaseURL) == "" {
		log.Fatal("DATABASE_URL is required")
	}

	pool, err := db.Open(databaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()

	seedPath := getEnv("SEED_PATH", "data/seeds/jobs.json")
	if err := initAndSeed(pool, seedPath); err != nil {
		log.Fatal(err)
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func initAndSeed(pool *sql.DB, seedPath string) error {
	log.Println("Initializing database schema...")
	if err := repositories.InitSchema(pool); err != nil {
		return err
	}
	log.Println("Schema ready.")

	if _, err := os.Stat(seedPath); os.IsNotExist(err) {
		log.Printf("No seed file at %s, skipping seed.", seedPath)
		return nil
	}

	log.Println("Seeding database...")
	if err := repositories.SeedFromJSON(pool, seedPath); err != nil {
		return err
	}
	log.Println("Seeding complete.")

	return nil
}
