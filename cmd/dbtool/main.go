package main

import (
	"database/sql"
	"flag"
	"log"

	"github.com/joho/godotenv"

	"school-bus-trip-service/internal/adapters/repositories"
	"school-bus-trip-service/internal/config"
	"school-bus-trip-service/internal/platform/db"
)

// dbtool creates the schema and loads OPT seed rows, into postgres when
// DATABASE_URL is set and into the local sqlite file otherwise.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	seedPath := flag.String("seed", config.Get("SEED_PATH", "data/seeds/opt_routes.json"), "OPT seed file (empty to skip seeding)")
	table := flag.String("table", config.Get("OPT_TABLE", "nycsbus_opt_routes"), "OPT table name")
	flag.Parse()

	databaseURL := config.Get("DATABASE_URL", "")

	var (
		conn    *sql.DB
		dialect repositories.Dialect
		err     error
	)
	if databaseURL != "" {
		conn, err = db.Open(databaseURL)
		dialect = repositories.Postgres
	} else {
		conn, err = db.OpenSqlite(config.Get("DB_PATH", "data/app.db"))
		dialect = repositories.Sqlite
	}
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	initAndSeed(conn, dialect, *table, *seedPath)
}

func initAndSeed(conn *sql.DB, dialect repositories.Dialect, table, seedPath string) {
	log.Printf("Initializing database schema dialect=%s table=%s...", dialect, table)
	if err := repositories.InitSchema(conn, table); err != nil {
		log.Fatalf("schema initialization failed: %v", err)
	}
	log.Println("Schema ready.")

	if seedPath == "" {
		return
	}

	log.Println("Seeding database...")
	n, err := repositories.SeedFromJSON(conn, seedPath, table, dialect)
	if err != nil {
		log.Fatalf("seeding failed: %v", err)
	}
	log.Printf("Seeding complete. rows=%d", n)
}
