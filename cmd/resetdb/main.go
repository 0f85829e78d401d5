// Package main is an operator tool that wipes all application data. It
// replaces the unauthenticated delete-everything HTTP endpoint some older
// deployments carried: a destructive reset must be a deliberate offline
// action, never a route an unauthenticated caller can hit. The tool refuses
// to run without the --yes flag and prints per-table row counts before
// truncating, so an accidental invocation shows what would be lost instead
// of losing it.
package main

import (
	"fmt"
	"log"
	"os"

	_ "github.com/lib/pq"

	"github.com/fest-dev/fest/internal/config"
	"github.com/fest-dev/fest/internal/db"
)

// Truncation order is irrelevant with CASCADE but listing every table keeps
// the output explicit about what is wiped.
var tables = []string{
	"invitations",
	"organization_users",
	"users",
	"organizations",
}

func main() {
	confirmed := false
	for _, arg := range os.Args[1:] {
		if arg == "--yes" || arg == "-y" {
			confirmed = true
		}
	}

	configPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	database, err := db.Connect(cfg.Database.GetDSN(), cfg.Database.MaxConnections, cfg.Database.MinIdleConnections)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer database.Close()

	fmt.Printf("Target database: %s@%s:%d/%s\n\n", cfg.Database.User, cfg.Database.Host, cfg.Database.Port, cfg.Database.Name)

	for _, table := range tables {
		var count int
		if err := database.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&count); err != nil {
			log.Fatalf("Failed to count rows in %s: %v", table, err)
		}
		fmt.Printf("  %-20s %d rows\n", table, count)
	}

	if !confirmed {
		fmt.Println("\nDry run. Re-run with --yes to truncate all tables above.")
		return
	}

	for _, table := range tables {
		if _, err := database.Exec(fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)); err != nil {
			log.Fatalf("Failed to truncate %s: %v", table, err)
		}
		fmt.Printf("Truncated %s\n", table)
	}

	fmt.Println("\nAll application data removed.")
}
