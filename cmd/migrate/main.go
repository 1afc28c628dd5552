package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"pulse-chat/config"
	"pulse-chat/pkg/database"
)

const usage = `
Pulse Chat - Database CLI Tool

Usage:
  migrate [command]

Commands:
  up          Apply the schema
  status      Show database connection status

Examples:
  go run cmd/migrate/main.go up
  go run cmd/migrate/main.go status
`

func main() {
	flag.Usage = func() {
		fmt.Print(usage)
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}

	cfg := config.LoadConfig()
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	switch flag.Arg(0) {
	case "up":
		log.Println("Running migrations...")
		if err := database.Migrate(db); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		log.Println("Migrations completed")
	case "status":
		if err := database.Ping(db); err != nil {
			log.Fatalf("Database connection failed: %v", err)
		}
		log.Println("Database connection: OK")
	default:
		fmt.Printf("Unknown command: %s\n", flag.Arg(0))
		flag.Usage()
		os.Exit(1)
	}
}
