// Command migrate applies the database schema.
//
// Production servers never auto-migrate on boot; run this during deploys
// instead.
package main

import (
	"log"

	"lobby/internal/config"
	"lobby/internal/database"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	log.Println("Schema applied successfully")
}
