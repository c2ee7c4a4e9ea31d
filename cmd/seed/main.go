// Command main runs the database seeder for the Lobby backend.
package main

import (
	"flag"
	"log"

	"lobby/internal/config"
	"lobby/internal/database"
	"lobby/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 50, "Number of users to create")
	numRequests := flag.Int("requests", 100, "Number of friend requests to create")
	numRooms := flag.Int("rooms", 10, "Number of open match rooms to create")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	rosterPath := flag.String("roster", "", "Path to a roster YAML file of permanent accounts")
	flag.Parse()

	log.Println("🌱 Database Seeder")
	log.Println("==================")
	log.Printf("Target: %d users, %d requests, %d rooms, clean=%v\n",
		*numUsers, *numRequests, *numRooms, *shouldClean)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	s := seed.NewSeeder(db)

	if *shouldClean {
		if err := s.ClearAll(); err != nil {
			log.Fatalf("❌ Cleanup failed: %v", err)
		}
	}

	roster := &seed.DefaultRoster
	if *rosterPath != "" {
		roster, err = seed.LoadRoster(*rosterPath)
		if err != nil {
			log.Fatalf("❌ Roster load failed: %v", err)
		}
	}
	if err := seed.ApplyRoster(db, roster); err != nil {
		log.Fatalf("❌ Roster seeding failed: %v", err)
	}
	log.Printf("✓ %d roster accounts applied", len(roster.Accounts))

	err = s.Seed(seed.Options{
		NumUsers:    *numUsers,
		NumRequests: *numRequests,
		NumRooms:    *numRooms,
	})
	if err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	log.Println("✨ All done! Your database is now populated with test data.")
	log.Println("📧 All test users have the password: password123")
}
