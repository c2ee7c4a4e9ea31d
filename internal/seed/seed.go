// Package seed provides database seeding utilities for development and testing.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"lobby/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers    int
	NumRequests int
	NumRooms    int
	ShouldClean bool
}

// Seeder populates the database with fake accounts, mailbox traffic, and
// matchmaking rooms.
type Seeder struct {
	db *gorm.DB
	r  *rand.Rand
}

// NewSeeder creates a new Seeder bound to the provided Gorm DB.
func NewSeeder(db *gorm.DB) *Seeder {
	gofakeit.Seed(time.Now().UnixNano())
	//nolint:gosec // Weak random number generator is fine for seeding
	return &Seeder{db: db, r: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// ClearAll removes all seeded data so a fresh run starts from a clean slate.
func (s *Seeder) ClearAll() error {
	log.Println("🗑️  Clearing existing data...")
	sql := `TRUNCATE TABLE match_rooms, friend_requests, users RESTART IDENTITY CASCADE;`
	if err := s.db.Exec(sql).Error; err != nil {
		// sqlite has no TRUNCATE; fall back to per-table deletes
		for _, table := range []string{"match_rooms", "friend_requests", "users"} {
			if delErr := s.db.Exec("DELETE FROM " + table).Error; delErr != nil {
				return delErr
			}
		}
	}
	return nil
}

// Seed populates the database with test data.
func (s *Seeder) Seed(opts Options) error {
	log.Printf("🌱 Starting database seeding with %d users, %d requests, %d rooms...",
		opts.NumUsers, opts.NumRequests, opts.NumRooms)

	if opts.ShouldClean {
		if err := s.ClearAll(); err != nil {
			log.Println("⚠️  Warning: Could not clear all existing data, but continuing anyway...")
		}
	}

	users, err := s.CreateUsers(opts.NumUsers)
	if err != nil {
		return fmt.Errorf("failed to create users: %w", err)
	}
	log.Printf("✓ %d test users created", len(users))

	requests, err := s.CreateFriendRequests(users, opts.NumRequests)
	if err != nil {
		return fmt.Errorf("failed to create friend requests: %w", err)
	}
	log.Printf("✓ %d friend requests created", len(requests))

	rooms, err := s.CreateRooms(users, opts.NumRooms)
	if err != nil {
		return fmt.Errorf("failed to create match rooms: %w", err)
	}
	log.Printf("✓ %d match rooms created", len(rooms))

	log.Println("🎉 Database seeding completed successfully!")
	return nil
}

// CreateUsers persists count fake accounts, all sharing the password
// "password123".
func (s *Seeder) CreateUsers(count int) ([]models.User, error) {
	users := make([]models.User, 0, count)
	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)

	for i := 0; i < count; i++ {
		first := gofakeit.FirstName()
		last := gofakeit.LastName()
		handle := strings.ToLower(fmt.Sprintf("%s.%s%d", first, last, i))

		user := models.User{
			DisplayName: fmt.Sprintf("%s %s", first, last),
			Email:       fmt.Sprintf("%s@example.com", handle),
			Password:    string(hashedPassword),
		}

		if err := s.db.Create(&user).Error; err != nil {
			log.Printf("Failed to create user %s: %v", handle, err)
			continue
		}
		users = append(users, user)

		if i > 0 && i%100 == 0 {
			log.Printf("Created %d users...", i)
		}
	}

	return users, nil
}

// CreateFriendRequests wires count requests between random distinct pairs.
// Roughly half stay pending; the rest are archived as accepted or declined.
func (s *Seeder) CreateFriendRequests(users []models.User, count int) ([]models.FriendRequest, error) {
	if len(users) < 2 {
		return nil, nil
	}

	requests := make([]models.FriendRequest, 0, count)
	for i := 0; i < count; i++ {
		from := users[s.r.Intn(len(users))]
		to := users[s.r.Intn(len(users))]
		if from.ID == to.ID {
			continue
		}

		status := models.RequestPending
		switch roll := s.r.Float32(); {
		case roll < 0.25:
			status = models.RequestAccepted
		case roll < 0.5:
			status = models.RequestDeclined
		}

		// Only one pending request may exist per ordered pair.
		if status == models.RequestPending {
			var existing int64
			err := s.db.Model(&models.FriendRequest{}).
				Where("from_user_id = ? AND to_user_id = ? AND status = ?", from.ID, to.ID, models.RequestPending).
				Count(&existing).Error
			if err != nil {
				return nil, err
			}
			if existing > 0 {
				continue
			}
		}

		req := models.FriendRequest{
			FromUserID: from.ID,
			ToUserID:   to.ID,
			Status:     status,
		}
		if err := s.db.Create(&req).Error; err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}

	return requests, nil
}

// CreateRooms opens count single-seat rooms, each owned by a user who is not
// already hosting one.
func (s *Seeder) CreateRooms(users []models.User, count int) ([]models.MatchRoom, error) {
	if len(users) == 0 {
		return nil, nil
	}

	rooms := make([]models.MatchRoom, 0, count)
	hosting := make(map[uint]bool)
	for i := 0; i < count && len(hosting) < len(users); i++ {
		owner := users[s.r.Intn(len(users))]
		if hosting[owner.ID] {
			continue
		}

		room := models.MatchRoom{
			Player1ID: owner.ID,
			Status:    models.RoomOpen,
		}
		if err := s.db.Create(&room).Error; err != nil {
			return nil, err
		}
		hosting[owner.ID] = true
		rooms = append(rooms, room)
	}

	return rooms, nil
}
