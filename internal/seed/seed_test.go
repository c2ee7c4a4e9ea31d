package seed

import (
	"testing"

	"lobby/internal/database"
	"lobby/internal/models"
)

func TestSeedPopulatesTables(t *testing.T) {
	t.Parallel()

	db, err := database.ConnectTest()
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	s := NewSeeder(db)
	err = s.Seed(Options{NumUsers: 12, NumRequests: 20, NumRooms: 5})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	var userCount int64
	if err := db.Model(&models.User{}).Count(&userCount).Error; err != nil {
		t.Fatalf("count users: %v", err)
	}
	if userCount != 12 {
		t.Fatalf("expected 12 users, got %d", userCount)
	}

	var reqCount int64
	if err := db.Model(&models.FriendRequest{}).Count(&reqCount).Error; err != nil {
		t.Fatalf("count requests: %v", err)
	}
	if reqCount == 0 {
		t.Fatal("expected some friend requests")
	}

	rows, err := db.Raw(`
		SELECT from_user_id, to_user_id
		FROM friend_requests
		WHERE status = 'pending'
		GROUP BY from_user_id, to_user_id
		HAVING COUNT(*) > 1
	`).Rows()
	if err != nil {
		t.Fatalf("duplicate pending check query failed: %v", err)
	}
	defer func() { _ = rows.Close() }()
	if rows.Next() {
		t.Fatal("found duplicate pending requests for the same pair")
	}
}

func TestCreateRoomsOnePerOwner(t *testing.T) {
	t.Parallel()

	db, err := database.ConnectTest()
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	s := NewSeeder(db)
	users, err := s.CreateUsers(3)
	if err != nil {
		t.Fatalf("create users: %v", err)
	}

	_, err = s.CreateRooms(users, 10)
	if err != nil {
		t.Fatalf("create rooms: %v", err)
	}

	rows, err := db.Raw(`
		SELECT player1_id
		FROM match_rooms
		GROUP BY player1_id
		HAVING COUNT(*) > 1
	`).Rows()
	if err != nil {
		t.Fatalf("duplicate owner check query failed: %v", err)
	}
	defer func() { _ = rows.Close() }()
	if rows.Next() {
		t.Fatal("found a user hosting more than one room")
	}
}

func TestCreateFriendRequestsNeverSelf(t *testing.T) {
	t.Parallel()

	db, err := database.ConnectTest()
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	s := NewSeeder(db)
	users, err := s.CreateUsers(4)
	if err != nil {
		t.Fatalf("create users: %v", err)
	}

	_, err = s.CreateFriendRequests(users, 50)
	if err != nil {
		t.Fatalf("create requests: %v", err)
	}

	var selfCount int64
	err = db.Model(&models.FriendRequest{}).
		Where("from_user_id = to_user_id").
		Count(&selfCount).Error
	if err != nil {
		t.Fatalf("self request check: %v", err)
	}
	if selfCount != 0 {
		t.Fatalf("expected no self requests, got %d", selfCount)
	}
}
