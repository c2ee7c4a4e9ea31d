package service

import (
	"context"
	"log/slog"
	"testing"

	"lobby/internal/models"
	"lobby/internal/presence"
)

func onlinePresence() *presenceStub {
	return &presenceStub{
		setFn: func(context.Context, uint, bool) error { return nil },
		getFn: func(context.Context, uint) (presence.Status, error) { return presence.Online, nil },
		onlineFn: func(context.Context) ([]uint, error) {
			return nil, nil
		},
	}
}

func newMatchmaking(roomRepo *roomRepoStub, store *presenceStub) *MatchmakingService {
	return NewMatchmakingService(roomRepo, store, testNotifier(), slog.Default())
}

func TestStartRequiresOnlinePresence(t *testing.T) {
	store := onlinePresence()
	store.getFn = func(context.Context, uint) (presence.Status, error) {
		return presence.Offline, nil
	}

	svc := newMatchmaking(noopRoomRepo(), store)
	_, err := svc.Start(context.Background(), 1)
	if code := appErrCode(t, err); code != "VALIDATION_ERROR" {
		t.Fatalf("expected VALIDATION_ERROR, got %s", code)
	}
}

func TestStartUnknownPresenceRejected(t *testing.T) {
	store := onlinePresence()
	store.getFn = func(context.Context, uint) (presence.Status, error) {
		return presence.Unknown, nil
	}

	svc := newMatchmaking(noopRoomRepo(), store)
	if _, err := svc.Start(context.Background(), 1); err == nil {
		t.Fatal("unknown presence must not enter matchmaking")
	}
}

func TestStartReturnsExistingRoom(t *testing.T) {
	roomRepo := noopRoomRepo()
	roomRepo.activeRoomForFn = func(_ context.Context, userID uint) (*models.MatchRoom, error) {
		return &models.MatchRoom{ID: 3, Player1ID: userID, Status: models.RoomOpen}, nil
	}
	roomRepo.createFn = func(context.Context, *models.MatchRoom) error {
		t.Fatal("a user already in a room must not get a second one")
		return nil
	}

	svc := newMatchmaking(roomRepo, onlinePresence())
	room, err := svc.Start(context.Background(), 8)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if room.ID != 3 {
		t.Fatalf("expected existing room 3, got %d", room.ID)
	}
}

func TestStartJoinsLowestOpenRoom(t *testing.T) {
	roomRepo := noopRoomRepo()
	roomRepo.listOpenFn = func(context.Context) ([]models.MatchRoom, error) {
		return []models.MatchRoom{
			{ID: 1, Player1ID: 5, Status: models.RoomOpen},
			{ID: 2, Player1ID: 6, Status: models.RoomOpen},
		}, nil
	}

	var filledRoom uint
	roomRepo.fillSeatFn = func(_ context.Context, roomID, userID uint) (bool, error) {
		filledRoom = roomID
		return true, nil
	}
	p2 := uint(9)
	roomRepo.getByIDFn = func(ctx context.Context, id uint) (*models.MatchRoom, error) {
		return &models.MatchRoom{ID: id, Player1ID: 5, Player2ID: &p2, Status: models.RoomFull}, nil
	}

	svc := newMatchmaking(roomRepo, onlinePresence())
	room, err := svc.Start(context.Background(), 9)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if filledRoom != 1 {
		t.Fatalf("expected first-fit join of room 1, got %d", filledRoom)
	}
	if room.Status != models.RoomFull {
		t.Fatalf("joined room must be full, got %q", room.Status)
	}
}

func TestStartSkipsOwnRoom(t *testing.T) {
	roomRepo := noopRoomRepo()
	roomRepo.listOpenFn = func(context.Context) ([]models.MatchRoom, error) {
		return []models.MatchRoom{
			{ID: 1, Player1ID: 9, Status: models.RoomOpen},
		}, nil
	}
	roomRepo.fillSeatFn = func(context.Context, uint, uint) (bool, error) {
		t.Fatal("must not join a self-owned room")
		return false, nil
	}

	var created bool
	roomRepo.createFn = func(_ context.Context, room *models.MatchRoom) error {
		room.ID = 4
		created = true
		return nil
	}

	svc := newMatchmaking(roomRepo, onlinePresence())
	room, err := svc.Start(context.Background(), 9)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if !created || room.ID != 4 {
		t.Fatal("expected a fresh room when the only open room is self-owned")
	}
}

func TestStartFallsThroughOnConflict(t *testing.T) {
	roomRepo := noopRoomRepo()
	roomRepo.listOpenFn = func(context.Context) ([]models.MatchRoom, error) {
		return []models.MatchRoom{
			{ID: 1, Player1ID: 5, Status: models.RoomOpen},
			{ID: 2, Player1ID: 6, Status: models.RoomOpen},
		}, nil
	}

	// Room 1 is lost to a concurrent joiner, room 2 succeeds.
	roomRepo.fillSeatFn = func(_ context.Context, roomID, _ uint) (bool, error) {
		return roomID == 2, nil
	}
	p2 := uint(9)
	roomRepo.getByIDFn = func(ctx context.Context, id uint) (*models.MatchRoom, error) {
		if id == 1 {
			return &models.MatchRoom{ID: 1, Player1ID: 5, Status: models.RoomOpen}, nil
		}
		return &models.MatchRoom{ID: 2, Player1ID: 6, Player2ID: &p2, Status: models.RoomFull}, nil
	}

	svc := newMatchmaking(roomRepo, onlinePresence())
	room, err := svc.Start(context.Background(), 9)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if room.ID != 2 {
		t.Fatalf("expected fallthrough join of room 2, got %d", room.ID)
	}
}

func TestStartSkipsWithdrawnRoom(t *testing.T) {
	roomRepo := noopRoomRepo()
	roomRepo.listOpenFn = func(context.Context) ([]models.MatchRoom, error) {
		return []models.MatchRoom{
			{ID: 1, Player1ID: 5, Status: models.RoomOpen},
			{ID: 2, Player1ID: 6, Status: models.RoomOpen},
		}, nil
	}

	// Room 1 is withdrawn between listing and joining; the scan moves on.
	p2 := uint(9)
	roomRepo.getByIDFn = func(ctx context.Context, id uint) (*models.MatchRoom, error) {
		if id == 1 {
			return nil, models.NewNotFoundError("MatchRoom", id)
		}
		return &models.MatchRoom{ID: 2, Player1ID: 6, Player2ID: &p2, Status: models.RoomFull}, nil
	}
	roomRepo.fillSeatFn = func(_ context.Context, roomID, _ uint) (bool, error) {
		return roomID == 2, nil
	}

	svc := newMatchmaking(roomRepo, onlinePresence())
	room, err := svc.Start(context.Background(), 9)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if room.ID != 2 {
		t.Fatalf("expected the surviving room 2, got %d", room.ID)
	}
}

func TestStartCreatesWhenPoolEmpty(t *testing.T) {
	roomRepo := noopRoomRepo()

	var created *models.MatchRoom
	roomRepo.createFn = func(_ context.Context, room *models.MatchRoom) error {
		room.ID = 12
		created = room
		return nil
	}

	svc := newMatchmaking(roomRepo, onlinePresence())
	room, err := svc.Start(context.Background(), 9)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if created == nil || room.ID != 12 {
		t.Fatal("expected a fresh room")
	}
	if room.Player1ID != 9 || room.Status != models.RoomOpen {
		t.Fatalf("fresh room misconfigured: %+v", room)
	}
}

func TestJoinConflictWhenSeatTaken(t *testing.T) {
	roomRepo := noopRoomRepo()
	roomRepo.getByIDFn = func(ctx context.Context, id uint) (*models.MatchRoom, error) {
		return &models.MatchRoom{ID: id, Player1ID: 5, Status: models.RoomOpen}, nil
	}
	roomRepo.fillSeatFn = func(context.Context, uint, uint) (bool, error) {
		return false, nil
	}

	svc := newMatchmaking(roomRepo, onlinePresence())
	err := svc.Join(context.Background(), 1, 9)
	if code := appErrCode(t, err); code != "CONFLICT" {
		t.Fatalf("expected CONFLICT, got %s", code)
	}
}

func TestJoinOwnRoomRejected(t *testing.T) {
	roomRepo := noopRoomRepo()
	roomRepo.getByIDFn = func(ctx context.Context, id uint) (*models.MatchRoom, error) {
		return &models.MatchRoom{ID: id, Player1ID: 9, Status: models.RoomOpen}, nil
	}

	svc := newMatchmaking(roomRepo, onlinePresence())
	err := svc.Join(context.Background(), 1, 9)
	if code := appErrCode(t, err); code != "INVALID_REQUEST" {
		t.Fatalf("expected INVALID_REQUEST, got %s", code)
	}
}

func TestCreateRejectsSecondRoom(t *testing.T) {
	roomRepo := noopRoomRepo()
	roomRepo.activeRoomForFn = func(_ context.Context, userID uint) (*models.MatchRoom, error) {
		return &models.MatchRoom{ID: 2, Player1ID: userID, Status: models.RoomOpen}, nil
	}

	svc := newMatchmaking(roomRepo, onlinePresence())
	_, err := svc.Create(context.Background(), 9)
	if code := appErrCode(t, err); code != "CONFLICT" {
		t.Fatalf("expected CONFLICT, got %s", code)
	}
}

func TestRemoveRequiresOccupancy(t *testing.T) {
	roomRepo := noopRoomRepo()
	roomRepo.getByIDFn = func(ctx context.Context, id uint) (*models.MatchRoom, error) {
		return &models.MatchRoom{ID: id, Player1ID: 5, Status: models.RoomOpen}, nil
	}
	roomRepo.deleteFn = func(context.Context, uint) error {
		t.Fatal("non-occupant must not remove the room")
		return nil
	}

	svc := newMatchmaking(roomRepo, onlinePresence())
	err := svc.Remove(context.Background(), 1, 9)
	if code := appErrCode(t, err); code != "UNAUTHORIZED" {
		t.Fatalf("expected UNAUTHORIZED, got %s", code)
	}
}

func TestRemoveByOccupant(t *testing.T) {
	p2 := uint(9)
	roomRepo := noopRoomRepo()
	roomRepo.getByIDFn = func(ctx context.Context, id uint) (*models.MatchRoom, error) {
		return &models.MatchRoom{ID: id, Player1ID: 5, Player2ID: &p2, Status: models.RoomFull}, nil
	}

	var deleted uint
	roomRepo.deleteFn = func(_ context.Context, id uint) error {
		deleted = id
		return nil
	}

	svc := newMatchmaking(roomRepo, onlinePresence())
	if err := svc.Remove(context.Background(), 1, 9); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("expected room 1 deleted, got %d", deleted)
	}
}
