package models

import (
	"time"

	"gorm.io/gorm"
)

// RoomStatus defines the lifecycle state of a match room.
type RoomStatus string

const (
	// RoomOpen indicates the room is waiting for a second player.
	RoomOpen RoomStatus = "open"
	// RoomFull indicates both seats are taken and the match can be handed off.
	RoomFull RoomStatus = "full"
	// RoomClosed indicates the match was claimed or withdrawn.
	RoomClosed RoomStatus = "closed"
)

// MatchRoom is a matchmaking room. Player2ID is nil while the room is open;
// filling it must go through a conditional update so concurrent joiners are
// arbitrated instead of overwriting each other.
type MatchRoom struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Player1ID uint           `gorm:"not null;index" json:"player1_id"`
	Player2ID *uint          `gorm:"index" json:"player2_id,omitempty"`
	Status    RoomStatus     `gorm:"type:varchar(20);default:'open';index" json:"status"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Player1 User `gorm:"foreignKey:Player1ID" json:"player1,omitempty"`
	Player2 User `gorm:"foreignKey:Player2ID" json:"player2,omitempty"`
}

// TableName specifies the table name for GORM
func (MatchRoom) TableName() string {
	return "match_rooms"
}

// Open reports whether the room still has a free seat.
func (r *MatchRoom) Open() bool {
	return r.Status == RoomOpen && r.Player2ID == nil
}

// Has reports whether the user occupies either seat of the room.
func (r *MatchRoom) Has(userID uint) bool {
	if r.Player1ID == userID {
		return true
	}
	return r.Player2ID != nil && *r.Player2ID == userID
}
