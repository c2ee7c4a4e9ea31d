package models

import "time"

// RequestStatus represents the status of a friend request.
type RequestStatus string

const (
	// RequestPending indicates a request waiting in the recipient's mailbox.
	RequestPending RequestStatus = "pending"
	// RequestAccepted indicates the recipient accepted the request.
	RequestAccepted RequestStatus = "accepted"
	// RequestDeclined indicates the recipient declined the request.
	RequestDeclined RequestStatus = "declined"
)

// FriendRequest is one entry in a recipient's mailbox. The auto-increment
// primary key doubles as the server-assigned, monotonically orderable request
// id. Resolved rows are archived (status flipped) rather than deleted, so a
// repeated resolution can be recognized and treated as a no-op.
type FriendRequest struct {
	ID         uint          `gorm:"primaryKey" json:"id"`
	FromUserID uint          `gorm:"not null;index:idx_requests_from" json:"from_user_id"`
	ToUserID   uint          `gorm:"not null;index:idx_requests_to_status" json:"to_user_id"`
	Status     RequestStatus `gorm:"type:varchar(20);default:'pending';index:idx_requests_to_status" json:"status"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`

	// Relationships
	From User `gorm:"foreignKey:FromUserID" json:"from,omitempty"`
	To   User `gorm:"foreignKey:ToUserID" json:"to,omitempty"`
}

// TableName specifies the table name for GORM
func (FriendRequest) TableName() string {
	return "friend_requests"
}

// Resolved reports whether the request has reached a terminal status.
func (r *FriendRequest) Resolved() bool {
	return r.Status != RequestPending
}
