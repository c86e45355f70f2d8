package models

import "time"

// FriendStatus is the state of a friend edge between two users.
type FriendStatus string

const (
	FriendStatusPending  FriendStatus = "pending"
	FriendStatusAccepted FriendStatus = "accepted"
	FriendStatusDeclined FriendStatus = "declined"
)

// FriendRequest is a directed edge from requester to addressee. The
// database enforces at most one edge per unordered user pair.
type FriendRequest struct {
	ID          int64        `json:"id"`
	RequesterID int64        `json:"requester_id"`
	AddresseeID int64        `json:"addressee_id"`
	Status      FriendStatus `json:"status"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// PendingRequest is a pending edge as seen from one side: the edge id,
// the other party, and when it was sent.
type PendingRequest struct {
	ID        int64     `json:"id"`
	User      User      `json:"user"`
	CreatedAt time.Time `json:"created_at"`
}
