package models

import "time"

const (
	FollowPending  = "pending"
	FollowAccepted = "accepted"
)

// FollowEdge is a directed follow relation. At most one edge exists per
// ordered (follower, followed) pair; a pending edge either becomes accepted
// or is deleted, it never goes back to pending.
type FollowEdge struct {
	ID         int64     `json:"id"`
	FollowerID int64     `json:"follower_id"`
	FollowedID int64     `json:"followed_id"`
	Status     string    `json:"status"` // pending, accepted
	CreatedAt  time.Time `json:"created_at"`
}

type FollowWithUser struct {
	FollowEdge
	User UserResponse `json:"user"`
}
