package models

import "time"

// OnlineWindow is how recently a user must have been seen to count as online.
const OnlineWindow = 180 * time.Second

type User struct {
	ID           int64      `json:"id"`
	Username     string     `json:"username"`
	DisplayName  string     `json:"display_name"`
	ProfilePhoto string     `json:"profile_photo"`
	Password     string     `json:"-"`
	LastSeenAt   *time.Time `json:"last_seen_at"`
	CreatedAt    time.Time  `json:"created_at"`
}

type UserResponse struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	DisplayName  string    `json:"display_name"`
	ProfilePhoto string    `json:"profile_photo"`
	CreatedAt    time.Time `json:"created_at"`
}

// PeerResponse is the public profile shown in conversation lists, with a
// derived online flag.
type PeerResponse struct {
	ID           int64      `json:"id"`
	DisplayName  string     `json:"display_name"`
	ProfilePhoto string     `json:"profile_photo"`
	IsOnline     bool       `json:"is_online"`
	LastSeenAt   *time.Time `json:"last_seen_at"`
}

func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		ID:           u.ID,
		Username:     u.Username,
		DisplayName:  u.DisplayName,
		ProfilePhoto: u.ProfilePhoto,
		CreatedAt:    u.CreatedAt,
	}
}

func (u *User) ToPeer(now time.Time) *PeerResponse {
	return &PeerResponse{
		ID:           u.ID,
		DisplayName:  u.DisplayName,
		ProfilePhoto: u.ProfilePhoto,
		IsOnline:     u.IsOnline(now),
		LastSeenAt:   u.LastSeenAt,
	}
}

func (u *User) IsOnline(now time.Time) bool {
	return u.LastSeenAt != nil && now.Sub(*u.LastSeenAt) < OnlineWindow
}
