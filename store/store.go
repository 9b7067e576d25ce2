package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mingle/models"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrDuplicateUser   = errors.New("username already taken")
	ErrDuplicateFollow = errors.New("follow edge already exists")
)

// ChatStore is the persistence boundary for the messaging core. Both the
// MySQL and SQLite stores implement it.
type ChatStore interface {
	Close() error
	Ping(ctx context.Context) error

	// Users
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	UpdateUserProfile(ctx context.Context, id int64, displayName, profilePhoto string) error
	TouchLastSeen(ctx context.Context, id int64, at time.Time) error
	SearchUsers(ctx context.Context, query string, limit int) ([]models.User, error)

	// Follow graph
	CreateFollow(ctx context.Context, followerID, followedID int64) (*models.FollowEdge, error)
	FollowStatus(ctx context.Context, followerID, followedID int64) (string, error)
	AcceptFollow(ctx context.Context, followerID, followedID int64) error
	DeleteFollow(ctx context.Context, followerID, followedID int64) error
	ListFollowers(ctx context.Context, userID int64, status string) ([]models.FollowWithUser, error)
	ListFollowing(ctx context.Context, userID int64, status string) ([]models.FollowWithUser, error)
	MutualPeerIDs(ctx context.Context, userID int64) ([]int64, error)

	// Conversations and messages
	FindOrCreateConversation(ctx context.Context, userX, userY int64) (*models.Conversation, error)
	GetConversation(ctx context.Context, id int64) (*models.Conversation, error)
	AppendMessage(ctx context.Context, conv *models.Conversation, msg *models.Message) error
	RecentMessages(ctx context.Context, convID int64, limit int) ([]models.Message, error)
	MarkConversationRead(ctx context.Context, conv *models.Conversation, userID int64, at time.Time) error
}

// Open connects the store selected by driver: "mysql" or "sqlite".
func Open(driver, dsn string) (ChatStore, error) {
	switch driver {
	case "mysql":
		return OpenMySQL(dsn)
	case "sqlite":
		return OpenSQLite(dsn)
	default:
		return nil, fmt.Errorf("unknown db driver %q", driver)
	}
}
