package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"mingle/metrics"
	"mingle/models"
)

// sqlStore implements ChatStore on database/sql. MySQL and SQLite share the
// query text; the drivers differ only in DDL and duplicate-key detection.
type sqlStore struct {
	db    *sql.DB
	isDup func(error) bool
}

func (s *sqlStore) Close() error {
	return s.db.Close()
}

func (s *sqlStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// ---- users ----

const userColumns = "id, username, display_name, profile_photo, password, last_seen_at, created_at"

func (s *sqlStore) scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	var u models.User
	var lastSeen sql.NullTime
	err := row.Scan(&u.ID, &u.Username, &u.DisplayName, &u.ProfilePhoto, &u.Password, &lastSeen, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if lastSeen.Valid {
		t := lastSeen.Time
		u.LastSeenAt = &t
	}
	return &u, nil
}

func (s *sqlStore) CreateUser(ctx context.Context, user *models.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO users (username, display_name, profile_photo, password, created_at) VALUES (?, ?, ?, ?, ?)",
		user.Username, user.DisplayName, user.ProfilePhoto, user.Password, user.CreatedAt,
	)
	if err != nil {
		if s.isDup(err) {
			return ErrDuplicateUser
		}
		return fmt.Errorf("create user: %w", err)
	}
	user.ID, err = res.LastInsertId()
	return err
}

func (s *sqlStore) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = ?", id))
}

func (s *sqlStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE username = ?", username))
}

func (s *sqlStore) UpdateUserProfile(ctx context.Context, id int64, displayName, profilePhoto string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE users SET display_name = COALESCE(NULLIF(?, ''), display_name), profile_photo = COALESCE(NULLIF(?, ''), profile_photo) WHERE id = ?",
		displayName, profilePhoto, id,
	)
	return err
}

func (s *sqlStore) TouchLastSeen(ctx context.Context, id int64, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE users SET last_seen_at = ? WHERE id = ?", at.UTC(), id)
	return err
}

// escapeLikePattern escapes LIKE wildcards using '|', which stays a plain
// character inside string literals on both MySQL and SQLite. A backslash
// escape would be swallowed by MySQL's string tokenizer.
func escapeLikePattern(pattern string) string {
	pattern = strings.ReplaceAll(pattern, "|", "||")
	pattern = strings.ReplaceAll(pattern, "%", "|%")
	pattern = strings.ReplaceAll(pattern, "_", "|_")
	return pattern
}

func (s *sqlStore) SearchUsers(ctx context.Context, query string, limit int) ([]models.User, error) {
	pattern := "%" + escapeLikePattern(query) + "%"
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE username LIKE ? ESCAPE '|' OR display_name LIKE ? ESCAPE '|' ORDER BY display_name LIMIT ?",
		pattern, pattern, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		u, err := s.scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// ---- follow graph ----

func (s *sqlStore) CreateFollow(ctx context.Context, followerID, followedID int64) (*models.FollowEdge, error) {
	edge := &models.FollowEdge{
		FollowerID: followerID,
		FollowedID: followedID,
		Status:     models.FollowPending,
		CreatedAt:  time.Now().UTC(),
	}
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO follows (follower_id, followed_id, status, created_at) VALUES (?, ?, ?, ?)",
		edge.FollowerID, edge.FollowedID, edge.Status, edge.CreatedAt,
	)
	if err != nil {
		if s.isDup(err) {
			return nil, ErrDuplicateFollow
		}
		return nil, fmt.Errorf("create follow: %w", err)
	}
	edge.ID, err = res.LastInsertId()
	return edge, err
}

func (s *sqlStore) FollowStatus(ctx context.Context, followerID, followedID int64) (string, error) {
	var status string
	err := s.db.QueryRowContext(ctx,
		"SELECT status FROM follows WHERE follower_id = ? AND followed_id = ?",
		followerID, followedID,
	).Scan(&status)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	return status, err
}

func (s *sqlStore) AcceptFollow(ctx context.Context, followerID, followedID int64) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE follows SET status = ? WHERE follower_id = ? AND followed_id = ? AND status = ?",
		models.FollowAccepted, followerID, followedID, models.FollowPending,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *sqlStore) DeleteFollow(ctx context.Context, followerID, followedID int64) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM follows WHERE follower_id = ? AND followed_id = ?",
		followerID, followedID,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *sqlStore) listFollowEdges(ctx context.Context, query string, args ...any) ([]models.FollowWithUser, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var edges []models.FollowWithUser
	for rows.Next() {
		var f models.FollowWithUser
		var u models.User
		if err := rows.Scan(
			&f.ID, &f.FollowerID, &f.FollowedID, &f.Status, &f.CreatedAt,
			&u.ID, &u.Username, &u.DisplayName, &u.ProfilePhoto, &u.CreatedAt,
		); err != nil {
			return nil, err
		}
		f.User = *u.ToResponse()
		edges = append(edges, f)
	}
	return edges, rows.Err()
}

func (s *sqlStore) ListFollowers(ctx context.Context, userID int64, status string) ([]models.FollowWithUser, error) {
	return s.listFollowEdges(ctx, `
		SELECT f.id, f.follower_id, f.followed_id, f.status, f.created_at,
		       u.id, u.username, u.display_name, u.profile_photo, u.created_at
		FROM follows f
		JOIN users u ON u.id = f.follower_id
		WHERE f.followed_id = ? AND f.status = ?
		ORDER BY f.created_at DESC`,
		userID, status)
}

func (s *sqlStore) ListFollowing(ctx context.Context, userID int64, status string) ([]models.FollowWithUser, error) {
	return s.listFollowEdges(ctx, `
		SELECT f.id, f.follower_id, f.followed_id, f.status, f.created_at,
		       u.id, u.username, u.display_name, u.profile_photo, u.created_at
		FROM follows f
		JOIN users u ON u.id = f.followed_id
		WHERE f.follower_id = ? AND f.status = ?
		ORDER BY f.created_at DESC`,
		userID, status)
}

// MutualPeerIDs intersects the accepted out-edges with the accepted in-edges:
// peer appears iff user follows peer and peer follows user, both accepted.
func (s *sqlStore) MutualPeerIDs(ctx context.Context, userID int64) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT f1.followed_id
		FROM follows f1
		JOIN follows f2 ON f2.follower_id = f1.followed_id AND f2.followed_id = f1.follower_id
		WHERE f1.follower_id = ? AND f1.status = ? AND f2.status = ?`,
		userID, models.FollowAccepted, models.FollowAccepted,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var peers []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		peers = append(peers, id)
	}
	return peers, rows.Err()
}

// ---- conversations ----

const conversationColumns = "id, user_a_id, user_b_id, last_message_at, last_message_preview, unread_a, unread_b, created_at"

func (s *sqlStore) scanConversation(row interface{ Scan(...any) error }) (*models.Conversation, error) {
	var c models.Conversation
	var lastAt sql.NullTime
	var preview sql.NullString
	err := row.Scan(&c.ID, &c.UserAID, &c.UserBID, &lastAt, &preview, &c.UnreadA, &c.UnreadB, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if lastAt.Valid {
		t := lastAt.Time
		c.LastMessageAt = &t
	}
	c.LastMessagePreview = preview.String
	return &c, nil
}

func (s *sqlStore) getConversationByPair(ctx context.Context, userA, userB int64) (*models.Conversation, error) {
	return s.scanConversation(s.db.QueryRowContext(ctx,
		"SELECT "+conversationColumns+" FROM conversations WHERE user_a_id = ? AND user_b_id = ?",
		userA, userB))
}

// FindOrCreateConversation resolves the single conversation for a pair of
// users, creating it on first contact. The pair is normalized so the smaller
// id is always user A; the unique index on (user_a_id, user_b_id) is what
// guarantees one row per pair. A duplicate-key failure means a concurrent
// request created the row first, so it is re-read instead of surfaced.
func (s *sqlStore) FindOrCreateConversation(ctx context.Context, userX, userY int64) (*models.Conversation, error) {
	userA, userB := userX, userY
	if userA > userB {
		userA, userB = userB, userA
	}

	conv, err := s.getConversationByPair(ctx, userA, userB)
	if err == nil {
		return conv, nil
	}
	if err != ErrNotFound {
		return nil, err
	}

	createdAt := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO conversations (user_a_id, user_b_id, unread_a, unread_b, created_at) VALUES (?, ?, 0, 0, ?)",
		userA, userB, createdAt,
	)
	if err != nil {
		if s.isDup(err) {
			// Lost the first-contact race; the winner's row is the identity.
			return s.getConversationByPair(ctx, userA, userB)
		}
		return nil, fmt.Errorf("create conversation: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	metrics.ConversationsCreated.Inc()

	return &models.Conversation{
		ID:        id,
		UserAID:   userA,
		UserBID:   userB,
		CreatedAt: createdAt,
	}, nil
}

func (s *sqlStore) GetConversation(ctx context.Context, id int64) (*models.Conversation, error) {
	return s.scanConversation(s.db.QueryRowContext(ctx,
		"SELECT "+conversationColumns+" FROM conversations WHERE id = ?", id))
}

// AppendMessage commits the message insert, the conversation preview update
// and the recipient-side unread increment as one transaction.
func (s *sqlStore) AppendMessage(ctx context.Context, conv *models.Conversation, msg *models.Message) error {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	preview := msg.Preview()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"INSERT INTO messages (conversation_id, sender_id, content, is_sticker, sticker_code, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		msg.ConversationID, msg.SenderID, msg.Content, msg.IsSticker, msg.StickerCode, msg.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	msg.ID, err = res.LastInsertId()
	if err != nil {
		return err
	}

	unreadColumn := "unread_b"
	if conv.PeerOf(msg.SenderID) == conv.UserAID {
		unreadColumn = "unread_a"
	}
	_, err = tx.ExecContext(ctx,
		"UPDATE conversations SET last_message_at = ?, last_message_preview = ?, "+unreadColumn+" = "+unreadColumn+" + 1 WHERE id = ?",
		msg.CreatedAt, preview, conv.ID,
	)
	if err != nil {
		return fmt.Errorf("update conversation: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	t := msg.CreatedAt
	conv.LastMessageAt = &t
	conv.LastMessagePreview = preview
	if unreadColumn == "unread_a" {
		conv.UnreadA++
	} else {
		conv.UnreadB++
	}
	return nil
}

func (s *sqlStore) RecentMessages(ctx context.Context, convID int64, limit int) ([]models.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, conversation_id, sender_id, content, is_sticker, sticker_code, created_at, read_at
		FROM messages
		WHERE conversation_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`,
		convID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var m models.Message
		var readAt sql.NullTime
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.Content, &m.IsSticker, &m.StickerCode, &m.CreatedAt, &readAt); err != nil {
			return nil, err
		}
		if readAt.Valid {
			t := readAt.Time
			m.ReadAt = &t
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// MarkConversationRead zeroes userID's unread counter and stamps read_at on
// the peer's unread messages. Setting the counter to zero, rather than
// decrementing, keeps it correct when reads race concurrent sends.
func (s *sqlStore) MarkConversationRead(ctx context.Context, conv *models.Conversation, userID int64, at time.Time) error {
	unreadColumn := "unread_b"
	if conv.UserAID == userID {
		unreadColumn = "unread_a"
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"UPDATE conversations SET "+unreadColumn+" = 0 WHERE id = ?", conv.ID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE messages SET read_at = ? WHERE conversation_id = ? AND sender_id <> ? AND read_at IS NULL",
		at.UTC(), conv.ID, userID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	if unreadColumn == "unread_a" {
		conv.UnreadA = 0
	} else {
		conv.UnreadB = 0
	}
	return nil
}
