package store

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mingle/models"
)

func newTestStore(t *testing.T) ChatStore {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func createUser(t *testing.T, s ChatStore, username string) *models.User {
	t.Helper()
	user := &models.User{
		Username:    username,
		DisplayName: username,
		Password:    "x",
	}
	require.NoError(t, s.CreateUser(context.Background(), user))
	return user
}

func mutualFollow(t *testing.T, s ChatStore, a, b int64) {
	t.Helper()
	ctx := context.Background()
	_, err := s.CreateFollow(ctx, a, b)
	require.NoError(t, err)
	_, err = s.CreateFollow(ctx, b, a)
	require.NoError(t, err)
	require.NoError(t, s.AcceptFollow(ctx, a, b))
	require.NoError(t, s.AcceptFollow(ctx, b, a))
}

func TestFindOrCreateConversation_CanonicalIdentity(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice := createUser(t, s, "alice")
	bob := createUser(t, s, "bob")

	conv1, err := s.FindOrCreateConversation(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	conv2, err := s.FindOrCreateConversation(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	assert.Equal(t, conv1.ID, conv2.ID)
	assert.Less(t, conv1.UserAID, conv1.UserBID)
	assert.Nil(t, conv1.LastMessageAt)
	assert.Zero(t, conv1.UnreadA)
	assert.Zero(t, conv1.UnreadB)
}

func TestFindOrCreateConversation_ConcurrentFirstContact(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice := createUser(t, s, "alice")
	bob := createUser(t, s, "bob")

	const n = 8
	ids := make([]int64, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			x, y := alice.ID, bob.ID
			if i%2 == 1 {
				x, y = y, x
			}
			conv, err := s.FindOrCreateConversation(ctx, x, y)
			if err != nil {
				errs[i] = err
				return
			}
			ids[i] = conv.ID
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
	}
	for i := 1; i < n; i++ {
		assert.Equal(t, ids[0], ids[i], "all resolutions must yield the same row")
	}
}

func TestAppendMessage_UnreadCounters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice := createUser(t, s, "alice") // smaller id, side A
	bob := createUser(t, s, "bob")

	conv, err := s.FindOrCreateConversation(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	require.Equal(t, alice.ID, conv.UserAID)

	msg := &models.Message{ConversationID: conv.ID, SenderID: alice.ID, Content: "hi"}
	require.NoError(t, s.AppendMessage(ctx, conv, msg))
	assert.NotZero(t, msg.ID)

	got, err := s.GetConversation(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.UnreadA, "sender's side must be untouched")
	assert.Equal(t, 1, got.UnreadB, "recipient's side bumps by exactly one")
	assert.Equal(t, "hi", got.LastMessagePreview)
	require.NotNil(t, got.LastMessageAt)

	reply := &models.Message{ConversationID: conv.ID, SenderID: bob.ID, Content: "hello"}
	require.NoError(t, s.AppendMessage(ctx, got, reply))

	got, err = s.GetConversation(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.UnreadA)
	assert.Equal(t, 1, got.UnreadB)
	assert.Equal(t, "hello", got.LastMessagePreview)
}

func TestAppendMessage_PreviewTruncation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice := createUser(t, s, "alice")
	bob := createUser(t, s, "bob")

	conv, err := s.FindOrCreateConversation(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	content := strings.Repeat("ab", 100)
	msg := &models.Message{ConversationID: conv.ID, SenderID: alice.ID, Content: content}
	require.NoError(t, s.AppendMessage(ctx, conv, msg))

	got, err := s.GetConversation(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, content[:models.PreviewLength], got.LastMessagePreview)

	messages, err := s.RecentMessages(ctx, conv.ID, 10)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, content, messages[0].Content, "full content must be preserved")
}

func TestAppendMessage_StickerPreview(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice := createUser(t, s, "alice")
	bob := createUser(t, s, "bob")

	conv, err := s.FindOrCreateConversation(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	msg := &models.Message{
		ConversationID: conv.ID,
		SenderID:       alice.ID,
		Content:        "😀",
		IsSticker:      true,
		StickerCode:    "😀",
	}
	require.NoError(t, s.AppendMessage(ctx, conv, msg))

	got, err := s.GetConversation(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StickerPreview, got.LastMessagePreview)

	messages, err := s.RecentMessages(ctx, conv.ID, 10)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.True(t, messages[0].IsSticker)
	assert.Equal(t, "😀", messages[0].Content)
	assert.Equal(t, "😀", messages[0].StickerCode)
}

func TestMarkConversationRead_Idempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice := createUser(t, s, "alice")
	bob := createUser(t, s, "bob")

	conv, err := s.FindOrCreateConversation(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		msg := &models.Message{ConversationID: conv.ID, SenderID: alice.ID, Content: fmt.Sprintf("m%d", i)}
		require.NoError(t, s.AppendMessage(ctx, conv, msg))
	}

	got, err := s.GetConversation(ctx, conv.ID)
	require.NoError(t, err)
	require.Equal(t, 3, got.UnreadB)

	require.NoError(t, s.MarkConversationRead(ctx, got, bob.ID, time.Now()))

	got, err = s.GetConversation(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.UnreadB)
	assert.Equal(t, 0, got.UnreadA)

	messages, err := s.RecentMessages(ctx, conv.ID, 10)
	require.NoError(t, err)
	for _, m := range messages {
		assert.NotNil(t, m.ReadAt, "incoming messages get a read stamp")
	}

	// Second call with no new messages is a no-op.
	require.NoError(t, s.MarkConversationRead(ctx, got, bob.ID, time.Now()))
	got, err = s.GetConversation(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.UnreadB)
}

func TestMarkConversationRead_OwnSideOnly(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice := createUser(t, s, "alice")
	bob := createUser(t, s, "bob")

	conv, err := s.FindOrCreateConversation(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	require.NoError(t, s.AppendMessage(ctx, conv, &models.Message{ConversationID: conv.ID, SenderID: alice.ID, Content: "to bob"}))
	require.NoError(t, s.AppendMessage(ctx, conv, &models.Message{ConversationID: conv.ID, SenderID: bob.ID, Content: "to alice"}))

	got, err := s.GetConversation(ctx, conv.ID)
	require.NoError(t, err)
	require.Equal(t, 1, got.UnreadA)
	require.Equal(t, 1, got.UnreadB)

	require.NoError(t, s.MarkConversationRead(ctx, got, alice.ID, time.Now()))

	got, err = s.GetConversation(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.UnreadA)
	assert.Equal(t, 1, got.UnreadB, "the other side's counter is untouched")
}

func TestRecentMessages_Ordering(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice := createUser(t, s, "alice")
	bob := createUser(t, s, "bob")

	conv, err := s.FindOrCreateConversation(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i, content := range []string{"first", "second", "third"} {
		msg := &models.Message{
			ConversationID: conv.ID,
			SenderID:       alice.ID,
			Content:        content,
			CreatedAt:      base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, s.AppendMessage(ctx, conv, msg))
	}

	messages, err := s.RecentMessages(ctx, conv.ID, 10)
	require.NoError(t, err)
	require.Len(t, messages, 3)
	assert.Equal(t, "third", messages[0].Content)
	assert.Equal(t, "second", messages[1].Content)
	assert.Equal(t, "first", messages[2].Content)

	limited, err := s.RecentMessages(ctx, conv.ID, 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, "third", limited[0].Content)
}

func TestMutualPeerIDs(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice := createUser(t, s, "alice")
	bob := createUser(t, s, "bob")
	carol := createUser(t, s, "carol")
	dave := createUser(t, s, "dave")

	// alice <-> bob: mutual accepted.
	mutualFollow(t, s, alice.ID, bob.ID)

	// alice -> carol accepted, but carol never follows back.
	_, err := s.CreateFollow(ctx, alice.ID, carol.ID)
	require.NoError(t, err)
	require.NoError(t, s.AcceptFollow(ctx, alice.ID, carol.ID))

	// alice <-> dave: both edges exist but dave's is still pending.
	_, err = s.CreateFollow(ctx, alice.ID, dave.ID)
	require.NoError(t, err)
	require.NoError(t, s.AcceptFollow(ctx, alice.ID, dave.ID))
	_, err = s.CreateFollow(ctx, dave.ID, alice.ID)
	require.NoError(t, err)

	peers, err := s.MutualPeerIDs(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{bob.ID}, peers)

	peers, err = s.MutualPeerIDs(ctx, carol.ID)
	require.NoError(t, err)
	assert.Empty(t, peers)
}

func TestFollowLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice := createUser(t, s, "alice")
	bob := createUser(t, s, "bob")

	edge, err := s.CreateFollow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FollowPending, edge.Status)

	_, err = s.CreateFollow(ctx, alice.ID, bob.ID)
	assert.ErrorIs(t, err, ErrDuplicateFollow)

	status, err := s.FollowStatus(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FollowPending, status)

	require.NoError(t, s.AcceptFollow(ctx, alice.ID, bob.ID))
	status, err = s.FollowStatus(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FollowAccepted, status)

	// Accepting again finds no pending edge.
	assert.ErrorIs(t, s.AcceptFollow(ctx, alice.ID, bob.ID), ErrNotFound)

	require.NoError(t, s.DeleteFollow(ctx, alice.ID, bob.ID))
	_, err = s.FollowStatus(ctx, alice.ID, bob.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, s.DeleteFollow(ctx, alice.ID, bob.ID), ErrNotFound)
}

func TestListFollowers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice := createUser(t, s, "alice")
	bob := createUser(t, s, "bob")
	carol := createUser(t, s, "carol")

	_, err := s.CreateFollow(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	require.NoError(t, s.AcceptFollow(ctx, bob.ID, alice.ID))
	_, err = s.CreateFollow(ctx, carol.ID, alice.ID)
	require.NoError(t, err)

	accepted, err := s.ListFollowers(ctx, alice.ID, models.FollowAccepted)
	require.NoError(t, err)
	require.Len(t, accepted, 1)
	assert.Equal(t, bob.ID, accepted[0].User.ID)

	pending, err := s.ListFollowers(ctx, alice.ID, models.FollowPending)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, carol.ID, pending[0].User.ID)
}

func TestSearchUsers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	createUser(t, s, "alice")
	createUser(t, s, "alicia")
	createUser(t, s, "bob")
	under := createUser(t, s, "under_score")

	found, err := s.SearchUsers(ctx, "alic", 10)
	require.NoError(t, err)
	require.Len(t, found, 2)

	// Wildcards in the query match literally, not as LIKE metacharacters.
	found, err = s.SearchUsers(ctx, "r_s", 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, under.ID, found[0].ID)

	found, err = s.SearchUsers(ctx, "%", 10)
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestCreateUser_DuplicateUsername(t *testing.T) {
	s := newTestStore(t)

	createUser(t, s, "alice")

	dup := &models.User{Username: "alice", DisplayName: "other", Password: "x"}
	err := s.CreateUser(context.Background(), dup)
	assert.ErrorIs(t, err, ErrDuplicateUser)
}
