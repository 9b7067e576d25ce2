package handlers

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"mingle/metrics"
	"mingle/middleware"
	"mingle/models"
	"mingle/notify"
	"mingle/store"
	"mingle/utils"
)

const (
	defaultMessageLimit = 50
	maxMessageLimit     = 100
	publishTimeout      = 2 * time.Second
)

type SendMessageRequest struct {
	Content     string `json:"content"`
	IsSticker   bool   `json:"is_sticker"`
	StickerCode string `json:"sticker_code"`
}

// loadConversation parses the :id param, loads the row and enforces the
// participant check. The access check runs before anything else is read.
func loadConversation(c *gin.Context, userID int64) (*models.Conversation, bool) {
	convID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || convID <= 0 {
		utils.BadRequest(c, "invalid conversation id")
		return nil, false
	}

	conv, err := Store.GetConversation(c.Request.Context(), convID)
	if err == store.ErrNotFound {
		utils.NotFound(c, "conversation not found")
		return nil, false
	}
	if err != nil {
		utils.InternalError(c, "database error")
		return nil, false
	}

	if !conv.HasParticipant(userID) {
		utils.Forbidden(c, "access denied")
		return nil, false
	}
	return conv, true
}

// GetConversations lists one conversation per mutual follow, creating missing
// rows on the way. A peer is mutual when both directed edges are accepted.
func GetConversations(c *gin.Context) {
	userID := middleware.GetUserID(c)
	ctx := c.Request.Context()

	peerIDs, err := Store.MutualPeerIDs(ctx, userID)
	if err != nil {
		utils.InternalError(c, "database error")
		return
	}

	now := time.Now()
	summaries := make([]models.ConversationSummary, 0, len(peerIDs))
	for _, peerID := range peerIDs {
		peer, err := Store.GetUserByID(ctx, peerID)
		if err == store.ErrNotFound {
			// Dangling edge; the peer's account is gone.
			continue
		}
		if err != nil {
			utils.InternalError(c, "database error")
			return
		}

		conv, err := Store.FindOrCreateConversation(ctx, userID, peerID)
		if err != nil {
			utils.InternalError(c, "database error")
			return
		}

		preview := conv.LastMessagePreview
		if conv.LastMessageAt == nil {
			preview = models.EmptyConversationPreview
		}

		summaries = append(summaries, models.ConversationSummary{
			ID:   conv.ID,
			Peer: *peer.ToPeer(now),
			LastMessage: models.LastMessagePreview{
				Preview:   preview,
				CreatedAt: conv.LastMessageAt,
			},
			UnreadCount: conv.UnreadFor(userID),
		})
	}

	// Most recent activity first; conversations with no messages yet sort as
	// the oldest possible timestamp.
	sort.SliceStable(summaries, func(i, j int) bool {
		var ti, tj time.Time
		if summaries[i].LastMessage.CreatedAt != nil {
			ti = *summaries[i].LastMessage.CreatedAt
		}
		if summaries[j].LastMessage.CreatedAt != nil {
			tj = *summaries[j].LastMessage.CreatedAt
		}
		return ti.After(tj)
	})

	utils.Success(c, summaries)
}

// GetMessages returns the newest messages first and implicitly marks the
// conversation read for the requesting participant.
func GetMessages(c *gin.Context) {
	userID := middleware.GetUserID(c)

	conv, ok := loadConversation(c, userID)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultMessageLimit)))
	if limit <= 0 {
		limit = defaultMessageLimit
	}
	if limit > maxMessageLimit {
		limit = maxMessageLimit
	}

	ctx := c.Request.Context()

	messages, err := Store.RecentMessages(ctx, conv.ID, limit)
	if err != nil {
		utils.InternalError(c, "database error")
		return
	}

	participants, err := conversationParticipants(ctx, conv)
	if err != nil {
		utils.InternalError(c, "database error")
		return
	}

	responses := make([]*models.MessageResponse, 0, len(messages))
	for i := range messages {
		responses = append(responses, messages[i].ToResponse(participants[messages[i].SenderID], userID))
	}

	if err := Store.MarkConversationRead(ctx, conv, userID, time.Now()); err != nil {
		utils.InternalError(c, "failed to mark messages as read")
		return
	}

	utils.Success(c, responses)
}

func SendMessage(c *gin.Context) {
	userID := middleware.GetUserID(c)

	conv, ok := loadConversation(c, userID)
	if !ok {
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	content := req.Content
	if !req.IsSticker {
		content = strings.TrimSpace(content)
		if content == "" {
			utils.BadRequest(c, "content is required")
			return
		}
	} else if req.StickerCode == "" {
		utils.BadRequest(c, "sticker code is required")
		return
	}

	ctx := c.Request.Context()
	now := time.Now()

	msg := &models.Message{
		ConversationID: conv.ID,
		SenderID:       userID,
		Content:        content,
		IsSticker:      req.IsSticker,
		StickerCode:    req.StickerCode,
	}
	if err := Store.AppendMessage(ctx, conv, msg); err != nil {
		utils.InternalError(c, "failed to send message")
		return
	}

	kind := "text"
	if msg.IsSticker {
		kind = "sticker"
	}
	metrics.MessagesSent.WithLabelValues(kind).Inc()

	// Sending counts as activity.
	if err := Store.TouchLastSeen(ctx, userID, now); err != nil {
		log.Warn().Err(err).Int64("user_id", userID).Msg("failed to refresh presence")
	}

	sender, err := Store.GetUserByID(ctx, userID)
	if err != nil {
		utils.InternalError(c, "database error")
		return
	}

	publishMessage(conv, msg, sender)

	utils.Created(c, msg.ToResponse(sender, userID))
}

// publishMessage pushes the new-message event to the notification sink. The
// send has already committed, so failures here are logged and dropped.
func publishMessage(conv *models.Conversation, msg *models.Message, sender *models.User) {
	if Notifier == nil {
		return
	}

	env := &notify.Envelope{
		EventID:    utils.GenerateUUID(),
		Type:       "message",
		Recipients: []int64{conv.UserAID, conv.UserBID},
		Message:    msg.ToResponse(sender, 0),
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	if err := Notifier.Publish(ctx, notify.ChatChannel(conv.ID), env); err != nil {
		metrics.NotifyFailures.Inc()
		log.Warn().Err(err).Int64("conversation_id", conv.ID).Msg("notification publish failed")
	}
}

// MarkConversationRead is the explicit read acknowledgement for clients that
// list conversations without fetching message bodies.
func MarkConversationRead(c *gin.Context) {
	userID := middleware.GetUserID(c)

	conv, ok := loadConversation(c, userID)
	if !ok {
		return
	}

	if err := Store.MarkConversationRead(c.Request.Context(), conv, userID, time.Now()); err != nil {
		utils.InternalError(c, "failed to mark messages as read")
		return
	}

	utils.Success(c, gin.H{"message": "messages marked as read"})
}

func UpdateOnlineStatus(c *gin.Context) {
	userID := middleware.GetUserID(c)

	if err := Store.TouchLastSeen(c.Request.Context(), userID, time.Now()); err != nil {
		utils.InternalError(c, "failed to update online status")
		return
	}

	utils.Success(c, gin.H{"message": "online status updated"})
}

func conversationParticipants(ctx context.Context, conv *models.Conversation) (map[int64]*models.User, error) {
	participants := make(map[int64]*models.User, 2)
	for _, id := range []int64{conv.UserAID, conv.UserBID} {
		user, err := Store.GetUserByID(ctx, id)
		if err == store.ErrNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		participants[id] = user
	}
	return participants, nil
}
