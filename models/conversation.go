package models

import "time"

// EmptyConversationPreview is shown for conversations with no messages yet.
const EmptyConversationPreview = "Start the conversation"

// Conversation is a 1:1 thread between two users. The pair is stored in
// canonical order, UserAID < UserBID, so lookups are direction-independent.
// UnreadA counts messages sent by userB that userA has not read yet, and
// symmetrically for UnreadB.
type Conversation struct {
	ID                 int64      `json:"id"`
	UserAID            int64      `json:"user_a_id"`
	UserBID            int64      `json:"user_b_id"`
	LastMessageAt      *time.Time `json:"last_message_at"`
	LastMessagePreview string     `json:"last_message_preview"`
	UnreadA            int        `json:"unread_a"`
	UnreadB            int        `json:"unread_b"`
	CreatedAt          time.Time  `json:"created_at"`
}

func (c *Conversation) HasParticipant(userID int64) bool {
	return c.UserAID == userID || c.UserBID == userID
}

// PeerOf returns the other participant's id.
func (c *Conversation) PeerOf(userID int64) int64 {
	if c.UserAID == userID {
		return c.UserBID
	}
	return c.UserAID
}

// UnreadFor returns the unread count on userID's side of the pair.
func (c *Conversation) UnreadFor(userID int64) int {
	if c.UserAID == userID {
		return c.UnreadA
	}
	return c.UnreadB
}

type ConversationSummary struct {
	ID          int64              `json:"id"`
	Peer        PeerResponse       `json:"peer"`
	LastMessage LastMessagePreview `json:"last_message"`
	UnreadCount int                `json:"unread_count"`
}

type LastMessagePreview struct {
	Preview   string     `json:"preview"`
	CreatedAt *time.Time `json:"created_at"`
}
