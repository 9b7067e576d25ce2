package models

import "time"

const (
	// PreviewLength is the number of characters of message content kept as the
	// conversation preview.
	PreviewLength = 50

	// StickerPreview replaces the content preview for sticker messages.
	StickerPreview = "Sticker"
)

// Message is immutable once created except for ReadAt, which is stamped at
// most once when the recipient reads the conversation.
type Message struct {
	ID             int64      `json:"id"`
	ConversationID int64      `json:"conversation_id"`
	SenderID       int64      `json:"sender_id"`
	Content        string     `json:"content"`
	IsSticker      bool       `json:"is_sticker"`
	StickerCode    string     `json:"sticker_code,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	ReadAt         *time.Time `json:"read_at"`
}

type MessageResponse struct {
	ID          int64      `json:"id"`
	Content     string     `json:"content"`
	IsSticker   bool       `json:"is_sticker"`
	StickerCode string     `json:"sticker_code,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	ReadAt      *time.Time `json:"read_at"`
	Sender      SenderInfo `json:"sender"`
	IsOwn       bool       `json:"is_own"`
}

type SenderInfo struct {
	ID           int64  `json:"id"`
	DisplayName  string `json:"display_name"`
	ProfilePhoto string `json:"profile_photo"`
}

// Preview derives the conversation preview for this message: the sticker
// placeholder for stickers, otherwise the first PreviewLength characters of
// the content.
func (m *Message) Preview() string {
	if m.IsSticker {
		return StickerPreview
	}
	runes := []rune(m.Content)
	if len(runes) <= PreviewLength {
		return m.Content
	}
	return string(runes[:PreviewLength])
}

func (m *Message) ToResponse(sender *User, viewerID int64) *MessageResponse {
	resp := &MessageResponse{
		ID:          m.ID,
		Content:     m.Content,
		IsSticker:   m.IsSticker,
		StickerCode: m.StickerCode,
		CreatedAt:   m.CreatedAt,
		ReadAt:      m.ReadAt,
		IsOwn:       m.SenderID == viewerID,
	}
	if sender != nil {
		resp.Sender = SenderInfo{
			ID:           sender.ID,
			DisplayName:  sender.DisplayName,
			ProfilePhoto: sender.ProfilePhoto,
		}
	}
	return resp
}
