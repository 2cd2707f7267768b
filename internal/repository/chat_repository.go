package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"jobportal/internal/model"
)

// ChatRepository defines chat persistence operations.
type ChatRepository interface {
	// Create inserts a chat; an existing one for the same pair key yields ErrDuplicate.
	Create(ctx context.Context, chat *model.Chat) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Chat, error)
	FindByPairKey(ctx context.Context, key string) (*model.Chat, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]model.Chat, error)
	// AppendMessage stores msg and bumps the chat's last_message_at.
	AppendMessage(ctx context.Context, msg *model.ChatMessage) error
	ListMessages(ctx context.Context, chatID uuid.UUID) ([]model.ChatMessage, error)
	// MarkRead stamps read_at on every unread message not sent by readerID.
	MarkRead(ctx context.Context, chatID, readerID uuid.UUID, at time.Time) (int64, error)
	CountUnread(ctx context.Context, chatID, readerID uuid.UUID) (int64, error)
}

type chatRepository struct {
	db *gorm.DB
}

// NewChatRepository creates a new chat repository.
func NewChatRepository(db *gorm.DB) ChatRepository {
	return &chatRepository{db: db}
}

// Create creates a new chat.
func (r *chatRepository) Create(ctx context.Context, chat *model.Chat) error {
	return translate(r.db.WithContext(ctx).Create(chat).Error)
}

// FindByID finds a chat by ID.
func (r *chatRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Chat, error) {
	var chat model.Chat
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&chat).Error; err != nil {
		return nil, err
	}
	return &chat, nil
}

// FindByPairKey finds the chat for a participant pair and optional application.
func (r *chatRepository) FindByPairKey(ctx context.Context, key string) (*model.Chat, error) {
	var chat model.Chat
	if err := r.db.WithContext(ctx).Where("pair_key = ?", key).First(&chat).Error; err != nil {
		return nil, err
	}
	return &chat, nil
}

// ListForUser returns the user's chats, most recently active first.
func (r *chatRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]model.Chat, error) {
	var chats []model.Chat
	err := r.db.WithContext(ctx).
		Where("participant_a = ? OR participant_b = ?", userID, userID).
		Order("COALESCE(last_message_at, created_at) DESC").
		Find(&chats).Error
	return chats, err
}

// AppendMessage stores a message.
func (r *chatRepository) AppendMessage(ctx context.Context, msg *model.ChatMessage) error {
	db := r.db.WithContext(ctx)
	if err := db.Create(msg).Error; err != nil {
		return err
	}
	return db.Model(&model.Chat{}).Where("id = ?", msg.ChatID).
		Update("last_message_at", msg.CreatedAt).Error
}

// ListMessages returns messages in send order.
func (r *chatRepository) ListMessages(ctx context.Context, chatID uuid.UUID) ([]model.ChatMessage, error) {
	var msgs []model.ChatMessage
	err := r.db.WithContext(ctx).Where("chat_id = ?", chatID).
		Order("created_at ASC, id ASC").Find(&msgs).Error
	return msgs, err
}

// MarkRead marks incoming messages as read.
func (r *chatRepository) MarkRead(ctx context.Context, chatID, readerID uuid.UUID, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.ChatMessage{}).
		Where("chat_id = ? AND sender_id <> ? AND read_at IS NULL", chatID, readerID).
		Update("read_at", at)
	return res.RowsAffected, res.Error
}

// CountUnread counts incoming messages not yet read by readerID.
func (r *chatRepository) CountUnread(ctx context.Context, chatID, readerID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.ChatMessage{}).
		Where("chat_id = ? AND sender_id <> ? AND read_at IS NULL", chatID, readerID).
		Count(&n).Error
	return n, err
}
