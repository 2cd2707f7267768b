package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	apperrors "jobportal/internal/errors"
	"jobportal/internal/model"
	"jobportal/internal/policy"
	"jobportal/internal/queue"
	"jobportal/internal/repository"
)

const (
	maxMessageLength = 5000
	previewLength    = 120
)

// Broadcaster pushes a new message to the live connections of a chat.
type Broadcaster interface {
	Broadcast(chatID uuid.UUID, msg *model.ChatMessage)
}

// ChatSummary is a chat as listed for one participant.
type ChatSummary struct {
	model.Chat
	OtherUserID   uuid.UUID `json:"otherUserId"`
	OtherUserName string    `json:"otherUserName"`
	Unread        int64     `json:"unread"`
}

// ChatService handles one-to-one conversations.
type ChatService interface {
	Start(ctx context.Context, actor *model.User, otherID uuid.UUID, applicationID *uuid.UUID) (*model.Chat, error)
	Get(ctx context.Context, actor *model.User, chatID uuid.UUID) (*model.Chat, error)
	ListMine(ctx context.Context, actor *model.User) ([]ChatSummary, error)
	Messages(ctx context.Context, actor *model.User, chatID uuid.UUID) ([]model.ChatMessage, error)
	Send(ctx context.Context, actor *model.User, chatID uuid.UUID, content string) (*model.ChatMessage, error)
	MarkRead(ctx context.Context, actor *model.User, chatID uuid.UUID) (int64, error)
}

type chatService struct {
	store       repository.Store
	broadcaster Broadcaster
	log         zerolog.Logger
}

// NewChatService creates a new chat service. broadcaster may be nil.
func NewChatService(store repository.Store, broadcaster Broadcaster, log zerolog.Logger) ChatService {
	return &chatService{store: store, broadcaster: broadcaster, log: log}
}

// Start returns the chat between the actor and another user, creating it on first use.
func (s *chatService) Start(ctx context.Context, actor *model.User, otherID uuid.UUID, applicationID *uuid.UUID) (*model.Chat, error) {
	if otherID == actor.ID {
		return nil, apperrors.Validation("cannot start a chat with yourself")
	}
	other, err := s.store.Users().FindByID(ctx, otherID)
	if err != nil {
		return nil, notFound(err, "user")
	}
	if !other.IsActive {
		return nil, fmt.Errorf("%w: user", apperrors.ErrNotFound)
	}

	if applicationID != nil {
		app, err := s.store.Applications().FindByID(ctx, *applicationID)
		if err != nil {
			return nil, notFound(err, "application")
		}
		parties := []uuid.UUID{app.StudentID, app.EmployerID}
		if !containsID(parties, actor.ID) || !containsID(parties, otherID) {
			return nil, fmt.Errorf("%w: both users must be parties to the application", apperrors.ErrForbidden)
		}
	}

	key := model.ChatPairKey(actor.ID, otherID, applicationID)
	if chat, err := s.store.Chats().FindByPairKey(ctx, key); err == nil {
		return chat, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("find chat: %w", err)
	}

	chat := model.NewChat(actor.ID, otherID, applicationID)
	if err := s.store.Chats().Create(ctx, chat); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			// created concurrently by the other participant
			return s.store.Chats().FindByPairKey(ctx, key)
		}
		return nil, fmt.Errorf("create chat: %w", err)
	}
	return chat, nil
}

// Get returns a chat the actor takes part in.
func (s *chatService) Get(ctx context.Context, actor *model.User, chatID uuid.UUID) (*model.Chat, error) {
	chat, err := s.store.Chats().FindByID(ctx, chatID)
	if err != nil {
		return nil, notFound(err, "chat")
	}
	if err := policy.Authorize(actor, policy.ChatAccess, policy.Chat(chat, actor)); err != nil {
		return nil, err
	}
	return chat, nil
}

// ListMine returns the actor's chats with the other participant and unread count.
func (s *chatService) ListMine(ctx context.Context, actor *model.User) ([]ChatSummary, error) {
	chats, err := s.store.Chats().ListForUser(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	out := make([]ChatSummary, 0, len(chats))
	for _, c := range chats {
		sum := ChatSummary{Chat: c, OtherUserID: c.Other(actor.ID)}
		if other, err := s.store.Users().FindByID(ctx, sum.OtherUserID); err == nil {
			sum.OtherUserName = other.Name
		}
		if sum.Unread, err = s.store.Chats().CountUnread(ctx, c.ID, actor.ID); err != nil {
			return nil, fmt.Errorf("count unread: %w", err)
		}
		out = append(out, sum)
	}
	return out, nil
}

// Messages returns the chat history and marks incoming messages as read.
func (s *chatService) Messages(ctx context.Context, actor *model.User, chatID uuid.UUID) ([]model.ChatMessage, error) {
	chat, err := s.Get(ctx, actor, chatID)
	if err != nil {
		return nil, err
	}
	msgs, err := s.store.Chats().ListMessages(ctx, chat.ID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	if _, err := s.store.Chats().MarkRead(ctx, chat.ID, actor.ID, time.Now()); err != nil {
		s.log.Warn().Err(err).Str("chat_id", chat.ID.String()).Msg("mark chat read failed")
	}
	if msgs == nil {
		msgs = []model.ChatMessage{}
	}
	return msgs, nil
}

// Send stores a message and pushes it to connected participants.
func (s *chatService) Send(ctx context.Context, actor *model.User, chatID uuid.UUID, content string) (*model.ChatMessage, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperrors.Validation("content is required")
	}
	if utf8.RuneCountInString(content) > maxMessageLength {
		return nil, apperrors.Validation("content exceeds %d characters", maxMessageLength)
	}
	chat, err := s.Get(ctx, actor, chatID)
	if err != nil {
		return nil, err
	}

	msg := &model.ChatMessage{
		ChatID:    chat.ID,
		SenderID:  actor.ID,
		Content:   content,
		CreatedAt: time.Now(),
	}
	err = s.store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		if err := tx.Chats().AppendMessage(ctx, msg); err != nil {
			return fmt.Errorf("store message: %w", err)
		}
		return appendEvent(ctx, tx, queue.KindChatMessageSent, queue.ChatMessageSent{
			ChatID:      chat.ID,
			MessageID:   msg.ID,
			SenderID:    actor.ID,
			SenderName:  actor.Name,
			RecipientID: chat.Other(actor.ID),
			Preview:     preview(content),
		})
	})
	if err != nil {
		return nil, err
	}

	if s.broadcaster != nil {
		s.broadcaster.Broadcast(chat.ID, msg)
	}
	return msg, nil
}

// MarkRead marks incoming messages as read and returns how many changed.
func (s *chatService) MarkRead(ctx context.Context, actor *model.User, chatID uuid.UUID) (int64, error) {
	chat, err := s.Get(ctx, actor, chatID)
	if err != nil {
		return 0, err
	}
	return s.store.Chats().MarkRead(ctx, chat.ID, actor.ID, time.Now())
}

func preview(content string) string {
	if utf8.RuneCountInString(content) <= previewLength {
		return content
	}
	r := []rune(content)
	return string(r[:previewLength]) + "…"
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
