package service

import (
	"context"
	"strings"

	"github.com/oshaberi/chat-service/internal/broadcast"
	"github.com/oshaberi/chat-service/internal/domain"
	"github.com/oshaberi/chat-service/internal/render"
)

type MessageStore interface {
	Insert(ctx context.Context, m *domain.Message) error
	History(ctx context.Context, roomID, after string, limit int) ([]domain.Message, string, error)
}

// MessageService — speak открытых комнат: персист, затем публикация.
type MessageService struct {
	store  MessageStore
	pub    Publisher
	render *render.Renderer

	maxMsgLen int
}

func NewMessageService(store MessageStore, pub Publisher, r *render.Renderer, maxMsgLen int) *MessageService {
	if maxMsgLen <= 0 {
		maxMsgLen = 4000
	}
	return &MessageService{store: store, pub: pub, render: r, maxMsgLen: maxMsgLen}
}

// Speak сохраняет сообщение (стор в той же транзакции освежает комнату
// и автора) и последним шагом публикует его слушателям комнаты.
func (s *MessageService) Speak(ctx context.Context, roomID string, user *domain.User, content string, attachment *string) (*domain.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" && attachment == nil {
		return nil, domain.ErrEmptyMessage
	}
	if len(content) > s.maxMsgLen {
		return nil, domain.ErrMessageTooLong
	}

	m := &domain.Message{
		RoomID:     roomID,
		UserID:     user.ID,
		UserName:   user.Name,
		Content:    content,
		Attachment: attachment,
	}
	if err := s.store.Insert(ctx, m); err != nil {
		return nil, err
	}

	s.pub.Publish(roomID, broadcast.Event{
		Type:    broadcast.EventMessage,
		RoomID:  roomID,
		Payload: s.render.Message(m.UserName, m.Content, m.Attachment, m.CreatedAt),
	})
	return m, nil
}

func (s *MessageService) History(ctx context.Context, roomID, after string, limit int) ([]domain.Message, string, error) {
	return s.store.History(ctx, roomID, after, limit)
}
