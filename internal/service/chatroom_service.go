package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/oshaberi/chat-service/internal/broadcast"
	"github.com/oshaberi/chat-service/internal/domain"
	"github.com/oshaberi/chat-service/internal/render"
)

// ChatRoomStore — всё, что жизненному циклу парных комнат нужно от хранилища.
// Claim и Vacate обязаны быть атомарными на уровне комнаты: два параллельных
// запроса не могут занять один и тот же свободный слот.
type ChatRoomStore interface {
	Get(ctx context.Context, id string) (*domain.ChatRoom, error)
	MatchFree(ctx context.Context, userID int64) (*domain.ChatRoom, error)
	Claim(ctx context.Context, roomID string, userID int64) (*domain.ChatRoom, bool, error)
	Vacate(ctx context.Context, roomID string, userID int64) (vacated, destroyed bool, err error)
	InsertChat(ctx context.Context, c *domain.Chat) error
	ListChats(ctx context.Context, roomID string) ([]domain.Chat, error)
}

// Publisher — выход в broadcast-хаб.
type Publisher interface {
	Publish(roomID string, ev broadcast.Event)
}

// ChatRoomService — матчер и жизненный цикл парных комнат:
// EMPTY → ONE_OCCUPIED → FULL и обратно, уничтожение по опустению.
type ChatRoomService struct {
	store  ChatRoomStore
	pub    Publisher
	render *render.Renderer

	// объявления о входе/выходе включаются конфигом:
	// в исходной системе их то добавляли, то убирали
	announce  bool
	maxMsgLen int
}

func NewChatRoomService(store ChatRoomStore, pub Publisher, r *render.Renderer, announce bool, maxMsgLen int) *ChatRoomService {
	if maxMsgLen <= 0 {
		maxMsgLen = 4000
	}
	return &ChatRoomService{
		store:     store,
		pub:       pub,
		render:    r,
		announce:  announce,
		maxMsgLen: maxMsgLen,
	}
}

// Match подбирает пользователю комнату со свободным слотом либо создаёт новую.
func (s *ChatRoomService) Match(ctx context.Context, user *domain.User) (*domain.ChatRoom, error) {
	return s.store.MatchFree(ctx, user.ID)
}

func (s *ChatRoomService) Get(ctx context.Context, id string) (*domain.ChatRoom, error) {
	return s.store.Get(ctx, id)
}

func (s *ChatRoomService) History(ctx context.Context, roomID string) ([]domain.Chat, error) {
	return s.store.ListChats(ctx, roomID)
}

// Subscribe занимает слот комнаты за пользователем. Полная чужая комната —
// ErrRoomFull, наверху это редирект, не ошибка. Второй результат — комната
// заполнилась именно этим клеймом: объявление о входе публикует транспорт
// через AnnounceJoin, уже зарегистрировав слушателя в хабе. Публиковать
// прямо отсюда нельзя — вошедший ещё не слушает, а хаб не повторяет.
func (s *ChatRoomService) Subscribe(ctx context.Context, roomID string, user *domain.User) (*domain.ChatRoom, bool, error) {
	cr, claimed, err := s.store.Claim(ctx, roomID, user.ID)
	if err != nil {
		return nil, false, err
	}
	return cr, claimed && cr.Occupancy() == domain.Full, nil
}

// AnnounceJoin шлёт объявление о входе обоим участникам. Вызывается после
// регистрации слушателя, чтобы объявление дошло и до самого вошедшего.
func (s *ChatRoomService) AnnounceJoin(ctx context.Context, roomID string, user *domain.User) {
	s.announceSystem(ctx, roomID, user, fmt.Sprintf("%sが入室しました。", user.Name))
}

// Unsubscribe освобождает слот пользователя; пользователь без слота — no-op.
// Опустевшая комната уничтожена стором в той же транзакции, объявление
// о выходе тогда не шлётся — слушать его уже некому.
func (s *ChatRoomService) Unsubscribe(ctx context.Context, roomID string, user *domain.User) error {
	vacated, destroyed, err := s.store.Vacate(ctx, roomID, user.ID)
	if err != nil {
		return err
	}

	if vacated && !destroyed {
		s.announceSystem(ctx, roomID, user, fmt.Sprintf("%sが退出しました。", user.Name))
	}
	return nil
}

// Speak сохраняет сообщение и последним шагом публикует его слушателям.
// Говорить могут только занимающие слот: чужому — ErrNotInRoom.
func (s *ChatRoomService) Speak(ctx context.Context, roomID string, user *domain.User, content string, attachment *string) (*domain.Chat, error) {
	content = strings.TrimSpace(content)
	if content == "" && attachment == nil {
		return nil, domain.ErrEmptyMessage
	}
	if len(content) > s.maxMsgLen {
		return nil, domain.ErrMessageTooLong
	}

	cr, err := s.store.Get(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !cr.HasOccupant(user.ID) {
		return nil, domain.ErrNotInRoom
	}

	c := &domain.Chat{
		ChatRoomID: roomID,
		UserID:     user.ID,
		UserName:   user.Name,
		Content:    content,
		Attachment: attachment,
	}
	if err := s.store.InsertChat(ctx, c); err != nil {
		return nil, err
	}

	s.pub.Publish(roomID, broadcast.Event{
		Type:    broadcast.EventMessage,
		RoomID:  roomID,
		Payload: s.render.Message(c.UserName, c.Content, c.Attachment, c.CreatedAt),
	})
	return c, nil
}

// announceSystem пишет системное сообщение в историю и рассылает его.
// Сбой здесь не валит операцию подписки: объявление — побочный эффект.
func (s *ChatRoomService) announceSystem(ctx context.Context, roomID string, user *domain.User, content string) {
	if !s.announce {
		return
	}

	c := &domain.Chat{
		ChatRoomID: roomID,
		UserID:     user.ID,
		UserName:   user.Name,
		Content:    content,
	}
	if err := s.store.InsertChat(ctx, c); err != nil {
		slog.Warn("chat room announce failed", "room", roomID, "user", user.ID, "err", err)
		c.CreatedAt = time.Now()
	}

	s.pub.Publish(roomID, broadcast.Event{
		Type:    broadcast.EventSystem,
		RoomID:  roomID,
		Payload: s.render.System(content, c.CreatedAt),
	})
}
