package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/oshaberi/chat-service/internal/domain"

	"github.com/google/uuid"
)

type RoomStore interface {
	Create(ctx context.Context, room *domain.Room, tags []string) error
	Get(ctx context.Context, id string) (*domain.Room, error)
	Tags(ctx context.Context, roomID string) ([]domain.RoomTag, error)
	List(ctx context.Context, limit int, cursor string) ([]domain.Room, string, error)
	DeleteCascade(ctx context.Context, id string) error
}

type RoomService struct {
	store RoomStore
}

func NewRoomService(store RoomStore) *RoomService {
	return &RoomService{store: store}
}

// CreateRoom создаёт комнату; пустое имя получает сгенерированное ROOM-xxxx.
// Теги приходят одной строкой через "#" и раскладываются в room_tags.
func (s *RoomService) CreateRoom(ctx context.Context, name, tagStr string) (*domain.Room, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = fmt.Sprintf("ROOM-%s", uuid.NewString()[:8])
	}

	room := &domain.Room{Name: name}
	if err := s.store.Create(ctx, room, SplitTags(tagStr)); err != nil {
		return nil, fmt.Errorf("roomStore.Create: %w", err)
	}
	return room, nil
}

func (s *RoomService) GetRoom(ctx context.Context, id string) (*domain.Room, error) {
	return s.store.Get(ctx, id)
}

func (s *RoomService) RoomTags(ctx context.Context, id string) ([]domain.RoomTag, error) {
	return s.store.Tags(ctx, id)
}

// ListRooms возвращает список комнат с курсорной пагинацией.
func (s *RoomService) ListRooms(ctx context.Context, limit int, cursor string) ([]domain.Room, string, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 50 {
		limit = 50
	}

	return s.store.List(ctx, limit, cursor)
}

// DeleteRoom явно удаляет комнату каскадом с сообщениями и тегами.
func (s *RoomService) DeleteRoom(ctx context.Context, id string) error {
	return s.store.DeleteCascade(ctx, id)
}

// SplitTags раскладывает строку вида "#go#чат#random" в список тегов.
func SplitTags(tagStr string) []string {
	var tags []string
	for _, t := range strings.Split(tagStr, "#") {
		t = strings.TrimSpace(t)
		if t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
