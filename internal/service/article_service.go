package service

import (
	"context"
	"strings"

	"github.com/oshaberi/chat-service/internal/domain"
)

type ArticleStore interface {
	ArchiveRoom(ctx context.Context, roomID, title string) (*domain.Article, error)
	Get(ctx context.Context, id string) (*domain.Article, error)
	Messages(ctx context.Context, articleID string) ([]domain.ArticleMessage, error)
	Like(ctx context.Context, id string) (int64, error)
}

// ArticleService — архивные снимки историй комнат.
type ArticleService struct {
	store ArticleStore
	rooms RoomStore
}

func NewArticleService(store ArticleStore, rooms RoomStore) *ArticleService {
	return &ArticleService{store: store, rooms: rooms}
}

// Archive снимает копию истории комнаты. Заголовок по умолчанию — имя комнаты.
func (s *ArticleService) Archive(ctx context.Context, roomID, title string) (*domain.Article, error) {
	room, err := s.rooms.Get(ctx, roomID)
	if err != nil {
		return nil, err
	}

	title = strings.TrimSpace(title)
	if title == "" {
		title = room.Name
	}
	return s.store.ArchiveRoom(ctx, roomID, title)
}

func (s *ArticleService) Get(ctx context.Context, id string) (*domain.Article, []domain.ArticleMessage, error) {
	a, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	msgs, err := s.store.Messages(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return a, msgs, nil
}

func (s *ArticleService) Like(ctx context.Context, id string) (int64, error) {
	return s.store.Like(ctx, id)
}
