package service

import (
	"context"
	"errors"

	"github.com/oshaberi/chat-service/internal/domain"
)

type UserStore interface {
	CreateGuest(ctx context.Context, namePrefix string) (*domain.User, error)
	Get(ctx context.Context, id int64) (*domain.User, error)
	Rename(ctx context.Context, id int64, name string) error
	Touch(ctx context.Context, id int64) error
}

type UserService struct {
	store UserStore

	guestPrefix string
}

func NewUserService(store UserStore, guestPrefix string) *UserService {
	if guestPrefix == "" {
		guestPrefix = "ゲスト"
	}
	return &UserService{store: store, guestPrefix: guestPrefix}
}

// Guest создаёт гостевую identity при первом визите.
func (s *UserService) Guest(ctx context.Context) (*domain.User, error) {
	return s.store.CreateGuest(ctx, s.guestPrefix)
}

// Resolve возвращает пользователя по id; протухший id (вычищен рипером) —
// новый гость вместо ошибки.
func (s *UserService) Resolve(ctx context.Context, id int64) (*domain.User, error) {
	u, err := s.store.Get(ctx, id)
	if errors.Is(err, domain.ErrUserNotFound) {
		return s.Guest(ctx)
	}
	return u, err
}

// Rename меняет отображаемое имя. Валидация — до записи; при нарушении
// вызывающий оставляет прежнее имя, сессия не падает.
func (s *UserService) Rename(ctx context.Context, id int64, name string) error {
	if err := domain.ValidateUserName(name); err != nil {
		return err
	}
	return s.store.Rename(ctx, id, name)
}

// Touch освежает отметку активности; best-effort на горячем пути.
func (s *UserService) Touch(ctx context.Context, id int64) error {
	return s.store.Touch(ctx, id)
}
