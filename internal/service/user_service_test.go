package service

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/oshaberi/chat-service/internal/domain"
)

type memUserStore struct {
	nextID  int64
	users   map[int64]*domain.User
	renamed map[int64]string
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: make(map[int64]*domain.User), renamed: make(map[int64]string)}
}

func (s *memUserStore) CreateGuest(_ context.Context, prefix string) (*domain.User, error) {
	s.nextID++
	u := &domain.User{ID: s.nextID, Name: fmt.Sprintf("%s%d", prefix, s.nextID)}
	s.users[u.ID] = u
	return u, nil
}

func (s *memUserStore) Get(_ context.Context, id int64) (*domain.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}

func (s *memUserStore) Rename(_ context.Context, id int64, name string) error {
	u, ok := s.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.Name = name
	s.renamed[id] = name
	return nil
}

func (s *memUserStore) Touch(_ context.Context, _ int64) error { return nil }

func TestGuest_NameCarriesPrefixAndID(t *testing.T) {
	svc := NewUserService(newMemUserStore(), "")

	u, err := svc.Guest(context.Background())
	if err != nil {
		t.Fatalf("guest: %v", err)
	}
	if u.Name != "ゲスト1" {
		t.Fatalf("guest name = %q", u.Name)
	}
}

func TestResolve_StaleIDMintsNewGuest(t *testing.T) {
	store := newMemUserStore()
	svc := NewUserService(store, "гость")

	// id 42 вычищен уборкой — Resolve выдаёт свежего гостя, а не ошибку
	u, err := svc.Resolve(context.Background(), 42)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if u.ID == 42 {
		t.Fatalf("stale id must not be resurrected")
	}
	if u.Name != "гость1" {
		t.Fatalf("new guest name = %q", u.Name)
	}
}

func TestResolve_ExistingUser(t *testing.T) {
	store := newMemUserStore()
	svc := NewUserService(store, "")

	created, _ := svc.Guest(context.Background())
	got, err := svc.Resolve(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got.ID != created.ID {
		t.Fatalf("resolved id = %d, want %d", got.ID, created.ID)
	}
}

func TestRename_ValidatesBeforeWrite(t *testing.T) {
	store := newMemUserStore()
	svc := NewUserService(store, "")
	u, _ := svc.Guest(context.Background())

	if err := svc.Rename(context.Background(), u.ID, ""); err != domain.ErrNameRequired {
		t.Fatalf("blank name: %v", err)
	}
	// 16 рун — на одну больше лимита
	if err := svc.Rename(context.Background(), u.ID, strings.Repeat("あ", 16)); err != domain.ErrNameTooLong {
		t.Fatalf("long name: %v", err)
	}
	if len(store.renamed) != 0 {
		t.Fatalf("invalid names must not reach the store: %v", store.renamed)
	}

	if err := svc.Rename(context.Background(), u.ID, "новое имя"); err != nil {
		t.Fatalf("valid rename: %v", err)
	}
	if store.renamed[u.ID] != "новое имя" {
		t.Fatalf("renamed = %q", store.renamed[u.ID])
	}
}
