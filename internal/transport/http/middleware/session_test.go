package httpmw

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/oshaberi/chat-service/internal/domain"
	"github.com/oshaberi/chat-service/internal/security"
)

type fakeMinter struct {
	minted int
}

func (m *fakeMinter) Guest(context.Context) (*domain.User, error) {
	m.minted++
	return &domain.User{ID: int64(m.minted), Name: "ゲスト"}, nil
}

func TestSession_MintsGuestOnFirstVisit(t *testing.T) {
	signer := security.NewGuestSigner([]byte("secret"), "chat-service", time.Hour)
	minter := &fakeMinter{}

	var gotID int64
	h := Session(signer, minter)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = UserIDFromCtx(r.Context())
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/rooms", nil))

	if minter.minted != 1 {
		t.Fatalf("minted = %d, want 1", minter.minted)
	}
	if gotID != 1 {
		t.Fatalf("ctx user id = %d, want 1", gotID)
	}

	cookies := w.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != "chat_session" {
		t.Fatalf("cookies = %v", cookies)
	}
	if !cookies[0].HttpOnly {
		t.Fatal("session cookie must be HttpOnly")
	}
	if uid, err := signer.Parse(cookies[0].Value); err != nil || uid != 1 {
		t.Fatalf("cookie token: uid=%d err=%v", uid, err)
	}
}

func TestSession_ReusesValidCookie(t *testing.T) {
	signer := security.NewGuestSigner([]byte("secret"), "chat-service", time.Hour)
	minter := &fakeMinter{}

	tok, err := signer.Sign(42, time.Now())
	if err != nil {
		t.Fatal(err)
	}

	var gotID int64
	h := Session(signer, minter)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = UserIDFromCtx(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/rooms", nil)
	req.AddCookie(&http.Cookie{Name: "chat_session", Value: tok})
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if minter.minted != 0 {
		t.Fatalf("valid cookie must not mint a guest, minted = %d", minter.minted)
	}
	if gotID != 42 {
		t.Fatalf("ctx user id = %d, want 42", gotID)
	}
}

func TestSession_BadCookieMintsFresh(t *testing.T) {
	signer := security.NewGuestSigner([]byte("secret"), "chat-service", time.Hour)
	other := security.NewGuestSigner([]byte("other"), "chat-service", time.Hour)
	minter := &fakeMinter{}

	tok, _ := other.Sign(7, time.Now())

	var gotID int64
	h := Session(signer, minter)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = UserIDFromCtx(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/rooms", nil)
	req.AddCookie(&http.Cookie{Name: "chat_session", Value: tok})
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if minter.minted != 1 {
		t.Fatalf("tampered cookie must mint a fresh guest, minted = %d", minter.minted)
	}
	if gotID != 1 {
		t.Fatalf("ctx user id = %d, want 1", gotID)
	}
}
