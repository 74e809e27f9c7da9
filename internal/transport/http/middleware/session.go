package httpmw

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/oshaberi/chat-service/internal/domain"
	"github.com/oshaberi/chat-service/internal/security"
)

type ctxKey string

const ctxKeyUserID ctxKey = "user_id"

const sessionCookie = "chat_session"

type GuestMinter interface {
	Guest(ctx context.Context) (*domain.User, error)
}

// Session резолвит подписанную гостевую identity из cookie. Нет или
// протухла — чеканится новый гость и cookie переустанавливается.
// Явной регистрации нет: identity появляется при первом визите.
func Session(signer *security.GuestSigner, users GuestMinter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if c, err := r.Cookie(sessionCookie); err == nil {
				if uid, err := signer.Parse(c.Value); err == nil {
					ctx := context.WithValue(r.Context(), ctxKeyUserID, uid)
					next.ServeHTTP(w, r.WithContext(ctx))
					return
				}
			}

			guest, err := users.Guest(r.Context())
			if err != nil {
				slog.Error("mint guest failed", "err", err)
				http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
				return
			}

			token, err := signer.Sign(guest.ID, time.Now())
			if err != nil {
				slog.Error("sign guest token failed", "user", guest.ID, "err", err)
				http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
				return
			}
			http.SetCookie(w, &http.Cookie{
				Name:     sessionCookie,
				Value:    token,
				Path:     "/",
				MaxAge:   int(signer.TTL() / time.Second),
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})

			ctx := context.WithValue(r.Context(), ctxKeyUserID, guest.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func UserIDFromCtx(ctx context.Context) int64 {
	if v := ctx.Value(ctxKeyUserID); v != nil {
		if id, ok := v.(int64); ok {
			return id
		}
	}
	return 0
}

// WithUserID — для тестов и внутренних вызовов.
func WithUserID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, ctxKeyUserID, id)
}
