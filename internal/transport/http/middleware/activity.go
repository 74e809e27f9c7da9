package httpmw

import (
	"context"
	"net/http"
)

type ActivityToucher interface {
	Touch(ctx context.Context, userID int64) error
}

// Activity обновляет отметку активности пользователя на каждом запросе:
// рипер меряет stale именно по ней.
func Activity(users ActivityToucher) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if userID := UserIDFromCtx(r.Context()); userID != 0 {
				// best-effort: ошибки не прерывают запрос
				_ = users.Touch(r.Context(), userID)
			}
			next.ServeHTTP(w, r)
		})
	}
}
