package http

import (
	"net/http"
	"time"

	"github.com/oshaberi/chat-service/internal/security"
	"github.com/oshaberi/chat-service/internal/service"
	httpmw "github.com/oshaberi/chat-service/internal/transport/http/middleware"
	"github.com/oshaberi/chat-service/internal/transport/ws"

	"github.com/go-chi/chi/v5"
	middlewareChi "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func NewRouter(h *Handler, signer *security.GuestSigner, userSvc *service.UserService, wsServer *ws.Server) http.Handler {
	r := chi.NewRouter()
	r.Use(middlewareChi.RequestID)
	r.Use(middlewareChi.RealIP)
	r.Use(middlewareChi.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
	}))

	// Все маршруты за гостевой сессией: identity чеканится при первом визите
	r.Group(func(pr chi.Router) {
		pr.Use(httpmw.Session(signer, userSvc))
		pr.Use(httpmw.Activity(userSvc))

		// WS endpoints: время жизни соединения не ограничиваем
		pr.Get("/ws/rooms/{id}", wsServer.HandleRoomWS)
		pr.Get("/ws/chat-rooms/{id}", wsServer.HandleChatRoomWS)

		pr.Group(func(ar chi.Router) {
			ar.Use(middlewareChi.Timeout(30 * time.Second))

			ar.Route("/rooms", func(rm chi.Router) {
				rm.Post("/", h.CreateRoom)
				rm.Get("/", h.ListRooms)

				rm.Route("/{id}", func(rr chi.Router) {
					rr.Get("/", h.GetRoom)
					rr.Get("/messages", h.GetHistory)
				})
			})

			ar.Route("/chat-rooms", func(cr chi.Router) {
				cr.Get("/match", h.MatchChatRoom)
				cr.Get("/{id}", h.GetChatRoom)
			})

			ar.Route("/articles", func(am chi.Router) {
				am.Post("/", h.ArchiveRoom)
				am.Get("/{id}", h.GetArticle)
				am.Post("/{id}/like", h.LikeArticle)
			})

			ar.Get("/me", h.Me)
			ar.Put("/me", h.RenameUser)
		})
	})

	// health
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return r
}
