package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/oshaberi/chat-service/internal/domain"
	"github.com/oshaberi/chat-service/internal/postgres"
	"github.com/oshaberi/chat-service/internal/service"
	httpmw "github.com/oshaberi/chat-service/internal/transport/http/middleware"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	roomSvc     *service.RoomService
	userSvc     *service.UserService
	messageSvc  *service.MessageService
	chatRoomSvc *service.ChatRoomService
	articleSvc  *service.ArticleService
}

func NewHandler(room *service.RoomService, user *service.UserService, message *service.MessageService,
	chatRoom *service.ChatRoomService, article *service.ArticleService) *Handler {
	return &Handler{
		roomSvc:     room,
		userSvc:     user,
		messageSvc:  message,
		chatRoomSvc: chatRoom,
		articleSvc:  article,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// POST /rooms
func (h *Handler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	var req CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid json"})
		return
	}
	room, err := h.roomSvc.CreateRoom(r.Context(), req.Name, req.Tags)
	if err != nil {
		slog.Error("handler.CreateRoom:", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusCreated, RoomItem{
		ID:        room.ID,
		Name:      room.Name,
		Tags:      service.SplitTags(req.Tags),
		CreatedAt: room.CreatedAt,
		UpdatedAt: room.UpdatedAt,
	})
}

// GET /rooms?limit=&cursor=
func (h *Handler) ListRooms(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			limit = n
		}
	}
	cursor := r.URL.Query().Get("cursor")

	rooms, next, err := h.roomSvc.ListRooms(r.Context(), limit, cursor)
	if err != nil {
		if errors.Is(err, postgres.ErrInvalidCursor) {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid_cursor"})
			return
		}
		slog.Error("handler.ListRooms:", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	resp := RoomsListResponse{Items: make([]RoomItem, 0, len(rooms)), NextCursor: next}
	for _, rm := range rooms {
		resp.Items = append(resp.Items, RoomItem{
			ID:        rm.ID,
			Name:      rm.Name,
			CreatedAt: rm.CreatedAt,
			UpdatedAt: rm.UpdatedAt,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

// GET /rooms/{id}
func (h *Handler) GetRoom(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	room, err := h.roomSvc.GetRoom(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrRoomNotFound) {
			writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "room not found"})
			return
		}
		slog.Error("handler.GetRoom:", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	tags, err := h.roomSvc.RoomTags(r.Context(), id)
	if err != nil {
		slog.Error("handler.GetRoom tags:", slog.Any("err", err))
	}
	item := RoomItem{
		ID:        room.ID,
		Name:      room.Name,
		CreatedAt: room.CreatedAt,
		UpdatedAt: room.UpdatedAt,
	}
	for _, t := range tags {
		item.Tags = append(item.Tags, t.Name)
	}

	writeJSON(w, http.StatusOK, item)
}

// GET /rooms/{id}/messages?after=&limit=
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "id")
	after := r.URL.Query().Get("after")
	limit := 50
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			limit = n
		}
	}

	items, next, err := h.messageSvc.History(r.Context(), roomID, after, limit)
	if err != nil {
		if errors.Is(err, postgres.ErrInvalidCursor) {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid_cursor"})
			return
		}
		slog.Error("handler.GetHistory:", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	resp := HistoryResponse{Items: make([]MessageItem, 0, len(items)), NextCursor: next}
	for _, m := range items {
		resp.Items = append(resp.Items, MessageItem{
			ID:         m.ID,
			RoomID:     m.RoomID,
			UserName:   m.UserName,
			Content:    m.Content,
			Attachment: m.Attachment,
			CreatedAt:  m.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// GET /chat-rooms/match — подобрать собеседника и уехать в комнату.
// Поведение исходной системы: всегда редирект на show подобранной комнаты.
func (h *Handler) MatchChatRoom(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	cr, err := h.chatRoomSvc.Match(r.Context(), user)
	if err != nil {
		slog.Error("handler.MatchChatRoom:", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	http.Redirect(w, r, "/chat-rooms/"+cr.ID, http.StatusSeeOther)
}

// GET /chat-rooms/{id}
func (h *Handler) GetChatRoom(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	cr, err := h.chatRoomSvc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrChatRoomNotFound) {
			// протухший id — назад к списку, не ошибка
			http.Redirect(w, r, "/rooms", http.StatusSeeOther)
			return
		}
		slog.Error("handler.GetChatRoom:", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	chats, err := h.chatRoomSvc.History(r.Context(), id)
	if err != nil {
		slog.Error("handler.GetChatRoom history:", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	items := make([]MessageItem, 0, len(chats))
	for _, c := range chats {
		items = append(items, MessageItem{
			ID:         c.ID,
			RoomID:     c.ChatRoomID,
			UserName:   c.UserName,
			Content:    c.Content,
			Attachment: c.Attachment,
			CreatedAt:  c.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": cr.ID, "messages": items})
}

// GET /me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, UserItem{ID: user.ID, Name: user.Name})
}

// PUT /me — смена имени. Невалидное имя не роняет сессию:
// прежнее имя остаётся, клиенту уходит 422 с текущим значением.
func (h *Handler) RenameUser(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	var req RenameUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid json"})
		return
	}

	if err := h.userSvc.Rename(r.Context(), user.ID, req.Name); err != nil {
		switch {
		case errors.Is(err, domain.ErrNameTooLong), errors.Is(err, domain.ErrNameRequired):
			writeJSON(w, http.StatusUnprocessableEntity, UserItem{ID: user.ID, Name: user.Name})
		default:
			slog.Error("handler.RenameUser:", slog.Any("err", err))
			writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		}
		return
	}

	writeJSON(w, http.StatusOK, UserItem{ID: user.ID, Name: req.Name})
}

// POST /articles — архивный снимок истории комнаты
func (h *Handler) ArchiveRoom(w http.ResponseWriter, r *http.Request) {
	var req ArchiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid json"})
		return
	}

	a, err := h.articleSvc.Archive(r.Context(), req.RoomID, req.Title)
	if err != nil {
		if errors.Is(err, domain.ErrRoomNotFound) {
			writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "room not found"})
			return
		}
		slog.Error("handler.ArchiveRoom:", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusCreated, ArticleItem{
		ID: a.ID, Title: a.Title, Likes: a.Likes, CreatedAt: a.CreatedAt,
	})
}

// GET /articles/{id}
func (h *Handler) GetArticle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	a, msgs, err := h.articleSvc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrArticleNotFound) {
			writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "article not found"})
			return
		}
		slog.Error("handler.GetArticle:", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	resp := ArticleResponse{
		Article:  ArticleItem{ID: a.ID, Title: a.Title, Likes: a.Likes, CreatedAt: a.CreatedAt},
		Messages: make([]ArticleMessageItem, 0, len(msgs)),
	}
	for _, m := range msgs {
		resp.Messages = append(resp.Messages, ArticleMessageItem{
			UserName:   m.UserName,
			Content:    m.Content,
			Attachment: m.Attachment,
			Position:   m.Position,
			CreatedAt:  m.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// POST /articles/{id}/like
func (h *Handler) LikeArticle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	likes, err := h.articleSvc.Like(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrArticleNotFound) {
			writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "article not found"})
			return
		}
		slog.Error("handler.LikeArticle:", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]int64{"likes": likes})
}

func (h *Handler) currentUser(w http.ResponseWriter, r *http.Request) (*domain.User, bool) {
	userID := httpmw.UserIDFromCtx(r.Context())
	if userID == 0 {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "missing session"})
		return nil, false
	}
	user, err := h.userSvc.Resolve(r.Context(), userID)
	if err != nil {
		slog.Error("handler.currentUser:", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return nil, false
	}
	return user, true
}
