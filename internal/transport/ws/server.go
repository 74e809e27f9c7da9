package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/oshaberi/chat-service/internal/broadcast"
	"github.com/oshaberi/chat-service/internal/domain"
	sessmw "github.com/oshaberi/chat-service/internal/transport/http/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

type UserSvc interface {
	Resolve(ctx context.Context, id int64) (*domain.User, error)
	Touch(ctx context.Context, id int64) error
}

type RoomSvc interface {
	GetRoom(ctx context.Context, id string) (*domain.Room, error)
}

type MessageSvc interface {
	Speak(ctx context.Context, roomID string, user *domain.User, content string, attachment *string) (*domain.Message, error)
}

type ChatRoomSvc interface {
	Subscribe(ctx context.Context, roomID string, user *domain.User) (*domain.ChatRoom, bool, error)
	AnnounceJoin(ctx context.Context, roomID string, user *domain.User)
	Unsubscribe(ctx context.Context, roomID string, user *domain.User) error
	Speak(ctx context.Context, roomID string, user *domain.User, content string, attachment *string) (*domain.Chat, error)
}

type Server struct {
	upgrader  websocket.Upgrader
	hub       *broadcast.Hub
	users     UserSvc
	rooms     RoomSvc
	messages  MessageSvc
	chatRooms ChatRoomSvc

	pingEvery time.Duration
}

func NewServer(hub *broadcast.Hub, users UserSvc, rooms RoomSvc, messages MessageSvc, chatRooms ChatRoomSvc) *Server {
	return &Server{
		hub:       hub,
		users:     users,
		rooms:     rooms,
		messages:  messages,
		chatRooms: chatRooms,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		pingEvery: 15 * time.Second,
	}
}

// WS endpoint открытой комнаты: GET /ws/rooms/{id}
func (s *Server) HandleRoomWS(w http.ResponseWriter, r *http.Request) {
	user, ok := s.resolveUser(w, r)
	if !ok {
		return
	}
	roomID := chi.URLParam(r, "id")

	// протухший id комнаты — не ошибка, а возврат к списку
	if _, err := s.rooms.GetRoom(r.Context(), roomID); err != nil {
		if errors.Is(err, domain.ErrRoomNotFound) {
			http.Redirect(w, r, "/rooms", http.StatusSeeOther)
			return
		}
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("ws upgrade failed", "err", err)
		return
	}

	c := newWsConn(conn)
	tok := s.hub.Subscribe(roomID, c)

	speak := func(ctx context.Context, content string, attachment *string) error {
		_, err := s.messages.Speak(ctx, roomID, user, content, attachment)
		return err
	}

	go s.writeLoop(r.Context(), c, user)
	s.readLoop(r.Context(), c, roomID, user, speak)

	// разрыв соединения снимает подписку так же, как явный уход
	s.hub.Unsubscribe(tok)
	if err := c.Close(); err != nil {
		slog.Debug("ws close failed", "room", roomID, "user", user.ID, "err", err)
	}
}

// WS endpoint парной комнаты: GET /ws/chat-rooms/{id}.
// Слот занимается до апгрейда: полная чужая комната — это policy-редирект
// к списку комнат, не ошибка.
func (s *Server) HandleChatRoomWS(w http.ResponseWriter, r *http.Request) {
	user, ok := s.resolveUser(w, r)
	if !ok {
		return
	}
	roomID := chi.URLParam(r, "id")

	_, becameFull, err := s.chatRooms.Subscribe(r.Context(), roomID, user)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRoomFull), errors.Is(err, domain.ErrChatRoomNotFound):
			http.Redirect(w, r, "/rooms", http.StatusSeeOther)
		default:
			slog.Error("ws chat room subscribe failed", "room", roomID, "user", user.ID, "err", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("ws upgrade failed", "err", err)
		// слот уже занят — вернуть обратно
		_ = s.chatRooms.Unsubscribe(r.Context(), roomID, user)
		return
	}

	c := newWsConn(conn)
	tok := s.hub.Subscribe(roomID, c)

	// объявление о входе — только после регистрации слушателя:
	// иначе сам вошедший его не получит
	if becameFull {
		s.chatRooms.AnnounceJoin(r.Context(), roomID, user)
	}

	speak := func(ctx context.Context, content string, attachment *string) error {
		_, err := s.chatRooms.Speak(ctx, roomID, user, content, attachment)
		return err
	}

	go s.writeLoop(r.Context(), c, user)
	s.readLoop(r.Context(), c, roomID, user, speak)

	// сначала снять слушателя, потом слот: прощальное объявление
	// ушедшему уже не доставляется
	s.hub.Unsubscribe(tok)
	if err := s.chatRooms.Unsubscribe(r.Context(), roomID, user); err != nil {
		slog.Warn("ws chat room unsubscribe failed", "room", roomID, "user", user.ID, "err", err)
	}
	if err := c.Close(); err != nil {
		slog.Debug("ws close failed", "room", roomID, "user", user.ID, "err", err)
	}
}

func (s *Server) resolveUser(w http.ResponseWriter, r *http.Request) (*domain.User, bool) {
	userID := sessmw.UserIDFromCtx(r.Context())
	if userID == 0 {
		http.Error(w, "missing session", http.StatusUnauthorized)
		return nil, false
	}
	user, err := s.users.Resolve(r.Context(), userID)
	if err != nil {
		slog.Error("ws resolve user failed", "user", userID, "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return nil, false
	}
	return user, true
}

func (s *Server) readLoop(ctx context.Context, c *wsConn, roomID string, user *domain.User, speak func(context.Context, string, *string) error) {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(1 << 20)
	c.conn.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
		_ = s.users.Touch(ctx, user.ID)
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			break
		}
		var frame Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			continue
		}

		switch frame.Type {
		case TypeSpeak:
			var p SpeakPayload
			if decode(frame.Payload, &p) != nil {
				continue
			}
			if err := speak(ctx, p.Message, p.Attachment); err != nil {
				// невалидное сообщение молча игнорируется, сессия живёт
				slog.Debug("ws speak rejected", "room", roomID, "user", user.ID, "err", err)
			}
		default:
			// ignore
		}
	}
}

func (s *Server) writeLoop(ctx context.Context, c *wsConn, user *domain.User) {
	ticker := time.NewTicker(s.pingEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_ = c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
		case <-ctx.Done():
			return
		case <-c.closed:
			return
		}
	}
}

// --- helpers ---

func decode(payload interface{}, dst interface{}) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	return json.Unmarshal(b, dst)
}

// wsConn — обёртка соединения, отдаётся хабу слушателем. Send сериализован
// и ограничен дедлайном: медленный клиент не тормозит рассылку комнате.
type wsConn struct {
	conn   *websocket.Conn
	sendMu chan struct{}
	closed chan struct{}
}

func newWsConn(c *websocket.Conn) *wsConn {
	return &wsConn{
		conn:   c,
		sendMu: make(chan struct{}, 1),
		closed: make(chan struct{}),
	}
}

func (c *wsConn) Send(ev broadcast.Event) error {
	c.sendMu <- struct{}{}
	defer func() { <-c.sendMu }()
	c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))

	return c.conn.WriteJSON(ev)
}

func (c *wsConn) Close() error {
	select {
	case <-c.closed:
	default:
		close(c.closed)
	}

	return c.conn.Close()
}
