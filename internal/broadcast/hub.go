package broadcast

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Event — то, что уходит слушателям комнаты. Payload формируется рендером
// на стороне публикатора; хаб его не интерпретирует.
type Event struct {
	Type    string `json:"type"`
	RoomID  string `json:"room_id"`
	Payload any    `json:"payload"`
}

const (
	EventMessage = "message" // сообщение пользователя
	EventSystem  = "system"  // вход/выход, системные объявления
)

// Listener — живое подключение, зарегистрированное на события комнаты.
// Send обязан быть ограничен по времени (дедлайн на стороне соединения):
// один зависший клиент не должен стопорить рассылку всей комнате.
type Listener interface {
	Send(ev Event) error
}

// Token идентифицирует одну подписку.
type Token string

type subscription struct {
	roomID   string
	listener Listener
}

// Hub держит наборы слушателей по комнатам и раздаёт публикации.
// Комнаты независимы: межкомнатного порядка нет и блокировок между ними тоже.
type Hub struct {
	mu     sync.RWMutex
	rooms  map[string]map[Token]*subscription
	tokens map[Token]*subscription
}

func NewHub() *Hub {
	return &Hub{
		rooms:  make(map[string]map[Token]*subscription),
		tokens: make(map[Token]*subscription),
	}
}

// Subscribe регистрирует слушателя комнаты и возвращает токен подписки.
// Повторный Subscribe того же слушателя в ту же комнату возвращает
// существующий токен, а не вторую подписку.
func (h *Hub) Subscribe(roomID string, l Listener) Token {
	h.mu.Lock()
	defer h.mu.Unlock()

	rs, ok := h.rooms[roomID]
	if !ok {
		rs = make(map[Token]*subscription)
		h.rooms[roomID] = rs
	}
	for tok, sub := range rs {
		if sub.listener == l {
			return tok
		}
	}

	tok := Token(uuid.NewString())
	sub := &subscription{roomID: roomID, listener: l}
	rs[tok] = sub
	h.tokens[tok] = sub
	return tok
}

// Unsubscribe снимает подписку. Уже снятая — no-op.
func (h *Hub) Unsubscribe(tok Token) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sub, ok := h.tokens[tok]
	if !ok {
		return
	}
	delete(h.tokens, tok)
	if rs, ok := h.rooms[sub.roomID]; ok {
		delete(rs, tok)
		if len(rs) == 0 {
			delete(h.rooms, sub.roomID)
		}
	}
}

// Publish доставляет событие всем, кто подписан на комнату в момент вызова.
// Подписавшиеся позже событие не получают — бэклога и повтора нет.
// Снимок под RLock, доставка вне его: ошибка одного слушателя логируется
// и не мешает остальным. Публикации из одной горутины приходят каждому
// слушателю в порядке публикации.
func (h *Hub) Publish(roomID string, ev Event) {
	h.mu.RLock()
	rs := h.rooms[roomID]
	listeners := make([]Listener, 0, len(rs))
	for _, sub := range rs {
		listeners = append(listeners, sub.listener)
	}
	h.mu.RUnlock()

	for _, l := range listeners {
		if err := l.Send(ev); err != nil {
			slog.Warn("broadcast send failed", "room", roomID, "type", ev.Type, "err", err)
		}
	}
}

// Listeners возвращает число активных подписок комнаты.
func (h *Hub) Listeners(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.rooms[roomID])
}
