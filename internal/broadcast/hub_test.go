package broadcast

import (
	"errors"
	"fmt"
	"sync"
	"testing"
)

type recordingListener struct {
	mu     sync.Mutex
	events []Event
	fail   bool
}

func (l *recordingListener) Send(ev Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fail {
		return errors.New("connection dropped")
	}
	l.events = append(l.events, ev)
	return nil
}

func (l *recordingListener) received() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Event, len(l.events))
	copy(out, l.events)
	return out
}

func TestPublish_OrderPreserved(t *testing.T) {
	hub := NewHub()
	l := &recordingListener{}
	hub.Subscribe("room-1", l)

	for i := 0; i < 100; i++ {
		hub.Publish("room-1", Event{Type: EventMessage, RoomID: "room-1", Payload: i})
	}

	got := l.received()
	if len(got) != 100 {
		t.Fatalf("expected 100 events, got %d", len(got))
	}
	for i, ev := range got {
		if ev.Payload.(int) != i {
			t.Fatalf("event %d out of order: got payload %v", i, ev.Payload)
		}
	}
}

func TestPublish_NoReplayForLateSubscriber(t *testing.T) {
	hub := NewHub()
	early := &recordingListener{}
	hub.Subscribe("room-1", early)

	hub.Publish("room-1", Event{Type: EventMessage, RoomID: "room-1", Payload: "hello"})
	hub.Publish("room-1", Event{Type: EventMessage, RoomID: "room-1", Payload: "world"})

	late := &recordingListener{}
	hub.Subscribe("room-1", late)

	if got := early.received(); len(got) != 2 || got[0].Payload != "hello" || got[1].Payload != "world" {
		t.Fatalf("early listener got %v", got)
	}
	if got := late.received(); len(got) != 0 {
		t.Fatalf("late subscriber must not receive a backlog, got %v", got)
	}
}

func TestPublish_FailedListenerIsolated(t *testing.T) {
	hub := NewHub()
	broken := &recordingListener{fail: true}
	ok := &recordingListener{}
	hub.Subscribe("room-1", broken)
	hub.Subscribe("room-1", ok)

	hub.Publish("room-1", Event{Type: EventMessage, RoomID: "room-1", Payload: "x"})

	if got := ok.received(); len(got) != 1 {
		t.Fatalf("healthy listener must still receive the event, got %d", len(got))
	}
}

func TestSubscribe_DuplicateReturnsSameToken(t *testing.T) {
	hub := NewHub()
	l := &recordingListener{}

	tok1 := hub.Subscribe("room-1", l)
	tok2 := hub.Subscribe("room-1", l)
	if tok1 != tok2 {
		t.Fatalf("duplicate subscribe created a second subscription: %s vs %s", tok1, tok2)
	}

	hub.Publish("room-1", Event{Type: EventMessage, RoomID: "room-1", Payload: "once"})
	if got := l.received(); len(got) != 1 {
		t.Fatalf("expected 1 delivery, got %d", len(got))
	}
}

func TestUnsubscribe_Idempotent(t *testing.T) {
	hub := NewHub()
	l := &recordingListener{}
	tok := hub.Subscribe("room-1", l)

	hub.Unsubscribe(tok)
	hub.Unsubscribe(tok) // второй раз — no-op

	hub.Publish("room-1", Event{Type: EventMessage, RoomID: "room-1", Payload: "gone"})
	if got := l.received(); len(got) != 0 {
		t.Fatalf("unsubscribed listener received %v", got)
	}
	if n := hub.Listeners("room-1"); n != 0 {
		t.Fatalf("room should have no listeners, has %d", n)
	}
}

func TestPublish_RoomsAreIndependent(t *testing.T) {
	hub := NewHub()
	a := &recordingListener{}
	b := &recordingListener{}
	hub.Subscribe("room-a", a)
	hub.Subscribe("room-b", b)

	hub.Publish("room-a", Event{Type: EventMessage, RoomID: "room-a", Payload: "for-a"})

	if got := a.received(); len(got) != 1 {
		t.Fatalf("room-a listener got %d events", len(got))
	}
	if got := b.received(); len(got) != 0 {
		t.Fatalf("room-b listener must not see room-a traffic, got %v", got)
	}
}

func TestHub_ConcurrentSubscribePublish(t *testing.T) {
	hub := NewHub()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			l := &recordingListener{}
			roomID := fmt.Sprintf("room-%d", i%5)
			tok := hub.Subscribe(roomID, l)
			hub.Unsubscribe(tok)
		}(i)
		go func(i int) {
			defer wg.Done()
			roomID := fmt.Sprintf("room-%d", i%5)
			hub.Publish(roomID, Event{Type: EventMessage, RoomID: roomID, Payload: i})
		}(i)
	}
	wg.Wait()

	for i := 0; i < 5; i++ {
		if n := hub.Listeners(fmt.Sprintf("room-%d", i)); n != 0 {
			t.Fatalf("room-%d leaked %d subscriptions", i, n)
		}
	}
}

// Сценарий: два сообщения подряд, третий слушатель подписан всё время,
// четвёртый подключается после — и не получает ничего.
func TestScenario_TwoSpeakersOneObserver(t *testing.T) {
	hub := NewHub()
	observer := &recordingListener{}
	hub.Subscribe("open-room", observer)

	hub.Publish("open-room", Event{Type: EventMessage, RoomID: "open-room", Payload: "hello"})
	hub.Publish("open-room", Event{Type: EventMessage, RoomID: "open-room", Payload: "world"})

	latecomer := &recordingListener{}
	hub.Subscribe("open-room", latecomer)

	got := observer.received()
	if len(got) != 2 || got[0].Payload != "hello" || got[1].Payload != "world" {
		t.Fatalf("observer expected [hello world] in order, got %v", got)
	}
	if got := latecomer.received(); len(got) != 0 {
		t.Fatalf("latecomer must receive nothing on subscribe, got %v", got)
	}
}
