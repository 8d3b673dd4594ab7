// Package events is an in-process publish/subscribe bus for user-scoped
// notifications such as toasts and list changes.
package events

import (
	"sync"
	"time"
)

type Kind string

const (
	ListsChanged       Kind = "lists.changed"
	Toast              Kind = "toast"
	PreferencesChanged Kind = "preferences.changed"
	AuthChanged        Kind = "auth.changed"
)

type Level string

const (
	Success Level = "success"
	Error   Level = "error"
	Info    Level = "info"
)

type Event struct {
	Kind    Kind      `json:"type"`
	UserID  string    `json:"-"`
	Payload any       `json:"payload,omitempty"`
	At      time.Time `json:"at"`
}

type ToastPayload struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

// Bus delivers events synchronously to every subscriber. A nil *Bus
// discards everything published to it.
type Bus struct {
	mu   sync.RWMutex
	next int
	subs map[int]func(Event)
}

func NewBus() *Bus {
	return &Bus{subs: make(map[int]func(Event))}
}

// Subscribe registers fn and returns a function that removes it.
func (b *Bus) Subscribe(fn func(Event)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.next
	b.next++
	b.subs[id] = fn
	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

func (b *Bus) Publish(e Event) {
	if b == nil {
		return
	}
	if e.At.IsZero() {
		e.At = time.Now()
	}
	b.mu.RLock()
	subs := make([]func(Event), 0, len(b.subs))
	for _, fn := range b.subs {
		subs = append(subs, fn)
	}
	b.mu.RUnlock()

	for _, fn := range subs {
		fn(e)
	}
}

func (b *Bus) Toast(userID string, level Level, msg string) {
	b.Publish(Event{Kind: Toast, UserID: userID, Payload: ToastPayload{Level: level, Message: msg}})
}
