package auth

import (
	"log"
	"sync"
	"time"

	"github.com/Zachkp/folio/internal/domain"
)

type EventKind string

const (
	SignedIn  EventKind = "SIGNED_IN"
	SignedOut EventKind = "SIGNED_OUT"
)

// Event is an auth-state change for one admin session.
type Event struct {
	Kind      EventKind        `json:"event"`
	SessionID string           `json:"-"`
	User      domain.AdminUser `json:"user"`
	At        time.Time        `json:"at"`
}

const subscriberBuffer = 8

type subscriber struct {
	sessionID string
	ch        chan Event
}

// Broker fans auth-state changes out to subscribers.
type Broker struct {
	mu   sync.Mutex
	next int
	subs map[int]subscriber
}

func NewBroker() *Broker {
	return &Broker{subs: make(map[int]subscriber)}
}

// Subscribe delivers the events of one session, or of every session when
// sessionID is empty. The returned release func closes the channel; calling it
// more than once is fine.
func (b *Broker) Subscribe(sessionID string) (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.next
	b.next++
	ch := make(chan Event, subscriberBuffer)
	b.subs[id] = subscriber{sessionID: sessionID, ch: ch}

	var once sync.Once
	release := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs, id)
			close(ch)
		})
	}
	return ch, release
}

// Publish never blocks; a subscriber whose buffer is full misses the event.
func (b *Broker) Publish(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, s := range b.subs {
		if s.sessionID != "" && s.sessionID != ev.SessionID {
			continue
		}
		select {
		case s.ch <- ev:
		default:
			log.Printf("[auth] dropped %s event for a slow subscriber", ev.Kind)
		}
	}
}

func (b *Broker) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
