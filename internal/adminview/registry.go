package adminview

import (
	"context"
	"sort"
	"sync"

	"github.com/Zachkp/folio/internal/auth"
	"github.com/Zachkp/folio/internal/domain"
)

type MessageService interface {
	List(ctx context.Context) ([]domain.ContactMessage, error)
	Delete(ctx context.Context, id domain.ID) error
}

// MessagesState is a snapshot of the messages view.
type MessagesState struct {
	Messages []domain.ContactMessage
	Loading  bool
	Error    string
}

func (s MessagesState) Empty() bool {
	return !s.Loading && s.Error == "" && len(s.Messages) == 0
}

// MessagesView lists contact messages newest first. A delete removes the
// message from the held copy instead of refetching.
type MessagesView struct {
	mu    sync.Mutex
	svc   MessageService
	state MessagesState
	busy  bool
}

func NewMessagesView(svc MessageService) *MessagesView {
	return &MessagesView{svc: svc, state: MessagesState{Loading: true}}
}

func (v *MessagesView) Load(ctx context.Context) error {
	msgs, err := v.svc.List(ctx)

	v.mu.Lock()
	defer v.mu.Unlock()
	v.state.Loading = false
	if err != nil {
		v.state.Error = "Failed to load messages"
		return err
	}
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].CreatedAt.After(msgs[j].CreatedAt)
	})
	v.state.Error = ""
	v.state.Messages = msgs
	return nil
}

func (v *MessagesView) Delete(ctx context.Context, id domain.ID, confirmed bool) error {
	if !confirmed {
		return ErrNotConfirmed
	}

	v.mu.Lock()
	if v.busy {
		v.mu.Unlock()
		return ErrBusy
	}
	v.busy = true
	v.mu.Unlock()

	err := v.svc.Delete(ctx, id)

	v.mu.Lock()
	defer v.mu.Unlock()
	v.busy = false
	if err != nil {
		v.state.Error = "Failed to delete message"
		return err
	}
	kept := v.state.Messages[:0]
	for _, m := range v.state.Messages {
		if m.ID != id {
			kept = append(kept, m)
		}
	}
	v.state.Messages = kept
	return nil
}

func (v *MessagesView) State() MessagesState {
	v.mu.Lock()
	defer v.mu.Unlock()
	s := v.state
	s.Messages = append([]domain.ContactMessage(nil), v.state.Messages...)
	return s
}

// Session is the admin view state kept for one signed-in admin.
type Session struct {
	Projects *Controller
	Messages *MessagesView
}

// Registry keeps one Session per admin session id and forgets it when the
// session signs out.
type Registry struct {
	mu       sync.Mutex
	projects ProjectService
	messages MessageService
	sessions map[string]*Session
	release  func()
	done     chan struct{}
}

func NewRegistry(projects ProjectService, messages MessageService, broker *auth.Broker) *Registry {
	events, release := broker.Subscribe("")
	r := &Registry{
		projects: projects,
		messages: messages,
		sessions: make(map[string]*Session),
		release:  release,
		done:     make(chan struct{}),
	}
	go r.watch(events)
	return r
}

func (r *Registry) watch(events <-chan auth.Event) {
	defer close(r.done)
	for ev := range events {
		if ev.Kind == auth.SignedOut {
			r.Forget(ev.SessionID)
		}
	}
}

// For returns the session's view state, creating it on first use.
func (r *Registry) For(sessionID string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessionID]
	if !ok {
		s = &Session{
			Projects: NewController(r.projects),
			Messages: NewMessagesView(r.messages),
		}
		r.sessions[sessionID] = s
	}
	return s
}

func (r *Registry) Forget(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sessionID)
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Close releases the broker subscription and waits for the watcher to stop.
func (r *Registry) Close() {
	r.release()
	<-r.done
}
