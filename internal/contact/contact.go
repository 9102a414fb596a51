// Package contact stores visitor messages and notifies the site owner.
package contact

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/Zachkp/folio/internal/domain"
	"github.com/Zachkp/folio/internal/store"
)

var ErrInFlight = errors.New("a message from this client is already being sent")

const (
	SuccessMessage = "Thank you for your message! I'll get back to you soon."
	FailureMessage = "Sorry, there was an error sending your message. Please try again later."
)

// Notifier tells the owner about a new message.
type Notifier interface {
	Notify(ctx context.Context, m domain.ContactMessage) error
}

type Service struct {
	repo     store.MessageRepository
	notifier Notifier

	mu       sync.Mutex
	inflight map[string]struct{}
	wg       sync.WaitGroup
}

// NewService takes an optional notifier; nil disables notifications.
func NewService(repo store.MessageRepository, notifier Notifier) *Service {
	return &Service{repo: repo, notifier: notifier, inflight: make(map[string]struct{})}
}

// Submit validates and stores one message. client identifies the submitter;
// a second submission from the same client while the first is pending is
// refused with ErrInFlight.
func (s *Service) Submit(ctx context.Context, client string, m domain.NewMessage) (*domain.ContactMessage, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	if _, busy := s.inflight[client]; busy {
		s.mu.Unlock()
		return nil, ErrInFlight
	}
	s.inflight[client] = struct{}{}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.inflight, client)
		s.mu.Unlock()
	}()

	saved, err := s.repo.Create(ctx, m.Trimmed())
	if err != nil {
		log.Printf("[contact] Error saving message: %v", err)
		return nil, fmt.Errorf("save message: %w", err)
	}

	if s.notifier != nil {
		s.wg.Add(1)
		go s.notify(*saved)
	}
	return saved, nil
}

func (s *Service) notify(m domain.ContactMessage) {
	defer s.wg.Done()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.notifier.Notify(ctx, m); err != nil {
		log.Printf("[contact] Error sending notification: %v", err)
	}
}

// Wait blocks until pending notifications are done.
func (s *Service) Wait() {
	s.wg.Wait()
}

func (s *Service) List(ctx context.Context) ([]domain.ContactMessage, error) {
	msgs, err := s.repo.List(ctx)
	if err != nil {
		log.Printf("[contact] Error fetching messages: %v", err)
		return nil, err
	}
	return msgs, nil
}

func (s *Service) Delete(ctx context.Context, id domain.ID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		log.Printf("[contact] Error deleting message %s: %v", id, err)
		return err
	}
	return nil
}
