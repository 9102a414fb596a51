// Package store declares the collections the site persists and picks the
// backend that serves them.
package store

import (
	"context"

	"github.com/Zachkp/folio/internal/domain"
)

const (
	TableProjects = "projects"
	TableMessages = "contact_messages"
)

type ProjectRepository interface {
	// List returns every project, newest first.
	List(ctx context.Context) ([]domain.Project, error)
	// Get returns exactly one project or an error matching domain.ErrNotFound.
	Get(ctx context.Context, id domain.ID) (*domain.Project, error)
	Create(ctx context.Context, f domain.ProjectFields) (*domain.Project, error)
	// Update overwrites every editable field of the project.
	Update(ctx context.Context, id domain.ID, f domain.ProjectFields) (*domain.Project, error)
	Delete(ctx context.Context, id domain.ID) error
}

type MessageRepository interface {
	List(ctx context.Context) ([]domain.ContactMessage, error)
	Create(ctx context.Context, m domain.NewMessage) (*domain.ContactMessage, error)
	Delete(ctx context.Context, id domain.ID) error
}

// Pinger performs the smallest possible read against the projects collection.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Backend bundles one persistence implementation.
type Backend struct {
	Name     string
	Projects ProjectRepository
	Messages MessageRepository
	Pinger   Pinger
	close    func() error
}

func NewBackend(name string, projects ProjectRepository, messages MessageRepository, pinger Pinger, closeFn func() error) *Backend {
	return &Backend{Name: name, Projects: projects, Messages: messages, Pinger: pinger, close: closeFn}
}

func (b *Backend) Close() error {
	if b == nil || b.close == nil {
		return nil
	}
	return b.close()
}
