package store

import (
	"context"

	"github.com/Zachkp/folio/internal/domain"
)

// Unavailable is a Backend whose repositories always fail with err, so pages
// still render and show their failure state. It has no Pinger.
func Unavailable(name string, err error) *Backend {
	return NewBackend(name, unavailableProjects{err}, unavailableMessages{err}, nil, nil)
}

type unavailableProjects struct{ err error }

func (u unavailableProjects) List(context.Context) ([]domain.Project, error) { return nil, u.err }

func (u unavailableProjects) Get(context.Context, domain.ID) (*domain.Project, error) {
	return nil, u.err
}

func (u unavailableProjects) Create(context.Context, domain.ProjectFields) (*domain.Project, error) {
	return nil, u.err
}

func (u unavailableProjects) Update(context.Context, domain.ID, domain.ProjectFields) (*domain.Project, error) {
	return nil, u.err
}

func (u unavailableProjects) Delete(context.Context, domain.ID) error { return u.err }

type unavailableMessages struct{ err error }

func (u unavailableMessages) List(context.Context) ([]domain.ContactMessage, error) {
	return nil, u.err
}

func (u unavailableMessages) Create(context.Context, domain.NewMessage) (*domain.ContactMessage, error) {
	return nil, u.err
}

func (u unavailableMessages) Delete(context.Context, domain.ID) error { return u.err }
