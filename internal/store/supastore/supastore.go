// Package supastore serves the collections from the hosted data service.
package supastore

import (
	"context"
	"fmt"

	"github.com/Zachkp/folio/internal/domain"
	"github.com/Zachkp/folio/internal/store"
	"github.com/Zachkp/folio/internal/supabase"
)

type ProjectRepo struct {
	c *supabase.Client
}

func NewProjectRepo(c *supabase.Client) *ProjectRepo {
	return &ProjectRepo{c: c}
}

func (r *ProjectRepo) List(ctx context.Context) ([]domain.Project, error) {
	out := make([]domain.Project, 0, 16)
	if err := r.c.From(store.TableProjects).Select("*").Order("created_at", false).Do(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *ProjectRepo) Get(ctx context.Context, id domain.ID) (*domain.Project, error) {
	var p domain.Project
	if err := r.c.From(store.TableProjects).Select("*").Eq("id", id.String()).Single().Do(ctx, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProjectRepo) Create(ctx context.Context, f domain.ProjectFields) (*domain.Project, error) {
	var p domain.Project
	if err := r.c.From(store.TableProjects).Single().Insert(ctx, []domain.ProjectFields{f}, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProjectRepo) Update(ctx context.Context, id domain.ID, f domain.ProjectFields) (*domain.Project, error) {
	var p domain.Project
	if err := r.c.From(store.TableProjects).Eq("id", id.String()).Single().Update(ctx, f, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProjectRepo) Delete(ctx context.Context, id domain.ID) error {
	var deleted []struct {
		ID domain.ID `json:"id"`
	}
	if err := r.c.From(store.TableProjects).Select("id").Eq("id", id.String()).Delete(ctx, &deleted); err != nil {
		return err
	}
	if len(deleted) == 0 {
		return fmt.Errorf("project %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

type MessageRepo struct {
	c *supabase.Client
}

func NewMessageRepo(c *supabase.Client) *MessageRepo {
	return &MessageRepo{c: c}
}

func (r *MessageRepo) List(ctx context.Context) ([]domain.ContactMessage, error) {
	out := make([]domain.ContactMessage, 0, 16)
	if err := r.c.From(store.TableMessages).Select("*").Order("created_at", false).Do(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Create inserts without asking for the row back: visitors may insert into
// contact_messages but are not allowed to read it.
func (r *MessageRepo) Create(ctx context.Context, m domain.NewMessage) (*domain.ContactMessage, error) {
	if err := r.c.From(store.TableMessages).Insert(ctx, []domain.NewMessage{m}, nil); err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}
	return &domain.ContactMessage{Name: m.Name, Email: m.Email, Message: m.Message}, nil
}

func (r *MessageRepo) Delete(ctx context.Context, id domain.ID) error {
	var deleted []struct {
		ID domain.ID `json:"id"`
	}
	if err := r.c.From(store.TableMessages).Select("id").Eq("id", id.String()).Delete(ctx, &deleted); err != nil {
		return err
	}
	if len(deleted) == 0 {
		return fmt.Errorf("message %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

type Pinger struct {
	c *supabase.Client
}

func NewPinger(c *supabase.Client) *Pinger {
	return &Pinger{c: c}
}

func (p *Pinger) Ping(ctx context.Context) error {
	var rows []struct {
		ID domain.ID `json:"id"`
	}
	return p.c.From(store.TableProjects).Select("id").Limit(1).Do(ctx, &rows)
}

func NewBackend(c *supabase.Client) *store.Backend {
	return store.NewBackend("supabase", NewProjectRepo(c), NewMessageRepo(c), NewPinger(c), nil)
}
