// Package projects is the projects collection service. Every operation
// answers with a Result instead of an error return so that callers render
// data and failure through one shape.
package projects

import (
	"context"
	"fmt"
	"log"
	"sort"

	"github.com/Zachkp/folio/internal/domain"
	"github.com/Zachkp/folio/internal/store"
)

// Result is the {data, error} union. Exactly one side is meaningful.
type Result[T any] struct {
	Data  T     `json:"data"`
	Error error `json:"-"`
}

func (r Result[T]) OK() bool { return r.Error == nil }

// Message is the error text for JSON payloads, or "" on success.
func (r Result[T]) Message() string {
	if r.Error == nil {
		return ""
	}
	return r.Error.Error()
}

func ok[T any](v T) Result[T] { return Result[T]{Data: v} }

func fail[T any](err error) Result[T] { return Result[T]{Error: err} }

type Service struct {
	repo store.ProjectRepository
}

func NewService(repo store.ProjectRepository) *Service {
	return &Service{repo: repo}
}

// guard converts a panic inside an operation into a failed result.
func guard[T any](op string, res *Result[T]) {
	if r := recover(); r != nil {
		log.Printf("[projects] %s panicked: %v", op, r)
		*res = fail[T](fmt.Errorf("%s: %v", op, r))
	}
}

// List returns every project, newest first.
func (s *Service) List(ctx context.Context) (res Result[[]domain.Project]) {
	defer guard("list", &res)

	list, err := s.repo.List(ctx)
	if err != nil {
		log.Printf("[projects] Error fetching projects: %v", err)
		return fail[[]domain.Project](err)
	}
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	return ok(list)
}

func (s *Service) Get(ctx context.Context, id domain.ID) (res Result[domain.Project]) {
	defer guard("get", &res)

	p, err := s.repo.Get(ctx, id)
	if err != nil {
		log.Printf("[projects] Error fetching project %s: %v", id, err)
		return fail[domain.Project](err)
	}
	return ok(*p)
}

// Create inserts a project; id and created_at come back from the store.
func (s *Service) Create(ctx context.Context, f domain.ProjectFields) (res Result[domain.Project]) {
	defer guard("create", &res)

	p, err := s.repo.Create(ctx, f.Normalize())
	if err != nil {
		log.Printf("[projects] Error creating project: %v", err)
		return fail[domain.Project](err)
	}
	return ok(*p)
}

// Update overwrites every editable field of the project.
func (s *Service) Update(ctx context.Context, id domain.ID, f domain.ProjectFields) (res Result[domain.Project]) {
	defer guard("update", &res)

	p, err := s.repo.Update(ctx, id, f.Normalize())
	if err != nil {
		log.Printf("[projects] Error updating project %s: %v", id, err)
		return fail[domain.Project](err)
	}
	return ok(*p)
}

func (s *Service) Delete(ctx context.Context, id domain.ID) (res Result[struct{}]) {
	defer guard("delete", &res)

	if err := s.repo.Delete(ctx, id); err != nil {
		log.Printf("[projects] Error deleting project %s: %v", id, err)
		return fail[struct{}](err)
	}
	return ok(struct{}{})
}
