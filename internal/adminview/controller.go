// Package adminview holds the state behind the authenticated admin pages:
// the project list, the create/edit form and the messages list.
package adminview

import (
	"context"
	"errors"
	"sync"

	"github.com/Zachkp/folio/internal/domain"
	"github.com/Zachkp/folio/internal/projects"
)

var (
	ErrBusy         = errors.New("another change is still in progress")
	ErrNotConfirmed = errors.New("delete must be confirmed")
)

const (
	msgLoadFailed   = "Failed to load projects"
	msgSaveFailed   = "Failed to save project"
	msgDeleteFailed = "Failed to delete project"
)

type ProjectService interface {
	List(ctx context.Context) projects.Result[[]domain.Project]
	Create(ctx context.Context, f domain.ProjectFields) projects.Result[domain.Project]
	Update(ctx context.Context, id domain.ID, f domain.ProjectFields) projects.Result[domain.Project]
	Delete(ctx context.Context, id domain.ID) projects.Result[struct{}]
}

type Mode int

const (
	ModeCreate Mode = iota
	ModeEdit
)

func (m Mode) String() string {
	if m == ModeEdit {
		return "edit"
	}
	return "create"
}

// State is a snapshot for rendering.
type State struct {
	Projects  []domain.Project
	Loading   bool
	Error     string
	ShowForm  bool
	Mode      Mode
	EditingID domain.ID
	Draft     domain.ProjectDraft
	FormError string
	Busy      bool
}

// Controller drives the projects admin view of one admin session.
type Controller struct {
	mu      sync.Mutex
	svc     ProjectService
	state   State
	entered bool
	busy    bool
}

func NewController(svc ProjectService) *Controller {
	return &Controller{svc: svc, state: State{Loading: true}}
}

// Enter fetches the list the first time the view is shown and is a no-op
// afterwards.
func (c *Controller) Enter(ctx context.Context) error {
	c.mu.Lock()
	if c.entered {
		c.mu.Unlock()
		return nil
	}
	c.entered = true
	c.mu.Unlock()
	return c.Refresh(ctx)
}

// Refresh refetches the whole list. A failure keeps the last list it had.
func (c *Controller) Refresh(ctx context.Context) error {
	c.mu.Lock()
	c.state.Loading = true
	c.mu.Unlock()

	res := c.svc.List(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Loading = false
	if !res.OK() {
		c.state.Error = msgLoadFailed
		return res.Error
	}
	c.state.Error = ""
	c.state.Projects = res.Data
	return nil
}

func (c *Controller) StartCreate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.ShowForm = true
	c.state.Mode = ModeCreate
	c.state.EditingID = ""
	c.state.Draft = domain.ProjectDraft{}
	c.state.FormError = ""
}

// StartEdit seeds the draft from a project in the held list.
func (c *Controller) StartEdit(id domain.ID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, p := range c.state.Projects {
		if p.ID == id {
			c.state.ShowForm = true
			c.state.Mode = ModeEdit
			c.state.EditingID = id
			c.state.Draft = domain.DraftFromProject(p)
			c.state.FormError = ""
			return nil
		}
	}
	return domain.ErrNotFound
}

// Cancel discards the draft without touching the data service.
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetForm()
}

func (c *Controller) resetForm() {
	c.state.ShowForm = false
	c.state.Mode = ModeCreate
	c.state.EditingID = ""
	c.state.Draft = domain.ProjectDraft{}
	c.state.FormError = ""
}

// acquire marks the controller busy; the caller must hold c.mu.
func (c *Controller) acquire() bool {
	if c.busy {
		return false
	}
	c.busy = true
	c.state.Busy = true
	return true
}

func (c *Controller) releaseBusy() {
	c.mu.Lock()
	c.busy = false
	c.state.Busy = false
	c.mu.Unlock()
}

// Submit validates the draft, then fully updates project id, or creates a
// new project when id is empty. The target comes from the submitted form, not
// from the current mode, so a form opened in another tab or before a restart
// still writes where it was opened for. On success the form closes and the
// list is refetched; on failure the draft is kept.
func (c *Controller) Submit(ctx context.Context, id domain.ID, draft domain.ProjectDraft) error {
	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return ErrBusy
	}
	c.state.ShowForm = true
	c.state.EditingID = id
	c.state.Mode = ModeCreate
	if id != "" {
		c.state.Mode = ModeEdit
	}
	c.state.Draft = draft
	if err := draft.Validate(); err != nil {
		c.state.FormError = err.Error()
		c.mu.Unlock()
		return err
	}
	c.acquire()
	c.mu.Unlock()

	var res projects.Result[domain.Project]
	if id != "" {
		res = c.svc.Update(ctx, id, draft.Fields())
	} else {
		res = c.svc.Create(ctx, draft.Fields())
	}
	c.releaseBusy()

	if !res.OK() {
		c.mu.Lock()
		c.state.FormError = msgSaveFailed
		c.mu.Unlock()
		return res.Error
	}

	c.mu.Lock()
	c.resetForm()
	c.mu.Unlock()
	return c.Refresh(ctx)
}

// Delete removes a project after an explicit confirmation and refetches.
func (c *Controller) Delete(ctx context.Context, id domain.ID, confirmed bool) error {
	if !confirmed {
		return ErrNotConfirmed
	}

	c.mu.Lock()
	if !c.acquire() {
		c.mu.Unlock()
		return ErrBusy
	}
	c.mu.Unlock()

	res := c.svc.Delete(ctx, id)
	c.releaseBusy()

	if !res.OK() {
		c.mu.Lock()
		c.state.Error = msgDeleteFailed
		c.mu.Unlock()
		return res.Error
	}
	return c.Refresh(ctx)
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.state
	s.Projects = append([]domain.Project(nil), c.state.Projects...)
	return s
}
