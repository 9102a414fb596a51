package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/Zachkp/folio/internal/domain"
)

const projectColumns = `id, title, description, image, technologies, github, live_demo, category, created_at`

type ProjectRepo struct {
	d *DB
}

func scanProject(s scanner) (domain.Project, error) {
	var p domain.Project
	var id string
	err := s.Scan(&id, &p.Title, &p.Description, &p.Image, techColumn{&p.Technologies},
		&p.GitHub, &p.LiveDemo, &p.Category, timeColumn{&p.CreatedAt})
	p.ID = domain.ID(id)
	return p, err
}

func (r *ProjectRepo) List(ctx context.Context) ([]domain.Project, error) {
	rows, err := r.d.db.QueryContext(ctx, `SELECT `+projectColumns+` FROM projects ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Project, 0, 16)
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *ProjectRepo) Get(ctx context.Context, id domain.ID) (*domain.Project, error) {
	row := r.d.db.QueryRowContext(ctx, r.d.rebind(`SELECT `+projectColumns+` FROM projects WHERE id = ?`), id.String())
	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("project %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get project %s: %w", id, err)
	}
	return &p, nil
}

func (r *ProjectRepo) Create(ctx context.Context, f domain.ProjectFields) (*domain.Project, error) {
	tech, err := techArg(f.Technologies)
	if err != nil {
		return nil, err
	}

	p := domain.Project{
		ID:           domain.ID(uuid.NewString()),
		Title:        f.Title,
		Description:  f.Description,
		Image:        f.Image,
		Technologies: f.Technologies,
		GitHub:       f.GitHub,
		LiveDemo:     f.LiveDemo,
		Category:     f.Category,
		CreatedAt:    r.d.now().UTC(),
	}
	if p.Technologies == nil {
		p.Technologies = domain.Technologies{}
	}

	_, err = r.d.db.ExecContext(ctx, r.d.rebind(`
		INSERT INTO projects (`+projectColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`), p.ID.String(), p.Title, p.Description, p.Image, tech, p.GitHub, p.LiveDemo, p.Category, r.d.timeArg(p.CreatedAt))
	if err != nil {
		return nil, fmt.Errorf("insert project: %w", err)
	}
	return &p, nil
}

func (r *ProjectRepo) Update(ctx context.Context, id domain.ID, f domain.ProjectFields) (*domain.Project, error) {
	tech, err := techArg(f.Technologies)
	if err != nil {
		return nil, err
	}

	result, err := r.d.db.ExecContext(ctx, r.d.rebind(`
		UPDATE projects
		SET title = ?, description = ?, image = ?, technologies = ?, github = ?, live_demo = ?, category = ?
		WHERE id = ?
	`), f.Title, f.Description, f.Image, tech, f.GitHub, f.LiveDemo, f.Category, id.String())
	if err != nil {
		return nil, fmt.Errorf("update project %s: %w", id, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("project %s: %w", id, domain.ErrNotFound)
	}
	return r.Get(ctx, id)
}

func (r *ProjectRepo) Delete(ctx context.Context, id domain.ID) error {
	result, err := r.d.db.ExecContext(ctx, r.d.rebind(`DELETE FROM projects WHERE id = ?`), id.String())
	if err != nil {
		return fmt.Errorf("delete project %s: %w", id, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("project %s: %w", id, domain.ErrNotFound)
	}
	return nil
}
