package sqlstore

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Zachkp/folio/internal/domain"
)

type MessageRepo struct {
	d *DB
}

func (r *MessageRepo) List(ctx context.Context) ([]domain.ContactMessage, error) {
	rows, err := r.d.db.QueryContext(ctx, `
		SELECT id, name, email, message, created_at
		FROM contact_messages
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	out := make([]domain.ContactMessage, 0, 16)
	for rows.Next() {
		var m domain.ContactMessage
		var id string
		if err := rows.Scan(&id, &m.Name, &m.Email, &m.Message, timeColumn{&m.CreatedAt}); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		m.ID = domain.ID(id)
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *MessageRepo) Create(ctx context.Context, nm domain.NewMessage) (*domain.ContactMessage, error) {
	m := domain.ContactMessage{
		ID:        domain.ID(uuid.NewString()),
		Name:      nm.Name,
		Email:     nm.Email,
		Message:   nm.Message,
		CreatedAt: r.d.now().UTC(),
	}
	_, err := r.d.db.ExecContext(ctx, r.d.rebind(`
		INSERT INTO contact_messages (id, name, email, message, created_at)
		VALUES (?, ?, ?, ?, ?)
	`), m.ID.String(), m.Name, m.Email, m.Message, r.d.timeArg(m.CreatedAt))
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}
	return &m, nil
}

func (r *MessageRepo) Delete(ctx context.Context, id domain.ID) error {
	result, err := r.d.db.ExecContext(ctx, r.d.rebind(`DELETE FROM contact_messages WHERE id = ?`), id.String())
	if err != nil {
		return fmt.Errorf("delete message %s: %w", id, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("message %s: %w", id, domain.ErrNotFound)
	}
	return nil
}
