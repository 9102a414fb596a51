package sqlstore

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zachkp/folio/internal/domain"
)

func openSQLite(t *testing.T) *DB {
	t.Helper()
	ctx := context.Background()
	db, err := Open(ctx, SQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate(ctx))
	return db
}

// steppingClock advances one minute per call.
func steppingClock() func() time.Time {
	t := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Minute)
		return t
	}
}

func fields(title string, tech ...string) domain.ProjectFields {
	return domain.ProjectFields{
		Title:        title,
		Description:  title + " description",
		Technologies: domain.Technologies(tech),
		GitHub:       "https://github.com/me/" + title,
		LiveDemo:     "https://" + title + ".dev",
	}
}

func TestSQLite_ProjectLifecycle(t *testing.T) {
	db := openSQLite(t)
	db.now = steppingClock()
	repo := db.Projects()
	ctx := context.Background()

	first, err := repo.Create(ctx, fields("alpha", "Go", "HTMX"))
	require.NoError(t, err)
	second, err := repo.Create(ctx, fields("beta", "React"))
	require.NoError(t, err)
	third, err := repo.Create(ctx, fields("gamma"))
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	assert.NotEqual(t, first.ID, second.ID)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []domain.ID{third.ID, second.ID, first.ID}, []domain.ID{list[0].ID, list[1].ID, list[2].ID})
	for i := 1; i < len(list); i++ {
		assert.False(t, list[i-1].CreatedAt.Before(list[i].CreatedAt))
	}
	assert.Equal(t, domain.Technologies{"Go", "HTMX"}, list[2].Technologies)
	assert.Equal(t, domain.Technologies{}, list[0].Technologies)

	got, err := repo.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "alpha", got.Title)
	assert.True(t, got.CreatedAt.Equal(first.CreatedAt))

	updated, err := repo.Update(ctx, first.ID, fields("alpha2", "Go"))
	require.NoError(t, err)
	assert.Equal(t, "alpha2", updated.Title)
	assert.Equal(t, first.ID, updated.ID)
	assert.True(t, updated.CreatedAt.Equal(first.CreatedAt))

	require.NoError(t, repo.Delete(ctx, second.ID))
	list, err = repo.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.ID{third.ID, first.ID}, []domain.ID{list[0].ID, list[1].ID})

	assert.ErrorIs(t, repo.Delete(ctx, second.ID), domain.ErrNotFound)
	_, err = repo.Get(ctx, second.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = repo.Update(ctx, second.ID, fields("zeta"))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSQLite_Messages(t *testing.T) {
	db := openSQLite(t)
	db.now = steppingClock()
	repo := db.Messages()
	ctx := context.Background()

	a, err := repo.Create(ctx, domain.NewMessage{Name: "Ada", Email: "ada@example.com", Message: "Hello"})
	require.NoError(t, err)
	b, err := repo.Create(ctx, domain.NewMessage{Name: "Bob", Email: "bob@example.com", Message: "Hi"})
	require.NoError(t, err)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, b.ID, list[0].ID)
	assert.Equal(t, "Hello", list[1].Message)

	require.NoError(t, repo.Delete(ctx, a.ID))
	assert.ErrorIs(t, repo.Delete(ctx, a.ID), domain.ErrNotFound)
}

func TestSQLite_MigrateTwiceAndPing(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()

	require.NoError(t, db.Migrate(ctx))
	assert.NoError(t, db.Ping(ctx))

	_, err := db.Projects().Create(ctx, fields("one"))
	require.NoError(t, err)
	assert.NoError(t, db.Ping(ctx))
}

func TestRebind(t *testing.T) {
	pg := New(nil, Postgres)
	assert.Equal(t, "UPDATE t SET a = $1 WHERE id = $2", pg.rebind("UPDATE t SET a = ? WHERE id = ?"))

	lite := New(nil, SQLite)
	assert.Equal(t, "SELECT ? ", lite.rebind("SELECT ? "))
}

func TestPostgres_Queries(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db := New(sqlDB, Postgres)
	repo := db.Projects()
	ctx := context.Background()

	t.Run("create uses numbered placeholders", func(t *testing.T) {
		mock.ExpectExec(`INSERT INTO projects .* VALUES \(\$1, \$2, \$3, \$4, \$5, \$6, \$7, \$8, \$9\)`).
			WithArgs(sqlmock.AnyArg(), "alpha", "alpha description", "", `["Go"]`,
				"https://github.com/me/alpha", "https://alpha.dev", "", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		p, err := repo.Create(ctx, fields("alpha", "Go"))
		require.NoError(t, err)
		assert.NotEmpty(t, p.ID)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("delete of a missing row is not found", func(t *testing.T) {
		mock.ExpectExec(`DELETE FROM projects WHERE id = \$1`).
			WithArgs("missing").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Delete(ctx, "missing")
		assert.ErrorIs(t, err, domain.ErrNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("list decodes jsonb and timestamptz", func(t *testing.T) {
		created := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
		mock.ExpectQuery(`SELECT .* FROM projects ORDER BY created_at DESC`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "title", "description", "image", "technologies", "github", "live_demo", "category", "created_at"}).
				AddRow("p1", "alpha", "d", "", []byte(`["Go","HTMX"]`), "g", "l", "", created))

		list, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, domain.Technologies{"Go", "HTMX"}, list[0].Technologies)
		assert.True(t, list[0].CreatedAt.Equal(created))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ping reads one id", func(t *testing.T) {
		mock.ExpectQuery(`SELECT id FROM projects LIMIT 1`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		assert.NoError(t, db.Ping(ctx))
		require.NoError(t, mock.ExpectationsWereMet())
	})
}
