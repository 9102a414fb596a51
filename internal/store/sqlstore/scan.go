package sqlstore

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Zachkp/folio/internal/domain"
)

// timeColumn accepts the native timestamp Postgres returns and the fixed-width
// text SQLite stores.
type timeColumn struct {
	t *time.Time
}

func (c timeColumn) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*c.t = v
		return nil
	case string:
		return c.parse(v)
	case []byte:
		return c.parse(string(v))
	case nil:
		*c.t = time.Time{}
		return nil
	}
	return fmt.Errorf("created_at: unsupported type %T", src)
}

func (c timeColumn) parse(s string) error {
	for _, layout := range []string{sqliteTime, time.RFC3339Nano, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			*c.t = t
			return nil
		}
	}
	return fmt.Errorf("created_at: cannot parse %q", s)
}

// techColumn decodes the JSON array column.
type techColumn struct {
	t *domain.Technologies
}

func (c techColumn) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	case nil:
		*c.t = domain.Technologies{}
		return nil
	default:
		return fmt.Errorf("technologies: unsupported type %T", src)
	}
	return c.t.UnmarshalJSON(raw)
}

func techArg(t domain.Technologies) (string, error) {
	b, err := json.Marshal(t)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

type scanner interface {
	Scan(dest ...any) error
}
