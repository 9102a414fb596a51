package supabase

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/Zachkp/folio/internal/domain"
)

// codeSingleRow is PostgREST's answer when a single-object request matched
// zero or several rows.
const codeSingleRow = "PGRST116"

// Error is a non-2xx answer from PostgREST or GoTrue.
type Error struct {
	Status  int
	Code    string
	Message string
	Details string
	Hint    string
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if e.Code != "" {
		return fmt.Sprintf("supabase: %s (%s, status %d)", msg, e.Code, e.Status)
	}
	return fmt.Sprintf("supabase: %s (status %d)", msg, e.Status)
}

// Is maps service answers onto the domain sentinels.
func (e *Error) Is(target error) bool {
	switch target {
	case domain.ErrNotFound:
		return e.Code == codeSingleRow || e.Status == http.StatusNotFound
	case domain.ErrUnauthenticated:
		return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
	case domain.ErrInvalidCredentials:
		return e.Status == http.StatusBadRequest &&
			(e.Code == "invalid_grant" || e.Code == "invalid_credentials")
	}
	return false
}

func parseError(status int, raw []byte) error {
	e := &Error{Status: status}

	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		e.Message = strings.TrimSpace(string(raw))
		return e
	}

	e.Code = firstString(body, "code", "error_code", "error")
	e.Message = firstString(body, "message", "msg", "error_description")
	e.Details = firstString(body, "details")
	e.Hint = firstString(body, "hint")
	return e
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}
