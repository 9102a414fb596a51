package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/sessions"

	"github.com/Zachkp/folio/internal/domain"
	"github.com/Zachkp/folio/internal/kv"
)

const (
	cookieName = "admin_session"
	sidKey     = "sid"
)

// Sessions keeps only an opaque id in the browser cookie; the AdminSession
// itself stays in the kv store.
type Sessions struct {
	cookies sessions.Store
	store   kv.Store
	ttl     time.Duration
}

func NewSessions(secret []byte, secure bool, store kv.Store, ttl time.Duration) *Sessions {
	cs := sessions.NewCookieStore(secret)
	cs.Options = &sessions.Options{
		Path:     "/admin",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &Sessions{cookies: cs, store: store, ttl: ttl}
}

func sessionKey(id string) string { return "session:" + id }

// Save assigns s a fresh id, stores it and sets the cookie.
func (m *Sessions) Save(w http.ResponseWriter, r *http.Request, s *domain.AdminSession) error {
	s.ID = generateToken()
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}

	ttl := m.ttl
	if !s.ExpiresAt.IsZero() {
		if left := time.Until(s.ExpiresAt); left > 0 && left < ttl {
			ttl = left
		}
	}
	if err := m.store.Set(r.Context(), sessionKey(s.ID), raw, ttl); err != nil {
		return fmt.Errorf("store session: %w", err)
	}

	cookie, _ := m.cookies.Get(r, cookieName)
	cookie.Values[sidKey] = s.ID
	return cookie.Save(r, w)
}

// Load returns the session behind the request cookie, or
// domain.ErrUnauthenticated.
func (m *Sessions) Load(r *http.Request) (*domain.AdminSession, error) {
	id := m.id(r)
	if id == "" {
		return nil, domain.ErrUnauthenticated
	}
	return m.Get(r.Context(), id)
}

func (m *Sessions) Get(ctx context.Context, id string) (*domain.AdminSession, error) {
	raw, err := m.store.Get(ctx, sessionKey(id))
	if errors.Is(err, kv.ErrMiss) {
		return nil, domain.ErrUnauthenticated
	}
	if err != nil {
		return nil, err
	}
	var s domain.AdminSession
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &s, nil
}

// Drop forgets a session server-side; its cookie becomes useless.
func (m *Sessions) Drop(ctx context.Context, id string) error {
	return m.store.Delete(ctx, sessionKey(id))
}

// Clear drops the session and expires the cookie.
func (m *Sessions) Clear(w http.ResponseWriter, r *http.Request) error {
	cookie, _ := m.cookies.Get(r, cookieName)
	if id, ok := cookie.Values[sidKey].(string); ok && id != "" {
		if err := m.Drop(r.Context(), id); err != nil {
			return err
		}
	}
	delete(cookie.Values, sidKey)
	cookie.Options.MaxAge = -1
	return cookie.Save(r, w)
}

func (m *Sessions) id(r *http.Request) string {
	cookie, err := m.cookies.Get(r, cookieName)
	if err != nil {
		return ""
	}
	id, _ := cookie.Values[sidKey].(string)
	return id
}
