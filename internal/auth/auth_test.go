package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Zachkp/folio/internal/domain"
	"github.com/Zachkp/folio/internal/kv"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func newLocal(t *testing.T) *LocalProvider {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	require.NoError(t, err)
	p, err := NewLocalProvider("admin@example.com", "", string(hash), kv.NewMemory(), time.Hour)
	require.NoError(t, err)
	return p
}

func next(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(time.Second):
		t.Fatal("no event")
		return Event{}
	}
}

func withCookies(from *httptest.ResponseRecorder, r *http.Request) *http.Request {
	for _, c := range from.Result().Cookies() {
		r.AddCookie(c)
	}
	return r
}

func TestLocalProvider(t *testing.T) {
	p := newLocal(t)
	ctx := context.Background()

	_, err := p.SignIn(ctx, "admin@example.com", "wrong")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	_, err = p.SignIn(ctx, "someone@example.com", "hunter2")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	s, err := p.SignIn(ctx, " Admin@Example.com ", "hunter2")
	require.NoError(t, err)
	assert.NotEmpty(t, s.AccessToken)
	assert.Equal(t, "admin@example.com", s.User.Email)

	u, err := p.GetUser(ctx, s.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, s.User.ID, u.ID)

	require.NoError(t, p.SignOut(ctx, s.AccessToken))
	_, err = p.GetUser(ctx, s.AccessToken)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestNewLocalProvider_NeedsCredentials(t *testing.T) {
	_, err := NewLocalProvider("", "pw", "", kv.NewMemory(), time.Hour)
	assert.ErrorIs(t, err, domain.ErrNotConfigured)
	_, err = NewLocalProvider("a@b.c", "", "", kv.NewMemory(), time.Hour)
	assert.ErrorIs(t, err, domain.ErrNotConfigured)
	_, err = NewLocalProvider("a@b.c", "", "not-a-hash", kv.NewMemory(), time.Hour)
	assert.Error(t, err)
}

func TestGate_LoginResolveLogout(t *testing.T) {
	ctx := context.Background()
	provider := newLocal(t)
	broker := NewBroker()
	gate := NewGate(provider, NewSessions(testSecret, false, kv.NewMemory(), time.Hour), broker, nil)

	events, release := broker.Subscribe("")
	defer release()

	state, _ := gate.Resolve(ctx, httptest.NewRequest(http.MethodGet, "/admin/projects", nil))
	assert.Equal(t, StateUnauthenticated, state)

	login := httptest.NewRecorder()
	s, err := gate.Login(ctx, login, httptest.NewRequest(http.MethodPost, "/admin/login", nil), "admin@example.com", "hunter2", "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, SignedIn, next(t, events).Kind)

	state, got := gate.Resolve(ctx, withCookies(login, httptest.NewRequest(http.MethodGet, "/admin/projects", nil)))
	require.Equal(t, StateAuthenticated, state)
	assert.Equal(t, s.ID, got.ID)

	logout := httptest.NewRecorder()
	require.NoError(t, gate.Logout(ctx, logout, withCookies(login, httptest.NewRequest(http.MethodPost, "/admin/logout", nil))))
	ev := next(t, events)
	assert.Equal(t, SignedOut, ev.Kind)
	assert.Equal(t, s.ID, ev.SessionID)

	// the old cookie no longer resolves
	state, _ = gate.Resolve(ctx, withCookies(login, httptest.NewRequest(http.MethodGet, "/admin/projects", nil)))
	assert.Equal(t, StateUnauthenticated, state)
}

func TestGate_RevokedTokenSignsOut(t *testing.T) {
	ctx := context.Background()
	provider := newLocal(t)
	broker := NewBroker()
	gate := NewGate(provider, NewSessions(testSecret, false, kv.NewMemory(), time.Hour), broker, nil)

	login := httptest.NewRecorder()
	s, err := gate.Login(ctx, login, httptest.NewRequest(http.MethodPost, "/admin/login", nil), "admin@example.com", "hunter2", "10.0.0.1")
	require.NoError(t, err)

	events, release := broker.Subscribe(s.ID)
	defer release()

	require.NoError(t, provider.SignOut(ctx, s.AccessToken))
	state, _ := gate.Resolve(ctx, withCookies(login, httptest.NewRequest(http.MethodGet, "/admin/projects", nil)))
	assert.Equal(t, StateUnauthenticated, state)
	assert.Equal(t, SignedOut, next(t, events).Kind)
}

func TestGate_ExpiredSessionSignsOut(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	broker := NewBroker()
	gate := NewGate(newLocal(t), NewSessions(testSecret, false, kv.NewRedis(client, "t:"), time.Hour), broker, nil)

	login := httptest.NewRecorder()
	s, err := gate.Login(ctx, login, httptest.NewRequest(http.MethodPost, "/admin/login", nil), "admin@example.com", "hunter2", "10.0.0.1")
	require.NoError(t, err)

	events, release := broker.Subscribe(s.ID)
	defer release()

	// the store lets the record expire while the browser keeps the cookie
	mr.FastForward(2 * time.Hour)

	state, _ := gate.Resolve(ctx, withCookies(login, httptest.NewRequest(http.MethodGet, "/admin/projects", nil)))
	assert.Equal(t, StateUnauthenticated, state)
	ev := next(t, events)
	assert.Equal(t, SignedOut, ev.Kind)
	assert.Equal(t, s.ID, ev.SessionID)

	// a request without any cookie announces nothing
	anon, releaseAnon := broker.Subscribe("")
	defer releaseAnon()
	gate.Resolve(ctx, httptest.NewRequest(http.MethodGet, "/admin/projects", nil))
	select {
	case ev := <-anon:
		t.Fatalf("unexpected event %v", ev)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestGate_Throttle(t *testing.T) {
	gate := NewGate(newLocal(t), NewSessions(testSecret, false, kv.NewMemory(), time.Hour), NewBroker(), NewLoginLimiter(time.Minute, 2))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := gate.Login(ctx, httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/admin/login", nil), "admin@example.com", "bad", "10.0.0.2")
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	}
	_, err := gate.Login(ctx, httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/admin/login", nil), "admin@example.com", "hunter2", "10.0.0.2")
	assert.ErrorIs(t, err, ErrTooManyAttempts)

	_, err = gate.Login(ctx, httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/admin/login", nil), "admin@example.com", "hunter2", "10.0.0.3")
	assert.NoError(t, err)
}

func TestSessions_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	m := NewSessions(testSecret, true, kv.NewRedis(client, "folio:"), time.Hour)
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/admin/login", nil)
	require.NoError(t, m.Save(w, r, &domain.AdminSession{User: domain.AdminUser{Email: "a@b.c"}, AccessToken: "tok"}))

	cookie := w.Result().Cookies()[0]
	assert.True(t, cookie.HttpOnly)
	assert.True(t, cookie.Secure)

	s, err := m.Load(withCookies(w, httptest.NewRequest(http.MethodGet, "/admin", nil)))
	require.NoError(t, err)
	assert.Equal(t, "tok", s.AccessToken)
	assert.True(t, mr.Exists("folio:session:"+s.ID))

	mr.FastForward(2 * time.Hour)
	_, err = m.Load(withCookies(w, httptest.NewRequest(http.MethodGet, "/admin", nil)))
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestBroker(t *testing.T) {
	b := NewBroker()
	all, releaseAll := b.Subscribe("")
	one, releaseOne := b.Subscribe("s1")

	b.Publish(Event{Kind: SignedIn, SessionID: "s2"})
	assert.Equal(t, SignedIn, next(t, all).Kind)
	select {
	case <-one:
		t.Fatal("session-scoped subscriber got another session's event")
	default:
	}

	b.Publish(Event{Kind: SignedOut, SessionID: "s1"})
	assert.Equal(t, SignedOut, next(t, one).Kind)
	assert.Equal(t, SignedOut, next(t, all).Kind)

	releaseOne()
	releaseOne()
	_, open := <-one
	assert.False(t, open)
	assert.Equal(t, 1, b.Subscribers())

	releaseAll()
	assert.Equal(t, 0, b.Subscribers())
	assert.NotPanics(t, func() { b.Publish(Event{Kind: SignedIn}) })
}

func TestLoginLimiter(t *testing.T) {
	l := NewLoginLimiter(time.Minute, 1)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))
	assert.True(t, l.Allow("b"))

	now = now.Add(time.Minute)
	assert.True(t, l.Allow("a"))
}

func TestHashIP(t *testing.T) {
	assert.Equal(t, HashIP("1.2.3.4"), HashIP("1.2.3.4"))
	assert.NotEqual(t, HashIP("1.2.3.4"), HashIP("1.2.3.5"))
	assert.Len(t, HashIP("1.2.3.4"), 16)
}
