package auth

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/Zachkp/folio/internal/domain"
)

type State int

const (
	StateUnauthenticated State = iota
	StateAuthenticated
)

func (s State) String() string {
	if s == StateAuthenticated {
		return "authenticated"
	}
	return "unauthenticated"
}

var ErrTooManyAttempts = errors.New("too many login attempts, try again later")

// Gate decides whether a request belongs to a signed-in admin and performs
// the transitions between the two states.
type Gate struct {
	provider Provider
	sessions *Sessions
	broker   *Broker
	limiter  *LoginLimiter
	now      func() time.Time
}

func NewGate(p Provider, s *Sessions, b *Broker, l *LoginLimiter) *Gate {
	return &Gate{provider: p, sessions: s, broker: b, limiter: l, now: time.Now}
}

func (g *Gate) Broker() *Broker { return g.broker }

// Resolve looks up the request's session and confirms its access token with
// the provider. A session the provider rejects, or one whose stored record is
// gone, is announced as signed out.
func (g *Gate) Resolve(ctx context.Context, r *http.Request) (State, *domain.AdminSession) {
	s, err := g.sessions.Load(r)
	if err != nil {
		if !errors.Is(err, domain.ErrUnauthenticated) {
			log.Printf("[auth] Error loading session: %v", err)
			return StateUnauthenticated, nil
		}
		// The cookie outlived its stored session, which expired or was
		// dropped elsewhere. Listeners still hold state for it.
		if id := g.sessions.id(r); id != "" {
			g.broker.Publish(Event{Kind: SignedOut, SessionID: id})
		}
		return StateUnauthenticated, nil
	}

	if s.Expired(g.now()) {
		g.end(ctx, s)
		return StateUnauthenticated, nil
	}

	if _, err := g.provider.GetUser(ctx, s.AccessToken); err != nil {
		if errors.Is(err, domain.ErrUnauthenticated) {
			g.end(ctx, s)
		} else {
			log.Printf("[auth] Error checking session: %v", err)
		}
		return StateUnauthenticated, nil
	}
	return StateAuthenticated, s
}

func (g *Gate) end(ctx context.Context, s *domain.AdminSession) {
	if err := g.sessions.Drop(ctx, s.ID); err != nil {
		log.Printf("[auth] Error dropping session: %v", err)
	}
	g.broker.Publish(Event{Kind: SignedOut, SessionID: s.ID, User: s.User})
}

// Login signs in with the provider and starts a session. clientIP only keys
// the throttle and is never logged in clear.
func (g *Gate) Login(ctx context.Context, w http.ResponseWriter, r *http.Request, email, password, clientIP string) (*domain.AdminSession, error) {
	if g.limiter != nil && !g.limiter.Allow(clientIP) {
		log.Printf("[auth] Throttled admin login from %s", HashIP(clientIP))
		return nil, ErrTooManyAttempts
	}

	s, err := g.provider.SignIn(ctx, email, password)
	if err != nil {
		log.Printf("[auth] Failed admin login attempt from %s: %v", HashIP(clientIP), err)
		return nil, err
	}
	if err := g.sessions.Save(w, r, s); err != nil {
		return nil, err
	}

	log.Printf("[auth] Admin login successful from %s", HashIP(clientIP))
	g.broker.Publish(Event{Kind: SignedIn, SessionID: s.ID, User: s.User})
	return s, nil
}

// Logout revokes the access token, drops the session and expires the cookie.
// It is safe to call without a session.
func (g *Gate) Logout(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	s, err := g.sessions.Load(r)
	if err == nil {
		if err := g.provider.SignOut(ctx, s.AccessToken); err != nil {
			log.Printf("[auth] Error revoking token: %v", err)
		}
	}
	if err := g.sessions.Clear(w, r); err != nil {
		return err
	}
	if s != nil {
		g.broker.Publish(Event{Kind: SignedOut, SessionID: s.ID, User: s.User})
	}
	return nil
}
