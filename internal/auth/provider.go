// Package auth gates the admin views. Credentials are checked by a Provider
// (the data service's auth subsystem, or a single configured admin for the
// SQL backends); the signed-in state lives in a server-side session.
package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/Zachkp/folio/internal/domain"
	"github.com/Zachkp/folio/internal/kv"
)

type Provider interface {
	SignIn(ctx context.Context, email, password string) (*domain.AdminSession, error)
	SignOut(ctx context.Context, accessToken string) error
	// GetUser fails with domain.ErrUnauthenticated once the token is no longer valid.
	GetUser(ctx context.Context, accessToken string) (*domain.AdminUser, error)
}

var hashingSalt = generateToken()

func generateToken() string {
	b := make([]byte, 32)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// HashIP hides a client address in logs. The salt lives for the process, so
// the same address hashes the same way until restart.
func HashIP(ip string) string {
	h := sha256.New()
	h.Write([]byte(ip + hashingSalt))
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// LocalProvider authenticates the one admin from configuration. Access tokens
// are random and kept in a kv.Store until they expire or are signed out.
type LocalProvider struct {
	user   domain.AdminUser
	hash   []byte
	tokens kv.Store
	ttl    time.Duration
	now    func() time.Time
}

// NewLocalProvider takes either a bcrypt hash or a plain password (hashed here).
func NewLocalProvider(email, password, passwordHash string, tokens kv.Store, ttl time.Duration) (*LocalProvider, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, fmt.Errorf("admin email: %w", domain.ErrNotConfigured)
	}

	hash := []byte(passwordHash)
	if len(hash) == 0 {
		if password == "" {
			return nil, fmt.Errorf("admin password: %w", domain.ErrNotConfigured)
		}
		var err error
		hash, err = bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash admin password: %w", err)
		}
	} else if _, err := bcrypt.Cost(hash); err != nil {
		return nil, fmt.Errorf("ADMIN_PASSWORD_HASH: %w", err)
	}

	return &LocalProvider{
		user: domain.AdminUser{
			ID:    uuid.NewSHA1(uuid.NameSpaceURL, []byte("mailto:"+strings.ToLower(email))).String(),
			Email: email,
		},
		hash:   hash,
		tokens: tokens,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

func (p *LocalProvider) SignIn(ctx context.Context, email, password string) (*domain.AdminSession, error) {
	// compare even on an unknown e-mail so both failures take the same time
	err := bcrypt.CompareHashAndPassword(p.hash, []byte(password))
	if err != nil || !strings.EqualFold(strings.TrimSpace(email), p.user.Email) {
		return nil, domain.ErrInvalidCredentials
	}

	token := generateToken()
	raw, err := json.Marshal(p.user)
	if err != nil {
		return nil, err
	}
	if err := p.tokens.Set(ctx, "token:"+token, raw, p.ttl); err != nil {
		return nil, fmt.Errorf("store token: %w", err)
	}

	return &domain.AdminSession{
		User:        p.user,
		AccessToken: token,
		ExpiresAt:   p.now().Add(p.ttl),
	}, nil
}

func (p *LocalProvider) SignOut(ctx context.Context, accessToken string) error {
	return p.tokens.Delete(ctx, "token:"+accessToken)
}

func (p *LocalProvider) GetUser(ctx context.Context, accessToken string) (*domain.AdminUser, error) {
	raw, err := p.tokens.Get(ctx, "token:"+accessToken)
	if errors.Is(err, kv.ErrMiss) {
		return nil, domain.ErrUnauthenticated
	}
	if err != nil {
		return nil, err
	}
	var u domain.AdminUser
	if err := json.Unmarshal(raw, &u); err != nil {
		return nil, err
	}
	return &u, nil
}
