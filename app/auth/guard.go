package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"mangapost/app/store"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	adminHashKey  = "admin:hash"
	sessionPrefix = "session:"

	DefaultSessionTTL = 7 * 24 * time.Hour
	MinPasswordLength = 6
)

var (
	ErrNoAdmin            = errors.New("no admin password set yet")
	ErrAdminExists        = errors.New("admin password already set")
	ErrPasswordTooShort   = fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrMissingPassword    = errors.New("please enter your password")
	ErrInvalidCredentials = errors.New("incorrect password")
	ErrInvalidSession     = errors.New("invalid or expired session")
)

// Session is the evidence of a successful login.
type Session struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// ValidAt reports whether the session has not yet expired at t.
func (s *Session) ValidAt(t time.Time) bool {
	return !t.After(s.ExpiresAt)
}

// Guard owns the admin password and the session lifecycle.
type Guard struct {
	store  store.Store
	signer *Signer
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger
}

type Option func(*Guard)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(g *Guard) { g.now = now }
}

// WithTTL sets how long a session stays valid.
func WithTTL(ttl time.Duration) Option {
	return func(g *Guard) {
		if ttl > 0 {
			g.ttl = ttl
		}
	}
}

func NewGuard(s store.Store, secret []byte, logger *slog.Logger, opts ...Option) *Guard {
	g := &Guard{
		store:  s,
		ttl:    DefaultSessionTTL,
		now:    time.Now,
		logger: logger,
	}
	for _, opt := range opts {
		opt(g)
	}
	// Cookie age limit sits just above the session TTL.
	g.signer = NewSigner(secret, g.ttl+time.Hour)
	return g
}

// HasAdmin reports whether the admin password was set up.
func (g *Guard) HasAdmin(ctx context.Context) (bool, error) {
	_, err := g.store.Get(ctx, adminHashKey)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Setup stores the first admin password and logs the caller in.
func (g *Guard) Setup(ctx context.Context, password, confirm string) (*Session, string, error) {
	exists, err := g.HasAdmin(ctx)
	if err != nil {
		return nil, "", err
	}
	if exists {
		return nil, "", ErrAdminExists
	}
	if len(password) < MinPasswordLength {
		return nil, "", ErrPasswordTooShort
	}
	if password != confirm {
		return nil, "", ErrPasswordMismatch
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}
	if err := g.store.Set(ctx, adminHashKey, hash, 0); err != nil {
		return nil, "", err
	}
	g.logger.Info("Admin password created")

	return g.openSession(ctx)
}

// Login checks password against the stored hash and opens a new session.
func (g *Guard) Login(ctx context.Context, password string) (*Session, string, error) {
	hash, err := g.store.Get(ctx, adminHashKey)
	if errors.Is(err, store.ErrNotFound) {
		return nil, "", ErrNoAdmin
	}
	if err != nil {
		return nil, "", err
	}
	if password == "" {
		return nil, "", ErrMissingPassword
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		g.logger.Warn("Rejected admin login")
		return nil, "", ErrInvalidCredentials
	}

	return g.openSession(ctx)
}

func (g *Guard) openSession(ctx context.Context) (*Session, string, error) {
	now := g.now().UTC()
	sess := &Session{
		ID:        uuid.NewString(),
		CreatedAt: now,
		ExpiresAt: now.Add(g.ttl),
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return nil, "", err
	}
	if err := g.store.Set(ctx, sessionPrefix+sess.ID, data, g.ttl); err != nil {
		return nil, "", err
	}
	token, err := g.signer.Sign(sess.ID)
	if err != nil {
		return nil, "", fmt.Errorf("sign session: %w", err)
	}
	g.logger.Info("Session opened", "session_id", sess.ID, "expires_at", sess.ExpiresAt)
	return sess, token, nil
}

// Authenticate resolves a client token to a live session. Expired sessions are removed.
func (g *Guard) Authenticate(ctx context.Context, token string) (*Session, error) {
	id, ok := g.signer.Open(token)
	if !ok {
		return nil, ErrInvalidSession
	}

	data, err := g.store.Get(ctx, sessionPrefix+id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrInvalidSession
	}
	if err != nil {
		return nil, err
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if !sess.ValidAt(g.now()) {
		if err := g.store.Delete(ctx, sessionPrefix+id); err != nil {
			g.logger.Warn("Failed to delete expired session", "session_id", id, "error", err)
		}
		return nil, ErrInvalidSession
	}
	return &sess, nil
}

// Logout ends the session behind token. Unknown tokens are ignored.
func (g *Guard) Logout(ctx context.Context, token string) error {
	id, ok := g.signer.Open(token)
	if !ok {
		return nil
	}
	return g.store.Delete(ctx, sessionPrefix+id)
}

// Reset forgets the admin password and ends every session.
func (g *Guard) Reset(ctx context.Context) error {
	if err := g.store.Delete(ctx, adminHashKey); err != nil {
		return err
	}
	if err := g.store.Clear(ctx, sessionPrefix); err != nil {
		return err
	}
	g.logger.Info("Admin password cleared")
	return nil
}
