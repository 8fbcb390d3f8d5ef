package identity

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/mcarden/authgate/internal/dependencies/clock"
	"github.com/mcarden/authgate/internal/dependencies/random"
	"github.com/mcarden/authgate/internal/model"
	"github.com/mcarden/authgate/internal/storage"
)

// Provider is the identity service contract consumed by the reconciliation
// core. Subscribe delivers the current session immediately, then fires on
// every change (sign-in, sign-up, sign-out, revocation), so the stream is the
// single source of truth for whether a session exists.
type Provider interface {
	SignIn(ctx context.Context, email, password string) (*model.Session, error)
	SignUp(ctx context.Context, email, password string) (*model.Session, error)
	SignOut(ctx context.Context) error
	Subscribe(fn func(*model.Session)) (unsubscribe func())
}

// Revoker is implemented by providers that can invalidate the current
// session out-of-band, the way a remote provider revokes a token
type Revoker interface {
	Revoke()
}

const tokenAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Config holds configuration for the identity service
type Config struct {
	SessionTTL time.Duration
}

// DefaultConfig returns default identity configuration
func DefaultConfig() Config {
	return Config{
		SessionTTL: 24 * time.Hour,
	}
}

// Service is the storage-backed identity provider. It owns credential
// verification and the current-session slot for this process.
type Service struct {
	storage storage.Storage
	clock   clock.Clock
	random  random.Random
	logger  *slog.Logger

	mu          sync.RWMutex
	current     *model.Session
	sessions    map[string]*model.Session
	subscribers map[int]func(*model.Session)
	nextSubID   int

	sessionTTL time.Duration
}

// Ensure Service implements Provider
var _ Provider = (*Service)(nil)

// New creates a new identity service
func New(store storage.Storage, clk clock.Clock, rnd random.Random, cfg Config, logger *slog.Logger) *Service {
	if cfg.SessionTTL == 0 {
		cfg.SessionTTL = DefaultConfig().SessionTTL
	}
	return &Service{
		storage:     store,
		clock:       clk,
		random:      rnd,
		logger:      logger.With(slog.String("component", "identity")),
		sessions:    make(map[string]*model.Session),
		subscribers: make(map[int]func(*model.Session)),
		sessionTTL:  cfg.SessionTTL,
	}
}

// SignIn authenticates credentials and adopts a new current session
func (s *Service) SignIn(ctx context.Context, email, password string) (*model.Session, error) {
	account, err := s.storage.GetAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, model.ErrAccountNotFound) {
			return nil, model.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, model.ErrInvalidCredentials
	}

	return s.adoptSession(account), nil
}

// SignUp creates an account and adopts a new current session
func (s *Service) SignUp(ctx context.Context, email, password string) (*model.Session, error) {
	_, err := s.storage.GetAccountByEmail(ctx, email)
	if err == nil {
		return nil, model.ErrEmailExists
	}
	if !errors.Is(err, model.ErrAccountNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	account := &model.Account{
		UserID:       model.UserID("u_" + uuid.NewString()),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.storage.SaveAccount(ctx, account); err != nil {
		return nil, err
	}

	return s.adoptSession(account), nil
}

// SignOut ends the current session and notifies subscribers
func (s *Service) SignOut(ctx context.Context) error {
	s.mu.Lock()
	if s.current != nil {
		delete(s.sessions, s.current.Token)
		s.current = nil
	}
	s.mu.Unlock()

	s.notify(nil)
	return nil
}

// Revoke invalidates the current session out-of-band, as a remote provider
// would when a token is revoked. Subscribers observe it exactly like a
// sign-out they did not request.
func (s *Service) Revoke() {
	s.mu.Lock()
	revoked := s.current != nil
	if revoked {
		s.logger.Info("session revoked", slog.String("user_id", string(s.current.UserID)))
		delete(s.sessions, s.current.Token)
		s.current = nil
	}
	s.mu.Unlock()

	if revoked {
		s.notify(nil)
	}
}

// Resume restores a prior session by token, e.g. after a core restart within
// the provider's lifetime. Unknown or expired tokens leave the current
// session untouched.
func (s *Service) Resume(ctx context.Context, token string) error {
	s.mu.Lock()
	session, ok := s.sessions[token]
	if !ok {
		s.mu.Unlock()
		return model.ErrInvalidSession
	}
	if s.clock.Now().After(session.ExpiresAt) {
		delete(s.sessions, token)
		s.mu.Unlock()
		return model.ErrInvalidSession
	}
	s.current = session
	s.mu.Unlock()

	s.notify(session)
	return nil
}

// Subscribe registers a session-change callback. The current session (which
// may be nil) is delivered before Subscribe returns; the returned function
// cancels the subscription.
func (s *Service) Subscribe(fn func(*model.Session)) func() {
	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	current := s.current
	s.mu.Unlock()

	fn(current)

	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}

// CurrentSession returns the active session, or nil
func (s *Service) CurrentSession() *model.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// adoptSession mints a session for the account, makes it current and
// notifies subscribers
func (s *Service) adoptSession(account *model.Account) *model.Session {
	now := s.clock.Now()
	session := &model.Session{
		Token:     "sess_" + s.random.String(32, tokenAlphabet),
		UserID:    account.UserID,
		Email:     account.Email,
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionTTL),
	}

	s.mu.Lock()
	s.sessions[session.Token] = session
	s.current = session
	s.mu.Unlock()

	s.notify(session)
	return session
}

// notify delivers a session change to all subscribers, in subscription order
// on the mutating caller's goroutine
func (s *Service) notify(session *model.Session) {
	s.mu.RLock()
	fns := make([]func(*model.Session), 0, len(s.subscribers))
	for id := 0; id < s.nextSubID; id++ {
		if fn, ok := s.subscribers[id]; ok {
			fns = append(fns, fn)
		}
	}
	s.mu.RUnlock()

	for _, fn := range fns {
		fn(session)
	}
}

// CleanExpiredSessions removes expired sessions (call periodically). If the
// current session has expired, subscribers are notified as for a sign-out.
func (s *Service) CleanExpiredSessions() {
	now := s.clock.Now()
	s.mu.Lock()

	for token, session := range s.sessions {
		if now.After(session.ExpiresAt) {
			delete(s.sessions, token)
		}
	}

	currentExpired := s.current != nil && now.After(s.current.ExpiresAt)
	if currentExpired {
		s.logger.Info("current session expired", slog.String("user_id", string(s.current.UserID)))
		s.current = nil
	}
	s.mu.Unlock()

	if currentExpired {
		s.notify(nil)
	}
}
