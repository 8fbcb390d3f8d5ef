package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mcarden/authgate/internal/cache"
	"github.com/mcarden/authgate/internal/model"
	"github.com/mcarden/authgate/internal/services/identity"
	"github.com/mcarden/authgate/internal/services/profile"
)

// Service reconciles three independent state sources into one authoritative
// auth snapshot: the identity provider (authoritative for whether a session
// exists), the profile store (authoritative for profile content), and the
// persisted local cache (never authoritative, repaired on every
// disagreement).
//
// All mutation goes through the service's own command handlers and its
// identity subscription callback; consumers only read snapshots and request
// transitions.
type Service struct {
	identity identity.Provider
	profiles *profile.Service
	cache    cache.Store
	logger   *slog.Logger

	mu          sync.RWMutex
	snap        model.Snapshot
	subscribers map[int]func(model.Snapshot)
	nextSubID   int

	unsubscribe func()
}

// New creates the reconciliation core. Call Start to begin observing the
// identity provider; until the first notification the state is Initializing.
func New(provider identity.Provider, profiles *profile.Service, store cache.Store, logger *slog.Logger) *Service {
	return &Service{
		identity:    provider,
		profiles:    profiles,
		cache:       store,
		logger:      logger.With(slog.String("component", "session")),
		snap:        model.Snapshot{Status: model.StatusInitializing},
		subscribers: make(map[int]func(model.Snapshot)),
	}
}

// Start subscribes to the identity provider's session-change stream. The
// stream delivers the current session immediately, so the Initializing state
// resolves before Start returns when a local provider is wired; a remote
// provider may resolve it later.
func (s *Service) Start(ctx context.Context) {
	s.unsubscribe = s.identity.Subscribe(func(sess *model.Session) {
		s.handleSessionChange(ctx, sess)
	})
}

// Stop cancels the identity subscription
func (s *Service) Stop() {
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
}

// handleSessionChange is the subscription callback: authoritative,
// last-write-wins for session identity. It runs on every notification, not
// only at startup, because the remote session can be revoked at any time.
func (s *Service) handleSessionChange(ctx context.Context, sess *model.Session) {
	if sess != nil {
		user := &model.User{ID: sess.UserID, Email: sess.Email}

		// Publish the minimal session record immediately so the UI is
		// unblocked before the profile loads.
		s.setSnapshot(model.Snapshot{Status: model.StatusAuthenticated, User: user})

		p, err := s.profiles.Get(ctx, sess.UserID)
		if err != nil {
			// Profile absence is a valid, non-fatal state (mid-registration);
			// fetch failures degrade to a nil profile rather than blocking
			// the authenticated state.
			if !errors.Is(err, model.ErrProfileNotFound) {
				s.logger.Warn("profile fetch failed during reconciliation",
					slog.String("user_id", string(sess.UserID)),
					slog.String("error", err.Error()))
			}
			p = nil
		}
		s.setSnapshot(model.Snapshot{Status: model.StatusAuthenticated, User: user, Profile: p})
	} else {
		s.setSnapshot(model.Snapshot{Status: model.StatusUnauthenticated})
	}

	s.repairCache(ctx)
}

// repairCache reconciles the persisted auth flag against the authoritative
// state. The cache is best-effort only: any disagreement is resolved by
// correcting the cache, never the other way round, and never surfaced.
func (s *Service) repairCache(ctx context.Context) {
	snap := s.State()

	flag, present, err := s.cache.Get(ctx, cache.KeyAuthenticated)
	if err != nil {
		s.logger.Warn("cache read failed", slog.String("error", err.Error()))
		return
	}

	stale := (present && flag == cache.FlagTrue && !snap.IsLoggedIn()) ||
		(snap.IsLoggedIn() && snap.User == nil)
	if stale {
		s.logger.Info("repairing inconsistent cached auth state")
		s.removeCachedAuth(ctx)
		return
	}

	if snap.IsLoggedIn() {
		data, err := json.Marshal(snap.User)
		if err != nil {
			return
		}
		if err := s.cache.Set(ctx, cache.KeyAuthenticated, cache.FlagTrue); err != nil {
			s.logger.Warn("cache write failed", slog.String("error", err.Error()))
			return
		}
		if err := s.cache.Set(ctx, cache.KeySnapshot, string(data)); err != nil {
			s.logger.Warn("cache write failed", slog.String("error", err.Error()))
		}
	}
}

func (s *Service) removeCachedAuth(ctx context.Context) {
	if err := s.cache.Remove(ctx, cache.KeyAuthenticated); err != nil {
		s.logger.Warn("cache remove failed", slog.String("error", err.Error()))
	}
	if err := s.cache.Remove(ctx, cache.KeySnapshot); err != nil {
		s.logger.Warn("cache remove failed", slog.String("error", err.Error()))
	}
}

// Login signs in with credentials. On failure no state is mutated; on
// success the returned identity is adopted and the profile fetched. An
// account left profile-less by a partially failed registration is healed
// here by idempotently creating the empty document.
func (s *Service) Login(ctx context.Context, email, password string) error {
	sess, err := s.identity.SignIn(ctx, email, password)
	if err != nil {
		return err
	}

	user := &model.User{ID: sess.UserID, Email: sess.Email}

	p, err := s.profiles.Get(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, model.ErrProfileNotFound) {
			p = s.healMissingProfile(ctx, sess)
		} else {
			s.logger.Warn("profile fetch failed on login",
				slog.String("user_id", string(sess.UserID)),
				slog.String("error", err.Error()))
			p = nil
		}
	}

	s.setSnapshot(model.Snapshot{Status: model.StatusAuthenticated, User: user, Profile: p})
	return nil
}

// healMissingProfile recreates the empty profile document for an account
// that completed sign-up but not profile creation. Creation races with a
// concurrent registration retry are absorbed by re-reading.
func (s *Service) healMissingProfile(ctx context.Context, sess *model.Session) *model.Profile {
	p := model.NewEmptyProfile(sess.UserID, sess.Email, "", "")
	err := s.profiles.Create(ctx, sess.UserID, p)
	if err == nil {
		s.logger.Info("recreated missing profile", slog.String("user_id", string(sess.UserID)))
		return p
	}
	if errors.Is(err, model.ErrProfileExists) {
		if existing, getErr := s.profiles.Get(ctx, sess.UserID); getErr == nil {
			return existing
		}
	}
	s.logger.Warn("could not recreate missing profile",
		slog.String("user_id", string(sess.UserID)),
		slog.String("error", err.Error()))
	return nil
}

// Register creates an account and exactly one profile document seeded with
// the supplied names and email. A profile-creation failure is surfaced; the
// account heals on the next login.
func (s *Service) Register(ctx context.Context, email, password, firstName, lastName string) error {
	sess, err := s.identity.SignUp(ctx, email, password)
	if err != nil {
		return err
	}

	p := model.NewEmptyProfile(sess.UserID, email, firstName, lastName)
	if err := s.profiles.Create(ctx, sess.UserID, p); err != nil {
		return fmt.Errorf("account created but profile creation failed: %w", err)
	}

	user := &model.User{ID: sess.UserID, Email: sess.Email}
	s.setSnapshot(model.Snapshot{Status: model.StatusAuthenticated, User: user, Profile: p})
	return nil
}

// Logout signs out and unconditionally clears local state and the cached
// auth flag. Local clearing is not gated on the remote call succeeding; the
// sign-out error, if any, is returned for reporting only.
func (s *Service) Logout(ctx context.Context) error {
	signOutErr := s.identity.SignOut(ctx)

	s.setSnapshot(model.Snapshot{Status: model.StatusUnauthenticated})
	s.removeCachedAuth(ctx)

	return signOutErr
}

// UpdateProfile applies a shallow field-level merge: optimistically to the
// in-memory profile first (immediately visible to readers), then to the
// store. A persistence failure is returned but the local merge is not rolled
// back. No-op without an active session.
func (s *Service) UpdateProfile(ctx context.Context, patch model.ProfilePatch) error {
	s.mu.Lock()
	if s.snap.Status != model.StatusAuthenticated {
		s.mu.Unlock()
		return nil
	}
	user := s.snap.User

	merged := s.snap.Profile.Clone()
	if merged == nil {
		merged = model.NewEmptyProfile(user.ID, user.Email, "", "")
	}
	merged.Apply(patch)
	s.snap.Profile = merged
	snap := s.snapLocked()
	s.mu.Unlock()

	s.publish(snap)

	if err := s.profiles.Update(ctx, user.ID, patch); err != nil {
		return fmt.Errorf("profile update not persisted: %w", err)
	}
	return nil
}

// ReloadProfile replaces the in-memory profile wholesale from the store.
// No-op without a session or when the remote document is not found.
func (s *Service) ReloadProfile(ctx context.Context) error {
	snap := s.State()
	if !snap.IsLoggedIn() {
		return nil
	}

	p, err := s.profiles.Get(ctx, snap.User.ID)
	if err != nil {
		if errors.Is(err, model.ErrProfileNotFound) {
			return nil
		}
		return err
	}

	s.mu.Lock()
	// A concurrent sign-out wins over a stale reload
	if s.snap.Status == model.StatusAuthenticated {
		s.snap.Profile = p
	}
	updated := s.snapLocked()
	s.mu.Unlock()

	s.publish(updated)
	return nil
}

// State returns the current reconciled snapshot
func (s *Service) State() model.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapLocked()
}

// Subscribe registers a snapshot observer for the navigation layer. The
// current snapshot is delivered before Subscribe returns; redundant
// notifications are possible and observers must be idempotent.
func (s *Service) Subscribe(fn func(model.Snapshot)) func() {
	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	snap := s.snapLocked()
	s.mu.Unlock()

	fn(snap)

	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}

// snapLocked copies the snapshot for handing out; callers hold s.mu
func (s *Service) snapLocked() model.Snapshot {
	out := s.snap
	out.Profile = s.snap.Profile.Clone()
	if s.snap.User != nil {
		u := *s.snap.User
		out.User = &u
	}
	return out
}

func (s *Service) setSnapshot(snap model.Snapshot) {
	s.mu.Lock()
	s.snap = snap
	out := s.snapLocked()
	s.mu.Unlock()

	s.publish(out)
}

func (s *Service) publish(snap model.Snapshot) {
	s.mu.RLock()
	fns := make([]func(model.Snapshot), 0, len(s.subscribers))
	for id := 0; id < s.nextSubID; id++ {
		if fn, ok := s.subscribers[id]; ok {
			fns = append(fns, fn)
		}
	}
	s.mu.RUnlock()

	for _, fn := range fns {
		fn(snap)
	}
}
