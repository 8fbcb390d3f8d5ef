package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcarden/authgate/internal/cache"
	cachememory "github.com/mcarden/authgate/internal/cache/memory"
	"github.com/mcarden/authgate/internal/dependencies/mocks"
	"github.com/mcarden/authgate/internal/dependencies/random"
	"github.com/mcarden/authgate/internal/model"
	"github.com/mcarden/authgate/internal/services/identity"
	"github.com/mcarden/authgate/internal/services/profile"
	"github.com/mcarden/authgate/internal/storage"
	"github.com/mcarden/authgate/internal/storage/memory"
	"github.com/mcarden/authgate/internal/testutil"
)

var errStorageDown = errors.New("storage down")

// flakyStorage wraps the in-memory storage with switchable failure modes for
// the profile document paths.
type flakyStorage struct {
	*memory.Storage
	failSaveProfile bool
	failGetProfile  bool
}

var _ storage.Storage = (*flakyStorage)(nil)

func (f *flakyStorage) SaveProfile(ctx context.Context, p *model.Profile) error {
	if f.failSaveProfile {
		return errStorageDown
	}
	return f.Storage.SaveProfile(ctx, p)
}

func (f *flakyStorage) GetProfile(ctx context.Context, id model.UserID) (*model.Profile, error) {
	if f.failGetProfile {
		return nil, errStorageDown
	}
	return f.Storage.GetProfile(ctx, id)
}

type ServiceSuite struct {
	suite.Suite
	storage  *flakyStorage
	cache    *cachememory.Store
	provider *identity.Service
	profiles *profile.Service
	service  *Service
	ctx      context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	logger := testutil.NopLogger()
	clk := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))

	s.storage = &flakyStorage{Storage: memory.New()}
	s.cache = cachememory.New()
	s.provider = identity.New(s.storage, clk, random.New(), identity.DefaultConfig(), logger)
	s.profiles = profile.New(s.storage, logger)
	s.service = New(s.provider, s.profiles, s.cache, logger)
	s.ctx = context.Background()
}

func (s *ServiceSuite) TearDownTest() {
	s.service.Stop()
}

func (s *ServiceSuite) start() {
	s.service.Start(s.ctx)
}

func (s *ServiceSuite) cachedFlag() (string, bool) {
	value, ok, err := s.cache.Get(s.ctx, cache.KeyAuthenticated)
	s.Require().NoError(err)
	return value, ok
}

// Startup

func (s *ServiceSuite) TestStateIsInitializingBeforeStart() {
	snap := s.service.State()
	s.True(snap.IsLoading())
	s.False(snap.IsLoggedIn())
}

func (s *ServiceSuite) TestStartWithoutSessionResolvesUnauthenticated() {
	s.start()

	snap := s.service.State()
	s.False(snap.IsLoading())
	s.False(snap.IsLoggedIn())
	s.Nil(snap.User)
	s.Nil(snap.Profile)
}

func (s *ServiceSuite) TestStartWithExistingSessionResolvesAuthenticated() {
	s.Require().NoError(s.service.Register(s.ctx, "a@x.com", "pw", "Jane", "Doe"))
	// A fresh core observing the same provider resolves from its stream alone
	other := New(s.provider, s.profiles, s.cache, testutil.NopLogger())
	other.Start(s.ctx)
	defer other.Stop()

	snap := other.State()
	s.True(snap.IsLoggedIn())
	s.Require().NotNil(snap.User)
	s.Equal("a@x.com", snap.User.Email)
	s.Require().NotNil(snap.Profile)
	s.Equal("Jane", snap.Profile.FirstName)
}

// Cache repair

func (s *ServiceSuite) TestStaleCachedFlagIsRepairedOnStartup() {
	s.Require().NoError(s.cache.Set(s.ctx, cache.KeyAuthenticated, cache.FlagTrue))
	s.Require().NoError(s.cache.Set(s.ctx, cache.KeySnapshot, `{"id":"stale"}`))

	s.start()

	_, ok := s.cachedFlag()
	s.False(ok)
	_, ok, err := s.cache.Get(s.ctx, cache.KeySnapshot)
	s.Require().NoError(err)
	s.False(ok)
}

func (s *ServiceSuite) TestCacheFlagWrittenWhileAuthenticated() {
	s.start()
	s.Require().NoError(s.service.Register(s.ctx, "a@x.com", "pw", "Jane", "Doe"))

	value, ok := s.cachedFlag()
	s.True(ok)
	s.Equal(cache.FlagTrue, value)
}

func (s *ServiceSuite) TestCacheFlagRepairedOnRevocation() {
	s.start()
	s.Require().NoError(s.service.Register(s.ctx, "a@x.com", "pw", "Jane", "Doe"))
	_, ok := s.cachedFlag()
	s.Require().True(ok)

	s.provider.Revoke()

	_, ok = s.cachedFlag()
	s.False(ok)
}

// Login

func (s *ServiceSuite) TestLoginSucceeds() {
	s.start()
	s.Require().NoError(s.service.Register(s.ctx, "a@x.com", "pw", "Jane", "Doe"))
	s.Require().NoError(s.service.Logout(s.ctx))

	s.Require().NoError(s.service.Login(s.ctx, "a@x.com", "pw"))

	snap := s.service.State()
	s.True(snap.IsLoggedIn())
	s.Equal("a@x.com", snap.User.Email)
	s.Require().NotNil(snap.Profile)
	s.Equal("Jane", snap.Profile.FirstName)
}

func (s *ServiceSuite) TestFailedLoginLeavesStateUntouched() {
	s.start()
	before := s.service.State()

	err := s.service.Login(s.ctx, "a@x.com", "wrong")
	s.ErrorIs(err, model.ErrInvalidCredentials)

	s.Equal(before, s.service.State())
}

func (s *ServiceSuite) TestFailedLoginWhileAuthenticatedKeepsSession() {
	s.start()
	s.Require().NoError(s.service.Register(s.ctx, "a@x.com", "pw", "Jane", "Doe"))

	err := s.service.Login(s.ctx, "a@x.com", "wrong")
	s.ErrorIs(err, model.ErrInvalidCredentials)

	snap := s.service.State()
	s.True(snap.IsLoggedIn())
	s.Equal("a@x.com", snap.User.Email)
}

func (s *ServiceSuite) TestLoginDegradesToNilProfileOnFetchFailure() {
	s.start()
	s.Require().NoError(s.service.Register(s.ctx, "a@x.com", "pw", "Jane", "Doe"))
	s.Require().NoError(s.service.Logout(s.ctx))

	s.storage.failGetProfile = true
	s.Require().NoError(s.service.Login(s.ctx, "a@x.com", "pw"))

	snap := s.service.State()
	s.True(snap.IsLoggedIn())
	s.Nil(snap.Profile)
}

// Register

func (s *ServiceSuite) TestRegisterThenReload() {
	s.start()
	s.Require().NoError(s.service.Register(s.ctx, "a@x.com", "pw", "Jane", "Doe"))
	s.Require().NoError(s.service.ReloadProfile(s.ctx))

	snap := s.service.State()
	s.Require().NotNil(snap.Profile)
	s.Equal("Jane", snap.Profile.FirstName)
	s.Equal("Doe", snap.Profile.LastName)
	s.Equal("a@x.com", snap.Profile.Email)
	s.Empty(snap.Profile.Attrs)
}

func (s *ServiceSuite) TestRegisterDuplicateEmailFails() {
	s.start()
	s.Require().NoError(s.service.Register(s.ctx, "a@x.com", "pw", "Jane", "Doe"))

	err := s.service.Register(s.ctx, "a@x.com", "pw2", "Other", "Name")
	s.ErrorIs(err, model.ErrEmailExists)
}

func (s *ServiceSuite) TestRegisterSurfacesProfileCreationFailure() {
	s.start()
	s.storage.failSaveProfile = true

	err := s.service.Register(s.ctx, "a@x.com", "pw", "Jane", "Doe")
	s.Require().Error(err)
	s.ErrorIs(err, errStorageDown)

	// The session itself exists; the account is authenticated with no profile
	snap := s.service.State()
	s.True(snap.IsLoggedIn())
	s.Nil(snap.Profile)
}

func (s *ServiceSuite) TestLoginHealsProfileLessAccount() {
	s.start()
	s.storage.failSaveProfile = true
	s.Require().Error(s.service.Register(s.ctx, "a@x.com", "pw", "Jane", "Doe"))
	s.Require().NoError(s.service.Logout(s.ctx))

	s.storage.failSaveProfile = false
	s.Require().NoError(s.service.Login(s.ctx, "a@x.com", "pw"))

	snap := s.service.State()
	s.Require().NotNil(snap.Profile)
	s.Equal("a@x.com", snap.Profile.Email)
	// Names were lost with the failed registration; the healed document is empty
	s.Empty(snap.Profile.FirstName)

	stored, err := s.profiles.Get(s.ctx, snap.User.ID)
	s.Require().NoError(err)
	s.Equal("a@x.com", stored.Email)
}

// Logout

func (s *ServiceSuite) TestLogoutClearsEverything() {
	s.start()
	s.Require().NoError(s.service.Register(s.ctx, "a@x.com", "pw", "Jane", "Doe"))

	s.Require().NoError(s.service.Logout(s.ctx))

	snap := s.service.State()
	s.False(snap.IsLoggedIn())
	s.Nil(snap.User)
	s.Nil(snap.Profile)

	_, ok := s.cachedFlag()
	s.False(ok)
}

func (s *ServiceSuite) TestLogoutWhileUnauthenticatedIsSafe() {
	s.start()
	s.Require().NoError(s.service.Logout(s.ctx))
	s.False(s.service.State().IsLoggedIn())
}

// UpdateProfile

func (s *ServiceSuite) TestUpdateProfileMergesShallowly() {
	s.start()
	s.Require().NoError(s.service.Register(s.ctx, "a@x.com", "pw", "Jane", "Doe"))
	s.Require().NoError(s.service.UpdateProfile(s.ctx, model.ProfilePatch{Attrs: map[string]any{"age": 30}}))

	s.Require().NoError(s.service.UpdateProfile(s.ctx, model.ProfilePatch{Attrs: map[string]any{"age": 31}}))

	snap := s.service.State()
	s.Equal("Jane", snap.Profile.FirstName)
	s.Equal(31, snap.Profile.Attrs["age"])

	stored, err := s.profiles.Get(s.ctx, snap.User.ID)
	s.Require().NoError(err)
	s.Equal("Jane", stored.FirstName)
	s.Equal(31, stored.Attrs["age"])
}

func (s *ServiceSuite) TestUpdateProfileWithoutSessionIsNoop() {
	s.start()
	err := s.service.UpdateProfile(s.ctx, model.ProfilePatch{Attrs: map[string]any{"age": 31}})
	s.NoError(err)
	s.Nil(s.service.State().Profile)
}

func (s *ServiceSuite) TestUpdateProfileKeepsOptimisticMergeOnPersistFailure() {
	s.start()
	s.Require().NoError(s.service.Register(s.ctx, "a@x.com", "pw", "Jane", "Doe"))

	s.storage.failSaveProfile = true
	err := s.service.UpdateProfile(s.ctx, model.ProfilePatch{Attrs: map[string]any{"age": 31}})
	s.Require().Error(err)

	// Local state is ahead of the store and stays that way
	s.Equal(31, s.service.State().Profile.Attrs["age"])

	stored, getErr := s.profiles.Get(s.ctx, s.service.State().User.ID)
	s.Require().NoError(getErr)
	s.NotContains(stored.Attrs, "age")
}

// ReloadProfile

func (s *ServiceSuite) TestReloadReplacesWholesale() {
	s.start()
	s.Require().NoError(s.service.Register(s.ctx, "a@x.com", "pw", "Jane", "Doe"))
	userID := s.service.State().User.ID

	// Mutate the stored document behind the core's back
	s.Require().NoError(s.profiles.Update(s.ctx, userID, model.ProfilePatch{Attrs: map[string]any{"age": 42}}))

	s.Require().NoError(s.service.ReloadProfile(s.ctx))
	s.Equal(42, s.service.State().Profile.Attrs["age"])
}

func (s *ServiceSuite) TestReloadWithoutSessionIsNoop() {
	s.start()
	s.NoError(s.service.ReloadProfile(s.ctx))
}

func (s *ServiceSuite) TestReloadSurfacesFetchFailure() {
	s.start()
	s.Require().NoError(s.service.Register(s.ctx, "a@x.com", "pw", "Jane", "Doe"))

	s.storage.failGetProfile = true
	err := s.service.ReloadProfile(s.ctx)
	s.ErrorIs(err, errStorageDown)

	// In-memory copy untouched
	s.Equal("Jane", s.service.State().Profile.FirstName)
}

// Revocation

func (s *ServiceSuite) TestRevocationTransitionsToUnauthenticated() {
	s.start()
	s.Require().NoError(s.service.Register(s.ctx, "a@x.com", "pw", "Jane", "Doe"))

	s.provider.Revoke()

	snap := s.service.State()
	s.False(snap.IsLoggedIn())
	s.Nil(snap.User)
	s.Nil(snap.Profile)
}

// Subscription

func (s *ServiceSuite) TestSubscribeDeliversCurrentSnapshot() {
	s.start()
	s.Require().NoError(s.service.Register(s.ctx, "a@x.com", "pw", "Jane", "Doe"))

	var got model.Snapshot
	unsub := s.service.Subscribe(func(snap model.Snapshot) { got = snap })
	defer unsub()

	s.True(got.IsLoggedIn())
	s.Equal("a@x.com", got.User.Email)
}

func (s *ServiceSuite) TestSubscribersObserveTransitions() {
	s.start()

	var statuses []model.Status
	unsub := s.service.Subscribe(func(snap model.Snapshot) {
		if len(statuses) == 0 || statuses[len(statuses)-1] != snap.Status {
			statuses = append(statuses, snap.Status)
		}
	})
	defer unsub()

	s.Require().NoError(s.service.Register(s.ctx, "a@x.com", "pw", "Jane", "Doe"))
	s.Require().NoError(s.service.Logout(s.ctx))

	s.Equal([]model.Status{
		model.StatusUnauthenticated,
		model.StatusAuthenticated,
		model.StatusUnauthenticated,
	}, statuses)
}
