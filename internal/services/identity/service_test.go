package identity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcarden/authgate/internal/dependencies/mocks"
	"github.com/mcarden/authgate/internal/dependencies/random"
	"github.com/mcarden/authgate/internal/model"
	"github.com/mcarden/authgate/internal/storage/memory"
	"github.com/mcarden/authgate/internal/testutil"
)

type ServiceSuite struct {
	suite.Suite
	storage *memory.Storage
	clock   *mocks.MockClock
	service *Service
	ctx     context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.service = New(s.storage, s.clock, random.New(), DefaultConfig(), testutil.NopLogger())
	s.ctx = context.Background()
}

// SignUp tests

func (s *ServiceSuite) TestSignUpSucceeds() {
	session, err := s.service.SignUp(s.ctx, "a@x.com", "password123")
	s.Require().NoError(err)

	s.NotEmpty(session.Token)
	s.NotEmpty(session.UserID)
	s.Equal("a@x.com", session.Email)
}

func (s *ServiceSuite) TestSignUpPersistsAccount() {
	session, _ := s.service.SignUp(s.ctx, "a@x.com", "password123")

	account, err := s.storage.GetAccount(s.ctx, session.UserID)
	s.Require().NoError(err)
	s.Equal("a@x.com", account.Email)
	s.NotEmpty(account.PasswordHash)
	s.NotEqual("password123", account.PasswordHash) // Should be hashed
}

func (s *ServiceSuite) TestSignUpFailsIfEmailExists() {
	_, _ = s.service.SignUp(s.ctx, "a@x.com", "password123")

	_, err := s.service.SignUp(s.ctx, "a@x.com", "different")
	s.ErrorIs(err, model.ErrEmailExists)
}

func (s *ServiceSuite) TestSignUpBecomesCurrentSession() {
	session, _ := s.service.SignUp(s.ctx, "a@x.com", "password123")

	current := s.service.CurrentSession()
	s.Require().NotNil(current)
	s.Equal(session.Token, current.Token)
}

// SignIn tests

func (s *ServiceSuite) TestSignInSucceeds() {
	_, _ = s.service.SignUp(s.ctx, "a@x.com", "password123")

	session, err := s.service.SignIn(s.ctx, "a@x.com", "password123")
	s.Require().NoError(err)
	s.Equal("a@x.com", session.Email)
}

func (s *ServiceSuite) TestSignInFailsWithWrongPassword() {
	_, _ = s.service.SignUp(s.ctx, "a@x.com", "password123")

	_, err := s.service.SignIn(s.ctx, "a@x.com", "wrongpassword")
	s.ErrorIs(err, model.ErrInvalidCredentials)
}

func (s *ServiceSuite) TestSignInFailsWithUnknownEmail() {
	_, err := s.service.SignIn(s.ctx, "nobody@x.com", "password123")
	s.ErrorIs(err, model.ErrInvalidCredentials)
}

// SignOut tests

func (s *ServiceSuite) TestSignOutClearsCurrentSession() {
	_, _ = s.service.SignUp(s.ctx, "a@x.com", "password123")

	s.Require().NoError(s.service.SignOut(s.ctx))
	s.Nil(s.service.CurrentSession())
}

// Subscribe tests

func (s *ServiceSuite) TestSubscribeDeliversCurrentSessionImmediately() {
	_, _ = s.service.SignUp(s.ctx, "a@x.com", "password123")

	var got *model.Session
	unsub := s.service.Subscribe(func(sess *model.Session) { got = sess })
	defer unsub()

	s.Require().NotNil(got)
	s.Equal("a@x.com", got.Email)
}

func (s *ServiceSuite) TestSubscribeDeliversNilWhenSignedOut() {
	delivered := false
	var got *model.Session
	unsub := s.service.Subscribe(func(sess *model.Session) {
		delivered = true
		got = sess
	})
	defer unsub()

	s.True(delivered)
	s.Nil(got)
}

func (s *ServiceSuite) TestSubscribeObservesEveryChange() {
	var changes []*model.Session
	unsub := s.service.Subscribe(func(sess *model.Session) {
		changes = append(changes, sess)
	})
	defer unsub()

	_, _ = s.service.SignUp(s.ctx, "a@x.com", "password123")
	_ = s.service.SignOut(s.ctx)
	_, _ = s.service.SignIn(s.ctx, "a@x.com", "password123")

	s.Require().Len(changes, 4) // initial nil, sign-up, sign-out, sign-in
	s.Nil(changes[0])
	s.NotNil(changes[1])
	s.Nil(changes[2])
	s.NotNil(changes[3])
}

func (s *ServiceSuite) TestUnsubscribeStopsDelivery() {
	count := 0
	unsub := s.service.Subscribe(func(*model.Session) { count++ })
	unsub()

	_, _ = s.service.SignUp(s.ctx, "a@x.com", "password123")
	s.Equal(1, count) // only the initial delivery
}

// Revoke tests

func (s *ServiceSuite) TestRevokeNotifiesSubscribers() {
	_, _ = s.service.SignUp(s.ctx, "a@x.com", "password123")

	var last *model.Session
	unsub := s.service.Subscribe(func(sess *model.Session) { last = sess })
	defer unsub()

	s.service.Revoke()

	s.Nil(last)
	s.Nil(s.service.CurrentSession())
}

func (s *ServiceSuite) TestRevokeWithoutSessionIsSilent() {
	count := 0
	unsub := s.service.Subscribe(func(*model.Session) { count++ })
	defer unsub()

	s.service.Revoke()
	s.Equal(1, count) // only the initial delivery
}

// Resume tests

func (s *ServiceSuite) TestResumeUnknownTokenFails() {
	err := s.service.Resume(s.ctx, "sess_unknown")
	s.ErrorIs(err, model.ErrInvalidSession)
}

func (s *ServiceSuite) TestResumeRevokedTokenFails() {
	session, _ := s.service.SignUp(s.ctx, "a@x.com", "password123")
	s.service.Revoke()

	err := s.service.Resume(s.ctx, session.Token)
	s.ErrorIs(err, model.ErrInvalidSession)
}

func (s *ServiceSuite) TestResumeExpiredSessionFails() {
	session, _ := s.service.SignUp(s.ctx, "a@x.com", "password123")

	s.clock.Advance(25 * time.Hour)

	err := s.service.Resume(s.ctx, session.Token)
	s.ErrorIs(err, model.ErrInvalidSession)
}

func (s *ServiceSuite) TestResumeValidSessionNotifies() {
	first, _ := s.service.SignUp(s.ctx, "a@x.com", "password123")
	second, _ := s.service.SignIn(s.ctx, "a@x.com", "password123")
	_ = first

	var last *model.Session
	unsub := s.service.Subscribe(func(sess *model.Session) { last = sess })
	defer unsub()

	s.Require().NoError(s.service.Resume(s.ctx, second.Token))
	s.Require().NotNil(last)
	s.Equal(second.Token, last.Token)
}

// CleanExpiredSessions tests

func (s *ServiceSuite) TestCleanExpiredSessions() {
	session, _ := s.service.SignUp(s.ctx, "a@x.com", "password123")

	s.clock.Advance(25 * time.Hour)
	s.service.CleanExpiredSessions()

	err := s.service.Resume(s.ctx, session.Token)
	s.ErrorIs(err, model.ErrInvalidSession)
}
