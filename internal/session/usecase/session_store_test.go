package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"roster-console/internal/session/adapter/identity"
	"roster-console/internal/session/adapter/security"
	"roster-console/internal/session/adapter/storage"
	"roster-console/internal/session/config"
	"roster-console/internal/session/domain/model"
	"roster-console/internal/shared/eventbus"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"
)

type mockVerifier struct {
	mock.Mock
}

func (m *mockVerifier) Verify(ctx context.Context, identifier, secret string) (*model.Identity, error) {
	args := m.Called(ctx, identifier, secret)
	if id := args.Get(0); id != nil {
		return id.(*model.Identity), args.Error(1)
	}
	return nil, args.Error(1)
}

type SessionStoreSuite struct {
	suite.Suite
	ctx       context.Context
	now       time.Time
	cfg       *config.Config
	tokens    *security.JWTokenService
	durable   *storage.MemoryStorage
	ephemeral *storage.MemoryStorage
	store     *SessionStore
}

func (s *SessionStoreSuite) clock() time.Time { return s.now }

func (s *SessionStoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.now = time.Date(2026, 4, 10, 8, 30, 0, 0, time.UTC)
	s.cfg = config.DefaultConfig()

	tokens, err := security.NewJWTokenService(s.cfg)
	s.Require().NoError(err)
	s.tokens = tokens.WithClock(s.clock)

	verifier, err := identity.NewStaticVerifier(identity.DemoCredentials(), bcrypt.MinCost)
	s.Require().NoError(err)

	s.durable = storage.NewMemoryStorage()
	s.ephemeral = storage.NewMemoryStorage()
	s.store = NewSessionStore(verifier, s.tokens, s.durable, s.ephemeral, s.cfg, nil, WithClock(s.clock))
}

func (s *SessionStoreSuite) get(store *storage.MemoryStorage, key string) (string, bool) {
	v, ok, err := store.Get(s.ctx, key)
	s.Require().NoError(err)
	return v, ok
}

func (s *SessionStoreSuite) TestLogin_BadCredentials() {
	ok, err := s.store.Login(s.ctx, "admin@example.com", "wrong-password", true)

	s.NoError(err)
	s.False(ok)
	st := s.store.State()
	s.False(st.IsAuthenticated)
	s.False(st.IsLoading)
	s.Equal(model.MsgInvalidCredentials, st.Error)
	s.Equal(0, s.durable.Len())
	s.Equal(0, s.ephemeral.Len())
}

func (s *SessionStoreSuite) TestLogin_RememberWritesDurableKeys() {
	ok, err := s.store.Login(s.ctx, "admin@example.com", "admin123", true)
	s.Require().NoError(err)
	s.Require().True(ok)

	token, found := s.get(s.durable, model.KeyToken)
	s.True(found)
	s.NotEmpty(token)

	rawUser, found := s.get(s.durable, model.KeyIdentity)
	s.Require().True(found)
	var stored model.Identity
	s.Require().NoError(json.Unmarshal([]byte(rawUser), &stored))
	s.Equal(int64(1), stored.ID)
	s.Equal("Admin User", stored.Name)
	s.NotContains(rawUser, "admin123")

	rawExp, found := s.get(s.durable, model.KeyExpiry)
	s.Require().True(found)
	s.Equal(strconv.FormatInt(s.now.Add(7*24*time.Hour).UnixMilli(), 10), rawExp)

	s.Equal(0, s.ephemeral.Len())

	st := s.store.State()
	s.True(st.IsAuthenticated)
	s.Empty(st.Error)
	s.Equal(model.RoleAdmin, st.Identity.Role)
}

func (s *SessionStoreSuite) TestLogin_EphemeralWritesTwoKeys() {
	ok, err := s.store.Login(s.ctx, "user@example.com", "user123", false)
	s.Require().NoError(err)
	s.Require().True(ok)

	s.Equal(2, s.ephemeral.Len())
	_, found := s.get(s.ephemeral, model.KeyExpiry)
	s.False(found)
	s.Equal(0, s.durable.Len())

	sess, ok := s.store.Current()
	s.Require().True(ok)
	s.Equal(model.Ephemeral, sess.Durability)
	s.True(sess.ExpiresAt.IsZero())
}

func (s *SessionStoreSuite) TestLogin_ReplacesPreviousSession() {
	_, err := s.store.Login(s.ctx, "admin@example.com", "admin123", true)
	s.Require().NoError(err)
	_, err = s.store.Login(s.ctx, "user@example.com", "user123", false)
	s.Require().NoError(err)

	s.Equal(0, s.durable.Len())
	s.Equal(2, s.ephemeral.Len())
	s.Equal("user@example.com", s.store.State().Identity.Email)
}

func (s *SessionStoreSuite) TestLogin_TransientFailure() {
	v := &mockVerifier{}
	v.On("Verify", mock.Anything, "admin@example.com", "admin123").Return(nil, errors.New("identity provider unreachable"))
	store := NewSessionStore(v, s.tokens, s.durable, s.ephemeral, s.cfg, nil, WithClock(s.clock))

	ok, err := store.Login(s.ctx, "admin@example.com", "admin123", true)
	s.False(ok)
	s.ErrorContains(err, "identity provider unreachable")
	s.Equal(model.MsgLoginFailed, store.State().Error)
	s.Equal(0, s.durable.Len())
	v.AssertExpectations(s.T())
}

func (s *SessionStoreSuite) TestRestore_ExpiredClearsAllKeys() {
	token, err := s.tokens.GenerateToken(s.ctx, 1, "admin@example.com", "admin", 7*24*time.Hour)
	s.Require().NoError(err)
	raw, _ := json.Marshal(model.Identity{ID: 1, Email: "admin@example.com", Name: "Admin User", Role: model.RoleAdmin})

	s.Require().NoError(s.durable.Set(s.ctx, model.KeyToken, token, 0))
	s.Require().NoError(s.durable.Set(s.ctx, model.KeyIdentity, string(raw), 0))
	s.Require().NoError(s.durable.Set(s.ctx, model.KeyExpiry, strconv.FormatInt(s.now.Add(-time.Second).UnixMilli(), 10), 0))

	st := s.store.Restore(s.ctx)

	s.False(st.IsAuthenticated)
	s.Nil(st.Identity)
	s.False(st.IsLoading)
	for _, key := range []string{model.KeyToken, model.KeyIdentity, model.KeyExpiry} {
		_, found := s.get(s.durable, key)
		s.False(found, key)
	}
}

func (s *SessionStoreSuite) TestRestore_RememberedSessionSurvives() {
	_, err := s.store.Login(s.ctx, "admin@example.com", "admin123", true)
	s.Require().NoError(err)

	verifier, _ := identity.NewStaticVerifier(identity.DemoCredentials(), bcrypt.MinCost)
	restarted := NewSessionStore(verifier, s.tokens, s.durable, storage.NewMemoryStorage(), s.cfg, nil, WithClock(s.clock))

	s.now = s.now.Add(6 * 24 * time.Hour)
	st := restarted.Restore(s.ctx)
	s.True(st.IsAuthenticated)
	s.Equal(int64(1), st.Identity.ID)

	token, ok := restarted.Token(s.ctx)
	s.True(ok)
	s.NotEmpty(token)
}

func (s *SessionStoreSuite) TestRestore_EphemeralSession() {
	_, err := s.store.Login(s.ctx, "user@example.com", "user123", false)
	s.Require().NoError(err)

	st := s.store.Restore(s.ctx)
	s.True(st.IsAuthenticated)
	s.Equal(model.RoleUser, st.Identity.Role)
}

func (s *SessionStoreSuite) TestRestore_MalformedDataIsAbsent() {
	cases := map[string]func(){
		"bad identity json": func() {
			_ = s.durable.Set(s.ctx, model.KeyToken, "tok", 0)
			_ = s.durable.Set(s.ctx, model.KeyIdentity, "{not json", 0)
		},
		"missing identity": func() {
			_ = s.ephemeral.Set(s.ctx, model.KeyToken, "tok", 0)
		},
		"bad expiry": func() {
			_ = s.durable.Set(s.ctx, model.KeyToken, "tok", 0)
			_ = s.durable.Set(s.ctx, model.KeyIdentity, `{"id":1,"email":"admin@example.com","name":"A","role":"admin"}`, 0)
			_ = s.durable.Set(s.ctx, model.KeyExpiry, "tomorrow", 0)
		},
		"forged token": func() {
			_ = s.durable.Set(s.ctx, model.KeyToken, "mock-jwt-token-1700000000000", 0)
			_ = s.durable.Set(s.ctx, model.KeyIdentity, `{"id":1,"email":"admin@example.com","name":"A","role":"admin"}`, 0)
		},
		"unknown role": func() {
			_ = s.ephemeral.Set(s.ctx, model.KeyToken, "tok", 0)
			_ = s.ephemeral.Set(s.ctx, model.KeyIdentity, `{"id":1,"email":"admin@example.com","name":"A","role":"root"}`, 0)
		},
	}

	for name, seed := range cases {
		s.Run(name, func() {
			s.SetupTest()
			seed()

			st := s.store.Restore(s.ctx)
			s.False(st.IsAuthenticated)
			s.Equal(0, s.durable.Len())
			s.Equal(0, s.ephemeral.Len())
		})
	}
}

func (s *SessionStoreSuite) TestRestore_Empty() {
	st := s.store.Restore(s.ctx)
	s.False(st.IsAuthenticated)
	s.Empty(st.Error)
}

func (s *SessionStoreSuite) TestLogout_Idempotent() {
	_, err := s.store.Login(s.ctx, "admin@example.com", "admin123", true)
	s.Require().NoError(err)
	_ = s.ephemeral.Set(s.ctx, model.KeyToken, "stray", 0)

	s.NoError(s.store.Logout(s.ctx))
	s.False(s.store.State().IsAuthenticated)
	s.Equal(0, s.durable.Len())
	s.Equal(0, s.ephemeral.Len())

	s.NoError(s.store.Logout(s.ctx))
	s.False(s.store.State().IsAuthenticated)
}

func (s *SessionStoreSuite) TestToken_ExpiryDetectedLazily() {
	_, err := s.store.Login(s.ctx, "admin@example.com", "admin123", true)
	s.Require().NoError(err)

	_, ok := s.store.Token(s.ctx)
	s.True(ok)

	s.now = s.now.Add(7*24*time.Hour + time.Second)
	_, ok = s.store.Token(s.ctx)
	s.False(ok)
	s.False(s.store.State().IsAuthenticated)
	s.Equal(0, s.durable.Len())
}

func (s *SessionStoreSuite) TestAuthorize() {
	_, err := s.store.Authorize(s.ctx, "anything")
	s.ErrorIs(err, model.ErrNoSession)

	_, err = s.store.Login(s.ctx, "user@example.com", "user123", false)
	s.Require().NoError(err)
	token, _ := s.store.Token(s.ctx)

	id, err := s.store.Authorize(s.ctx, token)
	s.Require().NoError(err)
	s.Equal("user@example.com", id.Email)

	_, err = s.store.Authorize(s.ctx, token+"x")
	s.ErrorIs(err, model.ErrTokenMismatch)
}

func (s *SessionStoreSuite) TestConcurrentLoginLogout() {
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = s.store.Login(s.ctx, "admin@example.com", "admin123", true)
		}()
		go func() {
			defer wg.Done()
			_ = s.store.Logout(s.ctx)
		}()
	}
	wg.Wait()

	st := s.store.State()
	if st.IsAuthenticated {
		s.Equal(3, s.durable.Len())
	} else {
		s.Equal(0, s.durable.Len())
	}
	s.Equal(0, s.ephemeral.Len())
}

func TestSessionStoreSuite(t *testing.T) {
	suite.Run(t, new(SessionStoreSuite))
}

func TestSessionStore_PublishesEvents(t *testing.T) {
	cfg := config.DefaultConfig()
	tokens, err := security.NewJWTokenService(cfg)
	require.NoError(t, err)
	verifier, err := identity.NewStaticVerifier(identity.DemoCredentials(), bcrypt.MinCost)
	require.NoError(t, err)

	bus := eventbus.NewEventBus(nil)
	events := make(chan string, 2)
	record := func(ctx context.Context, e eventbus.Event) error {
		events <- e.Type()
		return nil
	}
	bus.Subscribe(eventbus.EventTypeSessionLogin, record)
	bus.Subscribe(eventbus.EventTypeSessionLogout, record)

	store := NewSessionStore(verifier, tokens, storage.NewMemoryStorage(), storage.NewMemoryStorage(), cfg, nil, WithEventBus(bus))
	ok, err := store.Login(context.Background(), "admin@example.com", "admin123", false)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, store.Logout(context.Background()))

	got := map[string]bool{}
	for i := 0; i < 2; i++ {
		select {
		case e := <-events:
			got[e] = true
		case <-time.After(time.Second):
			t.Fatal("missing session event")
		}
	}
	assert.True(t, got[eventbus.EventTypeSessionLogin])
	assert.True(t, got[eventbus.EventTypeSessionLogout])
}
