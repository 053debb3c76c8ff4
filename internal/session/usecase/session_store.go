package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"roster-console/internal/session/config"
	"roster-console/internal/session/domain/model"
	"roster-console/internal/session/domain/repository"
	sharederrors "roster-console/internal/shared/errors"
	"roster-console/internal/shared/eventbus"
	"roster-console/internal/shared/logger"
)

// SessionStoreInterface is what the presentation layer and the HTTP access
// layer consume.
type SessionStoreInterface interface {
	Login(ctx context.Context, identifier, secret string, remember bool) (bool, error)
	Restore(ctx context.Context) model.State
	Logout(ctx context.Context) error
	State() model.State
	Token(ctx context.Context) (string, bool)
	Authorize(ctx context.Context, token string) (*model.Identity, error)
}

// SessionStore owns the single active session of the process.
// Login, Logout and Restore are serialized; the last writer wins.
type SessionStore struct {
	opMu sync.Mutex

	mu      sync.RWMutex
	current *model.Session
	loading bool
	errMsg  string

	verifier  repository.Verifier
	tokens    repository.TokenService
	durable   repository.Storage
	ephemeral repository.Storage
	cfg       *config.Config
	bus       eventbus.Bus
	log       logger.Logger
	now       func() time.Time
}

// Option configures a SessionStore
type Option func(*SessionStore)

// WithClock sets the time source for expiry decisions
func WithClock(now func() time.Time) Option {
	return func(s *SessionStore) { s.now = now }
}

// WithEventBus publishes login and logout events
func WithEventBus(bus eventbus.Bus) Option {
	return func(s *SessionStore) { s.bus = bus }
}

// NewSessionStore creates the store. Call Restore once at startup.
func NewSessionStore(
	verifier repository.Verifier,
	tokens repository.TokenService,
	durable, ephemeral repository.Storage,
	cfg *config.Config,
	log logger.Logger,
	opts ...Option,
) *SessionStore {
	if log == nil {
		log = logger.NewNopLogger()
	}
	s := &SessionStore{
		verifier:  verifier,
		tokens:    tokens,
		durable:   durable,
		ephemeral: ephemeral,
		cfg:       cfg,
		log:       log.WithComponent("session-store"),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Login verifies the credentials and persists a fresh session. Bad
// credentials yield (false, nil) with State().Error set; a transient failure
// yields (false, err).
func (s *SessionStore) Login(ctx context.Context, identifier, secret string, remember bool) (bool, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.setLoading(true, "")
	defer s.setLoading(false, "")

	identity, err := s.verifier.Verify(ctx, strings.TrimSpace(identifier), secret)
	if err != nil {
		if errors.Is(err, sharederrors.ErrInvalidCredentials) {
			s.setError(model.MsgInvalidCredentials)
			s.log.WithContext(ctx).Infof("login rejected for %s", identifier)
			return false, nil
		}
		s.setError(model.MsgLoginFailed)
		return false, fmt.Errorf("verify credentials: %w", err)
	}

	sess, err := s.mint(ctx, *identity, remember)
	if err != nil {
		s.setError(model.MsgLoginFailed)
		return false, err
	}

	// Replace any previous record in either store.
	if err := s.clearAll(ctx); err != nil {
		s.setError(model.MsgLoginFailed)
		return false, err
	}
	if err := s.persist(ctx, sess); err != nil {
		_ = s.clearAll(ctx)
		s.setError(model.MsgLoginFailed)
		return false, err
	}

	s.mu.Lock()
	s.current = sess
	s.errMsg = ""
	s.mu.Unlock()

	s.log.WithContext(ctx).WithFields(map[string]interface{}{
		"user_id":    identity.ID,
		"durability": sess.Durability.String(),
	}).Info("session started")
	s.publish(ctx, eventbus.EventTypeSessionLogin, *identity)
	return true, nil
}

// Restore loads a persisted session. An expired or malformed record is
// cleared and reported as unauthenticated.
func (s *SessionStore) Restore(ctx context.Context) model.State {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.setLoading(true, "")
	sess, err := s.load(ctx)
	s.mu.Lock()
	s.current = sess
	s.loading = false
	s.mu.Unlock()

	if err != nil {
		s.log.WithContext(ctx).Warnf("discarding stored session: %v", err)
		if cerr := s.clearAll(ctx); cerr != nil {
			s.log.WithContext(ctx).Errorf("failed to clear session keys: %v", cerr)
		}
	}
	return s.State()
}

// Logout clears both stores and resets to unauthenticated. Idempotent.
func (s *SessionStore) Logout(ctx context.Context) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.Lock()
	prev := s.current
	s.current = nil
	s.errMsg = ""
	s.mu.Unlock()

	err := s.clearAll(ctx)
	if prev != nil {
		s.log.WithContext(ctx).Infof("session ended for user %d", prev.Identity.ID)
		s.publish(ctx, eventbus.EventTypeSessionLogout, prev.Identity)
	}
	return err
}

// State returns a snapshot for the presentation layer
func (s *SessionStore) State() model.State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := model.State{IsLoading: s.loading, Error: s.errMsg}
	if s.current != nil && !s.current.Expired(s.now()) {
		id := s.current.Identity
		st.Identity = &id
		st.IsAuthenticated = true
	}
	return st
}

// Current returns a copy of the active session, if any
func (s *SessionStore) Current() (*model.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil || s.current.Expired(s.now()) {
		return nil, false
	}
	cp := *s.current
	return &cp, true
}

// Token returns the bearer credential for outgoing calls. A session found
// expired is torn down.
func (s *SessionStore) Token(ctx context.Context) (string, bool) {
	s.mu.RLock()
	sess := s.current
	s.mu.RUnlock()

	if sess == nil {
		return "", false
	}
	if sess.Expired(s.now()) {
		s.expire(ctx, sess)
		return "", false
	}
	return sess.Token, true
}

// Authorize checks that token belongs to the active session
func (s *SessionStore) Authorize(ctx context.Context, token string) (*model.Identity, error) {
	s.mu.RLock()
	sess := s.current
	s.mu.RUnlock()

	if sess == nil {
		return nil, model.ErrNoSession
	}
	if sess.Expired(s.now()) {
		s.expire(ctx, sess)
		return nil, model.ErrSessionExpired
	}
	if token == "" || token != sess.Token {
		return nil, model.ErrTokenMismatch
	}
	if _, err := s.tokens.ValidateToken(ctx, token); err != nil {
		return nil, fmt.Errorf("validate token: %w", err)
	}
	id := sess.Identity
	return &id, nil
}

func (s *SessionStore) expire(ctx context.Context, sess *model.Session) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.Lock()
	if s.current != sess {
		s.mu.Unlock()
		return
	}
	s.current = nil
	s.mu.Unlock()

	if err := s.clearAll(ctx); err != nil {
		s.log.WithContext(ctx).Errorf("failed to clear expired session: %v", err)
	}
	s.log.WithContext(ctx).Infof("session expired for user %d", sess.Identity.ID)
	s.publish(ctx, eventbus.EventTypeSessionLogout, sess.Identity)
}

func (s *SessionStore) mint(ctx context.Context, identity model.Identity, remember bool) (*model.Session, error) {
	now := s.now()
	sess := &model.Session{Identity: identity, Durability: model.Ephemeral}
	ttl := s.cfg.EphemeralTTL
	if remember {
		sess.Durability = model.Durable
		ttl = s.cfg.RememberTTL
	}
	if ttl > 0 {
		sess.ExpiresAt = now.Add(ttl)
	}

	token, err := s.tokens.GenerateToken(ctx, identity.ID, identity.Email, string(identity.Role), ttl)
	if err != nil {
		return nil, fmt.Errorf("mint session token: %w", err)
	}
	sess.Token = token
	return sess, nil
}

func (s *SessionStore) persist(ctx context.Context, sess *model.Session) error {
	raw, err := json.Marshal(sess.Identity)
	if err != nil {
		return fmt.Errorf("encode identity: %w", err)
	}

	store := s.ephemeral
	ttl := s.cfg.EphemeralTTL
	if sess.Durability == model.Durable {
		store = s.durable
		ttl = s.cfg.RememberTTL
	}

	if err := store.Set(ctx, model.KeyToken, sess.Token, ttl); err != nil {
		return fmt.Errorf("store token: %w", err)
	}
	if err := store.Set(ctx, model.KeyIdentity, string(raw), ttl); err != nil {
		return fmt.Errorf("store identity: %w", err)
	}
	if sess.Durability == model.Durable {
		expiry := strconv.FormatInt(sess.ExpiresAt.UnixMilli(), 10)
		if err := store.Set(ctx, model.KeyExpiry, expiry, ttl); err != nil {
			return fmt.Errorf("store expiry: %w", err)
		}
	}
	return nil
}

// load reads the durable store first, then the ephemeral one. It returns
// (nil, nil) when nothing is stored.
func (s *SessionStore) load(ctx context.Context) (*model.Session, error) {
	for _, src := range []struct {
		store      repository.Storage
		durability model.Durability
	}{
		{s.durable, model.Durable},
		{s.ephemeral, model.Ephemeral},
	} {
		token, ok, err := src.store.Get(ctx, model.KeyToken)
		if err != nil {
			return nil, fmt.Errorf("read %s token: %w", src.durability, err)
		}
		if !ok || token == "" {
			continue
		}
		return s.decode(ctx, src.store, src.durability, token)
	}
	return nil, nil
}

func (s *SessionStore) decode(ctx context.Context, store repository.Storage, d model.Durability, token string) (*model.Session, error) {
	sess := &model.Session{Token: token, Durability: d}

	if d == model.Durable {
		rawExp, ok, err := store.Get(ctx, model.KeyExpiry)
		if err != nil {
			return nil, fmt.Errorf("read expiry: %w", err)
		}
		if ok {
			ms, err := strconv.ParseInt(rawExp, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("malformed expiry %q", rawExp)
			}
			sess.ExpiresAt = time.UnixMilli(ms)
			if sess.Expired(s.now()) {
				return nil, model.ErrSessionExpired
			}
		}
	}

	rawIdentity, ok, err := store.Get(ctx, model.KeyIdentity)
	if err != nil {
		return nil, fmt.Errorf("read identity: %w", err)
	}
	if !ok {
		return nil, errors.New("token stored without identity")
	}
	if err := json.Unmarshal([]byte(rawIdentity), &sess.Identity); err != nil {
		return nil, fmt.Errorf("malformed identity: %w", err)
	}
	if !sess.Identity.Valid() {
		return nil, errors.New("incomplete identity")
	}
	if _, err := s.tokens.ValidateToken(ctx, token); err != nil {
		return nil, fmt.Errorf("stored token rejected: %w", err)
	}
	return sess, nil
}

func (s *SessionStore) clearAll(ctx context.Context) error {
	errDurable := s.durable.Delete(ctx, model.KeyToken, model.KeyIdentity, model.KeyExpiry)
	errEphemeral := s.ephemeral.Delete(ctx, model.KeyToken, model.KeyIdentity)
	return errors.Join(errDurable, errEphemeral)
}

func (s *SessionStore) setLoading(loading bool, msg string) {
	s.mu.Lock()
	s.loading = loading
	if loading {
		s.errMsg = msg
	}
	s.mu.Unlock()
}

func (s *SessionStore) setError(msg string) {
	s.mu.Lock()
	s.errMsg = msg
	s.mu.Unlock()
}

func (s *SessionStore) publish(ctx context.Context, eventType string, identity model.Identity) {
	if s.bus == nil {
		return
	}
	s.bus.PublishAndForget(ctx, eventbus.NewEvent(eventType, identity, "session-store"))
}
