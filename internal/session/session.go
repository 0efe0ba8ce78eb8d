// Package session tracks the single current user of the dashboard and mirrors
// it to one persisted key-value slot.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"shuttle-tracker/internal/logger"
	"shuttle-tracker/internal/mockdata"
	"shuttle-tracker/internal/shuttle"
)

// SlotKey is the persisted slot holding the last logged-in user.
const SlotKey = "transport-tracker-user"

// DefaultLoginDelay simulates network latency on every login attempt.
const DefaultLoginDelay = time.Second

// LoginMetrics receives one observation per finished login attempt.
type LoginMetrics interface {
	LoginObserved(result string)
}

type Option func(*Session)

func WithLoginDelay(d time.Duration) Option {
	return func(s *Session) { s.delay = d }
}

func WithMetrics(m LoginMetrics) Option {
	return func(s *Session) { s.metrics = m }
}

type Session struct {
	store    Store
	delay    time.Duration
	metrics  LoginMetrics
	validate *validator.Validate

	mu      sync.RWMutex
	user    *shuttle.User
	loading int

	// persistMu keeps each user change and its slot write together so the
	// slot never outlives a logout.
	persistMu sync.Mutex
}

func New(store Store, opts ...Option) *Session {
	s := &Session{
		store:    store,
		delay:    DefaultLoginDelay,
		validate: validator.New(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Init reads the persisted slot once. Any problem with the stored value leaves
// the session without a user.
func (s *Session) Init(ctx context.Context) {
	raw, err := s.store.Get(ctx, SlotKey)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			logger.Warn("session slot unreadable, starting logged out", "error", err)
		}
		return
	}
	u, err := s.decode(raw)
	if err != nil {
		logger.Warn("session slot malformed, starting logged out", "error", err)
		return
	}
	s.mu.Lock()
	s.user = &u
	s.mu.Unlock()
	logger.Info("session restored", "user", u.ID, "role", u.Role)
}

func (s *Session) decode(raw string) (shuttle.User, error) {
	var u shuttle.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return shuttle.User{}, err
	}
	if err := s.validate.Struct(u); err != nil {
		return shuttle.User{}, err
	}
	return u, nil
}

// Login waits the artificial delay and then checks the credential pair. It
// reports false for a mismatch; the only error is ctx ending during the delay.
func (s *Session) Login(ctx context.Context, email, password string) (bool, error) {
	s.mu.Lock()
	s.loading++
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.loading--
		s.mu.Unlock()
	}()

	if s.delay > 0 {
		t := time.NewTimer(s.delay)
		select {
		case <-ctx.Done():
			t.Stop()
			s.observe("cancelled")
			return false, ctx.Err()
		case <-t.C:
		}
	}

	u, ok := match(email, password)
	if !ok {
		s.observe("rejected")
		logger.Info("login rejected", "email", email)
		return false, nil
	}

	s.persistMu.Lock()
	s.mu.Lock()
	s.user = &u
	s.mu.Unlock()

	b, err := json.Marshal(u)
	if err == nil {
		err = s.store.Set(ctx, SlotKey, string(b))
	}
	s.persistMu.Unlock()
	if err != nil {
		logger.Warn("persist session failed", "error", err)
	}
	s.observe("accepted")
	logger.Info("login accepted", "user", u.ID, "role", u.Role)
	return true, nil
}

func match(email, password string) (shuttle.User, bool) {
	for _, c := range mockdata.Credentials() {
		if c.Email == email && c.Password == password {
			return mockdata.UserByEmail(email)
		}
	}
	return shuttle.User{}, false
}

// Logout clears the current user and the persisted slot.
func (s *Session) Logout(ctx context.Context) {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()
	s.mu.Lock()
	s.user = nil
	s.mu.Unlock()
	if err := s.store.Delete(ctx, SlotKey); err != nil {
		logger.Warn("clear session slot failed", "error", err)
	}
}

func (s *Session) Current() (shuttle.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return shuttle.User{}, false
	}
	return *s.user, true
}

// Loading reports whether a login attempt is waiting out its delay.
func (s *Session) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading > 0
}

// Close releases nothing; the session owns no resources beyond its store,
// which the caller closes.
func (s *Session) Close() {}

func (s *Session) observe(result string) {
	if s.metrics != nil {
		s.metrics.LoginObserved(result)
	}
}
