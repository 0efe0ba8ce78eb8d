package session

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shuttle-tracker/internal/shuttle"
)

type countingMetrics struct{ results []string }

func (c *countingMetrics) LoginObserved(result string) { c.results = append(c.results, result) }

type failingStore struct{ *MemoryStore }

func (failingStore) Set(context.Context, string, string) error { return errors.New("disk full") }

func TestLoginStudent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	m := &countingMetrics{}
	s := New(store, WithLoginDelay(0), WithMetrics(m))

	ok, err := s.Login(ctx, "student@college.edu", "student123")
	require.NoError(t, err)
	assert.True(t, ok)

	u, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, "1", u.ID)
	assert.Equal(t, shuttle.RoleStudent, u.Role)

	raw, err := store.Get(ctx, SlotKey)
	require.NoError(t, err)
	var stored shuttle.User
	require.NoError(t, json.Unmarshal([]byte(raw), &stored))
	assert.Equal(t, u, stored)
	assert.Equal(t, []string{"accepted"}, m.results)
}

func TestLoginAdmin(t *testing.T) {
	s := New(NewMemoryStore(), WithLoginDelay(0))
	ok, err := s.Login(context.Background(), "admin@college.edu", "admin123")
	require.NoError(t, err)
	require.True(t, ok)
	u, _ := s.Current()
	assert.Equal(t, shuttle.RoleAdmin, u.Role)
}

func TestLoginWrongPassword(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	s := New(store, WithLoginDelay(0))

	ok, err := s.Login(ctx, "student@college.edu", "wrong")
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok = s.Current()
	assert.False(t, ok)
	_, err = store.Get(ctx, SlotKey)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoginWrongPasswordKeepsExistingUser(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	s := New(store, WithLoginDelay(0))
	ok, _ := s.Login(ctx, "admin@college.edu", "admin123")
	require.True(t, ok)
	before, _ := store.Get(ctx, SlotKey)

	ok, err := s.Login(ctx, "student@college.edu", "admin123")
	require.NoError(t, err)
	assert.False(t, ok)

	u, _ := s.Current()
	assert.Equal(t, shuttle.RoleAdmin, u.Role)
	after, _ := store.Get(ctx, SlotKey)
	assert.Equal(t, before, after)
}

func TestLoginCrossedCredentialsRejected(t *testing.T) {
	s := New(NewMemoryStore(), WithLoginDelay(0))
	ok, err := s.Login(context.Background(), "admin@college.edu", "student123")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLoginDelayAndLoading(t *testing.T) {
	s := New(NewMemoryStore(), WithLoginDelay(50*time.Millisecond))

	done := make(chan bool)
	go func() {
		ok, _ := s.Login(context.Background(), "student@college.edu", "student123")
		done <- ok
	}()

	assert.Eventually(t, s.Loading, time.Second, time.Millisecond)
	assert.True(t, <-done)
	assert.False(t, s.Loading())
}

func TestLoginCancelled(t *testing.T) {
	m := &countingMetrics{}
	s := New(NewMemoryStore(), WithLoginDelay(time.Hour), WithMetrics(m))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ok, err := s.Login(ctx, "student@college.edu", "student123")
	assert.False(t, ok)
	assert.ErrorIs(t, err, context.Canceled)
	_, ok = s.Current()
	assert.False(t, ok)
	assert.Equal(t, []string{"cancelled"}, m.results)
}

func TestLoginSurvivesStoreFailure(t *testing.T) {
	s := New(failingStore{NewMemoryStore()}, WithLoginDelay(0))
	ok, err := s.Login(context.Background(), "student@college.edu", "student123")
	require.NoError(t, err)
	assert.True(t, ok)
	_, ok = s.Current()
	assert.True(t, ok)
}

func TestLogout(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	s := New(store, WithLoginDelay(0))
	ok, _ := s.Login(ctx, "student@college.edu", "student123")
	require.True(t, ok)

	s.Logout(ctx)

	_, ok = s.Current()
	assert.False(t, ok)
	_, err := store.Get(ctx, SlotKey)
	assert.ErrorIs(t, err, ErrNotFound)

	// logging out twice is harmless
	assert.NotPanics(t, func() { s.Logout(ctx) })
}

// gatedStore blocks Set until release is closed.
type gatedStore struct {
	*MemoryStore
	entered chan struct{}
	release chan struct{}
}

func (g gatedStore) Set(ctx context.Context, key, value string) error {
	close(g.entered)
	<-g.release
	return g.MemoryStore.Set(ctx, key, value)
}

func TestLogoutDuringSlotWriteClearsSlot(t *testing.T) {
	ctx := context.Background()
	store := gatedStore{MemoryStore: NewMemoryStore(), entered: make(chan struct{}), release: make(chan struct{})}
	s := New(store, WithLoginDelay(0))

	loginDone := make(chan bool)
	go func() {
		ok, _ := s.Login(ctx, "student@college.edu", "student123")
		loginDone <- ok
	}()
	<-store.entered

	logoutDone := make(chan struct{})
	go func() {
		s.Logout(ctx)
		close(logoutDone)
	}()

	select {
	case <-logoutDone:
		t.Fatal("logout finished while the login slot write was in flight")
	case <-time.After(20 * time.Millisecond):
	}

	close(store.release)
	assert.True(t, <-loginDone)
	<-logoutDone

	_, ok := s.Current()
	assert.False(t, ok)
	_, err := store.Get(ctx, SlotKey)
	assert.ErrorIs(t, err, ErrNotFound)

	restarted := New(store, WithLoginDelay(0))
	restarted.Init(ctx)
	_, ok = restarted.Current()
	assert.False(t, ok)
}

func TestInitRestoresUser(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Set(ctx, SlotKey, `{"id":"2","name":"Admin User","role":"admin","email":"admin@college.edu"}`))

	s := New(store)
	s.Init(ctx)

	u, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, shuttle.User{ID: "2", Name: "Admin User", Role: shuttle.RoleAdmin, Email: "admin@college.edu"}, u)
}

func TestInitTreatsBadSlotAsAbsent(t *testing.T) {
	cases := map[string]string{
		"not json":      `{"id":`,
		"wrong shape":   `["a","b"]`,
		"unknown role":  `{"id":"9","name":"X","role":"driver","email":"x@college.edu"}`,
		"missing id":    `{"name":"X","role":"student","email":"x@college.edu"}`,
		"missing email": `{"id":"9","name":"X","role":"student"}`,
		"empty object":  `{}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := NewMemoryStore()
			require.NoError(t, store.Set(ctx, SlotKey, raw))

			s := New(store)
			assert.NotPanics(t, func() { s.Init(ctx) })
			_, ok := s.Current()
			assert.False(t, ok)
		})
	}
}

func TestInitEmptyStore(t *testing.T) {
	s := New(NewMemoryStore())
	s.Init(context.Background())
	_, ok := s.Current()
	assert.False(t, ok)
	s.Close()
}
