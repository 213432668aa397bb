package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/institute-app/internal/models"
	"github.com/magabrotheeeer/institute-app/internal/sessionstore"
)

// mapKV — потокобезопасная KV-заглушка поверх map.
type mapKV struct {
	mu   sync.Mutex
	data map[string]string
	err  error
}

func newMapKV() *mapKV { return &mapKV{data: make(map[string]string)} }

func (m *mapKV) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", false, m.err
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *mapKV) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.data[key] = value
	return nil
}

func (m *mapKV) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	delete(m.data, key)
	return nil
}

func newRouter(t *testing.T) (*Router, *sessionstore.Store, *mapKV) {
	t.Helper()
	kv := newMapKV()
	sessions := sessionstore.New(kv)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(sessions, log), sessions, kv
}

func TestResolve_NoRecord(t *testing.T) {
	ctx := context.Background()
	router, _, _ := newRouter(t)

	state, current := router.Current()
	assert.Equal(t, StateLoading, state)
	assert.Nil(t, current)

	state, err := router.Resolve(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateUnauthenticated, state)
}

func TestResolve_StudentRecord(t *testing.T) {
	ctx := context.Background()
	router, sessions, _ := newRouter(t)
	require.NoError(t, sessions.Save(ctx, models.User{
		ID: "user-1", Email: "s@example.com", Role: models.RoleStudent,
	}))

	state, err := router.Resolve(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateStudentHome, state)

	_, current := router.Current()
	require.NotNil(t, current)
	assert.Equal(t, "user-1", current.ID)
}

func TestResolve_AdminRecord(t *testing.T) {
	ctx := context.Background()
	router, sessions, _ := newRouter(t)
	require.NoError(t, sessions.Save(ctx, models.User{
		ID: "admin-1", Email: "a@example.com", Role: models.RoleAdmin,
	}))

	state, err := router.Resolve(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateAdminHome, state)
}

func TestResolve_StoreErrorFallsBackToSignedOut(t *testing.T) {
	ctx := context.Background()
	router, _, kv := newRouter(t)
	kv.err = errors.New("kv down")

	state, err := router.Resolve(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateUnauthenticated, state)
}

func TestSignIn_ByRole(t *testing.T) {
	router, _, _ := newRouter(t)

	state := router.SignIn(&models.User{ID: "u", Role: models.RoleStudent})
	assert.Equal(t, StateStudentHome, state)

	state = router.SignIn(&models.User{ID: "a", Role: models.RoleAdmin})
	assert.Equal(t, StateAdminHome, state)
}

func TestSignOut_ClearsRecordBeforeTransition(t *testing.T) {
	ctx := context.Background()
	router, sessions, _ := newRouter(t)
	require.NoError(t, sessions.Save(ctx, models.User{ID: "u", Role: models.RoleStudent}))
	router.SignIn(&models.User{ID: "u", Role: models.RoleStudent})

	require.NoError(t, router.SignOut(ctx))

	state, current := router.Current()
	assert.Equal(t, StateUnauthenticated, state)
	assert.Nil(t, current)

	loaded, err := sessions.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestSignOut_StoreErrorKeepsState(t *testing.T) {
	ctx := context.Background()
	router, _, kv := newRouter(t)
	router.SignIn(&models.User{ID: "u", Role: models.RoleStudent})
	kv.err = errors.New("kv down")

	err := router.SignOut(ctx)
	require.Error(t, err)

	// Пока запись не стёрта, выход не считается состоявшимся.
	state, _ := router.Current()
	assert.Equal(t, StateStudentHome, state)
}
