package credentials

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	clocktesting "k8s.io/utils/clock/testing"
)

var testNow = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T, opts ...Option) *Store {
	path := filepath.Join(t.TempDir(), "chat-cli", "credentials.json")
	opts = append([]Option{WithClock(clocktesting.NewFakePassiveClock(testNow))}, opts...)
	return NewStore(path, opts...)
}

func credentialExpiringIn(d time.Duration) *Credential {
	expiresAt := testNow.Add(d)
	return &Credential{
		AccessToken:  "access",
		RefreshToken: "refresh",
		TokenType:    "Bearer",
		Scope:        "chat",
		ExpiresAt:    &expiresAt,
		CreatedAt:    testNow,
		User:         &UserSnapshot{ID: 3, Name: "Ada", Email: "ada@example.com"},
	}
}

func TestStoreRoundTrip(t *testing.T) {
	store := newTestStore(t)
	cred := credentialExpiringIn(time.Hour)

	require.NoError(t, store.Save(cred))

	loaded, ok, err := store.Load()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, cred, loaded)

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestStoreOverwrite(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Save(credentialExpiringIn(time.Hour)))

	replacement := credentialExpiringIn(2 * time.Hour)
	replacement.AccessToken = "second"
	replacement.User = nil
	require.NoError(t, store.Save(replacement))

	loaded, ok, err := store.Load()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "second", loaded.AccessToken)
	assert.Nil(t, loaded.User)
}

func TestStoreClear(t *testing.T) {
	store := newTestStore(t)

	// Clearing an empty cache is fine
	require.NoError(t, store.Clear())

	require.NoError(t, store.Save(credentialExpiringIn(time.Hour)))
	require.NoError(t, store.Clear())

	loaded, ok, err := store.Load()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, loaded)
}

func TestStoreLoadCorrupt(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(store.Path()), 0o700))
	require.NoError(t, os.WriteFile(store.Path(), []byte("{not json"), 0o600))

	_, _, err := store.Load()
	assert.Error(t, err)
}

func TestIsExpired(t *testing.T) {
	store := newTestStore(t)

	assert.True(t, store.IsExpired(credentialExpiringIn(60*time.Second)), "inside the safety margin")
	assert.False(t, store.IsExpired(credentialExpiringIn(600*time.Second)))
	assert.True(t, store.IsExpired(credentialExpiringIn(-time.Minute)))
	assert.True(t, store.IsExpired(&Credential{AccessToken: "x"}), "no expiry recorded")
	assert.True(t, store.IsExpired(nil))
}

func TestIsExpiredCustomMargin(t *testing.T) {
	store := newTestStore(t, WithExpiryMargin(30*time.Second))
	assert.False(t, store.IsExpired(credentialExpiringIn(60*time.Second)))
}

func TestRequireValid(t *testing.T) {
	store := newTestStore(t)

	_, err := store.RequireValid()
	assert.ErrorIs(t, err, ErrUnauthenticated)

	require.NoError(t, store.Save(credentialExpiringIn(60*time.Second)))
	_, err = store.RequireValid()
	assert.ErrorIs(t, err, ErrUnauthenticated)

	require.NoError(t, store.Save(credentialExpiringIn(time.Hour)))
	cred, err := store.RequireValid()
	require.NoError(t, err)
	assert.Equal(t, "access", cred.AccessToken)
}
