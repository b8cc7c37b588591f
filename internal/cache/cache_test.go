package cache

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name    string  `json:"name"`
	Balance float64 `json:"balance"`
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	return s
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := openTestStore(t)

	in := []sample{{Name: "Main", Balance: 1000}, {Name: "Swing", Balance: 250.5}}
	require.NoError(t, s.Put("accounts", "1", in))

	var out []sample
	fetchedAt, err := s.Get("accounts", "1", &out)
	require.NoError(t, err)
	assert.Equal(t, in, out)
	assert.False(t, fetchedAt.IsZero())
}

func TestSnapshotReplace(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.Put("accounts", "1", []sample{{Name: "old"}}))
	require.NoError(t, s.Put("accounts", "1", []sample{{Name: "new"}}))

	var out []sample
	_, err := s.Get("accounts", "1", &out)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "new", out[0].Name)
}

func TestSnapshotMiss(t *testing.T) {
	s := openTestStore(t)

	var out []sample
	_, err := s.Get("accounts", "404", &out)
	assert.ErrorIs(t, err, ErrMiss)

	// Different key spaces do not collide.
	require.NoError(t, s.Put("trades", "1", []sample{{Name: "t"}}))
	_, err = s.Get("accounts", "1", &out)
	assert.ErrorIs(t, err, ErrMiss)
}

func TestClear(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.Put("accounts", "1", []sample{{Name: "Main"}}))
	require.NoError(t, s.Clear())

	var out []sample
	_, err := s.Get("accounts", "1", &out)
	assert.ErrorIs(t, err, ErrMiss)
}
