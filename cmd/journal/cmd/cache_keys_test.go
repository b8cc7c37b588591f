package cmd

import (
	"path/filepath"
	"testing"

	"trade-journal-go/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSnapshotKeysAreScopedToUser(t *testing.T) {
	sessions = session.NewFileStore(filepath.Join(t.TempDir(), "session.json"), zap.NewNop())
	require.NoError(t, sessions.Set(&session.Session{ID: 7, Username: "alice", AccessToken: "tok"}))

	t.Run("AccountsKeyIsTheUserID", func(t *testing.T) {
		key, ok := userCacheKey()
		require.True(t, ok)
		assert.Equal(t, "7", key)
	})

	t.Run("TradesKeyCarriesTheUserID", func(t *testing.T) {
		key, ok := tradesCacheKey("all")
		require.True(t, ok)
		assert.Equal(t, "7/all", key)

		key, ok = tradesCacheKey("3")
		require.True(t, ok)
		assert.Equal(t, "7/3", key)
	})

	t.Run("NoKeysWithoutASession", func(t *testing.T) {
		// A cleared session, whether by logout or a failed refresh, must
		// leave the next login unable to address the previous user's rows.
		require.NoError(t, sessions.Clear())

		_, ok := userCacheKey()
		assert.False(t, ok)
		_, ok = tradesCacheKey("all")
		assert.False(t, ok)
	})
}
