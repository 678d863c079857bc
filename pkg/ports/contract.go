package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/waypoint/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunStateStoreContract runs a suite of tests verifying that a StateStore
// behaves the way the engine expects.
func RunStateStoreContract(t *testing.T, store StateStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	newSession := func(id string) *domain.Session {
		return domain.NewSession(id, "prompt", domain.NewState(map[string]any{
			"foo":   "bar",
			"count": 42,
			"safe":  true,
		}))
	}

	t.Run("Save and Load", func(t *testing.T) {
		session := newSession(sessionID)
		session.History = append(session.History, "check_safety")
		session.Node = "check_safety"
		session.Turn = 3

		require.NoError(t, store.Save(ctx, session), "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, sessionID, loaded.ID)
		assert.Equal(t, "check_safety", loaded.Node)
		assert.Equal(t, []string{"prompt", "check_safety"}, loaded.History)
		assert.Equal(t, 3, loaded.Turn)

		foo, _ := loaded.State.String("foo")
		assert.Equal(t, "bar", foo)
		safe, ok := loaded.State.Bool("safe")
		assert.True(t, ok && safe)
		// JSON backed stores turn numbers into float64, so only presence is checked.
		assert.True(t, loaded.State.Has("count"))
	})

	t.Run("Load returns a copy", func(t *testing.T) {
		first, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		first.History[0] = "mutated"
		first.Node = "mutated"

		second, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, "check_safety", second.Node)
		assert.Equal(t, "prompt", second.History[0])
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, newSession(sessionID)))

		require.NoError(t, store.Delete(ctx, sessionID), "Delete should not return error")

		_, err := store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")

		assert.NoError(t, store.Delete(ctx, sessionID), "deleting twice is not an error")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		require.NoError(t, store.Save(ctx, newSession(id1)))
		require.NoError(t, store.Save(ctx, newSession(id2)))
		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
		assert.NotContains(t, sessions, sessionID)
	})
}
