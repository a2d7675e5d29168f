package session

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCooldowns_ArmAndExpire(t *testing.T) {
	now := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	c := NewCooldowns(NewMemStore(), func() time.Time { return now })
	jobID := uuid.New()

	assert.False(t, c.Active(jobID))
	assert.Zero(t, c.Remaining(jobID))

	require.NoError(t, c.Arm(jobID))
	assert.True(t, c.Active(jobID))
	assert.Equal(t, CooldownDuration, c.Remaining(jobID))

	// One second shy of the deadline: still cooling down.
	now = now.Add(CooldownDuration - time.Second)
	assert.True(t, c.Active(jobID))
	assert.Equal(t, time.Second, c.Remaining(jobID))

	// At the deadline the cooldown is gone.
	now = now.Add(time.Second)
	assert.False(t, c.Active(jobID))
	assert.Zero(t, c.Remaining(jobID))
}

func TestCooldowns_SurviveRestart(t *testing.T) {
	now := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	path := filepath.Join(t.TempDir(), "state.json")
	store, err := NewFileStore(path)
	require.NoError(t, err)

	jobID := uuid.New()
	c := NewCooldowns(store, func() time.Time { return now })
	require.NoError(t, c.Arm(jobID))

	// A new store and tracker over the same file, ten minutes later: the
	// deadline neither resets nor extends.
	now = now.Add(10 * time.Minute)
	store2, err := NewFileStore(path)
	require.NoError(t, err)
	c2 := NewCooldowns(store2, func() time.Time { return now })
	assert.True(t, c2.Active(jobID))
	assert.Equal(t, 20*time.Minute, c2.Remaining(jobID))
}

func TestCooldowns_IndependentPerJob(t *testing.T) {
	now := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	c := NewCooldowns(NewMemStore(), func() time.Time { return now })
	a, b := uuid.New(), uuid.New()

	require.NoError(t, c.Arm(a))
	assert.True(t, c.Active(a))
	assert.False(t, c.Active(b))

	require.NoError(t, c.Clear(a))
	assert.False(t, c.Active(a))
}

func TestCooldowns_CorruptEntryStartsEmpty(t *testing.T) {
	store := NewMemStore()
	require.NoError(t, store.Set(KeyJobCooldowns, "not json"))
	c := NewCooldowns(store, nil)
	assert.False(t, c.Active(uuid.New()))
}

func TestCooldowns_PruneOnWrite(t *testing.T) {
	now := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	store := NewMemStore()
	c := NewCooldowns(store, func() time.Time { return now })

	expired := uuid.New()
	require.NoError(t, c.Arm(expired))
	now = now.Add(CooldownDuration + time.Minute)

	fresh := uuid.New()
	require.NoError(t, c.Arm(fresh))

	raw, ok := store.Get(KeyJobCooldowns)
	require.True(t, ok)
	assert.NotContains(t, raw, expired.String())
	assert.Contains(t, raw, fresh.String())
}
