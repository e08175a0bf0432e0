package browser

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T, now func() time.Time) *Registry {
	t.Helper()
	r := NewRegistry(Options{
		Repository: testRepo,
		Searcher:   newFakeSearcher(),
		Renderer:   newFakeRenderer(),
		Now:        now,
	})
	t.Cleanup(r.CloseAll)
	return r
}

func TestRegistryGetOrCreate(t *testing.T) {
	r := newTestRegistry(t, nil)

	s, created := r.GetOrCreate("")
	require.True(t, created)
	require.NotEmpty(t, s.ID())
	assert.Equal(t, 1, r.Len())

	again, created := r.GetOrCreate(s.ID())
	assert.False(t, created)
	assert.Same(t, s, again)

	got, ok := r.Get(s.ID())
	assert.True(t, ok)
	assert.Same(t, s, got)

	assert.Equal(t, SearchIdle, s.Snapshot().Search.Status, "sessions are created idle")
	s.Start()
	s.Start()
	st := waitFor(t, s, fulfilled)
	assert.EqualValues(t, 1, st.Search.Seq, "a second Start issues no search")
}

func TestRegistryKeepsUnknownIDs(t *testing.T) {
	r := newTestRegistry(t, nil)

	s, created := r.GetOrCreate("cookie-id")
	require.True(t, created)
	assert.Equal(t, "cookie-id", s.ID())
}

func TestRegistrySweepRemovesIdleSessions(t *testing.T) {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	clock := base
	r := newTestRegistry(t, func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return clock
	})

	old, _ := r.GetOrCreate("old")
	mu.Lock()
	clock = base.Add(20 * time.Minute)
	mu.Unlock()
	fresh, _ := r.GetOrCreate("fresh")

	removed := r.Sweep(base.Add(31*time.Minute), 30*time.Minute)
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, r.Len())

	_, ok := r.Get("old")
	assert.False(t, ok)
	_, ok = r.Get("fresh")
	assert.True(t, ok)

	_, err := old.Wait(t.Context(), old.Snapshot().Version+100)
	assert.ErrorIs(t, err, ErrSessionClosed)
	assert.Equal(t, "fresh", fresh.ID())
}

func TestRegistryRemove(t *testing.T) {
	r := newTestRegistry(t, nil)
	r.GetOrCreate("a")

	assert.True(t, r.Remove("a"))
	assert.False(t, r.Remove("a"))
	assert.Equal(t, 0, r.Len())
}
