package taxonomy

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"issuebrowser/internal/models"
)

type fakeSource struct {
	labels []models.Label
	err    error
	calls  atomic.Int32
	block  chan struct{}
}

func (f *fakeSource) ListLabels(ctx context.Context) ([]models.Label, error) {
	f.calls.Add(1)
	if f.block != nil {
		<-f.block
	}
	return f.labels, f.err
}

func TestStore_LoadingBeforeLoad(t *testing.T) {
	s := NewStore(nil, nil)

	tax, status, err := s.Snapshot()
	assert.Equal(t, StatusLoading, status)
	assert.ErrorIs(t, err, ErrNotLoaded)
	assert.Equal(t, 0, tax.Len())
}

func TestStore_Load(t *testing.T) {
	s := NewStore([]string{"Priority"}, []string{"Internal"})
	src := &fakeSource{labels: labels("Type: Bug", "Priority: High", "Internal: Yes")}

	require.NoError(t, s.Load(context.Background(), src))

	tax, status, err := s.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, StatusLoaded, status)
	assert.Equal(t, []string{"Priority", "Type"}, tax.Categories())
	assert.False(t, s.LoadedAt().IsZero())
}

func TestStore_LoadFailureIsNonFatal(t *testing.T) {
	s := NewStore(nil, nil)
	boom := errors.New("boom")

	err := s.Load(context.Background(), &fakeSource{err: boom})
	require.ErrorIs(t, err, boom)

	tax, status, err := s.Snapshot()
	assert.Equal(t, StatusFailed, status)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, tax.Len())
}

func TestStore_ConcurrentLoadsShareOneFetch(t *testing.T) {
	s := NewStore(nil, nil)
	src := &fakeSource{labels: labels("Type: Bug"), block: make(chan struct{})}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = s.Load(context.Background(), src)
	}()
	require.Eventually(t, func() bool { return src.calls.Load() == 1 }, time.Second, time.Millisecond)

	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Load(context.Background(), src)
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(src.block)
	wg.Wait()

	assert.Equal(t, int32(1), src.calls.Load())
	assert.Equal(t, 1, s.Taxonomy().Len())
}
