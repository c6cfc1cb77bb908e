package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) Load(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockStore) Append(ctx context.Context, url string) error {
	args := m.Called(ctx, url)
	return args.Error(0)
}

func (m *MockStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

func TestMarkSeenIsIdempotent(t *testing.T) {
	l := New(nil, zap.NewNop())
	ctx := context.Background()

	assert.False(t, l.HasSeen("/a"))
	for range 3 {
		l.MarkSeen(ctx, "/a")
	}
	assert.True(t, l.HasSeen("/a"))
	assert.Equal(t, 1, l.Len())
	assert.False(t, l.HasSeen("/b"))
}

func TestMarkSeenAppendsOnceToStore(t *testing.T) {
	store := new(MockStore)
	store.On("Append", mock.Anything, "/a").Return(nil).Once()

	l := New(store, zap.NewNop())
	l.MarkSeen(context.Background(), "/a")
	l.MarkSeen(context.Background(), "/a")

	store.AssertExpectations(t)
	store.AssertNumberOfCalls(t, "Append", 1)
}

func TestStoreFailureKeepsURLSeen(t *testing.T) {
	store := new(MockStore)
	store.On("Append", mock.Anything, "/a").Return(errors.New("disk full"))

	l := New(store, zap.NewNop())
	l.MarkSeen(context.Background(), "/a")

	assert.True(t, l.HasSeen("/a"))
}

func TestLoadRestoresSet(t *testing.T) {
	store := new(MockStore)
	store.On("Load", mock.Anything).Return([]string{"/a", "/b", "/a", ""}, nil)
	store.On("Close").Return(nil)

	l := New(store, zap.NewNop())
	require.NoError(t, l.Load(context.Background()))

	assert.True(t, l.HasSeen("/a"))
	assert.True(t, l.HasSeen("/b"))
	assert.Equal(t, 2, l.Len())

	require.NoError(t, l.Load(context.Background()))
	assert.Equal(t, 2, l.Len())
	require.NoError(t, l.Close())
}

func TestLoadError(t *testing.T) {
	store := new(MockStore)
	store.On("Load", mock.Anything).Return(nil, errors.New("connection refused"))

	l := New(store, zap.NewNop())
	assert.Error(t, l.Load(context.Background()))
}

func TestConcurrentMarkSeen(t *testing.T) {
	l := New(nil, nil)
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.MarkSeen(context.Background(), "/same")
		}()
	}
	wg.Wait()
	assert.True(t, l.HasSeen("/same"))
	assert.Equal(t, 1, l.Len())
}
