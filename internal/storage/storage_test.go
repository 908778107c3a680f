package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/shopstate/pkg/logger"
)

// ---------------------------------------------------------------------------
// Mocks
// ---------------------------------------------------------------------------

type mockBackend struct {
	mock.Mock
}

func (m *mockBackend) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *mockBackend) Set(ctx context.Context, key, value string) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *mockBackend) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

type fixedScope string

func (s fixedScope) CurrentScope(context.Context) string { return string(s) }

var errDown = errors.New("connection refused")

// ---------------------------------------------------------------------------
// Adapter
// ---------------------------------------------------------------------------

func TestAdapter_ScopesKeys(t *testing.T) {
	b := new(mockBackend)
	b.On("Set", mock.Anything, "cart::user-1", "{}").Return(nil)
	b.On("Get", mock.Anything, "cart::user-1").Return("{}", nil)
	b.On("Delete", mock.Anything, "cart::user-1").Return(nil)

	a := NewAdapter(b, fixedScope("user-1"), WithLogger(logger.Discard()))
	ctx := context.Background()

	a.Set(ctx, "cart", "{}")
	v, ok := a.Get(ctx, "cart")
	assert.True(t, ok)
	assert.Equal(t, "{}", v)
	a.Remove(ctx, "cart")

	b.AssertExpectations(t)
}

func TestAdapter_GetMissingIsAbsentWithoutFailure(t *testing.T) {
	b := new(mockBackend)
	b.On("Get", mock.Anything, "cart::anon").Return("", ErrNotFound)

	before := testutil.ToFloat64(storageFailuresTotal.WithLabelValues("get"))
	a := NewAdapter(b, fixedScope("anon"), WithLogger(logger.Discard()))

	_, ok := a.Get(context.Background(), "cart")
	assert.False(t, ok)
	assert.Equal(t, before, testutil.ToFloat64(storageFailuresTotal.WithLabelValues("get")))
}

func TestAdapter_AbsorbsFailures(t *testing.T) {
	b := new(mockBackend)
	b.On("Get", mock.Anything, mock.Anything).Return("", errDown)
	b.On("Set", mock.Anything, mock.Anything, mock.Anything).Return(errDown)
	b.On("Delete", mock.Anything, mock.Anything).Return(errDown)

	getBefore := testutil.ToFloat64(storageFailuresTotal.WithLabelValues("get"))
	setBefore := testutil.ToFloat64(storageFailuresTotal.WithLabelValues("set"))
	removeBefore := testutil.ToFloat64(storageFailuresTotal.WithLabelValues("remove"))

	a := NewAdapter(b, fixedScope("anon"), WithLogger(logger.Discard()))
	ctx := context.Background()

	_, ok := a.Get(ctx, "cart")
	assert.False(t, ok)
	assert.NotPanics(t, func() { a.Set(ctx, "cart", "x") })
	assert.NotPanics(t, func() { a.Remove(ctx, "cart") })

	assert.Equal(t, getBefore+1, testutil.ToFloat64(storageFailuresTotal.WithLabelValues("get")))
	assert.Equal(t, setBefore+1, testutil.ToFloat64(storageFailuresTotal.WithLabelValues("set")))
	assert.Equal(t, removeBefore+1, testutil.ToFloat64(storageFailuresTotal.WithLabelValues("remove")))
}

func TestAdapter_AppliesTimeout(t *testing.T) {
	b := new(mockBackend)
	b.On("Get", mock.Anything, "cart::anon").Return("", nil).Run(func(args mock.Arguments) {
		ctx := args.Get(0).(context.Context)
		deadline, ok := ctx.Deadline()
		require.True(t, ok)
		assert.WithinDuration(t, time.Now().Add(50*time.Millisecond), deadline, 50*time.Millisecond)
	})

	a := NewAdapter(b, fixedScope("anon"), WithTimeout(50*time.Millisecond), WithLogger(logger.Discard()))
	a.Get(context.Background(), "cart")
	b.AssertExpectations(t)
}

// ---------------------------------------------------------------------------
// Prefix
// ---------------------------------------------------------------------------

func TestWithPrefix(t *testing.T) {
	b := new(mockBackend)
	b.On("Set", mock.Anything, "device:d1:k", "v").Return(nil)
	b.On("Get", mock.Anything, "device:d1:k").Return("v", nil)
	b.On("Delete", mock.Anything, "device:d1:k").Return(nil)

	p := WithPrefix(b, DevicePrefix(" d1 "))
	ctx := context.Background()
	require.NoError(t, p.Set(ctx, "k", "v"))
	v, err := p.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)
	require.NoError(t, p.Delete(ctx, "k"))
	assert.NoError(t, Ping(ctx, p))

	b.AssertExpectations(t)
}

// ---------------------------------------------------------------------------
// Breaker
// ---------------------------------------------------------------------------

func TestBreaker_OpensAfterFailures(t *testing.T) {
	b := new(mockBackend)
	b.On("Set", mock.Anything, mock.Anything, mock.Anything).Return(errDown)

	cfg := DefaultBreakerConfig("test-open")
	cfg.MinRequests = 2
	br := NewBreaker(b, cfg, logger.Discard())
	ctx := context.Background()

	assert.ErrorIs(t, br.Set(ctx, "k", "v"), errDown)
	assert.ErrorIs(t, br.Set(ctx, "k", "v"), errDown)
	assert.Equal(t, gobreaker.StateOpen, br.State())

	assert.ErrorIs(t, br.Set(ctx, "k", "v"), ErrCircuitOpen)
	b.AssertNumberOfCalls(t, "Set", 2)
}

func TestBreaker_NotFoundDoesNotTrip(t *testing.T) {
	b := new(mockBackend)
	b.On("Get", mock.Anything, mock.Anything).Return("", ErrNotFound)

	cfg := DefaultBreakerConfig("test-notfound")
	cfg.MinRequests = 1
	br := NewBreaker(b, cfg, logger.Discard())

	for i := 0; i < 5; i++ {
		_, err := br.Get(context.Background(), "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	}
	assert.Equal(t, gobreaker.StateClosed, br.State())
}

func TestBreaker_PassesThroughValues(t *testing.T) {
	b := new(mockBackend)
	b.On("Get", mock.Anything, "k").Return("v", nil)
	b.On("Delete", mock.Anything, "k").Return(nil)

	br := NewBreaker(b, DefaultBreakerConfig("test-pass"), logger.Discard())
	v, err := br.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)
	assert.NoError(t, br.Delete(context.Background(), "k"))
}
