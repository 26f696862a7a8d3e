package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func failing(context.Context) error { return errBoom }
func succeeding(context.Context) error { return nil }

func TestCircuitBreaker(t *testing.T) {
	ctx := context.Background()

	t.Run("opens after consecutive failures", func(t *testing.T) {
		cb := New("test", WithFailureThreshold(3))

		for i := 0; i < 3; i++ {
			require.ErrorIs(t, cb.Execute(ctx, failing), errBoom)
		}

		assert.Equal(t, StateOpen, cb.State())
		assert.ErrorIs(t, cb.Execute(ctx, succeeding), ErrCircuitOpen)
	})

	t.Run("success resets the failure streak", func(t *testing.T) {
		cb := New("test", WithFailureThreshold(3))

		_ = cb.Execute(ctx, failing)
		_ = cb.Execute(ctx, failing)
		require.NoError(t, cb.Execute(ctx, succeeding))
		_ = cb.Execute(ctx, failing)
		_ = cb.Execute(ctx, failing)

		assert.Equal(t, StateClosed, cb.State())
	})

	t.Run("recovers through half-open probing", func(t *testing.T) {
		cb := New("test",
			WithFailureThreshold(1),
			WithSuccessThreshold(1),
			WithTimeout(time.Millisecond),
		)

		require.ErrorIs(t, cb.Execute(ctx, failing), errBoom)
		require.Equal(t, StateOpen, cb.State())

		time.Sleep(5 * time.Millisecond)

		require.NoError(t, cb.Execute(ctx, succeeding))
		assert.Equal(t, StateClosed, cb.State())
	})

	t.Run("failed probe reopens the circuit", func(t *testing.T) {
		cb := New("test",
			WithFailureThreshold(1),
			WithTimeout(time.Millisecond),
		)

		require.ErrorIs(t, cb.Execute(ctx, failing), errBoom)
		time.Sleep(5 * time.Millisecond)

		require.ErrorIs(t, cb.Execute(ctx, failing), errBoom)
		assert.Equal(t, StateOpen, cb.State())
	})

	t.Run("fallback handles rejections only", func(t *testing.T) {
		cb := New("test", WithFailureThreshold(1))
		fallbackCalled := false
		fallback := func(error) error {
			fallbackCalled = true
			return nil
		}

		// A plain failure passes through without the fallback.
		require.ErrorIs(t, cb.ExecuteWithFallback(ctx, failing, fallback), errBoom)
		assert.False(t, fallbackCalled)

		// A rejection while open invokes it.
		require.NoError(t, cb.ExecuteWithFallback(ctx, succeeding, fallback))
		assert.True(t, fallbackCalled)
	})

	t.Run("IsFailure filters expected errors", func(t *testing.T) {
		cb := New("test",
			WithFailureThreshold(1),
			WithIsFailure(func(err error) bool { return !errors.Is(err, errBoom) }),
		)

		require.ErrorIs(t, cb.Execute(ctx, failing), errBoom)
		assert.Equal(t, StateClosed, cb.State())
	})

	t.Run("state change callback fires", func(t *testing.T) {
		var transitions []string
		cb := New("test",
			WithFailureThreshold(1),
			WithOnStateChange(func(name string, from, to State) {
				transitions = append(transitions, from.String()+">"+to.String())
			}),
		)

		_ = cb.Execute(ctx, failing)
		require.Equal(t, []string{"closed>open"}, transitions)
	})

	t.Run("reset closes the circuit", func(t *testing.T) {
		cb := New("test", WithFailureThreshold(1))
		_ = cb.Execute(ctx, failing)
		require.True(t, cb.IsOpen())

		cb.Reset()
		assert.Equal(t, StateClosed, cb.State())
		assert.Zero(t, cb.Counts().Requests)
	})
}
