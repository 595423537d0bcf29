package action_test

import (
	"errors"
	"testing"
	"time"

	"github.com/chartrunner/chartrunner/pkg/action"
	"github.com/chartrunner/chartrunner/pkg/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetrySucceedsEventually(t *testing.T) {
	ctx := value.NewContext()
	evt := value.NewEvent("Tick")
	attempts := 0
	var slept []time.Duration

	inner := action.NewFunc("flaky", func(*value.Context, *value.Event) error {
		attempts++
		if attempts < 3 {
			return errors.New("nope")
		}
		return nil
	})
	r := action.NewRetry("retry-flaky", inner, 5, 10*time.Millisecond, action.FixedBackoff)
	r.Sleep = func(d time.Duration) { slept = append(slept, d) }

	require.NoError(t, r.Run(&ctx, &evt))
	assert.Equal(t, 3, attempts)
	assert.Len(t, slept, 2)
	assert.Equal(t, 10*time.Millisecond, slept[0])
}

func TestRetryExhaustsAttempts(t *testing.T) {
	ctx := value.NewContext()
	evt := value.NewEvent("Tick")
	inner := action.NewFunc("always-fails", func(*value.Context, *value.Event) error {
		return errors.New("nope")
	})
	r := action.NewRetry("retry-dead", inner, 3, time.Millisecond, action.ExponentialBackoff)
	r.Sleep = func(time.Duration) {}
	require.Error(t, r.Run(&ctx, &evt))
}

func TestRetryExponentialBackoffDoubles(t *testing.T) {
	ctx := value.NewContext()
	evt := value.NewEvent("Tick")
	var slept []time.Duration
	inner := action.NewFunc("always-fails", func(*value.Context, *value.Event) error {
		return errors.New("nope")
	})
	r := action.NewRetry("retry-exp", inner, 4, time.Millisecond, action.ExponentialBackoff)
	r.Sleep = func(d time.Duration) { slept = append(slept, d) }
	_ = r.Run(&ctx, &evt)
	require.Len(t, slept, 3)
	assert.Equal(t, time.Millisecond, slept[0])
	assert.Equal(t, 2*time.Millisecond, slept[1])
	assert.Equal(t, 4*time.Millisecond, slept[2])
}
