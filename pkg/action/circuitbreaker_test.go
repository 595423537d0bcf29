package action_test

import (
	"errors"
	"testing"
	"time"

	"github.com/chartrunner/chartrunner/pkg/action"
	"github.com/chartrunner/chartrunner/pkg/clock"
	"github.com/chartrunner/chartrunner/pkg/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCircuitBreakerOpensAfterThreshold(t *testing.T) {
	ctx := value.NewContext()
	evt := value.NewEvent("Tick")
	mc := clock.NewManual(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	registry := action.NewRegistry()

	cb := action.NewCircuitBreaker("cb", failing("downstream"), registry, "svc-a", 2, time.Minute, mc)

	require.Error(t, cb.Run(&ctx, &evt))
	assert.Equal(t, action.Closed, registry.State("svc-a"))
	require.Error(t, cb.Run(&ctx, &evt))
	assert.Equal(t, action.Open, registry.State("svc-a"))

	err := cb.Run(&ctx, &evt)
	require.Error(t, err)
}

func TestCircuitBreakerRecoversAfterResetWindow(t *testing.T) {
	ctx := value.NewContext()
	evt := value.NewEvent("Tick")
	mc := clock.NewManual(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	registry := action.NewRegistry()

	ok := true
	flaky := action.NewFunc("flaky", func(*value.Context, *value.Event) error {
		if ok {
			return nil
		}
		return errSentinel
	})
	cb := action.NewCircuitBreaker("cb", flaky, registry, "svc-b", 1, time.Minute, mc)
	ok = false
	require.Error(t, cb.Run(&ctx, &evt))
	assert.Equal(t, action.Open, registry.State("svc-b"))

	mc.Advance(61 * time.Second)
	ok = true
	require.NoError(t, cb.Run(&ctx, &evt))
	assert.Equal(t, action.Closed, registry.State("svc-b"))
}

func TestCircuitBreakerRunsFallbackWhileOpen(t *testing.T) {
	ctx := value.NewContext()
	evt := value.NewEvent("Tick")
	mc := clock.NewManual(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	registry := action.NewRegistry()

	ranFallback := false
	fallback := action.NewFunc("fallback", func(*value.Context, *value.Event) error {
		ranFallback = true
		return nil
	})
	cb := action.NewCircuitBreaker("cb", failing("downstream"), registry, "svc-c", 1, time.Minute, mc)
	cb.Fallback = fallback

	require.Error(t, cb.Run(&ctx, &evt))
	assert.Equal(t, action.Open, registry.State("svc-c"))

	require.NoError(t, cb.Run(&ctx, &evt))
	assert.True(t, ranFallback)
}

var errSentinel = errors.New("downstream unavailable")
