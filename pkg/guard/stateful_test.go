package guard_test

import (
	"testing"
	"time"

	"github.com/chartrunner/chartrunner/pkg/clock"
	"github.com/chartrunner/chartrunner/pkg/guard"
	"github.com/chartrunner/chartrunner/pkg/value"
	"github.com/stretchr/testify/assert"
)

func TestTimeGuard(t *testing.T) {
	mc := clock.NewManual(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	g := guard.NewTimeGuard(5*time.Second, mc)
	ctx := value.NewContext()
	evt := value.NewEvent("Tick")

	assert.False(t, g.Check(&ctx, &evt))
	mc.Advance(3 * time.Second)
	assert.False(t, g.Check(&ctx, &evt))
	mc.Advance(3 * time.Second)
	assert.True(t, g.Check(&ctx, &evt))

	g.Reset()
	assert.False(t, g.Check(&ctx, &evt))
}

func TestCounterGuard(t *testing.T) {
	g := guard.NewCounterGuard(3)
	ctx := value.NewContext()
	evt := value.NewEvent("Tick")

	assert.True(t, g.Check(&ctx, &evt))
	assert.True(t, g.Check(&ctx, &evt))
	assert.True(t, g.Check(&ctx, &evt))
	assert.False(t, g.Check(&ctx, &evt))
	assert.False(t, g.Check(&ctx, &evt))
	assert.Equal(t, 3, g.Count())

	g.Reset()
	assert.Equal(t, 0, g.Count())
	assert.True(t, g.Check(&ctx, &evt))
}

func TestRateLimitGuard(t *testing.T) {
	mc := clock.NewManual(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	g := guard.NewRateLimitGuard(2, time.Minute, mc)
	ctx := value.NewContext()
	evt := value.NewEvent("Tick")

	assert.True(t, g.Check(&ctx, &evt))
	assert.True(t, g.Check(&ctx, &evt))
	assert.False(t, g.Check(&ctx, &evt))

	mc.Advance(61 * time.Second)
	assert.True(t, g.Check(&ctx, &evt))
}

func TestCooldownGuard(t *testing.T) {
	mc := clock.NewManual(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	g := guard.NewCooldownGuard(10*time.Second, mc)
	ctx := value.NewContext()
	evt := value.NewEvent("Tick")

	assert.True(t, g.Check(&ctx, &evt))
	assert.False(t, g.Check(&ctx, &evt))
	mc.Advance(10 * time.Second)
	assert.True(t, g.Check(&ctx, &evt))
}
