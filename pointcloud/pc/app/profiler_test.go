package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProfilerScopes(t *testing.T) {
	p := NewProfiler()
	clock := time.Unix(0, 0)
	p.now = func() time.Time { return clock }

	p.BeginScope("Simulate")
	clock = clock.Add(1500 * time.Microsecond)
	p.EndScope("Simulate")

	p.BeginScope("Render")
	clock = clock.Add(250 * time.Microsecond)
	p.EndScope("Render")

	// Re-entering a scope keeps its position.
	p.BeginScope("Simulate")
	clock = clock.Add(2 * time.Millisecond)
	p.EndScope("Simulate")

	assert.Equal(t, []string{"Simulate", "Render"}, p.Order)
	assert.Equal(t, 2*time.Millisecond, p.Scopes["Simulate"])
	assert.Equal(t, 250*time.Microsecond, p.Scopes["Render"])

	p.SetCount("Particles", 65536)
	stats := p.GetStatsString()
	assert.Contains(t, stats, "Simulate       : 2.00 ms")
	assert.Contains(t, stats, "Render         : 0.25 ms")
	assert.Contains(t, stats, "Particles      : 65536")

	p.Reset()
	assert.Equal(t, time.Duration(0), p.Scopes["Render"])
}

func TestProfilerEndWithoutBegin(t *testing.T) {
	p := NewProfiler()
	p.EndScope("missing")
	assert.Empty(t, p.Scopes)
}
