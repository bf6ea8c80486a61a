package depthcloud

import (
	"time"
)

// Time is the frame clock. Time is sampled once per frame so every system
// of a frame sees the same instant.
type Time struct {
	Start time.Time
	Time  time.Time
	Dt    time.Duration
	now   func() time.Time
}

// Elapsed is the time since the App started.
func (t *Time) Elapsed() time.Duration {
	return t.Time.Sub(t.Start)
}

type TimeModule struct {
	// Now overrides the wall clock, for tests.
	Now func() time.Time
}

func (mod TimeModule) Install(app *App, cmd *Commands) {
	now := mod.Now
	if now == nil {
		now = time.Now
	}
	start := now()
	cmd.AddResources(&Time{
		Start: start,
		Time:  start,
		now:   now,
	})
	app.UseSystem(
		System(timeSystem).
			InStage(Prelude),
	)
}

func timeSystem(timeResource *Time) {
	now := timeResource.now()

	timeResource.Dt = now.Sub(timeResource.Time)
	timeResource.Time = now
}
