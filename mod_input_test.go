package depthcloud

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInput_setButtonEdges(t *testing.T) {
	in := &Input{}

	in.setButton(KeyP, true)
	assert.True(t, in.Pressed[KeyP])
	assert.True(t, in.JustPressed[KeyP])

	in.setButton(KeyP, true)
	assert.True(t, in.Pressed[KeyP])
	assert.False(t, in.JustPressed[KeyP], "held key is not pressed again")

	in.setButton(KeyP, false)
	assert.False(t, in.Pressed[KeyP])
	assert.True(t, in.JustReleased[KeyP])

	in.setButton(KeyP, false)
	assert.False(t, in.JustReleased[KeyP])
}

func TestInput_moveMouseDelta(t *testing.T) {
	in := &Input{}
	in.moveMouse(100, 50)
	assert.Zero(t, in.MouseDeltaX, "first sample has no delta")
	assert.Zero(t, in.MouseDeltaY)

	in.moveMouse(110, 45)
	assert.Equal(t, 10.0, in.MouseDeltaX)
	assert.Equal(t, -5.0, in.MouseDeltaY)
	assert.Equal(t, 110.0, in.MouseX)

	in.moveMouse(110, 45)
	assert.Zero(t, in.MouseDeltaX)
}

func TestWindowState_drainEvents(t *testing.T) {
	s := &WindowState{}
	s.scrollY = 2
	s.dropped = []string{"a.png"}
	s.resized = true

	scroll, dropped, resized := s.drainEvents()
	assert.Equal(t, 2.0, scroll)
	assert.Equal(t, []string{"a.png"}, dropped)
	assert.True(t, resized)

	scroll, dropped, resized = s.drainEvents()
	assert.Zero(t, scroll)
	assert.Nil(t, dropped)
	assert.False(t, resized)
}

func TestWindowState_SetTitleWithoutWindow(t *testing.T) {
	s := &WindowState{windowTitle: "depthcloud", shownTitle: "depthcloud"}
	s.SetTitle("depthcloud (loading)")
	assert.Equal(t, "depthcloud (loading)", s.shownTitle)
	assert.Equal(t, "depthcloud", s.Title())
	assert.False(t, s.ShouldClose())
}
