package depthcloud

import (
	"github.com/go-gl/glfw/v3.3/glfw"
)

const (
	KeyP int = iota
	KeyR
	KeyEscape
	MouseButtonLeft
	MouseButtonRight
	MouseButtonMiddle
	buttonCount
)

var keyToGlfw = map[int]glfw.Key{
	KeyP:      glfw.KeyP,
	KeyR:      glfw.KeyR,
	KeyEscape: glfw.KeyEscape,
}

var mouseToGlfw = map[int]glfw.MouseButton{
	MouseButtonLeft:   glfw.MouseButtonLeft,
	MouseButtonRight:  glfw.MouseButtonRight,
	MouseButtonMiddle: glfw.MouseButtonMiddle,
}

type InputModule struct{}

// Input is the per-frame snapshot of the window's keys, mouse and drops.
type Input struct {
	Pressed [buttonCount]bool

	JustPressed  [buttonCount]bool
	JustReleased [buttonCount]bool

	MouseX, MouseY           float64
	MouseDeltaX, MouseDeltaY float64
	ScrollY                  float64

	// Dropped holds the paths dropped onto the window this frame.
	Dropped []string

	WindowWidth, WindowHeight           int
	FramebufferWidth, FramebufferHeight int
	Resized                             bool

	mouseSeen bool
}

func (mod InputModule) Install(app *App, cmd *Commands) {
	cmd.AddResources(&Input{})
	app.UseSystem(
		System(inputSystem).
			InStage(PreUpdate),
	)
}

func inputSystem(s *WindowState, input *Input) {
	glfw.PollEvents()

	for key, glfwKey := range keyToGlfw {
		input.setButton(key, s.windowGlfw.GetKey(glfwKey) == glfw.Press)
	}
	for btn, glfwBtn := range mouseToGlfw {
		input.setButton(btn, s.windowGlfw.GetMouseButton(glfwBtn) == glfw.Press)
	}

	input.moveMouse(s.windowGlfw.GetCursorPos())

	input.ScrollY, input.Dropped, input.Resized = s.drainEvents()

	input.WindowWidth, input.WindowHeight = s.windowGlfw.GetSize()
	input.FramebufferWidth, input.FramebufferHeight = s.windowGlfw.GetFramebufferSize()
	s.WindowWidth, s.WindowHeight = input.WindowWidth, input.WindowHeight
}

func (input *Input) setButton(btn int, down bool) {
	input.JustPressed[btn] = down && !input.Pressed[btn]
	input.JustReleased[btn] = !down && input.Pressed[btn]
	input.Pressed[btn] = down
}

// moveMouse records the cursor position. The first sample yields no delta.
func (input *Input) moveMouse(mx, my float64) {
	if input.mouseSeen {
		input.MouseDeltaX = mx - input.MouseX
		input.MouseDeltaY = my - input.MouseY
	} else {
		input.MouseDeltaX, input.MouseDeltaY = 0, 0
		input.mouseSeen = true
	}
	input.MouseX = mx
	input.MouseY = my
}
