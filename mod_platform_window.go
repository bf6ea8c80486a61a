package depthcloud

import (
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"
)

// WindowState owns the GLFW window. Callbacks fire inside glfw.PollEvents
// on the main thread and buffer their events until the input system drains
// them.
type WindowState struct {
	windowGlfw   *glfw.Window
	WindowWidth  int
	WindowHeight int
	windowTitle  string
	shownTitle   string

	scrollY float64
	dropped []string
	resized bool
}

func createWindowState(windowWidth int, windowHeight int, windowTitle string) *WindowState {
	runtime.LockOSThread()
	if err := glfw.Init(); err != nil {
		panic(err)
	}

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI) // Important: tell GLFW we don't want OpenGL
	glfw.WindowHint(glfw.Resizable, glfw.True)

	win, err := glfw.CreateWindow(windowWidth, windowHeight, windowTitle, nil, nil)
	if err != nil {
		panic(err)
	}

	s := &WindowState{
		windowGlfw:   win,
		WindowWidth:  windowWidth,
		WindowHeight: windowHeight,
		windowTitle:  windowTitle,
		shownTitle:   windowTitle,
	}
	win.SetScrollCallback(func(w *glfw.Window, xoff, yoff float64) {
		s.scrollY += yoff
	})
	win.SetDropCallback(func(w *glfw.Window, names []string) {
		s.dropped = append(s.dropped, names...)
	})
	win.SetFramebufferSizeCallback(func(w *glfw.Window, width, height int) {
		s.resized = true
	})
	return s
}

// Title is the base title the window was created with.
func (s *WindowState) Title() string {
	return s.windowTitle
}

// SetTitle shows title, skipping the platform call when it is unchanged.
func (s *WindowState) SetTitle(title string) {
	if title == s.shownTitle {
		return
	}
	s.shownTitle = title
	if s.windowGlfw != nil {
		s.windowGlfw.SetTitle(title)
	}
}

func (s *WindowState) ShouldClose() bool {
	return s.windowGlfw != nil && s.windowGlfw.ShouldClose()
}

// drainEvents returns and clears the buffered scroll and drop events.
func (s *WindowState) drainEvents() (scrollY float64, dropped []string, resized bool) {
	scrollY, dropped, resized = s.scrollY, s.dropped, s.resized
	s.scrollY, s.dropped, s.resized = 0, nil, false
	return
}

func (s *WindowState) destroy() {
	if s.windowGlfw != nil {
		s.windowGlfw.Destroy()
		s.windowGlfw = nil
	}
	glfw.Terminate()
}

// PlatformWindowModule ensures a single shared GLFW window (WindowState) is created
// and made available as a resource for the renderer and input modules.
// Install is idempotent: if a WindowState resource already exists, it is reused.
type PlatformWindowModule struct {
	Width  int
	Height int
	Title  string
}

// NewPlatformWindow creates a module that provides a shared WindowState resource.
// If Width/Height are zero, sensible defaults are used.
func NewPlatformWindow(width, height int, title string) *PlatformWindowModule {
	if width <= 0 {
		width = 1280
	}
	if height <= 0 {
		height = 720
	}
	if title == "" {
		title = "depthcloud"
	}
	return &PlatformWindowModule{
		Width:  width,
		Height: height,
		Title:  title,
	}
}

func (m PlatformWindowModule) Install(app *App, cmd *Commands) {
	if _, ok := Resource[WindowState](app); ok {
		return
	}

	ws := createWindowState(m.Width, m.Height, m.Title)
	app.addResources(ws)
	cmd.OnExit(ws.destroy)
	app.UseSystem(
		System(windowCloseSystem).
			InStage(Finale),
	)
}

func windowCloseSystem(s *WindowState, input *Input, cmd *Commands) {
	if s.ShouldClose() || input.JustPressed[KeyEscape] {
		cmd.Exit()
	}
}
