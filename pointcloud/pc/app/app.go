package app

import (
	"fmt"
	"image"
	"time"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/gekko3d/depthcloud/pointcloud/pc/core"
	"github.com/gekko3d/depthcloud/pointcloud/pc/gpu"
	"github.com/go-gl/glfw/v3.3/glfw"
)

type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// App owns the WebGPU device and surface of one window and drives the
// particle FBO on it.
type App struct {
	Window   *glfw.Window
	Instance *wgpu.Instance
	Adapter  *wgpu.Adapter
	Device   *wgpu.Device
	Queue    *wgpu.Queue
	Surface  *wgpu.Surface
	Config   *wgpu.SurfaceConfiguration

	FBO      *gpu.FBO
	Profiler *Profiler
	Logger   Logger

	DebugMode bool

	FrameCount int
	FPS        float64
	FPSTime    float64
	lastRender time.Time
	lastStats  time.Time
}

func NewApp(window *glfw.Window, logger Logger) *App {
	return &App{
		Window:   window,
		Logger:   logger,
		Profiler: NewProfiler(),
	}
}

// Init creates the device, configures the surface and uploads the initial
// particle state.
func (a *App) Init(tex *core.PositionTexture, opts gpu.Options, now time.Time) error {
	a.Instance = wgpu.CreateInstance(nil)
	a.Surface = a.Instance.CreateSurface(wgpuglfw.GetSurfaceDescriptor(a.Window))

	adapter, err := a.Instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: a.Surface,
		PowerPreference:   wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		return fmt.Errorf("request adapter: %w", err)
	}
	a.Adapter = adapter

	a.Device, err = adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Point Cloud Device",
	})
	if err != nil {
		return fmt.Errorf("request device: %w", err)
	}
	a.Queue = a.Device.GetQueue()

	width, height := a.Window.GetFramebufferSize()
	caps := a.Surface.GetCapabilities(adapter)
	if len(caps.Formats) == 0 || len(caps.AlphaModes) == 0 {
		return fmt.Errorf("surface reports no formats")
	}
	a.Config = &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      caps.Formats[0],
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: wgpu.PresentModeFifo,
		AlphaMode:   caps.AlphaModes[0],
	}
	a.Surface.Configure(adapter, a.Device, a.Config)

	a.FBO, err = gpu.NewFBO(a.Device, a.Config.Format, tex, opts, a.Logger, now)
	if err != nil {
		return fmt.Errorf("create particle fbo: %w", err)
	}
	a.Logger.Infof("renderer ready: %dx%d surface %v, %dx%d particles, motion %v",
		width, height, a.Config.Format, tex.Width, tex.Height, opts.Motion)
	return nil
}

func (a *App) Resize(w, h int) {
	if w > 0 && h > 0 {
		a.Config.Width = uint32(w)
		a.Config.Height = uint32(h)
		a.Surface.Configure(a.Adapter, a.Device, a.Config)
	}
}

// Size is the current drawable size in pixels.
func (a *App) Size() (int, int) {
	if a.Config == nil {
		return 0, 0
	}
	return int(a.Config.Width), int(a.Config.Height)
}

// Step advances the particle simulation by one pass. A failed pass is
// logged and the previous state stays current.
func (a *App) Step(in core.InputState, now time.Time) {
	a.Profiler.BeginScope("Simulate")
	defer a.Profiler.EndScope("Simulate")
	if err := a.FBO.Step(in, now); err != nil {
		a.Logger.Errorf("simulate: %v, frame skipped", err)
	}
}

// Render draws the current particle state to the window and presents it.
func (a *App) Render(in core.InputState) {
	a.Profiler.BeginScope("Render")
	defer a.Profiler.EndScope("Render")

	nextTexture, err := a.Surface.GetCurrentTexture()
	if err != nil {
		a.Logger.Errorf("GetCurrentTexture failed: %v", err)
		return
	}
	defer nextTexture.Release()

	view, err := nextTexture.CreateView(nil)
	if err != nil {
		a.Logger.Errorf("CreateView failed: %v", err)
		return
	}
	defer view.Release()

	encoder, err := a.Device.CreateCommandEncoder(nil)
	if err != nil {
		a.Logger.Errorf("CreateCommandEncoder failed: %v", err)
		return
	}
	defer encoder.Release()
	if err := a.FBO.Render(encoder, view, a.Config.Width, a.Config.Height, in); err != nil {
		a.Logger.Errorf("render: %v", err)
		return
	}
	cmd, err := encoder.Finish(nil)
	if err != nil {
		a.Logger.Errorf("Encoder Finish failed: %v", err)
		return
	}
	a.Queue.Submit(cmd)
	a.Surface.Present()

	a.tickFPS(time.Now())
}

func (a *App) tickFPS(now time.Time) {
	if !a.lastRender.IsZero() {
		a.FrameCount++
		a.FPSTime += now.Sub(a.lastRender).Seconds()
		if a.FPSTime >= 1.0 {
			a.FPS = float64(a.FrameCount) / a.FPSTime
			a.FrameCount = 0
			a.FPSTime = 0
		}
	}
	a.lastRender = now

	if a.DebugMode && now.Sub(a.lastStats) >= 5*time.Second {
		w, h := a.FBO.Particles()
		a.Profiler.SetCount("Particles", int(w*h))
		a.Profiler.SetCount("Swaps", int(a.FBO.Swaps()))
		a.Logger.Debugf("FPS %.1f\n%s", a.FPS, a.Profiler.GetStatsString())
		a.lastStats = now
	}
}

// ReplaceSource installs depth-derived particles from load generation gen.
func (a *App) ReplaceSource(tex *core.PositionTexture, gen uint64, now time.Time) error {
	return a.FBO.ReplaceSource(tex, gen, now)
}

// Capture renders the current state offscreen at window size.
func (a *App) Capture(in core.InputState) (*image.RGBA, error) {
	return a.FBO.Capture(a.Config.Width, a.Config.Height, in)
}

func (a *App) Release() {
	if a.FBO != nil {
		a.FBO.Release()
		a.FBO = nil
	}
	if a.Surface != nil {
		a.Surface.Release()
	}
	if a.Device != nil {
		a.Device.Release()
	}
	if a.Adapter != nil {
		a.Adapter.Release()
	}
	if a.Instance != nil {
		a.Instance.Release()
	}
}
