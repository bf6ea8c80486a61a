package depthcloud

import (
	"fmt"
	"math/rand"

	"github.com/gekko3d/depthcloud/pointcloud/pc/app"
	"github.com/gekko3d/depthcloud/pointcloud/pc/config"
	"github.com/gekko3d/depthcloud/pointcloud/pc/core"
	"github.com/gekko3d/depthcloud/pointcloud/pc/gpu"
)

// PointCloudModule creates the particle renderer on the shared window and
// seeds it with a random sphere.
type PointCloudModule struct {
	Config config.Config
	Debug  bool
	// Seed fixes the initial sphere; zero picks one from the clock.
	Seed int64
}

// PointCloudState is the renderer resource. Input is rebuilt each frame
// before the simulation step and reused by render and capture.
type PointCloudState struct {
	RtApp  *app.App
	Input  core.InputState
	Config config.Config
}

func (m PointCloudModule) Install(a *App, cmd *Commands) {
	ensureSingleRenderer(a, "pointcloud")

	window, ok := Resource[WindowState](a)
	if !ok {
		NewPlatformWindow(m.Config.Window.Width, m.Config.Window.Height, m.Config.Window.Title).Install(a, cmd)
		window, _ = Resource[WindowState](a)
	}
	clock, ok := Resource[Time](a)
	if !ok {
		panic("PointCloudModule requires TimeModule")
	}

	opts, err := fboOptions(m.Config)
	if err != nil {
		panic(err)
	}

	seed := m.Seed
	if seed == 0 {
		seed = clock.Start.UnixNano()
	}
	tex, err := core.RandomSphere(m.Config.Particles.Width, m.Config.Particles.Height, m.Config.Radius, rand.New(rand.NewSource(seed)))
	if err != nil {
		panic(err)
	}

	logger := a.Logger()
	rt := app.NewApp(window.windowGlfw, logger)
	rt.DebugMode = m.Debug
	if err := rt.Init(tex, opts, clock.Time); err != nil {
		panic(fmt.Sprintf("pointcloud init: %v", err))
	}
	logger.Infof("pointcloud: %dx%d particles, motion %s, photo %v",
		tex.Width, tex.Height, opts.Motion, opts.Photo)

	cmd.AddResources(&PointCloudState{RtApp: rt, Config: m.Config})
	cmd.OnExit(rt.Release)

	a.UseSystem(
		System(pointCloudResizeSystem).
			InStage(PreUpdate),
	)
	a.UseSystem(
		System(pointCloudSimulateSystem).
			InStage(PostUpdate),
	)
	a.UseSystem(
		System(pointCloudRenderSystem).
			InStage(Render),
	)
}

// fboOptions maps a variant configuration to renderer options.
func fboOptions(cfg config.Config) (gpu.Options, error) {
	if err := cfg.Validate(); err != nil {
		return gpu.Options{}, err
	}
	motion, err := cfg.MotionKind()
	if err != nil {
		return gpu.Options{}, err
	}
	opts := gpu.Options{
		Motion:    motion,
		Photo:     cfg.Photo,
		PointSize: cfg.PointSize,
		Alpha:     cfg.Alpha,
		Radius:    cfg.Radius,
		Amplitude: cfg.Amplitude,
		Settle:    cfg.Settle,
	}
	return opts, opts.Validate()
}

// frameInput builds the simulation input from the window input and camera.
func frameInput(input *Input, cam *OrbitCamera) core.InputState {
	return core.InputState{
		Pointer:  core.PointerNDC(input.MouseX, input.MouseY, input.WindowWidth, input.WindowHeight),
		ViewProj: cam.ViewProj,
		Viewport: [2]float32{float32(input.FramebufferWidth), float32(input.FramebufferHeight)},
	}
}

func pointCloudResizeSystem(input *Input, state *PointCloudState) {
	w, h := state.RtApp.Size()
	if input.Resized || w != input.FramebufferWidth || h != input.FramebufferHeight {
		state.RtApp.Resize(input.FramebufferWidth, input.FramebufferHeight)
	}
}

func pointCloudSimulateSystem(input *Input, cam *OrbitCamera, t *Time, state *PointCloudState) {
	state.Input = frameInput(input, cam)
	state.RtApp.Step(state.Input, t.Time)
}

func pointCloudRenderSystem(input *Input, state *PointCloudState) {
	if input.FramebufferWidth <= 0 || input.FramebufferHeight <= 0 {
		return
	}
	state.RtApp.Render(state.Input)
}
