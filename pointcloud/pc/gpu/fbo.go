package gpu

import (
	"fmt"
	"time"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/depthcloud/pointcloud/pc/core"
	"github.com/gekko3d/depthcloud/pointcloud/pc/shaders"
)

const DepthFormat = wgpu.TextureFormatDepth24Plus

type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// FBO owns the particle ping-pong targets and the two pipelines that use
// them: a fullscreen simulation pass that advances the particle state, and
// an instanced point pass that draws it.
type FBO struct {
	device      *wgpu.Device
	queue       *wgpu.Queue
	logger      Logger
	opts        Options
	colorFormat wgpu.TextureFormat

	layout       *wgpu.BindGroupLayout
	simPipeline  *wgpu.RenderPipeline
	drawPipeline *wgpu.RenderPipeline
	simParams    *wgpu.Buffer
	drawParams   *wgpu.Buffer

	targets    *PingPong[*Target]
	simGroups  map[*Target]*wgpu.BindGroup
	drawGroups map[*Target]*wgpu.BindGroup
	points     *wgpu.Buffer
	pointCount uint32

	depth     *wgpu.Texture
	depthView *wgpu.TextureView

	source core.Source
	clock  frameClock

	// installTargets is install outside of tests.
	installTargets func(tex *core.PositionTexture) error
}

// NewFBO builds the pipelines and uploads tex as the initial procedural
// particle state. colorFormat is the format Render draws into.
func NewFBO(device *wgpu.Device, colorFormat wgpu.TextureFormat, tex *core.PositionTexture, opts Options, logger Logger, now time.Time) (*FBO, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if err := tex.Validate(); err != nil {
		return nil, err
	}
	f := &FBO{
		device:      device,
		queue:       device.GetQueue(),
		logger:      logger,
		opts:        opts,
		colorFormat: colorFormat,
		source:      core.ProceduralSource(now),
		clock:       newFrameClock(now),
	}
	f.installTargets = f.install
	if err := f.createPipelines(); err != nil {
		f.Release()
		return nil, err
	}
	if err := f.install(tex); err != nil {
		f.Release()
		return nil, err
	}
	return f, nil
}

func (f *FBO) createPipelines() error {
	var err error
	f.layout, err = f.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "Particle BGL",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
				Texture: wgpu.TextureBindingLayout{
					SampleType:    wgpu.TextureSampleTypeUnfilterableFloat,
					ViewDimension: wgpu.TextureViewDimension2D,
				},
			},
			{
				Binding:    1,
				Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
				Buffer: wgpu.BufferBindingLayout{
					Type: wgpu.BufferBindingTypeUniform,
				},
			},
		},
	})
	if err != nil {
		return err
	}
	layout, err := f.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "Particle Pipeline Layout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{f.layout},
	})
	if err != nil {
		return err
	}

	simModule, err := f.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "Simulate VS/FS",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaders.SimulateWGSL},
	})
	if err != nil {
		return err
	}
	entry, err := simEntryPoint(f.opts.Motion)
	if err != nil {
		return err
	}
	f.simPipeline, err = f.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  "Simulate Pipeline",
		Layout: layout,
		Vertex: wgpu.VertexState{
			Module:     simModule,
			EntryPoint: "vs_main",
		},
		Fragment: &wgpu.FragmentState{
			Module:     simModule,
			EntryPoint: entry,
			Targets: []wgpu.ColorTargetState{{
				Format:    ParticleFormat,
				WriteMask: wgpu.ColorWriteMaskAll,
			}},
		},
		Primitive: wgpu.PrimitiveState{
			Topology: wgpu.PrimitiveTopologyTriangleList,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return err
	}

	pointsModule, err := f.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "Points VS/FS",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaders.PointsWGSL},
	})
	if err != nil {
		return err
	}
	target := wgpu.ColorTargetState{
		Format:    f.colorFormat,
		WriteMask: wgpu.ColorWriteMaskAll,
	}
	var depthStencil *wgpu.DepthStencilState
	if f.opts.Photo {
		keep := wgpu.StencilFaceState{
			Compare:     wgpu.CompareFunctionAlways,
			FailOp:      wgpu.StencilOperationKeep,
			DepthFailOp: wgpu.StencilOperationKeep,
			PassOp:      wgpu.StencilOperationKeep,
		}
		depthStencil = &wgpu.DepthStencilState{
			Format:            DepthFormat,
			DepthWriteEnabled: true,
			DepthCompare:      wgpu.CompareFunctionLess,
			StencilFront:      keep,
			StencilBack:       keep,
		}
	} else {
		// Additive glow.
		target.Blend = &wgpu.BlendState{
			Color: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorSrcAlpha,
				DstFactor: wgpu.BlendFactorOne,
				Operation: wgpu.BlendOperationAdd,
			},
			Alpha: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorOne,
				DstFactor: wgpu.BlendFactorOne,
				Operation: wgpu.BlendOperationAdd,
			},
		}
	}
	f.drawPipeline, err = f.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  "Points Pipeline",
		Layout: layout,
		Vertex: wgpu.VertexState{
			Module:     pointsModule,
			EntryPoint: "vs_main",
			Buffers: []wgpu.VertexBufferLayout{{
				ArrayStride: 8,
				StepMode:    wgpu.VertexStepModeInstance,
				Attributes: []wgpu.VertexAttribute{
					{Format: wgpu.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},
				},
			}},
		},
		Fragment: &wgpu.FragmentState{
			Module:     pointsModule,
			EntryPoint: "fs_main",
			Targets:    []wgpu.ColorTargetState{target},
		},
		Primitive: wgpu.PrimitiveState{
			Topology: wgpu.PrimitiveTopologyTriangleList,
			CullMode: wgpu.CullModeNone,
		},
		DepthStencil: depthStencil,
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return err
	}

	f.simParams, err = f.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Simulate Params",
		Size:  core.SimulationUniformsSize,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return err
	}
	f.drawParams, err = f.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Points Params",
		Size:  core.RenderUniformsSize,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	return err
}

// install creates a fresh target pair sized to tex, uploads tex into the
// first target and swaps the new resources in. On error the previous
// resources stay untouched.
func (f *FBO) install(tex *core.PositionTexture) error {
	w, h := uint32(tex.Width), uint32(tex.Height)
	a, b, err := newTargetPair(f.device, w, h)
	if err != nil {
		return err
	}
	simGroups := make(map[*Target]*wgpu.BindGroup, 2)
	drawGroups := make(map[*Target]*wgpu.BindGroup, 2)
	fail := func(err error) error {
		for _, groups := range []map[*Target]*wgpu.BindGroup{simGroups, drawGroups} {
			for _, g := range groups {
				if g != nil {
					g.Release()
				}
			}
		}
		a.Release()
		b.Release()
		return err
	}
	if err := a.Upload(f.queue, tex); err != nil {
		return fail(err)
	}

	for _, t := range []*Target{a, b} {
		if simGroups[t], err = f.bindGroup("Simulate BG", t, f.simParams, core.SimulationUniformsSize); err != nil {
			return fail(err)
		}
		if drawGroups[t], err = f.bindGroup("Points BG", t, f.drawParams, core.RenderUniformsSize); err != nil {
			return fail(err)
		}
	}

	set := core.NewPointSet(tex.Width, tex.Height)
	points, err := f.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    "Point Set",
		Contents: set.Bytes(),
		Usage:    wgpu.BufferUsageVertex,
	})
	if err != nil {
		return fail(err)
	}

	var retired []*Target
	if f.targets == nil {
		f.targets = NewPingPong(a, b)
	} else {
		retired = []*Target{f.targets.Current(), f.targets.Next()}
		f.targets.Reset(a, b)
	}
	oldGroups := []map[*Target]*wgpu.BindGroup{f.simGroups, f.drawGroups}
	oldPoints := f.points
	f.simGroups, f.drawGroups = simGroups, drawGroups
	f.points, f.pointCount = points, uint32(set.Len())

	for _, groups := range oldGroups {
		for _, g := range groups {
			g.Release()
		}
	}
	for _, t := range retired {
		t.Release()
	}
	if oldPoints != nil {
		oldPoints.Release()
	}
	return nil
}

func (f *FBO) bindGroup(label string, t *Target, params *wgpu.Buffer, size uint64) (*wgpu.BindGroup, error) {
	return f.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  label,
		Layout: f.layout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, TextureView: t.View},
			{Binding: 1, Buffer: params, Offset: 0, Size: size},
		},
	})
}

// ReplaceSource swaps in depth-derived particle data decoded by load
// generation gen. The settle timer restarts at now. A stale generation or
// invalid texture leaves the current state running.
func (f *FBO) ReplaceSource(tex *core.PositionTexture, gen uint64, now time.Time) error {
	next, err := f.source.Activate(gen, now)
	if err != nil {
		return err
	}
	if err := tex.Validate(); err != nil {
		return err
	}
	if err := f.installTargets(tex); err != nil {
		return fmt.Errorf("replace particle source: %w", err)
	}
	f.source = next
	f.logger.Infof("particle source: %s #%d, %dx%d", next.Kind, gen, tex.Width, tex.Height)
	return nil
}

func (f *FBO) Source() core.Source {
	return f.source
}

func (f *FBO) Options() Options {
	return f.opts
}

// Particles reports the particle grid size.
func (f *FBO) Particles() (width, height uint32) {
	t := f.targets.Current()
	return t.Width, t.Height
}

// Swaps counts simulation passes since the current source was installed.
func (f *FBO) Swaps() uint64 {
	return f.targets.Swaps()
}

// Step runs one simulation pass from the current target into the other and
// submits it. The targets only swap once the pass has been submitted.
func (f *FBO) Step(in core.InputState, now time.Time) error {
	t, dt := f.clock.tick(now)
	u := f.opts.simulation(f.source, in, t, dt, now)
	if err := u.Validate(); err != nil {
		return err
	}
	if err := f.queue.WriteBuffer(f.simParams, 0, u.Bytes()); err != nil {
		return err
	}

	encoder, err := f.device.CreateCommandEncoder(nil)
	if err != nil {
		return err
	}
	defer encoder.Release()
	return f.targets.Step(func(read, write *Target) error {
		pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
			Label: "Simulate Pass",
			ColorAttachments: []wgpu.RenderPassColorAttachment{{
				View:       write.View,
				LoadOp:     wgpu.LoadOpClear,
				StoreOp:    wgpu.StoreOpStore,
				ClearValue: wgpu.Color{},
			}},
		})
		pass.SetPipeline(f.simPipeline)
		pass.SetBindGroup(0, f.simGroups[read], nil)
		pass.Draw(3, 1, 0, 0)
		if err := pass.End(); err != nil {
			return fmt.Errorf("simulate pass: %w", err)
		}
		cmd, err := encoder.Finish(nil)
		if err != nil {
			return fmt.Errorf("simulate pass: %w", err)
		}
		f.queue.Submit(cmd)
		return nil
	})
}

// Render encodes the point pass into view. It reads the current target
// only, so calling it twice in a frame draws the same state.
func (f *FBO) Render(encoder *wgpu.CommandEncoder, view *wgpu.TextureView, width, height uint32, in core.InputState) error {
	u := f.opts.render(in, f.clock.seconds())
	if err := u.Validate(); err != nil {
		return err
	}
	if err := f.queue.WriteBuffer(f.drawParams, 0, u.Bytes()); err != nil {
		return err
	}

	desc := &wgpu.RenderPassDescriptor{
		Label: "Points Pass",
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:       view,
			LoadOp:     wgpu.LoadOpClear,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: wgpu.Color{R: 0, G: 0, B: 0, A: 1},
		}},
	}
	if f.opts.Photo {
		if err := f.ensureDepth(width, height); err != nil {
			return err
		}
		desc.DepthStencilAttachment = &wgpu.RenderPassDepthStencilAttachment{
			View:            f.depthView,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpDiscard,
			DepthClearValue: 1,
		}
	}

	pass := encoder.BeginRenderPass(desc)
	pass.SetPipeline(f.drawPipeline)
	pass.SetBindGroup(0, f.drawGroups[f.targets.Current()], nil)
	pass.SetVertexBuffer(0, f.points, 0, f.points.GetSize())
	pass.Draw(6, f.pointCount, 0, 0)
	if err := pass.End(); err != nil {
		return fmt.Errorf("points pass: %w", err)
	}
	return nil
}

func (f *FBO) ensureDepth(width, height uint32) error {
	if f.depth != nil && f.depth.GetWidth() == width && f.depth.GetHeight() == height {
		return nil
	}
	f.releaseDepth()
	tex, err := f.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "Points Depth",
		Size:          wgpu.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        DepthFormat,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		return err
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return err
	}
	f.depth, f.depthView = tex, view
	return nil
}

func (f *FBO) releaseDepth() {
	if f.depthView != nil {
		f.depthView.Release()
		f.depthView = nil
	}
	if f.depth != nil {
		f.depth.Release()
		f.depth = nil
	}
}

func (f *FBO) Release() {
	f.releaseDepth()
	if f.targets != nil {
		f.targets.Current().Release()
		f.targets.Next().Release()
		f.targets = nil
	}
	for _, b := range []*wgpu.Buffer{f.points, f.simParams, f.drawParams} {
		if b != nil {
			b.Release()
		}
	}
	f.points, f.simParams, f.drawParams = nil, nil, nil
	if f.simPipeline != nil {
		f.simPipeline.Release()
	}
	if f.drawPipeline != nil {
		f.drawPipeline.Release()
	}
	if f.layout != nil {
		f.layout.Release()
	}
}
