package depthcloud

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/gekko3d/depthcloud/pointcloud/pc/core"
	"github.com/gekko3d/depthcloud/pointcloud/pc/depth"
)

// ImageSourceModule turns images into particles. Images come from the
// command line, from files dropped onto the window and, with Watch, from
// rewrites of the current files.
type ImageSourceModule struct {
	ColorPath string
	DepthPath string
	Watch     bool
	Builder   depth.Builder
	// HEIF decodes HEVC image items; HEIF input is rejected without it.
	HEIF depth.HEIFDecoder
}

type loadStatus int

const (
	statusProcedural loadStatus = iota
	statusLoaded
	statusFailed
)

// ImageSource tracks the current request and the outcome of the last load.
type ImageSource struct {
	loader  *depth.Loader
	watcher *fileWatcher
	logger  Logger
	ctx     context.Context
	cancel  context.CancelFunc

	mu      sync.Mutex
	request depth.Request

	status loadStatus
	shown  string
}

func (m ImageSourceModule) Install(app *App, cmd *Commands) {
	logger := app.Logger()
	ctx, cancel := context.WithCancel(context.Background())
	src := &ImageSource{
		loader: depth.NewLoader(depth.NewDecoder(m.HEIF), m.Builder, logger),
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}

	if m.Watch {
		fw, err := newFileWatcher(logger, func(string) { src.reload() })
		if err != nil {
			logger.Warnf("watch disabled: %v", err)
		} else {
			src.watcher = fw
		}
	}

	cmd.AddResources(src)
	cmd.OnExit(src.close)
	app.UseSystem(
		System(imageSourceSystem).
			InStage(PreUpdate),
	)

	if m.ColorPath != "" {
		src.load(depth.Request{ColorPath: m.ColorPath, DepthPath: m.DepthPath})
	}
}

// requestFromDrop maps dropped paths to a request: the first path is the
// color image, the second, if any, its depth map.
func requestFromDrop(paths []string) (depth.Request, bool) {
	switch len(paths) {
	case 0:
		return depth.Request{}, false
	case 1:
		return depth.Request{ColorPath: paths[0]}, true
	default:
		return depth.Request{ColorPath: paths[0], DepthPath: paths[1]}, true
	}
}

func (src *ImageSource) load(req depth.Request) uint64 {
	src.mu.Lock()
	src.request = req
	src.mu.Unlock()
	if src.watcher != nil {
		if err := src.watcher.Watch(req.ColorPath, req.DepthPath); err != nil {
			src.logger.Warnf("watch %s: %v", req.ColorPath, err)
		}
	}
	return src.loader.Load(src.ctx, req)
}

// reload restarts the current request. It runs on the watcher goroutine.
func (src *ImageSource) reload() {
	src.mu.Lock()
	req := src.request
	src.mu.Unlock()
	if req.ColorPath == "" {
		return
	}
	src.loader.Load(src.ctx, req)
}

// Request is the request of the latest load.
func (src *ImageSource) Request() depth.Request {
	src.mu.Lock()
	defer src.mu.Unlock()
	return src.request
}

// sourceReplacer installs a built texture as the particle source.
type sourceReplacer interface {
	ReplaceSource(tex *core.PositionTexture, gen uint64, now time.Time) error
}

func (src *ImageSource) apply(res depth.Result, dst sourceReplacer, now time.Time) {
	name := filepath.Base(res.Request.ColorPath)
	if res.Err != nil {
		src.logger.Errorf("load %s: %v", name, res.Err)
		src.status = statusFailed
		return
	}
	if err := dst.ReplaceSource(res.Texture, res.Generation, now); err != nil {
		src.logger.Errorf("install %s: %v", name, err)
		src.status = statusFailed
		return
	}
	src.logger.Infof("loaded %s: %dx%d particles in %s",
		name, res.Texture.Width, res.Texture.Height, res.Took.Round(time.Millisecond))
	src.status = statusLoaded
	src.shown = name
}

// title decorates the window title with the load state.
func (src *ImageSource) title(base string) string {
	switch {
	case src.loader.Loading():
		return base + " (loading)"
	case src.status == statusFailed:
		return base + " (load failed)"
	case src.status == statusLoaded:
		return base + " - " + src.shown
	default:
		return base
	}
}

func (src *ImageSource) close() {
	src.cancel()
	src.loader.Close()
	if src.watcher != nil {
		if err := src.watcher.Close(); err != nil {
			src.logger.Warnf("watch close: %v", err)
		}
	}
}

func imageSourceSystem(input *Input, src *ImageSource, state *PointCloudState, window *WindowState, t *Time) {
	if req, ok := requestFromDrop(input.Dropped); ok {
		gen := src.load(req)
		src.logger.Debugf("drop: load #%d %q", gen, req.ColorPath)
	}
	if res, ok := src.loader.Poll(); ok {
		src.apply(res, state.RtApp, t.Time)
	}
	window.SetTitle(src.title(window.Title()))
}
