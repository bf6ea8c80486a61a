package depthcloud

import (
	"image"
	"sync"
	"sync/atomic"

	"github.com/gekko3d/depthcloud/pointcloud/pc/core"
	"github.com/gekko3d/depthcloud/pointcloud/pc/share"
)

// ShareModule binds P to exporting the current frame as a PNG into Dir.
// Nothing is bound when Dir is not writable.
type ShareModule struct {
	Dir string
}

type ShareState struct {
	exporter *share.Exporter
	logger   Logger

	busy atomic.Bool
	wg   sync.WaitGroup

	// Exported is called with the path of every written frame.
	Exported func(path string)
}

type frameCapturer interface {
	Capture(in core.InputState) (*image.RGBA, error)
}

func (m ShareModule) Install(app *App, cmd *Commands) {
	exporter := share.NewExporter(m.Dir)
	if !exporter.Supported() {
		app.Logger().Infof("share unavailable: %q is not writable", m.Dir)
		return
	}
	st := &ShareState{exporter: exporter, logger: app.Logger()}
	cmd.AddResources(st)
	cmd.OnExit(st.wg.Wait)
	app.UseSystem(
		System(shareSystem).
			InStage(PostRender),
	)
}

// trigger captures a frame and writes it in the background. A press while
// the previous export is still running is ignored.
func (st *ShareState) trigger(src frameCapturer, in core.InputState) bool {
	if !st.busy.CompareAndSwap(false, true) {
		st.logger.Debugf("share: export already running")
		return false
	}
	img, err := src.Capture(in)
	if err != nil {
		st.logger.Errorf("share: capture: %v", err)
		st.busy.Store(false)
		return false
	}
	st.wg.Add(1)
	go func() {
		defer st.wg.Done()
		defer st.busy.Store(false)
		path, err := st.exporter.Export(img)
		if err != nil {
			st.logger.Errorf("share: %v", err)
			return
		}
		st.logger.Infof("share: wrote %s", path)
		if st.Exported != nil {
			st.Exported(path)
		}
	}()
	return true
}

func shareSystem(input *Input, st *ShareState, state *PointCloudState) {
	if input.JustPressed[KeyP] {
		st.trigger(state.RtApp, state.Input)
	}
}
