package depthcloud

import (
	"errors"
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/gekko3d/depthcloud/pointcloud/pc/core"
	"github.com/gekko3d/depthcloud/pointcloud/pc/share"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCapturer struct {
	calls int
	err   error
}

func (f *fakeCapturer) Capture(in core.InputState) (*image.RGBA, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return image.NewRGBA(image.Rect(0, 0, 4, 3)), nil
}

func TestShareState_ExportsFrame(t *testing.T) {
	dir := t.TempDir()
	var written string
	st := &ShareState{
		exporter: share.NewExporter(dir),
		logger:   NewNopLogger(),
		Exported: func(path string) { written = path },
	}

	require.True(t, st.trigger(&fakeCapturer{}, core.InputState{}))
	st.wg.Wait()

	require.NotEmpty(t, written)
	assert.Equal(t, dir, filepath.Dir(written))
	_, err := os.Stat(written)
	assert.NoError(t, err)
	assert.False(t, st.busy.Load())
}

func TestShareState_CaptureError(t *testing.T) {
	st := &ShareState{exporter: share.NewExporter(t.TempDir()), logger: NewNopLogger()}
	capturer := &fakeCapturer{err: errors.New("device lost")}

	assert.False(t, st.trigger(capturer, core.InputState{}))
	assert.False(t, st.busy.Load())
	assert.Equal(t, 1, capturer.calls)
}

func TestShareState_IgnoresPressWhileBusy(t *testing.T) {
	st := &ShareState{exporter: share.NewExporter(t.TempDir()), logger: NewNopLogger()}
	st.busy.Store(true)
	capturer := &fakeCapturer{}

	assert.False(t, st.trigger(capturer, core.InputState{}))
	assert.Zero(t, capturer.calls)
}

func TestShareModule_UnsupportedDirBindsNothing(t *testing.T) {
	file := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	app := NewApp()
	ShareModule{Dir: file}.Install(app, app.Commands())

	_, ok := Resource[ShareState](app)
	assert.False(t, ok)
	assert.Empty(t, app.systems[PostRender.Name])
}

func TestShareModule_Supported(t *testing.T) {
	app := NewApp()
	ShareModule{Dir: t.TempDir()}.Install(app, app.Commands())

	_, ok := Resource[ShareState](app)
	assert.True(t, ok)
	assert.Len(t, app.systems[PostRender.Name], 1)
}
