package depth

import (
	"context"
	"errors"
	"image"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any) {}
func (nopLogger) Infof(string, ...any)  {}
func (nopLogger) Warnf(string, ...any)  {}
func (nopLogger) Errorf(string, ...any) {}

// gatedDecoder blocks each request until its gate is released.
type gatedDecoder struct {
	mu    sync.Mutex
	gates map[string]chan struct{}
	errs  map[string]error
	sizes map[string]int
}

func newGatedDecoder() *gatedDecoder {
	return &gatedDecoder{
		gates: make(map[string]chan struct{}),
		errs:  make(map[string]error),
		sizes: make(map[string]int),
	}
}

func (g *gatedDecoder) gate(path string) chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	ch, ok := g.gates[path]
	if !ok {
		ch = make(chan struct{})
		g.gates[path] = ch
	}
	return ch
}

func (g *gatedDecoder) release(path string) { close(g.gate(path)) }

func (g *gatedDecoder) DecodePair(ctx context.Context, req Request) (image.Image, image.Image, error) {
	select {
	case <-g.gate(req.ColorPath):
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	}
	g.mu.Lock()
	err, size := g.errs[req.ColorPath], g.sizes[req.ColorPath]
	g.mu.Unlock()
	if err != nil {
		return nil, nil, &DecodeError{Path: req.ColorPath, Op: "decode", Err: err}
	}
	if size == 0 {
		size = 2
	}
	return colorImage(size, size, nil), depthImage(size, size, nil), nil
}

func waitResult(t *testing.T, l *Loader) Result {
	t.Helper()
	var res Result
	require.Eventually(t, func() bool {
		var ok bool
		res, ok = l.Poll()
		return ok
	}, time.Second, time.Millisecond)
	return res
}

func TestLoaderDeliversResult(t *testing.T) {
	dec := newGatedDecoder()
	l := NewLoader(dec, Builder{}, nopLogger{})
	defer l.Close()

	gen := l.Load(context.Background(), Request{ColorPath: "a"})
	assert.Equal(t, uint64(1), gen)
	assert.True(t, l.Loading())
	_, ok := l.Poll()
	assert.False(t, ok)

	dec.release("a")
	res := waitResult(t, l)
	require.NoError(t, res.Err)
	assert.Equal(t, gen, res.Generation)
	assert.Equal(t, "a", res.Request.ColorPath)
	require.NotNil(t, res.Texture)
	assert.Equal(t, 4, res.Texture.Len())
	assert.False(t, l.Loading())
}

func TestLoaderNewerLoadWins(t *testing.T) {
	dec := newGatedDecoder()
	dec.sizes["old"] = 3
	dec.sizes["new"] = 4
	l := NewLoader(dec, Builder{}, nopLogger{})
	defer l.Close()

	l.Load(context.Background(), Request{ColorPath: "old"})
	newGen := l.Load(context.Background(), Request{ColorPath: "new"})
	assert.Equal(t, uint64(2), newGen)

	dec.release("new")
	res := waitResult(t, l)
	assert.Equal(t, newGen, res.Generation)
	assert.Equal(t, 16, res.Texture.Len())

	// The first load was canceled; releasing it must not produce a result.
	dec.release("old")
	time.Sleep(20 * time.Millisecond)
	_, ok := l.Poll()
	assert.False(t, ok)
}

func TestLoaderStaleResultDropped(t *testing.T) {
	dec := newGatedDecoder()
	l := NewLoader(dec, Builder{}, nopLogger{})
	defer l.Close()

	l.Load(context.Background(), Request{ColorPath: "first"})
	dec.release("first")
	require.Eventually(t, func() bool { return len(l.results) == 1 }, time.Second, time.Millisecond)

	// A newer load starts before the finished one is polled.
	l.Load(context.Background(), Request{ColorPath: "second"})
	_, ok := l.Poll()
	assert.False(t, ok)
	assert.True(t, l.Loading())

	dec.release("second")
	res := waitResult(t, l)
	assert.Equal(t, uint64(2), res.Generation)
}

func TestLoaderLateStaleDeliveryKeepsNewer(t *testing.T) {
	l := NewLoader(newGatedDecoder(), Builder{}, nopLogger{})
	l.mu.Lock()
	l.generation = 2
	l.mu.Unlock()

	assert.True(t, l.deliver(Result{Generation: 2}))
	// Generation 1 finished decoding before Load(2) but reaches deliver last.
	assert.False(t, l.deliver(Result{Generation: 1}))

	res, ok := l.Poll()
	require.True(t, ok)
	assert.Equal(t, uint64(2), res.Generation)
	assert.False(t, l.Loading())
}

func TestLoaderDeliverReplacesUnpolledResult(t *testing.T) {
	l := NewLoader(newGatedDecoder(), Builder{}, nopLogger{})
	l.mu.Lock()
	l.generation = 3
	l.mu.Unlock()

	require.True(t, l.deliver(Result{Generation: 3, Took: time.Second}))
	require.True(t, l.deliver(Result{Generation: 3, Took: 2 * time.Second}))

	res, ok := l.Poll()
	require.True(t, ok)
	assert.Equal(t, 2*time.Second, res.Took)
	_, ok = l.Poll()
	assert.False(t, ok)
}

func TestLoaderReportsDecodeError(t *testing.T) {
	dec := newGatedDecoder()
	dec.errs["broken"] = ErrDepthMissing
	l := NewLoader(dec, Builder{}, nopLogger{})
	defer l.Close()

	l.Load(context.Background(), Request{ColorPath: "broken"})
	dec.release("broken")
	res := waitResult(t, l)
	assert.Nil(t, res.Texture)
	assert.ErrorIs(t, res.Err, ErrDepthMissing)
	var de *DecodeError
	assert.True(t, errors.As(res.Err, &de))
	assert.False(t, l.Loading())
}

func TestLoaderClosePreventsDelivery(t *testing.T) {
	dec := newGatedDecoder()
	l := NewLoader(dec, Builder{}, nopLogger{})

	l.Load(context.Background(), Request{ColorPath: "a"})
	l.Close()
	time.Sleep(20 * time.Millisecond)
	_, ok := l.Poll()
	assert.False(t, ok)
}
