package depth

import (
	"context"
	"errors"
	"image"
	"sync"
	"time"

	"github.com/gekko3d/depthcloud/pointcloud/pc/core"
)

type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// PairDecoder produces the color and depth images of a load request.
type PairDecoder interface {
	DecodePair(ctx context.Context, req Request) (image.Image, image.Image, error)
}

// Result is a finished load. Texture is nil when Err is set.
type Result struct {
	Generation uint64
	Request    Request
	Texture    *core.PositionTexture
	Err        error
	Took       time.Duration
}

// Loader decodes images off the render loop. Every Load gets a new
// generation and cancels the one before it; Poll only returns results of
// the latest generation, so a slow stale decode can never overwrite a newer
// image.
type Loader struct {
	decoder PairDecoder
	builder Builder
	logger  Logger

	mu         sync.Mutex
	generation uint64
	delivered  uint64
	cancel     context.CancelFunc

	results chan Result
}

func NewLoader(decoder PairDecoder, builder Builder, logger Logger) *Loader {
	return &Loader{
		decoder: decoder,
		builder: builder,
		logger:  logger,
		results: make(chan Result, 1),
	}
}

// Load starts decoding req in the background and returns its generation.
func (l *Loader) Load(ctx context.Context, req Request) uint64 {
	l.mu.Lock()
	if l.cancel != nil {
		l.cancel()
	}
	l.generation++
	gen := l.generation
	ctx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	l.mu.Unlock()

	l.logger.Debugf("load #%d started: color=%q depth=%q", gen, req.ColorPath, req.DepthPath)
	go l.run(ctx, gen, req)
	return gen
}

func (l *Loader) run(ctx context.Context, gen uint64, req Request) {
	start := time.Now()
	tex, err := l.decodeAndBuild(ctx, req)
	res := Result{Generation: gen, Request: req, Texture: tex, Err: err, Took: time.Since(start)}

	if errors.Is(err, context.Canceled) || !l.deliver(res) {
		l.logger.Debugf("load #%d superseded, dropping result", gen)
	}
}

func (l *Loader) decodeAndBuild(ctx context.Context, req Request) (*core.PositionTexture, error) {
	color, depth, err := l.decoder.DecodePair(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tex, err := l.builder.Build(color, depth)
	if err != nil {
		return nil, decodeErr("build", req.ColorPath, err)
	}
	return tex, nil
}

// deliver queues res if it belongs to the latest generation, replacing any
// undrained older result. The generation check and the send happen under
// l.mu so a superseded result can never displace a newer one.
func (l *Loader) deliver(res Result) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if res.Generation != l.generation {
		return false
	}
	for {
		select {
		case l.results <- res:
			return true
		default:
			select {
			case <-l.results:
			default:
			}
		}
	}
}

// Poll returns a finished result of the latest generation without
// blocking. It is called once per frame from the render loop.
func (l *Loader) Poll() (Result, bool) {
	select {
	case res := <-l.results:
		if !l.isCurrent(res.Generation) {
			l.logger.Debugf("load #%d finished after a newer load, dropping result", res.Generation)
			return Result{}, false
		}
		l.mu.Lock()
		l.delivered = res.Generation
		l.mu.Unlock()
		return res, true
	default:
		return Result{}, false
	}
}

// Loading reports whether the latest load has not been polled yet.
func (l *Loader) Loading() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.generation > l.delivered
}

func (l *Loader) Generation() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.generation
}

func (l *Loader) isCurrent(gen uint64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return gen == l.generation
}

// Close cancels the in-flight load, if any.
func (l *Loader) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
}
