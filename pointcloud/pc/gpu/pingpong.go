package gpu

import "errors"

var ErrAliasedTargets = errors.New("ping-pong read and write targets are the same")

// PingPong alternates between two render targets so a pass never reads
// from the texture it writes. Current holds the latest result.
type PingPong[T comparable] struct {
	targets [2]T
	current int
	swaps   uint64
}

func NewPingPong[T comparable](a, b T) *PingPong[T] {
	return &PingPong[T]{targets: [2]T{a, b}}
}

func (p *PingPong[T]) Current() T {
	return p.targets[p.current]
}

// Next is the target the next pass writes into.
func (p *PingPong[T]) Next() T {
	return p.targets[1-p.current]
}

func (p *PingPong[T]) Swap() {
	p.current = 1 - p.current
	p.swaps++
}

// Swaps counts completed passes since the last Reset.
func (p *PingPong[T]) Swaps() uint64 {
	return p.swaps
}

// Reset installs a new pair; a becomes Current.
func (p *PingPong[T]) Reset(a, b T) {
	p.targets = [2]T{a, b}
	p.current = 0
	p.swaps = 0
}

// Step runs one pass from Current into Next and swaps. When pass fails the
// targets stay as they were and the previous result remains Current.
func (p *PingPong[T]) Step(pass func(read, write T) error) error {
	read, write := p.Current(), p.Next()
	if read == write {
		return ErrAliasedTargets
	}
	if err := pass(read, write); err != nil {
		return err
	}
	p.Swap()
	return nil
}
