package core

import (
	"errors"
	"time"
)

type SourceKind int

const (
	SourceProcedural SourceKind = iota
	SourceUserImage
)

func (k SourceKind) String() string {
	switch k {
	case SourceProcedural:
		return "procedural"
	case SourceUserImage:
		return "user image"
	}
	return "unknown"
}

var ErrStaleGeneration = errors.New("source: generation is not newer than the active one")

// Source records where the particle data came from and when it became
// active. Since anchors the settle timer.
type Source struct {
	Kind       SourceKind
	Since      time.Time
	Generation uint64
}

func ProceduralSource(at time.Time) Source {
	return Source{Kind: SourceProcedural, Since: at}
}

// Activate moves to a user image loaded by the given decode generation.
// There is no way back to procedural data. A user image can only be
// replaced by a newer generation.
func (s Source) Activate(generation uint64, at time.Time) (Source, error) {
	if s.Kind == SourceUserImage && generation <= s.Generation {
		return s, ErrStaleGeneration
	}
	return Source{Kind: SourceUserImage, Since: at, Generation: generation}, nil
}

func (s Source) Elapsed(now time.Time) time.Duration {
	d := now.Sub(s.Since)
	if d < 0 {
		return 0
	}
	return d
}
