package depth

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported image format")
	ErrDepthMissing      = errors.New("depth auxiliary image missing")
	ErrMalformedHEIF     = errors.New("malformed HEIF container")
	ErrEmptyImage        = errors.New("empty image")
)

// DecodeError reports a failed decode of a user-selected image. The
// previous particle state stays active when one is returned.
type DecodeError struct {
	Path string
	Op   string
	Err  error
}

func (e *DecodeError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func decodeErr(op, path string, err error) error {
	var de *DecodeError
	if errors.As(err, &de) {
		return err
	}
	return &DecodeError{Path: path, Op: op, Err: err}
}
