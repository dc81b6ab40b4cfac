package core

import (
	"errors"
	"fmt"
	"strings"
)

// SurfaceStatus classifies a failed frame acquisition or presentation.
type SurfaceStatus int

const (
	SurfaceTimeout SurfaceStatus = iota
	SurfaceOutdated
	SurfaceLost
	SurfaceOutOfMemory
	SurfaceDeviceLost
	SurfaceOther
)

func (s SurfaceStatus) String() string {
	switch s {
	case SurfaceTimeout:
		return "timeout"
	case SurfaceOutdated:
		return "outdated"
	case SurfaceLost:
		return "lost"
	case SurfaceOutOfMemory:
		return "out of memory"
	case SurfaceDeviceLost:
		return "device lost"
	}
	return "other"
}

// Recoverable reports whether reconfiguring the surface fixes the error.
func (s SurfaceStatus) Recoverable() bool {
	return s == SurfaceLost || s == SurfaceOutdated
}

// Fatal reports whether the frame loop must stop.
func (s SurfaceStatus) Fatal() bool {
	return s == SurfaceOutOfMemory || s == SurfaceDeviceLost
}

type SurfaceError struct {
	Status SurfaceStatus
	Err    error
}

func (e *SurfaceError) Error() string {
	if e.Err == nil {
		return "surface " + e.Status.String()
	}
	return fmt.Sprintf("surface %s: %v", e.Status, e.Err)
}

func (e *SurfaceError) Unwrap() error { return e.Err }

// ClassifySurfaceError wraps err in a *SurfaceError. The wgpu bindings report
// surface status as text, so classification matches on the message. A nil
// err (no texture and no error) is a timeout.
func ClassifySurfaceError(err error) *SurfaceError {
	var se *SurfaceError
	if errors.As(err, &se) {
		return se
	}
	if err == nil {
		return &SurfaceError{Status: SurfaceTimeout}
	}
	msg := strings.ToLower(err.Error())
	status := SurfaceOther
	switch {
	case strings.Contains(msg, "device lost"), strings.Contains(msg, "devicelost"):
		status = SurfaceDeviceLost
	case strings.Contains(msg, "out of memory"), strings.Contains(msg, "outofmemory"):
		status = SurfaceOutOfMemory
	case strings.Contains(msg, "lost"):
		status = SurfaceLost
	case strings.Contains(msg, "outdated"):
		status = SurfaceOutdated
	case strings.Contains(msg, "timeout"):
		status = SurfaceTimeout
	}
	return &SurfaceError{Status: status, Err: err}
}
