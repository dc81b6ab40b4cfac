package core

import "fmt"

// TargetHooks are the GPU operations the lifecycle drives.
type TargetHooks interface {
	ConfigureSurface(width, height uint32) error
	RebuildTargets(width, height uint32) error
	SetAspect(aspect float32)
}

// Lifecycle tracks the surface size and decides when size-dependent targets
// must be regenerated. The particle store, field volume and draw bundles do
// not depend on size and are never touched here.
type Lifecycle struct {
	hooks TargetHooks

	Width  uint32
	Height uint32
	// Generation counts target rebuilds.
	Generation int
}

func NewLifecycle(hooks TargetHooks) *Lifecycle {
	return &Lifecycle{hooks: hooks}
}

// Resize reconfigures the surface for width x height. Non-positive sizes are
// ignored (minimized windows report 0). Targets are only rebuilt when the
// size actually changed.
func (l *Lifecycle) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return nil
	}
	w, h := uint32(width), uint32(height)

	if err := l.hooks.ConfigureSurface(w, h); err != nil {
		return fmt.Errorf("configure surface %dx%d: %w", w, h, err)
	}
	if w == l.Width && h == l.Height && l.Generation > 0 {
		return nil
	}
	if err := l.hooks.RebuildTargets(w, h); err != nil {
		return fmt.Errorf("rebuild targets %dx%d: %w", w, h, err)
	}
	l.Width, l.Height = w, h
	l.Generation++
	l.hooks.SetAspect(float32(w) / float32(h))
	return nil
}

// Rebuild regenerates targets at the current size.
func (l *Lifecycle) Rebuild() error {
	if l.Width == 0 || l.Height == 0 {
		return nil
	}
	if err := l.hooks.RebuildTargets(l.Width, l.Height); err != nil {
		return fmt.Errorf("rebuild targets %dx%d: %w", l.Width, l.Height, err)
	}
	l.Generation++
	return nil
}
