package app

import (
	"fmt"
	"strings"

	"github.com/pudnax/fidmag/fieldrt/rt/core"
)

// FPSCounter averages frame rate over one-second windows.
type FPSCounter struct {
	FPS     float64
	frames  int
	elapsed float64
}

// Tick adds a frame of dt seconds and reports whether FPS was refreshed.
func (c *FPSCounter) Tick(dt float64) bool {
	if dt <= 0 {
		return false
	}
	c.frames++
	c.elapsed += dt
	if c.elapsed < 1.0 {
		return false
	}
	c.FPS = float64(c.frames) / c.elapsed
	c.frames = 0
	c.elapsed = 0
	return true
}

type HUDStats struct {
	FPS         float64
	Particles   uint32
	SampleCount uint32
	Seed        float32
	Dt          float32
}

// FormatHUD renders the overlay text.
func FormatHUD(s HUDStats, prof *Profiler) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "fps %.1f\n", s.FPS)
	fmt.Fprintf(&sb, "particles %d\n", s.Particles)
	fmt.Fprintf(&sb, "msaa x%d\n", s.SampleCount)
	fmt.Fprintf(&sb, "dt %.4f seed %.4f\n", s.Dt, s.Seed)
	if prof != nil {
		sb.WriteString(prof.StatsString())
	}
	return strings.TrimRight(sb.String(), "\n")
}

var hudColor = [4]float32{1, 1, 0.4, 1}

const hudMargin = 10

// HUD lays out overlay text against the glyph atlas.
type HUD struct {
	Enabled bool
	Atlas   *core.TextAtlas
}

func (h *HUD) Vertices(text string, width, height uint32) []core.TextVertex {
	if !h.Enabled || h.Atlas == nil {
		return nil
	}
	return h.Atlas.Layout(text, hudMargin, hudMargin, hudColor, int(width), int(height))
}
