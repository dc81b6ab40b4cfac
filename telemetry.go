package fidmag

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"
)

// FrameSample is the timing of one presented frame.
type FrameSample struct {
	Frame    time.Duration
	Simulate time.Duration
	Render   time.Duration
}

// PerfRow is one aggregated telemetry window as written to CSV.
type PerfRow struct {
	RunID       string  `csv:"run_id"`
	Window      int     `csv:"window"`
	Frames      int     `csv:"frames"`
	FPS         float64 `csv:"fps"`
	MeanFrameMs float64 `csv:"mean_frame_ms"`
	MaxFrameMs  float64 `csv:"max_frame_ms"`
	SimulateMs  float64 `csv:"simulate_ms"`
	RenderMs    float64 `csv:"render_ms"`
	Particles   uint32  `csv:"particles"`
	SampleCount uint32  `csv:"sample_count"`
}

// PerfWriter aggregates frame samples into fixed-length windows and appends
// one CSV row per window. A nil *PerfWriter accepts and drops everything.
type PerfWriter struct {
	file          *os.File
	headerWritten bool

	runID  string
	window time.Duration
	index  int

	frames   int
	elapsed  time.Duration
	maxFrame time.Duration
	simulate time.Duration
	render   time.Duration
}

// NewPerfWriter creates path (and its directory). Returns nil if path is empty.
func NewPerfWriter(path, runID string, window time.Duration) (*PerfWriter, error) {
	if path == "" {
		return nil, nil
	}
	if window <= 0 {
		window = time.Second
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating telemetry directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", path, err)
	}
	return &PerfWriter{file: f, runID: runID, window: window}, nil
}

// Record adds one frame. When the window fills, a row is flushed and returned.
func (w *PerfWriter) Record(s FrameSample, particles, sampleCount uint32) (*PerfRow, error) {
	if w == nil {
		return nil, nil
	}
	w.frames++
	w.elapsed += s.Frame
	w.simulate += s.Simulate
	w.render += s.Render
	if s.Frame > w.maxFrame {
		w.maxFrame = s.Frame
	}
	if w.elapsed < w.window {
		return nil, nil
	}

	row := w.summarize(particles, sampleCount)
	if err := w.write(row); err != nil {
		return nil, err
	}
	w.index++
	w.frames, w.elapsed, w.maxFrame, w.simulate, w.render = 0, 0, 0, 0, 0
	return &row, nil
}

func (w *PerfWriter) summarize(particles, sampleCount uint32) PerfRow {
	n := float64(w.frames)
	return PerfRow{
		RunID:       w.runID,
		Window:      w.index,
		Frames:      w.frames,
		FPS:         n / w.elapsed.Seconds(),
		MeanFrameMs: ms(w.elapsed) / n,
		MaxFrameMs:  ms(w.maxFrame),
		SimulateMs:  ms(w.simulate) / n,
		RenderMs:    ms(w.render) / n,
		Particles:   particles,
		SampleCount: sampleCount,
	}
}

func (w *PerfWriter) write(row PerfRow) error {
	records := []PerfRow{row}
	if !w.headerWritten {
		if err := gocsv.Marshal(records, w.file); err != nil {
			return fmt.Errorf("writing perf: %w", err)
		}
		w.headerWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(records, w.file); err != nil {
		return fmt.Errorf("writing perf: %w", err)
	}
	return nil
}

func (w *PerfWriter) Close() error {
	if w == nil {
		return nil
	}
	return w.file.Close()
}

func ms(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000.0
}
