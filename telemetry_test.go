package fidmag

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPerfWriter_Disabled(t *testing.T) {
	w, err := NewPerfWriter("", "run", time.Second)
	require.NoError(t, err)
	assert.Nil(t, w)

	row, err := w.Record(FrameSample{Frame: time.Second}, 1, 1)
	assert.NoError(t, err)
	assert.Nil(t, row)
	assert.NoError(t, w.Close())
}

func TestPerfWriter_WindowRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "perf.csv")
	w, err := NewPerfWriter(path, "abc", 100*time.Millisecond)
	require.NoError(t, err)

	frame := FrameSample{Frame: 25 * time.Millisecond, Simulate: time.Millisecond, Render: 4 * time.Millisecond}
	var rows []*PerfRow
	for i := 0; i < 8; i++ {
		row, err := w.Record(frame, 1000, 4)
		require.NoError(t, err)
		if row != nil {
			rows = append(rows, row)
		}
	}
	require.NoError(t, w.Close())

	require.Len(t, rows, 2)
	assert.Equal(t, 0, rows[0].Window)
	assert.Equal(t, 1, rows[1].Window)
	assert.Equal(t, 4, rows[0].Frames)
	assert.InDelta(t, 40.0, rows[0].FPS, 1e-9)
	assert.InDelta(t, 25.0, rows[0].MeanFrameMs, 1e-9)
	assert.InDelta(t, 4.0, rows[0].RenderMs, 1e-9)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var parsed []PerfRow
	require.NoError(t, gocsv.UnmarshalFile(f, &parsed))
	require.Len(t, parsed, 2)
	assert.Equal(t, "abc", parsed[1].RunID)
	assert.Equal(t, uint32(1000), parsed[1].Particles)
	assert.Equal(t, uint32(4), parsed[1].SampleCount)
}
