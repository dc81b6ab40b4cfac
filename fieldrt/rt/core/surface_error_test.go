package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifySurfaceError(t *testing.T) {
	tests := []struct {
		msg         string
		want        SurfaceStatus
		recoverable bool
		fatal       bool
	}{
		{"Surface texture status: Lost", SurfaceLost, true, false},
		{"surface OUTDATED", SurfaceOutdated, true, false},
		{"OutOfMemory", SurfaceOutOfMemory, false, true},
		{"device lost: driver reset", SurfaceDeviceLost, false, true},
		{"Timeout", SurfaceTimeout, false, false},
		{"something odd", SurfaceOther, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			se := ClassifySurfaceError(errors.New(tt.msg))
			assert.Equal(t, tt.want, se.Status)
			assert.Equal(t, tt.recoverable, se.Status.Recoverable())
			assert.Equal(t, tt.fatal, se.Status.Fatal())
		})
	}
}

func TestClassifySurfaceError_Nil(t *testing.T) {
	se := ClassifySurfaceError(nil)
	assert.Equal(t, SurfaceTimeout, se.Status)
	assert.Equal(t, "surface timeout", se.Error())
}

func TestSurfaceError_Wrapping(t *testing.T) {
	base := errors.New("lost")
	se := ClassifySurfaceError(base)
	wrapped := fmt.Errorf("render: %w", se)

	assert.ErrorIs(t, wrapped, base)
	assert.Same(t, se, ClassifySurfaceError(wrapped))
}
