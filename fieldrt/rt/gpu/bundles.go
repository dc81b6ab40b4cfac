package gpu

import (
	"errors"
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// ErrBundleMismatch is returned when a draw bundle would be recorded for a
// configuration other than the active render targets.
var ErrBundleMismatch = errors.New("draw bundle does not match render targets")

// DrawCall is everything recorded into one bundle.
type DrawCall struct {
	Name        string
	Pipeline    *Pipeline
	BindGroups  []*wgpu.BindGroup
	Vertices    *wgpu.Buffer
	VertexCount uint32
}

// Bundle is a pre-recorded draw, valid only for Key.
type Bundle struct {
	Name   string
	Key    TargetKey
	handle *wgpu.RenderBundle
}

func (b *Bundle) Release() {
	if b != nil && b.handle != nil {
		b.handle.Release()
		b.handle = nil
	}
}

// CheckKey fails with ErrBundleMismatch unless got equals want.
func CheckKey(name string, want, got TargetKey) error {
	if want != got {
		return fmt.Errorf("%w: %s built for %s, targets are %s", ErrBundleMismatch, name, got, want)
	}
	return nil
}

// RecordBundle validates the call against targets and records it.
func RecordBundle(device *wgpu.Device, targets TargetKey, call DrawCall) (*Bundle, error) {
	if call.Pipeline == nil {
		return nil, fmt.Errorf("bundle %s: no pipeline", call.Name)
	}
	if err := CheckKey(call.Name, targets, call.Pipeline.Key); err != nil {
		return nil, err
	}

	enc, err := device.CreateRenderBundleEncoder(&wgpu.RenderBundleEncoderDescriptor{
		Label:              call.Name,
		ColorFormats:       []wgpu.TextureFormat{targets.ColorFormat},
		DepthStencilFormat: targets.DepthFormat,
		SampleCount:        targets.SampleCount,
	})
	if err != nil {
		return nil, fmt.Errorf("bundle %s encoder: %w", call.Name, err)
	}
	defer enc.Release()

	enc.SetPipeline(call.Pipeline.Handle)
	for i, bg := range call.BindGroups {
		enc.SetBindGroup(uint32(i), bg, nil)
	}
	enc.SetVertexBuffer(0, call.Vertices, 0, wgpu.WholeSize)
	enc.Draw(call.VertexCount, 1, 0, 0)

	return &Bundle{
		Name:   call.Name,
		Key:    targets,
		handle: enc.Finish(&wgpu.RenderBundleDescriptor{Label: call.Name}),
	}, nil
}

// BundleSet holds the scene bundles in execution order.
type BundleSet struct {
	Key     TargetKey
	Bundles []*Bundle
}

// RecordBundles records calls in order; on failure nothing is kept.
func RecordBundles(device *wgpu.Device, targets TargetKey, calls ...DrawCall) (*BundleSet, error) {
	set := &BundleSet{Key: targets}
	for _, call := range calls {
		b, err := RecordBundle(device, targets, call)
		if err != nil {
			set.Release()
			return nil, err
		}
		set.Bundles = append(set.Bundles, b)
	}
	return set, nil
}

// Execute replays the set into pass. Keys were checked when recording.
func (s *BundleSet) Execute(pass *wgpu.RenderPassEncoder) {
	handles := make([]*wgpu.RenderBundle, 0, len(s.Bundles))
	for _, b := range s.Bundles {
		handles = append(handles, b.handle)
	}
	pass.ExecuteBundles(handles...)
}

// Names lists the bundles in execution order.
func (s *BundleSet) Names() []string {
	names := make([]string, len(s.Bundles))
	for i, b := range s.Bundles {
		names[i] = b.Name
	}
	return names
}

func (s *BundleSet) Release() {
	if s == nil {
		return
	}
	for _, b := range s.Bundles {
		b.Release()
	}
	s.Bundles = nil
}
