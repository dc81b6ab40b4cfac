package gpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

const DepthFormat = wgpu.TextureFormatDepth32Float

// TargetKey identifies the attachment configuration pipelines and bundles
// are compiled against.
type TargetKey struct {
	ColorFormat wgpu.TextureFormat
	DepthFormat wgpu.TextureFormat
	SampleCount uint32
}

func NewTargetKey(color wgpu.TextureFormat, sampleCount uint32) TargetKey {
	if sampleCount == 0 {
		sampleCount = 1
	}
	return TargetKey{ColorFormat: color, DepthFormat: DepthFormat, SampleCount: sampleCount}
}

func (k TargetKey) String() string {
	return fmt.Sprintf("color=%v depth=%v samples=%d", k.ColorFormat, k.DepthFormat, k.SampleCount)
}

// Multisampled reports whether drawing goes to an MSAA target resolved into
// the surface.
func (k TargetKey) Multisampled() bool { return k.SampleCount > 1 }

// RenderTargets are the size-dependent attachments: depth always, and a
// multisampled color target when the key asks for one.
type RenderTargets struct {
	Key    TargetKey
	Width  uint32
	Height uint32

	Depth     *wgpu.Texture
	DepthView *wgpu.TextureView
	MSAA      *wgpu.Texture
	MSAAView  *wgpu.TextureView
}

// NewRenderTargets is the single constructor for attachments, used at init,
// on resize and on sample count changes.
func NewRenderTargets(device *wgpu.Device, key TargetKey, width, height uint32) (*RenderTargets, error) {
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("render targets %dx%d: empty size", width, height)
	}
	t := &RenderTargets{Key: key, Width: width, Height: height}
	size := wgpu.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1}

	var err error
	t.Depth, err = device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "depth",
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   key.SampleCount,
		Dimension:     wgpu.TextureDimension2D,
		Format:        key.DepthFormat,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		return nil, fmt.Errorf("depth texture: %w", err)
	}
	t.DepthView, err = t.Depth.CreateView(nil)
	if err != nil {
		t.Release()
		return nil, fmt.Errorf("depth view: %w", err)
	}

	if key.Multisampled() {
		t.MSAA, err = device.CreateTexture(&wgpu.TextureDescriptor{
			Label:         "msaa color",
			Size:          size,
			MipLevelCount: 1,
			SampleCount:   key.SampleCount,
			Dimension:     wgpu.TextureDimension2D,
			Format:        key.ColorFormat,
			Usage:         wgpu.TextureUsageRenderAttachment,
		})
		if err != nil {
			t.Release()
			return nil, fmt.Errorf("msaa texture: %w", err)
		}
		t.MSAAView, err = t.MSAA.CreateView(nil)
		if err != nil {
			t.Release()
			return nil, fmt.Errorf("msaa view: %w", err)
		}
	}
	return t, nil
}

// ClearColor is the background of every frame.
var ClearColor = wgpu.Color{R: 0.1, G: 0.1, B: 0.1, A: 1}

// ColorAttachment draws into the MSAA target resolving into surface, or into
// surface directly when single-sampled.
func (t *RenderTargets) ColorAttachment(surface *wgpu.TextureView) wgpu.RenderPassColorAttachment {
	att := wgpu.RenderPassColorAttachment{
		View:       surface,
		LoadOp:     wgpu.LoadOpClear,
		StoreOp:    wgpu.StoreOpStore,
		ClearValue: ClearColor,
	}
	if t.MSAAView != nil {
		att.View = t.MSAAView
		att.ResolveTarget = surface
		att.StoreOp = wgpu.StoreOpDiscard
	}
	return att
}

func (t *RenderTargets) DepthAttachment() *wgpu.RenderPassDepthStencilAttachment {
	return &wgpu.RenderPassDepthStencilAttachment{
		View:            t.DepthView,
		DepthLoadOp:     wgpu.LoadOpClear,
		DepthStoreOp:    wgpu.StoreOpStore,
		DepthClearValue: 1.0,
	}
}

func (t *RenderTargets) Release() {
	if t == nil {
		return
	}
	if t.MSAAView != nil {
		t.MSAAView.Release()
		t.MSAAView = nil
	}
	if t.MSAA != nil {
		t.MSAA.Release()
		t.MSAA = nil
	}
	if t.DepthView != nil {
		t.DepthView.Release()
		t.DepthView = nil
	}
	if t.Depth != nil {
		t.Depth.Release()
		t.Depth = nil
	}
}
