package gpu

import (
	"errors"
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pudnax/fidmag/fieldrt/rt/core"
	"github.com/pudnax/fidmag/fieldrt/rt/field"
)

// ErrStoreFixed is returned when the particle store is asked to change size.
var ErrStoreFixed = errors.New("particle store capacity is fixed")

const textHeadroom = 16 * 1024

// BufferManager owns every GPU buffer, texture and bind group of the
// visualizer. It is held by exactly one App.
type BufferManager struct {
	Device *wgpu.Device

	CameraBuf   *wgpu.Buffer
	ParamsBuf   *wgpu.Buffer
	ParticleBuf *wgpu.Buffer
	WireBuf     *wgpu.Buffer
	TextBuf     *wgpu.Buffer

	FieldTex  *wgpu.Texture
	FieldView *wgpu.TextureView
	FieldDims field.Dims

	AtlasTex  *wgpu.Texture
	AtlasView *wgpu.TextureView
	Sampler   *wgpu.Sampler

	CameraBindGroup   *wgpu.BindGroup
	ParticleBindGroup *wgpu.BindGroup
	ParamsBindGroup   *wgpu.BindGroup
	FieldBindGroup    *wgpu.BindGroup
	AtlasBindGroup    *wgpu.BindGroup

	ParticleCount   uint32
	WireVertexCount uint32
	TextVertexCount uint32
}

func NewBufferManager(device *wgpu.Device) *BufferManager {
	return &BufferManager{Device: device}
}

func (m *BufferManager) ensureBuffer(name string, buf **wgpu.Buffer, data []byte, usage wgpu.BufferUsage, headroom int) (bool, error) {
	neededSize := uint64(len(data) + headroom)
	if neededSize%4 != 0 {
		neededSize += 4 - (neededSize % 4)
	}

	current := *buf
	if current == nil || current.GetSize() < neededSize {
		if current != nil {
			current.Release()
		}
		newBuf, err := m.Device.CreateBuffer(&wgpu.BufferDescriptor{
			Label:            name,
			Size:             neededSize,
			Usage:            usage | wgpu.BufferUsageCopyDst,
			MappedAtCreation: false,
		})
		if err != nil {
			*buf = nil
			return false, fmt.Errorf("create %s: %w", name, err)
		}
		*buf = newBuf
		if len(data) > 0 {
			m.Device.GetQueue().WriteBuffer(*buf, 0, data)
		}
		return true, nil
	}

	if len(data) > 0 {
		m.Device.GetQueue().WriteBuffer(current, 0, data)
	}
	return false, nil
}

// UpdateCamera overwrites the whole camera uniform.
func (m *BufferManager) UpdateCamera(viewProj mgl32.Mat4) error {
	_, err := m.ensureBuffer("Camera", &m.CameraBuf, core.CameraUniform(viewProj), wgpu.BufferUsageUniform, 0)
	return err
}

func (m *BufferManager) WriteParams(p core.SimParams) error {
	_, err := m.ensureBuffer("SimParams", &m.ParamsBuf, p.Bytes(), wgpu.BufferUsageUniform, 0)
	return err
}

// CreateParticleStore allocates room for n particles. The contents are
// written only by the seed pass. Asking for a different n later fails.
func (m *BufferManager) CreateParticleStore(n uint32) error {
	if n == 0 {
		return fmt.Errorf("particle store: zero capacity")
	}
	if m.ParticleBuf != nil {
		if n != m.ParticleCount {
			return fmt.Errorf("%w: have %d, asked for %d", ErrStoreFixed, m.ParticleCount, n)
		}
		return nil
	}
	buf, err := m.Device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Particles",
		Size:  uint64(n) * core.ParticleSize,
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageVertex,
	})
	if err != nil {
		return fmt.Errorf("create particle store: %w", err)
	}
	m.ParticleBuf = buf
	m.ParticleCount = n
	return nil
}

// UploadField replaces the field texture with vol. The previous texture is
// released whole; bind groups referencing it must be rebuilt.
func (m *BufferManager) UploadField(vol *field.Volume) error {
	d := vol.Dims
	if d.Len() == 0 {
		return fmt.Errorf("upload field %s: %w", d, field.ErrInvalidDims)
	}
	size := wgpu.Extent3D{Width: uint32(d.Width), Height: uint32(d.Height), DepthOrArrayLayers: uint32(d.Depth)}
	tex, err := m.Device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "Field",
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension3D,
		Format:        wgpu.TextureFormatRGBA32Float,
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create field texture: %w", err)
	}
	err = m.Device.GetQueue().WriteTexture(tex.AsImageCopy(), vol.Bytes(), &wgpu.TextureDataLayout{
		Offset:       0,
		BytesPerRow:  uint32(d.Width) * 16,
		RowsPerImage: uint32(d.Height),
	}, &size)
	if err != nil {
		tex.Release()
		return fmt.Errorf("write field texture: %w", err)
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return fmt.Errorf("field view: %w", err)
	}

	m.releaseField()
	m.FieldTex, m.FieldView, m.FieldDims = tex, view, d
	return nil
}

func (m *BufferManager) releaseField() {
	if m.FieldBindGroup != nil {
		m.FieldBindGroup.Release()
		m.FieldBindGroup = nil
	}
	if m.FieldView != nil {
		m.FieldView.Release()
		m.FieldView = nil
	}
	if m.FieldTex != nil {
		m.FieldTex.Release()
		m.FieldTex = nil
	}
}

func (m *BufferManager) UploadWireframe(verts []core.WireVertex) error {
	_, err := m.ensureBuffer("Wireframe", &m.WireBuf, core.WireVertexBytes(verts), wgpu.BufferUsageVertex, 0)
	if err != nil {
		return err
	}
	m.WireVertexCount = uint32(len(verts))
	return nil
}

func (m *BufferManager) UploadAtlas(atlas *core.TextAtlas) error {
	w, h := atlas.Image.Bounds().Dx(), atlas.Image.Bounds().Dy()
	size := wgpu.Extent3D{Width: uint32(w), Height: uint32(h), DepthOrArrayLayers: 1}
	tex, err := m.Device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "Text Atlas",
		Size:          size,
		Format:        wgpu.TextureFormatR8Unorm,
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Dimension:     wgpu.TextureDimension2D,
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return fmt.Errorf("create atlas: %w", err)
	}
	err = m.Device.GetQueue().WriteTexture(tex.AsImageCopy(), atlas.Image.Pix, &wgpu.TextureDataLayout{
		Offset:       0,
		BytesPerRow:  uint32(atlas.Image.Stride),
		RowsPerImage: uint32(h),
	}, &size)
	if err != nil {
		tex.Release()
		return fmt.Errorf("write atlas: %w", err)
	}
	m.AtlasTex = tex
	m.AtlasView, err = tex.CreateView(nil)
	if err != nil {
		return fmt.Errorf("atlas view: %w", err)
	}
	m.Sampler, err = m.Device.CreateSampler(&wgpu.SamplerDescriptor{
		MinFilter:     wgpu.FilterModeLinear,
		MagFilter:     wgpu.FilterModeLinear,
		MaxAnisotropy: 1,
	})
	if err != nil {
		return fmt.Errorf("atlas sampler: %w", err)
	}
	return nil
}

// UpdateText uploads this frame's overlay vertices. The buffer only grows.
func (m *BufferManager) UpdateText(verts []core.TextVertex) error {
	m.TextVertexCount = uint32(len(verts))
	if len(verts) == 0 {
		return nil
	}
	_, err := m.ensureBuffer("Text VB", &m.TextBuf, core.TextVertexBytes(verts), wgpu.BufferUsageVertex, textHeadroom)
	return err
}

func (m *BufferManager) bindGroup(f *Factory, v Variant, group int, label string, entries ...wgpu.BindGroupEntry) (*wgpu.BindGroup, error) {
	layout, err := f.GroupLayout(v, group)
	if err != nil {
		return nil, err
	}
	bg, err := m.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   label,
		Layout:  layout,
		Entries: entries,
	})
	if err != nil {
		return nil, fmt.Errorf("bind group %s: %w", label, err)
	}
	return bg, nil
}

// CreateBindGroups (re)builds every bind group whose resources exist.
func (m *BufferManager) CreateBindGroups(f *Factory) error {
	var err error
	release := func(bg **wgpu.BindGroup) {
		if *bg != nil {
			(*bg).Release()
			*bg = nil
		}
	}

	if m.CameraBuf != nil {
		release(&m.CameraBindGroup)
		m.CameraBindGroup, err = m.bindGroup(f, VariantDrawParticles, 0, "Camera",
			wgpu.BindGroupEntry{Binding: 0, Buffer: m.CameraBuf, Size: wgpu.WholeSize})
		if err != nil {
			return err
		}
	}
	if m.ParticleBuf != nil {
		release(&m.ParticleBindGroup)
		m.ParticleBindGroup, err = m.bindGroup(f, VariantSeed, 0, "Particles",
			wgpu.BindGroupEntry{Binding: 0, Buffer: m.ParticleBuf, Size: wgpu.WholeSize})
		if err != nil {
			return err
		}
	}
	if m.ParamsBuf != nil {
		release(&m.ParamsBindGroup)
		m.ParamsBindGroup, err = m.bindGroup(f, VariantSeed, 1, "SimParams",
			wgpu.BindGroupEntry{Binding: 0, Buffer: m.ParamsBuf, Size: wgpu.WholeSize})
		if err != nil {
			return err
		}
	}
	if m.FieldView != nil {
		release(&m.FieldBindGroup)
		m.FieldBindGroup, err = m.bindGroup(f, VariantSampleField, 2, "Field",
			wgpu.BindGroupEntry{Binding: 0, TextureView: m.FieldView})
		if err != nil {
			return err
		}
	}
	if m.AtlasView != nil && m.Sampler != nil {
		release(&m.AtlasBindGroup)
		m.AtlasBindGroup, err = m.bindGroup(f, VariantDrawOverlay, 0, "Text Atlas",
			wgpu.BindGroupEntry{Binding: 0, TextureView: m.AtlasView},
			wgpu.BindGroupEntry{Binding: 1, Sampler: m.Sampler})
		if err != nil {
			return err
		}
	}
	return nil
}

// ComputeBindGroups lists the bind groups of a compute variant by index.
func (m *BufferManager) ComputeBindGroups(v Variant) []*wgpu.BindGroup {
	groups := []*wgpu.BindGroup{m.ParticleBindGroup, m.ParamsBindGroup}
	if v == VariantSampleField {
		groups = append(groups, m.FieldBindGroup)
	}
	return groups
}

func (m *BufferManager) Release() {
	for _, bg := range []**wgpu.BindGroup{&m.CameraBindGroup, &m.ParticleBindGroup, &m.ParamsBindGroup, &m.AtlasBindGroup} {
		if *bg != nil {
			(*bg).Release()
			*bg = nil
		}
	}
	m.releaseField()
	for _, buf := range []**wgpu.Buffer{&m.CameraBuf, &m.ParamsBuf, &m.ParticleBuf, &m.WireBuf, &m.TextBuf} {
		if *buf != nil {
			(*buf).Release()
			*buf = nil
		}
	}
	if m.AtlasView != nil {
		m.AtlasView.Release()
		m.AtlasView = nil
	}
	if m.AtlasTex != nil {
		m.AtlasTex.Release()
		m.AtlasTex = nil
	}
	if m.Sampler != nil {
		m.Sampler.Release()
		m.Sampler = nil
	}
	m.ParticleCount = 0
}
