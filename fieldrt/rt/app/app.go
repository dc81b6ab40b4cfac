package app

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pudnax/fidmag"
	"github.com/pudnax/fidmag/fieldrt/rt/core"
	"github.com/pudnax/fidmag/fieldrt/rt/field"
	"github.com/pudnax/fidmag/fieldrt/rt/gpu"
)

// App owns every GPU handle of the visualizer.
type App struct {
	Window   *glfw.Window
	Instance *wgpu.Instance
	Adapter  *wgpu.Adapter
	Device   *wgpu.Device
	Queue    *wgpu.Queue
	Surface  *wgpu.Surface
	Config   *wgpu.SurfaceConfiguration

	Cfg    *fidmag.Config
	Logger fidmag.Logger
	Rng    *rand.Rand

	Factory   *gpu.Factory
	Buffers   *gpu.BufferManager
	Targets   *gpu.RenderTargets
	Lifecycle *core.Lifecycle
	Key       gpu.TargetKey

	Compute map[core.Stage]*wgpu.ComputePipeline
	Draw    map[gpu.Variant]*gpu.Pipeline
	Bundles *gpu.BundleSet

	Camera   *core.OrbitCamera
	Volume   *field.Volume
	HUD      *HUD
	Profiler *Profiler
	FPS      FPSCounter

	Seed    float32
	pending *core.Step
	lastDt  float32
}

func NewApp(window *glfw.Window, cfg *fidmag.Config, logger fidmag.Logger) *App {
	if logger == nil {
		logger = fidmag.NewNopLogger()
	}
	c := cfg.Camera
	return &App{
		Window:   window,
		Cfg:      cfg,
		Logger:   logger,
		Camera:   core.NewOrbitCamera(c.Distance, c.Pitch, c.Yaw, c.FovDegrees, 1),
		HUD:      &HUD{Enabled: cfg.HUD},
		Profiler: NewProfiler(),
		Seed:     cfg.Particles.Seed,
		Compute:  make(map[core.Stage]*wgpu.ComputePipeline),
		Draw:     make(map[gpu.Variant]*gpu.Pipeline),
	}
}

func powerPreference(name string) wgpu.PowerPreference {
	if name == "low_power" {
		return wgpu.PowerPreferenceLowPower
	}
	return wgpu.PowerPreferenceHighPerformance
}

func presentMode(name string) wgpu.PresentMode {
	switch name {
	case "immediate":
		return wgpu.PresentModeImmediate
	case "mailbox":
		return wgpu.PresentModeMailbox
	}
	return wgpu.PresentModeFifo
}

func (a *App) Init() error {
	a.Instance = wgpu.CreateInstance(nil)
	a.Surface = a.Instance.CreateSurface(wgpuglfw.GetSurfaceDescriptor(a.Window))

	adapter, err := a.Instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: a.Surface,
		PowerPreference:   powerPreference(a.Cfg.GPU.PowerPreference),
	})
	if err != nil {
		return fmt.Errorf("request adapter: %w", err)
	}
	a.Adapter = adapter

	a.Device, err = adapter.RequestDevice(nil)
	if err != nil {
		return fmt.Errorf("request device: %w", err)
	}
	a.Queue = a.Device.GetQueue()

	width, height := a.Window.GetFramebufferSize()
	caps := a.Surface.GetCapabilities(adapter)
	if len(caps.Formats) == 0 || len(caps.AlphaModes) == 0 {
		return fmt.Errorf("surface reports no formats for this adapter")
	}
	a.Config = &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      caps.Formats[0],
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: presentMode(a.Cfg.GPU.PresentMode),
		AlphaMode:   caps.AlphaModes[0],
	}
	a.Key = gpu.NewTargetKey(a.Config.Format, a.Cfg.GPU.SampleCount)
	a.Logger.Infof("surface %dx%d, %s power, %s present, %s", width, height,
		a.Cfg.GPU.PowerPreference, a.Cfg.GPU.PresentMode, a.Key)

	a.Factory = gpu.NewFactory(a.Device)
	for stage, v := range map[core.Stage]gpu.Variant{
		core.StageSeed:        gpu.VariantSeed,
		core.StageSampleField: gpu.VariantSampleField,
		core.StageIntegrate:   gpu.VariantIntegrate,
	} {
		p, err := a.Factory.Compute(v)
		if err != nil {
			return err
		}
		a.Compute[stage] = p
	}

	a.Buffers = gpu.NewBufferManager(a.Device)
	if err := a.Buffers.UpdateCamera(a.Camera.ViewProj()); err != nil {
		return err
	}
	if err := a.Buffers.WriteParams(a.params(0, a.Seed)); err != nil {
		return err
	}
	if err := a.Buffers.CreateParticleStore(a.Cfg.Particles.Count); err != nil {
		return err
	}
	if err := a.bakeField(); err != nil {
		return err
	}
	if err := a.Buffers.UploadWireframe(core.CellWireframe()); err != nil {
		return err
	}
	if a.HUD.Enabled {
		if err := a.setupHUD(); err != nil {
			a.Logger.Warnf("HUD disabled: %v", err)
			a.HUD.Enabled = false
		}
	}
	if err := a.Buffers.CreateBindGroups(a.Factory); err != nil {
		return err
	}

	pipes, bundles, err := a.buildRenderState(a.Key)
	if err != nil {
		return err
	}
	a.Draw, a.Bundles = pipes, bundles
	a.Logger.Debugf("bundles %v recorded for %s", bundles.Names(), a.Key)

	a.Lifecycle = core.NewLifecycle(targetHooks{a})
	if err := a.Lifecycle.Resize(width, height); err != nil {
		return err
	}
	return a.Reseed(a.Seed)
}

func (a *App) bakeField() error {
	fc := a.Cfg.Field
	seed := fc.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	a.Rng = rand.New(rand.NewSource(seed))

	charges := field.RandomCharges(a.Rng, fc.Charges, fc.MaxCharge, fc.PositionRange)
	dims := field.Dims{Width: fc.Width, Height: fc.Height, Depth: fc.Depth}
	vol, err := field.Synthesize(charges, dims, field.Options{
		Softening:  fc.Softening,
		Turbulence: fc.Turbulence,
		NoiseSeed:  seed,
	})
	if err != nil {
		return fmt.Errorf("bake field: %w", err)
	}
	if err := a.Buffers.UploadField(vol); err != nil {
		return err
	}
	a.Volume = vol

	s := vol.Stats()
	a.Logger.Infof("field %s baked from %d charges (seed %d): |E| mean %.3g std %.3g max %.3g",
		dims, len(charges), seed, s.Mean, s.StdDev, s.Max)
	if a.Logger.DebugEnabled() {
		a.Logger.Debugf("field at cell center %v", vol.Sample(mgl32.Vec3{}))
	}
	return nil
}

func (a *App) setupHUD() error {
	atlas, err := core.NewTextAtlas(14)
	if err != nil {
		return err
	}
	if err := a.Buffers.UploadAtlas(atlas); err != nil {
		return err
	}
	a.HUD.Atlas = atlas
	return nil
}

func (a *App) params(dt, seed float32) core.SimParams {
	p := a.Cfg.Particles
	return core.SimParams{
		Seed:             seed,
		Dt:               dt,
		Count:            a.Buffers.ParticleCount,
		MaxLifetime:      p.MaxLifetime,
		RespawnThreshold: p.RespawnThreshold,
		Damping:          core.Damping(p.Drag, dt),
		FieldStrength:    p.FieldStrength,
		SpeedLimit:       p.SpeedLimit,
	}
}

// buildRenderState builds every draw pipeline and the scene bundles for key.
func (a *App) buildRenderState(key gpu.TargetKey) (map[gpu.Variant]*gpu.Pipeline, *gpu.BundleSet, error) {
	pipes := make(map[gpu.Variant]*gpu.Pipeline)
	release := func() {
		for _, p := range pipes {
			p.Release()
		}
	}
	for _, v := range []gpu.Variant{gpu.VariantDrawWireframe, gpu.VariantDrawParticles, gpu.VariantDrawOverlay} {
		if v == gpu.VariantDrawOverlay && !a.HUD.Enabled {
			continue
		}
		p, err := a.Factory.Render(v, key)
		if err != nil {
			release()
			return nil, nil, err
		}
		pipes[v] = p
	}

	bundles, err := gpu.RecordBundles(a.Device, key,
		gpu.DrawCall{
			Name:        "wireframe",
			Pipeline:    pipes[gpu.VariantDrawWireframe],
			BindGroups:  []*wgpu.BindGroup{a.Buffers.CameraBindGroup},
			Vertices:    a.Buffers.WireBuf,
			VertexCount: a.Buffers.WireVertexCount,
		},
		gpu.DrawCall{
			Name:        "particles",
			Pipeline:    pipes[gpu.VariantDrawParticles],
			BindGroups:  []*wgpu.BindGroup{a.Buffers.CameraBindGroup},
			Vertices:    a.Buffers.ParticleBuf,
			VertexCount: a.Buffers.ParticleCount,
		},
	)
	if err != nil {
		release()
		return nil, nil, err
	}
	return pipes, bundles, nil
}

type targetHooks struct{ a *App }

func (h targetHooks) ConfigureSurface(width, height uint32) error {
	h.a.Config.Width = width
	h.a.Config.Height = height
	h.a.Surface.Configure(h.a.Adapter, h.a.Device, h.a.Config)
	return nil
}

func (h targetHooks) RebuildTargets(width, height uint32) error {
	t, err := gpu.NewRenderTargets(h.a.Device, h.a.Key, width, height)
	if err != nil {
		return err
	}
	h.a.Targets.Release()
	h.a.Targets = t
	h.a.Logger.Debugf("render targets %dx%d (%s)", width, height, h.a.Key)
	return nil
}

func (h targetHooks) SetAspect(aspect float32) { h.a.Camera.SetAspect(aspect) }

// Resize follows the framebuffer size. Zero sizes (minimized) are ignored.
func (a *App) Resize(width, height int) error {
	return a.Lifecycle.Resize(width, height)
}

// Reconfigure re-applies the current surface size after a lost surface.
func (a *App) Reconfigure() error {
	return a.Lifecycle.Resize(int(a.Config.Width), int(a.Config.Height))
}

// SetSampleCount switches MSAA. Targets, draw pipelines and bundles are
// rebuilt together under the new key; on failure the old state stays.
func (a *App) SetSampleCount(n uint32) error {
	key := gpu.NewTargetKey(a.Key.ColorFormat, n)
	if key == a.Key {
		return nil
	}
	pipes, bundles, err := a.buildRenderState(key)
	if err != nil {
		return fmt.Errorf("sample count %d: %w", n, err)
	}

	oldKey := a.Key
	a.Key = key
	if err := a.Lifecycle.Rebuild(); err != nil {
		a.Key = oldKey
		bundles.Release()
		for _, p := range pipes {
			p.Release()
		}
		return fmt.Errorf("sample count %d: %w", n, err)
	}

	a.Bundles.Release()
	for _, p := range a.Draw {
		p.Release()
	}
	a.Draw, a.Bundles = pipes, bundles
	a.Logger.Infof("sample count %d", n)
	return nil
}

// Reseed rewrites every particle from seed in a standalone submission.
func (a *App) Reseed(seed float32) error {
	if err := a.Buffers.WriteParams(a.params(0, seed)); err != nil {
		return err
	}
	encoder, err := a.Device.CreateCommandEncoder(nil)
	if err != nil {
		return fmt.Errorf("seed encoder: %w", err)
	}
	defer encoder.Release()
	if err := a.dispatch(encoder, core.PlanSeed(a.Buffers.ParticleCount)); err != nil {
		return err
	}
	cmd, err := encoder.Finish(nil)
	if err != nil {
		return fmt.Errorf("seed finish: %w", err)
	}
	a.Queue.Submit(cmd)
	cmd.Release()
	a.Seed = seed
	if a.Logger.DebugEnabled() {
		first := core.SeedParticle(0, seed, a.Cfg.Particles.MaxLifetime)
		a.Logger.Debugf("seeded %d particles with %.4f, particle 0 at %v lifetime %.3f",
			a.Buffers.ParticleCount, seed, first.Pos, first.Lifetime)
	}
	return nil
}

func stageVariant(s core.Stage) gpu.Variant {
	switch s {
	case core.StageSampleField:
		return gpu.VariantSampleField
	case core.StageIntegrate:
		return gpu.VariantIntegrate
	}
	return gpu.VariantSeed
}

func (a *App) dispatch(encoder *wgpu.CommandEncoder, d core.Dispatch) error {
	pass := encoder.BeginComputePass(nil)
	pass.SetPipeline(a.Compute[d.Stage])
	for i, bg := range a.Buffers.ComputeBindGroups(stageVariant(d.Stage)) {
		pass.SetBindGroup(uint32(i), bg, nil)
	}
	pass.DispatchWorkgroups(d.Workgroups, 1, 1)
	if err := pass.End(); err != nil {
		return fmt.Errorf("%s pass: %w", d.Stage, err)
	}
	return nil
}

// encodeStep records the pending simulation step, if any, as compute passes.
func (a *App) encodeStep(encoder *wgpu.CommandEncoder) error {
	plan := core.PlanFrame(a.pending, a.Buffers.ParticleCount)
	a.Profiler.SetCount("dispatches", len(plan))
	if len(plan) == 0 {
		return nil
	}
	if err := a.Buffers.WriteParams(a.params(a.pending.Dt, a.pending.Seed)); err != nil {
		return err
	}
	for _, d := range plan {
		if err := a.dispatch(encoder, d); err != nil {
			return err
		}
	}
	return nil
}

// Simulate queues one step of dt seconds; it is encoded ahead of the next
// render pass. A later call before Render replaces the queued step.
func (a *App) Simulate(dt float32) {
	a.pending = &core.Step{Dt: dt, Seed: a.Rng.Float32()}
	a.lastDt = dt
}

// Update refreshes the camera uniform and the overlay text.
func (a *App) Update() {
	a.Profiler.BeginScope(ScopeUpdate)
	defer a.Profiler.EndScope(ScopeUpdate)

	if err := a.Buffers.UpdateCamera(a.Camera.ViewProj()); err != nil {
		a.Logger.Errorf("camera uniform: %v", err)
	}
	if !a.HUD.Enabled {
		return
	}
	text := FormatHUD(HUDStats{
		FPS:         a.FPS.FPS,
		Particles:   a.Buffers.ParticleCount,
		SampleCount: a.Key.SampleCount,
		Seed:        a.Seed,
		Dt:          a.lastDt,
	}, a.Profiler)
	if err := a.Buffers.UpdateText(a.HUD.Vertices(text, a.Config.Width, a.Config.Height)); err != nil {
		a.Logger.Warnf("overlay text: %v", err)
	}
}

// Render encodes the queued simulation step and the scene into one command
// buffer and presents it. Surface failures come back as *core.SurfaceError.
func (a *App) Render() error {
	if a.Targets == nil {
		// minimized since startup; nothing is configured to draw into
		return nil
	}
	a.Profiler.BeginScope(ScopeRender)
	defer a.Profiler.EndScope(ScopeRender)

	surfaceTex, err := a.Surface.GetCurrentTexture()
	if err != nil || surfaceTex == nil {
		return core.ClassifySurfaceError(err)
	}
	defer surfaceTex.Release()

	view, err := surfaceTex.CreateView(nil)
	if err != nil {
		return fmt.Errorf("surface view: %w", err)
	}
	defer view.Release()

	encoder, err := a.Device.CreateCommandEncoder(nil)
	if err != nil {
		return fmt.Errorf("frame encoder: %w", err)
	}
	defer encoder.Release()

	if err := a.Profiler.Time(ScopeSimulate, func() error {
		return a.encodeStep(encoder)
	}); err != nil {
		return err
	}

	rPass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments:       []wgpu.RenderPassColorAttachment{a.Targets.ColorAttachment(view)},
		DepthStencilAttachment: a.Targets.DepthAttachment(),
	})
	a.Bundles.Execute(rPass)

	if overlay := a.Draw[gpu.VariantDrawOverlay]; a.HUD.Enabled && overlay != nil && a.Buffers.TextVertexCount > 0 {
		rPass.SetPipeline(overlay.Handle)
		rPass.SetBindGroup(0, a.Buffers.AtlasBindGroup, nil)
		rPass.SetVertexBuffer(0, a.Buffers.TextBuf, 0, wgpu.WholeSize)
		rPass.Draw(a.Buffers.TextVertexCount, 1, 0, 0)
	}
	if err := rPass.End(); err != nil {
		return fmt.Errorf("render pass: %w", err)
	}

	cmd, err := encoder.Finish(nil)
	if err != nil {
		return fmt.Errorf("frame finish: %w", err)
	}
	a.Queue.Submit(cmd)
	cmd.Release()
	a.Surface.Present()
	a.pending = nil
	return nil
}

func (a *App) Release() {
	if a.Bundles != nil {
		a.Bundles.Release()
	}
	for _, p := range a.Draw {
		p.Release()
	}
	for _, p := range a.Compute {
		p.Release()
	}
	a.Targets.Release()
	if a.Buffers != nil {
		a.Buffers.Release()
	}
	if a.Factory != nil {
		a.Factory.Release()
	}
	if a.Device != nil {
		a.Device.Release()
	}
	if a.Adapter != nil {
		a.Adapter.Release()
	}
	if a.Surface != nil {
		a.Surface.Release()
	}
	if a.Instance != nil {
		a.Instance.Release()
	}
}
