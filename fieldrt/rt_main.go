package main

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/pudnax/fidmag"
	"github.com/pudnax/fidmag/fieldrt/rt/app"
	"github.com/pudnax/fidmag/fieldrt/rt/core"
)

func init() {
	runtime.LockOSThread()
}

var (
	configFile  string
	writeConfig string
	particles   uint32
	sampleCount uint32
	fixedDt     float32
	debug       bool
	hud         bool
	perfCSV     string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "fieldrt",
		Short:         "GPU particles advected through a baked electric field",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}
	rootCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.Flags().StringVar(&writeConfig, "write-config", "", "write the effective config to this path and exit")
	rootCmd.Flags().Uint32Var(&particles, "particles", 0, "particle count (overrides config)")
	rootCmd.Flags().Uint32Var(&sampleCount, "sample-count", 0, "MSAA sample count, 1 or 4 (overrides config)")
	rootCmd.Flags().Float32Var(&fixedDt, "fixed-dt", 0, "fixed simulation step in seconds (overrides config)")
	rootCmd.Flags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.Flags().BoolVar(&hud, "hud", false, "show the stats overlay")
	rootCmd.Flags().StringVar(&perfCSV, "perf-csv", "", "append per-second frame stats to this CSV file")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "fieldrt:", err)
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) (*fidmag.Config, error) {
	cfg, err := fidmag.LoadConfig(configFile)
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("particles") {
		cfg.Particles.Count = particles
	}
	if flags.Changed("sample-count") {
		cfg.GPU.SampleCount = sampleCount
	}
	if flags.Changed("fixed-dt") {
		cfg.Sim.FixedDt = fixedDt
	}
	if flags.Changed("debug") {
		cfg.Debug = debug
	}
	if flags.Changed("hud") {
		cfg.HUD = hud
	}
	if flags.Changed("perf-csv") {
		cfg.Telemetry.PerfCSV = perfCSV
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if writeConfig != "" {
		return cfg.WriteYAML(writeConfig)
	}

	runID := uuid.NewString()
	logger := fidmag.NewDefaultLogger(fidmag.RunPrefix("fieldrt", runID), cfg.Debug)

	if err := glfw.Init(); err != nil {
		return fmt.Errorf("glfw init: %w", err)
	}
	defer glfw.Terminate()

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	window, err := glfw.CreateWindow(cfg.Window.Width, cfg.Window.Height, cfg.Window.Title, nil, nil)
	if err != nil {
		return fmt.Errorf("create window: %w", err)
	}
	defer window.Destroy()

	application := app.NewApp(window, cfg, logger)
	defer application.Release()
	if err := application.Init(); err != nil {
		return fmt.Errorf("init: %w", err)
	}

	perf, err := fidmag.NewPerfWriter(cfg.Telemetry.PerfCSV, runID, time.Second)
	if err != nil {
		return err
	}
	defer perf.Close()

	bindInput(window, application, cfg, logger)

	clock := fidmag.NewFrameClock()
	limiter := fidmag.NewLimiter(cfg.Sim.TargetFPS)
	for !window.ShouldClose() {
		glfw.PollEvents()

		frame := clock.Tick()
		application.FPS.Tick(frame.Seconds())
		application.Update()
		application.Simulate(clock.Step(cfg.Sim.FixedDt, cfg.Sim.MaxDt))

		if err := present(application, logger); err != nil {
			return err
		}

		sample := fidmag.FrameSample{
			Frame:    frame,
			Simulate: application.Profiler.Scope(app.ScopeSimulate),
			Render:   application.Profiler.Scope(app.ScopeRender),
		}
		if _, err := perf.Record(sample, application.Buffers.ParticleCount, application.Key.SampleCount); err != nil {
			logger.Warnf("perf telemetry: %v", err)
		}
		limiter.Wait()
	}
	return nil
}

// present renders one frame. Only fatal surface errors are returned.
func present(application *app.App, logger fidmag.Logger) error {
	err := application.Render()
	if err == nil {
		return nil
	}

	var se *core.SurfaceError
	if !errors.As(err, &se) {
		logger.Errorf("render: %v", err)
		return nil
	}
	switch {
	case se.Status.Recoverable():
		logger.Debugf("surface %s, reconfiguring", se.Status)
		if err := application.Reconfigure(); err != nil {
			logger.Errorf("reconfigure: %v", err)
		}
	case se.Status.Fatal():
		return fmt.Errorf("render: %w", se)
	default:
		logger.Warnf("surface %s: %v", se.Status, se.Err)
	}
	return nil
}

func bindInput(window *glfw.Window, application *app.App, cfg *fidmag.Config, logger fidmag.Logger) {
	window.SetFramebufferSizeCallback(func(w *glfw.Window, width, height int) {
		if err := application.Resize(width, height); err != nil {
			logger.Errorf("resize %dx%d: %v", width, height, err)
		}
	})

	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if action != glfw.Press {
			return
		}
		switch key {
		case glfw.KeyEscape:
			w.SetShouldClose(true)
		case glfw.KeyM:
			next := uint32(4)
			if application.Key.SampleCount > 1 {
				next = 1
			}
			if err := application.SetSampleCount(next); err != nil {
				logger.Errorf("msaa: %v", err)
			}
		case glfw.KeyR:
			if err := application.Reseed(application.Rng.Float32()); err != nil {
				logger.Errorf("reseed: %v", err)
			}
		}
	})

	var dragging bool
	var lastX, lastY float64
	window.SetMouseButtonCallback(func(w *glfw.Window, button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
		if button != glfw.MouseButtonLeft {
			return
		}
		dragging = action == glfw.Press
		lastX, lastY = w.GetCursorPos()
	})
	window.SetCursorPosCallback(func(w *glfw.Window, xpos, ypos float64) {
		if dragging {
			speed := cfg.Camera.RotateSpeed
			application.Camera.Orbit(float32(xpos-lastX)*speed, float32(ypos-lastY)*speed)
		}
		lastX, lastY = xpos, ypos
	})
	window.SetScrollCallback(func(w *glfw.Window, xoff, yoff float64) {
		// one wheel notch is reported as 1; scale to the same units as pixels
		application.Camera.Zoom(float32(yoff*100) * cfg.Camera.ZoomSpeed)
	})
}
