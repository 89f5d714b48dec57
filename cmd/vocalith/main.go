// Command vocalith is the dictation service entry point.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/MrWong99/vocalith/internal/config"
	"github.com/MrWong99/vocalith/internal/health"
	"github.com/MrWong99/vocalith/internal/observe"
	"github.com/MrWong99/vocalith/internal/speech"
	"github.com/MrWong99/vocalith/pkg/audio"
	"github.com/MrWong99/vocalith/pkg/engine"
	"github.com/MrWong99/vocalith/pkg/engine/vosk"
	"github.com/MrWong99/vocalith/pkg/engine/whisper"
	"github.com/MrWong99/vocalith/pkg/soniox"
	"github.com/MrWong99/vocalith/pkg/types"
)

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	listDevices := flag.Bool("list-devices", false, "list audio input devices and exit")
	testConn := flag.Bool("test-connection", false, "verify soniox credentials and exit")
	flag.Parse()

	if *listDevices {
		return runListDevices()
	}

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "vocalith: %v\n", err)
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	logger := newLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)

	if *testConn {
		return runTestConnection(cfg)
	}

	slog.Info("vocalith starting",
		"config", *configPath,
		"engine", cfg.Speech.Engine,
		"model_size", cfg.Speech.ModelSize,
		"log_level", cfg.Server.LogLevel,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Metrics provider ──────────────────────────────────────────────────────
	shutdownMetrics, err := observe.InitProvider(ctx, observe.ProviderConfig{})
	if err != nil {
		slog.Error("failed to initialise metrics", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownMetrics(shutdownCtx); err != nil {
			slog.Warn("metrics shutdown error", "err", err)
		}
	}()

	// ── Engine registry ───────────────────────────────────────────────────────
	reg := config.NewRegistry()
	registerBuiltinEngines(reg)

	var opts []speech.Option
	if cfg.Speech.Engine != config.EngineSoniox {
		eng, err := reg.CreateEngine(cfg)
		if err != nil {
			slog.Error("failed to create recognition engine", "engine", cfg.Speech.Engine, "err", err)
			if errors.Is(err, engine.ErrModelNotFound) {
				modelPath, _ := config.ModelPath(cfg.Speech)
				fmt.Fprintf(os.Stderr, "vocalith: model not found — download it to %s\n", modelPath)
			}
			return 1
		}
		defer eng.Close()
		opts = append(opts, speech.WithEngine(eng))
		slog.Info("engine loaded", "name", eng.Name())
	}

	manager := speech.NewManager(cfg, opts...)
	if err := manager.Start(ctx); err != nil {
		slog.Error("failed to start recognition", "err", err)
		return 1
	}

	// ── Config hot reload ─────────────────────────────────────────────────────
	if _, statErr := os.Stat(*configPath); statErr == nil {
		watcher, werr := config.NewWatcher(*configPath, func(_, new *config.Config, d config.ConfigDiff) {
			applyReload(manager, new, d)
		})
		if werr != nil {
			slog.Warn("config watcher disabled", "err", werr)
		} else {
			defer watcher.Stop()
		}
	}

	// ── Run loops ─────────────────────────────────────────────────────────────
	g, gctx := errgroup.WithContext(ctx)

	if cfg.Server.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		health.New(manager.State, health.Checker{
			Name: "recognition",
			Check: func(_ context.Context) error {
				if !manager.Running() {
					return errors.New("recognition session not running")
				}
				return nil
			},
		}).Register(mux)
		srv := &http.Server{Addr: cfg.Server.MetricsAddr, Handler: mux}

		g.Go(func() error {
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
		slog.Info("metrics listening", "addr", cfg.Server.MetricsAddr)
	}

	g.Go(func() error {
		return drainEvents(gctx, manager)
	})

	slog.Info("listening — press Ctrl+C to stop")

	err = g.Wait()
	manager.Stop()
	if err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

// drainEvents consumes the recognition event stream until ctx is cancelled.
// Finals and actions go to stdout so the binary can be piped; partials and
// diagnostics stay on stderr.
func drainEvents(ctx context.Context, manager *speech.Manager) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case r := <-manager.Results():
			switch r.Kind {
			case types.ResultFinal:
				fmt.Println(r.Text)
			case types.ResultAction:
				fmt.Printf("[action] %s\n", r.Action)
			case types.ResultPartial:
				fmt.Fprintf(os.Stderr, "… %s\n", r.Text)
			case types.ResultStateChange:
				slog.Debug("state changed", "state", r.State)
			case types.ResultError:
				return fmt.Errorf("recognition error: %s", r.Message)
			}
		}
	}
}

// applyReload pushes hot-reloadable config changes into the running manager
// and stages the full config for the next session. Changes that need a
// session restart are only reported.
func applyReload(manager *speech.Manager, new *config.Config, d config.ConfigDiff) {
	manager.UpdateConfig(new)
	if d.RestartRequired {
		slog.Warn("config change requires restart to take effect",
			"engine", new.Speech.Engine, "model_size", new.Speech.ModelSize)
	}
	if d.VADSensitivityChanged || d.SilenceTimeoutChanged {
		manager.Retune(new.Speech.VADSensitivity, new.Speech.SilenceTimeout)
		slog.Info("voice detection retuned",
			"sensitivity", new.Speech.VADSensitivity,
			"silence_timeout", new.Speech.SilenceTimeout)
	}
	if d.LogLevelChanged {
		slog.SetDefault(newLogger(d.NewLogLevel))
		slog.Info("log level changed", "level", d.NewLogLevel)
	}
}

// ── Engine wiring ─────────────────────────────────────────────────────────────

// registerBuiltinEngines wires the offline engine factories into reg. Each
// factory resolves the model path from the speech config at creation time.
func registerBuiltinEngines(reg *config.Registry) {
	reg.RegisterEngine(config.EngineVosk, func(cfg *config.Config) (engine.Engine, error) {
		path, err := config.ModelPath(cfg.Speech)
		if err != nil {
			return nil, err
		}
		return vosk.New(path)
	})

	reg.RegisterEngine(config.EngineWhisper, func(cfg *config.Config) (engine.Engine, error) {
		path, err := config.ModelPath(cfg.Speech)
		if err != nil {
			return nil, err
		}
		return whisper.New(path, whisper.WithLanguage(baseLanguage(cfg.Speech.Language)))
	})
}

// ── One-shot modes ────────────────────────────────────────────────────────────

func runListDevices() int {
	devices, err := audio.ListDevices()
	if err != nil {
		fmt.Fprintf(os.Stderr, "vocalith: %v\n", err)
		return 1
	}
	if len(devices) == 0 {
		fmt.Println("no audio input devices found")
		return 0
	}
	for _, d := range devices {
		marker := " "
		if d.Default {
			marker = "*"
		}
		fmt.Printf("%s %s (%d channels)\n", marker, d.Name, d.MaxInputChannels)
	}
	return 0
}

func runTestConnection(cfg *config.Config) int {
	if cfg.Soniox.APIKey == "" {
		fmt.Fprintln(os.Stderr, "vocalith: no soniox api key — set soniox.api_key or the SONIOX_API_KEY environment variable")
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := soniox.TestConnection(ctx, cfg.Soniox.APIKey); err != nil {
		fmt.Fprintf(os.Stderr, "vocalith: connection test failed: %v\n", err)
		return 1
	}
	fmt.Println("soniox connection ok")
	return 0
}

// ── Logger ────────────────────────────────────────────────────────────────────

func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// baseLanguage strips a region suffix, turning "en-us" into the bare "en"
// code that whisper expects.
func baseLanguage(lang string) string {
	base, _, _ := strings.Cut(lang, "-")
	return base
}
