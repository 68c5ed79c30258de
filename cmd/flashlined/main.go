// Command flashlined is the flashline daemon. It owns a bounded, navigable
// status message buffer, serves it over HTTP and WebSocket, and renders it as
// an interactive terminal console when run on a TTY.
//
// Usage:
//
//	flashlined [--config path/to/flashline.yaml] [--headless]
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
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"

	"github.com/sneh-joshi/flashline/internal/bar"
	"github.com/sneh-joshi/flashline/internal/config"
	"github.com/sneh-joshi/flashline/internal/display"
	"github.com/sneh-joshi/flashline/internal/metrics"
	"github.com/sneh-joshi/flashline/internal/style"
	transphttp "github.com/sneh-joshi/flashline/internal/transport/http"
	"github.com/sneh-joshi/flashline/internal/tui"
	"github.com/sneh-joshi/flashline/internal/types"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "flashline: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "flashline.yaml", "path to config file")
	headless := flag.Bool("headless", false, "disable the terminal console even on a TTY")
	flag.Parse()

	// ── 1. Load configuration ────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// ── 2. Decide run mode ───────────────────────────────────────────────────
	// The console needs a real terminal; piping output or --headless turns
	// flashlined into a plain daemon.
	interactive := !*headless && cfg.UI.Enabled &&
		(isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()))

	// ── 3. Set up structured logger ──────────────────────────────────────────
	level := logLevel(cfg.Log.Level)
	logOut := os.Stdout
	if interactive {
		// The console owns stdout; bootstrap logs go to stderr until the
		// console's log pane takes over.
		logOut = os.Stderr
	}
	bootLogger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(bootLogger)
	logger := bootLogger

	// ── 4. Build the preset registry ─────────────────────────────────────────
	presets := style.NewRegistry()
	for name, p := range cfg.Bar.Presets {
		st := types.Style{Foreground: p.Foreground, Background: p.Background, Bold: p.Bold}
		if err := presets.Register(name, st); err != nil {
			return fmt.Errorf("register preset %q: %w", name, err)
		}
	}

	// ── 5. Initialise metrics registry ───────────────────────────────────────
	metricsReg := &metrics.Registry{}

	// ── 6. Assemble the bar ──────────────────────────────────────────────────
	b := bar.New(bar.Config{
		Capacity:        cfg.Bar.Capacity,
		PageSize:        cfg.Bar.PageSize,
		ExportDir:       cfg.Export.Dir,
		StrictDeleteAll: cfg.Bar.StrictDeleteAll,
		Timing: display.Config{
			ZeroTimeoutHoldMs: cfg.Bar.ZeroTimeoutHoldMs,
		},
	},
		bar.WithLogger(logger),
		bar.WithMetrics(metricsReg),
		bar.WithPresets(presets),
	)

	slog.Info("flashline starting",
		"capacity", cfg.Bar.Capacity,
		"page_size", cfg.Bar.PageSize,
		"export_enabled", cfg.Export.Dir != "",
		"console", interactive,
	)

	// ── 7. Prepare the terminal console ──────────────────────────────────────
	// The console program must exist before the transport so request logs can
	// be routed into its log pane instead of corrupting the display.
	var p *tea.Program
	if interactive {
		p = tea.NewProgram(tui.NewModel(b, cfg.UI.WaitingBackground), tea.WithAltScreen())
		logger = slog.New(tui.NewLogHandler(p, level))
		slog.SetDefault(logger)
		b.SetLogger(logger)
	}

	// ── 8. Start HTTP / WebSocket transport ──────────────────────────────────
	serveErr := make(chan error, 1)
	var srv *transphttp.Server
	if cfg.Server.Enabled {
		srv = transphttp.New(b, cfg, metricsReg, logger)
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		go func() {
			slog.Info("flashline ready", "addr", addr)
			if err := srv.ListenAndServe(addr); !errors.Is(err, http.ErrServerClosed) {
				serveErr <- err
			} else {
				serveErr <- nil
			}
		}()
	}

	// ── 9. Start dedicated Prometheus metrics listener ───────────────────────
	if cfg.Metrics.Enabled {
		metricsAddr := fmt.Sprintf(":%d", cfg.Metrics.Port)
		go func() {
			slog.Info("metrics server listening", "addr", metricsAddr)
			if err := http.ListenAndServe(metricsAddr, metricsReg.Handler()); err != nil {
				slog.Warn("metrics server error", "err", err)
			}
		}()
	}

	// ── 10. Run until the console exits, a signal, or a server error ─────────
	if interactive {
		err = runConsole(p, b, serveErr)
		slog.SetDefault(bootLogger)
		b.SetLogger(bootLogger)
	} else {
		err = waitHeadless(serveErr)
	}
	if err != nil {
		return err
	}

	// ── 11. Graceful shutdown ─────────────────────────────────────────────────
	// Give in-flight requests 5 seconds to complete.
	shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if srv != nil {
		if err := srv.Shutdown(shutCtx); err != nil {
			slog.Warn("server shutdown error", "err", err)
		}
	}
	b.Close()

	slog.Info("flashline stopped")
	return nil
}

// runConsole pumps bar events into the console program and blocks until the
// user quits or the HTTP server fails underneath it.
func runConsole(p *tea.Program, b *bar.Bar, serveErr <-chan error) error {
	events, cancel := b.Subscribe(64)
	defer cancel()
	go tui.Pump(p, events)

	srvFailed := make(chan error, 1)
	go func() {
		if err := <-serveErr; err != nil {
			srvFailed <- err
			p.Quit()
		}
	}()

	finalModel, err := p.Run()
	if err != nil {
		return fmt.Errorf("console: %w", err)
	}

	select {
	case err := <-srvFailed:
		return fmt.Errorf("http server: %w", err)
	default:
	}

	// Leave the last frame in scrollback so the final bar state survives the
	// alternate screen.
	if m, ok := finalModel.(*tui.Model); ok {
		fmt.Println(m.FinalView())
	}
	return nil
}

// waitHeadless blocks until SIGINT/SIGTERM or a server error.
func waitHeadless(serveErr <-chan error) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("shutting down", "signal", sig)
		return nil
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	}
}

func logLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
