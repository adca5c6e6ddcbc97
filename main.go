package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/smazurov/stripnode/cmd"
	"github.com/smazurov/stripnode/internal/animation"
	"github.com/smazurov/stripnode/internal/api"
	"github.com/smazurov/stripnode/internal/config"
	"github.com/smazurov/stripnode/internal/events"
	"github.com/smazurov/stripnode/internal/hardware"
	"github.com/smazurov/stripnode/internal/logging"
	"github.com/smazurov/stripnode/internal/loop"
	"github.com/smazurov/stripnode/internal/metrics"
	"github.com/smazurov/stripnode/internal/metrics/exporters"
	"github.com/smazurov/stripnode/internal/router"
	"github.com/smazurov/stripnode/internal/strip"
	"github.com/smazurov/stripnode/internal/systemd"
	"github.com/smazurov/stripnode/internal/transport"
	"github.com/smazurov/stripnode/internal/wire"
)

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"stripnode.toml"`

	// Control port
	Listen       string        `help:"Control port address" short:"l" default:":8080" toml:"server.listen" env:"SERVER_LISTEN"`
	TickRate     int           `help:"Main loop iterations per second" default:"50" toml:"server.tick_rate" env:"SERVER_TICK_RATE"`
	ByteBudget   int           `help:"Bytes read from a connection per iteration" default:"512" toml:"server.byte_budget" env:"SERVER_BYTE_BUDGET"`
	StallTimeout time.Duration `help:"Time a connection may take to send a full request" default:"2s" toml:"server.stall_timeout" env:"SERVER_STALL_TIMEOUT"`
	Backlog      int           `help:"Accepted connections waiting for the loop" default:"8" toml:"server.backlog" env:"SERVER_BACKLOG"`
	MaxPath      int           `help:"Maximum request path bytes" default:"128" toml:"server.max_path_bytes" env:"SERVER_MAX_PATH_BYTES"`
	MaxHeader    int           `help:"Maximum request header section bytes" default:"2048" toml:"server.max_header_bytes" env:"SERVER_MAX_HEADER_BYTES"`
	MaxBody      int           `help:"Maximum request body bytes" default:"256" toml:"server.max_body_bytes" env:"SERVER_MAX_BODY_BYTES"`

	// Strip hardware
	Pixels  int    `help:"Number of pixels on the strip" short:"n" default:"60" toml:"strip.pixels" env:"STRIP_PIXELS"`
	Backend string `help:"Strip backend (noop, memory, console, spi, ws2812)" short:"b" default:"noop" toml:"strip.backend" env:"STRIP_BACKEND"`
	SpiPort string `help:"SPI port for the spi backend, empty for the first" default:"" toml:"strip.spi_port" env:"STRIP_SPI_PORT"`
	DataPin int    `help:"Data pin for the ws2812 backend" default:"0" toml:"strip.data_pin" env:"STRIP_DATA_PIN"`

	// Boot state
	DefaultPower  bool          `help:"Power the strip on at boot" default:"false" toml:"defaults.power" env:"DEFAULTS_POWER"`
	DefaultMode   string        `help:"Mode at boot" default:"STATIC" toml:"defaults.mode" env:"DEFAULTS_MODE"`
	DefaultPeriod time.Duration `help:"Period of the boot mode, if periodic" default:"100ms" toml:"defaults.period" env:"DEFAULTS_PERIOD"`
	DefaultColor  string        `help:"Base color at boot as r,g,b" default:"255,255,255" toml:"defaults.color" env:"DEFAULTS_COLOR"`

	// Admin API
	AdminListen string `help:"Admin API address, empty to disable" default:"" toml:"admin.listen" env:"ADMIN_LISTEN"`

	// Logging settings
	LoggingLevel     string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat    string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingLoop      string `help:"Main loop logging level" default:"info" toml:"logging.loop" env:"LOGGING_LOOP"`
	LoggingRouter    string `help:"Router logging level" default:"info" toml:"logging.router" env:"LOGGING_ROUTER"`
	LoggingAnimation string `help:"Animation logging level" default:"info" toml:"logging.animation" env:"LOGGING_ANIMATION"`
	LoggingHardware  string `help:"Hardware logging level" default:"info" toml:"logging.hardware" env:"LOGGING_HARDWARE"`
	LoggingTransport string `help:"Transport logging level" default:"info" toml:"logging.transport" env:"LOGGING_TRANSPORT"`
	LoggingAdmin     string `help:"Admin API logging level" default:"info" toml:"logging.api" env:"LOGGING_API"`
}

func (o *Options) loggingConfig() logging.Config {
	return logging.Config{
		Level:  o.LoggingLevel,
		Format: o.LoggingFormat,
		Modules: map[string]string{
			"loop":      o.LoggingLoop,
			"router":    o.LoggingRouter,
			"animation": o.LoggingAnimation,
			"hardware":  o.LoggingHardware,
			"transport": o.LoggingTransport,
			"api":       o.LoggingAdmin,
		},
	}
}

func (o *Options) defaults() (strip.Defaults, error) {
	kind, ok := strip.LookupKind(o.DefaultMode)
	if !ok {
		return strip.Defaults{}, fmt.Errorf("%w: default mode %q", strip.ErrInvalidMode, o.DefaultMode)
	}
	mode := strip.Mode{Kind: kind}
	if kind.Periodic() {
		mode.Period = o.DefaultPeriod
	}
	c, err := strip.ParseColor(o.DefaultColor)
	if err != nil {
		return strip.Defaults{}, fmt.Errorf("default color: %w", err)
	}
	return strip.Defaults{Power: o.DefaultPower, Mode: mode, Color: c}, nil
}

func fatal(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, "error", err)
	os.Exit(1)
}

func main() {
	var root *cobra.Command

	cli := humacli.New(func(hooks humacli.Hooks, opts *Options) {
		// Load configuration automatically
		if loadErr := config.LoadConfig(opts, root); loadErr != nil {
			slog.Error("Failed to load config", "error", loadErr)
			os.Exit(1)
		}

		logging.Initialize(opts.loggingConfig())
		logger := logging.GetLogger("main")

		var (
			ctx, cancel = context.WithCancel(context.Background())
			loopDone    = make(chan struct{})
			eventBus    *events.Bus
			hw          hardware.Strip
			m           *metrics.Metrics
			server      *api.Server
			listener    *transport.Listener
			watcher     *config.Watcher[logging.Config]
			notifier    = systemd.NewNotifier(logger)
		)

		hooks.OnStart(func() {
			defer close(loopDone)

			if opts.TickRate <= 0 {
				fatal(logger, "Invalid tick rate", fmt.Errorf("tick rate must be positive, got %d", opts.TickRate))
			}
			defaults, err := opts.defaults()
			if err != nil {
				fatal(logger, "Invalid boot defaults", err)
			}
			state, err := strip.NewState(opts.Pixels, defaults)
			if err != nil {
				fatal(logger, "Invalid strip configuration", err)
			}

			eventBus = events.New()

			hw, err = hardware.New(hardware.Config{
				Backend:   opts.Backend,
				SPIPort:   opts.SpiPort,
				WS2812Pin: opts.DataPin,
			}, logging.GetLogger("hardware"))
			if err != nil {
				fatal(logger, "Failed to open strip", err)
			}
			engine, err := animation.NewEngine(state, hw)
			if err != nil {
				fatal(logger, "Failed to size strip", err)
			}

			r := router.New(state, eventBus, logging.GetLogger("router"))

			registry := prometheus.NewRegistry()
			registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			m = metrics.New(registry)
			m.Subscribe(eventBus)

			if opts.AdminListen != "" {
				server = api.NewServer(&api.Options{
					Bus:               eventBus,
					PrometheusHandler: exporters.HTTPHandler(registry),
				})
				go func() {
					if startErr := server.Start(opts.AdminListen); startErr != nil {
						logger.Error("Admin API server failed", "error", startErr)
					}
				}()
			}

			// Subscribers are in place, so the boot snapshot reaches all of them.
			eventBus.Publish(events.StateChangedEvent{
				Change:    events.ChangeBoot,
				State:     state.Snapshot(),
				Timestamp: time.Now(),
			})

			watcher = config.NewConfigWatcher(opts.Config, config.LoadLoggingConfig, logger)
			watcher.OnReload(func(cfg logging.Config) {
				logging.SetLevels(cfg.Level, cfg.Modules)
				logger.Info("Logging levels reloaded", "level", cfg.Level)
			})
			if watchErr := watcher.Start(); watchErr != nil {
				logger.Warn("Config hot reload disabled", "path", opts.Config, "error", watchErr)
			}

			listener, err = transport.Listen(opts.Listen, transport.Options{Backlog: opts.Backlog}, logging.GetLogger("transport"))
			if err != nil {
				fatal(logger, "Failed to open control port", err)
			}

			driver := loop.New(listener, r, engine, loop.Observers{m, notifier}, loop.Options{
				Limits: wire.Limits{
					MaxPathBytes:   opts.MaxPath,
					MaxHeaderBytes: opts.MaxHeader,
					MaxBodyBytes:   opts.MaxBody,
				},
				ByteBudget:   opts.ByteBudget,
				StallTimeout: opts.StallTimeout,
			}, logging.GetLogger("loop"))

			go notifier.RunWatchdog(ctx)
			notifier.Ready()
			notifier.Status(fmt.Sprintf("Driving %d pixels on %s", opts.Pixels, opts.Backend))
			logger.Info("stripnode started",
				"listen", listener.Addr().String(),
				"pixels", opts.Pixels,
				"backend", opts.Backend,
				"tick_rate", opts.TickRate,
				"routes", r.Routes())

			interval := time.Second / time.Duration(opts.TickRate)
			if runErr := driver.Run(ctx, interval); runErr != nil {
				logger.Error("Main loop failed", "error", runErr)
			}
		})

		hooks.OnStop(func() {
			logger.Info("Shutting down")
			notifier.Stopping()
			cancel()

			select {
			case <-loopDone:
			case <-time.After(5 * time.Second):
				logger.Warn("Main loop did not stop in time")
			}

			if server != nil {
				stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
				if stopErr := server.Stop(stopCtx); stopErr != nil {
					logger.Error("Error stopping admin API server", "error", stopErr)
				}
				stopCancel()
			}
			if watcher != nil {
				if stopErr := watcher.Stop(); stopErr != nil {
					logger.Warn("Error stopping config watcher", "error", stopErr)
				}
			}
			if listener != nil {
				if closeErr := listener.Close(); closeErr != nil {
					logger.Warn("Error closing control port", "error", closeErr)
				}
			}
			if m != nil {
				m.Stop()
			}
			if hw != nil {
				if closeErr := hw.Close(); closeErr != nil {
					logger.Warn("Error closing strip", "error", closeErr)
				}
			}
			if eventBus != nil {
				if closeErr := eventBus.Close(); closeErr != nil {
					logger.Warn("Error closing event bus", "error", closeErr)
				}
			}
		})
	})
	root = cli.Root()

	root.AddCommand(cmd.CreateModesCmd())
	root.AddCommand(cmd.CreateRenderCmd())
	root.AddCommand(cmd.CreateVersionCmd())

	// Run the CLI
	cli.Run()
}
