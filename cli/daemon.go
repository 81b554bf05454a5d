package cli

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/netresearch/loadedhandler/config"
	"github.com/netresearch/loadedhandler/handler"
	"github.com/netresearch/loadedhandler/host"
	"github.com/netresearch/loadedhandler/metrics"
	"github.com/netresearch/loadedhandler/plugin"
	"github.com/netresearch/loadedhandler/transport"
)

// DaemonCommand runs the Loaded Handler daemon: it loads the config file,
// builds one Handler per section via the plugin Registry, mounts a
// transport.HTTPBinding per handler plus a /metrics and /report endpoint,
// and blocks until a termination signal arrives. Adapted from the
// teacher's cli/daemon.go boot/start/shutdown split.
type DaemonCommand struct {
	ConfigFile string `long:"config" env:"LOADEDHANDLER_CONFIG" description:"Config file path" default:"/etc/loadedhandler/config.ini"`
	ListenAddr string `long:"listen-address" env:"LOADEDHANDLER_LISTEN_ADDRESS" description:"HTTP listen address" default:":8090"`
	LogLevel   string `long:"log-level" env:"LOADEDHANDLER_LOG_LEVEL" description:"Log level (trace,debug,info,warn,error)"`

	Logger   *slog.Logger
	LevelVar *slog.LevelVar

	Registry *plugin.Registry

	mux          *host.Multiplexer
	collector    *metrics.Collector
	httpServer   *http.Server
	loadedConfig *config.File
	reloadStop   chan struct{}
}

// Execute runs boot, start, and shutdown in sequence.
func (c *DaemonCommand) Execute(_ []string) error {
	if err := c.boot(); err != nil {
		return err
	}
	if err := c.start(); err != nil {
		return err
	}
	return c.shutdown()
}

func (c *DaemonCommand) boot() error {
	if err := ApplyLogLevel(c.LogLevel, c.LevelVar); err != nil {
		return err
	}

	if c.Registry == nil {
		c.Registry = defaultRegistry()
	}

	file, err := config.Load(c.ConfigFile)
	if err != nil {
		c.Logger.Error(fmt.Sprintf("could not load config %q: %v", c.ConfigFile, err))
		return fmt.Errorf("cli: loading config: %w", err)
	}
	c.loadedConfig = file

	c.collector = metrics.NewCollector()
	c.mux = host.New(handlerLogger(c.LogLevel), c.collector)

	mux := http.NewServeMux()
	mux.Handle("/metrics", c.collector.Handler())
	mux.HandleFunc("/report", c.reportHandler)

	for name, settings := range file.Handlers {
		init := &staticInitializer{settings: *settings}
		h, _, err := plugin.Build(handler.JobScriptDescriptor{PackageName: "loadedhandlerd"}, init, c.Registry, handlerLogger(c.LogLevel))
		if err != nil {
			c.Logger.Error(fmt.Sprintf("handler %q failed to initialize: %v", name, err))
			continue
		}

		if err := c.mux.Add(h); err != nil {
			c.Logger.Error(fmt.Sprintf("handler %q: %v", name, err))
			continue
		}

		mux.Handle("/"+name+"/", http.StripPrefix("/"+name, transport.NewHTTPBinding(h).Mux()))
		c.Logger.Info(fmt.Sprintf("registered handler %q as %s", name, h.FullName()))
	}

	c.httpServer = &http.Server{
		Addr:              c.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return nil
}

func (c *DaemonCommand) start() error {
	ln, err := net.Listen("tcp", c.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("cli: listening on %s: %w", c.httpServer.Addr, err)
	}

	go func() {
		if err := c.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			c.Logger.Error(fmt.Sprintf("http server error: %v", err))
		}
	}()

	c.Logger.Info(fmt.Sprintf("loadedhandlerd listening on %s", c.httpServer.Addr))

	c.reloadStop = make(chan struct{})
	hupChan := make(chan os.Signal, 1)
	signal.Notify(hupChan, syscall.SIGHUP)
	go c.watchReload(hupChan)
	go c.pollMetrics()

	return nil
}

// metricsPollInterval is the cadence PollMetrics runs on; queue depths
// don't need to be fresher than this for a /metrics scrape.
const metricsPollInterval = 10 * time.Second

// pollMetrics drives host.Multiplexer.PollMetrics on a ticker until
// reloadStop is closed, so /metrics reports live queue depths instead of
// requiring an external caller the reference daemon never has.
func (c *DaemonCommand) pollMetrics() {
	ticker := time.NewTicker(metricsPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.mux.PollMetrics()
		case <-c.reloadStop:
			return
		}
	}
}

// watchReload calls reloadConfig on every SIGHUP until reloadStop is
// closed, matching the teacher's pattern of reacting to external config
// drift instead of polling for it.
func (c *DaemonCommand) watchReload(hupChan chan os.Signal) {
	for {
		select {
		case <-hupChan:
			c.reloadConfig()
		case <-c.reloadStop:
			signal.Stop(hupChan)
			return
		}
	}
}

// reloadConfig re-reads ConfigFile and logs which handler sections drifted
// from the settings currently loaded. It does not rebuild or restart any
// running Handler: per spec.md §1, applying drift is a Host policy
// decision left to the integrator, so this reference Host only reports it.
func (c *DaemonCommand) reloadConfig() {
	next, changed, err := config.Reload(c.ConfigFile, c.loadedConfig)
	if err != nil {
		c.Logger.Error(fmt.Sprintf("config reload failed: %v", err))
		return
	}

	c.loadedConfig = next
	if len(changed) == 0 {
		c.Logger.Info("config reload: no handler settings changed")
		return
	}
	c.Logger.Warn(fmt.Sprintf("config reload: handler settings drifted for %v; restart to apply", changed))
}

func (c *DaemonCommand) shutdown() error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	c.Logger.Info("shutting down")
	if c.reloadStop != nil {
		close(c.reloadStop)
	}
	ctx, cancel := context.WithTimeout(context.Background(), host.DefaultShutdownTimeout)
	defer cancel()

	if err := c.httpServer.Shutdown(ctx); err != nil {
		c.Logger.Error(fmt.Sprintf("http server shutdown error: %v", err))
	}

	return c.mux.Shutdown(ctx)
}

func (c *DaemonCommand) reportHandler(w http.ResponseWriter, _ *http.Request) {
	data, err := c.mux.ReportJSON()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

// staticInitializer adapts a HandlerSettings value loaded from INI into a
// plugin.Initializer with no custom settings payload.
type staticInitializer struct {
	settings handler.HandlerSettings
}

func (s *staticInitializer) GetHandlerSettings() handler.HandlerSettings { return s.settings }
func (s *staticInitializer) GetCustomHandlerSettings() any               { return nil }
