// Package service manages the prpkit-service process lifecycle.
package service

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/prpkit/prpkit/internal/config"
	"github.com/prpkit/prpkit/internal/logger"
)

const shutdownTimeout = 30 * time.Second

// Daemon runs the HTTP server as a long-lived process with a PID file
// and signal-driven shutdown. Logging goes through the shared arbor
// logger, so SetupLogger should run before Start.
type Daemon struct {
	cfg       *config.Config
	server    *http.Server
	stopCh    chan struct{}
	stoppedCh chan struct{}
	stopOnce  sync.Once
	mu        sync.Mutex
	running   bool
}

// NewDaemon creates a daemon for the given configuration.
func NewDaemon(cfg *config.Config) *Daemon {
	return &Daemon{
		cfg:       cfg,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

// Start writes the PID file and begins serving the handler. It returns
// once the listener goroutine is launched; use Wait to block.
func (d *Daemon) Start(handler http.Handler) error {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return fmt.Errorf("daemon already running")
	}
	d.running = true
	d.mu.Unlock()

	if err := d.cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	if err := d.writePID(); err != nil {
		return fmt.Errorf("write PID: %w", err)
	}

	d.server = &http.Server{
		Addr:         d.cfg.Address(),
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log := logger.GetLogger()
		log.Info().Str("address", d.cfg.Address()).Msg("Listening")
		if err := d.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("Server stopped")
		}
	}()

	return nil
}

// Wait blocks until a termination signal arrives or Stop is called,
// then shuts the server down.
func (d *Daemon) Wait() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGHUP)

	log := logger.GetLogger()
	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("Shutting down")
	case <-d.stopCh:
		log.Info().Msg("Stop requested, shutting down")
	}

	d.shutdown()
}

// Stop requests shutdown and blocks until it finishes. The mutex is
// released before waiting; shutdown needs it to close stoppedCh.
func (d *Daemon) Stop() {
	d.mu.Lock()
	running := d.running
	d.mu.Unlock()

	if !running {
		return
	}

	d.stopOnce.Do(func() { close(d.stopCh) })
	<-d.stoppedCh
}

func (d *Daemon) shutdown() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.running {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if d.server != nil {
		if err := d.server.Shutdown(ctx); err != nil {
			logger.GetLogger().Warn().Err(err).Msg("Server shutdown error")
		}
	}

	d.removePID()

	d.running = false
	close(d.stoppedCh)
}

func (d *Daemon) writePID() error {
	pidPath := d.cfg.PIDPath()
	if err := os.MkdirAll(filepath.Dir(pidPath), 0755); err != nil {
		return fmt.Errorf("create PID directory: %w", err)
	}
	return os.WriteFile(pidPath, []byte(strconv.Itoa(os.Getpid())), 0644)
}

func (d *Daemon) removePID() {
	_ = os.Remove(d.cfg.PIDPath())
}

// IsRunning reports whether a service process holds the PID file. A
// stale PID file is removed on the way through.
func IsRunning(cfg *config.Config) (bool, int) {
	pidPath := cfg.PIDPath()

	data, err := os.ReadFile(pidPath)
	if err != nil {
		return false, 0
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return false, 0
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return false, 0
	}

	// Signal 0 probes for existence without delivering anything.
	if err := process.Signal(syscall.Signal(0)); err != nil {
		_ = os.Remove(pidPath)
		return false, 0
	}

	return true, pid
}

// StopRunning terminates the service process recorded in the PID file,
// escalating from SIGTERM to SIGKILL when it does not exit in time.
func StopRunning(cfg *config.Config) error {
	running, pid := IsRunning(cfg)
	if !running {
		return fmt.Errorf("daemon not running")
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("find process: %w", err)
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("send signal: %w", err)
	}

	for i := 0; i < 30; i++ {
		time.Sleep(100 * time.Millisecond)
		if running, _ := IsRunning(cfg); !running {
			return nil
		}
	}

	if err := process.Kill(); err != nil {
		return fmt.Errorf("kill process: %w", err)
	}

	_ = os.Remove(cfg.PIDPath())

	return nil
}
