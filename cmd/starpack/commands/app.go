package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/bdobrica/starpack/common/redact"
	"github.com/bdobrica/starpack/common/trace"
	"github.com/bdobrica/starpack/internal/starpack/config"
	"github.com/bdobrica/starpack/internal/starpack/fault"
	"github.com/bdobrica/starpack/internal/starpack/lifecycle"
	"github.com/bdobrica/starpack/internal/starpack/mediator"
	"github.com/bdobrica/starpack/internal/starpack/observability"
	"github.com/bdobrica/starpack/internal/starpack/runtime"
	"github.com/bdobrica/starpack/internal/starpack/runtime/docker"
	"github.com/bdobrica/starpack/internal/starpack/store"
	"github.com/bdobrica/starpack/internal/starpack/transfer"
	"github.com/bdobrica/starpack/internal/starpack/ui"
)

// App holds the dependencies shared by every command of one invocation.
type App struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer

	// AppDir overrides the per-user application directory.
	AppDir string
	// NewRuntime connects to the container runtime. It is called at most
	// once, and only by commands that need Docker.
	NewRuntime func() (runtime.Runtime, error)

	debug      bool
	jsonOutput bool
	logFormat  string
	engineURL  string

	cfg      config.Config
	history  *store.Store
	rt       runtime.Runtime
	endpoint string
	closers  []io.Closer
}

// NewApp returns an App wired to the process stdio and the local Docker
// daemon.
func NewApp() *App {
	return &App{
		In:  os.Stdin,
		Out: os.Stdout,
		Err: os.Stderr,
		NewRuntime: func() (runtime.Runtime, error) {
			a, err := docker.New()
			if err != nil {
				return nil, err
			}
			return a, nil
		},
	}
}

// setup runs before every command: it loads the configuration, configures
// logging and colors, and opens the command history.
func (a *App) setup(cmd *cobra.Command) error {
	cmd.SetContext(trace.Ensure(cmd.Context()))

	dir := a.AppDir
	if dir == "" {
		d, err := config.DefaultAppDir()
		if err != nil {
			return err
		}
		dir = d
	}
	cfg, err := config.Load(dir)
	if err != nil {
		return err
	}
	a.cfg = cfg

	level := cfg.LogLevel
	if a.debug {
		level = "debug"
	}
	if err := observability.Setup(level, a.logFormat, a.Err); err != nil {
		return err
	}
	ui.ConfigureColor(a.Out)

	hist, err := store.New(cmd.Context(), cfg.HistoryPath())
	if err != nil {
		slog.Warn("command history disabled", "err", err)
		return nil
	}
	a.history = hist
	a.closers = append(a.closers, hist)
	return nil
}

func (a *App) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			slog.Debug("close failed", "err", err)
		}
	}
	a.closers = nil
}

// runtime returns the container runtime, connecting on first use.
func (a *App) runtime() (runtime.Runtime, error) {
	if a.rt != nil {
		return a.rt, nil
	}
	rt, err := a.NewRuntime()
	if err != nil {
		return nil, fault.NewRuntimeUnavailable(err)
	}
	if c, ok := rt.(io.Closer); ok {
		a.closers = append(a.closers, c)
	}
	a.rt = rt
	return rt, nil
}

// controller returns a lifecycle controller over the container runtime.
func (a *App) controller() (*lifecycle.Controller, error) {
	rt, err := a.runtime()
	if err != nil {
		return nil, err
	}
	return lifecycle.NewController(rt, a.cfg), nil
}

// connect returns a healthy engine. With --engine-url the external engine is
// attached; otherwise the Docker-managed engine is started if needed.
func (a *App) connect(ctx context.Context) (*lifecycle.Engine, error) {
	var (
		eng *lifecycle.Engine
		err error
	)
	if a.engineURL != "" {
		a.endpoint = a.engineURL
		eng, err = lifecycle.Attach(ctx, a.engineURL, a.cfg)
	} else {
		ctrl, cerr := a.controller()
		if cerr != nil {
			return nil, cerr
		}
		eng, err = ctrl.Start(ctx, false)
	}
	if err != nil {
		return nil, err
	}
	a.endpoint = eng.Endpoint()
	return eng, nil
}

// mediator connects to the engine and returns a mediator for it. Directory
// operations are only available for a Docker-managed engine.
func (a *App) mediator(ctx context.Context) (*mediator.Mediator, error) {
	eng, err := a.connect(ctx)
	if err != nil {
		return nil, err
	}
	if !eng.Managed() {
		return mediator.New(eng.Client(), nil), nil
	}
	up, err := transfer.New(a.rt, eng)
	if err != nil {
		return nil, err
	}
	return mediator.New(eng.Client(), up), nil
}

// action wraps a command body so that its outcome is written to the command
// history.
func (a *App) action(fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		started := time.Now()
		err := fn(cmd, args)
		a.record(cmd, args, started, err)
		return err
	}
}

func (a *App) record(cmd *cobra.Command, args []string, started time.Time, runErr error) {
	if a.history == nil {
		return
	}
	e := store.Entry{
		Timestamp: started,
		TraceID:   trace.FromContext(cmd.Context()),
		Command:   commandName(cmd),
		Target:    target(cmd, args),
		Endpoint:  redact.URL(a.endpoint),
		Result:    store.ResultSuccess,
		Duration:  time.Since(started),
	}
	if runErr != nil {
		e.Result = store.ResultError
		e.Error = redact.String(runErr.Error(), redact.Secrets(a.engineURL)...)
		if k := fault.KindOf(runErr); k != 0 {
			e.ErrorKind = k.String()
		}
	}
	// Recording must not fail a command that already ran.
	ctx := context.WithoutCancel(cmd.Context())
	if err := a.history.Record(ctx, e); err != nil {
		observability.WithTrace(ctx).Warn("failed to record command", "err", err)
	}
}

// commandName is the command path without the binary name.
func commandName(cmd *cobra.Command) string {
	path := cmd.CommandPath()
	if i := strings.IndexByte(path, ' '); i >= 0 {
		return path[i+1:]
	}
	return path
}

// target is the positional argument or, failing that, the --name filter.
func target(cmd *cobra.Command, args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	if f := cmd.Flags().Lookup("name"); f != nil {
		return f.Value.String()
	}
	return ""
}

func printLine(cmd *cobra.Command, s string) {
	fmt.Fprintln(cmd.OutOrStdout(), s)
}

// declineOnEOF treats closed input as a declined prompt.
func declineOnEOF(p *ui.Prompter) func(string) (bool, error) {
	return func(q string) (bool, error) {
		ok, err := p.Confirm(q)
		if errors.Is(err, ui.ErrNoInteraction) {
			return false, nil
		}
		return ok, err
	}
}
