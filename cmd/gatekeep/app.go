package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/gatekeep-ai/gatekeep/internal/catalog"
	"github.com/gatekeep-ai/gatekeep/internal/config"
	"github.com/gatekeep-ai/gatekeep/internal/history"
	"github.com/gatekeep-ai/gatekeep/internal/llm"
	"github.com/gatekeep-ai/gatekeep/internal/logging"
	"github.com/gatekeep-ai/gatekeep/internal/persona"
	"github.com/gatekeep-ai/gatekeep/internal/tui"
)

// errReported marks failures whose message was already printed.
var errReported = errors.New("error already reported")

// app holds state shared by every command in one invocation.
type app struct {
	// Persistent flags.
	catalogDir string
	logLevel   string
	noHistory  bool

	// newClient builds the model client; replaced in tests.
	newClient func(cfg *config.Config, logger *slog.Logger) (llm.Client, error)
	// loadConfig reads configuration; replaced in tests.
	loadConfig func() (*config.Config, error)

	cfg     *config.Config
	logger  *slog.Logger
	tracker *llm.TokenTracker
}

func newApp() *app {
	return &app{
		newClient:  newClientFromConfig,
		loadConfig: config.Load,
		tracker:    llm.NewTokenTracker(),
	}
}

// setup loads configuration and applies flag overrides. It runs before
// every command.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := a.loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if a.catalogDir != "" {
		cfg.Catalog.Dir = a.catalogDir
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if a.noHistory {
		cfg.History.Enabled = false
	}

	a.cfg = cfg
	a.logger = logging.New(logging.ParseLevel(cfg.Log.Level), cmd.ErrOrStderr())
	slog.SetDefault(a.logger)
	return nil
}

// openCatalog resolves the catalog from config or the working directory.
func (a *app) openCatalog() (*catalog.Catalog, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	cat, err := catalog.Resolve(a.cfg.Catalog.Dir, cwd, catalog.WithLogger(a.logger))
	if err != nil {
		return nil, err
	}
	a.logger.Debug("catalog loaded", "source", cat.Source(), "personas", len(cat.Personas()))
	return cat, nil
}

// openEngine builds the persona engine. The returned close func releases
// the history store and logs token usage.
func (a *app) openEngine(cat *catalog.Catalog) (*persona.Engine, func(), error) {
	client, err := a.newClient(a.cfg, a.logger)
	if err != nil {
		return nil, nil, err
	}

	opts := []persona.Option{
		persona.WithLogger(a.logger),
		persona.WithDefaultModel(a.cfg.LLM.DefaultModel),
		persona.WithMaxConcurrency(a.cfg.LLM.MaxConcurrency),
	}

	var store *history.Store
	if a.cfg.History.Enabled {
		store, err = history.OpenStore(a.cfg.History.Path)
		if err != nil {
			// History is best effort.
			a.logger.Warn("history disabled", "path", a.cfg.History.Path, "error", err)
		} else {
			opts = append(opts, persona.WithRecorder(store))
		}
	}

	engine := persona.New(cat, llm.Tracked(client, a.tracker), opts...)
	closeFn := func() {
		in, out := a.tracker.Total()
		a.logger.Info("token usage", "calls", a.tracker.Calls(), "failures", a.tracker.Failures(),
			"input_tokens", in, "output_tokens", out)
		if store != nil {
			store.Close()
		}
	}
	return engine, closeFn, nil
}

// renderer returns a markdown renderer suited to w.
func (a *app) renderer(w io.Writer) *tui.Renderer {
	return tui.NewRenderer(a.cfg.Output.Markdown && tui.IsTerminal(w), tui.Width(w)-4)
}

// withSpinner runs fn behind a spinner on stderr when enabled.
func withSpinner[T any](ctx context.Context, a *app, cmd *cobra.Command, label string, fn func(context.Context) (T, error)) (T, error) {
	if !a.cfg.Output.Spinner {
		return fn(ctx)
	}
	return tui.RunWithSpinner(ctx, cmd.ErrOrStderr(), label, fn)
}

// lookupPersona finds name in cat or prints the unknown persona message.
func lookupPersona(cmd *cobra.Command, cat *catalog.Catalog, name string) (catalog.Persona, error) {
	p, ok := cat.Persona(name)
	if !ok {
		errOut := cmd.ErrOrStderr()
		fmt.Fprintln(errOut, red.Sprintf("Unknown persona: %s", name))
		fmt.Fprintf(errOut, "Run %s to see available personas.\n", bold.Sprint("gatekeep personas"))
		return p, errReported
	}
	return p, nil
}

// personaTitle is the panel title for name, tolerating unknown names.
func personaTitle(cat *catalog.Catalog, name string) string {
	p, ok := cat.Persona(name)
	if !ok {
		p = catalog.Persona{Name: name}
	}
	return tui.PersonaTitle(p)
}
