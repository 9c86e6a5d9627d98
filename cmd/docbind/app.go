package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"docbind/internal/analyze"
	"docbind/internal/binding"
	"docbind/internal/catalog"
	"docbind/internal/config"
	"docbind/internal/docx"
	"docbind/internal/logging"
	"docbind/internal/notify"
	"docbind/internal/schema"
	"docbind/internal/store"
)

// modelSource is a schema source that can enumerate its models.
type modelSource interface {
	schema.Introspector
	ModelNames() []string
}

// app holds the collaborators of one command invocation.
type app struct {
	cfg       config.Config
	flags     *globalFlags
	logger    *slog.Logger
	notifier  notify.Notifier
	models    modelSource
	validator schema.FieldValidator
	store     *store.SQLite
	parser    *docx.Parser
	out       io.Writer
}

// newApp loads the configuration and the schema source. The template store
// is opened only when withStore is set.
func newApp(cmd *cobra.Command, flags *globalFlags, withStore bool) (*app, error) {
	cfg, err := config.Load(flags.config)
	if err != nil {
		return nil, err
	}

	logger := logging.New(cfg.Log.Level, cfg.Log.Format, cmd.ErrOrStderr())

	a := &app{
		cfg:    cfg,
		flags:  flags,
		logger: logger,
		notifier: notify.Multi(
			notify.NewLog(logger),
			notify.NewTerminal(cmd.ErrOrStderr()),
		),
		out: cmd.OutOrStdout(),
	}

	ctx := cmd.Context()

	if err := a.loadModels(ctx); err != nil {
		return nil, err
	}

	if withStore {
		s, err := store.OpenSQLite(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}

		a.store = s
		a.parser = docx.NewParser(s, logger)
	}

	return a, nil
}

func (a *app) loadModels(ctx context.Context) error {
	if len(a.cfg.Packages) > 0 {
		in, err := analyze.Load(ctx, a.cfg.Packages...)
		if err != nil {
			return fmt.Errorf("failed to load Go models: %w", err)
		}

		a.models = in
		a.logger.Debug("loaded Go models", "packages", a.cfg.Packages, "models", len(in.ModelNames()))

		return nil
	}

	c, err := catalog.LoadFile(a.cfg.Catalog)
	if err != nil {
		return err
	}

	a.models = c
	a.validator = c
	a.logger.Debug("loaded catalog", "path", a.cfg.Catalog, "models", len(c.Models))

	return nil
}

func (a *app) Close() error {
	if a.store == nil {
		return nil
	}

	return a.store.Close()
}

// tracker returns a tracker wired to the app's collaborators.
func (a *app) tracker() *binding.Tracker {
	return binding.New(a.store, a.parser, a.models, binding.Options{
		MaxDepth:       a.cfg.MaxDepth,
		IncludeRelated: a.cfg.IncludeRelated,
		Extensions:     a.cfg.Extensions,
		Validator:      a.validator,
		Notifier:       a.notifier,
		Logger:         a.logger,
	})
}

// load opens the template with id in a new tracker.
func (a *app) load(ctx context.Context, id string) (*binding.Tracker, error) {
	t := a.tracker()

	if _, err := t.Load(ctx, id); err != nil {
		return nil, err
	}

	return t, nil
}

// persist saves t when it has unsaved changes.
func (a *app) persist(ctx context.Context, t *binding.Tracker) (binding.Binding, error) {
	if !t.Dirty() {
		return t.Binding(), nil
	}

	return t.Save(ctx)
}

// withApp runs fn with an app and closes it afterwards.
func withApp(cmd *cobra.Command, flags *globalFlags, withStore bool, fn func(*app) error) (err error) {
	a, err := newApp(cmd, flags, withStore)
	if err != nil {
		return err
	}

	defer func() {
		if cerr := a.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	return fn(a)
}
