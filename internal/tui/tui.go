// Package tui is the interactive catalog browser: a searchable model list
// with live per-item download state, an aggregate progress bar and the
// daemon status line.
package tui

import (
	"context"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/stavren/modelsync/internal/config"
	"github.com/stavren/modelsync/internal/daemon"
	"github.com/stavren/modelsync/internal/domain"
	"github.com/stavren/modelsync/internal/engine"
	"github.com/stavren/modelsync/internal/notify"
)

// Options carries the wired dependencies for the browser.
type Options struct {
	Service *engine.Service
	Catalog domain.Catalog
	Stream  *daemon.StreamClient
	Config  *config.Config
	Notices <-chan notify.Notice
	Logger  *slog.Logger
}

// Run starts the browser and blocks until the user quits or ctx is done.
func Run(ctx context.Context, opts Options) error {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	m := newBrowserModel(ctx, opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	// Repaint whenever the engine's state changes under us.
	opts.Service.SetOnChange(func() {
		p.Send(stateChangedMsg{})
	})
	defer opts.Service.SetOnChange(nil)

	_, err := p.Run()
	return err
}
