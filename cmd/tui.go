package cmd

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/twiced-technology-gmbh/backplan/internal/tui"
	"github.com/twiced-technology-gmbh/backplan/internal/watcher"
	"github.com/twiced-technology-gmbh/backplan/internal/workspace"
)

func runTUI(_ *cobra.Command, _ []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	// Warnings go to the log; stderr belongs to the alt screen.
	ws, err := workspace.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer ws.Close()

	model := tui.NewGantt(ctx, ws)
	p := tea.NewProgram(model, tea.WithAltScreen())

	go startTUIWatcher(ctx, ws.WatchPaths(), p)

	_, err = p.Run()
	return err
}

func startTUIWatcher(ctx context.Context, paths []string, p *tea.Program) {
	w, err := watcher.New(paths, func() {
		p.Send(tui.ReloadMsg{})
	})
	if err != nil {
		logger.Debug("Live reload disabled", zap.Error(err))
		return // non-fatal: TUI works without live refresh
	}
	defer w.Close()
	w.Run(ctx, func(err error) { logger.Debug("Watcher error", zap.Error(err)) })
}
