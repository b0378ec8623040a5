package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/ytplaylists/internal/playback"
	"github.com/desertthunder/ytplaylists/internal/shared"
	"github.com/desertthunder/ytplaylists/internal/ui"
	"github.com/urfave/cli/v3"
)

const defaultTUILog = "./tmp/ytp-tui.log"

// Play launches the interactive terminal player for --user.
func (r *Runner) Play(ctx context.Context, cmd *cli.Command) error {
	username := cmd.String("user")

	logPath := cmd.String("log-file")
	if logPath == "" {
		logPath = r.config.Log.File
	}
	if logPath == "" {
		logPath = defaultTUILog
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(logPath)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	fileLogger.SetLevel(r.logger.GetLevel())
	r.SetLogger(fileLogger)

	st, err := r.openStore()
	if err != nil {
		return err
	}
	if _, err := st.GetUser(ctx, username); err != nil {
		return err
	}

	player := ui.NewBrowserPlayer(nil)
	session := playback.NewSession(st, r.openProvider(ctx), player, shared.WithLogger(fileLogger, "user", username))
	defer session.Close()

	model := ui.NewModel(ctx, username, st, session, player)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
