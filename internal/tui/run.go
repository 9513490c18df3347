package tui

import (
	"context"
	"errors"
	"fmt"

	"github.com/Veraticus/credit-risk-model/internal/common"
	"github.com/Veraticus/credit-risk-model/internal/tui/themes"
	tea "github.com/charmbracelet/bubbletea"
)

// Config holds what the form needs to run.
type Config struct {
	Scorer  Scorer
	Theme   string
	Options Options
}

// Run shows the form until the user quits or ctx is canceled.
func Run(ctx context.Context, cfg Config) error {
	if cfg.Scorer == nil {
		return fmt.Errorf("%w: scorer is required", common.ErrInvalidInput)
	}

	m := New(ctx, cfg.Scorer, cfg.Options, themes.GetTheme(cfg.Theme))
	p := tea.NewProgram(m, tea.WithContext(ctx), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("form failed: %w", err)
	}
	return nil
}
