package app

import (
	"context"
	"errors"
	"fmt"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/focuscycle/internal/engine"
	"github.com/abhisek/focuscycle/internal/router"
	"github.com/abhisek/focuscycle/internal/screen"
	"github.com/abhisek/focuscycle/internal/screens/focus"
	"github.com/abhisek/focuscycle/internal/store"
	"github.com/abhisek/focuscycle/internal/ui/layout"
)

// Options holds dependencies passed to the app at startup.
type Options struct {
	Engine    *engine.Engine
	EventRepo store.EventRepo
}

// AppModel is the root Bubble Tea model.
type AppModel struct {
	engine *engine.Engine
	router *router.Router
	width  int
	height int
}

// newAppModel creates a new AppModel with the focus screen.
func newAppModel(opts Options) AppModel {
	return AppModel{
		engine: opts.Engine,
		router: router.New(focus.New(opts.Engine, opts.EventRepo)),
	}
}

func (m AppModel) Init() tea.Cmd {
	return tea.Batch(m.engine.Init(), m.router.Active().Init())
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			if m.router.Depth() > 1 {
				return m, func() tea.Msg { return router.PopScreenMsg{} }
			}
			return m, nil
		}
	}

	// The engine sees every message so its responses and ticks land no
	// matter which screen is on top.
	return m, tea.Batch(m.engine.Handle(msg), m.router.Update(msg))
}

func (m AppModel) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true

	if m.width == 0 || m.height == 0 {
		return v
	}
	v.SetContent(m.render())
	return v
}

// render draws the header, active screen and footer.
func (m AppModel) render() string {
	if layout.IsTooSmall(m.width, m.height) {
		return layout.RenderMinSizeMessage(m.width, m.height)
	}

	active := m.router.Active()
	title := ""
	if active != nil {
		title = active.Title()
	}

	wallet := m.engine.Wallet()
	xp, need := wallet.Progress()
	header := layout.RenderHeader(layout.Header{
		Title:    title,
		Coins:    wallet.Coins,
		Level:    wallet.Level,
		XP:       xp,
		XPNeeded: need,
	}, m.width)

	var footerHints []layout.KeyHint
	if p, ok := active.(screen.KeyHintProvider); ok {
		footerHints = p.KeyHints()
	}
	if m.router.Depth() == 1 {
		footerHints = append(footerHints, layout.KeyHint{Key: "Ctrl+C", Description: "Quit"})
	}

	footer := layout.RenderFooter(footerHints, m.width)

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := max(0, m.height-headerHeight-footerHeight)

	content := m.router.View(m.width, contentHeight)
	return layout.RenderFrame(header, content, footer, m.width, m.height)
}

// Run starts the Bubble Tea program and blocks until it exits or ctx is
// cancelled. The caller terminates the engine afterwards.
func Run(ctx context.Context, opts Options) error {
	if opts.Engine == nil {
		return fmt.Errorf("app: engine is required")
	}
	p := tea.NewProgram(newAppModel(opts), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("run program: %w", err)
	}
	return nil
}
