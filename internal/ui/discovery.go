package ui

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/proyectoj/assistant/internal/state"
)

// DiscoverFunc runs endpoint resolution.
type DiscoverFunc func(ctx context.Context) (state.Snapshot, error)

// Options configure RunDiscovery.
type Options struct {
	ThemeName string
	Input     io.Reader
	Output    io.Writer
}

type resultMsg struct {
	snapshot state.Snapshot
	err      error
}

type discoveryModel struct {
	ctx      context.Context
	discover DiscoverFunc
	keys     keyMap
	theme    string
	styles   Styles
	spinner  spinner.Model
	started  time.Time
	elapsed  time.Duration

	done     bool
	snapshot state.Snapshot
	err      error
}

func newDiscoveryModel(ctx context.Context, discover DiscoverFunc, themeName string) discoveryModel {
	theme := GetTheme(themeName)
	styles := theme.Styles()
	sp := spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(styles.Spinner))
	return discoveryModel{
		ctx:      ctx,
		discover: discover,
		keys:     DefaultKeyMap(),
		theme:    theme.Name,
		styles:   styles,
		spinner:  sp,
		started:  time.Now(),
	}
}

// Init implements tea.Model.
func (m discoveryModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.run())
}

func (m discoveryModel) run() tea.Cmd {
	ctx, discover := m.ctx, m.discover
	return func() tea.Msg {
		snap, err := discover(ctx)
		return resultMsg{snapshot: snap, err: err}
	}
}

// Update implements tea.Model.
func (m discoveryModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit) && !m.done:
			m.done = true
			m.err = context.Canceled
			return m, tea.Quit
		case key.Matches(msg, m.keys.CycleTheme):
			theme := GetTheme(NextTheme(m.theme))
			m.theme = theme.Name
			m.styles = theme.Styles()
			m.spinner.Style = m.styles.Spinner
		}
		return m, nil

	case resultMsg:
		m.done = true
		m.snapshot = msg.snapshot
		m.err = msg.err
		m.elapsed = time.Since(m.started)
		return m, tea.Quit

	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m discoveryModel) View() string {
	if !m.done {
		return m.spinner.View() + " " + m.styles.Text.Render("Searching for assistant server") +
			m.styles.FaintText.Render("  "+helpText(m.keys.Quit)+"  "+helpText(m.keys.CycleTheme)) + "\n"
	}
	if m.err != nil {
		return RenderError(m.styles, m.err) + "\n"
	}
	return RenderResolution(m.styles, m.snapshot, m.elapsed) + "\n"
}

func helpText(b key.Binding) string {
	return b.Help().Key + " " + b.Help().Desc
}

// RunDiscovery shows a spinner while discover runs and returns its result.
// Cancelling from the keyboard returns context.Canceled.
func RunDiscovery(ctx context.Context, discover DiscoverFunc, opts Options) (state.Snapshot, error) {
	progOpts := []tea.ProgramOption{tea.WithContext(ctx)}
	if opts.Input != nil {
		progOpts = append(progOpts, tea.WithInput(opts.Input))
	}
	if opts.Output != nil {
		progOpts = append(progOpts, tea.WithOutput(opts.Output))
	}

	final, err := tea.NewProgram(newDiscoveryModel(ctx, discover, opts.ThemeName), progOpts...).Run()
	if err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return state.Snapshot{}, ctx.Err()
		}
		return state.Snapshot{}, err
	}
	m, ok := final.(discoveryModel)
	if !ok {
		return state.Snapshot{}, errors.New("unexpected model type")
	}
	return m.snapshot, m.err
}
