// Package tui is a terminal front end for arranging and stitching images.
//
// Rows are one terminal line each, so the mouse feeds the reorder controller
// through the same hit-testing path a touch screen uses.
package tui

import (
	"context"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lehigh-university-libraries/stitcher/internal/compose"
	"github.com/lehigh-university-libraries/stitcher/internal/models"
	"github.com/lehigh-university-libraries/stitcher/internal/ordering"
	"github.com/lehigh-university-libraries/stitcher/internal/reorder"
	"github.com/lehigh-university-libraries/stitcher/internal/session"
	"github.com/lehigh-university-libraries/stitcher/internal/stitch"
)

const headerLines = 2

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#cba6f7"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6c7086"))
	cursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#f5c2e7"))
	draggingStyle = lipgloss.NewStyle().Reverse(true)
	discardStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#f38ba8"))
	okStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#a6e3a1"))
	errStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#f38ba8"))
)

// Model is the bubbletea model for the arrange screen.
type Model struct {
	ctx     context.Context
	sess    *session.Session
	list    *ordering.List
	ctrl    *reorder.Controller
	svc     *stitch.Service
	opts    compose.Options
	output  string
	cursor  int
	status  string
	failed  bool
	working bool
}

// New builds a model over the given entries. Stitches are written to output.
func New(ctx context.Context, entries []models.ImageEntry, svc *stitch.Service, opts compose.Options, output string) (Model, error) {
	sess := session.NewAt(reorder.Point{Y: headerLines}, 1)
	for _, e := range entries {
		if err := sess.List.Append(e); err != nil {
			return Model{}, fmt.Errorf("failed to add %s: %w", e.Label, err)
		}
	}
	return Model{
		ctx:    ctx,
		sess:   sess,
		list:   sess.List,
		ctrl:   sess.Reorder,
		svc:    svc,
		opts:   opts,
		output: output,
	}, nil
}

type stitchDoneMsg struct {
	result *stitch.Result
	err    error
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) discardLine() int { return headerLines + m.list.Len() }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.updateKeys(msg)
	case tea.MouseMsg:
		return m.updateMouse(msg), nil
	case stitchDoneMsg:
		m.working = false
		if msg.err != nil {
			m.setStatus(msg.err.Error(), true)
			return m, nil
		}
		r := msg.result
		status := fmt.Sprintf("wrote %s (%dx%d, %d images)", m.output, r.Width, r.Height, r.Stitched)
		if n := len(r.Failures); n > 0 {
			status += fmt.Sprintf(", %d skipped", n)
		}
		m.setStatus(status, false)
	}
	return m, nil
}

func (m Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	ids := m.list.OrderedIDs()
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(ids)-1 {
			m.cursor++
		}
	case "K", "shift+up":
		if m.cursor > 0 {
			m.nudge(ids[m.cursor], ids[m.cursor-1])
			m.cursor--
		}
	case "J", "shift+down":
		if m.cursor < len(ids)-1 {
			m.nudge(ids[m.cursor], ids[m.cursor+1])
			m.cursor++
		}
	case "x", "delete":
		if m.cursor < len(ids) {
			m.sess.Remove(ids[m.cursor])
			m.clampCursor()
		}
	case "c":
		m.sess.Reset()
		m.cursor = 0
		m.setStatus("cleared", false)
	case "m":
		if m.opts.Mode == compose.Vertical {
			m.opts.Mode = compose.Horizontal
		} else {
			m.opts.Mode = compose.Vertical
		}
	case "a":
		m.opts.KeepAspect = !m.opts.KeepAspect
	case "s", "enter":
		if m.working {
			return m, nil
		}
		m.working = true
		m.setStatus("stitching...", false)
		return m, m.stitchCmd()
	}
	return m, nil
}

// nudge drags id over its neighbor, the same way a mouse would.
func (m *Model) nudge(id, neighbor string) {
	if err := m.ctrl.Begin(id); err != nil {
		m.setStatus(err.Error(), true)
		return
	}
	if err := m.ctrl.MoveOver(neighbor); err != nil {
		m.setStatus(err.Error(), true)
	}
	m.ctrl.End()
}

func (m Model) updateMouse(msg tea.MouseMsg) Model {
	p := reorder.Point{X: float64(msg.X), Y: float64(msg.Y)}
	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft {
			return m
		}
		if started, err := m.ctrl.TouchStart(p); err != nil {
			m.setStatus(err.Error(), true)
		} else if started {
			m.cursor = m.list.Index(m.ctrl.Session().SourceID)
		}
	case tea.MouseActionMotion:
		if err := m.ctrl.TouchMove(p); err != nil {
			m.setStatus(err.Error(), true)
		}
		if s := m.ctrl.Session(); s.Active {
			m.cursor = m.list.Index(s.SourceID)
		}
	case tea.MouseActionRelease:
		if m.ctrl.State() != reorder.Dragging {
			return m
		}
		if msg.Y == m.discardLine() {
			if id := m.ctrl.DropOnDiscard(); id != "" {
				m.setStatus("removed entry", false)
			}
			m.clampCursor()
			return m
		}
		m.ctrl.End()
	}
	return m
}

func (m *Model) clampCursor() {
	if n := m.list.Len(); m.cursor >= n {
		m.cursor = max(n-1, 0)
	}
}

func (m *Model) setStatus(s string, failed bool) {
	m.status, m.failed = s, failed
}

func (m Model) stitchCmd() tea.Cmd {
	ctx, svc, sess, opts, output := m.ctx, m.svc, m.sess, m.opts, m.output
	return func() tea.Msg {
		result, err := svc.Stitch(ctx, sess, opts)
		if err != nil {
			return stitchDoneMsg{err: err}
		}
		if result.Stitched == 0 {
			return stitchDoneMsg{err: fmt.Errorf("nothing to stitch")}
		}
		file, err := os.Create(output)
		if err != nil {
			return stitchDoneMsg{err: fmt.Errorf("failed to create output: %w", err)}
		}
		defer file.Close()
		if err := result.Raster.EncodePNG(file); err != nil {
			return stitchDoneMsg{err: err}
		}
		return stitchDoneMsg{result: result}
	}
}

func (m Model) View() string {
	var b strings.Builder

	keep := "off"
	if m.opts.KeepAspect {
		keep = "on"
	}
	b.WriteString(titleStyle.Render(fmt.Sprintf("stitcher · mode %s · keep aspect %s", m.opts.Mode, keep)))
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("drag rows to reorder · drop on [remove] to discard · J/K move · m mode · a aspect · s stitch · q quit"))
	b.WriteString("\n")

	drag := m.ctrl.Session()
	for i, e := range m.list.OrderedEntries() {
		prefix := "  "
		if i == m.cursor {
			prefix = cursorStyle.Render("> ")
		}
		label := "🎨 " + strings.ReplaceAll(e.Label, "\n", " ")
		if e.Decoded != nil {
			label += helpStyle.Render(fmt.Sprintf("  %dx%d", e.Decoded.Width, e.Decoded.Height))
		}
		if drag.Active && drag.SourceID == e.ID {
			label = draggingStyle.Render(label)
		}
		b.WriteString(prefix + label + "\n")
	}

	b.WriteString(discardStyle.Render("  [remove]"))
	b.WriteString("\n")

	if m.status != "" {
		style := okStyle
		if m.failed {
			style = errStyle
		}
		b.WriteString(style.Render(m.status))
		b.WriteString("\n")
	}
	return b.String()
}

// Run starts the program with mouse motion reporting.
func Run(m Model) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion()).Run()
	return err
}
