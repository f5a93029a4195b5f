// Package tui is the terminal dashboard: a line chart of the selected window,
// a hover crosshair with tooltip and a draggable range selector underneath.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/komsit37/marginview/pkg/mv/format"
	"github.com/komsit37/marginview/pkg/mv/hover"
	"github.com/komsit37/marginview/pkg/mv/notify"
	"github.com/komsit37/marginview/pkg/mv/selector"
	"github.com/komsit37/marginview/pkg/mv/types"
	"github.com/komsit37/marginview/pkg/mv/window"
)

const (
	headerRows = 2
	footerRows = 3 // track, dates, banner
	minChartH  = 5
	animFrames = 10
	animEvery  = 40 * time.Millisecond
)

type Options struct {
	Controller *window.Controller
	// Notices feeds the banner row. May be nil.
	Notices *notify.Channel
	Title   string
	Toast   time.Duration
	// HandleTolerance is the handle grab distance in cells.
	HandleTolerance int
	RefreshCron     string
	Logger          *slog.Logger
}

type (
	reloadMsg struct{}
	loadedMsg struct {
		applied bool
		err     error
	}
	noticeMsg      notify.Notice
	clearBannerMsg struct{ seq int }
	animTickMsg    struct{}
)

type Model struct {
	ctx   context.Context
	opts  Options
	ctrl  *window.Controller
	log   *slog.Logger
	sel   *selector.Selector
	hover hover.Tracker

	width, height int
	view          window.View
	banner        string
	bannerSeq     int
	anim          int
}

func NewModel(ctx context.Context, opts Options) Model {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Title == "" {
		opts.Title = format.SeriesName
	}
	if opts.HandleTolerance <= 0 {
		opts.HandleTolerance = 1
	}
	m := Model{ctx: ctx, opts: opts, ctrl: opts.Controller, log: opts.Logger}
	m.view = m.ctrl.Snapshot()
	m.view.Loading = true
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadCmd(), m.waitNotice())
}

func (m Model) loadCmd() tea.Cmd {
	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		applied, err := ctrl.Load(ctx)
		return loadedMsg{applied: applied, err: err}
	}
}

func (m Model) waitNotice() tea.Cmd {
	if m.opts.Notices == nil {
		return nil
	}
	ctx, ch := m.ctx, m.opts.Notices.C()
	return func() tea.Msg {
		select {
		case n := <-ch:
			return noticeMsg(n)
		case <-ctx.Done():
			return nil
		}
	}
}

func clearBannerAfter(d time.Duration, seq int) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg { return clearBannerMsg{seq: seq} })
}

func animTick() tea.Cmd {
	return tea.Tick(animEvery, func(time.Time) tea.Msg { return animTickMsg{} })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		if m.sel != nil {
			m.sel.SetMapper(m.trackBounds())
			m.sel.SetTolerance(m.tolerance())
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg), nil

	case reloadMsg:
		m.view.Loading = true
		return m, m.loadCmd()

	case loadedMsg:
		if !msg.applied {
			return m, nil
		}
		if msg.err != nil {
			m.log.Debug("load resolved with error", "err", msg.err)
		}
		m.refresh()
		m.resetSelector()
		m.hover.Reset()
		if m.view.Animate && len(m.view.Display) > 1 {
			m.anim = animFrames
			return m, animTick()
		}
		return m, nil

	case animTickMsg:
		if m.anim > 0 {
			m.anim--
		}
		if m.anim > 0 {
			return m, animTick()
		}
		return m, nil

	case noticeMsg:
		m.bannerSeq++
		m.banner = msg.Title + ": " + msg.Message
		cmds := []tea.Cmd{m.waitNotice()}
		if m.opts.Toast > 0 {
			cmds = append(cmds, clearBannerAfter(m.opts.Toast, m.bannerSeq))
		}
		return m, tea.Batch(cmds...)

	case clearBannerMsg:
		if msg.seq == m.bannerSeq {
			m.banner = ""
		}
		return m, nil
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "r":
		m.view.Loading = true
		return m, m.loadCmd()
	case "left":
		m.ctrl.Shift(-1)
	case "right":
		m.ctrl.Shift(1)
	case "shift+left":
		m.ctrl.Shift(-10)
	case "shift+right":
		m.ctrl.Shift(10)
	case "[":
		sel := m.ctrl.Selection()
		if sel.Width() <= 1 {
			return m, nil
		}
		m.ctrl.SetSelection(sel.Start+1, sel.End)
	case "]":
		sel := m.ctrl.Selection()
		m.ctrl.SetSelection(sel.Start-1, sel.End)
	default:
		return m, nil
	}
	m.selectionChanged()
	if m.sel != nil {
		m.sel.SetDomain(m.sel.Min(), m.sel.Max(), m.view.Selection)
	}
	return m, nil
}

func (m Model) handleMouse(msg tea.MouseMsg) Model {
	x := float64(msg.X)
	if m.sel != nil {
		switch {
		case msg.Action == tea.MouseActionRelease:
			m.sel.PointerUp()
		case msg.Action == tea.MouseActionMotion && m.sel.State() != selector.Idle:
			m.sel.PointerMove(x)
			m.selectionChanged()
			return m
		case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft && msg.Y == m.trackRow():
			if t := m.sel.HitTest(x); t != selector.Outside {
				m.sel.PointerDown(t, x)
			} else {
				m.sel.TrackClick(x)
				m.selectionChanged()
			}
			return m
		}
	}

	n := len(m.view.Display)
	left, width := m.chartBounds()
	if !m.inChart(msg.Y) {
		m.hover.Leave()
		if m.hover.Touching() {
			m.hover.TouchEnd()
		}
		return m
	}
	// A held button over the chart scrubs like a touch drag.
	switch {
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		m.hover.TouchStart(x, left, width, n)
	case msg.Action == tea.MouseActionRelease:
		m.hover.TouchEnd()
	case m.hover.Touching():
		m.hover.TouchMove(x, left, width, n)
	default:
		m.hover.Move(x, left, width, n)
	}
	return m
}

// selectionChanged picks up the controller's new window after a selector
// emission or key press.
func (m *Model) selectionChanged() {
	m.refresh()
	m.hover.Reset()
}

func (m *Model) refresh() {
	m.view = m.ctrl.Snapshot()
}

func (m *Model) resetSelector() {
	n := len(m.view.Dataset)
	if n == 0 {
		m.sel = nil
		return
	}
	ctrl := m.ctrl
	emit := func(s types.Selection) { ctrl.SetSelection(s.Start, s.End) }
	m.sel = selector.New(0, n-1, m.view.Selection, m.trackBounds(), emit,
		selector.WithTolerance(m.tolerance()))
}

func (m Model) chartHeight() int {
	h := m.height - headerRows - footerRows
	if h < minChartH {
		h = minChartH
	}
	return h
}

func (m Model) inChart(y int) bool {
	return y >= headerRows && y < headerRows+m.chartHeight()
}

func (m Model) trackRow() int { return headerRows + m.chartHeight() }

// trackWidth is the number of cells in the selector track, which spans
// columns [1, 1+trackWidth).
func (m Model) trackWidth() int {
	if m.width < 4 {
		return 2
	}
	return m.width - 2
}

func (m Model) trackBounds() selector.Bounds {
	return selector.Bounds{Left: 1, Width: float64(m.trackWidth() - 1)}
}

func (m Model) tolerance() float64 {
	return float64(m.opts.HandleTolerance) / float64(m.trackWidth()-1)
}

// handleCol is the screen column of the handle for domain value v.
func (m Model) handleCol(v int) int {
	if m.sel == nil {
		return 1
	}
	return 1 + int(math.Round(m.sel.Fraction(v)*float64(m.trackWidth()-1)))
}

func (m Model) chartBounds() (left, width float64) {
	if len(m.view.Display) == 0 || m.width == 0 {
		return 0, float64(m.width)
	}
	lc := newChart(m.view, m.width, m.chartHeight())
	return graphBounds(&lc)
}

func (m Model) reveal() int {
	n := len(m.view.Display)
	if m.anim <= 0 {
		return n
	}
	return n * (animFrames - m.anim) / animFrames
}

func (m Model) View() string {
	if m.width == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(m.headerView())
	b.WriteString("\n")
	hs := m.hover.State()
	b.WriteString(renderChart(m.view, hs.Index, hs.Active, m.width, m.chartHeight(), m.reveal()))
	b.WriteString("\n")
	b.WriteString(m.trackView())
	b.WriteString("\n")
	b.WriteString(m.datesView())
	b.WriteString("\n")
	b.WriteString(m.statusView())
	return b.String()
}

func (m Model) headerView() string {
	title := titleStyle.Render(padOrTrunc(m.opts.Title, m.width))
	if m.view.Empty() {
		return title + "\n" + statsStyle.Render(padOrTrunc(placeholder(m.view), m.width))
	}
	line := format.StatsLine(m.view.Stats) + "  " + format.MeanLabel(m.view.Stats.Avg)
	if m.view.Loading {
		line += "  (refreshing)"
	}
	return title + "\n" + statsStyle.Render(padOrTrunc(line, m.width))
}

func (m Model) trackView() string {
	w := m.trackWidth()
	if m.sel == nil || m.sel.Degenerate() {
		return " " + trackStyle.Render(strings.Repeat("─", w))
	}
	sel := m.sel.Selection()
	lc, rc := m.handleCol(sel.Start), m.handleCol(sel.End)
	var b strings.Builder
	b.WriteString(" ")
	for col := 1; col <= w; col++ {
		switch {
		case col == lc || col == rc:
			b.WriteString(handleStyle.Render("┃"))
		case col > lc && col < rc:
			b.WriteString(windowStyle.Render("━"))
		default:
			b.WriteString(trackStyle.Render("─"))
		}
	}
	return b.String()
}

func (m Model) datesView() string {
	ds := m.view.Dataset
	if len(ds) == 0 {
		return ""
	}
	left := format.AxisDate(ds[0].Date)
	right := format.AxisDate(ds[len(ds)-1].Date)
	mid := ""
	if d := m.view.Display; len(d) > 0 {
		mid = fmt.Sprintf("%s → %s (%d)", format.AxisDate(d[0].Date), format.AxisDate(d[len(d)-1].Date), len(d))
	}
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right) - lipgloss.Width(mid) - 2
	if gap < 2 {
		return dimStyle.Render(padOrTrunc(" "+mid, m.width))
	}
	lpad := gap / 2
	return dimStyle.Render(" " + left + strings.Repeat(" ", lpad) + mid + strings.Repeat(" ", gap-lpad) + right)
}

func (m Model) statusView() string {
	if m.banner != "" {
		return bannerStyle.Render(padOrTrunc(m.banner, m.width))
	}
	if hs := m.hover.State(); hs.Active && hs.Index < len(m.view.Display) {
		return tipStyle.Render(padOrTrunc(format.Tooltip(m.view.Display[hs.Index], m.opts.Title), m.width))
	}
	return dimStyle.Render(padOrTrunc("←/→ shift  shift+←/→ ×10  [/] resize  r reload  q quit", m.width))
}

func padOrTrunc(s string, w int) string {
	if w <= 0 {
		return ""
	}
	sw := lipgloss.Width(s)
	if sw > w {
		r := []rune(s)
		for len(r) > 0 && lipgloss.Width(string(r)) > w {
			r = r[:len(r)-1]
		}
		return string(r)
	}
	return s + strings.Repeat(" ", w-sw)
}

// Run starts the dashboard and blocks until the user quits or ctx ends.
func Run(ctx context.Context, opts Options) error {
	m := NewModel(ctx, opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseAllMotion(), tea.WithContext(ctx))
	if opts.RefreshCron != "" {
		r, err := NewRefresher(opts.RefreshCron, func() { p.Send(reloadMsg{}) }, m.log)
		if err != nil {
			return err
		}
		r.Start()
		defer r.Stop()
	}
	_, err := p.Run()
	return err
}
