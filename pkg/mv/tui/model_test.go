package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/komsit37/marginview/pkg/mv/format"
	"github.com/komsit37/marginview/pkg/mv/logging"
	"github.com/komsit37/marginview/pkg/mv/notify"
	"github.com/komsit37/marginview/pkg/mv/selector"
	"github.com/komsit37/marginview/pkg/mv/source"
	"github.com/komsit37/marginview/pkg/mv/types"
	"github.com/komsit37/marginview/pkg/mv/window"
)

func series(n int) []types.DataPoint {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]types.DataPoint, n)
	for i := range out {
		out[i] = types.DataPoint{
			Date:  start.AddDate(0, 0, i).Format(types.DateLayout),
			Value: 2 + float64(i%7)/10,
			Label: "ratio",
		}
	}
	return out
}

// loaded returns a model sized 100x30 over a 50 point dataset with a
// 20 point default window, i.e. selection (30, 49).
func loaded(t *testing.T) Model {
	t.Helper()
	ctrl := window.New(&source.MockSource{Points: series(50)},
		window.WithDefaultWindow(20), window.WithLogger(logging.Discard()))
	return load(t, ctrl)
}

func load(t *testing.T, ctrl *window.Controller) Model {
	t.Helper()
	m := NewModel(context.Background(), Options{Controller: ctrl, Toast: time.Second, Logger: logging.Discard()})
	m = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})
	applied, err := ctrl.Load(context.Background())
	return update(t, m, loadedMsg{applied: applied, err: err})
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

func TestLoadedBuildsSelector(t *testing.T) {
	m := loaded(t)
	if m.sel == nil {
		t.Fatal("selector not built")
	}
	if got := m.sel.Selection(); got != (types.Selection{Start: 30, End: 49}) {
		t.Errorf("selector = %+v", got)
	}
	if len(m.view.Display) != 20 {
		t.Errorf("len(Display) = %d, want 20", len(m.view.Display))
	}
	if m.anim != animFrames {
		t.Errorf("anim = %d, want %d on first frame", m.anim, animFrames)
	}
	if m.reveal() != 0 {
		t.Errorf("reveal() = %d at animation start", m.reveal())
	}
	for i := 0; i < animFrames; i++ {
		m = update(t, m, animTickMsg{})
	}
	if m.anim != 0 || m.reveal() != 20 {
		t.Errorf("after animation anim=%d reveal=%d", m.anim, m.reveal())
	}

	// A selection change must not animate again.
	m = update(t, m, tea.KeyMsg{Type: tea.KeyLeft})
	if m.view.Animate || m.anim != 0 {
		t.Error("selection change re-animated")
	}
}

func TestStaleLoadIgnored(t *testing.T) {
	m := loaded(t)
	m = update(t, m, tea.KeyMsg{Type: tea.KeyLeft})
	m = update(t, m, loadedMsg{applied: false})
	if got := m.view.Selection; got != (types.Selection{Start: 29, End: 48}) {
		t.Errorf("selection = %+v after stale load", got)
	}
}

func TestKeys(t *testing.T) {
	tests := []struct {
		name string
		key  tea.KeyMsg
		want types.Selection
	}{
		{"left", tea.KeyMsg{Type: tea.KeyLeft}, types.Selection{Start: 29, End: 48}},
		{"right at end", tea.KeyMsg{Type: tea.KeyRight}, types.Selection{Start: 30, End: 49}},
		{"shift+left", tea.KeyMsg{Type: tea.KeyShiftLeft}, types.Selection{Start: 20, End: 39}},
		{"shrink", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'['}}, types.Selection{Start: 31, End: 49}},
		{"grow", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{']'}}, types.Selection{Start: 29, End: 49}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := update(t, loaded(t), tt.key)
			if got := m.ctrl.Selection(); got != tt.want {
				t.Errorf("controller selection = %+v, want %+v", got, tt.want)
			}
			if got := m.sel.Selection(); got != tt.want {
				t.Errorf("selector = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestQuitKey(t *testing.T) {
	for _, k := range []tea.KeyMsg{
		{Type: tea.KeyRunes, Runes: []rune{'q'}},
		{Type: tea.KeyCtrlC},
	} {
		_, cmd := loaded(t).Update(k)
		if cmd == nil {
			t.Fatalf("%s: no command", k)
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Errorf("%s: command is not quit", k)
		}
	}
}

func TestReloadKeyShowsRefreshing(t *testing.T) {
	m := loaded(t)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})
	m = next.(Model)
	if cmd == nil || !m.view.Loading {
		t.Fatal("reload did not start a load")
	}
	if !strings.Contains(m.headerView(), "(refreshing)") {
		t.Errorf("header = %q", m.headerView())
	}
	m = update(t, m, cmd())
	if m.view.Loading {
		t.Error("still loading after the load resolved")
	}
}

// Fast sources can resolve before the terminal reports its size.
func TestLoadBeforeResizeKeepsHandleTolerance(t *testing.T) {
	ctrl := window.New(&source.MockSource{Points: series(50)},
		window.WithDefaultWindow(20), window.WithLogger(logging.Discard()))
	m := NewModel(context.Background(), Options{Controller: ctrl, Logger: logging.Discard()})
	applied, err := ctrl.Load(context.Background())
	m = update(t, m, loadedMsg{applied: applied, err: err})
	m = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})

	row := m.trackRow()
	mid := (m.handleCol(30) + m.handleCol(49)) / 2
	if got := m.sel.HitTest(float64(mid)); got != selector.TrackMiddle {
		t.Errorf("HitTest(%d) = %v, want track-middle", mid, got)
	}
	if got := m.sel.HitTest(5); got != selector.Outside {
		t.Errorf("HitTest(5) = %v, want outside", got)
	}

	m = update(t, m, tea.MouseMsg{X: 5, Y: row, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	want := types.Selection{Start: 0, End: 19}
	if got := m.ctrl.Selection(); got != want {
		t.Errorf("selection after click = %+v, want %+v", got, want)
	}
	if m.sel.State() != selector.Idle {
		t.Errorf("click started a drag: %v", m.sel.State())
	}
}

func TestShrinkStopsAtMinimumWidth(t *testing.T) {
	m := loaded(t)
	m.ctrl.SetSelection(40, 41)
	m = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'['}})
	if got := m.ctrl.Selection(); got != (types.Selection{Start: 40, End: 41}) {
		t.Errorf("selection = %+v, want unchanged {40 41}", got)
	}
}

func TestTrackClickRecenters(t *testing.T) {
	m := loaded(t)
	m = update(t, m, tea.MouseMsg{X: 1, Y: m.trackRow(), Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	want := types.Selection{Start: 0, End: 19}
	if got := m.ctrl.Selection(); got != want {
		t.Errorf("controller selection = %+v, want %+v", got, want)
	}
	if got := m.view.Selection; got != want {
		t.Errorf("view selection = %+v, want %+v", got, want)
	}
	if m.sel.State() != selector.Idle {
		t.Errorf("track click started a drag: %v", m.sel.State())
	}
}

func TestDragRightHandle(t *testing.T) {
	m := loaded(t)
	col := m.handleCol(49)
	if col != 98 {
		t.Fatalf("handleCol(49) = %d, want 98", col)
	}
	row := m.trackRow()
	m = update(t, m, tea.MouseMsg{X: col, Y: row, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	if m.sel.State() != selector.DraggingRight {
		t.Fatalf("State() = %v, want dragging-right", m.sel.State())
	}
	m = update(t, m, tea.MouseMsg{X: 50, Y: row, Action: tea.MouseActionMotion, Button: tea.MouseButtonLeft})
	want := types.Selection{Start: 30, End: 31}
	if got := m.ctrl.Selection(); got != want {
		t.Errorf("controller selection = %+v, want %+v", got, want)
	}
	if len(m.view.Display) != 2 {
		t.Errorf("len(Display) = %d, want 2", len(m.view.Display))
	}
	m = update(t, m, tea.MouseMsg{X: 50, Y: row, Action: tea.MouseActionRelease})
	if m.sel.State() != selector.Idle {
		t.Errorf("State() = %v after release", m.sel.State())
	}
}

func TestHoverOverChart(t *testing.T) {
	m := loaded(t)
	left, width := m.chartBounds()
	x := int(left + width/2)
	m = update(t, m, tea.MouseMsg{X: x, Y: headerRows + 1, Action: tea.MouseActionMotion})
	hs := m.hover.State()
	if !hs.Active {
		t.Fatal("hover not active over the chart")
	}
	if hs.Index < 0 || hs.Index >= len(m.view.Display) {
		t.Fatalf("hover index %d out of range", hs.Index)
	}
	date := format.TooltipDate(m.view.Display[hs.Index].Date)
	if !strings.Contains(m.statusView(), date) {
		t.Errorf("status %q missing %q", m.statusView(), date)
	}

	m = update(t, m, tea.MouseMsg{X: x, Y: 0, Action: tea.MouseActionMotion})
	if m.hover.State().Active {
		t.Error("hover still active above the chart")
	}

	// Selection changes clear the hover.
	m = update(t, m, tea.MouseMsg{X: x, Y: headerRows + 1, Action: tea.MouseActionMotion})
	m = update(t, m, tea.KeyMsg{Type: tea.KeyLeft})
	if m.hover.State().Active {
		t.Error("hover survived a selection change")
	}
}

func TestPressScrubsChart(t *testing.T) {
	m := loaded(t)
	left, width := m.chartBounds()
	y := headerRows + 1
	m = update(t, m, tea.MouseMsg{X: int(left), Y: y, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	if !m.hover.Touching() || m.hover.State().Index != 0 {
		t.Fatalf("press: touching=%v state=%+v", m.hover.Touching(), m.hover.State())
	}
	m = update(t, m, tea.MouseMsg{X: int(left + width - 1), Y: y, Action: tea.MouseActionMotion, Button: tea.MouseButtonLeft})
	if got := m.hover.State().Index; got != len(m.view.Display)-1 {
		t.Errorf("scrub index = %d, want last", got)
	}
	m = update(t, m, tea.MouseMsg{X: int(left), Y: y, Action: tea.MouseActionRelease})
	if m.hover.Touching() || m.hover.State().Active {
		t.Error("release did not end the scrub")
	}
}

func TestFailedLoadShowsNoData(t *testing.T) {
	var rec notify.Recorder
	ctrl := window.New(&source.MockSource{Err: &source.FetchError{Source: "mock", Err: errors.New("down")}},
		window.WithNotifier(&rec), window.WithLogger(logging.Discard()))
	m := load(t, ctrl)
	if m.sel != nil {
		t.Error("selector built without data")
	}
	if !strings.Contains(m.View(), "no data") {
		t.Errorf("view missing placeholder:\n%s", m.View())
	}
	if rec.Count() != 1 {
		t.Errorf("notified %d times, want 1", rec.Count())
	}
	// Mouse input without data is ignored.
	m = update(t, m, tea.MouseMsg{X: 5, Y: m.trackRow(), Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	m = update(t, m, tea.MouseMsg{X: 5, Y: headerRows, Action: tea.MouseActionMotion})
	if m.hover.State().Active {
		t.Error("hover active without data")
	}
}

func TestLoadingPlaceholder(t *testing.T) {
	ctrl := window.New(&source.MockSource{Points: series(5)}, window.WithLogger(logging.Discard()))
	m := NewModel(context.Background(), Options{Controller: ctrl})
	m = update(t, m, tea.WindowSizeMsg{Width: 60, Height: 20})
	if !strings.Contains(m.View(), "loading…") {
		t.Errorf("view before first load:\n%s", m.View())
	}
}

func TestBanner(t *testing.T) {
	m := loaded(t)
	m = update(t, m, noticeMsg(notify.LoadFailure()))
	if !strings.Contains(m.statusView(), notify.FailureTitle) {
		t.Fatalf("status = %q", m.statusView())
	}
	first := m.bannerSeq
	m = update(t, m, noticeMsg(notify.LoadFailure()))
	m = update(t, m, clearBannerMsg{seq: first})
	if m.banner == "" {
		t.Error("an older timer cleared a newer banner")
	}
	m = update(t, m, clearBannerMsg{seq: m.bannerSeq})
	if m.banner != "" {
		t.Errorf("banner = %q after its timer", m.banner)
	}
}

func TestWaitNoticeReadsChannel(t *testing.T) {
	ch := notify.NewChannel(1)
	ctrl := window.New(&source.MockSource{Points: series(5)}, window.WithLogger(logging.Discard()))
	m := NewModel(context.Background(), Options{Controller: ctrl, Notices: ch})
	if err := ch.Notify(context.Background(), notify.LoadFailure()); err != nil {
		t.Fatal(err)
	}
	msg, ok := m.waitNotice()().(noticeMsg)
	if !ok || msg.Title != notify.FailureTitle {
		t.Errorf("waitNotice() = %#v", msg)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m = NewModel(ctx, Options{Controller: ctrl, Notices: ch})
	if got := m.waitNotice()(); got != nil {
		t.Errorf("waitNotice() after cancel = %#v", got)
	}
}

func TestViewLayout(t *testing.T) {
	m := loaded(t)
	for i := 0; i < animFrames; i++ {
		m = update(t, m, animTickMsg{})
	}
	out := m.View()
	lines := strings.Split(out, "\n")
	if len(lines) != 30 {
		t.Errorf("View() has %d lines, want 30", len(lines))
	}
	for _, want := range []string{format.SeriesName, "均值", "2024.2.19", "┃"} {
		if !strings.Contains(out, want) {
			t.Errorf("View() missing %q", want)
		}
	}
}

func TestPadOrTrunc(t *testing.T) {
	tests := []struct {
		in   string
		w    int
		want string
	}{
		{"abc", 5, "abc  "},
		{"abcdef", 3, "abc"},
		{"两融", 3, "两 "},
		{"x", 0, ""},
	}
	for _, tt := range tests {
		got := padOrTrunc(tt.in, tt.w)
		if got != tt.want {
			t.Errorf("padOrTrunc(%q, %d) = %q, want %q", tt.in, tt.w, got, tt.want)
		}
	}
}
