// Package tui implements the interactive review feed.
//
// The Model owns a feed.Controller and drives it from bubbletea's Update
// loop, which is the controller's single owning goroutine. Controller tasks
// run as tea.Cmds and come back as resultMsgs.
package tui

import (
	"context"
	"fmt"
	"strings"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	lipgloss "charm.land/lipgloss/v2"
	"github.com/rs/zerolog"

	"github.com/colonyops/reviews/internal/core/assets"
	"github.com/colonyops/reviews/internal/core/feed"
	"github.com/colonyops/reviews/internal/core/layout"
	"github.com/colonyops/reviews/internal/core/review"
	"github.com/colonyops/reviews/internal/core/styles"
)

// loadAheadScreens is how close, in screens, the end of the list must be
// before the next page is requested.
const loadAheadScreens = 2.5

const title = "Отзывы"

// Deps are the collaborators of the feed view.
type Deps struct {
	Fetcher review.Fetcher
	Loader  *assets.Loader // nil disables asset loading
	Engine  layout.Engine
	Logger  *zerolog.Logger
}

// Options configures the feed view.
type Options struct {
	Context   context.Context
	PageLimit int
	MaxLines  int
	// Builder overrides the controller's item builder, for deterministic ids.
	Builder *feed.Builder
}

type resultMsg struct {
	res feed.Result
}

// taps collects photo taps emitted synchronously by the controller.
type taps struct {
	last *feed.PhotoTap
}

// Model is the bubbletea model of the review feed.
type Model struct {
	ctx    context.Context
	ctrl   *feed.Controller
	taps   *taps
	engine layout.Engine

	keys    KeyMap
	help    help.Model
	spinner spinner.Model

	state    feed.State
	selected int
	top      int // index of the first visible item
	tap      *feed.PhotoTap

	width  int
	height int
}

// New creates the feed view. Nothing is fetched until Init.
func New(deps Deps, opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	t := &taps{}
	ctrl := feed.NewController(deps.Fetcher, deps.Loader, feed.Options{
		PageLimit:  opts.PageLimit,
		MaxLines:   opts.MaxLines,
		OnPhotoTap: func(tap feed.PhotoTap) { t.last = &tap },
		Logger:     deps.Logger,
	})
	if opts.Builder != nil {
		ctrl.SetBuilder(*opts.Builder)
	}

	return Model{
		ctx:     ctx,
		ctrl:    ctrl,
		taps:    t,
		engine:  deps.Engine,
		keys:    DefaultKeyMap(),
		help:    help.New(),
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(styles.StatusStyle)),
		state:   ctrl.State(),
	}
}

// State returns the last observed feed state.
func (m Model) State() feed.State {
	return m.state
}

// Selected returns the index of the selected item.
func (m Model) Selected() int {
	return m.selected
}

// LastTap returns the photo tap shown in the status line, if any.
func (m Model) LastTap() (feed.PhotoTap, bool) {
	if m.tap == nil {
		return feed.PhotoTap{}, false
	}
	return *m.tap, true
}

// Init requests the first page.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.exec(m.ctrl.RequestNextPage()), m.spinner.Tick)
}

// Update handles messages for the feed view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.SetWidth(msg.Width)
		m.sync()
		return m, m.loadMore(false)
	case resultMsg:
		tasks := m.ctrl.Apply(msg.res)
		m.sync()
		return m, tea.Batch(m.exec(tasks), m.loadMore(false))
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.KeyPressMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.Down):
		m.move(m.selected + 1)
		return m, m.loadMore(true)
	case key.Matches(msg, m.keys.Up):
		m.move(m.selected - 1)
		return m, nil
	case key.Matches(msg, m.keys.Top):
		m.move(0)
		return m, nil
	case key.Matches(msg, m.keys.Bottom):
		m.move(len(m.state.Items) - 1)
		return m, m.loadMore(true)
	case key.Matches(msg, m.keys.Refresh):
		tasks := m.ctrl.Dispatch(feed.Reload{})
		m.selected, m.top, m.tap = 0, 0, nil
		m.sync()
		return m, m.exec(tasks)
	}

	id, ok := m.selectedReview()
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.ShowMore):
		m.ctrl.Dispatch(feed.ShowMore{ItemID: id})
	case key.Matches(msg, m.keys.Photo):
		index := int(msg.String()[0] - '1')
		m.ctrl.Dispatch(feed.OpenPhoto{ItemID: id, Index: index})
	case key.Matches(msg, m.keys.Avatar):
		m.ctrl.Dispatch(feed.OpenAvatar{ItemID: id})
	default:
		return m, nil
	}

	m.sync()
	m.ensureVisible()
	return m, nil
}

// sync pulls the controller state and any pending photo tap.
func (m *Model) sync() {
	m.state = m.ctrl.State()
	if m.taps.last != nil {
		m.tap = m.taps.last
		m.taps.last = nil
	}

	n := len(m.state.Items)
	m.selected = min(m.selected, max(n-1, 0))
	m.top = min(m.top, m.selected)
}

func (m *Model) move(to int) {
	n := len(m.state.Items)
	if n == 0 {
		return
	}
	m.selected = min(max(to, 0), n-1)
	m.tap = nil
	m.ensureVisible()
}

// ensureVisible scrolls so the selected row is on screen, showing as much
// of it as fits.
func (m *Model) ensureVisible() {
	if m.selected < m.top {
		m.top = m.selected
		return
	}
	if m.width == 0 {
		return
	}
	for m.top < m.selected && m.heightBetween(m.top, m.selected+1) > m.listHeight() {
		m.top++
	}
}

func (m Model) heightBetween(from, to int) int {
	h := 0
	for _, it := range m.state.Items[from:to] {
		h += it.Height(m.engine, m.width)
	}
	return h
}

func (m Model) listHeight() int {
	// title, status and help lines
	return max(m.height-3, 1)
}

// loadMore requests the next page when fewer than loadAheadScreens screens
// of rows remain below the viewport. After a failed load only user
// navigation retries, so a broken source is not hammered.
func (m *Model) loadMore(userInitiated bool) tea.Cmd {
	if !m.state.ShouldLoadMore || m.width == 0 {
		return nil
	}
	if m.state.HasError && !userInitiated {
		return nil
	}

	below := m.heightBetween(m.top, len(m.state.Items)) - m.listHeight()
	if float64(below) > loadAheadScreens*float64(m.listHeight()) {
		return nil
	}

	tasks := m.ctrl.Dispatch(feed.LoadMore{})
	m.sync()
	return m.exec(tasks)
}

func (m Model) selectedReview() (string, bool) {
	if m.selected >= len(m.state.Items) {
		return "", false
	}
	r, ok := m.state.Items[m.selected].(feed.ReviewItem)
	if !ok {
		return "", false
	}
	return r.ID(), true
}

// exec turns controller tasks into commands that run concurrently.
func (m Model) exec(tasks []feed.Task) tea.Cmd {
	if len(tasks) == 0 {
		return nil
	}
	ctx := m.ctx
	cmds := make([]tea.Cmd, len(tasks))
	for i, task := range tasks {
		cmds[i] = func() tea.Msg {
			return resultMsg{res: task(ctx)}
		}
	}
	return tea.Batch(cmds...)
}

// View renders the feed.
func (m Model) View() tea.View {
	v := tea.NewView(m.render())
	v.AltScreen = true
	return v
}

func (m Model) render() string {
	if m.width == 0 {
		return ""
	}

	var lines []string
	for i := m.top; i < len(m.state.Items) && len(lines) < m.listHeight(); i++ {
		row := renderItem(m.state.Items[i], m.engine, m.width, i == m.selected)
		lines = append(lines, strings.Split(row, "\n")...)
	}
	lines = lines[:min(len(lines), m.listHeight())]
	for len(lines) < m.listHeight() {
		lines = append(lines, "")
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		styles.TitleStyle.Render(title),
		strings.Join(lines, "\n"),
		m.status(),
		m.help.View(m.keys),
	)
}

func (m Model) status() string {
	if m.tap != nil {
		return m.renderTap(*m.tap)
	}

	switch m.state.Phase() {
	case feed.PhaseLoading:
		return m.spinner.View() + styles.StatusStyle.Render(" Загрузка отзывов...")
	case feed.PhaseError:
		return styles.StatusErrorStyle.Render(styles.IconError + " Не удалось загрузить отзывы. j повторит, r обновит")
	case feed.PhaseExhausted:
		if m.state.Reviews() == 0 {
			return styles.StatusStyle.Render("Отзывов пока нет")
		}
	}

	if n := m.state.Reviews(); n > 0 {
		pos := min(m.selected+1, n)
		return styles.StatusStyle.Render(fmt.Sprintf("%d / %d", pos, n))
	}
	return ""
}

func (m Model) renderTap(tap feed.PhotoTap) string {
	img := tap.Images[tap.Index]
	swatch := styles.Tile(img.Average).Render("  ")

	desc := fmt.Sprintf(" %s %d из %d", styles.IconPhoto, tap.Index+1, len(tap.Images))
	switch {
	case img.Placeholder:
		desc += " · не загружено"
	default:
		desc += fmt.Sprintf(" · %d×%d · %s", img.Width, img.Height, img.Source)
	}
	return swatch + styles.StatusStyle.Render(desc)
}
