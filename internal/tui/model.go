// Package tui provides the Bubble Tea split keyboard simulator.
//
// Typed keys are mapped onto the crkbd matrix and fed to both halves; each
// half renders its OLED on a fixed refresh tick.
package tui

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/kpmoled/internal/clock"
	"github.com/verte-zerg/kpmoled/internal/config"
	"github.com/verte-zerg/kpmoled/internal/device"
	"github.com/verte-zerg/kpmoled/internal/display"
	"github.com/verte-zerg/kpmoled/internal/generator"
	"github.com/verte-zerg/kpmoled/internal/matrix"
	"github.com/verte-zerg/kpmoled/internal/model"
	"github.com/verte-zerg/kpmoled/internal/store"
)

// Options configures the simulator.
type Options struct {
	Settings config.Settings
	// Store receives recorded traces and may be nil.
	Store *store.Store
	// Clock defaults to the process monotonic clock.
	Clock clock.Clock
	// Left and Right receive every frame of each half and may be nil.
	Left  io.Writer
	Right io.Writer
	Style display.Style
	// Words feed the practice prompt; an empty list hides it.
	Words []string
	Gen   *generator.Generator
	Text  model.GenerateConfig
}

type tickMsg time.Time

// Model implements the Bubble Tea simulator UI.
type Model struct {
	opts  Options
	clock clock.Clock
	left  *device.Device
	right *device.Device
	keys  keyMap
	help  help.Model

	width  int
	height int

	target []rune
	input  []rune

	recording bool
	recStart  time.Duration
	events    []model.Event

	status string
}

var (
	correctStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	incorrectStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	pendingStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cursorStyle    = pendingStyle.Underline(true)
	footerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	recordingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F")).Bold(true)
)

// NewModel constructs the simulator with a primary left half and a
// secondary right half.
func NewModel(opts Options) (*Model, error) {
	c := opts.Clock
	if c == nil {
		c = clock.NewMonotonic()
	}
	if opts.Settings.Refresh <= 0 {
		return nil, fmt.Errorf("refresh interval must be > 0")
	}
	left, err := device.New(opts.Settings.Device, c, device.Fixed(true), opts.Left)
	if err != nil {
		return nil, fmt.Errorf("failed to build left half: %w", err)
	}
	right, err := device.New(opts.Settings.Device, c, device.Fixed(false), opts.Right)
	if err != nil {
		return nil, fmt.Errorf("failed to build right half: %w", err)
	}
	if opts.Gen == nil {
		opts.Gen = generator.New()
	}
	m := &Model{
		opts:  opts,
		clock: c,
		left:  left,
		right: right,
		keys:  defaultKeyMap(),
		help:  help.New(),
	}
	m.newPrompt()
	return m, nil
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return m.tick()
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(m.opts.Settings.Refresh, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil
	case tickMsg:
		m.refresh()
		return m, m.tick()
	case tea.KeyMsg:
		return m.handleKey(msg)
	default:
		return m, nil
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		if m.recording {
			m.stopRecording()
		}
		return m, tea.Quit
	case key.Matches(msg, m.keys.Record):
		if m.recording {
			m.stopRecording()
		} else {
			m.startRecording()
		}
		return m, nil
	case key.Matches(msg, m.keys.Prompt):
		m.newPrompt()
		return m, nil
	case key.Matches(msg, m.keys.Style):
		if m.opts.Style == display.StyleBraille {
			m.opts.Style = display.StyleBlocks
		} else {
			m.opts.Style = display.StyleBraille
		}
		return m, nil
	case key.Matches(msg, m.keys.Reset):
		m.left.Active().Window.Reset()
		m.right.Active().Window.Reset()
		return m, nil
	}

	switch msg.Type {
	case tea.KeyRunes:
		for _, r := range msg.Runes {
			m.typeRune(r)
		}
	case tea.KeySpace:
		m.typeRune(' ')
	case tea.KeyEnter:
		m.press(matrix.Enter)
	case tea.KeyTab:
		m.press(matrix.Tab)
	case tea.KeyBackspace:
		m.press(matrix.Backspace)
		if len(m.input) > 0 {
			m.input = m.input[:len(m.input)-1]
		}
	}
	return m, nil
}

func (m *Model) typeRune(r rune) {
	keys, ok := matrix.Lookup(r)
	if !ok {
		m.status = fmt.Sprintf("%q is not on the keyboard", r)
		return
	}
	for _, pos := range keys {
		m.press(pos)
	}
	if len(m.target) == 0 {
		return
	}
	m.input = append(m.input, r)
	if len(m.input) >= len(m.target) {
		m.newPrompt()
	}
}

// press delivers one key press to both halves; each counts its own rows.
func (m *Model) press(pos matrix.Position) {
	k := device.Key{Row: pos.Row, Col: pos.Col, Pressed: true}
	m.left.Process(k)
	m.right.Process(k)
	if m.recording {
		m.events = append(m.events, model.Event{
			OffsetMs: (m.clock.Now() - m.recStart).Milliseconds(),
			Row:      pos.Row,
			Col:      pos.Col,
		})
	}
}

func (m *Model) refresh() {
	if err := m.left.Refresh(); err != nil {
		m.status = err.Error()
	}
	if err := m.right.Refresh(); err != nil {
		m.status = err.Error()
	}
}

func (m *Model) newPrompt() {
	m.input = nil
	m.target = []rune(m.opts.Gen.Text(m.opts.Words, m.opts.Text))
}

func (m *Model) startRecording() {
	m.recording = true
	m.recStart = m.clock.Now()
	m.events = nil
	m.status = "recording"
}

func (m *Model) stopRecording() {
	m.recording = false
	if len(m.events) == 0 {
		m.status = "recording discarded (no keys)"
		return
	}
	if m.opts.Store == nil {
		m.status = fmt.Sprintf("recorded %d keys (no store)", len(m.events))
		return
	}
	trace := model.Trace{
		Name:      "recording " + time.Now().Format("2006-01-02 15:04:05"),
		Source:    model.SourceRecorded,
		CreatedAt: time.Now(),
		Events:    m.events,
	}
	id, err := m.opts.Store.InsertTrace(context.Background(), trace)
	if err != nil {
		logErrf("failed to save trace: %v\n", err)
		m.status = "failed to save trace"
		return
	}
	m.status = fmt.Sprintf("saved trace %s (%d keys)", shortID(id), len(m.events))
	m.events = nil
}

// View implements tea.Model.
func (m *Model) View() string {
	panels := lipgloss.JoinHorizontal(lipgloss.Top,
		m.panel(m.left, "left"),
		"  ",
		m.panel(m.right, "right"),
	)
	lines := []string{panels, ""}
	if p := promptLine(m.target, m.input, m.promptWidth()); p != "" {
		lines = append(lines, p, "")
	}
	lines = append(lines, m.renderFooter(), m.help.View(m.keys))
	body := strings.Join(lines, "\n")
	if m.width == 0 || m.height == 0 {
		return body
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, body)
}

func (m *Model) panel(d *device.Device, name string) string {
	snap := d.Snapshot()
	title := fmt.Sprintf("%s %d", name, snap.Count)
	return display.Panel(d.Image(), m.opts.Style, title)
}

func (m *Model) promptWidth() int {
	if m.width == 0 {
		return 60
	}
	return max(int(float64(m.width)*0.7), 1)
}

func (m *Model) renderFooter() string {
	l, r := m.left.Snapshot(), m.right.Snapshot()
	segments := []string{
		fmt.Sprintf("Border %d/%d · %d/%d", l.Frame, m.left.Perimeter(), r.Frame, m.right.Perimeter()),
		fmt.Sprintf("Span %s · %s", l.Total.Round(100*time.Millisecond), r.Total.Round(100*time.Millisecond)),
	}
	footer := footerStyle.Render(strings.Join(segments, "  "))
	if m.recording {
		footer = recordingStyle.Render(fmt.Sprintf("● REC %d keys", len(m.events))) + "  " + footer
	} else if m.status != "" {
		footer = footer + "  " + footerStyle.Render(m.status)
	}
	return footer
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
