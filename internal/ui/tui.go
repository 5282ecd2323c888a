package ui

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

// TUIRenderer draws index progress with bubbletea.
type TUIRenderer struct {
	mu      sync.Mutex
	cfg     Config
	program *tea.Program
	model   *indexModel
	tracker *ProgressTracker
	started bool
	done    chan struct{}
}

// NewTUIRenderer creates a TUI renderer. It fails when the output is not a
// terminal.
func NewTUIRenderer(cfg Config) (*TUIRenderer, error) {
	if !IsTTY(cfg.Output) {
		return nil, fmt.Errorf("output is not a TTY")
	}

	tracker := NewProgressTracker()
	model := newIndexModel(tracker, cfg.Title)
	if cfg.NoColor || DetectNoColor() {
		model.styles = NoColorStyles()
	}

	return &TUIRenderer{
		cfg:     cfg,
		tracker: tracker,
		model:   model,
		done:    make(chan struct{}),
	}, nil
}

// Start implements Renderer.
func (r *TUIRenderer) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started {
		return nil
	}

	opts := []tea.ProgramOption{tea.WithContext(ctx)}
	if f, ok := r.cfg.Output.(*os.File); ok {
		opts = append(opts, tea.WithOutput(f))
	}
	r.program = tea.NewProgram(r.model, opts...)
	r.started = true

	go func() {
		defer close(r.done)
		_, _ = r.program.Run()
	}()
	return nil
}

// UpdateProgress implements Renderer.
func (r *TUIRenderer) UpdateProgress(event ProgressEvent) {
	r.tracker.Apply(event)
}

// AddError implements Renderer.
func (r *TUIRenderer) AddError(event ErrorEvent) {
	r.tracker.AddError(event)
}

// Complete implements Renderer.
func (r *TUIRenderer) Complete(stats CompletionStats) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tracker.Apply(ProgressEvent{Stage: StageComplete})
	if r.program != nil {
		r.program.Send(completeMsg(stats))
	}
}

// Stop implements Renderer.
func (r *TUIRenderer) Stop() error {
	r.mu.Lock()
	program := r.program
	r.mu.Unlock()

	if program == nil {
		return nil
	}
	program.Quit()

	select {
	case <-r.done:
	case <-time.After(2 * time.Second):
		// the program ignored Quit; do not hang the CLI on it
	}
	return nil
}

type completeMsg CompletionStats
type tickMsg time.Time

type indexModel struct {
	tracker  *ProgressTracker
	title    string
	width    int
	quitting bool
	complete bool
	stats    CompletionStats
	spinner  spinner.Model
	bar      progress.Model
	styles   Styles
}

func newIndexModel(tracker *ProgressTracker, title string) *indexModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorLime))

	if title == "" {
		title = "catalog index"
	}
	return &indexModel{
		tracker: tracker,
		title:   title,
		width:   80,
		spinner: s,
		bar: progress.New(
			progress.WithSolidFill(ColorLime),
			progress.WithWidth(50),
			progress.WithoutPercentage(),
		),
		styles: DefaultStyles(),
	}
}

// Init implements tea.Model.
func (m *indexModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tickCmd())
}

func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update implements tea.Model.
func (m *indexModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = max(msg.Width-20, 20)

	case completeMsg:
		m.complete = true
		m.stats = CompletionStats(msg)
		return m, tea.Quit

	case tickMsg:
		return m, tickCmd()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m *indexModel) View() string {
	if m.quitting {
		return "Cancelled.\n"
	}
	if m.complete {
		return m.renderComplete()
	}

	stats := m.tracker.Stats()
	width := max(m.width-4, 40)

	lines := []string{m.renderStages(stats.Stage)}
	if stats.Root != "" {
		lines = append(lines, m.styles.Label.Render("root ")+stats.Root)
	}

	if stats.Total > 0 {
		lines = append(lines, fmt.Sprintf("%s  %s", m.bar.ViewAs(stats.Progress),
			m.styles.Active.Render(fmt.Sprintf("%3.0f%%", stats.Progress*100))))
		lines = append(lines, m.styles.Label.Render(fmt.Sprintf("%s / %s entries",
			humanize.Comma(int64(stats.Current)), humanize.Comma(int64(stats.Total)))))
	} else {
		lines = append(lines, fmt.Sprintf("%s %s...", m.spinner.View(), stats.Stage))
	}

	lines = append(lines,
		m.styles.Label.Render(fmt.Sprintf("%.0f/s (peak %.0f)", stats.Speed.Current, stats.Speed.Peak)),
		m.styles.Bar.Render(m.tracker.RenderSparkline(max(width-10, 10))),
	)
	if stats.Path != "" {
		lines = append(lines, m.styles.Dim.Render(truncatePath(stats.Path, width-2)))
	}
	if stats.WarnCount > 0 || stats.ErrorCount > 0 {
		lines = append(lines, m.styles.Warning.Render(fmt.Sprintf("%d warnings, %d errors", stats.WarnCount, stats.ErrorCount)))
	}

	panel := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ColorDarkGray)).
		Padding(0, 1).
		Width(width)
	return lipgloss.JoinVertical(lipgloss.Left,
		m.styles.Header.Render(m.title),
		panel.Render(strings.Join(lines, "\n")),
	) + "\n"
}

func (m *indexModel) renderStages(current Stage) string {
	var parts []string
	for _, s := range []Stage{StageScanning, StageRecording, StageSweeping, StageSaving} {
		switch {
		case s < current:
			parts = append(parts, m.styles.Success.Render("● "+s.String()))
		case s == current:
			parts = append(parts, m.styles.Active.Render(m.spinner.View()+" "+s.String()))
		default:
			parts = append(parts, m.styles.Dim.Render("○ "+s.String()))
		}
	}
	return strings.Join(parts, m.styles.Dim.Render(" → "))
}

func (m *indexModel) renderComplete() string {
	s := m.stats
	lines := []string{
		m.styles.Success.Render("✓ Index complete"),
		"",
		fmt.Sprintf("%s %d", m.styles.Label.Render("Run:      "), s.RunID),
		fmt.Sprintf("%s %d", m.styles.Label.Render("Roots:    "), s.Roots),
		fmt.Sprintf("%s %s", m.styles.Label.Render("Seen:     "), humanize.Comma(int64(s.Seen))),
		fmt.Sprintf("%s %d / %d / %d", m.styles.Label.Render("New/Chg/Del"), s.Created, s.Updated, s.Deleted),
		fmt.Sprintf("%s %s", m.styles.Label.Render("Duration: "), s.Duration.Round(100*time.Millisecond)),
	}
	if s.Missing > 0 {
		lines = append(lines, m.styles.Warning.Render(fmt.Sprintf("%d roots missing", s.Missing)))
	}
	if s.Errors > 0 || s.Warnings > 0 {
		lines = append(lines, m.styles.Warning.Render(fmt.Sprintf("%d errors, %d warnings", s.Errors, s.Warnings)))
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ColorLime)).
		Padding(1, 2).
		Width(max(m.width-4, 40)).
		Render(strings.Join(lines, "\n")) + "\n"
}

// truncatePath keeps the file name and as much of the tail of its parent
// as fits in maxLen.
func truncatePath(path string, maxLen int) string {
	if len(path) <= maxLen {
		return path
	}
	if maxLen < 4 {
		return "..."
	}
	i := strings.LastIndexByte(path, '/')
	name := path[i+1:]
	if i < 0 || len(name)+4 > maxLen {
		return "..." + path[len(path)-maxLen+3:]
	}
	room := maxLen - len(name) - 4
	dir := path[:i]
	return "..." + dir[len(dir)-room:] + "/" + name
}

var _ Renderer = (*TUIRenderer)(nil)
