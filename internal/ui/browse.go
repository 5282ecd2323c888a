package ui

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
)

// Node is one row of the browser.
type Node struct {
	Path  string
	Size  uint64
	IsDir bool
}

// ChildLister returns the direct children of path, largest first.
type ChildLister func(path string) ([]Node, error)

type browseKeys struct {
	Up    key.Binding
	Down  key.Binding
	Enter key.Binding
	Back  key.Binding
	Quit  key.Binding
}

var defaultBrowseKeys = browseKeys{
	Up:    key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:  key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Enter: key.NewBinding(key.WithKeys("enter", "right", "l"), key.WithHelp("enter", "open")),
	Back:  key.NewBinding(key.WithKeys("backspace", "left", "h"), key.WithHelp("←", "parent")),
	Quit:  key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
}

// BrowseModel is a bubbletea model that drills into directory sizes.
type BrowseModel struct {
	list    ChildLister
	keys    browseKeys
	styles  Styles
	stack   []string
	nodes   []Node
	cursor  int
	offset  int
	height  int
	width   int
	err     error
	Quitted bool
}

// NewBrowseModel starts browsing at start. The user cannot go above it.
func NewBrowseModel(start string, list ChildLister, noColor bool) *BrowseModel {
	m := &BrowseModel{
		list:   list,
		keys:   defaultBrowseKeys,
		styles: GetStyles(noColor || DetectNoColor()),
		height: 20,
		width:  80,
	}
	m.open(filepath.Clean(start))
	return m
}

// Current returns the directory being shown.
func (m *BrowseModel) Current() string {
	if len(m.stack) == 0 {
		return ""
	}
	return m.stack[len(m.stack)-1]
}

// Nodes returns the rows being shown.
func (m *BrowseModel) Nodes() []Node { return m.nodes }

func (m *BrowseModel) open(path string) {
	nodes, err := m.list(path)
	if err != nil {
		m.err = err
		return
	}
	m.err = nil
	m.stack = append(m.stack, path)
	m.nodes = nodes
	m.cursor, m.offset = 0, 0
}

func (m *BrowseModel) back() {
	if len(m.stack) <= 1 {
		return
	}
	left := m.stack[len(m.stack)-1]
	m.stack = m.stack[:len(m.stack)-1]
	m.reload(left)
}

// reload re-lists the current directory and puts the cursor on selected.
func (m *BrowseModel) reload(selected string) {
	nodes, err := m.list(m.Current())
	if err != nil {
		m.err = err
		return
	}
	m.nodes = nodes
	m.cursor, m.offset = 0, 0
	for i, n := range nodes {
		if n.Path == selected {
			m.cursor = i
			break
		}
	}
	m.scroll()
}

func (m *BrowseModel) scroll() {
	rows := m.rows()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+rows {
		m.offset = m.cursor - rows + 1
	}
}

func (m *BrowseModel) rows() int { return max(m.height-4, 1) }

// Init implements tea.Model.
func (m *BrowseModel) Init() tea.Cmd { return nil }

// Update implements tea.Model.
func (m *BrowseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.scroll()
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.Quitted = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, m.keys.Down):
			if m.cursor < len(m.nodes)-1 {
				m.cursor++
			}
		case key.Matches(msg, m.keys.Enter):
			if m.cursor < len(m.nodes) && m.nodes[m.cursor].IsDir {
				m.open(m.nodes[m.cursor].Path)
			}
		case key.Matches(msg, m.keys.Back):
			m.back()
		}
		m.scroll()
	}
	return m, nil
}

// View implements tea.Model.
func (m *BrowseModel) View() string {
	var b strings.Builder

	var total uint64
	for _, n := range m.nodes {
		total += n.Size
	}
	b.WriteString(m.styles.Header.Render(m.Current()))
	b.WriteString(m.styles.Label.Render("  " + humanize.IBytes(total)))
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(m.styles.Error.Render(m.err.Error()) + "\n")
	}
	if len(m.nodes) == 0 {
		b.WriteString(m.styles.Dim.Render("  (empty)") + "\n")
	}

	barWidth := 20
	end := min(m.offset+m.rows(), len(m.nodes))
	for i := m.offset; i < end; i++ {
		n := m.nodes[i]
		name := filepath.Base(n.Path)
		if n.IsDir {
			name += "/"
		}
		filled := 0
		if total > 0 {
			filled = int(float64(n.Size) / float64(total) * float64(barWidth))
		}
		bar := m.styles.Bar.Render(strings.Repeat("█", filled)) + m.styles.Dim.Render(strings.Repeat("░", barWidth-filled))
		row := fmt.Sprintf("%10s %s %s", humanize.IBytes(n.Size), bar, truncatePath(name, max(m.width-barWidth-14, 10)))
		if i == m.cursor {
			row = m.styles.Selected.Render(row)
		}
		b.WriteString(row + "\n")
	}

	b.WriteString("\n" + m.styles.Dim.Render(strings.Join([]string{
		m.keys.Up.Help().Key + " " + m.keys.Up.Help().Desc,
		m.keys.Down.Help().Key + " " + m.keys.Down.Help().Desc,
		m.keys.Enter.Help().Key + " " + m.keys.Enter.Help().Desc,
		m.keys.Back.Help().Key + " " + m.keys.Back.Help().Desc,
		m.keys.Quit.Help().Key + " " + m.keys.Quit.Help().Desc,
	}, "  ")))
	return b.String()
}

// Browse runs the interactive browser until the user quits.
func Browse(ctx context.Context, in io.Reader, out io.Writer, start string, list ChildLister, noColor bool) error {
	m := NewBrowseModel(start, list, noColor)
	if m.err != nil {
		return m.err
	}
	p := tea.NewProgram(m, tea.WithContext(ctx), tea.WithInput(in), tea.WithOutput(out), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
