package ui

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeTree() ChildLister {
	tree := map[string][]Node{
		"/r": {
			{Path: "/r/big", Size: 300, IsDir: true},
			{Path: "/r/small", Size: 100, IsDir: true},
			{Path: "/r/file.bin", Size: 50},
		},
		"/r/big":   {{Path: "/r/big/a.dat", Size: 300}},
		"/r/small": {{Path: "/r/small/b.dat", Size: 100}},
	}
	return func(path string) ([]Node, error) {
		nodes, ok := tree[path]
		if !ok {
			return nil, errors.New("not indexed: " + path)
		}
		return nodes, nil
	}
}

func press(m *BrowseModel, k tea.KeyType) {
	m.Update(tea.KeyMsg{Type: k})
}

func TestBrowseModel_DrillDownAndBack(t *testing.T) {
	// Given: a browser at the root
	m := NewBrowseModel("/r", fakeTree(), true)
	require.Len(t, m.Nodes(), 3)

	// When: moving to the second dir and opening it
	press(m, tea.KeyDown)
	press(m, tea.KeyEnter)

	// Then: its children are shown
	assert.Equal(t, "/r/small", m.Current())
	assert.Equal(t, "/r/small/b.dat", m.Nodes()[0].Path)

	// When: going back
	press(m, tea.KeyBackspace)

	// Then: the cursor is on the directory we left
	assert.Equal(t, "/r", m.Current())
	assert.Equal(t, 1, m.cursor)

	// And: back at the start directory is a no-op
	press(m, tea.KeyBackspace)
	assert.Equal(t, "/r", m.Current())
}

func TestBrowseModel_FilesDoNotOpen(t *testing.T) {
	m := NewBrowseModel("/r", fakeTree(), true)

	press(m, tea.KeyDown)
	press(m, tea.KeyDown)
	press(m, tea.KeyDown) // clamped
	press(m, tea.KeyEnter)

	assert.Equal(t, "/r", m.Current())
	assert.Equal(t, 2, m.cursor)
}

func TestBrowseModel_QuitAndView(t *testing.T) {
	m := NewBrowseModel("/r", fakeTree(), true)

	view := m.View()
	assert.Contains(t, view, "/r")
	assert.Contains(t, view, "450 B")
	assert.Contains(t, view, "big/")
	assert.Contains(t, view, "file.bin")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	assert.NotNil(t, cmd)
	assert.True(t, m.Quitted)
}

func TestBrowseModel_ListErrorIsShown(t *testing.T) {
	m := NewBrowseModel("/missing", fakeTree(), true)
	assert.Error(t, m.err)
	assert.Contains(t, m.View(), "not indexed")
}
