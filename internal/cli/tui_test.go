package cli

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/pomgraph/pkg/artifact"
)

// step applies msg and runs the returned command, feeding its message back
// until the model settles.
func step(t *testing.T, m NodeBrowserModel, msg tea.Msg) NodeBrowserModel {
	t.Helper()
	for msg != nil {
		next, cmd := m.Update(msg)
		m = next.(NodeBrowserModel)
		msg = nil
		if cmd != nil {
			msg = cmd()
		}
	}
	return m
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestNodeBrowserNavigation(t *testing.T) {
	ctx := context.Background()
	gw := storedGraph(t)
	root, err := gw.Get(ctx, artifact.Coordinate{Group: "g", Artifact: "a", Version: "1"})
	if err != nil || root == nil {
		t.Fatalf("Get() = %v, %v", root, err)
	}

	m := NewNodeBrowserModel(ctx, gw, root)
	m = step(t, m, m.Init()())
	if !strings.Contains(m.View(), "g:b") {
		t.Fatalf("initial view lacks dependencies:\n%s", m.View())
	}

	m = step(t, m, key("enter"))
	if m.Depth() != 2 || m.Current().Artifact != "b" {
		t.Fatalf("after enter: depth %d at %s, want 2 at b", m.Depth(), m.Current())
	}
	if !strings.Contains(m.View(), "g:d") {
		t.Errorf("b's view lacks its dependency d:\n%s", m.View())
	}

	m = step(t, m, key("backspace"))
	if m.Depth() != 1 || m.Current().Artifact != "a" {
		t.Fatalf("after backspace: depth %d at %s", m.Depth(), m.Current())
	}

	// c is a dangling stub: it is stored, so it can be opened, and has no edges.
	m = step(t, m, key("down"))
	m = step(t, m, key("enter"))
	if m.Current().Artifact != "c" {
		t.Fatalf("after down+enter at %s, want c", m.Current())
	}
	if !strings.Contains(m.View(), "DANGLING") || !strings.Contains(m.View(), "no dependencies") {
		t.Errorf("dangling view:\n%s", m.View())
	}

	m = step(t, m, key("p"))
	if !strings.Contains(m.View(), "no parent") {
		t.Errorf("p without parent should report it:\n%s", m.View())
	}

	m = step(t, m, key("tab"))
	if !strings.Contains(m.View(), "no dependency management") {
		t.Errorf("tab should switch to management:\n%s", m.View())
	}
}

func TestNodeBrowserBackAtRoot(t *testing.T) {
	ctx := context.Background()
	gw := storedGraph(t)
	root, _ := gw.Get(ctx, artifact.Coordinate{Group: "g", Artifact: "d", Version: "1"})

	m := NewNodeBrowserModel(ctx, gw, root)
	m = step(t, m, key("backspace"))
	if m.Depth() != 1 {
		t.Errorf("Depth() = %d, want 1", m.Depth())
	}
	m = step(t, m, key("enter"))
	if m.Depth() != 1 {
		t.Errorf("enter on an empty list moved to depth %d", m.Depth())
	}
}
