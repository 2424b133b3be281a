package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/pomgraph/pkg/artifact"
	"github.com/matzehuels/pomgraph/pkg/store"
)

// List styles
var (
	listDimStyle = lipgloss.NewStyle().Foreground(colorDim)
	listErrStyle = lipgloss.NewStyle().Foreground(colorRed)
)

// =============================================================================
// NodeBrowserModel - Interactive walk over stored nodes
// =============================================================================

// nodeSource reads stored nodes as lazy proxies.
type nodeSource interface {
	Get(ctx context.Context, c artifact.Coordinate) (*store.Proxy, error)
}

// browseList selects which edge list a frame shows.
type browseList int

const (
	listDependencies browseList = iota
	listManagement
)

func (l browseList) String() string {
	if l == listManagement {
		return "Dependency management"
	}
	return "Dependencies"
}

// browseFrame is one visited node. Edge lists are loaded from the proxy the
// first time they are shown.
type browseFrame struct {
	node   *store.Proxy
	parent *artifact.Coordinate
	edges  map[browseList][]artifact.Dependency
	list   browseList
	cursor int
	offset int
}

func (f *browseFrame) current() []artifact.Dependency { return f.edges[f.list] }

// nodeLoadedMsg carries the result of following an edge.
type nodeLoadedMsg struct {
	coord artifact.Coordinate
	frame *browseFrame
	err   error
}

// edgesLoadedMsg carries a lazily loaded edge list for the top frame.
type edgesLoadedMsg struct {
	frame  *browseFrame
	list   browseList
	edges  []artifact.Dependency
	parent *artifact.Coordinate
	err    error
}

// NodeBrowserModel is the bubbletea model for browsing the stored graph.
// Enter follows the selected edge, p follows the parent, backspace returns
// to the previous node and tab switches between dependencies and
// management.
type NodeBrowserModel struct {
	ctx    context.Context
	source nodeSource
	stack  []*browseFrame
	status string
	Height int
}

// NewNodeBrowserModel starts a browser at root.
func NewNodeBrowserModel(ctx context.Context, source nodeSource, root *store.Proxy) NodeBrowserModel {
	return NodeBrowserModel{
		ctx:    ctx,
		source: source,
		stack:  []*browseFrame{newBrowseFrame(root)},
		Height: 15,
	}
}

func newBrowseFrame(p *store.Proxy) *browseFrame {
	return &browseFrame{node: p, edges: make(map[browseList][]artifact.Dependency)}
}

func (m NodeBrowserModel) top() *browseFrame { return m.stack[len(m.stack)-1] }

// Depth returns how many nodes are on the history stack.
func (m NodeBrowserModel) Depth() int { return len(m.stack) }

// Current returns the node being shown.
func (m NodeBrowserModel) Current() artifact.Coordinate { return m.top().node.Node().Coordinate }

func (m NodeBrowserModel) Init() tea.Cmd {
	return m.loadEdges(m.top(), listDependencies)
}

// loadEdges returns a command loading list for f, or nil if already loaded.
func (m NodeBrowserModel) loadEdges(f *browseFrame, list browseList) tea.Cmd {
	if _, ok := f.edges[list]; ok {
		return nil
	}
	ctx, p := m.ctx, f.node
	return func() tea.Msg {
		var edges []artifact.Dependency
		var err error
		if list == listManagement {
			edges, err = p.LoadManagement(ctx)
		} else {
			edges, err = p.LoadDependencies(ctx)
		}
		var parent *artifact.Coordinate
		if err == nil {
			parent, err = p.LoadParent(ctx)
		}
		return edgesLoadedMsg{frame: f, list: list, edges: edges, parent: parent, err: err}
	}
}

// follow returns a command loading the stored node c.
func (m NodeBrowserModel) follow(c artifact.Coordinate) tea.Cmd {
	ctx, src := m.ctx, m.source
	return func() tea.Msg {
		p, err := src.Get(ctx, c)
		if err != nil || p == nil {
			return nodeLoadedMsg{coord: c, err: err}
		}
		return nodeLoadedMsg{coord: c, frame: newBrowseFrame(p)}
	}
}

func (m NodeBrowserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	f := m.top()
	switch msg := msg.(type) {
	case tea.KeyMsg:
		m.status = ""
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if f.cursor > 0 {
				f.cursor--
				if f.cursor < f.offset {
					f.offset = f.cursor
				}
			}
		case "down", "j":
			if f.cursor < len(f.current())-1 {
				f.cursor++
				if f.cursor >= f.offset+m.Height {
					f.offset = f.cursor - m.Height + 1
				}
			}
		case "tab":
			f.list = 1 - f.list
			f.cursor, f.offset = 0, 0
			return m, m.loadEdges(f, f.list)
		case "enter":
			edges := f.current()
			if len(edges) == 0 {
				return m, nil
			}
			target := edges[f.cursor].Target
			if target.Version == "" {
				m.status = target.GA() + " has no version"
				return m, nil
			}
			return m, m.follow(target)
		case "p":
			if f.parent == nil {
				m.status = "no parent"
				return m, nil
			}
			return m, m.follow(*f.parent)
		case "backspace", "h", "left":
			if len(m.stack) > 1 {
				m.stack = m.stack[:len(m.stack)-1]
			}
		}
	case nodeLoadedMsg:
		switch {
		case msg.err != nil:
			m.status = msg.err.Error()
		case msg.frame == nil:
			m.status = msg.coord.String() + " is not stored"
		default:
			m.stack = append(m.stack, msg.frame)
			return m, m.loadEdges(msg.frame, listDependencies)
		}
	case edgesLoadedMsg:
		if msg.err != nil {
			m.status = msg.err.Error()
			return m, nil
		}
		if msg.edges == nil {
			msg.edges = []artifact.Dependency{}
		}
		msg.frame.edges[msg.list] = msg.edges
		msg.frame.parent = msg.parent
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-12, 5)
	}
	return m, nil
}

func (m NodeBrowserModel) View() string {
	f := m.top()
	n := f.node.Node()
	var b strings.Builder

	crumbs := make([]string, len(m.stack))
	for i, fr := range m.stack {
		crumbs[i] = fr.node.Node().Coordinate.GA()
	}
	b.WriteString(listDimStyle.Render(strings.Join(crumbs, " "+iconArrow+" ")))
	b.WriteString("\n")
	b.WriteString(StyleTitle.Render(n.Coordinate.String()))
	b.WriteString("  " + listDimStyle.Render(string(n.Resolution)))
	if f.parent != nil {
		b.WriteString("  " + listDimStyle.Render("parent "+f.parent.String()))
	}
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ follow  p parent  ⌫ back  tab " + (1 - f.list).String() + "  q quit"))
	b.WriteString("\n\n")

	edges, loaded := f.edges[f.list]
	switch {
	case !loaded:
		b.WriteString(listDimStyle.Render("  loading " + strings.ToLower(f.list.String()) + "..."))
	case len(edges) == 0:
		b.WriteString(listDimStyle.Render("  no " + strings.ToLower(f.list.String())))
	default:
		b.WriteString(m.edgeTable(f, edges).Render())
		b.WriteString("\n")
		b.WriteString(listDimStyle.Render(fmt.Sprintf("  %s [%d/%d]", f.list, f.cursor+1, len(edges))))
	}
	if m.status != "" {
		b.WriteString("\n")
		b.WriteString(listErrStyle.Render("  " + m.status))
	}
	return b.String()
}

func (m NodeBrowserModel) edgeTable(f *browseFrame, edges []artifact.Dependency) *table.Table {
	end := min(f.offset+m.Height, len(edges))
	rows := [][]string{}
	for i := f.offset; i < end; i++ {
		d := edges[i]
		cursor := "  "
		if i == f.cursor {
			cursor = "▸ "
		}
		rows = append(rows, []string{cursor, strconv.Itoa(d.Position), d.Target.GA(), d.Target.Version, string(d.Scope), d.Profile})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "#", "Package", "Version", "Scope", "Profile").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			idx := f.offset + row
			if idx >= len(edges) {
				return lipgloss.NewStyle()
			}
			if idx == f.cursor {
				return lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
			}
			if edges[idx].MissingVersion() {
				return lipgloss.NewStyle().Foreground(colorDim)
			}
			return lipgloss.NewStyle()
		})
}
