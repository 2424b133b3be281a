package render

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/pomgraph/pkg/artifact"
)

// Output formats.
const (
	FormatDOT = "dot"
	FormatSVG = "svg"
	FormatPNG = "png"
	FormatPDF = "pdf"
)

// Formats lists every supported output format.
var Formats = []string{FormatDOT, FormatSVG, FormatPNG, FormatPDF}

// Options configures diagram generation.
type Options struct {
	// Management adds dependency-management and import edges.
	Management bool

	// Detailed adds resolution, crawl version and property count to labels.
	Detailed bool
}

// ToDOT converts nodes to Graphviz DOT. Output is deterministic: nodes are
// sorted by identity and edges follow list order.
func ToDOT(nodes []*artifact.Node, opts Options) string {
	sorted := slices.Clone(nodes)
	slices.SortFunc(sorted, func(a, b *artifact.Node) int { return strings.Compare(a.Key(), b.Key()) })

	known := make(map[string]bool, len(sorted))
	for _, n := range sorted {
		known[n.Key()] = true
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, n := range sorted {
		fmt.Fprintf(&buf, "  %q [%s];\n", n.Key(), strings.Join(fmtAttrs(n, fmtLabel(n, opts.Detailed)), ", "))
	}

	stubs := make(map[string]artifact.Coordinate)
	stub := func(c artifact.Coordinate) string {
		key := c.Key()
		if !known[key] {
			stubs[key] = c
		}
		return key
	}

	var edges bytes.Buffer
	for _, n := range sorted {
		self := n.Key()
		if n.Parent != nil {
			fmt.Fprintf(&edges, "  %q -> %q [%s];\n", stub(*n.Parent), self, parentStyle)
		}
		for _, d := range n.Dependencies {
			fmt.Fprintf(&edges, "  %q -> %q [%s];\n", self, stub(d.Target), dependencyStyle(d))
		}
		if !opts.Management {
			continue
		}
		for _, d := range n.Management {
			style := managesStyle
			if d.Scope == artifact.ScopeImport {
				style = importsStyle
			}
			fmt.Fprintf(&edges, "  %q -> %q [%s];\n", self, stub(d.Target), style)
		}
	}

	for _, key := range slices.Sorted(maps.Keys(stubs)) {
		fmt.Fprintf(&buf, "  %q [label=%q, style=\"rounded,filled,dashed\", fillcolor=lightgrey, fontcolor=black];\n",
			key, stubs[key].String())
	}

	buf.WriteString("\n")
	buf.Write(edges.Bytes())
	buf.WriteString("}\n")
	return buf.String()
}

const (
	parentStyle  = `color="#2a7ab0", penwidth=2, arrowhead=empty`
	managesStyle = `style=dotted, color=grey40`
	importsStyle = `style=dotted, color="#8e44ad", arrowhead=odiamond`
)

func dependencyStyle(d artifact.Dependency) string {
	attrs := []string{}
	if d.Optional {
		attrs = append(attrs, "style=dashed")
	}
	if d.Scope != "" && d.Scope != artifact.ScopeCompile {
		attrs = append(attrs, fmt.Sprintf("label=%q, fontsize=10", strings.ToLower(string(d.Scope))))
	}
	if d.Profile != "" {
		attrs = append(attrs, fmt.Sprintf("taillabel=%q, fontsize=10", d.Profile))
	}
	return strings.Join(attrs, ", ")
}

func fmtLabel(n *artifact.Node, detailed bool) string {
	if !detailed {
		return n.Coordinate.String()
	}
	parts := []string{strings.ToLower(string(n.Resolution))}
	if n.CrawlVersion != "" {
		parts = append(parts, "crawl: "+n.CrawlVersion)
	}
	if len(n.Properties) > 0 {
		parts = append(parts, fmt.Sprintf("properties: %d", len(n.Properties)))
	}
	return n.Coordinate.String() + "\n" + strings.Join(parts, "\n")
}

func fmtAttrs(n *artifact.Node, label string) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	switch {
	case !n.IsFull():
		attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fillcolor=lightgrey", "fontcolor=black")
	case n.Packaging == artifact.PomPackaging:
		attrs = append(attrs, "fillcolor=\"#eaf2f8\"")
	}
	return attrs
}

// Render produces the requested format from DOT source.
func Render(dot, format string) ([]byte, error) {
	switch format {
	case FormatDOT:
		return []byte(dot), nil
	case FormatSVG:
		return RenderSVG(dot)
	case FormatPNG:
		return renderGraphviz(dot, graphviz.PNG)
	case FormatPDF:
		svg, err := RenderSVG(dot)
		if err != nil {
			return nil, err
		}
		return ToPDF(svg)
	default:
		return nil, fmt.Errorf("unsupported format %q (must be one of: %s)", format, strings.Join(Formats, ", "))
	}
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(dot string) ([]byte, error) {
	out, err := renderGraphviz(dot, graphviz.SVG)
	if err != nil {
		return nil, err
	}
	return normalizeViewBox(out), nil
}

func renderGraphviz(dot string, format graphviz.Format) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
