// Package render exports resolved package graphs as node-link diagrams.
//
// [ToDOT] turns a set of nodes into Graphviz DOT source. Each relationship
// kind gets its own edge style:
//
//   - parent: bold blue arrow from parent to child with a hollow head
//   - dependency: solid arrow, dashed when optional, labelled with a
//     non-compile scope
//   - management: dotted grey arrow (only with [Options.Management])
//   - import: dotted purple arrow (only with [Options.Management])
//
// Nodes outside the exported set that edges point at are drawn as dashed
// grey stubs, the same way the store keeps them DANGLING.
//
//	dot := render.ToDOT(nodes, render.Options{Management: true})
//	svg, err := render.RenderSVG(dot)
//
// SVG and PNG are rendered in-process with [github.com/goccy/go-graphviz].
// PDF goes through SVG and requires librsvg (rsvg-convert).
package render
