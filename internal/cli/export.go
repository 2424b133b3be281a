package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pomgraph/pkg/artifact"
	"github.com/matzehuels/pomgraph/pkg/errors"
	"github.com/matzehuels/pomgraph/pkg/render"
	"github.com/matzehuels/pomgraph/pkg/store"
)

// exportOpts holds options for the export command.
type exportOpts struct {
	envOpts
	format     string
	output     string
	management bool
	detailed   bool
	depth      int
	from       string
}

// exportCommand creates the export command for drawing a stored subgraph.
func (c *CLI) exportCommand() *cobra.Command {
	opts := exportOpts{format: render.FormatDOT}

	cmd := &cobra.Command{
		Use:   "export [coordinate]",
		Short: "Export a dependency graph as DOT, SVG, PNG or PDF",
		Long: `Export walks the stored graph from a node along parent and dependency
edges (and dependency management with --management) and renders it with
Graphviz. With --from, the nodes are read from a JSON file instead.`,
		Example: `  pomgraph export org.slf4j:slf4j-api:2.0.13 -f svg -o slf4j.svg
  pomgraph resolve com.example:app:1.0 --json -o app.json && pomgraph export --from app.json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(render.Formats, opts.format) {
				return errors.New(errors.ErrCodeInvalidInput, "unsupported format %q (must be one of: %s)", opts.format, strings.Join(render.Formats, ", "))
			}
			if (len(args) == 0) == (opts.from == "") {
				return errors.New(errors.ErrCodeInvalidInput, "export needs exactly one of a coordinate or --from")
			}
			root := ""
			if len(args) == 1 {
				root = args[0]
			}
			return c.runExport(cmd.Context(), root, opts, cmd.OutOrStdout())
		},
	}

	opts.envOpts.register(cmd)
	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: "+strings.Join(render.Formats, ", "))
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().BoolVar(&opts.management, "management", false, "include dependency management and BOM imports")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show resolution, crawl version and property count")
	cmd.Flags().IntVar(&opts.depth, "depth", 0, "maximum edge distance from the root (0: unlimited)")
	cmd.Flags().StringVar(&opts.from, "from", "", "read nodes from a JSON file instead of the store")

	return cmd
}

func (c *CLI) runExport(ctx context.Context, root string, opts exportOpts, stdout io.Writer) error {
	var nodes []*artifact.Node
	if opts.from != "" {
		data, err := os.ReadFile(opts.from)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "read %s", opts.from)
		}
		if nodes, err = decodeNodes(data); err != nil {
			return err
		}
	} else {
		coord, err := artifact.ParseCoordinate(root)
		if err != nil {
			return errors.New(errors.ErrCodeInvalidCoordinate, "%v", err)
		}
		e, err := c.openEnv(ctx, opts.envOpts)
		if err != nil {
			return err
		}
		defer e.Close(ctx)
		if nodes, err = collectSubgraph(ctx, e.gateway, coord, opts.depth, opts.management); err != nil {
			return err
		}
	}

	prog := newProgress(c.Logger)
	dot := render.ToDOT(nodes, render.Options{Management: opts.management, Detailed: opts.detailed})
	data, err := render.Render(dot, opts.format)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "render %s", opts.format)
	}
	prog.done("rendered", "format", opts.format, "nodes", describeNodes(nodes))

	if opts.output == "" {
		_, err := stdout.Write(data)
		return err
	}
	if err := os.WriteFile(opts.output, data, 0o644); err != nil {
		return err
	}
	printFile(opts.output)
	return nil
}

// collectSubgraph reads the stored nodes reachable from root breadth-first.
// Targets that are not stored are left out; the renderer draws them as stubs.
func collectSubgraph(ctx context.Context, gw *store.Gateway, root artifact.Coordinate, depth int, management bool) ([]*artifact.Node, error) {
	type item struct {
		coord artifact.Coordinate
		depth int
	}
	seen := map[string]bool{root.Key(): true}
	queue := []item{{root, 0}}
	var out []*artifact.Node

	for len(queue) > 0 {
		it := queue[0]
		queue = queue[1:]

		p, err := gw.Get(ctx, it.coord)
		if err != nil {
			return nil, err
		}
		if p == nil {
			if len(out) == 0 {
				return nil, errors.New(errors.ErrCodeNodeNotFound, "node %s is not stored", it.coord)
			}
			continue
		}
		n, err := artifact.Materialize(ctx, p)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
		if depth > 0 && it.depth >= depth {
			continue
		}

		next := make([]artifact.Coordinate, 0, len(n.Dependencies)+1)
		if n.Parent != nil {
			next = append(next, *n.Parent)
		}
		for _, d := range n.Dependencies {
			next = append(next, d.Target)
		}
		if management {
			for _, d := range n.Management {
				next = append(next, d.Target)
			}
		}
		for _, c := range next {
			if c.Version == "" || seen[c.Key()] {
				continue
			}
			seen[c.Key()] = true
			queue = append(queue, item{c, it.depth + 1})
		}
	}
	return out, nil
}

// describeNodes summarizes a node list for log output.
func describeNodes(nodes []*artifact.Node) string {
	full := 0
	for _, n := range nodes {
		if n.IsFull() {
			full++
		}
	}
	return fmt.Sprintf("%d full, %d dangling", full, len(nodes)-full)
}
