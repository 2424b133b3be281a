package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/pomgraph/pkg/artifact"
	"github.com/matzehuels/pomgraph/pkg/errors"
)

// showOpts holds options for the show command.
type showOpts struct {
	envOpts
	json bool
}

// showCommand creates the show command for reading one stored node.
func (c *CLI) showCommand() *cobra.Command {
	var opts showOpts

	cmd := &cobra.Command{
		Use:   "show <coordinate>",
		Short: "Print a stored node with its edges",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runShow(cmd.Context(), args[0], opts, cmd.OutOrStdout())
		},
	}

	opts.envOpts.register(cmd)
	cmd.Flags().BoolVar(&opts.json, "json", false, "print the node as JSON")
	return cmd
}

func (c *CLI) runShow(ctx context.Context, arg string, opts showOpts, stdout io.Writer) error {
	coord, err := artifact.ParseCoordinate(arg)
	if err != nil {
		return errors.New(errors.ErrCodeInvalidCoordinate, "%v", err)
	}
	e, err := c.openEnv(ctx, opts.envOpts)
	if err != nil {
		return err
	}
	defer e.Close(ctx)

	p, err := e.gateway.Get(ctx, coord)
	if err != nil {
		return err
	}
	if p == nil {
		return errors.New(errors.ErrCodeNodeNotFound, "node %s is not stored", coord)
	}
	n, err := artifact.Materialize(ctx, p)
	if err != nil {
		return err
	}
	if opts.json {
		return writeResult(stdout, "", n)
	}
	fmt.Fprintln(stdout, renderNode(n))
	return nil
}

// renderNode formats a node as a key/value header followed by one table per
// non-empty edge list.
func renderNode(n *artifact.Node) string {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(14)
	line := func(k, v string) string {
		return keyStyle.Render(k) + " " + StyleValue.Render(v) + "\n"
	}

	out := StyleTitle.Render(n.Coordinate.String()) + "\n"
	out += line("resolution", string(n.Resolution))
	out += line("packaging", n.Packaging)
	if n.HasClassifier() {
		out += line("classifier", n.Classifier)
	}
	if n.CrawlVersion != "" {
		out += line("crawl version", n.CrawlVersion)
	}
	if n.RepoURL != "" {
		out += line("repository", n.RepoURL)
	}
	if n.Parent != nil {
		out += line("parent", n.Parent.String())
	}
	out += line("properties", strconv.Itoa(len(n.Properties)))

	if len(n.Dependencies) > 0 {
		out += "\n" + StyleHighlight.Render("Dependencies") + "\n" + dependencyTable(n.Dependencies).Render() + "\n"
	}
	if len(n.Management) > 0 {
		out += "\n" + StyleHighlight.Render("Dependency management") + "\n" + dependencyTable(n.Management).Render() + "\n"
	}
	return out
}

func dependencyTable(deps []artifact.Dependency) *table.Table {
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	rows := make([][]string, len(deps))
	for i, d := range deps {
		flags := ""
		if d.Optional {
			flags = "optional"
		}
		rows[i] = []string{strconv.Itoa(d.Position), d.Target.GA(), d.Target.Version, string(d.Scope), d.Type, d.Profile, flags}
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("#", "Package", "Version", "Scope", "Type", "Profile", "").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if row >= 0 && row < len(deps) && deps[row].MissingVersion() && col == 2 {
				return lipgloss.NewStyle().Foreground(colorYellow)
			}
			return lipgloss.NewStyle()
		})
}
