package cli

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/pomgraph/pkg/artifact"
	"github.com/matzehuels/pomgraph/pkg/errors"
)

// browseCommand creates the browse command, an interactive walk over the
// stored graph.
func (c *CLI) browseCommand() *cobra.Command {
	var opts envOpts

	cmd := &cobra.Command{
		Use:   "browse <coordinate>",
		Short: "Interactively walk the stored graph from a node",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			coord, err := artifact.ParseCoordinate(args[0])
			if err != nil {
				return errors.New(errors.ErrCodeInvalidCoordinate, "%v", err)
			}
			e, err := c.openEnv(ctx, opts)
			if err != nil {
				return err
			}
			defer e.Close(ctx)

			root, err := e.gateway.Get(ctx, coord)
			if err != nil {
				return err
			}
			if root == nil {
				return errors.New(errors.ErrCodeNodeNotFound, "node %s is not stored", coord)
			}

			model := NewNodeBrowserModel(ctx, e.gateway, root)
			_, err = tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
			return err
		},
	}

	opts.register(cmd)
	return cmd
}
