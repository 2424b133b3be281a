package cli

import (
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pomgraph/internal/api"
	"github.com/matzehuels/pomgraph/pkg/artifact"
	"github.com/matzehuels/pomgraph/pkg/errors"
	"github.com/matzehuels/pomgraph/pkg/resolve"
	"github.com/matzehuels/pomgraph/pkg/store"
)

// resolveOpts holds options for the resolve command.
type resolveOpts struct {
	envOpts
	save   bool
	json   bool
	output string
}

// resolveCommand creates the resolve command for resolving one package.
func (c *CLI) resolveCommand() *cobra.Command {
	opts := resolveOpts{save: true}

	cmd := &cobra.Command{
		Use:   "resolve <group:artifact[:packaging[:classifier]]:version>",
		Short: "Resolve one package and store its graph",
		Long: `Resolve fetches the package's POM and every ancestor and BOM it needs,
substitutes properties, fills managed versions, and writes the resulting
nodes to the store.`,
		Example: `  pomgraph resolve org.apache.commons:commons-lang3:3.14.0
  pomgraph resolve com.example:app:pom:1.0 --repo file:///srv/m2 --json -o app.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runResolve(cmd.Context(), args[0], opts, cmd.OutOrStdout())
		},
	}

	opts.envOpts.register(cmd)
	cmd.Flags().BoolVar(&opts.save, "save", opts.save, "write resolved nodes to the store")
	cmd.Flags().BoolVar(&opts.json, "json", false, "print the resolved nodes as JSON")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write JSON output to a file")

	return cmd
}

func (c *CLI) runResolve(ctx context.Context, arg string, opts resolveOpts, stdout io.Writer) error {
	coord, err := artifact.ParseCoordinate(arg)
	if err != nil {
		return errors.New(errors.ErrCodeInvalidCoordinate, "%v", err)
	}

	e, err := c.openEnv(ctx, opts.envOpts)
	if err != nil {
		return err
	}
	defer e.Close(ctx)

	prog := newProgress(c.Logger)
	spinner := newSpinner(ctx, "Resolving "+coord.String()+"...")
	spinner.Start()

	res, err := e.resolver.Resolve(ctx, resolve.Identifier{Coordinate: coord, RepoURL: e.repoURL})
	if err != nil {
		spinner.StopWithError("Resolution of %s failed", coord)
		return err
	}
	out, err := collectResult(ctx, e.gateway, res, opts.save)
	spinner.Stop()
	if err != nil {
		return err
	}
	prog.done("resolved", "coordinate", coord, "nodes", len(out.Nodes), "fetched", out.Fetched, "adopted", out.Adopted)

	if opts.json || opts.output != "" {
		return writeResult(stdout, opts.output, out)
	}

	printSuccess("Resolved %s", StyleHighlight.Render(coord.String()))
	printResolveStats(out)
	for _, m := range out.Missing {
		printWarning("%s: %s has no version in %s", m.Node, m.Dependency, m.List)
	}
	for _, d := range out.Dangling {
		printWarning("%s could not be fetched and is stored dangling", d)
	}
	if opts.save {
		printNextStep("Inspect it", appName+" show "+coord.String())
	}
	return nil
}

// collectResult materializes every node of res and, when save is set, writes
// each one through the gateway in result order.
func collectResult(ctx context.Context, gw *store.Gateway, res *resolve.Result, save bool) (*api.ResolveResponse, error) {
	out := &api.ResolveResponse{
		Missing:  res.Missing,
		Dangling: res.Dangling,
		Fetched:  res.Fetched,
		Adopted:  res.Adopted,
	}
	for _, rec := range res.Nodes {
		if save {
			if err := gw.SaveOrMerge(ctx, rec); err != nil {
				return nil, err
			}
			out.Stored++
		}
		n, err := artifact.Materialize(ctx, rec)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeStore, err, "load %s", rec.Node().Coordinate)
		}
		out.Nodes = append(out.Nodes, n)
	}
	return out, nil
}

// writeResult writes v as indented JSON to path, or to stdout when path is
// empty.
func writeResult(stdout io.Writer, path string, v any) error {
	w := stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return err
	}
	if path != "" {
		printFile(path)
	}
	return nil
}
