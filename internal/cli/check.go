package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pomgraph/internal/api"
	"github.com/matzehuels/pomgraph/pkg/artifact"
	"github.com/matzehuels/pomgraph/pkg/errors"
	"github.com/matzehuels/pomgraph/pkg/store"
)

// checkCommand creates the check command for running the store's sanity
// check outside a write.
func (c *CLI) checkCommand() *cobra.Command {
	var opts envOpts

	cmd := &cobra.Command{
		Use:   "check <nodes.json|coordinate>",
		Short: "Run the sanity check on nodes",
		Long: `Check runs the same sanity check that guards every store write. The
argument is either a JSON file (output of "resolve --json", a list of nodes,
or one node) or the coordinate of a stored node.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			nodes, err := c.loadCheckNodes(cmd.Context(), args[0], opts)
			if err != nil {
				return err
			}
			return runCheck(nodes)
		},
	}

	opts.register(cmd)
	return cmd
}

func (c *CLI) loadCheckNodes(ctx context.Context, arg string, opts envOpts) ([]*artifact.Node, error) {
	if data, err := os.ReadFile(arg); err == nil {
		return decodeNodes(data)
	}

	coord, err := artifact.ParseCoordinate(arg)
	if err != nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "%s is neither a readable file nor a coordinate", arg)
	}
	e, err := c.openEnv(ctx, opts)
	if err != nil {
		return nil, err
	}
	defer e.Close(ctx)

	p, err := e.gateway.Get(ctx, coord)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, errors.New(errors.ErrCodeNodeNotFound, "node %s is not stored", coord)
	}
	n, err := artifact.Materialize(ctx, p)
	if err != nil {
		return nil, err
	}
	return []*artifact.Node{n}, nil
}

// decodeNodes accepts a resolve response, a JSON array of nodes or a single
// node.
func decodeNodes(data []byte) ([]*artifact.Node, error) {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var nodes []*artifact.Node
		if err := json.Unmarshal(data, &nodes); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode node list")
		}
		return nodes, nil
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode nodes")
	}
	if _, ok := probe["nodes"]; ok {
		var resp api.ResolveResponse
		if err := json.Unmarshal(data, &resp); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode resolve output")
		}
		return resp.Nodes, nil
	}
	var n artifact.Node
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode node")
	}
	return []*artifact.Node{&n}, nil
}

// runCheck prints every violation and fails when any node is invalid.
func runCheck(nodes []*artifact.Node) error {
	invalid := 0
	for _, n := range nodes {
		err := store.Check(n)
		if err == nil {
			continue
		}
		invalid++
		var v *errors.ValidationError
		if !errors.As(err, &v) {
			return err
		}
		printError("%s", n.Coordinate)
		for _, viol := range v.Violations {
			printDetail("%s: %s", viol.Field, viol.Message)
		}
	}
	if invalid > 0 {
		return errors.New(errors.ErrCodeValidation, "%d of %d nodes failed the sanity check", invalid, len(nodes))
	}
	printSuccess("%d nodes passed the sanity check", len(nodes))
	return nil
}
