package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/cpgwalk/pkg/cpg"
	cerrors "github.com/matzehuels/cpgwalk/pkg/errors"
	"github.com/matzehuels/cpgwalk/pkg/pipeline"
	"github.com/matzehuels/cpgwalk/pkg/profile"
	"github.com/matzehuels/cpgwalk/pkg/walk"
)

// pathsOpts holds the flags of the paths command.
type pathsOpts struct {
	from         string
	graphKind    string
	direction    string
	scope        string
	maxCallDepth int
	full         bool
	format       string
}

// collector runs one of the walk.CollectAll functions.
type collector func(ctx context.Context, start *cpg.Node) ([]walk.Path, error)

// collector picks the CollectAll function for the flags.
func (o *pathsOpts) collector() (collector, error) {
	forward := o.direction == profile.DirectionForward
	if !forward && o.direction != profile.DirectionBackward {
		return nil, cerrors.New(cerrors.ErrCodeInvalidInput, "direction must be forward or backward, got %q", o.direction)
	}
	w := walk.Widening{Interprocedural: scopeName(o.scope) == profile.ScopeInterprocedural}
	if o.maxCallDepth > 0 {
		w.MaxDepth = walk.Max(o.maxCallDepth)
	}
	widened := func(fn func(context.Context, *cpg.Node, walk.Widening) ([]walk.Path, error)) collector {
		return func(ctx context.Context, start *cpg.Node) ([]walk.Path, error) { return fn(ctx, start, w) }
	}

	switch {
	case o.graphKind == profile.GraphDFG && o.full && forward:
		return walk.CollectAllNextFullDFGPaths, nil
	case o.graphKind == profile.GraphDFG && o.full:
		return walk.CollectAllPrevFullDFGPaths, nil
	case o.graphKind == profile.GraphDFG && forward:
		return walk.CollectAllNextDFGPaths, nil
	case o.graphKind == profile.GraphDFG:
		return walk.CollectAllPrevDFGPaths, nil
	case o.graphKind == profile.GraphEOG && forward:
		return walk.CollectAllNextEOGPaths, nil
	case o.graphKind == profile.GraphEOG:
		return walk.CollectAllPrevEOGPaths, nil
	case o.graphKind == profile.GraphPDG && forward:
		return widened(walk.CollectAllNextPDGPaths), nil
	case o.graphKind == profile.GraphPDG:
		return widened(walk.CollectAllPrevPDGPaths), nil
	case o.graphKind == profile.GraphCDG && forward:
		return widened(walk.CollectAllNextCDGPaths), nil
	case o.graphKind == profile.GraphCDG:
		return widened(walk.CollectAllPrevCDGPaths), nil
	}
	return nil, cerrors.New(cerrors.ErrCodeInvalidInput, "unknown graph kind %q", o.graphKind)
}

// pathsCommand creates the paths command.
func (c *CLI) pathsCommand() *cobra.Command {
	opts := pathsOpts{graphKind: profile.GraphDFG, direction: profile.DirectionForward, scope: "inter", format: formatText}

	cmd := &cobra.Command{
		Use:   "paths <graph>",
		Short: "List every path leaving a node",
		Long: `List every maximal path leaving a node along one edge kind. Dataflow and
evaluation-order walks are interprocedural and context-sensitive; pdg and cdg
walks cross calls only with --scope inter.

Examples:
  cpgwalk paths app.yaml --from secret
  cpgwalk paths app.yaml --from exit --graph-kind eog --direction backward
  cpgwalk paths app.yaml --from cond --graph-kind cdg --scope intra`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			collect, err := opts.collector()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			g, _, err := pipeline.NewRunner(nil, nil, loggerFromContext(ctx)).Load(ctx, args[0])
			if err != nil {
				return err
			}
			start, ok := g.Node(opts.from)
			if !ok {
				return cerrors.New(cerrors.ErrCodeNodeNotFound, "start node %q not found", opts.from)
			}
			paths, err := collect(ctx, start)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.format == formatJSON {
				ids := make([][]string, len(paths))
				for i, p := range paths {
					ids[i] = p.IDs()
				}
				return writeJSON(out, ids)
			}
			for _, p := range paths {
				fmt.Fprintln(out, formatPath(p.IDs()))
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.from, "from", "", "start node ID")
	f.StringVar(&opts.graphKind, "graph-kind", opts.graphKind, "edges to walk: dfg, eog, pdg or cdg")
	f.StringVar(&opts.direction, "direction", opts.direction, "forward or backward")
	f.StringVar(&opts.scope, "scope", opts.scope, "intra or inter (pdg and cdg only)")
	f.IntVar(&opts.maxCallDepth, "max-call-depth", 0, "maximum nested calls for pdg and cdg (0 = unbounded)")
	f.BoolVar(&opts.full, "full", false, "follow only full dataflow edges (dfg only)")
	f.StringVarP(&opts.format, "format", "f", opts.format, "output format: text or json")
	_ = cmd.MarkFlagRequired("from")

	return cmd
}

// exitsCommand creates the exits command.
func (c *CLI) exitsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "exits <graph> <function>",
		Short: "List the nodes where a function's evaluation order ends",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			g, _, err := pipeline.NewRunner(nil, nil, loggerFromContext(ctx)).Load(ctx, args[0])
			if err != nil {
				return err
			}
			fn, ok := g.Node(args[1])
			if !ok {
				return cerrors.New(cerrors.ErrCodeNodeNotFound, "function %q not found", args[1])
			}
			if !fn.IsFunction() {
				return cerrors.New(cerrors.ErrCodeInvalidInput, "%s is a %s, not a function", fn.ID(), fn.Kind)
			}
			exits, err := walk.LastEOGNodes(ctx, fn)
			if err != nil {
				return err
			}
			for _, n := range exits {
				fmt.Fprintln(cmd.OutOrStdout(), n.ID())
			}
			return nil
		},
	}
}
