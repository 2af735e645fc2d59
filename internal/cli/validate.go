package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/cpgwalk/pkg/cpg"
	cerrors "github.com/matzehuels/cpgwalk/pkg/errors"
	"github.com/matzehuels/cpgwalk/pkg/pipeline"
)

// validateCommand creates the validate command.
func (c *CLI) validateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <graph>",
		Short: "Check a graph document and print its size",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			g, hash, err := pipeline.NewRunner(nil, nil, loggerFromContext(ctx)).Load(ctx, args[0])
			if err != nil {
				return err
			}
			if err := g.Validate(); err != nil {
				return cerrors.Wrap(cerrors.ErrCodeInvalidGraph, err, "%s", args[0])
			}

			out := cmd.OutOrStdout()
			writeKeyValue(out, "nodes", strconv.Itoa(g.NodeCount()))
			for _, k := range []cpg.EdgeKind{cpg.EdgeEOG, cpg.EdgeDFG, cpg.EdgeCDG, cpg.EdgeInvoke} {
				writeKeyValue(out, k.String()+" edges", strconv.Itoa(g.EdgeCount(k)))
			}
			writeKeyValue(out, "sha256", hash[:12])

			if g.EdgeCount(cpg.EdgeDFG)+g.EdgeCount(cpg.EdgeEOG) == 0 {
				printWarning("graph has no dataflow or evaluation-order edges")
			}
			printSuccess("%s is valid", args[0])
			printNextStep("Explore it", fmt.Sprintf("%s query %s --from <id> --to-kind call", appName, args[0]))
			return nil
		},
	}
}
