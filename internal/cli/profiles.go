package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/cpgwalk/pkg/profile"
)

// profilesCommand creates the profiles command.
func (c *CLI) profilesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "profiles <config.toml>",
		Short: "List the query profiles of a TOML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := profile.Load(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, name := range cfg.Names() {
				p := cfg.Profiles[name]
				marker := "  "
				if name == cfg.Default {
					marker = StyleSuccess.Render("* ")
				}
				fmt.Fprintln(out, marker+StyleValue.Render(p.String()))
				if p.Description != "" {
					fmt.Fprintln(out, "    "+StyleDim.Render(p.Description))
				}
			}
			return nil
		},
	}
}
