package cli

import (
	"github.com/spf13/cobra"
)

// completionCommand creates the completion command. Scripts are written to
// the command's output so they can be redirected into place.
func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate a shell completion script for cpgwalk.

  bash:        source <(cpgwalk completion bash)
  zsh:         cpgwalk completion zsh > "${fpath[1]}/_cpgwalk"
  fish:        cpgwalk completion fish > ~/.config/fish/completions/cpgwalk.fish
  powershell:  cpgwalk completion powershell | Out-String | Invoke-Expression

Flag values such as --graph-kind and --format complete as well.`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(out, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}
}
