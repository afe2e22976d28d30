package cli

import (
	"fmt"
	"slices"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/matzehuels/netdiagram/pkg/graph"
	"github.com/matzehuels/netdiagram/pkg/io"
	"github.com/matzehuels/netdiagram/pkg/overview"
	"github.com/matzehuels/netdiagram/pkg/pipeline"
)

var completionShells = []string{"bash", "zsh", "fish", "powershell"}

// completionCommand prints a completion script. Besides commands and flags,
// the scripts complete graph files, overview formats and the service names
// accepted by "generate --publish".
func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for netdiagram.

Bash:
  $ source <(netdiagram completion bash)

Zsh:
  $ netdiagram completion zsh > "${fpath[1]}/_netdiagram"

Fish:
  $ netdiagram completion fish > ~/.config/fish/completions/netdiagram.fish

PowerShell:
  PS> netdiagram completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             completionShells,
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, out := cmd.Root(), cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return root.GenBashCompletionV2(out, true)
			case "zsh":
				return root.GenZshCompletion(out)
			case "fish":
				return root.GenFishCompletion(out, true)
			case "powershell":
				return root.GenPowerShellCompletionWithDesc(out)
			}
			return fmt.Errorf("unsupported shell %q", args[0])
		},
	}
}

// completeServices offers the published services of the graph named by the
// first argument, plus "all".
func completeServices(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	g, err := io.ImportFile(args[0])
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	names := lo.Map(g.Available(), func(s *graph.Service, _ int) string { return s.Name })
	names = append([]string{pipeline.PublishAll}, names...)
	return lo.Filter(names, func(n string, _ int) bool { return strings.HasPrefix(n, toComplete) }), cobra.ShellCompDirectiveNoFileComp
}

// completeGraphFile restricts the positional argument to graph documents.
func completeGraphFile(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return []string{"yaml", "yml", "json"}, cobra.ShellCompDirectiveFilterFileExt
}

func completeOverviewFormat(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return append(slices.Clone(overview.Formats), formatJSON), cobra.ShellCompDirectiveNoFileComp
}
