package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/stitch/internal/app"
)

func (c *CLI) newResolveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve <entry-file>",
		Short: "Resolve an entry file and the components it references",
		Long: `Resolve reads an entry component from disk, follows every component import
through the registry and prints the resulting virtual file set as JSON.
With --out the files are written to a directory together with a package.json.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			id, _ := flags.GetString("id")
			refs, _ := flags.GetStringArray("ref")
			deps, _ := flags.GetStringArray("dep")
			scaffold, _ := flags.GetStringArray("scaffold")
			bare, _ := flags.GetBool("bare")
			out, _ := flags.GetString("out")
			watch, _ := flags.GetBool("watch")
			quiet, _ := flags.GetBool("quiet")

			opts := app.ResolveOptions{
				EntryFile:    args[0],
				EntryID:      id,
				References:   refs,
				Dependencies: deps,
				Scaffold:     scaffold,
				Bare:         bare,
				OutDir:       out,
				Quiet:        quiet,
			}
			if watch {
				return c.app.Watch(cmd.Context(), opts)
			}
			return c.app.Resolve(cmd.Context(), opts)
		},
	}
	cmd.Flags().String("id", "", "Identifier of the entry component (default: file name)")
	cmd.Flags().StringArray("ref", nil, "Additional component to resolve (repeatable)")
	cmd.Flags().StringArray("dep", nil, "Explicit dependency as pkg@version, wins over merged ones (repeatable)")
	cmd.Flags().StringArray("scaffold", nil, "Caller supplied file as virtual-path=file (repeatable)")
	cmd.Flags().Bool("bare", false, "Do not add the default tsconfig.json and lib/utils.ts")
	cmd.Flags().StringP("out", "o", "", "Write the files into a directory instead of printing JSON")
	cmd.Flags().BoolP("watch", "w", false, "Re-resolve whenever the entry or a scaffold file changes")
	cmd.Flags().BoolP("quiet", "q", false, "Do not print the summary")
	return cmd
}
