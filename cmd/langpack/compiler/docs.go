package compiler

import (
	"fmt"

	"github.com/langpack/langpack/internal/docgen"
	"github.com/langpack/langpack/internal/i18n"
	"github.com/spf13/cobra"
)

func (a *App) installDocs() {
	cmd := &cobra.Command{
		Use:       "docs completion|man|readme PATH",
		Short:     i18n.G("Generates shell completions, man pages or the README command reference"),
		Hidden:    true,
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"completion", "man", "readme"},
		RunE: func(cmd *cobra.Command, args []string) error {
			root := cmd.Root()
			switch args[0] {
			case "completion":
				return docgen.Completions(root, args[1])
			case "man":
				return docgen.ManPages(root, args[1], i18n.G("Localization compiler"))
			case "readme":
				return docgen.UpdateReadme(root, args[1])
			}
			return fmt.Errorf(i18n.G("unknown documentation %q, expected one of completion, man or readme"), args[0])
		},
	}
	a.rootCmd.AddCommand(cmd)
}
