package cli

import (
	"fmt"

	"github.com/dfryer1193/alttext/media/application"
	"github.com/spf13/cobra"
)

func newDeriveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "derive <filename>...",
		Short: "Print the alt text each filename would produce",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, filename := range args {
				alt := application.AltTextForFilename(filename)
				if alt == "" {
					alt = "(unresolvable)"
				}
				if _, err := fmt.Fprintf(out, "%s\t%s\n", filename, alt); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
