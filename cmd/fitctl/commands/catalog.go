package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fitonboard/backend/internal/selection"
)

func catalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:       "catalog [body-areas|equipment]",
		Short:     "Print a selection catalog as a tree",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{selection.BodyAreas().Name(), selection.Equipment().Name()},
		RunE: func(cmd *cobra.Command, args []string) error {
			var cat *selection.Catalog
			switch args[0] {
			case selection.BodyAreas().Name():
				cat = selection.BodyAreas()
			case selection.Equipment().Name():
				cat = selection.Equipment()
			default:
				return fmt.Errorf("unknown catalog %q", args[0])
			}

			out := cmd.OutOrStdout()
			for _, root := range cat.Roots() {
				printEntry(out, cat, root, 0)
			}
			return nil
		},
	}
	return cmd
}

func printEntry(w io.Writer, cat *selection.Catalog, e selection.Entry, depth int) {
	fmt.Fprintf(w, "%s%s (%s)\n", strings.Repeat("  ", depth), e.Label, e.Key)
	for _, child := range cat.ChildrenOf(e.Key) {
		printEntry(w, cat, child, depth+1)
	}
}
