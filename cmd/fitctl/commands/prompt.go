package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fitonboard/backend/internal/fitness"
	"github.com/fitonboard/backend/internal/prompt"
)

func promptCmd() *cobra.Command {
	var (
		input      string
		showSystem bool
	)

	cmd := &cobra.Command{
		Use:   "prompt",
		Short: "Render the model prompt for a workout request",
		RunE: func(cmd *cobra.Command, args []string) error {
			var req fitness.Request
			if err := decodeInput(cmd, input, &req); err != nil {
				return fmt.Errorf("failed to read request: %w", err)
			}
			if err := req.Validate(); err != nil {
				return err
			}

			p, err := prompt.Compose(req, nil)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "# bucket: %s\n", p.Bucket)
			if showSystem {
				fmt.Fprintf(out, "\n%s\n", p.System)
			}
			fmt.Fprintf(out, "\n%s", p.User)
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "-", "request JSON file, or - for stdin")
	cmd.Flags().BoolVar(&showSystem, "system", false, "also print the system prompt")
	return cmd
}
