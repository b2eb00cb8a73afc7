package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fitonboard/backend/internal/confidence"
	"github.com/fitonboard/backend/internal/fitness"
)

type scoreInput struct {
	Request fitness.Request `json:"request"`
	Plan    fitness.Plan    `json:"plan"`
}

func scoreCmd() *cobra.Command {
	var input string

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score a plan against the request it was generated for",
		Long:  `Reads {"request": ..., "plan": ...} as JSON and prints the confidence result.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var in scoreInput
			if err := decodeInput(cmd, input, &in); err != nil {
				return fmt.Errorf("failed to read input: %w", err)
			}
			if err := in.Request.Validate(); err != nil {
				return err
			}
			return printJSON(cmd, confidence.NewService(cfg.Scoring).Score(in.Request, in.Plan))
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "-", "JSON file, or - for stdin")
	return cmd
}
