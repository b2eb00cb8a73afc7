package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fitonboard/backend/internal/confidence"
	"github.com/fitonboard/backend/internal/evaluation"
)

func evaluateCmd() *cobra.Command {
	var (
		dataset        string
		mismatchesOnly bool
	)

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Replay a labelled dataset through the confidence scorer",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openInput(cmd, dataset)
			if err != nil {
				return err
			}
			defer r.Close()

			ds, err := evaluation.LoadDataset(r)
			if err != nil {
				return err
			}

			report, err := evaluation.NewEvaluator(confidence.NewService(cfg.Scoring)).
				RunDatasetEvaluation(cmd.Context(), ds)
			if err != nil {
				return err
			}

			if mismatchesOnly {
				return printJSON(cmd, report.Mismatches())
			}
			if err := printJSON(cmd, report); err != nil {
				return err
			}
			if report.Labelled > 0 {
				fmt.Fprintf(cmd.ErrOrStderr(), "agreement: %.1f%% (%d/%d)\n",
					report.AgreementPct, report.Agreements, report.Labelled)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&dataset, "dataset", "d", "-", "dataset JSON file, or - for stdin")
	cmd.Flags().BoolVar(&mismatchesOnly, "mismatches", false, "only print items whose level disagreed with the label")
	return cmd
}
