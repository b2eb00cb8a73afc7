// Package commands implements fitctl, an offline companion to the API for
// scoring plans, previewing prompts and browsing the selection catalogs.
package commands

import (
	"encoding/json"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fitonboard/backend/pkg/config"
)

var (
	configPath string
	cfg        *config.Config
)

func Execute() error {
	return NewRootCmd().Execute()
}

func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "fitctl",
		Short:        "Offline tools for the FitOnboard backend",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.LoadFrom(viper.New(), configPath)
			if err != nil {
				return err
			}
			cfg = loaded
			return nil
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ./config.yaml if present)")

	root.AddCommand(scoreCmd(), promptCmd(), catalogCmd(), evaluateCmd())
	return root
}

// openInput returns stdin for "-" and the named file otherwise.
func openInput(cmd *cobra.Command, path string) (io.ReadCloser, error) {
	if path == "-" || path == "" {
		return io.NopCloser(cmd.InOrStdin()), nil
	}
	return os.Open(path)
}

func decodeInput(cmd *cobra.Command, path string, v interface{}) error {
	r, err := openInput(cmd, path)
	if err != nil {
		return err
	}
	defer r.Close()
	return json.NewDecoder(r).Decode(v)
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
