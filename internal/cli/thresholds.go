package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/nelsonsanch/Persontx-sub001/internal/config"
	"github.com/nelsonsanch/Persontx-sub001/internal/evaluator"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// NewThresholdsCommand 校验并输出生效的阈值表
func NewThresholdsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "thresholds",
		Short: "Validate and print the effective threshold table",
		Long: `Loads the threshold table (built-in defaults when no file is configured),
validates it and prints the effective rules. Exits non-zero on a configuration error.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			thresholds, err := evaluator.LoadThresholds(rootOpts.thresholdsPath(cfg.ThresholdsPath))
			if err != nil {
				return err
			}
			return writeTable(cmd.OutOrStdout(), rootOpts.Format, thresholds.Table())
		},
	}
}

func writeTable(w io.Writer, format string, table evaluator.Table) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(table)
	default:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(table); err != nil {
			return fmt.Errorf("failed to encode thresholds: %w", err)
		}
		return enc.Close()
	}
}
