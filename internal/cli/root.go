package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// RootOptions 全局参数
type RootOptions struct {
	ThresholdsPath string // 覆盖 THRESHOLDS_PATH
	Format         string // "yaml" | "json"
}

// ValidFormats 支持的输出格式
var ValidFormats = []string{"yaml", "json"}

// NewRootCommand 创建 asset-compliance 根命令
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "asset-compliance",
		Short: "Asset compliance and inspection decision engine",
		Long: `Derives compliance status for regulated assets, scores pre-use inspections,
guards usage counters against implausible readings and projects the maintenance schedule.`,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.ThresholdsPath, "thresholds", "", "threshold table YAML (overrides THRESHOLDS_PATH)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "yaml", "output format (yaml|json)")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewThresholdsCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// thresholdsPath 命令行参数优先于环境变量
func (o *RootOptions) thresholdsPath(fromEnv string) string {
	if o.ThresholdsPath != "" {
		return o.ThresholdsPath
	}
	return fromEnv
}
