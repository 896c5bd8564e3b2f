package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/nelsonsanch/Persontx-sub001/common/database"
	"github.com/nelsonsanch/Persontx-sub001/internal/config"
	"github.com/nelsonsanch/Persontx-sub001/internal/repository"

	"github.com/spf13/cobra"
)

// NewMigrateCommand 应用内置数据库 schema
func NewMigrateCommand(_ *RootOptions) *cobra.Command {
	var printOnly bool

	cmd := &cobra.Command{
		Use:          "migrate",
		Short:        "Apply the embedded PostgreSQL schema",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if printOnly {
				_, err := fmt.Fprint(cmd.OutOrStdout(), repository.Schema())
				return err
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			db, err := database.NewPostgresDB(&cfg.Database)
			if err != nil {
				return err
			}
			defer database.Close(db)

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			if err := repository.EnsureSchema(ctx, db); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema applied to %s@%s\n", cfg.Database.Database, cfg.Database.Host)
			return nil
		},
	}

	cmd.Flags().BoolVar(&printOnly, "print", false, "print the schema instead of applying it")
	return cmd
}
