package cli

import (
	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/Merit/internal/store"
)

func newMigrateCmd(root *rootOptions) *cobra.Command {
	var target int
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Long:  "Migrate the schema to --version, or to the latest version when it is negative.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			return store.Migrate(cfg.Database.URL, target, stderrLogger(cfg))
		},
	}
	cmd.Flags().IntVar(&target, "version", -1, "target schema version (-1 for latest)")
	return cmd
}
