package cli

import (
	"fmt"

	"pulse/internal/database"

	"github.com/spf13/cobra"
)

// NewMigrateCommand creates the migrate command. Production databases are not
// migrated at startup, so this is how their schema is applied.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the tables for every persistent model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := rootOpts.open()
			if err != nil {
				return err
			}
			if err := database.Migrate(rt.DB.WithContext(cmd.Context())); err != nil {
				return err
			}
			tables := make([]string, 0, len(database.PersistentModels()))
			for _, m := range database.PersistentModels() {
				stmt := rt.DB.Model(m).Statement
				if err := stmt.Parse(m); err != nil {
					return fmt.Errorf("parse model: %w", err)
				}
				tables = append(tables, stmt.Schema.Table)
			}
			return emit(cmd.OutOrStdout(), rootOpts.Format, tables,
				fmt.Sprintf("schema applied for %d table(s): %v", len(tables), tables))
		},
	}
}
