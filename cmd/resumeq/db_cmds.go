package main

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/phrazzld/resumeq/internal/platform/postgres"
	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "migrate <" + strings.Join(postgres.MigrationCommands, "|") + ">",
		Short:     "Run database migrations",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: postgres.MigrationCommands,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appFrom(cmd)
			db, err := app.DB(cmd.Context())
			if err != nil {
				return err
			}
			return postgres.Migrate(cmd.Context(), db, args[0], app.logger)
		},
	}
}

func newStorageCmd() *cobra.Command {
	storageCmd := &cobra.Command{
		Use:   "storage",
		Short: "Inspect the generated-files bucket",
	}

	ls := &cobra.Command{
		Use:   "ls <prefix>",
		Short: "List stored objects under a prefix, usually a user id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appFrom(cmd)
			objects, err := app.ObjectStore()
			if err != nil {
				return err
			}
			list, err := objects.List(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(app.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tCREATED")
			for _, o := range list {
				created := "-"
				if !o.CreatedAt.IsZero() {
					created = o.CreatedAt.Format(time.RFC3339)
				}
				fmt.Fprintf(tw, "%s\t%s\n", o.Name, created)
			}
			return tw.Flush()
		},
	}

	storageCmd.AddCommand(ls)
	return storageCmd
}
