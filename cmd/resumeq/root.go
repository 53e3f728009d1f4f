package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "resumeq",
		Short:         "Durable job queue and workers for AI resume generation",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApplication(configPath, cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			cmd.SetContext(withApp(cmd.Context(), app))
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app := appFrom(cmd); app != nil {
				app.Close()
			}
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "",
		"path to a config file (environment variables override it)")

	root.AddCommand(
		newWorkerCmd(),
		newSweepCmd(),
		newServeCmd(),
		newStatsCmd(),
		newDLQCmd(),
		newEnqueueCmd(),
		newMigrateCmd(),
		newStorageCmd(),
	)
	return root
}
