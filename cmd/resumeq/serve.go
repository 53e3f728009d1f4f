package main

import (
	"fmt"
	"os"

	"github.com/phrazzld/resumeq/internal/api"
	"github.com/phrazzld/resumeq/internal/platform/postgres"
	"github.com/phrazzld/resumeq/internal/service/auth"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var accessLog bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the generation and ops HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app := appFrom(cmd)

			m, err := app.Queue(ctx)
			if err != nil {
				return err
			}
			db, err := app.DB(ctx)
			if err != nil {
				return err
			}
			jwtService, err := auth.NewJWTService(app.config.Auth)
			if err != nil {
				return fmt.Errorf("failed to initialize JWT service: %w", err)
			}

			rc := api.RouterConfig{
				Logger:      app.logger,
				JWTService:  jwtService,
				Generations: postgres.NewPostgresGenerationStore(db, app.logger),
				Queue:       m,
				HealthChecks: map[string]api.HealthCheck{
					"redis":    app.queueStore.Ping,
					"postgres": db.PingContext,
				},
			}
			if accessLog {
				rc.AccessLog = os.Stdout
			}

			addr := fmt.Sprintf(":%d", app.config.Server.Port)
			return api.Serve(ctx, addr, api.NewRouter(rc), app.logger)
		},
	}
	cmd.Flags().BoolVar(&accessLog, "access-log", true, "write combined-format access logs to stdout")
	return cmd
}
