package main

import (
	"context"

	"github.com/spf13/cobra"
)

// appKey scopes the application to one command invocation.
type appKey struct{}

func withApp(ctx context.Context, app *application) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, appKey{}, app)
}

func appFrom(cmd *cobra.Command) *application {
	app, _ := cmd.Context().Value(appKey{}).(*application)
	return app
}
