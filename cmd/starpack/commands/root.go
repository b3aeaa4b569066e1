// Package commands implements the starpack command tree.
package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/bdobrica/starpack/common/version"
)

// Execute runs the command tree for app with args and releases its
// resources.
func Execute(ctx context.Context, app *App, args []string) error {
	defer app.close()
	root := NewRootCommand(app)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// NewRootCommand builds the starpack command tree bound to app.
func NewRootCommand(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "starpack",
		Short: "Package and deploy models on a local Starpack Engine",
		Long: `starpack manages a single Starpack Engine container on the local Docker
daemon and submits package and deployment descriptors to it.

Commands that talk to the engine start it first when it is not running.`,
		Version:       version.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return app.setup(cmd)
		},
	}
	root.SetVersionTemplate(version.Info() + "\n")
	root.SetIn(app.In)
	root.SetOut(app.Out)
	root.SetErr(app.Err)

	root.PersistentFlags().BoolVar(&app.debug, "debug", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&app.logFormat, "log-format", "text", "Log format (text or json)")
	root.PersistentFlags().StringVar(&app.engineURL, "engine-url", "", "Use an already running engine at this URL instead of Docker")
	root.PersistentFlags().BoolVar(&app.jsonOutput, "json", false, "Print resource listings as JSON")

	root.AddCommand(engineCmd(app))
	root.AddCommand(uploadCmd(app))
	root.AddCommand(initCmd(app))
	root.AddCommand(packageCmd(app))
	root.AddCommand(deployCmd(app))
	root.AddCommand(deploymentCmd(app))
	root.AddCommand(modelCmd(app))
	root.AddCommand(configCmd(app))
	root.AddCommand(historyCmd(app))

	return root
}
