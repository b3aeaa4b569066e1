package commands

import (
	"github.com/spf13/cobra"

	"github.com/bdobrica/starpack/internal/starpack/mediator"
	"github.com/bdobrica/starpack/internal/starpack/resources"
	"github.com/bdobrica/starpack/internal/starpack/ui"
)

const packageLong = `Given a directory, upload its contents and submit the starpack.yaml inside
it. Given a file, submit that file as the package descriptor.`

func packageCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "package <path>",
		Short: "Package a project directory or descriptor",
		Long:  packageLong,
		Args:  cobra.MaximumNArgs(1),
		RunE: app.action(func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return runPackage(app, cmd, args[0])
		}),
	}

	create := &cobra.Command{
		Use:   "create [path]",
		Short: "Package a project directory or descriptor (default: current directory)",
		Long:  packageLong,
		Args:  cobra.MaximumNArgs(1),
		RunE: app.action(func(cmd *cobra.Command, args []string) error {
			return runPackage(app, cmd, pathArg(args))
		}),
	}

	cmd.AddCommand(create)
	cmd.AddCommand(listCmd(app, resources.KindPackage, true))
	cmd.AddCommand(deleteCmd(app, resources.KindPackage))
	return cmd
}

func runPackage(app *App, cmd *cobra.Command, path string) error {
	m, err := app.mediator(cmd.Context())
	if err != nil {
		return err
	}
	res, err := m.PackageDirectory(cmd.Context(), path)
	if err != nil {
		return err
	}
	printPackaged(cmd, res)
	return nil
}

func printPackaged(cmd *cobra.Command, res *mediator.PackageResult) {
	if res.Upload != nil {
		printLine(cmd, ui.InfoMsg("uploaded %s to %s", res.Upload.Source, res.Upload.Destination))
	}
	printLine(cmd, ui.SuccessMsg("Successfully packaged %s", ui.Accent(res.Name)))
}

func pathArg(args []string) string {
	if len(args) == 0 {
		return "."
	}
	return args[0]
}
