package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bdobrica/starpack/internal/starpack/config"
	"github.com/bdobrica/starpack/internal/starpack/fault"
	"github.com/bdobrica/starpack/internal/starpack/runtime"
	"github.com/bdobrica/starpack/internal/starpack/ui"
)

func engineCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "engine",
		Short: "Control the Starpack Engine container",
	}
	cmd.AddCommand(engineStartCmd(app))
	cmd.AddCommand(engineTerminateCmd(app))
	return cmd
}

func engineStartCmd(app *App) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the engine, or adopt the one already running",
		Long: `Start the Starpack Engine.

An existing engine container is reused. When more than one is found they are
all removed and a fresh one is created. With --force every existing engine
container is removed and the image is pulled again.`,
		Args: cobra.NoArgs,
		RunE: app.action(func(cmd *cobra.Command, _ []string) error {
			ctrl, err := app.controller()
			if err != nil {
				return err
			}
			eng, err := ctrl.Start(cmd.Context(), force)
			if err != nil {
				return err
			}
			app.endpoint = eng.Endpoint()
			printLine(cmd, ui.SuccessMsg("Starpack Engine running at %s", ui.Accent(eng.Endpoint())))
			return nil
		}),
	}
	cmd.Flags().BoolVarP(&force, "force", "F", false, "Remove all existing engine containers first")
	return cmd
}

func engineTerminateCmd(app *App) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "terminate",
		Short: "Remove the engine container",
		Long: `Remove every Starpack Engine container.

With --all the artifacts volume holding uploaded models is removed as well.
This is only allowed when both the engine and Docker are local.`,
		Args: cobra.NoArgs,
		RunE: app.action(func(cmd *cobra.Command, _ []string) error {
			if all && app.engineURL != "" && !config.IsLocalURL(app.engineURL) {
				return fault.NewLocalOnly()
			}
			ctrl, err := app.controller()
			if err != nil {
				return err
			}
			res, err := ctrl.Terminate(cmd.Context(), all)
			if err != nil {
				return err
			}
			if res.Removed == 0 {
				printLine(cmd, ui.Muted("no engine containers found"))
			} else {
				printLine(cmd, ui.SuccessMsg("removed %s", plural(res.Removed, "engine container")))
			}
			if res.VolumesRemoved {
				printLine(cmd, ui.SuccessMsg("removed volume %s", ui.Accent(runtime.ArtifactsVolume)))
			}
			return nil
		}),
	}
	cmd.Flags().BoolVarP(&all, "all", "A", false, "Remove associated volumes and saved data as well")
	return cmd
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
