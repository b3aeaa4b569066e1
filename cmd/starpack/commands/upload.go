package commands

import (
	"github.com/spf13/cobra"

	"github.com/bdobrica/starpack/internal/starpack/transfer"
	"github.com/bdobrica/starpack/internal/starpack/ui"
)

func uploadCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "upload <directory>",
		Short: "Copy a local directory into the engine's artifacts volume",
		Args:  cobra.ExactArgs(1),
		RunE: app.action(func(cmd *cobra.Command, args []string) error {
			eng, err := app.connect(cmd.Context())
			if err != nil {
				return err
			}
			up, err := transfer.New(app.rt, eng)
			if err != nil {
				return err
			}
			res, err := up.Upload(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printLine(cmd, ui.SuccessMsg("uploaded %s to %s", ui.Accent(res.Source), res.Destination))
			return nil
		}),
	}
}
