package commands

import (
	"github.com/spf13/cobra"

	"github.com/bdobrica/starpack/internal/starpack/resources"
)

func modelCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "model",
		Aliases: []string{"models"},
		Short:   "Inspect models known to the engine",
	}
	cmd.AddCommand(listCmd(app, resources.KindModel, false))
	return cmd
}
