package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bdobrica/starpack/internal/starpack/config"
	"github.com/bdobrica/starpack/internal/starpack/ui"
)

func configCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the starpack configuration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "view",
		Short: "Print the resolved configuration",
		Long: `Print the configuration after environment overrides were applied.

The file lives in the starpack application directory, which STARPACK_HOME
relocates.`,
		Args: cobra.NoArgs,
		RunE: app.action(func(cmd *cobra.Command, _ []string) error {
			out, err := config.Marshal(app.cfg)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), string(out))
			printLine(cmd, ui.Muted("config: "+app.cfg.Path()))
			return nil
		}),
	})
	return cmd
}
