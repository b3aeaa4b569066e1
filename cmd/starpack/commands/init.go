package commands

import (
	"github.com/spf13/cobra"

	"github.com/bdobrica/starpack/internal/starpack/templates"
	"github.com/bdobrica/starpack/internal/starpack/ui"
)

func initCmd(app *App) *cobra.Command {
	var overwrite bool
	cmd := &cobra.Command{
		Use:   "init <directory>",
		Short: "Create a project directory with starter files",
		Long: `Write a starter predict.py, requirements.txt and starpack.yaml into the
directory, creating it if needed.

Existing files are kept unless you confirm the overwrite or pass --overwrite.`,
		Args: cobra.ExactArgs(1),
		RunE: app.action(func(cmd *cobra.Command, args []string) error {
			prompter := ui.NewPrompter(cmd.InOrStdin(), cmd.OutOrStdout())
			results, err := templates.Default().Materialize(args[0], overwrite, templates.ConfirmFunc(declineOnEOF(prompter)))
			for _, r := range results {
				switch r.Outcome {
				case templates.Written:
					printLine(cmd, ui.SuccessMsg("created %s", r.Path))
				case templates.Skipped:
					printLine(cmd, ui.WarnMsg("kept %s %s", r.Path, ui.Muted("("+r.Reason+")")))
				}
			}
			if err != nil {
				return err
			}
			printLine(cmd, ui.InfoMsg("initialized %s", ui.Accent(args[0])))
			return nil
		}),
	}
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing files without asking")
	return cmd
}
