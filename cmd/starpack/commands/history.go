package commands

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/bdobrica/starpack/internal/starpack/ui"
)

var errNoHistory = errors.New("command history is not available")

func historyCmd(app *App) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recently run starpack commands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if app.history == nil {
				return errNoHistory
			}
			entries, err := app.history.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				printLine(cmd, ui.Muted("no commands recorded yet"))
				return nil
			}

			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				result := ui.SuccessStyle.Render(e.Result)
				if e.Error != "" {
					result = ui.ErrorStyle.Render(e.Result)
					if e.ErrorKind != "" {
						result += " " + ui.Muted("("+e.ErrorKind+")")
					}
				}
				rows = append(rows, []string{
					e.Timestamp.Local().Format(time.DateTime),
					e.Command,
					dash(e.Target),
					dash(e.Endpoint),
					result,
					e.Duration.Round(time.Millisecond).String(),
				})
			}
			printLine(cmd, ui.Table([]string{"Time", "Command", "Target", "Endpoint", "Result", "Took"}, rows))
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Number of entries to show")
	return cmd
}
