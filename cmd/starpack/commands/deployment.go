package commands

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/bdobrica/starpack/internal/starpack/resources"
	"github.com/bdobrica/starpack/internal/starpack/ui"
)

const deployLong = `Package the project directory or descriptor, then deploy it into the
environment named in its starpack.yaml.`

func deployCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "deploy <path>",
		Short: "Package and deploy a project directory or descriptor",
		Long:  deployLong,
		Args:  cobra.ExactArgs(1),
		RunE: app.action(func(cmd *cobra.Command, args []string) error {
			return runDeploy(app, cmd, args[0])
		}),
	}
}

func deploymentCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "deployment",
		Aliases: []string{"deployments"},
		Short:   "Manage deployments on the engine",
	}

	create := &cobra.Command{
		Use:   "create [path]",
		Short: "Package and deploy (default: current directory)",
		Long:  deployLong,
		Args:  cobra.MaximumNArgs(1),
		RunE: app.action(func(cmd *cobra.Command, args []string) error {
			return runDeploy(app, cmd, pathArg(args))
		}),
	}

	cmd.AddCommand(create)
	cmd.AddCommand(listCmd(app, resources.KindDeployment, true))
	cmd.AddCommand(deleteCmd(app, resources.KindDeployment))
	cmd.AddCommand(logsCmd(app))
	return cmd
}

func runDeploy(app *App, cmd *cobra.Command, path string) error {
	m, err := app.mediator(cmd.Context())
	if err != nil {
		return err
	}
	res, err := m.DeployDirectory(cmd.Context(), path)
	if err != nil {
		return err
	}
	if res.Package != nil {
		printPackaged(cmd, res.Package)
	}
	printLine(cmd, ui.SuccessMsg("Successfully deployed %s", ui.Accent(res.Name)))
	if len(res.Endpoints) == 0 {
		return nil
	}

	names := make([]string, 0, len(res.Endpoints))
	for name := range res.Endpoints {
		names = append(names, name)
	}
	sort.Strings(names)
	pairs := make([]ui.Pair, 0, len(names))
	for _, name := range names {
		pairs = append(pairs, ui.KV(name, endpointValue(res.Endpoints[name])))
	}
	printLine(cmd, ui.Bold("Endpoints"))
	printLine(cmd, ui.KeyValues("  ", pairs...))
	return nil
}

func endpointValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case map[string]any, []any:
		b, err := json.Marshal(t)
		if err == nil {
			return string(b)
		}
	}
	return fmt.Sprint(v)
}

func logsCmd(app *App) *cobra.Command {
	var (
		flags  filterFlags
		output string
	)
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show logs for a deployment",
		Long: `Get logs for the deployment matching the combination of
  - name (required)
  - version (optional)
  - wrapper (optional)

With --output the logs are written to that file instead.`,
		Args: cobra.NoArgs,
		RunE: app.action(func(cmd *cobra.Command, _ []string) error {
			sel, err := flags.selector(resources.KindDeployment, resources.OpLogs)
			if err != nil {
				return err
			}
			m, err := app.mediator(cmd.Context())
			if err != nil {
				return err
			}
			res, err := m.Logs(cmd.Context(), sel, output)
			if err != nil {
				return err
			}
			if res.WrittenTo != "" {
				printLine(cmd, ui.SuccessMsg("logs written to %s", ui.Accent(res.WrittenTo)))
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), res.Text)
			return nil
		}),
	}
	flags.bind(cmd, "deployment", true)
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the logs to this file")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}
