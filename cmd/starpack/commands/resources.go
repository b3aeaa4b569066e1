package commands

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bdobrica/starpack/internal/starpack/resources"
	"github.com/bdobrica/starpack/internal/starpack/ui"
)

// filterFlags binds the -n/-v/-w selection flags shared by the resource
// commands.
type filterFlags struct {
	resources.Filter
}

func (f *filterFlags) bind(cmd *cobra.Command, noun string, withWrapper bool) {
	cmd.Flags().StringVarP(&f.Name, "name", "n", "", "Name of the "+noun)
	cmd.Flags().StringVarP(&f.Version, "version", "v", "", "Version of the "+noun)
	if withWrapper {
		cmd.Flags().StringVarP(&f.Wrapper, "wrapper", "w", "", "Wrapper type of the "+noun)
	}
}

func (f *filterFlags) selector(kind resources.Kind, op resources.Operation) (resources.Selector, error) {
	sel, err := resources.NewSelector(kind, f.Filter)
	if err != nil {
		return nil, err
	}
	if err := sel.Validate(op); err != nil {
		return nil, err
	}
	return sel, nil
}

func listCmd(app *App, kind resources.Kind, withWrapper bool) *cobra.Command {
	var flags filterFlags
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   fmt.Sprintf("List %s matching the given filters", kind.Plural()),
		Args:    cobra.NoArgs,
		RunE: app.action(func(cmd *cobra.Command, _ []string) error {
			sel, err := flags.selector(kind, resources.OpList)
			if err != nil {
				return err
			}
			m, err := app.mediator(cmd.Context())
			if err != nil {
				return err
			}
			records, err := m.List(cmd.Context(), sel)
			if err != nil {
				return err
			}
			return app.printRecords(cmd, kind, records)
		}),
	}
	flags.bind(cmd, kind.String(), withWrapper)
	return cmd
}

func deleteCmd(app *App, kind resources.Kind) *cobra.Command {
	var flags filterFlags
	cmd := &cobra.Command{
		Use:     "delete",
		Aliases: []string{"rm"},
		Short:   fmt.Sprintf("Delete %s matching the given filters", kind.Plural()),
		Long: fmt.Sprintf(`Delete %s matching the combination of
  - name (required)
  - version (optional)
  - wrapper (optional)`, kind.Plural()),
		Args: cobra.NoArgs,
		RunE: app.action(func(cmd *cobra.Command, _ []string) error {
			sel, err := flags.selector(kind, resources.OpDelete)
			if err != nil {
				return err
			}
			m, err := app.mediator(cmd.Context())
			if err != nil {
				return err
			}
			if err := m.Delete(cmd.Context(), sel); err != nil {
				return err
			}
			printLine(cmd, ui.SuccessMsg("deleted %s matching %s", kind.Plural(), describeFilter(flags.Filter)))
			return nil
		}),
	}
	flags.bind(cmd, kind.String(), true)
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func describeFilter(f resources.Filter) string {
	parts := []string{"name=" + f.Name}
	if f.Version != "" {
		parts = append(parts, "version="+f.Version)
	}
	if f.Wrapper != "" {
		parts = append(parts, "wrapper="+f.Wrapper)
	}
	return ui.Accent(strings.Join(parts, " "))
}

func (a *App) printRecords(cmd *cobra.Command, kind resources.Kind, records []resources.Record) error {
	if a.jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if records == nil {
			records = []resources.Record{}
		}
		return enc.Encode(records)
	}
	if len(records) == 0 {
		printLine(cmd, ui.Muted("no "+kind.Plural()+" found"))
		return nil
	}

	headers := []string{"Name", "Version"}
	if kind != resources.KindModel {
		headers = append(headers, "Wrapper")
	}
	headers = append(headers, "Details")

	rows := make([][]string, 0, len(records))
	for _, r := range records {
		row := []string{dash(r.Name()), dash(r.Version())}
		if kind != resources.KindModel {
			row = append(row, dash(r.Wrapper()))
		}
		rows = append(rows, append(row, details(r)))
	}
	printLine(cmd, ui.Table(headers, rows))
	return nil
}

// details renders the fields not shown in their own column as key=value
// pairs in key order.
func details(r resources.Record) string {
	keys := make([]string, 0, len(r))
	for k := range r {
		switch k {
		case "name", "version", "wrapper":
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		v := r[k]
		switch v.(type) {
		case map[string]any, []any:
			b, err := json.Marshal(v)
			if err != nil {
				continue
			}
			parts = append(parts, k+"="+string(b))
		default:
			parts = append(parts, fmt.Sprintf("%s=%v", k, v))
		}
	}
	return dash(strings.Join(parts, " "))
}

func dash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
