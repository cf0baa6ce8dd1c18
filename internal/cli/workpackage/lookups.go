package workpackage

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/kianm04/OpenProjectEkster-sub016/internal/cli"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/cli/styles"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/models"
)

// LookupsCmd returns the wp lookups subcommand listing types, statuses
// and priorities
func LookupsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lookups",
		Short: "List the available types, statuses and priorities",
		RunE:  cli.Run(runLookups),
	}
	cmd.Flags().Bool("json", false, "Output in JSON format")
	return cmd
}

type lookups struct {
	Types      []*models.Type     `json:"types"`
	Statuses   []*models.Status   `json:"statuses"`
	Priorities []*models.Priority `json:"priorities"`
}

func runLookups(c *cli.CLI, f *cli.OutputFormatter, cmd *cobra.Command, args []string) error {
	ctx := c.Context()
	var l lookups
	var err error
	if l.Types, err = c.App.WorkPackageService.ListTypes(ctx); err != nil {
		return err
	}
	if l.Statuses, err = c.App.WorkPackageService.ListStatuses(ctx); err != nil {
		return err
	}
	if l.Priorities, err = c.App.WorkPackageService.ListPriorities(ctx); err != nil {
		return err
	}

	return f.Print("lookups", l, nil, func(w io.Writer) error {
		fmt.Fprintln(w, styles.Section("Types"))
		for _, t := range l.Types {
			suffix := ""
			if t.IsMilestone {
				suffix = " (milestone)"
			}
			fmt.Fprintf(w, "  [%d] %s%s\n", t.ID, t.Name, suffix)
		}
		fmt.Fprintln(w, styles.Section("Statuses"))
		for _, s := range l.Statuses {
			suffix := ""
			if s.IsClosed {
				suffix = " (closed)"
			}
			fmt.Fprintf(w, "  [%d] %s%s\n", s.ID, s.Name, suffix)
		}
		fmt.Fprintln(w, styles.Section("Priorities"))
		for _, p := range l.Priorities {
			fmt.Fprintf(w, "  [%d] %s\n", p.ID, styles.RenderPriority(p.Name, p.Color))
		}
		return nil
	})
}
