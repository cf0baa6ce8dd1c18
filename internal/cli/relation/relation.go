// Package relation holds the cli commands for work package relations
//
// e.g., op relation ...
package relation

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kianm04/OpenProjectEkster-sub016/internal/cli"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/cli/styles"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/models"
	relationservice "github.com/kianm04/OpenProjectEkster-sub016/internal/services/relation"
)

// RelationCmd returns the relation parent command
func RelationCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "relation",
		Short: "Manage relations between work packages",
	}

	cmd.AddCommand(createCmd())
	cmd.AddCommand(listCmd())
	cmd.AddCommand(updateCmd())
	cmd.AddCommand(deleteCmd())

	return cmd
}

func createCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Relate two work packages",
		Long: `Relate two work packages. Types: relates, duplicates, blocks, follows,
precedes, includes, requires. "A precedes B" is stored as "B follows A".
Lag (working days) only applies to follows and precedes.

Examples:
  # 12 starts at the earliest two working days after 7 finishes
  op relation create --from=12 --type=follows --to=7 --lag=2
`,
		RunE: cli.Run(runCreate),
	}

	cmd.Flags().Int("from", 0, "Work package ID (required)")
	cmd.Flags().Int("to", 0, "Related work package ID (required)")
	cmd.Flags().String("type", string(models.RelationRelates), "Relation type")
	cmd.Flags().Int("lag", 0, "Working days between predecessor and follower")
	for _, name := range []string{"from", "to"} {
		if err := cmd.MarkFlagRequired(name); err != nil {
			slog.Error("failed to mark flag as required", "flag", name, "error", err)
		}
	}
	cli.AddOutputFlags(cmd)

	return cmd
}

func runCreate(c *cli.CLI, f *cli.OutputFormatter, cmd *cobra.Command, args []string) error {
	from, _ := cmd.Flags().GetInt("from")
	to, _ := cmd.Flags().GetInt("to")
	relType, _ := cmd.Flags().GetString("type")
	lag, _ := cmd.Flags().GetInt("lag")

	res, err := cli.Checked(c.App.RelationService.CreateRelation(c.Context(), relationservice.CreateRelationRequest{
		FromID: from,
		ToID:   to,
		Type:   models.RelationType(strings.ToLower(strings.TrimSpace(relType))),
		Lag:    lag,
	}))
	if err != nil {
		return err
	}
	return printRelation(f, res.Result, res.Dependents, "created")
}

func listCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list <work-package-id>",
		Short: "List the relations of a work package",
		Args:  cobra.ExactArgs(1),
		RunE:  cli.Run(runList),
	}
	cli.AddOutputFlags(cmd)
	return cmd
}

func runList(c *cli.CLI, f *cli.OutputFormatter, cmd *cobra.Command, args []string) error {
	id, err := cli.ParseID("work package ID", args[0])
	if err != nil {
		return err
	}
	relations, err := c.App.RelationService.ListRelations(c.Context(), id)
	if err != nil {
		return err
	}

	ids := make([]int, len(relations))
	for i, r := range relations {
		ids[i] = r.ID
	}
	return f.Print("relations", relations, ids, func(w io.Writer) error {
		if len(relations) == 0 {
			fmt.Fprintf(w, "No relations for #%d\n", id)
			return nil
		}
		for _, r := range relations {
			fmt.Fprintln(w, "  "+describe(r))
		}
		return nil
	})
}

func updateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <relation-id>",
		Short: "Change the lag of a follows relation",
		Args:  cobra.ExactArgs(1),
		RunE:  cli.Run(runUpdate),
	}
	cmd.Flags().Int("lag", 0, "Working days between predecessor and follower (required)")
	if err := cmd.MarkFlagRequired("lag"); err != nil {
		slog.Error("failed to mark flag as required", "flag", "lag", "error", err)
	}
	cli.AddOutputFlags(cmd)
	return cmd
}

func runUpdate(c *cli.CLI, f *cli.OutputFormatter, cmd *cobra.Command, args []string) error {
	id, err := cli.ParseID("relation ID", args[0])
	if err != nil {
		return err
	}
	lag, _ := cmd.Flags().GetInt("lag")

	res, err := cli.Checked(c.App.RelationService.UpdateRelation(c.Context(), relationservice.UpdateRelationRequest{ID: id, Lag: lag}))
	if err != nil {
		return err
	}
	return printRelation(f, res.Result, res.Dependents, "updated")
}

func deleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <relation-id>",
		Short: "Remove a relation",
		Args:  cobra.ExactArgs(1),
		RunE:  cli.Run(runDelete),
	}
	cli.AddOutputFlags(cmd)
	return cmd
}

func runDelete(c *cli.CLI, f *cli.OutputFormatter, cmd *cobra.Command, args []string) error {
	id, err := cli.ParseID("relation ID", args[0])
	if err != nil {
		return err
	}
	res, err := cli.Checked(c.App.RelationService.DeleteRelation(c.Context(), id))
	if err != nil {
		return err
	}
	return printRelation(f, res.Result, res.Dependents, "deleted")
}

// describe renders "#12 follows #7 (lag 2)"
func describe(r models.Relation) string {
	text := fmt.Sprintf("[%d] #%d %s #%d", r.ID, r.FromID, styles.LabelStyle.Render(string(r.Type)), r.ToID)
	if r.Lag > 0 {
		text += styles.SubtitleStyle.Render(fmt.Sprintf(" (lag %d)", r.Lag))
	}
	return text
}

func printRelation(f *cli.OutputFormatter, r *models.Relation, dependents []*models.WorkPackage, verb string) error {
	if dependents == nil {
		dependents = []*models.WorkPackage{}
	}
	data := map[string]any{"relation": r, "rescheduled": dependents}
	return f.Print("result", data, []int{r.ID}, func(w io.Writer) error {
		fmt.Fprintf(w, "%s Relation %s: %s\n", styles.SuccessStyle.Render("✓"), verb, describe(*r))
		for _, d := range dependents {
			fmt.Fprintln(w, "  rescheduled "+styles.RenderReference("", models.WorkPackageReference{
				ID: d.ID, Subject: d.Subject, StartDate: d.StartDate, DueDate: d.DueDate,
			}))
		}
		return nil
	})
}
