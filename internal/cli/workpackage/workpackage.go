// Package workpackage holds the cli commands for work packages
//
// e.g., op wp ...
package workpackage

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kianm04/OpenProjectEkster-sub016/internal/cli"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/cli/styles"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/models"
)

// WorkPackageCmd returns the wp parent command
func WorkPackageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "wp",
		Aliases: []string{"work-package"},
		Short:   "Manage work packages",
	}

	cmd.AddCommand(CreateCmd())
	cmd.AddCommand(ListCmd())
	cmd.AddCommand(TreeCmd())
	cmd.AddCommand(ShowCmd())
	cmd.AddCommand(UpdateCmd())
	cmd.AddCommand(DeleteCmd())
	cmd.AddCommand(CommentCmd())
	cmd.AddCommand(LookupsCmd())

	return cmd
}

// addAttributeFlags registers the flags shared by create and update
func addAttributeFlags(cmd *cobra.Command) {
	cmd.Flags().String("subject", "", "Subject")
	cmd.Flags().String("description", "", "Description (markdown)")
	cmd.Flags().String("type", "", "Type name or ID (task, milestone, phase, feature, bug)")
	cmd.Flags().String("status", "", "Status name or ID")
	cmd.Flags().String("priority", "", "Priority name or ID")
	cmd.Flags().Int("parent", 0, "Parent work package ID")
	cmd.Flags().String("start", "", "Start date (YYYY-MM-DD)")
	cmd.Flags().String("due", "", "Due date (YYYY-MM-DD)")
	cmd.Flags().Int("duration", 0, "Duration in working days")
	cmd.Flags().Bool("manual", false, "Schedule manually (ignore predecessors)")
	cmd.Flags().Bool("ignore-non-working-days", false, "Count every calendar day as working")
	cmd.Flags().StringArray("cf", nil, "Custom value as <field-id>=<value> (repeatable)")
}

// normalizeName folds "In-Progress" and "in_progress" onto "in progress"
func normalizeName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer("-", " ", "_", " ").Replace(s)
}

// resolveLookup maps a name or numeric ID onto a lookup row ID
func resolveLookup(ref, what string, ids []int, names []string) (int, error) {
	if id, err := strconv.Atoi(strings.TrimSpace(ref)); err == nil {
		for _, known := range ids {
			if known == id {
				return id, nil
			}
		}
		return 0, fmt.Errorf("%s %d: %w", what, id, models.ErrNotFound)
	}
	want := normalizeName(ref)
	for i, name := range names {
		if normalizeName(name) == want {
			return ids[i], nil
		}
	}
	return 0, cli.UsageError("unknown %s %q (known: %s)", what, ref, strings.Join(names, ", "))
}

// lookupFlag resolves a --type/--status/--priority flag. Zero means unset.
func lookupFlag(ctx context.Context, c *cli.CLI, cmd *cobra.Command, name string) (int, error) {
	if !cmd.Flags().Changed(name) {
		return 0, nil
	}
	ref, _ := cmd.Flags().GetString(name)

	var ids []int
	var names []string
	switch name {
	case "type":
		types, err := c.App.WorkPackageService.ListTypes(ctx)
		if err != nil {
			return 0, err
		}
		for _, t := range types {
			ids, names = append(ids, t.ID), append(names, t.Name)
		}
	case "status":
		statuses, err := c.App.WorkPackageService.ListStatuses(ctx)
		if err != nil {
			return 0, err
		}
		for _, s := range statuses {
			ids, names = append(ids, s.ID), append(names, s.Name)
		}
	case "priority":
		priorities, err := c.App.WorkPackageService.ListPriorities(ctx)
		if err != nil {
			return 0, err
		}
		for _, p := range priorities {
			ids, names = append(ids, p.ID), append(names, p.Name)
		}
	}
	return resolveLookup(ref, name, ids, names)
}

// customValues parses repeated --cf id=value flags
func customValues(cmd *cobra.Command) (map[int]string, error) {
	raw, _ := cmd.Flags().GetStringArray("cf")
	if len(raw) == 0 {
		return nil, nil
	}
	out := make(map[int]string, len(raw))
	for _, pair := range raw {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, cli.UsageError("custom value %q must look like <field-id>=<value>", pair)
		}
		id, err := cli.ParseID("custom field ID", key)
		if err != nil {
			return nil, err
		}
		out[id] = value
	}
	return out, nil
}

// printChange confirms a write and lists the rescheduled dependents
func printChange(f *cli.OutputFormatter, wp *models.WorkPackage, dependents []*models.WorkPackage, verb string) error {
	data := map[string]any{"work_package": wp, "rescheduled": dependents}
	if dependents == nil {
		data["rescheduled"] = []*models.WorkPackage{}
	}
	ids := []int{wp.ID}
	return f.Print("result", data, ids, func(w io.Writer) error {
		line := fmt.Sprintf("%s Work package #%d %s", styles.SuccessStyle.Render("✓"), wp.ID, verb)
		if dates := styles.DateRange(wp.StartDate, wp.DueDate); dates != "" {
			line += " " + styles.SubtitleStyle.Render("("+dates+")")
		}
		fmt.Fprintln(w, line)
		for _, d := range dependents {
			fmt.Fprintln(w, "  rescheduled "+styles.RenderReference("", models.WorkPackageReference{
				ID: d.ID, Subject: d.Subject, StartDate: d.StartDate, DueDate: d.DueDate,
			}))
		}
		return nil
	})
}
