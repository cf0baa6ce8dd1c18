package workpackage

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/kianm04/OpenProjectEkster-sub016/internal/cli"
	wpservice "github.com/kianm04/OpenProjectEkster-sub016/internal/services/workpackage"
)

// CreateCmd returns the wp create subcommand
func CreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a work package",
		Long: `Create a work package. Missing dates are derived from the others and
the working-day calendar.

Examples:
  # Three working days starting on a Monday
  op wp create --project=apollo --subject="Design" --start=2024-06-03 --duration=3

  # A milestone, capturing the ID
  WP=$(op wp create --project=apollo --subject="Launch" --type=milestone --due=2024-07-01 --quiet)
`,
		RunE: cli.Run(runCreate),
	}

	cmd.Flags().String("project", "", "Project ID or identifier (required)")
	addAttributeFlags(cmd)
	for _, name := range []string{"project", "subject"} {
		if err := cmd.MarkFlagRequired(name); err != nil {
			slog.Error("failed to mark flag as required", "flag", name, "error", err)
		}
	}
	cli.AddOutputFlags(cmd)

	return cmd
}

func runCreate(c *cli.CLI, f *cli.OutputFormatter, cmd *cobra.Command, args []string) error {
	ctx := c.Context()
	projectRef, _ := cmd.Flags().GetString("project")

	p, err := c.ResolveProject(ctx, projectRef)
	if err != nil {
		return err
	}

	req := wpservice.CreateWorkPackageRequest{ProjectID: p.ID}
	req.Subject, _ = cmd.Flags().GetString("subject")
	req.Description, _ = cmd.Flags().GetString("description")
	req.ParentID = cli.IntFlag(cmd, "parent")
	req.Duration = cli.IntFlag(cmd, "duration")
	req.ScheduleManually, _ = cmd.Flags().GetBool("manual")
	req.IgnoreNonWorkingDays, _ = cmd.Flags().GetBool("ignore-non-working-days")

	if req.TypeID, err = lookupFlag(ctx, c, cmd, "type"); err != nil {
		return err
	}
	if req.StatusID, err = lookupFlag(ctx, c, cmd, "status"); err != nil {
		return err
	}
	if req.PriorityID, err = lookupFlag(ctx, c, cmd, "priority"); err != nil {
		return err
	}
	if req.StartDate, err = cli.DateFlag(cmd, "start"); err != nil {
		return err
	}
	if req.DueDate, err = cli.DateFlag(cmd, "due"); err != nil {
		return err
	}
	if req.CustomValues, err = customValues(cmd); err != nil {
		return err
	}

	res, err := cli.Checked(c.App.WorkPackageService.CreateWorkPackage(ctx, req))
	if err != nil {
		return err
	}
	return printChange(f, res.Result, res.Dependents, "created")
}
