package workpackage

import (
	"github.com/spf13/cobra"

	"github.com/kianm04/OpenProjectEkster-sub016/internal/cli"
	wpservice "github.com/kianm04/OpenProjectEkster-sub016/internal/services/workpackage"
)

// UpdateCmd returns the wp update subcommand
func UpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change a work package",
		Long: `Change a work package. Only the given flags are applied; followers
are rescheduled and listed.

Examples:
  op wp update 12 --start=2024-06-10
  op wp update 12 --status="in progress" --lock-version=3
  op wp update 12 --clear-due --duration=5
`,
		Args: cobra.ExactArgs(1),
		RunE: cli.Run(runUpdate),
	}

	addAttributeFlags(cmd)
	cmd.Flags().Int("lock-version", 0, "Fail if the work package changed since this version")
	cmd.Flags().Bool("clear-parent", false, "Remove the parent")
	cmd.Flags().Bool("clear-start", false, "Remove the start date")
	cmd.Flags().Bool("clear-due", false, "Remove the due date")
	cmd.Flags().Bool("clear-duration", false, "Remove the duration")
	cli.AddOutputFlags(cmd)

	return cmd
}

func runUpdate(c *cli.CLI, f *cli.OutputFormatter, cmd *cobra.Command, args []string) error {
	ctx := c.Context()
	id, err := cli.ParseID("work package ID", args[0])
	if err != nil {
		return err
	}

	req := wpservice.UpdateWorkPackageRequest{
		ID:                   id,
		LockVersion:          cli.IntFlag(cmd, "lock-version"),
		ParentID:             cli.IntFlag(cmd, "parent"),
		Subject:              cli.StringFlag(cmd, "subject"),
		Description:          cli.StringFlag(cmd, "description"),
		Duration:             cli.IntFlag(cmd, "duration"),
		ScheduleManually:     cli.BoolFlag(cmd, "manual"),
		IgnoreNonWorkingDays: cli.BoolFlag(cmd, "ignore-non-working-days"),
	}
	req.ClearParent, _ = cmd.Flags().GetBool("clear-parent")
	req.ClearStartDate, _ = cmd.Flags().GetBool("clear-start")
	req.ClearDueDate, _ = cmd.Flags().GetBool("clear-due")
	req.ClearDuration, _ = cmd.Flags().GetBool("clear-duration")

	for name, dst := range map[string]**int{"type": &req.TypeID, "status": &req.StatusID, "priority": &req.PriorityID} {
		v, err := lookupFlag(ctx, c, cmd, name)
		if err != nil {
			return err
		}
		if v != 0 {
			*dst = &v
		}
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

	res, err := cli.Checked(c.App.WorkPackageService.UpdateWorkPackage(ctx, req))
	if err != nil {
		return err
	}
	return printChange(f, res.Result, res.Dependents, "updated")
}
