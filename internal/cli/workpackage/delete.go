package workpackage

import (
	"github.com/spf13/cobra"

	"github.com/kianm04/OpenProjectEkster-sub016/internal/cli"
)

// DeleteCmd returns the wp delete subcommand
func DeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a work package",
		Long: `Delete a work package. Its children move up to its parent and its
followers are rescheduled.`,
		Args: cobra.ExactArgs(1),
		RunE: cli.Run(runDelete),
	}
	cmd.Flags().Int("lock-version", 0, "Fail if the work package changed since this version")
	cli.AddOutputFlags(cmd)
	return cmd
}

func runDelete(c *cli.CLI, f *cli.OutputFormatter, cmd *cobra.Command, args []string) error {
	id, err := cli.ParseID("work package ID", args[0])
	if err != nil {
		return err
	}

	res, err := cli.Checked(c.App.WorkPackageService.DeleteWorkPackage(c.Context(), id, cli.IntFlag(cmd, "lock-version")))
	if err != nil {
		return err
	}
	return printChange(f, res.Result, res.Dependents, "deleted")
}
