// Package cmd assembles the op command tree
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/kianm04/OpenProjectEkster-sub016/internal/cli"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/cli/calendar"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/cli/configcmd"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/cli/customfield"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/cli/daemoncmd"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/cli/project"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/cli/relation"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/cli/user"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/cli/webhook"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/cli/workpackage"
)

// NewRootCmd builds the op command tree
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "op",
		Short: "op - projects, work packages and schedules from the terminal",
		Long: `op manages projects and their work packages. Dates follow a
working-day calendar: moving a work package reschedules its followers
and parents automatically.

Every command accepts --json for machine readable output and --quiet
for bare IDs. Exit codes: 0 ok, 1 error, 2 usage, 3 not found,
4 stale data, 5 validation.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cli.AddGlobalFlags(root)

	root.AddCommand(project.ProjectCmd())
	root.AddCommand(workpackage.WorkPackageCmd())
	root.AddCommand(relation.RelationCmd())
	root.AddCommand(calendar.CalendarCmd())
	root.AddCommand(customfield.CustomFieldCmd())
	root.AddCommand(webhook.WebhookCmd())
	root.AddCommand(user.UserCmd())
	root.AddCommand(configcmd.ConfigCmd())
	root.AddCommand(daemoncmd.DaemonCmd())

	return root
}

// Execute runs the command line and returns the first error
func Execute() error {
	return NewRootCmd().Execute()
}
