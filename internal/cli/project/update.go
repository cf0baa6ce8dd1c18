package project

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kianm04/OpenProjectEkster-sub016/internal/cli"
	projectservice "github.com/kianm04/OpenProjectEkster-sub016/internal/services/project"
)

// UpdateCmd returns the project update subcommand
func UpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <id|identifier>",
		Short: "Change a project's identifier, name or description",
		Args:  cobra.ExactArgs(1),
		RunE:  cli.Run(runUpdate),
	}

	cmd.Flags().String("identifier", "", "New identifier")
	cmd.Flags().String("name", "", "New name")
	cmd.Flags().String("description", "", "New description (markdown)")
	cli.AddOutputFlags(cmd)

	return cmd
}

func runUpdate(c *cli.CLI, f *cli.OutputFormatter, cmd *cobra.Command, args []string) error {
	ctx := c.Context()
	p, err := c.ResolveProject(ctx, args[0])
	if err != nil {
		return err
	}

	req := projectservice.UpdateProjectRequest{
		ID:          p.ID,
		Identifier:  cli.StringFlag(cmd, "identifier"),
		Name:        cli.StringFlag(cmd, "name"),
		Description: cli.StringFlag(cmd, "description"),
	}
	if req.Identifier == nil && req.Name == nil && req.Description == nil {
		return cli.UsageError("nothing to update: pass --identifier, --name or --description")
	}

	res, err := cli.Checked(c.App.ProjectService.UpdateProject(ctx, req))
	if err != nil {
		return err
	}
	return f.Success("project", res.Result, res.Result.ID, fmt.Sprintf("Project %d updated", res.Result.ID))
}

// ArchiveCmd returns the project archive subcommand
func ArchiveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "archive <id|identifier>",
		Short: "Archive a project, or restore it with --undo",
		Args:  cobra.ExactArgs(1),
		RunE:  cli.Run(runArchive),
	}
	cmd.Flags().Bool("undo", false, "Unarchive instead")
	cli.AddOutputFlags(cmd)
	return cmd
}

func runArchive(c *cli.CLI, f *cli.OutputFormatter, cmd *cobra.Command, args []string) error {
	ctx := c.Context()
	undo, _ := cmd.Flags().GetBool("undo")

	p, err := c.ResolveProject(ctx, args[0])
	if err != nil {
		return err
	}
	res, err := cli.Checked(c.App.ProjectService.ArchiveProject(ctx, p.ID, !undo))
	if err != nil {
		return err
	}

	verb := "archived"
	if undo {
		verb = "restored"
	}
	return f.Success("project", res.Result, p.ID, fmt.Sprintf("Project '%s' %s", p.Identifier, verb))
}

// DeleteCmd returns the project delete subcommand
func DeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id|identifier>",
		Short: "Delete a project with all its work packages",
		Args:  cobra.ExactArgs(1),
		RunE:  cli.Run(runDelete),
	}
	cmd.Flags().Bool("force", false, "Required to confirm the deletion")
	cli.AddOutputFlags(cmd)
	return cmd
}

func runDelete(c *cli.CLI, f *cli.OutputFormatter, cmd *cobra.Command, args []string) error {
	ctx := c.Context()
	force, _ := cmd.Flags().GetBool("force")
	if !force {
		return cli.UsageError("refusing to delete without --force")
	}

	p, err := c.ResolveProject(ctx, args[0])
	if err != nil {
		return err
	}
	if _, err := cli.Checked(c.App.ProjectService.DeleteProject(ctx, p.ID)); err != nil {
		return err
	}
	return f.Success("project", p, p.ID, fmt.Sprintf("Project '%s' deleted", p.Identifier))
}
