package project

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/kianm04/OpenProjectEkster-sub016/internal/cli"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/models"
	projectservice "github.com/kianm04/OpenProjectEkster-sub016/internal/services/project"
)

// MemberCmd returns the project member parent command
func MemberCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "member",
		Short: "Manage project memberships",
	}
	cmd.AddCommand(memberAddCmd())
	cmd.AddCommand(memberRemoveCmd())
	return cmd
}

func memberAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <id|identifier>",
		Short: "Grant a user a role in a project",
		Long: `Grant a user a role in a project. Roles: reader, member, project_admin.

Examples:
  op project member add apollo --login=alice --role=member
`,
		Args: cobra.ExactArgs(1),
		RunE: cli.Run(runMemberAdd),
	}
	cmd.Flags().String("login", "", "User login (required)")
	cmd.Flags().String("role", string(models.RoleMember), "Role to grant")
	if err := cmd.MarkFlagRequired("login"); err != nil {
		slog.Error("failed to mark flag as required", "flag", "login", "error", err)
	}
	cli.AddOutputFlags(cmd)
	return cmd
}

func runMemberAdd(c *cli.CLI, f *cli.OutputFormatter, cmd *cobra.Command, args []string) error {
	ctx := c.Context()
	login, _ := cmd.Flags().GetString("login")
	role, _ := cmd.Flags().GetString("role")

	p, err := c.ResolveProject(ctx, args[0])
	if err != nil {
		return err
	}
	u, err := c.ResolveUser(ctx, login)
	if err != nil {
		return err
	}

	res, err := cli.Checked(c.App.ProjectService.AddMember(ctx, projectservice.MemberRequest{
		ProjectID: p.ID,
		UserID:    u.ID,
		Role:      models.Role(role),
	}))
	if err != nil {
		return err
	}
	return f.Success("membership", res.Result, u.ID,
		fmt.Sprintf("%s is now %s in '%s'", u.Login, res.Result.Role, p.Identifier))
}

func memberRemoveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove <id|identifier>",
		Short: "Remove a user from a project",
		Args:  cobra.ExactArgs(1),
		RunE:  cli.Run(runMemberRemove),
	}
	cmd.Flags().String("login", "", "User login (required)")
	if err := cmd.MarkFlagRequired("login"); err != nil {
		slog.Error("failed to mark flag as required", "flag", "login", "error", err)
	}
	cli.AddOutputFlags(cmd)
	return cmd
}

func runMemberRemove(c *cli.CLI, f *cli.OutputFormatter, cmd *cobra.Command, args []string) error {
	ctx := c.Context()
	login, _ := cmd.Flags().GetString("login")

	p, err := c.ResolveProject(ctx, args[0])
	if err != nil {
		return err
	}
	u, err := c.ResolveUser(ctx, login)
	if err != nil {
		return err
	}

	res, err := cli.Checked(c.App.ProjectService.RemoveMember(ctx, p.ID, u.ID))
	if err != nil {
		return err
	}
	return f.Success("membership", res.Result, u.ID, fmt.Sprintf("%s removed from '%s'", u.Login, p.Identifier))
}
