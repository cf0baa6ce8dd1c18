// Package user holds the cli commands for accounts
//
// e.g., op user ...
package user

import (
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/spf13/cobra"

	"github.com/kianm04/OpenProjectEkster-sub016/internal/cli"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/cli/styles"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/models"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/services/account"
)

// UserCmd returns the user parent command
func UserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage accounts",
	}

	cmd.AddCommand(createCmd())
	cmd.AddCommand(listCmd())
	cmd.AddCommand(whoamiCmd())

	return cmd
}

func createCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an account (admins only)",
		Long: `Create an account (admins only). Other commands act as an account
with --user or the "user" config setting.

Examples:
  op user create --login=alice --name="Alice Doe"
  op project member add apollo --login=alice --role=member
`,
		RunE: cli.Run(runCreate),
	}
	cmd.Flags().String("login", "", "Login (required)")
	cmd.Flags().String("name", "", "Display name")
	cmd.Flags().Bool("admin", false, "Grant administrator rights")
	if err := cmd.MarkFlagRequired("login"); err != nil {
		slog.Error("failed to mark flag as required", "flag", "login", "error", err)
	}
	cli.AddOutputFlags(cmd)
	return cmd
}

func runCreate(c *cli.CLI, f *cli.OutputFormatter, cmd *cobra.Command, args []string) error {
	req := account.CreateUserRequest{}
	req.Login, _ = cmd.Flags().GetString("login")
	req.Name, _ = cmd.Flags().GetString("name")
	req.Admin, _ = cmd.Flags().GetBool("admin")

	res, err := cli.Checked(c.App.AccountService.CreateUser(c.Context(), req))
	if err != nil {
		return err
	}
	u := res.Result
	return f.Success("user", u, u.ID, fmt.Sprintf("User %d created: %s", u.ID, u.Login))
}

func listCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List accounts",
		RunE:  cli.Run(runList),
	}
	cli.AddOutputFlags(cmd)
	return cmd
}

func runList(c *cli.CLI, f *cli.OutputFormatter, cmd *cobra.Command, args []string) error {
	users, err := c.App.AccountService.ListUsers(c.Context())
	if err != nil {
		return err
	}

	ids := make([]int, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	return f.Print("users", users, ids, func(w io.Writer) error {
		for _, u := range users {
			fmt.Fprintf(w, "  [%d] %s %s%s\n", u.ID, u.Login, styles.SubtitleStyle.Render(u.Name), adminMark(u))
		}
		return nil
	})
}

func adminMark(u *models.User) string {
	if !u.Admin {
		return ""
	}
	return " " + styles.WarningStyle.Render("admin")
}

func whoamiCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the account commands act as, with its project roles",
		RunE:  cli.Run(runWhoami),
	}
	cli.AddOutputFlags(cmd)
	return cmd
}

type membershipView struct {
	ProjectID  int         `json:"project_id"`
	Identifier string      `json:"identifier"`
	Role       models.Role `json:"role"`
}

type whoami struct {
	*models.User
	Memberships []membershipView `json:"memberships"`
}

func runWhoami(c *cli.CLI, f *cli.OutputFormatter, cmd *cobra.Command, args []string) error {
	me := whoami{User: c.Principal.User, Memberships: []membershipView{}}
	for projectID, role := range c.Principal.Memberships {
		view := membershipView{ProjectID: projectID, Role: role}
		if p, err := c.App.ProjectService.GetProjectByID(c.Context(), projectID); err == nil {
			view.Identifier = p.Identifier
		}
		me.Memberships = append(me.Memberships, view)
	}
	sort.Slice(me.Memberships, func(i, j int) bool {
		return me.Memberships[i].ProjectID < me.Memberships[j].ProjectID
	})

	return f.Print("user", me, []int{me.ID}, func(w io.Writer) error {
		fmt.Fprintf(w, "%s%s\n", styles.TitleStyle.Render(me.Login), adminMark(me.User))
		if me.Name != "" {
			fmt.Fprintln(w, styles.Field("Name", me.Name))
		}
		for _, m := range me.Memberships {
			fmt.Fprintln(w, styles.Field(cli.OrDash(m.Identifier), string(m.Role)))
		}
		return nil
	})
}
