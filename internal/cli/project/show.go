package project

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/kianm04/OpenProjectEkster-sub016/internal/cli"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/cli/styles"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/models"
)

// ShowCmd returns the project show subcommand
func ShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id|identifier>",
		Short: "Show a project with its members",
		Args:  cobra.ExactArgs(1),
		RunE:  cli.Run(runShow),
	}
	cli.AddOutputFlags(cmd)
	return cmd
}

type projectDetail struct {
	*models.Project
	Members []*models.Membership `json:"members"`
}

func runShow(c *cli.CLI, f *cli.OutputFormatter, cmd *cobra.Command, args []string) error {
	ctx := c.Context()
	p, err := c.ResolveProject(ctx, args[0])
	if err != nil {
		return err
	}
	members, err := c.App.ProjectService.ListMembers(ctx, p.ID)
	if err != nil {
		return err
	}

	detail := projectDetail{Project: p, Members: members}
	return f.Print("project", detail, []int{p.ID}, func(w io.Writer) error {
		fmt.Fprintln(w, styles.TitleStyle.Render(fmt.Sprintf("%s (%s)", p.Name, p.Identifier)))
		status := "active"
		if !p.Active {
			status = "archived"
		}
		fmt.Fprintln(w, styles.Field("ID", fmt.Sprint(p.ID)))
		fmt.Fprintln(w, styles.Field("Status", status))
		fmt.Fprintln(w, styles.Field("Created", p.CreatedAt.Format("2006-01-02 15:04")))

		fmt.Fprintln(w, styles.Section("Description"))
		fmt.Fprintln(w, styles.RenderMarkdown(p.Description, styles.CardWidth, f.Plain()))

		fmt.Fprintln(w, styles.Section("Members"))
		if len(members) == 0 {
			fmt.Fprintln(w, "  none")
		}
		for _, m := range members {
			fmt.Fprintf(w, "  user %d  %s\n", m.UserID, m.Role)
		}
		return nil
	})
}
