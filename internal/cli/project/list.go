package project

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/kianm04/OpenProjectEkster-sub016/internal/cli"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/cli/styles"
)

// ListCmd returns the project list subcommand
func ListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List projects",
		Long:  "List active projects, or every project with --archived.",
		RunE:  cli.Run(runList),
	}

	cmd.Flags().Bool("archived", false, "Include archived projects")
	cli.AddOutputFlags(cmd)

	return cmd
}

func runList(c *cli.CLI, f *cli.OutputFormatter, cmd *cobra.Command, args []string) error {
	archived, _ := cmd.Flags().GetBool("archived")

	projects, err := c.App.ProjectService.ListProjects(c.Context(), archived)
	if err != nil {
		return err
	}

	ids := make([]int, len(projects))
	for i, p := range projects {
		ids[i] = p.ID
	}

	return f.Print("projects", projects, ids, func(w io.Writer) error {
		if len(projects) == 0 {
			fmt.Fprintln(w, "No projects found")
			return nil
		}

		fmt.Fprintf(w, "Found %d projects:\n\n", len(projects))
		for _, p := range projects {
			line := fmt.Sprintf("  [%d] %s %s", p.ID, styles.TitleStyle.Render(p.Identifier), p.Name)
			if !p.Active {
				line += " " + styles.SubtitleStyle.Render("(archived)")
			}
			fmt.Fprintln(w, line)
		}
		return nil
	})
}
