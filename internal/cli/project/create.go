// Package project holds all cli commands related to projects
//
// e.g., op project ...
package project

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/kianm04/OpenProjectEkster-sub016/internal/cli"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/cli/styles"
	projectservice "github.com/kianm04/OpenProjectEkster-sub016/internal/services/project"
)

// CreateCmd returns the project create subcommand
func CreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new project",
		Long: `Create a new project with specified attributes.

Examples:
  # Simple project (human-readable output)
  op project create --identifier=apollo --name="Apollo Launch"

  # JSON output for agents
  op project create --identifier=apollo --name="Apollo Launch" --json

  # Quiet mode for bash capture
  PROJECT_ID=$(op project create --identifier=apollo --name="Apollo" --quiet)
`,
		RunE: cli.Run(runCreate),
	}

	// Required flags
	cmd.Flags().String("identifier", "", "Lowercase URL-safe identifier (required)")
	cmd.Flags().String("name", "", "Project name (required)")
	for _, name := range []string{"identifier", "name"} {
		if err := cmd.MarkFlagRequired(name); err != nil {
			slog.Error("failed to mark flag as required", "flag", name, "error", err)
		}
	}

	// Optional flags
	cmd.Flags().String("description", "", "Project description (markdown)")

	cli.AddOutputFlags(cmd)
	return cmd
}

func runCreate(c *cli.CLI, f *cli.OutputFormatter, cmd *cobra.Command, args []string) error {
	identifier, _ := cmd.Flags().GetString("identifier")
	name, _ := cmd.Flags().GetString("name")
	description, _ := cmd.Flags().GetString("description")

	res, err := cli.Checked(c.App.ProjectService.CreateProject(c.Context(), projectservice.CreateProjectRequest{
		Identifier:  identifier,
		Name:        name,
		Description: description,
	}))
	if err != nil {
		return err
	}

	p := res.Result
	return f.Print("project", p, []int{p.ID}, func(w io.Writer) error {
		fmt.Fprintf(w, "%s Project '%s' created successfully (ID: %d, identifier: %s)\n",
			styles.SuccessStyle.Render("✓"), p.Name, p.ID, p.Identifier)
		return nil
	})
}
