package workpackage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kianm04/OpenProjectEkster-sub016/internal/cli"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/cli/styles"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/models"
)

// ListCmd returns the wp list subcommand
func ListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the work packages of a project",
		RunE:  cli.Run(runList),
	}
	cmd.Flags().String("project", "", "Project ID or identifier (required)")
	if err := cmd.MarkFlagRequired("project"); err != nil {
		slog.Error("failed to mark flag as required", "flag", "project", "error", err)
	}
	cli.AddOutputFlags(cmd)
	return cmd
}

// listing loads a project's work packages together with status and
// type names for display
type listing struct {
	project  *models.Project
	packages []*models.WorkPackage
	statuses map[int]*models.Status
	types    map[int]string
}

func loadListing(ctx context.Context, c *cli.CLI, projectRef string) (*listing, error) {
	p, err := c.ResolveProject(ctx, projectRef)
	if err != nil {
		return nil, err
	}
	wps, err := c.App.WorkPackageService.ListWorkPackages(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	statuses, err := c.App.WorkPackageService.ListStatuses(ctx)
	if err != nil {
		return nil, err
	}
	types, err := c.App.WorkPackageService.ListTypes(ctx)
	if err != nil {
		return nil, err
	}

	l := &listing{project: p, packages: wps, statuses: map[int]*models.Status{}, types: map[int]string{}}
	for _, s := range statuses {
		l.statuses[s.ID] = s
	}
	for _, t := range types {
		l.types[t.ID] = t.Name
	}
	return l, nil
}

func (l *listing) ids() []int {
	ids := make([]int, len(l.packages))
	for i, wp := range l.packages {
		ids[i] = wp.ID
	}
	return ids
}

// line renders one work package row
func (l *listing) line(wp *models.WorkPackage) string {
	subject := wp.Subject
	statusName := ""
	if s, ok := l.statuses[wp.StatusID]; ok {
		statusName = s.Name
		if s.IsClosed {
			subject = styles.ClosedStyle.Render(subject)
		}
	}
	line := fmt.Sprintf("[%d] %s %s %s", wp.ID,
		styles.LabelStyle.Render(l.types[wp.TypeID]),
		subject,
		styles.SubtitleStyle.Render(statusName))
	if dates := styles.DateRange(wp.StartDate, wp.DueDate); dates != "" {
		line += "  " + dates
	}
	return line
}

func runList(c *cli.CLI, f *cli.OutputFormatter, cmd *cobra.Command, args []string) error {
	projectRef, _ := cmd.Flags().GetString("project")
	l, err := loadListing(c.Context(), c, projectRef)
	if err != nil {
		return err
	}

	return f.Print("work_packages", l.packages, l.ids(), func(w io.Writer) error {
		if len(l.packages) == 0 {
			fmt.Fprintf(w, "No work packages in '%s'\n", l.project.Identifier)
			return nil
		}
		fmt.Fprintf(w, "Found %d work packages in '%s':\n\n", len(l.packages), l.project.Identifier)
		for _, wp := range l.packages {
			fmt.Fprintln(w, "  "+l.line(wp))
		}
		return nil
	})
}

// TreeCmd returns the wp tree subcommand
func TreeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Display a project's work packages by parent",
		Long: `Display all work packages of a project as a hierarchy.
Children are indented under their parents.`,
		RunE: cli.Run(runTree),
	}
	cmd.Flags().String("project", "", "Project ID or identifier (required)")
	if err := cmd.MarkFlagRequired("project"); err != nil {
		slog.Error("failed to mark flag as required", "flag", "project", "error", err)
	}
	cmd.Flags().Bool("json", false, "Output in JSON format")
	cmd.Flags().Bool("quiet", false, "Minimal output (IDs in tree order, indented)")
	return cmd
}

// treeNode represents a node in JSON output
type treeNode struct {
	ID        int         `json:"id"`
	Subject   string      `json:"subject"`
	StartDate *string     `json:"start_date,omitempty"`
	DueDate   *string     `json:"due_date,omitempty"`
	Children  []*treeNode `json:"children,omitempty"`
}

// buildTree groups work packages under their parents. Packages whose
// parent lies outside the listing become roots.
func buildTree(wps []*models.WorkPackage) (roots []*models.WorkPackage, children map[int][]*models.WorkPackage) {
	byID := make(map[int]bool, len(wps))
	for _, wp := range wps {
		byID[wp.ID] = true
	}
	children = make(map[int][]*models.WorkPackage)
	for _, wp := range wps {
		if wp.ParentID != nil && byID[*wp.ParentID] {
			children[*wp.ParentID] = append(children[*wp.ParentID], wp)
			continue
		}
		roots = append(roots, wp)
	}
	return roots, children
}

func toTreeNodes(nodes []*models.WorkPackage, children map[int][]*models.WorkPackage) []*treeNode {
	out := make([]*treeNode, 0, len(nodes))
	for _, wp := range nodes {
		n := &treeNode{ID: wp.ID, Subject: wp.Subject, Children: toTreeNodes(children[wp.ID], children)}
		if wp.StartDate != nil {
			s := wp.StartDate.Format("2006-01-02")
			n.StartDate = &s
		}
		if wp.DueDate != nil {
			d := wp.DueDate.Format("2006-01-02")
			n.DueDate = &d
		}
		out = append(out, n)
	}
	return out
}

func runTree(c *cli.CLI, f *cli.OutputFormatter, cmd *cobra.Command, args []string) error {
	projectRef, _ := cmd.Flags().GetString("project")
	l, err := loadListing(c.Context(), c, projectRef)
	if err != nil {
		return err
	}
	roots, children := buildTree(l.packages)

	if f.JSON {
		return f.Print("tree", toTreeNodes(roots, children), nil, nil)
	}

	var output strings.Builder
	var render func(nodes []*models.WorkPackage, depth int)
	render = func(nodes []*models.WorkPackage, depth int) {
		for _, wp := range nodes {
			if f.Quiet {
				fmt.Fprintf(&output, "%s%d\n", strings.Repeat("  ", depth), wp.ID)
			} else {
				output.WriteString(styles.IndentTree(depth+1, l.line(wp)) + "\n")
			}
			render(children[wp.ID], depth+1)
		}
	}
	render(roots, 0)

	if output.Len() == 0 && !f.Quiet {
		output.WriteString("No work packages found\n")
	}
	_, err = io.WriteString(f.Out, output.String())
	return err
}
