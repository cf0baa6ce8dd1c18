package workpackage

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kianm04/OpenProjectEkster-sub016/internal/cli"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/cli/styles"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/models"
)

// ShowCmd returns the wp show subcommand
func ShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a work package with relations, children and custom values",
		Args:  cobra.ExactArgs(1),
		RunE:  cli.Run(runShow),
	}
	cmd.Flags().Bool("comments", false, "Include comments")
	cli.AddOutputFlags(cmd)
	return cmd
}

type showData struct {
	*models.WorkPackageDetail
	Comments []*models.Comment `json:"comments,omitempty"`
}

func runShow(c *cli.CLI, f *cli.OutputFormatter, cmd *cobra.Command, args []string) error {
	ctx := c.Context()
	id, err := cli.ParseID("work package ID", args[0])
	if err != nil {
		return err
	}
	withComments, _ := cmd.Flags().GetBool("comments")

	detail, err := c.App.WorkPackageService.GetWorkPackageDetail(ctx, id)
	if err != nil {
		return err
	}
	data := showData{WorkPackageDetail: detail}
	if withComments {
		if data.Comments, err = c.App.WorkPackageService.ListComments(ctx, id); err != nil {
			return err
		}
	}

	return f.Print("work_package", data, []int{id}, func(w io.Writer) error {
		return renderDetail(w, data, f.Plain())
	})
}

func renderDetail(w io.Writer, d showData, plain bool) error {
	var b strings.Builder

	title := fmt.Sprintf("%s #%d %s", strings.ToUpper(d.TypeName), d.ID, d.Subject)
	b.WriteString(styles.TitleStyle.Render(title) + "\n\n")

	status := d.StatusName
	if d.StatusClosed {
		status += " (closed)"
	}
	b.WriteString(styles.Field("Project", d.ProjectIdentifier) + "\n")
	b.WriteString(styles.Field("Status", status) + "\n")
	b.WriteString(styles.LabelStyle.Render("Priority:") + " " + styles.RenderPriority(d.PriorityName, d.PriorityColor) + "\n")
	b.WriteString(styles.Field("Dates", cli.OrDash(styles.DateRange(d.StartDate, d.DueDate))) + "\n")
	duration := "-"
	if d.Duration != nil {
		duration = fmt.Sprintf("%d working days", *d.Duration)
	}
	b.WriteString(styles.Field("Duration", duration) + "\n")

	scheduling := "automatic"
	if d.ScheduleManually {
		scheduling = "manual"
	}
	if d.IgnoreNonWorkingDays {
		scheduling += ", all days working"
	}
	b.WriteString(styles.Field("Scheduling", scheduling) + "\n")
	b.WriteString(styles.Field("Lock version", fmt.Sprint(d.LockVersion)) + "\n")

	if len(d.CustomValues) > 0 {
		b.WriteString(styles.Section("Custom fields") + "\n")
		for _, cv := range d.CustomValues {
			b.WriteString("  " + styles.Field(cv.Field.Name, cli.OrDash(cv.Formatted)) + "\n")
		}
	}

	b.WriteString(styles.Section("Description") + "\n")
	b.WriteString(styles.RenderMarkdown(d.Description, styles.CardWidth, plain) + "\n")

	if len(d.Relations) > 0 {
		b.WriteString(styles.Section("Relations") + "\n")
		for _, r := range d.Relations {
			label := r.Label
			if r.Lag > 0 {
				label = fmt.Sprintf("%s (lag %d)", label, r.Lag)
			}
			b.WriteString("  " + styles.RenderReference(label, r.Other) + "\n")
		}
	}

	if len(d.Children) > 0 {
		b.WriteString(styles.Section("Children") + "\n")
		for _, child := range d.Children {
			b.WriteString("  " + styles.RenderReference("", *child) + "\n")
		}
	}

	if len(d.Comments) > 0 {
		b.WriteString(styles.Section("Comments") + "\n")
		for _, cm := range d.Comments {
			b.WriteString("  " + styles.LabelStyle.Render(cm.Author) + ": " + cm.Message + "\n")
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}
