package workpackage

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/kianm04/OpenProjectEkster-sub016/internal/cli"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/cli/styles"
)

// CommentCmd returns the wp comment subcommand
func CommentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "comment <id>",
		Short: "Comment on a work package, or list its comments",
		Long: `Add a comment with --message, or list the comments without it.

Examples:
  op wp comment 12 --message="Blocked on the vendor"
  op wp comment 12 --json
`,
		Args: cobra.ExactArgs(1),
		RunE: cli.Run(runComment),
	}
	cmd.Flags().StringP("message", "m", "", "Comment text (markdown)")
	cli.AddOutputFlags(cmd)
	return cmd
}

func runComment(c *cli.CLI, f *cli.OutputFormatter, cmd *cobra.Command, args []string) error {
	ctx := c.Context()
	id, err := cli.ParseID("work package ID", args[0])
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("message") {
		message, _ := cmd.Flags().GetString("message")
		res, err := cli.Checked(c.App.WorkPackageService.AddComment(ctx, id, message))
		if err != nil {
			return err
		}
		slog.Debug("comment added", "work_package_id", id, "comment_id", res.Result.ID)
		return f.Success("comment", res.Result, res.Result.ID, fmt.Sprintf("Comment added to #%d", id))
	}

	comments, err := c.App.WorkPackageService.ListComments(ctx, id)
	if err != nil {
		return err
	}
	ids := make([]int, len(comments))
	for i, cm := range comments {
		ids[i] = cm.ID
	}
	return f.Print("comments", comments, ids, func(w io.Writer) error {
		if len(comments) == 0 {
			fmt.Fprintln(w, "No comments")
			return nil
		}
		for _, cm := range comments {
			fmt.Fprintln(w, styles.LabelStyle.Render(cm.Author)+" "+
				styles.SubtitleStyle.Render(cm.CreatedAt.Format("2006-01-02 15:04")))
			fmt.Fprintln(w, styles.RenderMarkdown(cm.Message, styles.CardWidth, f.Plain()))
			fmt.Fprintln(w)
		}
		return nil
	})
}
