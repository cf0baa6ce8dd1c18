// Package webhook holds the cli commands for outgoing webhooks
//
// e.g., op webhook ...
package webhook

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kianm04/OpenProjectEkster-sub016/internal/cli"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/cli/styles"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/models"
	webhookservice "github.com/kianm04/OpenProjectEkster-sub016/internal/services/webhook"
)

// WebhookCmd returns the webhook parent command
func WebhookCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "webhook",
		Short: "Manage outgoing webhooks",
		Long: `Manage outgoing webhooks. Deliveries are sent by the daemon
(op-daemon) while it runs; "op webhook logs" shows the recorded attempts.`,
	}

	cmd.AddCommand(createCmd())
	cmd.AddCommand(listCmd())
	cmd.AddCommand(enableCmd(true))
	cmd.AddCommand(enableCmd(false))
	cmd.AddCommand(deleteCmd())
	cmd.AddCommand(logsCmd())

	return cmd
}

func createCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a webhook",
		Long: fmt.Sprintf(`Create a webhook (admins only).

Events: %s

Examples:
  op webhook create --name=ci --url=https://ci.example.com/hook \
    --event=work_package:updated --project=apollo --secret=s3cret
  op webhook create --name=audit --url=https://audit.example.com \
    --event=project:created --all-projects
`, strings.Join(models.WebhookEvents, ", ")),
		RunE: cli.Run(runCreate),
	}

	cmd.Flags().String("name", "", "Webhook name (required)")
	cmd.Flags().String("url", "", "Delivery URL (required)")
	cmd.Flags().String("secret", "", "Secret used to sign deliveries")
	cmd.Flags().StringArray("event", nil, "Event to deliver (repeatable, required)")
	cmd.Flags().StringArray("project", nil, "Project ID or identifier to watch (repeatable)")
	cmd.Flags().Bool("all-projects", false, "Watch every project")
	cmd.Flags().Bool("disabled", false, "Create the webhook disabled")
	for _, name := range []string{"name", "url", "event"} {
		if err := cmd.MarkFlagRequired(name); err != nil {
			slog.Error("failed to mark flag as required", "flag", name, "error", err)
		}
	}
	cmd.MarkFlagsMutuallyExclusive("project", "all-projects")
	cli.AddOutputFlags(cmd)

	return cmd
}

func runCreate(c *cli.CLI, f *cli.OutputFormatter, cmd *cobra.Command, args []string) error {
	req := webhookservice.CreateWebhookRequest{}
	req.Name, _ = cmd.Flags().GetString("name")
	req.URL, _ = cmd.Flags().GetString("url")
	req.Secret, _ = cmd.Flags().GetString("secret")
	req.Events, _ = cmd.Flags().GetStringArray("event")
	req.AllProjects, _ = cmd.Flags().GetBool("all-projects")
	req.Disabled, _ = cmd.Flags().GetBool("disabled")

	refs, _ := cmd.Flags().GetStringArray("project")
	for _, ref := range refs {
		p, err := c.ResolveProject(c.Context(), ref)
		if err != nil {
			return err
		}
		req.ProjectIDs = append(req.ProjectIDs, p.ID)
	}

	res, err := cli.Checked(c.App.WebhookService.CreateWebhook(c.Context(), req))
	if err != nil {
		return err
	}
	w := res.Result
	return f.Success("webhook", w, w.ID, fmt.Sprintf("Webhook %d created: %s → %s", w.ID, w.Name, w.URL))
}

func listCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List webhooks",
		RunE:  cli.Run(runList),
	}
	cli.AddOutputFlags(cmd)
	return cmd
}

func runList(c *cli.CLI, f *cli.OutputFormatter, cmd *cobra.Command, args []string) error {
	hooks, err := c.App.WebhookService.ListWebhooks(c.Context())
	if err != nil {
		return err
	}
	if hooks == nil {
		hooks = []*models.Webhook{}
	}

	ids := make([]int, len(hooks))
	for i, w := range hooks {
		ids[i] = w.ID
	}
	return f.Print("webhooks", hooks, ids, func(w io.Writer) error {
		if len(hooks) == 0 {
			fmt.Fprintln(w, "No webhooks found")
			return nil
		}
		for _, h := range hooks {
			name := h.Name
			if !h.Enabled {
				name = styles.ClosedStyle.Render(name)
			}
			fmt.Fprintf(w, "  [%d] %s %s\n", h.ID, name, styles.SubtitleStyle.Render(h.URL))
			fmt.Fprintf(w, "      %s  %s\n", strings.Join(h.Events, ", "), scope(h))
		}
		return nil
	})
}

func scope(h *models.Webhook) string {
	if h.AllProjects {
		return styles.LabelStyle.Render("all projects")
	}
	ids := make([]string, len(h.ProjectIDs))
	for i, id := range h.ProjectIDs {
		ids[i] = strconv.Itoa(id)
	}
	return styles.LabelStyle.Render("projects " + strings.Join(ids, ","))
}

func enableCmd(enabled bool) *cobra.Command {
	use, short := "enable", "Resume deliveries of a webhook"
	if !enabled {
		use, short = "disable", "Pause deliveries of a webhook"
	}
	cmd := &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: cli.Run(func(c *cli.CLI, f *cli.OutputFormatter, cmd *cobra.Command, args []string) error {
			id, err := cli.ParseID("webhook ID", args[0])
			if err != nil {
				return err
			}
			res, err := cli.Checked(c.App.WebhookService.SetEnabled(c.Context(), id, enabled))
			if err != nil {
				return err
			}
			return f.Success("webhook", res.Result, id, fmt.Sprintf("Webhook %d %sd", id, use))
		}),
	}
	cli.AddOutputFlags(cmd)
	return cmd
}

func deleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a webhook and its delivery logs",
		Args:  cobra.ExactArgs(1),
		RunE:  cli.Run(runDelete),
	}
	cli.AddOutputFlags(cmd)
	return cmd
}

func runDelete(c *cli.CLI, f *cli.OutputFormatter, cmd *cobra.Command, args []string) error {
	id, err := cli.ParseID("webhook ID", args[0])
	if err != nil {
		return err
	}
	res, err := cli.Checked(c.App.WebhookService.DeleteWebhook(c.Context(), id))
	if err != nil {
		return err
	}
	return f.Success("webhook", res.Result, id, fmt.Sprintf("Webhook %d deleted", id))
}

func logsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logs <id>",
		Short: "Show the latest delivery attempts of a webhook",
		Args:  cobra.ExactArgs(1),
		RunE:  cli.Run(runLogs),
	}
	cmd.Flags().Int("limit", 20, "Number of deliveries to show")
	cmd.Flags().Bool("body", false, "Include request and response bodies")
	cli.AddOutputFlags(cmd)
	return cmd
}

func runLogs(c *cli.CLI, f *cli.OutputFormatter, cmd *cobra.Command, args []string) error {
	id, err := cli.ParseID("webhook ID", args[0])
	if err != nil {
		return err
	}
	limit, _ := cmd.Flags().GetInt("limit")
	if limit < 1 {
		return cli.UsageError("--limit must be positive")
	}
	withBody, _ := cmd.Flags().GetBool("body")

	logs, err := c.App.WebhookService.ListLogs(c.Context(), id, limit)
	if err != nil {
		return err
	}
	if logs == nil {
		logs = []*models.WebhookLog{}
	}

	ids := make([]int, len(logs))
	for i, l := range logs {
		ids[i] = l.ID
	}
	return f.Print("logs", logs, ids, func(w io.Writer) error {
		if len(logs) == 0 {
			fmt.Fprintf(w, "No deliveries for webhook %d\n", id)
			return nil
		}
		for _, l := range logs {
			fmt.Fprintf(w, "  %s %s %s %s\n",
				l.CreatedAt.Local().Format(time.DateTime), status(l.ResponseCode), l.Event,
				styles.SubtitleStyle.Render(l.DeliveryID))
			if withBody {
				fmt.Fprintf(w, "      → %s\n      ← %s\n", l.RequestBody, cli.OrDash(l.ResponseBody))
			}
		}
		return nil
	})
}

func status(code int) string {
	switch {
	case code == 0:
		return styles.ErrorStyle.Render("---")
	case code >= 200 && code < 300:
		return styles.SuccessStyle.Render(strconv.Itoa(code))
	default:
		return styles.WarningStyle.Render(strconv.Itoa(code))
	}
}
