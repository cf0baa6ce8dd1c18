// Package customfield holds the cli commands for custom fields and the
// items of hierarchy fields
//
// e.g., op cf ...
package customfield

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kianm04/OpenProjectEkster-sub016/internal/cli"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/cli/styles"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/hierarchy"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/models"
	cfservice "github.com/kianm04/OpenProjectEkster-sub016/internal/services/customfield"
)

// CustomFieldCmd returns the custom field parent command
func CustomFieldCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "cf",
		Aliases: []string{"custom-field"},
		Short:   "Manage custom fields",
	}

	cmd.AddCommand(createCmd())
	cmd.AddCommand(listCmd())
	cmd.AddCommand(showCmd())
	cmd.AddCommand(deleteCmd())
	cmd.AddCommand(ItemCmd())

	return cmd
}

func createCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a custom field",
		Long: `Create a custom field (admins only).

Formats: string, text, int, float, bool, date, list, hierarchy.
List fields need at least one --value; hierarchy fields start with an
empty tree that is filled with "op cf item add".

Examples:
  op cf create --name=Size --format=list --value=S --value=M --value=L
  op cf create --name=Code --format=string --max=8 --regexp='^[A-Z]+$'
  op cf create --name=Location --format=hierarchy
`,
		RunE: cli.Run(runCreate),
	}

	cmd.Flags().String("name", "", "Field name (required)")
	cmd.Flags().String("format", string(models.FormatString), "Value format")
	cmd.Flags().Bool("required", false, "Every work package needs a value")
	cmd.Flags().Int("min", 0, "Minimum value length (0 = no limit)")
	cmd.Flags().Int("max", 0, "Maximum value length (0 = no limit)")
	cmd.Flags().String("regexp", "", "Pattern values must match")
	cmd.Flags().StringArray("value", nil, "Possible value of a list field (repeatable)")
	if err := cmd.MarkFlagRequired("name"); err != nil {
		slog.Error("failed to mark flag as required", "flag", "name", "error", err)
	}
	cli.AddOutputFlags(cmd)

	return cmd
}

func runCreate(c *cli.CLI, f *cli.OutputFormatter, cmd *cobra.Command, args []string) error {
	name, _ := cmd.Flags().GetString("name")
	format, _ := cmd.Flags().GetString("format")
	required, _ := cmd.Flags().GetBool("required")
	minLength, _ := cmd.Flags().GetInt("min")
	maxLength, _ := cmd.Flags().GetInt("max")
	regexp, _ := cmd.Flags().GetString("regexp")
	values, _ := cmd.Flags().GetStringArray("value")

	res, err := cli.Checked(c.App.CustomFieldService.CreateCustomField(c.Context(), cfservice.CreateCustomFieldRequest{
		Name:           name,
		Format:         models.FieldFormat(strings.ToLower(strings.TrimSpace(format))),
		Required:       required,
		MinLength:      minLength,
		MaxLength:      maxLength,
		Regexp:         regexp,
		PossibleValues: values,
	}))
	if err != nil {
		return err
	}

	cf := res.Result
	return f.Success("custom_field", cf, cf.ID, fmt.Sprintf("Custom field %d created: %s (%s)", cf.ID, cf.Name, cf.Format))
}

func listCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List custom fields",
		RunE:  cli.Run(runList),
	}
	cli.AddOutputFlags(cmd)
	return cmd
}

func runList(c *cli.CLI, f *cli.OutputFormatter, cmd *cobra.Command, args []string) error {
	fields, err := c.App.CustomFieldService.ListCustomFields(c.Context())
	if err != nil {
		return err
	}
	if fields == nil {
		fields = []*models.CustomField{}
	}

	ids := make([]int, len(fields))
	for i, cf := range fields {
		ids[i] = cf.ID
	}
	return f.Print("custom_fields", fields, ids, func(w io.Writer) error {
		if len(fields) == 0 {
			fmt.Fprintln(w, "No custom fields found")
			return nil
		}
		for _, cf := range fields {
			fmt.Fprintf(w, "  [%d] %s %s%s\n", cf.ID, cf.Name,
				styles.SubtitleStyle.Render(string(cf.Format)), requiredMark(cf))
		}
		return nil
	})
}

func requiredMark(cf *models.CustomField) string {
	if !cf.Required {
		return ""
	}
	return " " + styles.WarningStyle.Render("required")
}

func showCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a custom field and, for hierarchies, its item tree",
		Args:  cobra.ExactArgs(1),
		RunE:  cli.Run(runShow),
	}
	cli.AddOutputFlags(cmd)
	return cmd
}

// itemRow is one row of a hierarchy listing
type itemRow struct {
	ID       int    `json:"id"`
	ParentID *int   `json:"parent_id"`
	Label    string `json:"label"`
	Short    string `json:"short,omitempty"`
	Position int    `json:"position"`
	Depth    int    `json:"depth"`
	Path     string `json:"path"`
}

func toRows(entries []hierarchy.Entry) []itemRow {
	rows := make([]itemRow, len(entries))
	for i, e := range entries {
		rows[i] = itemRow{
			ID:       e.Item.ID,
			ParentID: e.Item.ParentID,
			Label:    e.Item.LabelText(),
			Short:    e.Item.ShortText(),
			Position: e.Item.Position,
			Depth:    e.Depth,
			Path:     e.Path,
		}
	}
	return rows
}

type fieldDetail struct {
	*models.CustomField
	Items []itemRow `json:"items,omitempty"`
}

func runShow(c *cli.CLI, f *cli.OutputFormatter, cmd *cobra.Command, args []string) error {
	id, err := cli.ParseID("custom field ID", args[0])
	if err != nil {
		return err
	}
	cf, err := c.App.CustomFieldService.GetCustomField(c.Context(), id)
	if err != nil {
		return err
	}

	detail := fieldDetail{CustomField: cf}
	if cf.Format == models.FormatHierarchy {
		entries, err := c.App.CustomFieldService.Tree(c.Context(), cf.ID)
		if err != nil {
			return err
		}
		detail.Items = toRows(entries)
	}

	return f.Print("custom_field", detail, []int{cf.ID}, func(w io.Writer) error {
		fmt.Fprintln(w, styles.TitleStyle.Render(fmt.Sprintf("[%d] %s", cf.ID, cf.Name)))
		fmt.Fprintln(w, styles.Field("Format", string(cf.Format)))
		fmt.Fprintln(w, styles.Field("Required", fmt.Sprintf("%t", cf.Required)))
		if cf.MinLength > 0 || cf.MaxLength > 0 {
			fmt.Fprintln(w, styles.Field("Length", fmt.Sprintf("%d..%d", cf.MinLength, cf.MaxLength)))
		}
		if cf.Regexp != "" {
			fmt.Fprintln(w, styles.Field("Pattern", cf.Regexp))
		}
		if len(cf.PossibleValues) > 0 {
			fmt.Fprintln(w, styles.Field("Values", strings.Join(cf.PossibleValues, ", ")))
		}
		if cf.Format == models.FormatHierarchy {
			fmt.Fprintln(w, styles.Section("Items"))
			if len(detail.Items) == 0 {
				fmt.Fprintln(w, styles.SubtitleStyle.Render("  empty"))
			}
			for _, row := range detail.Items {
				fmt.Fprintln(w, "  "+styles.IndentTree(row.Depth, renderItem(row)))
			}
		}
		return nil
	})
}

func renderItem(row itemRow) string {
	text := fmt.Sprintf("[%d] %s", row.ID, row.Label)
	if row.Short != "" {
		text += " " + styles.SubtitleStyle.Render("("+row.Short+")")
	}
	return text
}

func deleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a custom field with all its values",
		Args:  cobra.ExactArgs(1),
		RunE:  cli.Run(runDelete),
	}
	cmd.Flags().Bool("force", false, "Skip confirmation (required)")
	cli.AddOutputFlags(cmd)
	return cmd
}

func runDelete(c *cli.CLI, f *cli.OutputFormatter, cmd *cobra.Command, args []string) error {
	id, err := cli.ParseID("custom field ID", args[0])
	if err != nil {
		return err
	}
	if force, _ := cmd.Flags().GetBool("force"); !force {
		return cli.UsageError("deleting custom field %d removes every value; pass --force to confirm", id)
	}

	res, err := cli.Checked(c.App.CustomFieldService.DeleteCustomField(c.Context(), id))
	if err != nil {
		return err
	}
	return f.Success("custom_field", res.Result, id, fmt.Sprintf("Custom field %d deleted", id))
}
