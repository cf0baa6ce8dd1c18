package customfield

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/kianm04/OpenProjectEkster-sub016/internal/cli"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/cli/styles"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/models"
	cfservice "github.com/kianm04/OpenProjectEkster-sub016/internal/services/customfield"
)

// ItemCmd returns the hierarchy item parent command
func ItemCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "item",
		Short: "Manage the items of a hierarchy custom field",
	}

	cmd.AddCommand(itemAddCmd())
	cmd.AddCommand(itemUpdateCmd())
	cmd.AddCommand(itemMoveCmd())
	cmd.AddCommand(itemDeleteCmd())
	cmd.AddCommand(itemFormatCmd())

	return cmd
}

func itemAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an item to a hierarchy",
		Long: `Add an item below --parent (the root when omitted). Labels are unique
among siblings. --position is zero based; without it the item is appended.

Examples:
  op cf item add --field=3 --label=Europe
  op cf item add --field=3 --parent=7 --label=Berlin --short=BER
`,
		RunE: cli.Run(runItemAdd),
	}
	cmd.Flags().Int("field", 0, "Hierarchy custom field ID (required)")
	cmd.Flags().Int("parent", 0, "Parent item ID (default: the root)")
	cmd.Flags().String("label", "", "Item label (required)")
	cmd.Flags().String("short", "", "Short form of the label")
	cmd.Flags().Int("position", 0, "Position among the siblings")
	for _, name := range []string{"field", "label"} {
		if err := cmd.MarkFlagRequired(name); err != nil {
			slog.Error("failed to mark flag as required", "flag", name, "error", err)
		}
	}
	cli.AddOutputFlags(cmd)
	return cmd
}

func runItemAdd(c *cli.CLI, f *cli.OutputFormatter, cmd *cobra.Command, args []string) error {
	fieldID, _ := cmd.Flags().GetInt("field")
	parentID, _ := cmd.Flags().GetInt("parent")
	label, _ := cmd.Flags().GetString("label")

	res, err := cli.Checked(c.App.CustomFieldService.InsertItem(c.Context(), cfservice.InsertItemRequest{
		CustomFieldID: fieldID,
		ParentID:      parentID,
		Label:         label,
		Short:         cli.StringFlag(cmd, "short"),
		Position:      cli.IntFlag(cmd, "position"),
	}))
	if err != nil {
		return err
	}
	return printItem(c, f, res.Result, "added")
}

func itemUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <item-id>",
		Short: "Relabel a hierarchy item",
		Args:  cobra.ExactArgs(1),
		RunE:  cli.Run(runItemUpdate),
	}
	cmd.Flags().String("label", "", "New label")
	cmd.Flags().String("short", "", "New short form")
	cmd.Flags().Bool("clear-short", false, "Remove the short form")
	cmd.MarkFlagsMutuallyExclusive("short", "clear-short")
	cli.AddOutputFlags(cmd)
	return cmd
}

func runItemUpdate(c *cli.CLI, f *cli.OutputFormatter, cmd *cobra.Command, args []string) error {
	id, err := cli.ParseID("item ID", args[0])
	if err != nil {
		return err
	}
	req := cfservice.UpdateItemRequest{
		ID:    id,
		Label: cli.StringFlag(cmd, "label"),
		Short: cli.StringFlag(cmd, "short"),
	}
	req.ClearShort, _ = cmd.Flags().GetBool("clear-short")
	if req.Label == nil && req.Short == nil && !req.ClearShort {
		return cli.UsageError("nothing to update: pass --label, --short or --clear-short")
	}

	res, err := cli.Checked(c.App.CustomFieldService.UpdateItem(c.Context(), req))
	if err != nil {
		return err
	}
	return printItem(c, f, res.Result, "updated")
}

func itemMoveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "move <item-id>",
		Short: "Move a hierarchy item and its branch",
		Args:  cobra.ExactArgs(1),
		RunE:  cli.Run(runItemMove),
	}
	cmd.Flags().Int("parent", 0, "New parent item ID (default: the root)")
	cmd.Flags().Int("position", 0, "Position among the new siblings")
	cli.AddOutputFlags(cmd)
	return cmd
}

func runItemMove(c *cli.CLI, f *cli.OutputFormatter, cmd *cobra.Command, args []string) error {
	id, err := cli.ParseID("item ID", args[0])
	if err != nil {
		return err
	}
	parentID, _ := cmd.Flags().GetInt("parent")

	res, err := cli.Checked(c.App.CustomFieldService.MoveItem(c.Context(), cfservice.MoveItemRequest{
		ID:       id,
		ParentID: parentID,
		Position: cli.IntFlag(cmd, "position"),
	}))
	if err != nil {
		return err
	}
	return printItem(c, f, res.Result, "moved")
}

func itemDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <item-id>",
		Short: "Delete a hierarchy item with its whole branch",
		Args:  cobra.ExactArgs(1),
		RunE:  cli.Run(runItemDelete),
	}
	cli.AddOutputFlags(cmd)
	return cmd
}

func runItemDelete(c *cli.CLI, f *cli.OutputFormatter, cmd *cobra.Command, args []string) error {
	id, err := cli.ParseID("item ID", args[0])
	if err != nil {
		return err
	}
	res, err := cli.Checked(c.App.CustomFieldService.DeleteItem(c.Context(), id))
	if err != nil {
		return err
	}

	ids := make([]int, len(res.Result))
	for i, item := range res.Result {
		ids[i] = item.ID
	}
	return f.Print("items", res.Result, ids, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "%s Deleted item %d and %d descendant(s)\n",
			styles.SuccessStyle.Render("✓"), id, len(res.Result)-1)
		return err
	})
}

func itemFormatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "format <item-id>",
		Short: "Print the path of a hierarchy item",
		Long: `Print the labels from the top of the tree down to the item, e.g.
"Europe / Germany / Berlin (BER)". --depth keeps only the last segments.`,
		Args: cobra.ExactArgs(1),
		RunE: cli.Run(runItemFormat),
	}
	cmd.Flags().Int("depth", -1, "Number of trailing segments to keep (-1 = all)")
	cli.AddOutputFlags(cmd)
	return cmd
}

func runItemFormat(c *cli.CLI, f *cli.OutputFormatter, cmd *cobra.Command, args []string) error {
	id, err := cli.ParseID("item ID", args[0])
	if err != nil {
		return err
	}
	depth, _ := cmd.Flags().GetInt("depth")

	path, err := c.App.CustomFieldService.FormatItem(c.Context(), id, depth)
	if err != nil {
		return err
	}
	return f.Print("path", path, []int{id}, func(w io.Writer) error {
		_, err := fmt.Fprintln(w, path)
		return err
	})
}

// printItem reports an item change with its full path
func printItem(c *cli.CLI, f *cli.OutputFormatter, item *models.HierarchyItem, verb string) error {
	path, err := c.App.CustomFieldService.FormatItem(c.Context(), item.ID, -1)
	if err != nil {
		return err
	}
	return f.Success("item", item, item.ID, fmt.Sprintf("Item %d %s: %s", item.ID, verb, path))
}
