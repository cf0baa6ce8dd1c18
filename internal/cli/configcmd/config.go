// Package configcmd holds the cli commands for the op config file
//
// e.g., op config ...
package configcmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/kianm04/OpenProjectEkster-sub016/internal/cli"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/cli/styles"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/config"
)

// ConfigCmd returns the config parent command. Its subcommands work
// without opening the database.
func ConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change settings",
		Long: `Show or change settings. Settings come from the config file, then
OP_ environment variables (e.g. OP_DATABASE, OP_WEBHOOKS_TIMEOUT).

Keys: database, socket, user, log.level, log.file, daemon.metrics_addr,
webhooks.timeout, webhooks.rate, webhooks.burst, theme.preset`,
	}

	cmd.AddCommand(showCmd())
	cmd.AddCommand(pathCmd())
	cmd.AddCommand(setCmd())

	return cmd
}

// run loads the config and reports failures like the other commands
func run(fn func(cfg *config.Config, f *cli.OutputFormatter, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		f := cli.NewFormatter(cmd)
		cfg, err := cli.LoadConfig(cmd)
		if err != nil {
			return f.Fail(err)
		}
		if err := fn(cfg, f, args); err != nil {
			return f.Fail(err)
		}
		return nil
	}
}

func showCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective settings",
		RunE: run(func(cfg *config.Config, f *cli.OutputFormatter, args []string) error {
			raw, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("failed to encode config: %w", err)
			}
			// Round trip through yaml so JSON keys and durations match the file
			var settings map[string]any
			if err := yaml.Unmarshal(raw, &settings); err != nil {
				return fmt.Errorf("failed to encode config: %w", err)
			}
			return f.Print("config", settings, nil, func(w io.Writer) error {
				fmt.Fprintln(w, styles.SubtitleStyle.Render("# "+cfg.Path()))
				_, err := w.Write(raw)
				return err
			})
		}),
	}
	cli.AddOutputFlags(cmd)
	return cmd
}

func pathCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		RunE: run(func(cfg *config.Config, f *cli.OutputFormatter, args []string) error {
			return f.Print("path", cfg.Path(), nil, func(w io.Writer) error {
				_, err := fmt.Fprintln(w, cfg.Path())
				return err
			})
		}),
	}
	cli.AddOutputFlags(cmd)
	return cmd
}

func setCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change a setting in the config file",
		Long: `Change a setting in the config file.

Examples:
  op config set user alice
  op config set webhooks.timeout 30s
  op config set webhooks.rate 2
  op config set theme.preset monochrome
`,
		Args: cobra.ExactArgs(2),
		RunE: run(func(cfg *config.Config, f *cli.OutputFormatter, args []string) error {
			key, value := args[0], args[1]
			if err := cfg.Set(key, value); err != nil {
				return cli.UsageError("%v", err)
			}
			if err := cfg.Save(); err != nil {
				return err
			}
			data := map[string]string{"key": key, "value": value}
			return f.Print("setting", data, nil, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "%s %s = %s\n", styles.SuccessStyle.Render("✓"), key, value)
				return err
			})
		}),
	}
	cli.AddOutputFlags(cmd)
	return cmd
}
