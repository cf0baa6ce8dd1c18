package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/kianm04/OpenProjectEkster-sub016/internal/app"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/cli/styles"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/config"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/events"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/logging"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/models"
)

// daemonDialTimeout bounds the optional daemon connection
const daemonDialTimeout = 200 * time.Millisecond

type appKey struct{}

// WithApp returns a context carrying a prepared App. Commands run with
// such a context use it instead of opening the configured database.
func WithApp(ctx context.Context, a *app.App) context.Context {
	return context.WithValue(ctx, appKey{}, a)
}

// CLI represents the CLI application context
type CLI struct {
	App       *app.App // Application container with services
	Config    *config.Config
	Principal *models.Principal

	ctx    context.Context
	owned  bool // App was opened here and is closed by Close
	logOut io.Closer
}

// NewCLI opens the configured database, connects to the daemon when it is
// running and resolves the acting user
func NewCLI(ctx context.Context, cfg *config.Config, login string) (*CLI, error) {
	logOut, err := logging.Init(cfg.Log)
	if err != nil {
		return nil, err
	}

	// Try to connect to daemon (optional - silent fallback)
	var eventClient events.EventPublisher
	if client, err := events.NewClient(cfg.Socket); err == nil {
		dialCtx, cancel := context.WithTimeout(ctx, daemonDialTimeout)
		if err := client.Connect(dialCtx); err == nil {
			eventClient = client
		} else {
			daemonErr := events.ClassifyDaemonError(err)
			slog.Debug("daemon not reachable, events disabled", "socket", cfg.Socket, "reason", daemonErr.Message, "hint", daemonErr.Hint)
		}
		cancel()
	}

	opts := []app.Option{app.WithLogger(logging.Logger)}
	if eventClient != nil {
		opts = append(opts, app.WithEventPublisher(eventClient))
	}
	application, err := app.Open(ctx, cfg.Database, opts...)
	if err != nil {
		if eventClient != nil {
			_ = eventClient.Close()
		}
		_ = logOut.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	c, err := newCLI(ctx, application, cfg, login)
	if err != nil {
		_ = application.Close()
		_ = logOut.Close()
		return nil, err
	}
	c.owned = true
	c.logOut = logOut
	return c, nil
}

func newCLI(ctx context.Context, a *app.App, cfg *config.Config, login string) (*CLI, error) {
	if login == "" {
		login = cfg.User
	}
	actCtx, principal, err := a.ActAs(ctx, login)
	if err != nil {
		return nil, err
	}
	styles.Init(cfg.Theme)
	return &CLI{App: a, Config: cfg, Principal: principal, ctx: actCtx}, nil
}

// FromCommand builds the CLI for a running command. The --config and
// --user flags are honoured when the command tree defines them.
func FromCommand(cmd *cobra.Command) (*CLI, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	login, _ := cmd.Flags().GetString("user")

	if a, ok := ctx.Value(appKey{}).(*app.App); ok {
		cfg := config.Default()
		return newCLI(ctx, a, cfg, login)
	}

	cfg, err := LoadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return NewCLI(ctx, cfg, login)
}

// LoadConfig loads the file named by --config, or the default one
func LoadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.Load(path)
}

// Context returns the command context acting as the resolved user
func (c *CLI) Context() context.Context {
	return c.ctx
}

// Close cleans up CLI resources
func (c *CLI) Close() error {
	if !c.owned {
		return nil
	}
	err := c.App.Close()
	if c.logOut != nil {
		_ = c.logOut.Close()
	}
	return err
}

// Setup is the common prologue of every command: it builds the
// formatter from --json/--quiet and the CLI. A setup failure has
// already been reported when the returned error is non-nil.
func Setup(cmd *cobra.Command) (*CLI, *OutputFormatter, error) {
	f := NewFormatter(cmd)
	c, err := FromCommand(cmd)
	if err != nil {
		return nil, f, f.Fail(err)
	}
	return c, f, nil
}

// Run wraps a command body with Setup and Close and reports the
// body's error through the formatter
func Run(fn func(c *CLI, f *OutputFormatter, cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		c, f, err := Setup(cmd)
		if err != nil {
			return err
		}
		defer func() {
			if err := c.Close(); err != nil {
				slog.Error("failed to close CLI", "error", err)
			}
		}()
		if err := fn(c, f, cmd, args); err != nil {
			return f.Fail(err)
		}
		return nil
	}
}

// AddOutputFlags adds the agent-friendly --json and --quiet flags
func AddOutputFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("json", false, "Output in JSON format")
	cmd.Flags().Bool("quiet", false, "Minimal output (IDs only)")
}

// AddGlobalFlags adds the persistent --config and --user flags
func AddGlobalFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().String("config", "", "Config file (default $XDG_CONFIG_HOME/op/config.yaml)")
	cmd.PersistentFlags().String("user", "", "Login to act as (default from config)")
}
