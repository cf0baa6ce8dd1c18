// Package daemoncmd holds the cli commands for the event daemon
//
// e.g., op daemon ...
package daemoncmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/kianm04/OpenProjectEkster-sub016/internal/cli"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/cli/styles"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/events"
)

const statusTimeout = 500 * time.Millisecond

// DaemonCmd returns the daemon parent command
func DaemonCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Inspect the event daemon",
		Long: `Inspect the event daemon (op-daemon). While it runs, changes made by
any op process are broadcast to subscribers and delivered to webhooks.`,
	}
	cmd.AddCommand(statusCmd())
	return cmd
}

type status struct {
	Running     bool   `json:"running"`
	Socket      string `json:"socket"`
	MetricsAddr string `json:"metrics_addr,omitempty"`
	Error       string `json:"error,omitempty"`
	Hint        string `json:"hint,omitempty"`
}

func statusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Report whether the daemon accepts connections",
		RunE: func(cmd *cobra.Command, args []string) error {
			f := cli.NewFormatter(cmd)
			cfg, err := cli.LoadConfig(cmd)
			if err != nil {
				return f.Fail(err)
			}

			st := probe(cmd.Context(), cfg.Socket)
			st.MetricsAddr = cfg.Daemon.MetricsAddr
			return f.Print("daemon", st, nil, func(w io.Writer) error {
				state := styles.ErrorStyle.Render("not running")
				if st.Running {
					state = styles.SuccessStyle.Render("running")
				}
				fmt.Fprintln(w, styles.Field("Daemon", state))
				fmt.Fprintln(w, styles.Field("Socket", st.Socket))
				if st.MetricsAddr != "" {
					fmt.Fprintln(w, styles.Field("Metrics", "http://"+st.MetricsAddr+"/metrics"))
				}
				if st.Error != "" {
					fmt.Fprintln(w, styles.WarningStyle.Render(st.Error)+" "+styles.SubtitleStyle.Render(st.Hint))
				}
				return nil
			})
		},
	}
	cli.AddOutputFlags(cmd)
	return cmd
}

// probe connects to the daemon socket once
func probe(ctx context.Context, socket string) status {
	st := status{Socket: socket}
	if ctx == nil {
		ctx = context.Background()
	}
	client, err := events.NewClient(socket)
	if err != nil {
		return st.failed(err)
	}
	defer func() { _ = client.Close() }()

	dialCtx, cancel := context.WithTimeout(ctx, statusTimeout)
	defer cancel()
	if err := client.Connect(dialCtx); err != nil {
		return st.failed(err)
	}
	st.Running = true
	return st
}

func (st status) failed(err error) status {
	daemonErr := events.ClassifyDaemonError(err)
	st.Error = daemonErr.Message
	st.Hint = daemonErr.Hint
	return st
}
