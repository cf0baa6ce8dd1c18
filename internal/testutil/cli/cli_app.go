package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/spf13/cobra"

	"github.com/kianm04/OpenProjectEkster-sub016/internal/app"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/cli"
)

// Output holds what a command wrote
type Output struct {
	Stdout string
	Stderr string
}

// ExecuteCLICommand runs cmd with args against testApp and returns stdout.
// cmd is mounted under a root carrying the global flags, so args may
// include --user.
func ExecuteCLICommand(t *testing.T, testApp *app.App, cmd *cobra.Command, args []string) (string, error) {
	t.Helper()
	out, err := ExecuteCLICommandWithContext(t, context.Background(), testApp, cmd, args)
	return out.Stdout, err
}

// ExecuteCLICommandWithContext executes a CLI command with a specific
// context and test app
func ExecuteCLICommandWithContext(t *testing.T, ctx context.Context, testApp *app.App, cmd *cobra.Command, args []string) (Output, error) {
	t.Helper()

	if testApp == nil {
		t.Fatal("testApp cannot be nil - SetupCLITest must be called first")
	}

	root := &cobra.Command{Use: "op"}
	cli.AddGlobalFlags(root)
	root.AddCommand(cmd)
	root.SetArgs(append([]string{cmd.Name()}, args...))

	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)

	// Disable usage output on error for cleaner test output
	root.SilenceUsage = true
	root.SilenceErrors = true

	err := root.ExecuteContext(cli.WithApp(ctx, testApp))
	return Output{Stdout: stdout.String(), Stderr: stderr.String()}, err
}

// ParseJSON parses JSON output from CLI commands
func ParseJSON(t *testing.T, output string) map[string]any {
	t.Helper()

	var result map[string]any
	if err := json.Unmarshal([]byte(output), &result); err != nil {
		t.Fatalf("Failed to parse JSON output: %v\nOutput: %s", err, output)
	}

	return result
}
