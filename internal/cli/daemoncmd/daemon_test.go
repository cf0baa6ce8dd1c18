package daemoncmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"

	"github.com/kianm04/OpenProjectEkster-sub016/internal/cli"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/testutil"
)

func runStatus(t *testing.T, socket string) map[string]any {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("socket: "+socket+"\nlog:\n  file: "+filepath.Join(dir, "op.log")+"\n"), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	root := &cobra.Command{Use: "op", SilenceUsage: true, SilenceErrors: true}
	cli.AddGlobalFlags(root)
	root.AddCommand(DaemonCmd())
	root.SetArgs([]string{"daemon", "status", "--config", path, "--json"})
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("status failed: %v", err)
	}

	var parsed map[string]any
	if err := json.Unmarshal(out.Bytes(), &parsed); err != nil {
		t.Fatalf("Failed to parse output %q: %v", out.String(), err)
	}
	return parsed["daemon"].(map[string]any)
}

func TestStatus_Running(t *testing.T) {
	_, socket := testutil.SetupTestDaemon(t)

	st := runStatus(t, socket)
	if st["running"] != true {
		t.Errorf("Expected a running daemon, got %v", st)
	}
}

func TestStatus_NotRunning(t *testing.T) {
	st := runStatus(t, filepath.Join(t.TempDir(), "missing.sock"))
	if st["running"] != false {
		t.Errorf("Expected no daemon, got %v", st)
	}
	if st["error"] != "Socket file not found" || st["hint"] == nil {
		t.Errorf("Expected the missing socket to be reported, got %v", st)
	}
}
