package webhook

import (
	"context"
	"strconv"
	"strings"
	"testing"

	"github.com/kianm04/OpenProjectEkster-sub016/internal/cli"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/database"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/models"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/testutil"
	cliutil "github.com/kianm04/OpenProjectEkster-sub016/internal/testutil/cli"
)

// ============================================================================
// Create Tests
// ============================================================================

func TestCreate_ForProject(t *testing.T) {
	repo, app := cliutil.SetupCLITest(t)
	p := testutil.CreateTestProject(t, repo, "apollo")

	out, err := cliutil.ExecuteCLICommand(t, app, WebhookCmd(), []string{
		"create", "--name", "ci", "--url", "https://ci.example.com/hook",
		"--event", models.EventWorkPackageUpdated, "--project", "apollo", "--secret", "s3cret", "--json",
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	w := cliutil.ParseJSON(t, out)["webhook"].(map[string]any)
	if w["enabled"] != true || w["all_projects"] != false {
		t.Errorf("Unexpected webhook: %v", w)
	}
	projects := w["project_ids"].([]any)
	if len(projects) != 1 || int(projects[0].(float64)) != p.ID {
		t.Errorf("project_ids = %v, want [%d]", projects, p.ID)
	}
	if _, ok := w["secret"]; ok {
		t.Error("The secret must not be printed")
	}
}

func TestCreate_Invalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code int
	}{
		{"bad url", []string{"--url", "ftp://example.com", "--event", models.EventProjectCreated, "--all-projects"}, cli.ExitValidation},
		{"unknown event", []string{"--url", "https://example.com", "--event", "project:exploded", "--all-projects"}, cli.ExitValidation},
		{"no projects", []string{"--url", "https://example.com", "--event", models.EventProjectCreated}, cli.ExitValidation},
		{"unknown project", []string{"--url", "https://example.com", "--event", models.EventProjectCreated, "--project", "nope"}, cli.ExitNotFound},
		{"non-admin", []string{"--url", "https://example.com", "--event", models.EventProjectCreated, "--all-projects", "--user", "alice"}, cli.ExitValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, app := cliutil.SetupCLITest(t)
			testutil.CreateTestUser(t, repo, "alice")

			_, err := cliutil.ExecuteCLICommand(t, app, WebhookCmd(), append([]string{"create", "--name", "hook"}, tt.args...))
			if code := cli.ExitCode(err); code != tt.code {
				t.Errorf("Expected exit code %d, got %d (%v)", tt.code, code, err)
			}
		})
	}
}

// ============================================================================
// Manage Tests
// ============================================================================

type runFunc func(args ...string) (string, error)

// createHook creates an all-projects webhook and returns its ID with a
// runner bound to the same app
func createHook(t *testing.T, args ...string) (*database.Repository, int, runFunc) {
	t.Helper()
	repo, app := cliutil.SetupCLITest(t)
	run := func(args ...string) (string, error) {
		return cliutil.ExecuteCLICommand(t, app, WebhookCmd(), args)
	}
	out, err := run(append([]string{"create", "--name", "audit", "--url", "https://audit.example.com",
		"--event", models.EventProjectCreated, "--all-projects", "--quiet"}, args...)...)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	id, err := strconv.Atoi(strings.TrimSpace(out))
	if err != nil {
		t.Fatalf("Expected an ID, got %q", out)
	}
	return repo, id, run
}

func TestEnableDisable(t *testing.T) {
	_, id, run := createHook(t, "--disabled")
	ref := strconv.Itoa(id)

	out, err := run("list")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if !strings.Contains(out, "audit") || !strings.Contains(out, "all projects") {
		t.Errorf("Unexpected list output:\n%s", out)
	}

	out, err = run("enable", ref, "--json")
	if err != nil {
		t.Fatalf("enable failed: %v", err)
	}
	if cliutil.ParseJSON(t, out)["webhook"].(map[string]any)["enabled"] != true {
		t.Errorf("Expected the webhook to be enabled: %s", out)
	}

	// Enabling twice is a no-op success
	if _, err := run("enable", ref); err != nil {
		t.Errorf("second enable failed: %v", err)
	}

	out, err = run("disable", ref)
	if err != nil {
		t.Fatalf("disable failed: %v", err)
	}
	if !strings.Contains(out, "Webhook "+ref+" disabled") {
		t.Errorf("Unexpected disable output: %s", out)
	}
}

func TestDelete(t *testing.T) {
	_, id, run := createHook(t)

	if _, err := run("delete", strconv.Itoa(id)); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	_, err := run("delete", strconv.Itoa(id))
	if code := cli.ExitCode(err); code != cli.ExitNotFound {
		t.Errorf("Expected exit code %d, got %d", cli.ExitNotFound, code)
	}
}

func TestLogs(t *testing.T) {
	repo, id, run := createHook(t)
	ref := strconv.Itoa(id)

	for i, code := range []int{200, 500} {
		_, err := repo.CreateWebhookLog(context.Background(), &models.WebhookLog{
			WebhookID:    id,
			DeliveryID:   "delivery-" + strconv.Itoa(i),
			Event:        models.EventProjectCreated,
			URL:          "https://audit.example.com",
			RequestBody:  `{"action":"project:created"}`,
			ResponseCode: code,
		})
		if err != nil {
			t.Fatalf("Failed to create log: %v", err)
		}
	}

	out, err := run("logs", ref, "--body")
	if err != nil {
		t.Fatalf("logs failed: %v", err)
	}
	for _, want := range []string{"200", "500", "delivery-0", `{"action":"project:created"}`} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in output:\n%s", want, out)
		}
	}

	out, err = run("logs", ref, "--limit", "1", "--quiet")
	if err != nil {
		t.Fatalf("logs failed: %v", err)
	}
	if len(strings.Fields(out)) != 1 {
		t.Errorf("Expected one log, got %q", out)
	}

	_, err = run("logs", ref, "--limit", "0")
	if code := cli.ExitCode(err); code != cli.ExitUsage {
		t.Errorf("Expected exit code %d, got %d", cli.ExitUsage, code)
	}
}
