package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kianm04/OpenProjectEkster-sub016/internal/contracts"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/models"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/user"
)

func newTestFormatter(jsonMode, quiet bool) (*OutputFormatter, *bytes.Buffer, *bytes.Buffer) {
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	return &OutputFormatter{JSON: jsonMode, Quiet: quiet, Out: out, ErrOut: errOut}, out, errOut
}

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var v map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &v), "output: %s", buf.String())
	return v
}

// ============================================================================
// Print Tests
// ============================================================================

func TestPrint_Modes(t *testing.T) {
	data := map[string]any{"subject": "Pour concrete"}
	human := func(w io.Writer) error {
		_, err := fmt.Fprintln(w, "human output")
		return err
	}

	t.Run("json", func(t *testing.T) {
		f, out, _ := newTestFormatter(true, false)
		require.NoError(t, f.Print("work_package", data, []int{7}, human))

		v := decode(t, out)
		assert.Equal(t, true, v["success"])
		assert.Equal(t, "Pour concrete", v["work_package"].(map[string]any)["subject"])
	})

	t.Run("quiet", func(t *testing.T) {
		f, out, _ := newTestFormatter(false, true)
		require.NoError(t, f.Print("work_packages", data, []int{7, 9}, human))
		assert.Equal(t, "7\n9\n", out.String())
	})

	t.Run("json wins over quiet", func(t *testing.T) {
		f, out, _ := newTestFormatter(true, true)
		require.NoError(t, f.Print("work_package", data, []int{7}, human))
		assert.Equal(t, true, decode(t, out)["success"])
	})

	t.Run("human", func(t *testing.T) {
		f, out, _ := newTestFormatter(false, false)
		require.NoError(t, f.Print("work_package", data, []int{7}, human))
		assert.Equal(t, "human output\n", out.String())
	})
}

func TestSuccess_Human(t *testing.T) {
	f, out, _ := newTestFormatter(false, false)
	require.NoError(t, f.Success("project", nil, 1, "Project created"))
	assert.Contains(t, out.String(), "✓")
	assert.Contains(t, out.String(), "Project created")
}

func TestPlain_BufferIsPlain(t *testing.T) {
	f, _, _ := newTestFormatter(false, false)
	assert.True(t, f.Plain())
}

// ============================================================================
// Fail Tests
// ============================================================================

func TestFail_ExitCodes(t *testing.T) {
	stale := contracts.NewErrors()
	stale.Add(contracts.AttrBase, contracts.CodeStale)
	invalid := contracts.NewErrors()
	invalid.Add("subject", contracts.CodeBlank)

	tests := []struct {
		name     string
		err      error
		wantCode string
		wantExit int
	}{
		{"contract errors", invalid, "VALIDATION_ERROR", ExitValidation},
		{"stale contract", stale, "STALE_OBJECT", ExitDataErr},
		{"wrapped not found", fmt.Errorf("failed to get work package: %w", models.ErrNotFound), "NOT_FOUND", ExitNotFound},
		{"unknown user", fmt.Errorf("%w: ghost", user.ErrUnknownUser), "NOT_FOUND", ExitNotFound},
		{"stale object", models.ErrStaleObject, "STALE_OBJECT", ExitDataErr},
		{"anything else", errors.New("disk on fire"), "ERROR", ExitError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, out, _ := newTestFormatter(true, false)
			err := f.Fail(tt.err)

			require.Error(t, err)
			assert.Equal(t, tt.wantExit, ExitCode(err))
			assert.ErrorIs(t, err, tt.err)

			v := decode(t, out)
			assert.Equal(t, false, v["success"])
			assert.Equal(t, tt.wantCode, v["error"].(map[string]any)["code"])
		})
	}
}

func TestFail_ValidationDetails(t *testing.T) {
	errs := contracts.NewErrors()
	errs.Add("subject", contracts.CodeBlank)
	errs.Add("due_date", contracts.CodeDueBeforeStart)

	f, out, _ := newTestFormatter(true, false)
	_ = f.Fail(errs)

	details := decode(t, out)["error"].(map[string]any)["details"].([]any)
	require.Len(t, details, 2)
	first := details[0].(map[string]any)
	assert.Equal(t, "subject", first["attribute"])
	assert.Equal(t, []any{"blank"}, first["codes"])
}

func TestFail_HumanGoesToErrOut(t *testing.T) {
	errs := contracts.NewErrors()
	errs.Add("subject", contracts.CodeBlank)

	f, out, errOut := newTestFormatter(false, false)
	_ = f.Fail(errs)

	assert.Empty(t, out.String())
	assert.Contains(t, errOut.String(), "Error:")
	assert.Contains(t, errOut.String(), "subject")
	assert.Contains(t, errOut.String(), "blank")
}

func TestFail_StaleSuggestsReload(t *testing.T) {
	f, _, errOut := newTestFormatter(false, false)
	_ = f.Fail(models.ErrStaleObject)
	assert.Contains(t, errOut.String(), "lock version")
}

func TestFail_UsageErrorPassesThrough(t *testing.T) {
	f, out, _ := newTestFormatter(true, false)
	usage := UsageError("--subject is required")

	err := f.Fail(usage)
	assert.Same(t, usage, err)
	assert.Equal(t, ExitUsage, ExitCode(err))
	assert.Equal(t, "USAGE_ERROR", decode(t, out)["error"].(map[string]any)["code"])
}

func TestFail_Nil(t *testing.T) {
	f, out, _ := newTestFormatter(true, false)
	assert.NoError(t, f.Fail(nil))
	assert.Empty(t, strings.TrimSpace(out.String()))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, ExitCode(nil))
	assert.Equal(t, ExitError, ExitCode(errors.New("plain")))
	assert.Equal(t, ExitNotFound, ExitCode(fmt.Errorf("wrapped: %w", &CodeError{Code: ExitNotFound, Err: models.ErrNotFound})))
}
