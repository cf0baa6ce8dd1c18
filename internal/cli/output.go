package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/kianm04/OpenProjectEkster-sub016/internal/cli/styles"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/contracts"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/models"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/user"
)

// OutputFormatter handles three output modes: JSON, quiet, and human-readable
type OutputFormatter struct {
	JSON  bool
	Quiet bool

	Out    io.Writer
	ErrOut io.Writer
}

// NewFormatter reads --json and --quiet from cmd and writes to the
// command's output streams
func NewFormatter(cmd *cobra.Command) *OutputFormatter {
	jsonOutput, _ := cmd.Flags().GetBool("json")
	quietMode, _ := cmd.Flags().GetBool("quiet")
	return &OutputFormatter{
		JSON:   jsonOutput,
		Quiet:  quietMode,
		Out:    cmd.OutOrStdout(),
		ErrOut: cmd.ErrOrStderr(),
	}
}

// Plain reports whether human output goes somewhere other than a terminal
func (f *OutputFormatter) Plain() bool {
	file, ok := f.Out.(*os.File)
	if !ok {
		return true
	}
	info, err := file.Stat()
	return err != nil || info.Mode()&os.ModeCharDevice == 0
}

// Print emits one result. JSON mode writes {"success": true, key: data},
// quiet mode writes ids one per line, and human mode calls human.
func (f *OutputFormatter) Print(key string, data any, ids []int, human func(w io.Writer) error) error {
	if f.JSON {
		return json.NewEncoder(f.Out).Encode(map[string]any{
			"success": true,
			key:       data,
		})
	}
	if f.Quiet {
		for _, id := range ids {
			if _, err := fmt.Fprintf(f.Out, "%d\n", id); err != nil {
				return err
			}
		}
		return nil
	}
	return human(f.Out)
}

// Success outputs a confirmation line in human mode
func (f *OutputFormatter) Success(key string, data any, id int, message string) error {
	return f.Print(key, data, []int{id}, func(w io.Writer) error {
		_, err := fmt.Fprintln(w, styles.SuccessStyle.Render("✓")+" "+message)
		return err
	})
}

// Error outputs error information
func (f *OutputFormatter) Error(code string, message string) error {
	return f.ErrorWithSuggestion(code, message, "")
}

// ErrorWithSuggestion outputs error information with an optional suggestion
func (f *OutputFormatter) ErrorWithSuggestion(code string, message string, suggestion string) error {
	return f.report(code, message, suggestion, nil)
}

func (f *OutputFormatter) report(code, message, suggestion string, details []contracts.FieldError) error {
	if f.JSON {
		errData := map[string]any{
			"code":    code,
			"message": message,
		}
		if suggestion != "" {
			errData["suggestion"] = suggestion
		}
		if details != nil {
			errData["details"] = details
		}
		return json.NewEncoder(f.Out).Encode(map[string]any{
			"success": false,
			"error":   errData,
		})
	}

	// Human-readable error
	fmt.Fprintf(f.ErrOut, "%s %s\n", styles.ErrorStyle.Render("Error:"), message)
	for _, d := range details {
		for _, c := range d.Codes {
			fmt.Fprintf(f.ErrOut, "  %s %s\n", styles.LabelStyle.Render(d.Attribute), c)
		}
	}
	if suggestion != "" {
		fmt.Fprintf(f.ErrOut, "%s %s\n", styles.WarningStyle.Render("Suggestion:"), suggestion)
	}
	return nil
}

// Fail reports err and returns it wrapped with the matching exit code.
// Contract failures exit with ExitValidation and list every attribute,
// stale lock versions exit with ExitDataErr and missing records exit
// with ExitNotFound.
func (f *OutputFormatter) Fail(err error) error {
	if err == nil {
		return nil
	}
	var ce *CodeError
	if errors.As(err, &ce) {
		if ce.Code == ExitUsage {
			_ = f.Error("USAGE_ERROR", err.Error())
		}
		return err
	}

	code, exit := "ERROR", ExitError
	var details []contracts.FieldError
	if errs, ok := contracts.AsErrors(err); ok {
		code, exit = "VALIDATION_ERROR", ExitValidation
		if errs.Has(contracts.AttrBase, contracts.CodeStale) {
			code, exit = "STALE_OBJECT", ExitDataErr
		}
		details = errs.Details()
	} else if errors.Is(err, models.ErrNotFound) || errors.Is(err, user.ErrUnknownUser) {
		code, exit = "NOT_FOUND", ExitNotFound
	} else if errors.Is(err, models.ErrStaleObject) {
		code, exit = "STALE_OBJECT", ExitDataErr
	}

	suggestion := ""
	if exit == ExitDataErr {
		suggestion = "reload the record and retry with its current lock version"
	}
	_ = f.report(code, err.Error(), suggestion, details)
	return &CodeError{Code: exit, Err: err}
}
