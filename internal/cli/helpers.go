package cli

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kianm04/OpenProjectEkster-sub016/internal/models"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/result"
)

// Checked turns a rejected ServiceResult into its contract errors so
// callers handle both failure kinds through one error
func Checked[T any](res *result.ServiceResult[T], err error) (*result.ServiceResult[T], error) {
	if err != nil {
		return nil, err
	}
	if res.Failure() {
		return nil, res.Err()
	}
	return res, nil
}

// ParseID parses a positive integer argument
func ParseID(what, s string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || id <= 0 {
		return 0, UsageError("%s must be a positive integer, got %q", what, s)
	}
	return id, nil
}

// ParseDate parses a YYYY-MM-DD date as UTC midnight
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, UsageError("invalid date %q (expected YYYY-MM-DD)", s)
	}
	return d, nil
}

// DateFlag returns the parsed date flag, or nil when it was not given
func DateFlag(cmd *cobra.Command, name string) (*time.Time, error) {
	if !cmd.Flags().Changed(name) {
		return nil, nil
	}
	raw, _ := cmd.Flags().GetString(name)
	d, err := ParseDate(raw)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// IntFlag returns the int flag, or nil when it was not given
func IntFlag(cmd *cobra.Command, name string) *int {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, _ := cmd.Flags().GetInt(name)
	return &v
}

// StringFlag returns the string flag, or nil when it was not given
func StringFlag(cmd *cobra.Command, name string) *string {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, _ := cmd.Flags().GetString(name)
	return &v
}

// BoolFlag returns the bool flag, or nil when it was not given
func BoolFlag(cmd *cobra.Command, name string) *bool {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, _ := cmd.Flags().GetBool(name)
	return &v
}

// ResolveProject finds a project by numeric ID or identifier
func (c *CLI) ResolveProject(ctx context.Context, ref string) (*models.Project, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, UsageError("a project ID or identifier is required")
	}
	if id, err := strconv.Atoi(ref); err == nil {
		return c.App.ProjectService.GetProjectByID(ctx, id)
	}
	return c.App.ProjectService.GetProjectByIdentifier(ctx, ref)
}

// ResolveUser finds a user by login
func (c *CLI) ResolveUser(ctx context.Context, login string) (*models.User, error) {
	if strings.TrimSpace(login) == "" {
		return nil, UsageError("a user login is required")
	}
	return c.App.AccountService.GetUserByLogin(ctx, login)
}

// OrDash renders an empty string as "-"
func OrDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
