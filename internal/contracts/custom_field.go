package contracts

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/kianm04/OpenProjectEkster-sub016/internal/hierarchy"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/models"
)

type customFieldAttributes struct {
	Name      string `attr:"name" validate:"required,max=255"`
	Format    string `attr:"field_format" validate:"required,fieldformat"`
	MinLength int    `attr:"min_length" validate:"gte=0"`
	MaxLength int    `attr:"max_length" validate:"gte=0"`
}

// CustomFieldContract checks custom field definitions (admins only)
type CustomFieldContract struct {
	User      *models.Principal
	NameTaken bool
}

// Validate checks a new custom field
func (c CustomFieldContract) Validate(cf *models.CustomField) *Errors {
	if !c.User.Allowed(models.PermissionManageCustomFields, 0) {
		return single(AttrBase, CodeUnauthorized)
	}
	errs := validateStruct(customFieldAttributes{
		Name:      cf.Name,
		Format:    string(cf.Format),
		MinLength: cf.MinLength,
		MaxLength: cf.MaxLength,
	})
	if c.NameTaken {
		errs.Add("name", CodeTaken)
	}
	if cf.MaxLength > 0 && cf.MinLength > cf.MaxLength {
		errs.Add("max_length", CodeInvalid)
	}
	if cf.Regexp != "" {
		if _, err := regexp.Compile(cf.Regexp); err != nil {
			errs.Add("regexp", CodeInvalid)
		}
	}
	if cf.Format == models.FormatList {
		if len(cf.PossibleValues) == 0 {
			errs.Add("possible_values", CodeBlank)
		}
		seen := make(map[string]bool, len(cf.PossibleValues))
		for _, v := range cf.PossibleValues {
			if strings.TrimSpace(v) == "" {
				errs.Add("possible_values", CodeBlank)
			}
			if seen[v] {
				errs.Add("possible_values", CodeTaken)
			}
			seen[v] = true
		}
	}
	return errs
}

// DateLayout is the wire format of date custom values
const DateLayout = "2006-01-02"

// CustomValueContract checks a value against its field definition.
// Tree is required for hierarchy fields.
type CustomValueContract struct {
	Field *models.CustomField
	Tree  *hierarchy.Tree
}

// Attribute names the errors of a field's value
func (c CustomValueContract) Attribute() string {
	return fmt.Sprintf("custom_field_%d", c.Field.ID)
}

// Validate checks value. An empty value is only rejected for required
// fields.
func (c CustomValueContract) Validate(value string) *Errors {
	errs := NewErrors()
	attr := c.Attribute()
	cf := c.Field

	if strings.TrimSpace(value) == "" {
		if cf.Required {
			errs.Add(attr, CodeBlank)
		}
		return errs
	}

	switch cf.Format {
	case models.FormatString, models.FormatText:
		length := utf8.RuneCountInString(value)
		if cf.MinLength > 0 && length < cf.MinLength {
			errs.Add(attr, CodeTooShort)
		}
		if cf.MaxLength > 0 && length > cf.MaxLength {
			errs.Add(attr, CodeTooLong)
		}
		if cf.Format == models.FormatString && strings.ContainsAny(value, "\r\n") {
			errs.Add(attr, CodeInvalid)
		}
		if cf.Regexp != "" {
			re, err := regexp.Compile(cf.Regexp)
			if err != nil || !re.MatchString(value) {
				errs.Add(attr, CodeInvalid)
			}
		}
	case models.FormatInt:
		if _, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err != nil {
			errs.Add(attr, CodeInvalid)
		}
	case models.FormatFloat:
		if _, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err != nil {
			errs.Add(attr, CodeInvalid)
		}
	case models.FormatBool:
		if _, err := strconv.ParseBool(value); err != nil {
			errs.Add(attr, CodeInvalid)
		}
	case models.FormatDate:
		if _, err := time.Parse(DateLayout, value); err != nil {
			errs.Add(attr, CodeInvalid)
		}
	case models.FormatList:
		found := false
		for _, v := range cf.PossibleValues {
			if v == value {
				found = true
				break
			}
		}
		if !found {
			errs.Add(attr, CodeInclusion)
		}
	case models.FormatHierarchy:
		id, err := strconv.Atoi(value)
		if err != nil || c.Tree == nil {
			errs.Add(attr, CodeInvalid)
			break
		}
		item, ok := c.Tree.Get(id)
		if !ok || item.CustomFieldID != cf.ID || item.IsRoot() {
			errs.Add(attr, CodeInclusion)
		}
	default:
		errs.Add(attr, CodeInvalid)
	}
	return errs
}
