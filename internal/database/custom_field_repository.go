package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kianm04/OpenProjectEkster-sub016/internal/hierarchy"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/models"
)

// CustomFieldRepo handles custom field definitions, hierarchy items and
// the values stored on work packages
type CustomFieldRepo struct {
	db querier
}

type customFieldRow struct {
	ID             int    `db:"id"`
	Name           string `db:"name"`
	Format         string `db:"field_format"`
	Required       bool   `db:"is_required"`
	MinLength      int    `db:"min_length"`
	MaxLength      int    `db:"max_length"`
	Regexp         string `db:"regexp"`
	PossibleValues string `db:"possible_values"`
}

func (row customFieldRow) toModel() (*models.CustomField, error) {
	cf := &models.CustomField{
		ID:        row.ID,
		Name:      row.Name,
		Format:    models.FieldFormat(row.Format),
		Required:  row.Required,
		MinLength: row.MinLength,
		MaxLength: row.MaxLength,
		Regexp:    row.Regexp,
	}
	if err := json.Unmarshal([]byte(row.PossibleValues), &cf.PossibleValues); err != nil {
		return nil, fmt.Errorf("failed to decode possible values of custom field %d: %w", row.ID, err)
	}
	return cf, nil
}

const customFieldColumns = `id, name, field_format, is_required, min_length, max_length, regexp, possible_values`

// CreateCustomField inserts a field. Hierarchy fields get their root
// item in the same call.
func (r *CustomFieldRepo) CreateCustomField(ctx context.Context, cf *models.CustomField) (*models.CustomField, error) {
	values := cf.PossibleValues
	if values == nil {
		values = []string{}
	}
	encoded, err := json.Marshal(values)
	if err != nil {
		return nil, fmt.Errorf("failed to encode possible values: %w", err)
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO custom_fields (name, field_format, is_required, min_length, max_length, regexp, possible_values)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		cf.Name, string(cf.Format), boolToInt(cf.Required), cf.MinLength, cf.MaxLength, cf.Regexp, string(encoded),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert custom field '%s': %w", cf.Name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get custom field ID after insert: %w", err)
	}
	if cf.Format == models.FormatHierarchy {
		if _, err := r.db.ExecContext(ctx,
			`INSERT INTO hierarchy_items (custom_field_id, parent_id, label, short, position) VALUES (?, NULL, NULL, NULL, 0)`,
			id); err != nil {
			return nil, fmt.Errorf("failed to create root item of custom field %d: %w", id, err)
		}
	}
	return r.GetCustomFieldByID(ctx, int(id))
}

// GetCustomFieldByID retrieves a field by ID
func (r *CustomFieldRepo) GetCustomFieldByID(ctx context.Context, id int) (*models.CustomField, error) {
	var row customFieldRow
	if err := r.db.GetContext(ctx, &row, `SELECT `+customFieldColumns+` FROM custom_fields WHERE id = ?`, id); err != nil {
		return nil, notFound(err, "custom field", id)
	}
	return row.toModel()
}

// ListCustomFields returns every field ordered by name
func (r *CustomFieldRepo) ListCustomFields(ctx context.Context) ([]*models.CustomField, error) {
	var rows []customFieldRow
	if err := r.db.SelectContext(ctx, &rows, `SELECT `+customFieldColumns+` FROM custom_fields ORDER BY name`); err != nil {
		return nil, fmt.Errorf("failed to list custom fields: %w", err)
	}
	out := make([]*models.CustomField, 0, len(rows))
	for _, row := range rows {
		cf, err := row.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, cf)
	}
	return out, nil
}

// CustomFieldNameTaken reports whether a field already uses name
func (r *CustomFieldRepo) CustomFieldNameTaken(ctx context.Context, name string) (bool, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM custom_fields WHERE name = ?`, name); err != nil {
		return false, fmt.Errorf("failed to check custom field name '%s': %w", name, err)
	}
	return count > 0, nil
}

// DeleteCustomField removes a field with its items and values (cascade)
func (r *CustomFieldRepo) DeleteCustomField(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM custom_fields WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete custom field %d: %w", id, err)
	}
	return requireAffected(res, "custom field", id)
}

// ============================================================================
// HIERARCHY ITEMS
// ============================================================================

const hierarchyItemColumns = `id, custom_field_id, parent_id, label, short, position`

// ListHierarchyItems returns every item of a field
func (r *CustomFieldRepo) ListHierarchyItems(ctx context.Context, fieldID int) ([]*models.HierarchyItem, error) {
	items := make([]*models.HierarchyItem, 0)
	err := r.db.SelectContext(ctx, &items,
		`SELECT `+hierarchyItemColumns+` FROM hierarchy_items WHERE custom_field_id = ? ORDER BY id`, fieldID)
	if err != nil {
		return nil, fmt.Errorf("failed to list hierarchy items of custom field %d: %w", fieldID, err)
	}
	return items, nil
}

// GetHierarchyItemByID retrieves an item by ID
func (r *CustomFieldRepo) GetHierarchyItemByID(ctx context.Context, id int) (*models.HierarchyItem, error) {
	item := &models.HierarchyItem{}
	if err := r.db.GetContext(ctx, item, `SELECT `+hierarchyItemColumns+` FROM hierarchy_items WHERE id = ?`, id); err != nil {
		return nil, notFound(err, "hierarchy item", id)
	}
	return item, nil
}

// InsertHierarchyItem stores a new non-root item and returns its ID
func (r *CustomFieldRepo) InsertHierarchyItem(ctx context.Context, item *models.HierarchyItem) (int, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO hierarchy_items (custom_field_id, parent_id, label, short, position) VALUES (?, ?, ?, ?, ?)`,
		item.CustomFieldID, intPtrValue(item.ParentID), item.Label, item.Short, item.Position,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert hierarchy item '%s': %w", item.LabelText(), err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get hierarchy item ID after insert: %w", err)
	}
	return int(id), nil
}

// UpdateHierarchyItem stores a new label and short
func (r *CustomFieldRepo) UpdateHierarchyItem(ctx context.Context, id int, label string, short *string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE hierarchy_items SET label = ?, short = ? WHERE id = ?`, label, short, id)
	if err != nil {
		return fmt.Errorf("failed to update hierarchy item %d: %w", id, err)
	}
	return requireAffected(res, "hierarchy item", id)
}

// ApplyPlacements stores the parent and position of every placement
func (r *CustomFieldRepo) ApplyPlacements(ctx context.Context, placements []hierarchy.Placement) error {
	for _, p := range placements {
		_, err := r.db.ExecContext(ctx,
			`UPDATE hierarchy_items SET parent_id = ?, position = ? WHERE id = ?`,
			p.ParentID, p.Position, p.ItemID,
		)
		if err != nil {
			return fmt.Errorf("failed to place hierarchy item %d: %w", p.ItemID, err)
		}
	}
	return nil
}

// DeleteHierarchyItems removes the given items together with the custom
// values pointing at them
func (r *CustomFieldRepo) DeleteHierarchyItems(ctx context.Context, fieldID int, ids []int) error {
	if len(ids) == 0 {
		return nil
	}
	values := make([]string, 0, len(ids))
	for _, id := range ids {
		values = append(values, fmt.Sprint(id))
	}
	query, args, err := sqlxIn(`DELETE FROM custom_values WHERE custom_field_id = ? AND value IN (?)`, fieldID, values)
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("failed to clear values of deleted hierarchy items: %w", err)
	}

	query, args, err = sqlxIn(`DELETE FROM hierarchy_items WHERE id IN (?)`, ids)
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("failed to delete hierarchy items: %w", err)
	}
	return nil
}

// ============================================================================
// CUSTOM VALUES
// ============================================================================

// SetCustomValue stores value on a work package, replacing the previous
// one. An empty value removes it.
func (r *CustomFieldRepo) SetCustomValue(ctx context.Context, v models.CustomValue) error {
	if v.Value == "" {
		_, err := r.db.ExecContext(ctx,
			`DELETE FROM custom_values WHERE custom_field_id = ? AND work_package_id = ?`,
			v.CustomFieldID, v.WorkPackageID)
		if err != nil {
			return fmt.Errorf("failed to clear custom field %d on work package %d: %w", v.CustomFieldID, v.WorkPackageID, err)
		}
		return nil
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO custom_values (custom_field_id, work_package_id, value) VALUES (?, ?, ?)
		 ON CONFLICT (custom_field_id, work_package_id) DO UPDATE SET value = excluded.value`,
		v.CustomFieldID, v.WorkPackageID, v.Value,
	)
	if err != nil {
		return fmt.Errorf("failed to set custom field %d on work package %d: %w", v.CustomFieldID, v.WorkPackageID, err)
	}
	return nil
}

// ListCustomValues returns the values stored on a work package
func (r *CustomFieldRepo) ListCustomValues(ctx context.Context, workPackageID int) ([]models.CustomValue, error) {
	values := make([]models.CustomValue, 0)
	err := r.db.SelectContext(ctx, &values,
		`SELECT custom_field_id, work_package_id, value FROM custom_values WHERE work_package_id = ? ORDER BY custom_field_id`,
		workPackageID)
	if err != nil {
		return nil, fmt.Errorf("failed to list custom values of work package %d: %w", workPackageID, err)
	}
	return values, nil
}
