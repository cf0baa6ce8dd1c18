package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/kianm04/OpenProjectEkster-sub016/internal/models"
)

// CalendarRepo handles the working week and non-working days
type CalendarRepo struct {
	db querier
}

type nonWorkingDayRow struct {
	ID   int            `db:"id"`
	Date sql.NullString `db:"date"`
	Name string         `db:"name"`
}

// GetWeekDays returns the seven week days Monday first
func (r *CalendarRepo) GetWeekDays(ctx context.Context) ([]models.WeekDay, error) {
	weekDays := make([]models.WeekDay, 0, 7)
	if err := r.db.SelectContext(ctx, &weekDays, `SELECT day, working FROM week_days ORDER BY day`); err != nil {
		return nil, fmt.Errorf("failed to read week days: %w", err)
	}
	return weekDays, nil
}

// SetWeekDays stores the working flag of each given day
func (r *CalendarRepo) SetWeekDays(ctx context.Context, weekDays []models.WeekDay) error {
	for _, wd := range weekDays {
		_, err := r.db.ExecContext(ctx,
			`INSERT INTO week_days (day, working) VALUES (?, ?)
			 ON CONFLICT (day) DO UPDATE SET working = excluded.working`,
			wd.Day, boolToInt(wd.Working),
		)
		if err != nil {
			return fmt.Errorf("failed to store week day %d: %w", wd.Day, err)
		}
	}
	return nil
}

// ListNonWorkingDays returns non-working days ordered by date. A nil
// from or to leaves that end open.
func (r *CalendarRepo) ListNonWorkingDays(ctx context.Context, from, to *time.Time) ([]models.NonWorkingDay, error) {
	query := `SELECT id, date, name FROM non_working_days WHERE 1 = 1`
	var args []any
	if from != nil {
		query += ` AND date >= ?`
		args = append(args, formatDate(from))
	}
	if to != nil {
		query += ` AND date <= ?`
		args = append(args, formatDate(to))
	}
	query += ` ORDER BY date`

	var rows []nonWorkingDayRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list non-working days: %w", err)
	}
	out := make([]models.NonWorkingDay, 0, len(rows))
	for _, row := range rows {
		date, err := parseDate(row.Date)
		if err != nil {
			return nil, err
		}
		nwd := models.NonWorkingDay{ID: row.ID, Name: row.Name}
		if date != nil {
			nwd.Date = *date
		}
		out = append(out, nwd)
	}
	return out, nil
}

// AddNonWorkingDay inserts a non-working day
func (r *CalendarRepo) AddNonWorkingDay(ctx context.Context, nwd models.NonWorkingDay) (*models.NonWorkingDay, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO non_working_days (date, name) VALUES (?, ?)`, formatDate(&nwd.Date), nwd.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to insert non-working day %s: %w", nwd.Date.Format(dateLayout), err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get non-working day ID after insert: %w", err)
	}
	nwd.ID = int(id)
	nwd.Date = models.Date(nwd.Date)
	return &nwd, nil
}

// GetNonWorkingDayByDate retrieves the non-working day on date
func (r *CalendarRepo) GetNonWorkingDayByDate(ctx context.Context, date time.Time) (*models.NonWorkingDay, error) {
	var row nonWorkingDayRow
	key := formatDate(&date)
	if err := r.db.GetContext(ctx, &row, `SELECT id, date, name FROM non_working_days WHERE date = ?`, key); err != nil {
		return nil, notFound(err, "non-working day", key)
	}
	return &models.NonWorkingDay{ID: row.ID, Date: models.Date(date), Name: row.Name}, nil
}

// RemoveNonWorkingDay deletes a non-working day by ID
func (r *CalendarRepo) RemoveNonWorkingDay(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM non_working_days WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete non-working day %d: %w", id, err)
	}
	return requireAffected(res, "non-working day", id)
}
