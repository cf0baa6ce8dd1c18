package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// migration holds a single schema migration with its target version and SQL
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations. Versions are
// sequential starting from 1 and a migration never changes once released.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS users (
	id    INTEGER PRIMARY KEY AUTOINCREMENT,
	login TEXT NOT NULL UNIQUE,
	name  TEXT NOT NULL,
	admin INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS projects (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	identifier  TEXT NOT NULL UNIQUE,
	name        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	active      INTEGER NOT NULL DEFAULT 1,
	created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS members (
	project_id INTEGER NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
	user_id    INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	role       TEXT NOT NULL,
	PRIMARY KEY (project_id, user_id)
);

CREATE TABLE IF NOT EXISTS types (
	id           INTEGER PRIMARY KEY,
	name         TEXT NOT NULL,
	is_milestone INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS statuses (
	id        INTEGER PRIMARY KEY,
	name      TEXT NOT NULL,
	is_closed INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS priorities (
	id    INTEGER PRIMARY KEY,
	name  TEXT NOT NULL,
	color TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS work_packages (
	id                      INTEGER PRIMARY KEY AUTOINCREMENT,
	project_id              INTEGER NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
	parent_id               INTEGER REFERENCES work_packages(id) ON DELETE SET NULL,
	type_id                 INTEGER NOT NULL REFERENCES types(id),
	status_id               INTEGER NOT NULL REFERENCES statuses(id),
	priority_id             INTEGER NOT NULL REFERENCES priorities(id),
	subject                 TEXT NOT NULL,
	description             TEXT NOT NULL DEFAULT '',
	start_date              TEXT,
	due_date                TEXT,
	duration                INTEGER,
	schedule_manually       INTEGER NOT NULL DEFAULT 0,
	ignore_non_working_days INTEGER NOT NULL DEFAULT 0,
	lock_version            INTEGER NOT NULL DEFAULT 0,
	created_at              DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at              DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_work_packages_project ON work_packages(project_id);
CREATE INDEX IF NOT EXISTS idx_work_packages_parent ON work_packages(parent_id);

CREATE TABLE IF NOT EXISTS relations (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	from_id       INTEGER NOT NULL REFERENCES work_packages(id) ON DELETE CASCADE,
	to_id         INTEGER NOT NULL REFERENCES work_packages(id) ON DELETE CASCADE,
	relation_type TEXT NOT NULL,
	lag           INTEGER NOT NULL DEFAULT 0,
	UNIQUE (from_id, to_id)
);

CREATE INDEX IF NOT EXISTS idx_relations_to ON relations(to_id);

CREATE TABLE IF NOT EXISTS comments (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	work_package_id INTEGER NOT NULL REFERENCES work_packages(id) ON DELETE CASCADE,
	author          TEXT NOT NULL,
	message         TEXT NOT NULL,
	created_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`,
	},
	{
		version: 2,
		sql: `
CREATE TABLE IF NOT EXISTS week_days (
	day     INTEGER PRIMARY KEY CHECK (day BETWEEN 1 AND 7),
	working INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS non_working_days (
	id   INTEGER PRIMARY KEY AUTOINCREMENT,
	date TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS custom_fields (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	name            TEXT NOT NULL UNIQUE,
	field_format    TEXT NOT NULL,
	is_required     INTEGER NOT NULL DEFAULT 0,
	min_length      INTEGER NOT NULL DEFAULT 0,
	max_length      INTEGER NOT NULL DEFAULT 0,
	regexp          TEXT NOT NULL DEFAULT '',
	possible_values TEXT NOT NULL DEFAULT '[]'
);

CREATE TABLE IF NOT EXISTS hierarchy_items (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	custom_field_id INTEGER NOT NULL REFERENCES custom_fields(id) ON DELETE CASCADE,
	parent_id       INTEGER REFERENCES hierarchy_items(id) ON DELETE CASCADE,
	label           TEXT,
	short           TEXT,
	position        INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_hierarchy_items_field ON hierarchy_items(custom_field_id);

CREATE TABLE IF NOT EXISTS custom_values (
	custom_field_id INTEGER NOT NULL REFERENCES custom_fields(id) ON DELETE CASCADE,
	work_package_id INTEGER NOT NULL REFERENCES work_packages(id) ON DELETE CASCADE,
	value           TEXT NOT NULL,
	PRIMARY KEY (custom_field_id, work_package_id)
);
`,
	},
	{
		version: 3,
		sql: `
CREATE TABLE IF NOT EXISTS webhooks (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	name         TEXT NOT NULL,
	url          TEXT NOT NULL,
	secret       TEXT NOT NULL DEFAULT '',
	enabled      INTEGER NOT NULL DEFAULT 1,
	events       TEXT NOT NULL DEFAULT '[]',
	all_projects INTEGER NOT NULL DEFAULT 0,
	created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS webhook_projects (
	webhook_id INTEGER NOT NULL REFERENCES webhooks(id) ON DELETE CASCADE,
	project_id INTEGER NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
	PRIMARY KEY (webhook_id, project_id)
);

CREATE TABLE IF NOT EXISTS webhook_logs (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	webhook_id    INTEGER NOT NULL REFERENCES webhooks(id) ON DELETE CASCADE,
	delivery_id   TEXT NOT NULL,
	event         TEXT NOT NULL,
	url           TEXT NOT NULL,
	request_body  TEXT NOT NULL,
	response_code INTEGER NOT NULL DEFAULT 0,
	response_body TEXT NOT NULL DEFAULT '',
	created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_webhook_logs_webhook ON webhook_logs(webhook_id, id);
`,
	},
	{
		version: 4,
		sql: `
INSERT INTO types (id, name, is_milestone) VALUES
	(1, 'Task', 0),
	(2, 'Milestone', 1),
	(3, 'Phase', 0),
	(4, 'Feature', 0),
	(5, 'Bug', 0);

INSERT INTO statuses (id, name, is_closed) VALUES
	(1, 'New', 0),
	(2, 'In progress', 0),
	(3, 'On hold', 0),
	(4, 'Closed', 1);

INSERT INTO priorities (id, name, color) VALUES
	(1, 'Low', '#7AA2F7'),
	(2, 'Normal', '#9ECE6A'),
	(3, 'High', '#E0AF68'),
	(4, 'Immediate', '#F7768E');

INSERT INTO week_days (day, working) VALUES
	(1, 1), (2, 1), (3, 1), (4, 1), (5, 1), (6, 0), (7, 0);

INSERT INTO users (login, name, admin) VALUES ('admin', 'Administrator', 1);
`,
	},
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order, each in its own transaction
func runMigrations(ctx context.Context, db *sqlx.DB) error {
	currentVersion, err := schemaVersion(ctx, db)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		err := withTx(ctx, db, func(tx *sqlx.Tx) error {
			if _, err := tx.ExecContext(ctx, m.sql); err != nil {
				return err
			}
			_, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", m.version)
			return err
		})
		if err != nil {
			return fmt.Errorf("failed to apply migration v%d: %w", m.version, err)
		}
	}
	return nil
}

// schemaVersion returns the highest applied migration, 0 for a new database
func schemaVersion(ctx context.Context, db *sqlx.DB) (int, error) {
	var tableCount int
	err := db.GetContext(ctx, &tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'schema_version'")
	if err != nil {
		return 0, fmt.Errorf("failed to check schema_version table: %w", err)
	}
	if tableCount == 0 {
		return 0, nil
	}

	var version int
	if err := db.GetContext(ctx, &version, "SELECT COALESCE(MAX(version), 0) FROM schema_version"); err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, nil
}
