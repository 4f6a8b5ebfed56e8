package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS tasks (
	id                  TEXT PRIMARY KEY,
	title               TEXT NOT NULL,
	description         TEXT NOT NULL DEFAULT '',
	category            TEXT NOT NULL DEFAULT '',
	priority            TEXT NOT NULL DEFAULT 'Low'
		CHECK(priority IN ('Low', 'Medium', 'High', 'Critical')),
	status              TEXT NOT NULL DEFAULT 'Pending'
		CHECK(status IN ('Pending', 'In-Process', 'Completed')),
	deadline            DATETIME,
	tags                TEXT NOT NULL DEFAULT '[]',
	color               TEXT NOT NULL DEFAULT 'default',
	recurrence_type     TEXT,
	recurrence_interval INTEGER NOT NULL DEFAULT 1,
	sort_order          INTEGER NOT NULL DEFAULT 0,
	created_at          DATETIME NOT NULL,
	completed_at        DATETIME,
	updated_at          DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS notifications (
	id         TEXT PRIMARY KEY,
	message    TEXT NOT NULL,
	kind       TEXT NOT NULL DEFAULT 'info',
	task_id    TEXT NOT NULL DEFAULT '',
	read       INTEGER NOT NULL DEFAULT 0 CHECK(read IN (0, 1)),
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);
CREATE INDEX IF NOT EXISTS idx_tasks_deadline ON tasks(deadline);
CREATE INDEX IF NOT EXISTS idx_tasks_sort_order ON tasks(sort_order);
CREATE INDEX IF NOT EXISTS idx_notifications_created ON notifications(created_at);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
ALTER TABLE tasks ADD COLUMN rolled_at DATETIME;

CREATE INDEX IF NOT EXISTS idx_notifications_task_kind
	ON notifications(task_id, kind);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
	{
		version: 3,
		sql: `
CREATE TABLE IF NOT EXISTS remote_tasks (
	user_id    TEXT NOT NULL,
	id         TEXT NOT NULL,
	payload    TEXT NOT NULL,
	updated_at DATETIME NOT NULL,
	PRIMARY KEY (user_id, id)
);

CREATE INDEX IF NOT EXISTS idx_remote_tasks_user ON remote_tasks(user_id);

INSERT INTO schema_version (version) VALUES (3);
`,
	},
}
