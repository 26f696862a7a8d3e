package postgres

// GetMigrations returns all embedded migrations.
func GetMigrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_gradebook",
			UpSQL:   migration001Up,
			DownSQL: migration001Down,
		},
		{
			Version: 2,
			Name:    "create_instructors",
			UpSQL:   migration002Up,
			DownSQL: migration002Down,
		},
		{
			Version: 3,
			Name:    "create_cohort_snapshots",
			UpSQL:   migration003Up,
			DownSQL: migration003Down,
		},
	}
}

// Raw score columns are nullable: NULL means the value was absent from the
// roster file. Derived columns are nullable for the same reason (a student
// without both exam scores has no final grade). The position column preserves
// roster order, which ranking ties and at-risk listings depend on.
const migration001Up = `
CREATE TABLE IF NOT EXISTS student_records (
	student_id   TEXT PRIMARY KEY,
	first_name   TEXT NOT NULL DEFAULT '',
	last_name    TEXT NOT NULL DEFAULT '',
	section      TEXT NOT NULL DEFAULT '',
	position     INTEGER NOT NULL,

	quiz1 DOUBLE PRECISION,
	quiz2 DOUBLE PRECISION,
	quiz3 DOUBLE PRECISION,
	quiz4 DOUBLE PRECISION,
	quiz5 DOUBLE PRECISION,

	midterm_score      DOUBLE PRECISION,
	final_score        DOUBLE PRECISION,
	attendance_percent DOUBLE PRECISION,

	quiz_average DOUBLE PRECISION,
	final_grade  DOUBLE PRECISION,
	letter_grade TEXT NOT NULL DEFAULT 'N/A',
	improvement  DOUBLE PRECISION,

	created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_student_records_position ON student_records(position);
CREATE INDEX IF NOT EXISTS idx_student_records_section ON student_records(section);
CREATE INDEX IF NOT EXISTS idx_student_records_final_grade ON student_records(final_grade DESC NULLS LAST);

CREATE TABLE IF NOT EXISTS import_batches (
	id          TEXT PRIMARY KEY,
	imported    INTEGER NOT NULL,
	sections    INTEGER NOT NULL,
	imported_by TEXT NOT NULL DEFAULT '',
	imported_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_import_batches_imported_at ON import_batches(imported_at DESC);
`

const migration001Down = `
DROP TABLE IF EXISTS import_batches;
DROP TABLE IF EXISTS student_records;
`

const migration002Up = `
CREATE TABLE IF NOT EXISTS instructors (
	id           TEXT PRIMARY KEY,
	email        TEXT NOT NULL,
	display_name TEXT NOT NULL DEFAULT '',
	api_key_id   TEXT NOT NULL,
	api_key_hash TEXT NOT NULL,
	is_admin     BOOLEAN NOT NULL DEFAULT FALSE,

	created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

	CONSTRAINT uq_instructors_email UNIQUE (email),
	CONSTRAINT uq_instructors_api_key_id UNIQUE (api_key_id)
);
`

const migration002Down = `
DROP TABLE IF EXISTS instructors;
`

const migration003Up = `
CREATE TABLE IF NOT EXISTS cohort_snapshots (
	id             TEXT PRIMARY KEY,
	taken_at       TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
	total_students INTEGER NOT NULL,
	graded         INTEGER NOT NULL,

	mean_grade   DOUBLE PRECISION,
	median_grade DOUBLE PRECISION,
	std_grade    DOUBLE PRECISION,
	min_grade    DOUBLE PRECISION,
	max_grade    DOUBLE PRECISION,

	distribution  JSONB NOT NULL DEFAULT '{}',
	at_risk_count INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_cohort_snapshots_taken_at ON cohort_snapshots(taken_at DESC);
`

const migration003Down = `
DROP TABLE IF EXISTS cohort_snapshots;
`
