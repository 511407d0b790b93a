package store

// schemaStatements are applied in order at store init. Every statement is
// idempotent so repeated runs against an existing database are safe.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS permits (
		permit_number     TEXT PRIMARY KEY,
		address           TEXT,
		zip_code          TEXT NOT NULL DEFAULT 'UNKNOWN',
		latitude          DOUBLE PRECISION,
		longitude         DOUBLE PRECISION,
		cluster_id        INTEGER,
		work_description  TEXT,
		is_energy_permit  BOOLEAN NOT NULL DEFAULT FALSE,
		energy_type       TEXT,
		solar_capacity_kw DOUBLE PRECISION,
		valuation         DOUBLE PRECISION,
		issue_date        TEXT,
		project_type      TEXT,
		building_type     TEXT,
		scale             TEXT,
		trade             TEXT,
		is_green          BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE INDEX IF NOT EXISTS idx_permits_zip ON permits (zip_code)`,
	`CREATE INDEX IF NOT EXISTS idx_permits_cluster ON permits (cluster_id)`,
	`CREATE INDEX IF NOT EXISTS idx_permits_energy ON permits (is_energy_permit) WHERE is_energy_permit`,

	`CREATE TABLE IF NOT EXISTS clusters (
		id          INTEGER PRIMARY KEY,
		name        TEXT NOT NULL,
		description TEXT,
		count       BIGINT NOT NULL DEFAULT 0,
		percentage  DOUBLE PRECISION NOT NULL DEFAULT 0,
		color       TEXT NOT NULL DEFAULT ''
	)`,

	`CREATE TABLE IF NOT EXISTS cluster_keywords (
		cluster_id INTEGER NOT NULL,
		keyword    TEXT NOT NULL,
		prevalence DOUBLE PRECISION NOT NULL DEFAULT 0,
		rank       INTEGER NOT NULL,
		UNIQUE (cluster_id, rank)
	)`,

	`CREATE TABLE IF NOT EXISTS energy_stats_by_zip (
		zip_code                TEXT PRIMARY KEY,
		total_energy_permits    BIGINT NOT NULL DEFAULT 0,
		solar                   BIGINT NOT NULL DEFAULT 0,
		battery                 BIGINT NOT NULL DEFAULT 0,
		ev_charger              BIGINT NOT NULL DEFAULT 0,
		generator               BIGINT NOT NULL DEFAULT 0,
		panel_upgrade           BIGINT NOT NULL DEFAULT 0,
		hvac                    BIGINT NOT NULL DEFAULT 0,
		total_solar_capacity_kw DOUBLE PRECISION NOT NULL DEFAULT 0,
		avg_solar_capacity_kw   DOUBLE PRECISION NOT NULL DEFAULT 0
	)`,

	// Target table for future aggregation jobs; this pipeline only defines it.
	`CREATE TABLE IF NOT EXISTS trends (
		period        TEXT NOT NULL,
		period_type   TEXT NOT NULL,
		total_permits BIGINT NOT NULL DEFAULT 0,
		energy_permits BIGINT NOT NULL DEFAULT 0,
		solar         BIGINT NOT NULL DEFAULT 0,
		battery       BIGINT NOT NULL DEFAULT 0,
		ev_charger    BIGINT NOT NULL DEFAULT 0,
		growth_rate   DOUBLE PRECISION,
		UNIQUE (period, period_type)
	)`,

	`CREATE TABLE IF NOT EXISTS cache_metadata (
		key          TEXT PRIMARY KEY,
		last_updated TIMESTAMPTZ NOT NULL,
		record_count BIGINT NOT NULL DEFAULT 0,
		source_file  TEXT NOT NULL DEFAULT ''
	)`,
}
