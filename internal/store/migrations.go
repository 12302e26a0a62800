package store

const schema = `
-- Monitored systems, identified by a unique API key
CREATE TABLE IF NOT EXISTS systems (
    id         TEXT PRIMARY KEY,
    name       TEXT NOT NULL,
    hostname   TEXT NOT NULL DEFAULT '',
    api_key    TEXT NOT NULL UNIQUE,
    last_seen  INTEGER
);

-- Version baselines; variable is the join key for inbound ingest entries
CREATE TABLE IF NOT EXISTS baselines (
    id          TEXT PRIMARY KEY,
    name        TEXT NOT NULL,
    variable    TEXT NOT NULL,
    type        TEXT NOT NULL DEFAULT 'MIN',
    min_version TEXT NOT NULL DEFAULT ''
);

-- Free-form labels, many-to-many with systems
CREATE TABLE IF NOT EXISTS tags (
    id   TEXT PRIMARY KEY,
    name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS system_tags (
    system_id TEXT NOT NULL REFERENCES systems(id) ON DELETE CASCADE,
    tag_id    TEXT NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
    PRIMARY KEY (system_id, tag_id)
) WITHOUT ROWID;

-- The baselines a system is expected to report
CREATE TABLE IF NOT EXISTS system_baselines (
    system_id   TEXT NOT NULL REFERENCES systems(id) ON DELETE CASCADE,
    baseline_id TEXT NOT NULL REFERENCES baselines(id) ON DELETE CASCADE,
    PRIMARY KEY (system_id, baseline_id)
) WITHOUT ROWID;

-- Last reported value per (system, baseline); high write frequency
CREATE TABLE IF NOT EXISTS system_baseline_values (
    id          TEXT PRIMARY KEY,
    system_id   TEXT NOT NULL REFERENCES systems(id) ON DELETE CASCADE,
    baseline_id TEXT NOT NULL REFERENCES baselines(id) ON DELETE CASCADE,
    value       TEXT NOT NULL,
    UNIQUE (system_id, baseline_id)
);

-- Append-only audit trail; system_id is NULL for invalid-key breadcrumbs
CREATE TABLE IF NOT EXISTS activity_log (
    id         TEXT PRIMARY KEY,
    system_id  TEXT REFERENCES systems(id) ON DELETE SET NULL,
    action     TEXT NOT NULL,
    meta       TEXT,
    created_at INTEGER NOT NULL
);

-- Dashboard accounts; password holds a bcrypt hash
CREATE TABLE IF NOT EXISTS users (
    id       TEXT PRIMARY KEY,
    name     TEXT NOT NULL,
    email    TEXT NOT NULL UNIQUE COLLATE NOCASE,
    password TEXT NOT NULL,
    role     TEXT NOT NULL DEFAULT 'user'
);

CREATE TABLE IF NOT EXISTS sessions (
    token      TEXT PRIMARY KEY,
    user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    expires_at INTEGER NOT NULL
) WITHOUT ROWID;

-- Secondary indexes
CREATE INDEX IF NOT EXISTS idx_baselines_variable ON baselines(variable);
CREATE INDEX IF NOT EXISTS idx_sbv_system ON system_baseline_values(system_id);
CREATE INDEX IF NOT EXISTS idx_activity_created ON activity_log(created_at);
CREATE INDEX IF NOT EXISTS idx_sessions_expires ON sessions(expires_at);
`
