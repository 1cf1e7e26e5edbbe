package database

// Migration is one schema step. Down is kept for manual rollback and is
// never run by Migrate.
type Migration struct {
	Version string
	Up      string
	Down    string
}

// migrations is applied in slice order. Timestamps are unix milliseconds.
var migrations = []Migration{
	{
		Version: "001_sessions",
		Up: `
CREATE TABLE sessions (
    id TEXT PRIMARY KEY,
    game_id TEXT NOT NULL,
    game_name TEXT NOT NULL DEFAULT '',
    mode TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL,
    pid INTEGER NOT NULL DEFAULT 0,
    image TEXT NOT NULL DEFAULT '',
    exit_code INTEGER,
    message TEXT NOT NULL DEFAULT '',
    started_at INTEGER NOT NULL,
    ended_at INTEGER
);

CREATE INDEX idx_sessions_started ON sessions(started_at);
CREATE INDEX idx_sessions_game ON sessions(game_id);
`,
		Down: `
DROP TABLE IF EXISTS sessions;
`,
	},
	{
		Version: "002_session_events",
		Up: `
CREATE TABLE session_events (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id TEXT NOT NULL,
    type TEXT NOT NULL,
    pid INTEGER NOT NULL DEFAULT 0,
    image TEXT NOT NULL DEFAULT '',
    exit_code INTEGER,
    message TEXT NOT NULL DEFAULT '',
    created_at INTEGER NOT NULL,
    FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
);

CREATE INDEX idx_session_events_session ON session_events(session_id, id);
`,
		Down: `
DROP TABLE IF EXISTS session_events;
`,
	},
}
