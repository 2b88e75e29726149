package sqlite

// Schema contains the SQL statements that create the Vestige schema: the
// memories table (content + FSRS card state + embedding in one
// row, per the design note that treats Memory as a single denormalized
// view), its FTS5 shadow index, the memory-to-memory edges table, and the
// next_review index backing the review queue.
const Schema = `
CREATE TABLE IF NOT EXISTS memories (
	id                   TEXT PRIMARY KEY,
	content              TEXT NOT NULL,
	summary              TEXT,

	source_type          TEXT NOT NULL,
	source_platform      TEXT,
	tags                 TEXT,
	people               TEXT,
	concepts             TEXT,
	events               TEXT,

	created_at           TIMESTAMP NOT NULL,
	updated_at           TIMESTAMP NOT NULL,
	last_accessed_at     TIMESTAMP,
	valid_from           TIMESTAMP,
	valid_until          TIMESTAMP,

	confidence           REAL NOT NULL DEFAULT 1.0,
	sentiment_intensity  REAL NOT NULL DEFAULT 0.0,

	is_contradicted      INTEGER NOT NULL DEFAULT 0,
	contradiction_ids    TEXT,
	source_chain         TEXT,

	card_difficulty      REAL NOT NULL DEFAULT 5,
	card_stability       REAL NOT NULL DEFAULT 0,
	card_state           TEXT NOT NULL DEFAULT 'new',
	card_reps            INTEGER NOT NULL DEFAULT 0,
	card_lapses          INTEGER NOT NULL DEFAULT 0,
	card_last_review     TIMESTAMP,
	card_scheduled_days  REAL NOT NULL DEFAULT 0,
	next_review          TIMESTAMP,

	retention_strength   REAL NOT NULL DEFAULT 1.0,
	stability_factor     REAL NOT NULL DEFAULT 0,

	embedding            BLOB,
	embedding_dim        INTEGER NOT NULL DEFAULT 0,

	access_count         INTEGER NOT NULL DEFAULT 0,
	deleted_at           TIMESTAMP,
	content_hash         TEXT
);

CREATE INDEX IF NOT EXISTS idx_memories_next_review ON memories(next_review) WHERE deleted_at IS NULL;
CREATE INDEX IF NOT EXISTS idx_memories_source_type ON memories(source_type) WHERE deleted_at IS NULL;
CREATE INDEX IF NOT EXISTS idx_memories_created_at ON memories(created_at);
CREATE INDEX IF NOT EXISTS idx_memories_content_hash ON memories(content_hash);

-- FTS5 shadow index over content/summary/tags, kept in sync with triggers
-- (the memories_fts pattern, columns swapped to the new schema).
CREATE VIRTUAL TABLE IF NOT EXISTS memories_fts USING fts5(
	id UNINDEXED,
	content,
	summary,
	tags,
	content='memories',
	content_rowid='rowid'
);

CREATE TRIGGER IF NOT EXISTS memories_fts_insert AFTER INSERT ON memories BEGIN
	INSERT INTO memories_fts(rowid, id, content, summary, tags)
	VALUES (new.rowid, new.id, new.content, new.summary, new.tags);
END;

CREATE TRIGGER IF NOT EXISTS memories_fts_delete AFTER DELETE ON memories BEGIN
	INSERT INTO memories_fts(memories_fts, rowid, id, content, summary, tags)
	VALUES ('delete', old.rowid, old.id, old.content, old.summary, old.tags);
END;

CREATE TRIGGER IF NOT EXISTS memories_fts_update AFTER UPDATE ON memories BEGIN
	INSERT INTO memories_fts(memories_fts, rowid, id, content, summary, tags)
	VALUES ('delete', old.rowid, old.id, old.content, old.summary, old.tags);
	INSERT INTO memories_fts(rowid, id, content, summary, tags)
	VALUES (new.rowid, new.id, new.content, new.summary, new.tags);
END;

-- Memory-to-memory edges: connection-importance traversal and supersede
-- linking both read this table (internal/graph, internal/engine).
CREATE TABLE IF NOT EXISTS edges (
	id         TEXT PRIMARY KEY,
	from_id    TEXT NOT NULL REFERENCES memories(id),
	to_id      TEXT NOT NULL REFERENCES memories(id),
	kind       TEXT NOT NULL,
	weight     REAL NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_edges_from_id ON edges(from_id);
CREATE INDEX IF NOT EXISTS idx_edges_to_id ON edges(to_id);
CREATE INDEX IF NOT EXISTS idx_edges_kind ON edges(kind);
`
