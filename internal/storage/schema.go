package storage

const schemaSQL = `
-- One row per completed site audit. The full WebsiteContent is kept as
-- JSON next to the scalar columns used for listing and lookups.
CREATE TABLE IF NOT EXISTS audits (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    url TEXT NOT NULL,
    title TEXT,
    description TEXT,
    word_count INTEGER NOT NULL DEFAULT 0,
    image_count INTEGER NOT NULL DEFAULT 0,
    internal_links INTEGER NOT NULL DEFAULT 0,
    external_links INTEGER NOT NULL DEFAULT 0,
    has_ssl INTEGER NOT NULL DEFAULT 0,
    response_time_ms INTEGER NOT NULL DEFAULT 0,
    text_preview TEXT,
    content_json TEXT NOT NULL,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_audits_url ON audits(url);
CREATE INDEX IF NOT EXISTS idx_audits_created ON audits(created_at);

-- Pages that contributed to an audit, in sample order (position 0 is
-- the primary page).
CREATE TABLE IF NOT EXISTS sampled_pages (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    audit_id INTEGER NOT NULL REFERENCES audits(id) ON DELETE CASCADE,
    position INTEGER NOT NULL,
    url TEXT NOT NULL,
    UNIQUE(audit_id, position)
);

CREATE INDEX IF NOT EXISTS idx_sampled_audit ON sampled_pages(audit_id);
`
