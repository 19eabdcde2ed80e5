package db

const schema = `
-- Performance and reliability settings
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA foreign_keys = ON;
PRAGMA temp_store = MEMORY;

-- Summary cache: key is {"href":...,"snippet":...}, entries never expire
CREATE TABLE IF NOT EXISTS summary_cache (
    cache_key TEXT PRIMARY KEY,
    summary TEXT NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

-- Settings: key/value, missing keys take their defaults
CREATE TABLE IF NOT EXISTS settings (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

-- Usage counters: totalScans, totalItems, summariesGenerated
CREATE TABLE IF NOT EXISTS stats (
    name TEXT PRIMARY KEY,
    value INTEGER NOT NULL DEFAULT 0
);

-- Scans: one row per scan run
CREATE TABLE IF NOT EXISTS scans (
    scan_id INTEGER PRIMARY KEY AUTOINCREMENT,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    source TEXT NOT NULL,           -- file path or URL
    platform TEXT NOT NULL,         -- profile display name, or Web
    chat_title TEXT,
    item_count INTEGER NOT NULL DEFAULT 0,
    status TEXT NOT NULL,           -- success | failed
    error_message TEXT
);

CREATE INDEX IF NOT EXISTS idx_scans_created ON scans(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_scans_platform ON scans(platform);

-- Scan items: the items a scan returned, in result order
CREATE TABLE IF NOT EXISTS scan_items (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    scan_id INTEGER NOT NULL,
    item_id TEXT NOT NULL,
    type TEXT NOT NULL,
    name TEXT,
    href TEXT,
    src TEXT,
    text TEXT,
    alt TEXT,
    timestamp INTEGER NOT NULL,
    message_index INTEGER NOT NULL,
    platform TEXT NOT NULL,
    FOREIGN KEY (scan_id) REFERENCES scans(scan_id) ON DELETE CASCADE,
    UNIQUE(scan_id, item_id)
);

CREATE INDEX IF NOT EXISTS idx_scan_items_scan ON scan_items(scan_id);
CREATE INDEX IF NOT EXISTS idx_scan_items_type ON scan_items(type);
`
