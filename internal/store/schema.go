package store

// SchemaVersion gates destructive migrations: any mismatch drops and
// recreates all tables (see DB.migrate).
const SchemaVersion = 1

const Schema = `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER PRIMARY KEY
);

CREATE TABLE IF NOT EXISTS library_groups (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS songs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	video_id TEXT,
	url TEXT UNIQUE NOT NULL,
	title TEXT NOT NULL,
	artist_name TEXT NOT NULL DEFAULT '',
	duration INTEGER NOT NULL DEFAULT 0,
	thumbnail_url TEXT NOT NULL DEFAULT '',
	local_path TEXT,
	kind TEXT NOT NULL DEFAULT 'standard',
	in_library BOOLEAN NOT NULL DEFAULT 0,
	play_count INTEGER NOT NULL DEFAULT 0,
	group_id INTEGER REFERENCES library_groups(id) ON DELETE CASCADE,
	download_status TEXT NOT NULL DEFAULT 'not_downloaded',
	download_progress INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_songs_status ON songs(download_status);
CREATE INDEX IF NOT EXISTS idx_songs_group ON songs(group_id);

CREATE TABLE IF NOT EXISTS artist_groups (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	position INTEGER NOT NULL DEFAULT 0
);

-- Artists detach from their group on group delete; they are never cascaded.
CREATE TABLE IF NOT EXISTS artists (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT UNIQUE NOT NULL,
	position INTEGER NOT NULL DEFAULT 0,
	auto_download BOOLEAN NOT NULL DEFAULT 0,
	hidden BOOLEAN NOT NULL DEFAULT 0,
	group_id INTEGER REFERENCES artist_groups(id) ON DELETE SET NULL
);

CREATE TABLE IF NOT EXISTS artist_songs (
	artist_id INTEGER NOT NULL REFERENCES artists(id) ON DELETE CASCADE,
	song_id INTEGER NOT NULL REFERENCES songs(id) ON DELETE CASCADE,
	position INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (artist_id, song_id)
);

CREATE INDEX IF NOT EXISTS idx_artist_songs_song ON artist_songs(song_id);

CREATE TABLE IF NOT EXISTS playlists (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	auto_download BOOLEAN NOT NULL DEFAULT 0,
	sort_mode TEXT NOT NULL DEFAULT 'custom',
	group_id INTEGER NOT NULL REFERENCES library_groups(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS playlist_songs (
	playlist_id INTEGER NOT NULL REFERENCES playlists(id) ON DELETE CASCADE,
	song_id INTEGER NOT NULL REFERENCES songs(id) ON DELETE CASCADE,
	added_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	position INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (playlist_id, song_id)
);

CREATE INDEX IF NOT EXISTS idx_playlist_songs_song ON playlist_songs(song_id);

CREATE TABLE IF NOT EXISTS song_groups (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	artist_id INTEGER NOT NULL REFERENCES artists(id) ON DELETE CASCADE,
	name TEXT NOT NULL,
	position INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS song_group_songs (
	group_id INTEGER NOT NULL REFERENCES song_groups(id) ON DELETE CASCADE,
	song_id INTEGER NOT NULL REFERENCES songs(id) ON DELETE CASCADE,
	position INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (group_id, song_id)
);

CREATE TABLE IF NOT EXISTS listening_history (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	song_id INTEGER NOT NULL REFERENCES songs(id) ON DELETE CASCADE,
	played_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_history_song ON listening_history(song_id);

-- song_id primary key makes concurrent enqueue naturally idempotent.
CREATE TABLE IF NOT EXISTS download_queue (
	song_id INTEGER PRIMARY KEY REFERENCES songs(id) ON DELETE CASCADE,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS playback_state (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	queue TEXT NOT NULL DEFAULT '[]',
	current_index INTEGER NOT NULL DEFAULT 0,
	position_ms INTEGER NOT NULL DEFAULT 0,
	playing BOOLEAN NOT NULL DEFAULT 0,
	listened_ms INTEGER NOT NULL DEFAULT 0,
	pending_plays TEXT NOT NULL DEFAULT '[]'
);

CREATE TABLE IF NOT EXISTS lyrics_cache (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	artist TEXT NOT NULL,
	title TEXT NOT NULL,
	lyrics TEXT NOT NULL,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	UNIQUE (artist, title)
);

CREATE TABLE IF NOT EXISTS search_history (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	query TEXT UNIQUE NOT NULL,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
`

const DropAll = `
DROP TABLE IF EXISTS search_history;
DROP TABLE IF EXISTS lyrics_cache;
DROP TABLE IF EXISTS playback_state;
DROP TABLE IF EXISTS download_queue;
DROP TABLE IF EXISTS listening_history;
DROP TABLE IF EXISTS song_group_songs;
DROP TABLE IF EXISTS song_groups;
DROP TABLE IF EXISTS playlist_songs;
DROP TABLE IF EXISTS playlists;
DROP TABLE IF EXISTS artist_songs;
DROP TABLE IF EXISTS artists;
DROP TABLE IF EXISTS artist_groups;
DROP TABLE IF EXISTS songs;
DROP TABLE IF EXISTS library_groups;
DROP TABLE IF EXISTS schema_version;
`
