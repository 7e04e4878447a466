package storage

const schema = `
-- Accounts that own flashcards.
CREATE TABLE IF NOT EXISTS users (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    email TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    created_at DATETIME NOT NULL
);

-- One row per call to a flashcard generator, successful or not.
CREATE TABLE IF NOT EXISTS generations (
    id TEXT PRIMARY KEY,
    user_id INTEGER NOT NULL,
    model TEXT NOT NULL,
    source_words INTEGER NOT NULL,
    generated_count INTEGER NOT NULL DEFAULT 0,
    accepted_count INTEGER NOT NULL DEFAULT 0,
    tokens_used INTEGER NOT NULL DEFAULT 0,
    cost_usd REAL NOT NULL DEFAULT 0,
    status TEXT NOT NULL,
    error TEXT,
    created_at DATETIME NOT NULL,

    FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_generations_created_at ON generations(created_at);

-- The 'flashcards' table stores the question and answer of each card.
-- hash is the normalized content hash used to skip duplicate imports.
CREATE TABLE IF NOT EXISTS flashcards (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id INTEGER NOT NULL,
    question TEXT NOT NULL,
    answer TEXT NOT NULL,
    source TEXT NOT NULL DEFAULT 'manual', -- manual, ai, import
    generation_id TEXT,
    hash TEXT NOT NULL,
    created_at DATETIME NOT NULL,
    updated_at DATETIME NOT NULL,

    FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE,
    FOREIGN KEY(generation_id) REFERENCES generations(id) ON DELETE SET NULL
);
CREATE INDEX IF NOT EXISTS idx_flashcards_user_id ON flashcards(user_id);
CREATE INDEX IF NOT EXISTS idx_flashcards_user_hash ON flashcards(user_id, hash);

-- Review schedule, created on the first review of a flashcard.
CREATE TABLE IF NOT EXISTS schedules (
    flashcard_id INTEGER PRIMARY KEY,
    last_reviewed_at DATETIME,
    next_review_at DATETIME,
    ease_factor REAL NOT NULL DEFAULT 2.5,
    interval_days INTEGER NOT NULL DEFAULT 1,
    repetition_count INTEGER NOT NULL DEFAULT 0,

    FOREIGN KEY(flashcard_id) REFERENCES flashcards(id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_schedules_next_review_at ON schedules(next_review_at);

-- The 'sources' table tracks where imported cards came from, either a local directory or a git repository.
CREATE TABLE IF NOT EXISTS sources (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id INTEGER NOT NULL,
    path TEXT NOT NULL,
    type TEXT NOT NULL DEFAULT 'local', -- local, git
    last_scanned DATETIME,

    UNIQUE(user_id, path),
    FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE
);

-- The in-progress learn session of each user, as JSON.
CREATE TABLE IF NOT EXISTS learn_sessions (
    user_id INTEGER PRIMARY KEY,
    state TEXT NOT NULL,
    updated_at DATETIME NOT NULL,

    FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE
);
`
