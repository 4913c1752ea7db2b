package postgres

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: CREATE NOTIFICATION JOURNAL
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
CREATE TABLE IF NOT EXISTS notification_journal (
    id UUID PRIMARY KEY,
    seq BIGINT NOT NULL,
    kind VARCHAR(40) NOT NULL,
    student_id VARCHAR(64) NOT NULL DEFAULT '',
    occurred_at TIMESTAMP WITH TIME ZONE NOT NULL,
    payload JSONB NOT NULL,
    recorded_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_kind CHECK (kind IN (
        'agent-status', 'agent-message', 'student-update', 'lesson-content',
        'quiz-question', 'quiz-feedback', 'event-recommendations'
    ))
);

CREATE INDEX IF NOT EXISTS idx_journal_occurred_at ON notification_journal(occurred_at);
CREATE INDEX IF NOT EXISTS idx_journal_recent ON notification_journal(occurred_at DESC, seq DESC);
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: INDEX JOURNAL BY STUDENT AND KIND
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
CREATE INDEX IF NOT EXISTS idx_journal_student_kind
    ON notification_journal(student_id, kind, occurred_at DESC)
    WHERE student_id <> '';
`
