package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/campus-agents/campus-hub/internal/domain/notification"
	"github.com/campus-agents/campus-hub/pkg/circuitbreaker"
	"github.com/campus-agents/campus-hub/pkg/logger"
	"github.com/campus-agents/campus-hub/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// NOTIFICATION JOURNAL
// ══════════════════════════════════════════════════════════════════════════════

// Journal is an append-only audit log of delivered notifications.
// It implements notification.Journal and is attached to the bus as a
// subscriber named "journal".
type Journal struct {
	db      Querier
	retrier *retry.Retrier
	breaker *circuitbreaker.CircuitBreaker
	logger  *logger.Logger
}

var _ notification.Journal = (*Journal)(nil)

// NewJournal creates a journal on top of a connection or transaction.
func NewJournal(db Querier, log *logger.Logger) *Journal {
	if log == nil {
		log = logger.Nop()
	}
	log = log.With(logger.Component("journal"))

	policy := retry.JournalPolicy()
	policy.OnRetry = func(attempt int, err error, delay time.Duration) {
		log.Warn("journal retry", logger.Int("attempt", attempt), logger.Duration("delay", delay), logger.Err(err))
	}

	return &Journal{
		db:      db,
		retrier: retry.New(policy),
		breaker: circuitbreaker.Journal(
			func(err error) bool { return !IsUniqueViolation(err) && !errors.Is(err, context.Canceled) },
			func(name string, from, to circuitbreaker.State) {
				log.Warn("circuit state changed", logger.String("breaker", name),
					logger.String("from", from.String()), logger.String("to", to.String()))
			},
		),
		logger: log,
	}
}

// Name returns the subscriber name.
func (j *Journal) Name() string { return "journal" }

// Handle appends env.
func (j *Journal) Handle(ctx context.Context, env notification.Envelope) error {
	return j.Append(ctx, env)
}

const appendSQL = `
	INSERT INTO notification_journal (id, seq, kind, student_id, occurred_at, payload)
	VALUES ($1::uuid, $2, $3, $4, $5, $6)
	ON CONFLICT (id) DO NOTHING
`

// Append stores env. Re-appending the same envelope id is a no-op, so
// retries are safe.
func (j *Journal) Append(ctx context.Context, env notification.Envelope) error {
	if !env.Kind.IsValid() {
		return fmt.Errorf("journal append: unknown kind %q", env.Kind)
	}
	payload := env.Payload
	if !json.Valid(payload) {
		return fmt.Errorf("journal append: payload of %s is not JSON", env.ID)
	}

	return j.breaker.Execute(ctx, func(ctx context.Context) error {
		return j.retrier.Do(ctx, func(ctx context.Context) error {
			_, err := j.db.Exec(ctx, appendSQL,
				env.ID, int64(env.Seq), string(env.Kind), env.StudentID, env.OccurredAt, []byte(payload))
			if err != nil {
				if IsUniqueViolation(err) {
					return fmt.Errorf("journal append: %w", err)
				}
				return retry.Retryable(fmt.Errorf("journal append: %w", err))
			}
			return nil
		})
	})
}

const recentSQL = `
	SELECT id::text, seq, kind, student_id, occurred_at, payload
	FROM (
		SELECT id, seq, kind, student_id, occurred_at, payload
		FROM notification_journal
		ORDER BY occurred_at DESC, seq DESC
		LIMIT $1
	) latest
	ORDER BY occurred_at ASC, seq ASC
`

// Recent returns the last limit envelopes, oldest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]notification.Envelope, error) {
	if limit <= 0 {
		return nil, nil
	}

	rows, err := j.db.Query(ctx, recentSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("journal recent: %w", err)
	}
	defer rows.Close()

	out := make([]notification.Envelope, 0, limit)
	for rows.Next() {
		var (
			env     notification.Envelope
			seq     int64
			kind    string
			payload []byte
		)
		if err := rows.Scan(&env.ID, &seq, &kind, &env.StudentID, &env.OccurredAt, &payload); err != nil {
			return nil, fmt.Errorf("journal scan: %w", err)
		}
		env.Seq = uint64(seq)
		env.Kind = notification.Kind(kind)
		env.OccurredAt = env.OccurredAt.UTC()
		env.Payload = json.RawMessage(payload)
		out = append(out, env)
	}
	return out, rows.Err()
}

// Prune deletes entries that occurred before cutoff and returns the count.
func (j *Journal) Prune(ctx context.Context, before time.Time) (int64, error) {
	tag, err := j.db.Exec(ctx, `DELETE FROM notification_journal WHERE occurred_at < $1`, before.UTC())
	if err != nil {
		return 0, fmt.Errorf("journal prune: %w", err)
	}
	return tag.RowsAffected(), nil
}
