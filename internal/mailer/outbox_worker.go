package mailer

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"procurehub/internal/model"
	"procurehub/internal/repository"
)

const (
	defaultPollInterval = 15 * time.Second
	defaultBatchSize    = 25
	defaultMaxAttempts  = 5
	retryBackoffBase    = time.Minute
)

// OutboxWorker drains the email outbox: due PENDING entries are sent through
// the Mailer, retried with growing backoff, and dead-lettered as FAILED after
// the attempt budget runs out. Running dispatch off a durable table means a
// process crash never silently drops a queued notification email.
type OutboxWorker struct {
	outbox      repository.OutboxRepository
	mailer      Mailer
	log         *slog.Logger
	interval    time.Duration
	batchSize   int
	maxAttempts int
}

func NewOutboxWorker(outbox repository.OutboxRepository, mailer Mailer, log *slog.Logger) *OutboxWorker {
	return &OutboxWorker{
		outbox:      outbox,
		mailer:      mailer,
		log:         log,
		interval:    defaultPollInterval,
		batchSize:   defaultBatchSize,
		maxAttempts: defaultMaxAttempts,
	}
}

// Run polls until ctx is cancelled.
func (w *OutboxWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.Drain(ctx)
		}
	}
}

// Drain processes one batch of due entries. Exported so tests and batch jobs
// can run a single pass without the ticker.
func (w *OutboxWorker) Drain(ctx context.Context) {
	entries, err := w.outbox.ListDue(ctx, time.Now(), w.batchSize)
	if err != nil {
		w.log.Error("outbox poll failed", "error", err)
		return
	}

	for _, entry := range entries {
		w.deliver(ctx, entry)
	}
}

func (w *OutboxWorker) deliver(ctx context.Context, entry model.EmailOutbox) {
	var props map[string]interface{}
	if err := json.Unmarshal([]byte(entry.Payload), &props); err != nil {
		// Payload is unreadable; retrying cannot help.
		w.log.Error("outbox entry has malformed payload, dead-lettering",
			"entryId", entry.ID, "error", err)
		if markErr := w.outbox.MarkDead(ctx, entry.ID, "malformed payload: "+err.Error()); markErr != nil {
			w.log.Error("failed to dead-letter outbox entry", "entryId", entry.ID, "error", markErr)
		}
		return
	}

	sendErr := w.mailer.Send(entry.Recipient, entry.Subject, entry.TemplateName, props)
	if sendErr == nil {
		if err := w.outbox.MarkSent(ctx, entry.ID, time.Now()); err != nil {
			w.log.Error("failed to mark outbox entry sent", "entryId", entry.ID, "error", err)
		}
		return
	}

	attempts := entry.Attempts + 1
	w.log.Warn("outbox delivery attempt failed",
		"entryId", entry.ID, "recipient", entry.Recipient,
		"attempt", attempts, "error", sendErr)

	if attempts >= w.maxAttempts {
		if err := w.outbox.MarkDead(ctx, entry.ID, sendErr.Error()); err != nil {
			w.log.Error("failed to dead-letter outbox entry", "entryId", entry.ID, "error", err)
		}
		return
	}

	next := time.Now().Add(retryBackoffBase * time.Duration(attempts))
	if err := w.outbox.MarkAttemptFailed(ctx, entry.ID, attempts, next, sendErr.Error()); err != nil {
		w.log.Error("failed to record outbox attempt", "entryId", entry.ID, "error", err)
	}
}
