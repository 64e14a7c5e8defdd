// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package notify delivers queued certificate emails. Notifications are
// written to a durable outbox table first and sent asynchronously by a
// worker pool, so delivery failures never affect certificate creation.
package notify

import (
	"context"
	"database/sql"
	"log/slog"
	"sync"
	"time"

	"github.com/olegiv/certify-go/internal/model"
	"github.com/olegiv/certify-go/internal/store"
)

// retryBase is the delay before the first retry; each subsequent retry
// doubles it.
const retryBase = time.Minute

// Dispatcher sends outbox emails through a pool of workers.
type Dispatcher struct {
	queries     *store.Queries
	sender      Sender
	logger      *slog.Logger
	queue       chan int64
	workers     int
	maxAttempts int64
	wg          sync.WaitGroup
	done        chan struct{}
	mu          sync.RWMutex
	running     bool
}

// Sender delivers a single email message.
type Sender interface {
	Send(to, subject, htmlBody, textBody string) error
}

// Config holds dispatcher configuration.
type Config struct {
	Workers     int   // concurrent delivery workers
	MaxAttempts int64 // attempts before a message is marked failed
}

// DefaultConfig returns default dispatcher configuration.
func DefaultConfig() Config {
	return Config{
		Workers:     3,
		MaxAttempts: 5,
	}
}

// NewDispatcher creates an email dispatcher.
func NewDispatcher(db *sql.DB, sender Sender, logger *slog.Logger, cfg Config) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = 3
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Dispatcher{
		queries:     store.New(db),
		sender:      sender,
		logger:      logger,
		queue:       make(chan int64, 100),
		workers:     cfg.Workers,
		maxAttempts: cfg.MaxAttempts,
		done:        make(chan struct{}),
	}
}

// Start launches the dispatcher workers.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return
	}
	d.running = true
	d.mu.Unlock()

	d.logger.Info("starting email dispatcher", "workers", d.workers)

	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker(ctx, i)
	}
}

// Stop stops the dispatcher and waits for workers to finish.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	d.running = false
	d.mu.Unlock()

	d.logger.Info("stopping email dispatcher")
	close(d.done)
	d.wg.Wait()
	d.logger.Info("email dispatcher stopped")
}

func (d *Dispatcher) worker(ctx context.Context, id int) {
	defer d.wg.Done()
	d.logger.Debug("email worker started", "worker_id", id)

	for {
		select {
		case <-d.done:
			d.logger.Debug("email worker stopping", "worker_id", id)
			return
		case <-ctx.Done():
			return
		case outboxID := <-d.queue:
			d.deliver(ctx, outboxID)
		}
	}
}

// Enqueue persists a notification in the outbox and queues it for
// delivery. The returned id identifies the outbox row and serves as the
// message id in API responses. The row is durable before this method
// returns; a full queue only delays delivery until the next sweep.
func (d *Dispatcher) Enqueue(ctx context.Context, arg store.CreateOutboxEmailParams) (int64, error) {
	id, err := d.queries.CreateOutboxEmail(ctx, arg)
	if err != nil {
		return 0, err
	}

	select {
	case d.queue <- id:
	default:
		d.logger.Warn("email queue full, delivery deferred to next sweep", "outbox_id", id)
	}

	return id, nil
}

// Sweep queues all due pending emails. It is called periodically by the
// scheduler and picks up both retries and rows that missed the in-memory
// queue, including mail left over from a previous process.
func (d *Dispatcher) Sweep(ctx context.Context) {
	d.mu.RLock()
	running := d.running
	d.mu.RUnlock()
	if !running {
		return
	}

	due, err := d.queries.ListDueOutboxEmails(ctx, time.Now(), 100)
	if err != nil {
		d.logger.Error("outbox sweep failed", "error", err)
		return
	}

	for _, m := range due {
		select {
		case d.queue <- m.ID:
		default:
			// Queue full; the rest stays for the next sweep
			return
		}
	}
}

// deliver attempts to send one outbox email and records the outcome.
func (d *Dispatcher) deliver(ctx context.Context, outboxID int64) {
	m, err := d.queries.GetOutboxEmail(ctx, outboxID)
	if err != nil {
		d.logger.Error("outbox row lookup failed", "outbox_id", outboxID, "error", err)
		return
	}
	if m.Status != model.OutboxStatusPending {
		return
	}

	if err := d.sender.Send(m.Recipient, m.Subject, m.HTMLBody, m.TextBody); err != nil {
		d.recordFailure(ctx, m, err)
		return
	}

	if err := d.queries.MarkOutboxSent(ctx, m.ID, time.Now()); err != nil {
		d.logger.Error("marking outbox sent failed", "outbox_id", m.ID, "error", err)
		return
	}
	d.logger.Info("notification email sent", "outbox_id", m.ID, "recipient", m.Recipient)
}

func (d *Dispatcher) recordFailure(ctx context.Context, m model.OutboxEmail, sendErr error) {
	attempts := m.Attempts + 1

	if attempts >= d.maxAttempts {
		if err := d.queries.MarkOutboxFailed(ctx, m.ID, sendErr.Error()); err != nil {
			d.logger.Error("marking outbox failed failed", "outbox_id", m.ID, "error", err)
			return
		}
		d.logger.Error("notification email failed permanently",
			"outbox_id", m.ID,
			"recipient", m.Recipient,
			"attempts", attempts,
			"error", sendErr)
		return
	}

	// Exponential backoff: 1m, 2m, 4m, ...
	delay := retryBase << (attempts - 1)
	nextRetry := time.Now().Add(delay)

	if err := d.queries.MarkOutboxRetry(ctx, m.ID, sendErr.Error(), nextRetry); err != nil {
		d.logger.Error("marking outbox retry failed", "outbox_id", m.ID, "error", err)
		return
	}
	d.logger.Warn("notification email delivery failed, will retry",
		"outbox_id", m.ID,
		"recipient", m.Recipient,
		"attempt", attempts,
		"next_retry_in", delay,
		"error", sendErr)
}
