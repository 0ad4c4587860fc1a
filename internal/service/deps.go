package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/AdamBeresnev/esports-bracket/internal/events"
	"github.com/AdamBeresnev/esports-bracket/internal/metrics"
	"github.com/jmoiron/sqlx"
)

// Deps is what every service shares besides its stores. Events and Metrics
// may be nil.
type Deps struct {
	Logger  *slog.Logger
	Events  *events.Publisher
	Metrics *metrics.Metrics
	Locks   *Locks
	Now     func() time.Time
}

func (d *Deps) withDefaults() *Deps {
	out := *d
	if out.Logger == nil {
		out.Logger = slog.Default()
	}
	if out.Locks == nil {
		out.Locks = NewLocks()
	}
	if out.Now == nil {
		out.Now = time.Now
	}
	return &out
}

func (d *Deps) now() time.Time {
	return d.Now().UTC()
}

// publish sends events after a commit. A failure is logged and counted but
// never undoes the committed change.
func (d *Deps) publish(ctx context.Context, evs ...events.Event) {
	if d.Events == nil {
		return
	}
	for _, ev := range evs {
		if err := d.Events.Publish(ctx, ev); err != nil {
			d.Logger.WarnContext(ctx, "failed to publish event", "topic", ev.Topic(), "error", err)
			d.Metrics.PublishFailed(ev.Topic())
		}
	}
}

// inTx runs fn in one transaction and commits when it returns nil.
func inTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}
