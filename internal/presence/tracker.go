package presence

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
)

const (
	// livenessWindow is how recently a marker must have been refreshed for
	// the user to still count as typing.
	livenessWindow = 5 * time.Second

	// stalenessWindow is the age past which markers are swept from storage.
	// It is deliberately wider than the liveness window so a marker expires
	// from reads before it is removed.
	stalenessWindow = 10 * time.Second
)

// MarkerStore persists typing markers keyed by thread and user.
type MarkerStore interface {
	Upsert(ctx context.Context, threadId, userId uuid.UUID, at time.Time) error
	List(ctx context.Context, threadId uuid.UUID, notBefore time.Time) ([]uuid.UUID, error)
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Tracker answers "who is typing in this thread right now". Markers are
// refreshed by clients on keystrokes and decay on their own; there is no
// explicit stop signal.
type Tracker struct {
	log   *log.Logger
	store MarkerStore

	now        func() time.Time
	sweepEvery time.Duration
}

func NewTracker(logger *log.Logger, store MarkerStore) *Tracker {
	return &Tracker{
		log:        logger,
		store:      store,
		now:        time.Now,
		sweepEvery: stalenessWindow,
	}
}

// MarkTyping records that the user is typing in the thread, refreshing any
// existing marker.
func (t *Tracker) MarkTyping(ctx context.Context, threadId, userId uuid.UUID) error {
	if err := t.store.Upsert(ctx, threadId, userId, t.now().UTC()); err != nil {
		return fmt.Errorf("upsert typing marker: %w", err)
	}

	return nil
}

// Typists returns the users whose markers are within the liveness window.
func (t *Tracker) Typists(ctx context.Context, threadId uuid.UUID) ([]uuid.UUID, error) {
	users, err := t.store.List(ctx, threadId, t.now().UTC().Add(-livenessWindow))
	if err != nil {
		return nil, fmt.Errorf("list typing markers: %w", err)
	}

	return users, nil
}

// Run sweeps stale markers until the context is canceled. Sweep failures are
// logged and retried on the next tick; markers past the liveness window are
// already invisible to readers, so a missed sweep costs only storage.
func (t *Tracker) Run(ctx context.Context) {
	ticker := time.NewTicker(t.sweepEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := t.store.DeleteBefore(ctx, t.now().UTC().Add(-stalenessWindow))
			if err != nil {
				t.log.Printf("failed to sweep typing markers: %s", err)
				continue
			}
			if removed > 0 {
				t.log.Printf("swept %d stale typing markers", removed)
			}
		}
	}
}
