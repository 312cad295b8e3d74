package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alanyoungcy/marketlens/internal/domain"
)

const (
	// RefreshLockKey guards the election refresh across replicas.
	RefreshLockKey = "election-refresh"
	// UpdatedChannel carries a notice after each successful refresh.
	UpdatedChannel = "marketlens:election:updated"
)

// ElectionRefresher recomputes and stores the election snapshot.
type ElectionRefresher interface {
	RefreshElection(ctx context.Context) (domain.ElectionSnapshot, error)
}

// UpdateNotice is the payload published on UpdatedChannel.
type UpdateNotice struct {
	UpdatedAt time.Time `json:"updatedAt"`
	Ratings   int       `json:"ratings"`
	Primaries int       `json:"primaries"`
	Partial   bool      `json:"partial"`
}

// Refresher runs the election refresh. With a lock manager only one replica
// refreshes at a time; with a bus each success is announced.
type Refresher struct {
	svc     ElectionRefresher
	locks   domain.LockManager
	bus     domain.SignalBus
	lockTTL time.Duration
	logger  *slog.Logger
}

// NewRefresher creates a Refresher. locks and bus may be nil.
func NewRefresher(svc ElectionRefresher, locks domain.LockManager, bus domain.SignalBus, lockTTL time.Duration, logger *slog.Logger) *Refresher {
	return &Refresher{
		svc:     svc,
		locks:   locks,
		bus:     bus,
		lockTTL: lockTTL,
		logger:  logger.With(slog.String("component", "election_refresher")),
	}
}

// Run performs one refresh. A lock held by another replica skips the run
// without error; a lock backend failure is logged and the refresh goes
// ahead unguarded.
func (r *Refresher) Run(ctx context.Context) error {
	if r.locks != nil {
		unlock, err := r.locks.Acquire(ctx, RefreshLockKey, r.lockTTL)
		switch {
		case errors.Is(err, domain.ErrLockHeld):
			r.logger.InfoContext(ctx, "refresh lock held elsewhere, skipping run")
			return nil
		case err != nil:
			r.logger.WarnContext(ctx, "refresh lock unavailable, refreshing unguarded",
				slog.String("error", err.Error()),
			)
		default:
			defer unlock()
		}
	}

	snap, err := r.svc.RefreshElection(ctx)
	if err != nil {
		return fmt.Errorf("pipeline: refresh election: %w", err)
	}
	r.announce(ctx, snap)
	return nil
}

func (r *Refresher) announce(ctx context.Context, snap domain.ElectionSnapshot) {
	if r.bus == nil {
		return
	}
	payload, err := json.Marshal(UpdateNotice{
		UpdatedAt: snap.UpdatedAt,
		Ratings:   len(snap.Ratings),
		Primaries: len(snap.Primaries),
		Partial:   snap.Partial,
	})
	if err != nil {
		r.logger.WarnContext(ctx, "encode update notice failed", slog.String("error", err.Error()))
		return
	}
	if err := r.bus.Publish(ctx, UpdatedChannel, payload); err != nil {
		r.logger.WarnContext(ctx, "publish update notice failed", slog.String("error", err.Error()))
	}
}

// RunLoop runs the refresher on a repeating interval until the context is
// cancelled.
func (r *Refresher) RunLoop(ctx context.Context, interval time.Duration) error {
	// Run immediately on start.
	if err := r.Run(ctx); err != nil {
		r.logger.Error("election refresh failed", slog.String("error", err.Error()))
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("election refresher loop stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := r.Run(ctx); err != nil {
				r.logger.Error("election refresh failed", slog.String("error", err.Error()))
			}
		}
	}
}
