package impl_idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	port_persistence "github.com/PedroCamargo-dev/core-bank-remittance-service/internal/ports/gateway/persistence"
	port_platform "github.com/PedroCamargo-dev/core-bank-remittance-service/internal/ports/gateway/platform"
	"golang.org/x/sync/singleflight"
)

// Snapshot is what an operation leaves behind for replays: the id of the
// resource it created and the response body to hand back.
type Snapshot struct {
	ResourceID string
	Body       json.RawMessage
}

type Outcome struct {
	Snapshot
	Replayed bool
}

type Operation func(ctx context.Context) (Snapshot, error)

// Guard runs an operation at most once per idempotency key.
//
// Callers racing on the same key inside one process are collapsed by a
// singleflight group. Across processes the record insert is an
// insert-if-absent inside the operation's unit of work, so a losing writer
// rolls back its side effects and replays the winner's snapshot.
type Guard struct {
	uow   port_persistence.UnitOfWork
	repo  port_persistence.IdempotencyRepository
	clock port_platform.Clock

	inflight singleflight.Group
}

func NewGuard(
	uow port_persistence.UnitOfWork,
	repo port_persistence.IdempotencyRepository,
	clock port_platform.Clock,
) *Guard {
	return &Guard{uow: uow, repo: repo, clock: clock}
}

// Execute runs op under key. An empty key opts out of deduplication. Failed
// operations leave no record, so the same key can be retried.
func (g *Guard) Execute(ctx context.Context, key string, requestHash string, op Operation) (Outcome, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		var snap Snapshot
		err := g.uow.WithinTx(ctx, func(ctx context.Context) error {
			var err error
			snap, err = op(ctx)
			return err
		})
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{Snapshot: snap}, nil
	}

	leader := false
	v, err, _ := g.inflight.Do(key, func() (any, error) {
		leader = true
		return g.execute(ctx, key, requestHash, op)
	})
	if err != nil {
		return Outcome{}, err
	}

	out := v.(Outcome)
	// Followers waited on someone else's execution, so for them it is a replay.
	if !leader {
		out.Replayed = true
	}
	return out, nil
}

func (g *Guard) execute(ctx context.Context, key, requestHash string, op Operation) (Outcome, error) {
	if out, found, err := g.replay(ctx, key, requestHash); err != nil || found {
		return out, err
	}

	var (
		snap  Snapshot
		opErr error
	)
	err := g.uow.WithinTx(ctx, func(ctx context.Context) error {
		snap, opErr = op(ctx)
		if opErr != nil {
			return opErr
		}

		return g.repo.Insert(ctx, port_persistence.IdempotencyRecord{
			Key:         key,
			RequestHash: requestHash,
			ResourceID:  snap.ResourceID,
			Response:    snap.Body,
			CreatedAt:   g.clock.Now(),
		})
	})

	switch {
	case err == nil:
		return Outcome{Snapshot: snap}, nil
	case errors.Is(err, port_persistence.ErrDuplicateKey):
		slog.InfoContext(ctx, "idempotency key claimed concurrently, replaying stored result", "idempotency_key", key)
		out, found, rerr := g.replay(ctx, key, requestHash)
		if rerr != nil {
			return Outcome{}, rerr
		}
		if !found {
			return Outcome{}, fmt.Errorf("%w: idempotency record for %q missing after conflict", port_persistence.ErrStorageFailure, key)
		}
		return out, nil
	case opErr != nil:
		return Outcome{}, opErr
	default:
		return Outcome{}, fmt.Errorf("%w: store idempotency record: %w", port_persistence.ErrStorageFailure, err)
	}
}

func (g *Guard) replay(ctx context.Context, key, requestHash string) (Outcome, bool, error) {
	rec, err := g.repo.Get(ctx, key)
	if errors.Is(err, port_persistence.ErrNotFound) {
		return Outcome{}, false, nil
	}
	if err != nil {
		return Outcome{}, false, fmt.Errorf("%w: load idempotency record: %w", port_persistence.ErrStorageFailure, err)
	}

	if requestHash != "" && rec.RequestHash != "" && rec.RequestHash != requestHash {
		slog.WarnContext(ctx, "idempotency key reused with a different request, replaying original result",
			"idempotency_key", key,
			"resource_id", rec.ResourceID,
		)
	}

	return Outcome{
		Snapshot: Snapshot{ResourceID: rec.ResourceID, Body: rec.Response},
		Replayed: true,
	}, true, nil
}
