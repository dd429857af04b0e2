// Package telemetry bundles the side effects that ride along every
// committed command but are never allowed to affect whether that command
// succeeded: metrics, the audit trail, the durable event log, and the
// cross-instance dirty-signal fan-out. A pipeline with any of its adapters
// left unset (external service unavailable at startup) simply skips that
// side effect instead of failing the command.
package telemetry

import (
	"context"
	"log/slog"
	"time"

	"github.com/duskcircle/nightwatch/internal/adapter/eventbus"
	"github.com/duskcircle/nightwatch/internal/adapter/eventlog"
	"github.com/duskcircle/nightwatch/internal/adapter/store"
	"github.com/duskcircle/nightwatch/internal/domain/entity"
	"github.com/duskcircle/nightwatch/internal/pkg/audit"
	"github.com/duskcircle/nightwatch/internal/pkg/metrics"
)

type Pipeline struct {
	Metrics *metrics.Metrics
	Audit   *audit.Trail
	Store   *store.Store
	Bus     *eventbus.EventBus
	Log     *eventlog.EventLog
	logger  *slog.Logger
}

func NewPipeline(m *metrics.Metrics, a *audit.Trail, st *store.Store, bus *eventbus.EventBus, log *eventlog.EventLog, logger *slog.Logger) *Pipeline {
	return &Pipeline{Metrics: m, Audit: a, Store: st, Bus: bus, Log: log, logger: logger}
}

// lockTTL bounds how long a cross-instance advisory lock survives a process
// that acquires it and then dies before releasing.
const lockTTL = 5 * time.Second

// AcquireLock takes the cross-instance advisory lock for a session before
// its command is dispatched, so that a deployment running more than one
// server process still serializes commands against the same session. With
// no store configured it reports success unconditionally: the in-process
// session lock is still the sole serialization region for a single
// instance. A false return with a nil error means another instance
// currently holds the lock; a non-nil error means the store itself
// couldn't be reached.
func (p *Pipeline) AcquireLock(ctx context.Context, sessionID string) (bool, error) {
	if p.Store == nil {
		return true, nil
	}
	ok, err := p.Store.AcquireLock(ctx, sessionID, lockTTL)
	if err != nil {
		p.logger.Error("failed to acquire distributed session lock", "session_id", sessionID, "error", err)
		return false, entity.ErrInternal
	}
	return ok, nil
}

// ReleaseLock releases the advisory lock taken by AcquireLock. Caller must
// only call this after a successful AcquireLock for the same session.
func (p *Pipeline) ReleaseLock(ctx context.Context, sessionID string) {
	if p.Store == nil {
		return
	}
	if err := p.Store.ReleaseLock(ctx, sessionID); err != nil {
		p.logger.Warn("failed to release distributed session lock", "session_id", sessionID, "error", err)
	}
}

// AfterCommand runs every side effect for one dispatched command. It is
// called with the session lock already released.
func (p *Pipeline) AfterCommand(session *entity.Session, participantID, action string, cmdErr error, duration time.Duration) {
	if p.Metrics != nil {
		p.Metrics.ObserveCommand(action, cmdErr, duration)
	}
	if p.Audit != nil {
		p.Audit.Record(session.ID, participantID, action, session.Phase, cmdErr)
	}
	if cmdErr != nil {
		return
	}

	if p.Metrics != nil {
		p.Metrics.ObservePhase(string(session.Phase))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if p.Store != nil {
		if err := p.Store.SaveSession(ctx, session); err != nil {
			p.logger.Warn("failed to persist session snapshot", "session_id", session.ID, "error", err)
		}
	}
	if p.Bus != nil {
		if err := p.Bus.PublishDirty(ctx, session.ID, action); err != nil {
			p.logger.Warn("failed to publish dirty signal", "session_id", session.ID, "error", err)
		}
	}
	if p.Log != nil {
		if err := p.Log.Append(ctx, eventlog.Record{
			SessionID:     session.ID,
			ParticipantID: participantID,
			Action:        action,
			ResultPhase:   session.Phase,
		}); err != nil {
			p.logger.Warn("failed to append event log record", "session_id", session.ID, "error", err)
		}
	}
}

// AfterDelete cascades removal of a session from the durable store.
func (p *Pipeline) AfterDelete(sessionID string) {
	if p.Store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := p.Store.DeleteSession(ctx, sessionID); err != nil {
		p.logger.Warn("failed to delete session from store", "session_id", sessionID, "error", err)
	}
}
