// Package audit keeps an append-only trail of committed command outcomes,
// distinct from the operational slog output: every entry here is
// user-attributable (who did what to which session) and meant to survive
// independently of the process's general log stream.
package audit

import (
	"time"

	"go.uber.org/zap"

	"github.com/duskcircle/nightwatch/internal/domain/entity"
)

type Trail struct {
	logger *zap.Logger
}

func New(dev bool) (*Trail, error) {
	var logger *zap.Logger
	var err error
	if dev {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	return &Trail{logger: logger.Named("audit")}, nil
}

// Record appends one committed-command entry. err is the outcome of the
// command itself, never a failure of the audit trail; a failure to write
// an audit entry is not allowed to fail the command that already committed.
func (t *Trail) Record(sessionID, participantID, action string, resultPhase entity.Phase, err error) {
	fields := []zap.Field{
		zap.String("session_id", sessionID),
		zap.String("participant_id", participantID),
		zap.String("action", action),
		zap.String("result_phase", string(resultPhase)),
		zap.Time("at", time.Now()),
	}
	if err != nil {
		fields = append(fields, zap.Error(err))
		t.logger.Warn("command rejected", fields...)
		return
	}
	t.logger.Info("command committed", fields...)
}

func (t *Trail) Sync() error {
	return t.logger.Sync()
}
