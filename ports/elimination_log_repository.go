package ports

import (
	"context"

	"gprspc/domain/core"
	"gprspc/domain/spc"
)

// EliminationLogSink receives the elimination log of one method when a
// session is reset.
type EliminationLogSink interface {
	SaveLog(ctx context.Context, sessionID core.ID, method spc.Method, entries []spc.LogEntry) error
}

// EliminationLogRepository persists elimination logs across sessions
type EliminationLogRepository interface {
	EliminationLogSink

	// ListLog returns the stored entries of a session ordered by method then round
	ListLog(ctx context.Context, sessionID core.ID) ([]spc.LogEntry, error)

	// DeleteLog removes every entry of a session
	DeleteLog(ctx context.Context, sessionID core.ID) error
}
