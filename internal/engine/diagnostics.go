package engine

import (
	"context"
	"time"

	"github.com/vk/galaxevo/internal/ctxlog"
	"github.com/vk/galaxevo/internal/event"
	"github.com/vk/galaxevo/internal/module"
)

// Diagnostics observes phase timing and event-occurrence counts. The
// runtime reports; interpretation and free-text rendering belong to the
// collaborator behind this interface.
type Diagnostics interface {
	PhaseStarted(phase module.Phase, snapshot int)
	PhaseEnded(phase module.Phase, snapshot int, elapsed time.Duration, err error)
	TreeDone(treeIndex int, eventCounts map[event.Type]uint64)
}

// NopDiagnostics ignores every report.
type NopDiagnostics struct{}

func (NopDiagnostics) PhaseStarted(module.Phase, int)                       {}
func (NopDiagnostics) PhaseEnded(module.Phase, int, time.Duration, error)   {}
func (NopDiagnostics) TreeDone(int, map[event.Type]uint64)                  {}

// LogDiagnostics writes phase timing and event counts through the context
// logger at debug level, with tree summaries at info.
type LogDiagnostics struct {
	ctx context.Context
}

// NewLogDiagnostics returns diagnostics bound to the given context's logger.
func NewLogDiagnostics(ctx context.Context) *LogDiagnostics {
	return &LogDiagnostics{ctx: ctx}
}

func (d *LogDiagnostics) PhaseStarted(phase module.Phase, snapshot int) {
	ctxlog.FromContext(d.ctx).Debug("phase started", "phase", phase, "snapshot", snapshot)
}

func (d *LogDiagnostics) PhaseEnded(phase module.Phase, snapshot int, elapsed time.Duration, err error) {
	logger := ctxlog.FromContext(d.ctx)
	if err != nil {
		logger.Warn("phase failed", "phase", phase, "snapshot", snapshot, "elapsed", elapsed, "error", err)
		return
	}
	logger.Debug("phase ended", "phase", phase, "snapshot", snapshot, "elapsed", elapsed)
}

func (d *LogDiagnostics) TreeDone(treeIndex int, eventCounts map[event.Type]uint64) {
	ctxlog.FromContext(d.ctx).Info("tree processed", "tree", treeIndex, "event_counts", eventCounts)
}
