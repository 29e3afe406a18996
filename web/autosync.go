// ABOUTME: Background calendar sync driven by the stored autoSync setting
// ABOUTME: Runs beside the HTTP server and stops with its context
package web

import (
	"context"
	"time"
)

// AutoSync syncs the calendar every interval while the stored settings have
// autoSync on and Google is connected. It blocks until ctx is cancelled.
func (s *Server) AutoSync(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		s.autoSyncOnce(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// autoSyncOnce reports whether a sync was attempted.
func (s *Server) autoSyncOnce(ctx context.Context) bool {
	if s.deps.Calendar == nil || s.deps.Tokens == nil || s.deps.Events == nil {
		return false
	}
	settings, err := s.deps.Events.Settings(ctx)
	if err != nil {
		s.logger.Warn("auto sync skipped", "err", err)
		return false
	}
	if !settings.AutoSync || !s.deps.Tokens.Connected(ctx) {
		return false
	}

	events, err := s.deps.Calendar.Sync(ctx, settings.SyncMonthsBefore, settings.SyncMonthsAfter)
	if err != nil {
		s.logger.Warn("auto sync failed", "err", err)
		return true
	}
	s.logger.Debug("auto sync completed", "events", len(events))
	return true
}
