package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Reconciler repairs conversation stage mirrors that drifted from their
// match, e.g. after a mirror write gave up. Running it repeatedly is safe.
type Reconciler struct {
	Matches       MatchRepository
	Conversations ConversationStore
	Logger        *zap.Logger
	Metrics       *Metrics
}

// ReconcileReport summarises one pass.
type ReconcileReport struct {
	Scanned  int `json:"scanned"`
	Repaired int `json:"repaired"`
	Orphaned int `json:"orphaned"`
	Failed   int `json:"failed"`
}

// Run performs one reconciliation pass over every conversation.
func (r *Reconciler) Run(ctx context.Context) (ReconcileReport, error) {
	logger := r.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var report ReconcileReport
	conversations, err := r.Conversations.ListConversations(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to list conversations: %w", err)
	}

	for _, conv := range conversations {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Scanned++
		if conv.MatchID == "" {
			report.Orphaned++
			continue
		}

		match, err := r.Matches.GetMatch(ctx, conv.MatchID)
		if errors.Is(err, ErrNotFound) {
			report.Orphaned++
			continue
		}
		if err != nil {
			report.Failed++
			logger.Warn("reconcile: match read failed", zap.String("matchId", conv.MatchID), zap.Error(err))
			continue
		}
		if match.Stage == conv.MatchProgressStage {
			continue
		}

		if err := r.Conversations.UpdateMatchProgressStage(ctx, conv.ConversationID, match.Stage, time.Now().UTC()); err != nil {
			report.Failed++
			logger.Warn("reconcile: mirror write failed", zap.String("conversationId", conv.ConversationID), zap.Error(err))
			continue
		}
		report.Repaired++
		r.Metrics.recordReconciled()
		logger.Info("reconcile: mirror repaired",
			zap.String("conversationId", conv.ConversationID),
			zap.String("from", string(conv.MatchProgressStage)),
			zap.String("to", string(match.Stage)))
	}
	return report, nil
}

// RunEvery runs a pass every interval until ctx is done.
func (r *Reconciler) RunEvery(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := r.Run(ctx); err != nil && r.Logger != nil {
				r.Logger.Warn("reconcile pass failed", zap.Error(err))
			}
		}
	}
}
