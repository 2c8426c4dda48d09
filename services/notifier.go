package services

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"touchline_server/models"
)

// Notifier receives match events after a committed change. Implementations
// must not assume their error is acted on: a failed notification never rolls
// back the match mutation.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, event models.MatchEvent) error
}

// MultiNotifier fans an event out to every sink concurrently and swallows
// sink failures after logging and counting them.
type MultiNotifier struct {
	Sinks   []Notifier
	Logger  *zap.Logger
	Metrics *Metrics
}

// Dispatch delivers event to every sink and waits for all of them.
func (n *MultiNotifier) Dispatch(ctx context.Context, event models.MatchEvent) {
	if n == nil || len(n.Sinks) == 0 {
		return
	}
	logger := n.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var g errgroup.Group
	for _, sink := range n.Sinks {
		g.Go(func() error {
			if err := sink.Notify(ctx, event); err != nil {
				logger.Warn("match notification failed",
					zap.String("sink", sink.Name()),
					zap.String("matchId", event.MatchID),
					zap.String("event", string(event.Event)),
					zap.Error(err))
				n.Metrics.recordNotifyFailure(sink.Name())
			}
			return nil
		})
	}
	_ = g.Wait()
}

// LogNotifier writes every event to the log.
type LogNotifier struct {
	Logger *zap.Logger
}

func (LogNotifier) Name() string { return "log" }

func (l LogNotifier) Notify(_ context.Context, event models.MatchEvent) error {
	if l.Logger == nil {
		return nil
	}
	l.Logger.Info("match event",
		zap.String("matchId", event.MatchID),
		zap.String("conversationId", event.ConversationID),
		zap.String("event", string(event.Event)),
		zap.String("previousStage", string(event.PreviousStage)),
		zap.String("newStage", string(event.NewStage)),
		zap.String("actorId", event.ActorID))
	return nil
}
