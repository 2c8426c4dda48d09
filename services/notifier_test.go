package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"touchline_server/models"
)

type countingNotifier struct {
	name  string
	calls atomic.Int32
	err   error
}

func (n *countingNotifier) Name() string { return n.name }

func (n *countingNotifier) Notify(context.Context, models.MatchEvent) error {
	n.calls.Add(1)
	return n.err
}

func TestMultiNotifierDeliversToEverySink(t *testing.T) {
	t.Parallel()
	metrics, err := NewMetrics(prometheus.NewRegistry())
	require.NoError(t, err)

	core, logs := observer.New(zap.WarnLevel)
	ok := &countingNotifier{name: "ok"}
	broken := &countingNotifier{name: "broken", err: errors.New("exchange closed")}
	n := &MultiNotifier{Sinks: []Notifier{ok, broken}, Logger: zap.New(core), Metrics: metrics}

	n.Dispatch(context.Background(), models.MatchEvent{MatchID: "m-1", Event: models.EventMatchDeclined})

	assert.Equal(t, int32(1), ok.calls.Load())
	assert.Equal(t, int32(1), broken.calls.Load())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.notifyFailures.WithLabelValues("broken")))
	require.Equal(t, 1, logs.FilterMessage("match notification failed").Len())
	assert.Equal(t, "broken", logs.All()[0].ContextMap()["sink"])
}

func TestMultiNotifierNil(t *testing.T) {
	t.Parallel()
	var n *MultiNotifier
	assert.NotPanics(t, func() { n.Dispatch(context.Background(), models.MatchEvent{}) })
}

func TestLogNotifier(t *testing.T) {
	t.Parallel()
	core, logs := observer.New(zap.InfoLevel)
	n := LogNotifier{Logger: zap.New(core)}

	require.NoError(t, n.Notify(context.Background(), models.MatchEvent{
		MatchID:       "m-1",
		Event:         models.EventStageChanged,
		PreviousStage: models.StageTrialInvited,
		NewStage:      models.StageTrialScheduled,
	}))
	entries := logs.FilterMessage("match event").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "trial_scheduled", entries[0].ContextMap()["newStage"])
}
