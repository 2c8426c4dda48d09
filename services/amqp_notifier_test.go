package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"touchline_server/models"
)

type fakePublisher struct {
	key     string
	payload any
	err     error
}

func (p *fakePublisher) PublishJSON(ctx context.Context, key string, v any) error {
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("publish without deadline")
	}
	p.key = key
	p.payload = v
	return p.err
}

func TestAMQPNotifierRoutesByEvent(t *testing.T) {
	t.Parallel()
	pub := &fakePublisher{}
	n := AMQPNotifier{Publisher: pub}

	err := n.Notify(context.Background(), models.MatchEvent{
		MatchID:        "m-1",
		ConversationID: "c-1",
		Event:          models.EventMatchConfirmed,
		NewStage:       models.StageMatchConfirmed,
		Match:          matchAt(models.MatchKindPlayerToTeam, models.StageMatchConfirmed),
	})
	require.NoError(t, err)
	assert.Equal(t, "match.match_confirmed", pub.key)

	event, ok := pub.payload.(models.MatchEvent)
	require.True(t, ok)
	assert.Nil(t, event.Match)
	assert.Equal(t, "c-1", event.ConversationID)
}

func TestAMQPNotifierReturnsPublishError(t *testing.T) {
	t.Parallel()
	n := AMQPNotifier{Publisher: &fakePublisher{err: errors.New("channel closed")}}
	err := n.Notify(context.Background(), models.MatchEvent{Event: models.EventMatchDeclined})
	require.ErrorContains(t, err, "channel closed")
	assert.Equal(t, "amqp", n.Name())
}
