package events

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannelPublisher_DeliversEncodedEvent(t *testing.T) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubSub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	messages, err := pubSub.Subscribe(ctx, "turns")
	require.NoError(t, err)

	at := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	ev := NewTurnCompleted(TurnSummary{
		RequestID: "r1",
		SessionID: "s1",
		Routes:    []string{"locator", "catalog"},
		Outlets:   3,
		Latency:   1500 * time.Millisecond,
	}, at)
	require.NoError(t, NewChannelPublisher(pubSub, "turns").Publish(ctx, ev))

	select {
	case msg := <-messages:
		msg.Ack()
		assert.Equal(t, TypeTurnCompleted, msg.Metadata.Get("type"))
		got, err := Decode(msg.Payload)
		require.NoError(t, err)
		assert.Equal(t, TypeTurnCompleted, got.Type)
		assert.True(t, at.Equal(got.OccurredAt))
		assert.Equal(t, "s1", got.Data["session_id"])
		assert.EqualValues(t, 1500, got.Data["latency_ms"])
		assert.Equal(t, []interface{}{"locator", "catalog"}, got.Data["routes"])
	case <-ctx.Done():
		t.Fatal("event not delivered")
	}
}

func TestDecode_RejectsUntypedPayload(t *testing.T) {
	_, err := Decode([]byte(`{"data":{}}`))
	assert.Error(t, err)

	_, err = Decode([]byte(`not json`))
	assert.Error(t, err)
}
