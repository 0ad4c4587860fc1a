package events

import (
	"context"
	"testing"
	"time"

	"github.com/AdamBeresnev/esports-bracket/internal/bracket"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishAndDecode(t *testing.T) {
	pubsub := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 4}, watermill.NopLogger{})
	defer pubsub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	msgs, err := pubsub.Subscribe(ctx, TopicMapResolved)
	require.NoError(t, err)

	ev := MapResolved{
		TournamentID: uuid.New(),
		MatchID:      uuid.New(),
		Round:        bracket.WinnerFinal,
		BestOf:       3,
		Maps:         []string{"mirage", "inferno", "dust2"},
		ResolvedAt:   time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, NewPublisher(pubsub).Publish(ctx, ev))

	select {
	case msg := <-msgs:
		msg.Ack()
		assert.Equal(t, ev.TournamentID.String(), msg.Metadata.Get(MetadataTournamentID))

		got, err := Decode[MapResolved](msg)
		require.NoError(t, err)
		assert.Equal(t, ev.Maps, got.Maps)
		assert.Equal(t, ev.Round, got.Round)
		assert.True(t, ev.ResolvedAt.Equal(got.ResolvedAt))
	case <-ctx.Done():
		t.Fatal("no message received")
	}
}

func TestSlotChangeJSON(t *testing.T) {
	ev := Advancement{
		TournamentID: uuid.New(),
		Slots: []SlotChange{{
			Round:  bracket.LoserRound1_1,
			Slot:   bracket.Team2,
			Status: bracket.MatchScheduled,
		}},
	}
	pubsub := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 1, Persistent: true}, watermill.NopLogger{})
	defer pubsub.Close()
	require.NoError(t, NewPublisher(pubsub).Publish(context.Background(), ev))

	msgs, err := pubsub.Subscribe(context.Background(), TopicAdvancement)
	require.NoError(t, err)
	msg := <-msgs
	msg.Ack()
	assert.Contains(t, string(msg.Payload), `"slot":"team2"`)
}
