package live

import (
	"encoding/json"

	"github.com/AdamBeresnev/esports-bracket/internal/events"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

const (
	TypeAdvancement     = "advancement"
	TypeScheduleShifted = "schedule_shifted"
	TypeMapResolved     = "map_resolved"
)

var broadcastTopics = map[string]string{
	events.TopicAdvancement:     TypeAdvancement,
	events.TopicScheduleShifted: TypeScheduleShifted,
	events.TopicMapResolved:     TypeMapResolved,
}

// Consume returns a handler that relays a bracket event to the room of the
// tournament named in its metadata. The payload is forwarded as-is.
func (h *Hub) Consume(msgType string) message.NoPublishHandlerFunc {
	return func(msg *message.Message) error {
		raw := msg.Metadata.Get(events.MetadataTournamentID)
		id, err := uuid.Parse(raw)
		if err != nil {
			// Redelivery cannot fix a bad id.
			h.logger.Warn("dropping event without tournament id", "type", msgType, "message_id", msg.UUID, "tournament_id", raw)
			return nil
		}
		if !json.Valid(msg.Payload) {
			h.logger.Warn("dropping event with invalid payload", "type", msgType, "message_id", msg.UUID)
			return nil
		}
		h.BroadcastToRoom(id, Message{Type: msgType, RoomID: id.String(), Payload: json.RawMessage(msg.Payload)})
		return nil
	}
}

// AddHandlers subscribes the hub to every topic it relays.
func (h *Hub) AddHandlers(router *message.Router, sub message.Subscriber) {
	for topic, msgType := range broadcastTopics {
		router.AddNoPublisherHandler("live."+topic, topic, sub, h.Consume(msgType))
	}
}
