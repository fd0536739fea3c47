package relationship

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
)

// InteractionEvent is the wire shape published to the
// relationship-interactions topic.
type InteractionEvent struct {
	RelationshipID string            `json:"relationship_id"`
	Type           string            `json:"type"`
	InitiatorOrgID string            `json:"initiator_org_id"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	OccurredAt     time.Time         `json:"occurred_at"`
}

// publishInteraction emits the interaction to Kafka after commit. Best-effort:
// a publish failure is logged, never surfaced, since the DB is the source of
// truth for the audit trail.
func (s *service) publishInteraction(ctx context.Context, it *RelationshipInteraction) {
	if s.kafkaWriter == nil || it == nil {
		return
	}
	event := InteractionEvent{
		RelationshipID: it.RelationshipID.String(),
		Type:           string(it.Type),
		InitiatorOrgID: it.InitiatorOrgID.String(),
		Metadata:       it.Metadata,
		OccurredAt:     time.Now(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		logger.Error().Err(err).Msg("failed to marshal interaction event")
		return
	}
	err = s.kafkaWriter.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.RelationshipID),
		Value: payload,
	})
	if err != nil {
		logger.Error().Err(err).Str("relationship_id", event.RelationshipID).
			Msg("failed to publish interaction event")
	}
}
