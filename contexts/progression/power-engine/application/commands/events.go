package commands

import (
	"encoding/json"
	"time"

	"powertrack/contexts/progression/power-engine/ports"
)

const (
	EventPointsAwarded           = "power.points_awarded"
	EventTransformationUnlocked  = "power.transformation_unlocked"
	EventOffDayMarked            = "power.offday_marked"
	EventConsistencyBonusGranted = "power.consistency_bonus_granted"
	EventDailyMinimumChanged     = "power.daily_minimum_changed"
	powerEventSourceService      = "power-engine"
	powerEventPartitionKeyPath   = "user_id"
	powerEventSchemaVersion      = 1
)

// Ledger events are partitioned by user so consumers observe a user's
// commits in order.
func newPowerEnvelope(
	eventID string,
	eventType string,
	userID string,
	occurredAt time.Time,
	data map[string]any,
) (ports.EventEnvelope, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return ports.EventEnvelope{}, err
	}
	return ports.EventEnvelope{
		EventID:          eventID,
		EventType:        eventType,
		OccurredAt:       occurredAt.UTC(),
		SourceService:    powerEventSourceService,
		TraceID:          eventID,
		SchemaVersion:    powerEventSchemaVersion,
		PartitionKeyPath: powerEventPartitionKeyPath,
		PartitionKey:     userID,
		Data:             payload,
	}, nil
}
