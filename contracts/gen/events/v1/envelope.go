package v1

import (
	"encoding/json"
	"time"
)

// Envelope is the versioned event envelope shared by every publisher and
// consumer. Fields are append-only to stay backward compatible.
type Envelope struct {
	EventID          string          `json:"event_id"`
	EventType        string          `json:"event_type"`
	OccurredAt       time.Time       `json:"occurred_at"`
	SourceService    string          `json:"source_service"`
	TraceID          string          `json:"trace_id"`
	SchemaVersion    int             `json:"schema_version"`
	PartitionKeyPath string          `json:"partition_key_path"`
	PartitionKey     string          `json:"partition_key"`
	Data             json.RawMessage `json:"data"`
}

// Decode unmarshals Data into target.
func (e Envelope) Decode(target any) error {
	return json.Unmarshal(e.Data, target)
}
