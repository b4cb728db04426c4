package domain

import (
	"encoding/json"
	"time"
)

// WebhookEvent is a verified inbound webhook delivery.
type WebhookEvent struct {
	Topic      string
	Shop       string
	Payload    json.RawMessage
	ReceivedAt time.Time
}
