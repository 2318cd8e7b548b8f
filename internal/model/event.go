package model

import "time"

// StatusEvent is published on every transaction status change. Consumers
// (the notifier) receive it through the event stream instead of watching
// the database.
type StatusEvent struct {
	TransactionID  string            `json:"transaction_id"`
	OrganizationID string            `json:"organization_id,omitempty"`
	From           TransactionStatus `json:"from"`
	To             TransactionStatus `json:"to"`
	Reason         string            `json:"reason,omitempty"`
	OccurredAt     time.Time         `json:"occurred_at"`
}
