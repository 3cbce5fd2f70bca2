package models

import "time"

// Event types
const (
	EventTypeReturnCompleted = "RETURN_COMPLETED"
	EventTypeReturnRejected  = "RETURN_REJECTED"
	EventTypeReturnFailed    = "RETURN_FAILED"
	EventTypeAuditEntry      = "AUDIT_ENTRY"
	EventTypePickupScheduled = "PICKUP_SCHEDULED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// ReturnCompletedEvent published when a label has been issued
type ReturnCompletedEvent struct {
	BaseEvent
	RequestID       string          `json:"request_id"`
	OrderID         string          `json:"order_id"`
	ProductID       string          `json:"product_id"`
	RMAID           string          `json:"rma_id"`
	ProcessCategory ProcessCategory `json:"process_category"`
	Carrier         string          `json:"carrier"`
	PickupWindow    string          `json:"pickup_window"`
}

// ReturnRejectedEvent published when the pipeline rejects a request on policy
type ReturnRejectedEvent struct {
	BaseEvent
	RequestID string          `json:"request_id"`
	OrderID   string          `json:"order_id"`
	ProductID string          `json:"product_id,omitempty"`
	Stage     string          `json:"stage"`
	Reason    RejectionReason `json:"reason"`
	Detail    string          `json:"detail"`
}

// ReturnFailedEvent published on infrastructure failures (retryable)
type ReturnFailedEvent struct {
	BaseEvent
	RequestID string          `json:"request_id"`
	OrderID   string          `json:"order_id"`
	Reason    RejectionReason `json:"reason"`
	Detail    string          `json:"detail"`
}

// AuditEntryEvent wraps an audit entry for the Kafka audit sink
type AuditEntryEvent struct {
	BaseEvent
	Entry AuditEntry `json:"entry"`
}

// PickupScheduledEvent published by the carrier worker once pickup is booked
type PickupScheduledEvent struct {
	BaseEvent
	RMAID   string `json:"rma_id"`
	OrderID string `json:"order_id"`
	Carrier string `json:"carrier"`
	Window  string `json:"window"`
}
