package models

import "time"

// Order represents a customer order as read from the order repository.
// The engine treats it as immutable within one request.
type Order struct {
	ID          string     `db:"id" json:"id"`
	Customer    string     `db:"customer" json:"customer"`
	Carrier     string     `db:"carrier" json:"carrier"`
	Destination string     `db:"destination" json:"destination"`
	Status      string     `db:"status" json:"status"`
	DeliveredAt *time.Time `db:"delivered_at" json:"delivered_at,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}

// OrderProduct represents a product line within an order
type OrderProduct struct {
	ID              int64     `db:"id" json:"id"`
	OrderID         string    `db:"order_id" json:"order_id"`
	ProductID       string    `db:"product_id" json:"product_id"`
	Name            string    `db:"name" json:"name"`
	Category        string    `db:"category" json:"category"`
	ReturnsAccepted bool      `db:"returns_accepted" json:"returns_accepted"`
	ReturnStatus    string    `db:"return_status" json:"return_status"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// Delivery statuses
const (
	OrderStatusPending   = "PENDING"
	OrderStatusInTransit = "IN_TRANSIT"
	OrderStatusDelivered = "DELIVERED"
)

// Return statuses on an order product line
const (
	ReturnStatusNone       = "NONE"
	ReturnStatusInProgress = "IN_PROGRESS"
	ReturnStatusCompleted  = "COMPLETED"
)

// ProductCondition is the caller-stated condition of the product being returned
type ProductCondition string

const (
	ConditionSealed           ProductCondition = "SEALED"
	ConditionOpenedNew        ProductCondition = "OPENED_NEW"
	ConditionUsed             ProductCondition = "USED"
	ConditionDamagedInTransit ProductCondition = "DAMAGED_IN_TRANSIT"
)

// Valid reports whether the condition is one of the known variants.
func (c ProductCondition) Valid() bool {
	switch c {
	case ConditionSealed, ConditionOpenedNew, ConditionUsed, ConditionDamagedInTransit:
		return true
	}
	return false
}

// ProcessCategory is the logistics track assigned to an eligible return
type ProcessCategory string

const (
	ProcessStandardPickup ProcessCategory = "STANDARD_PICKUP"
	ProcessPriorityPickup ProcessCategory = "PRIORITY_PICKUP"
	ProcessNone           ProcessCategory = "NONE"
)

// ReturnRequest is the transient per-invocation unit of work flowing through
// the pipeline. It is discarded once the pipeline reaches a terminal state.
type ReturnRequest struct {
	RequestID       string           `json:"request_id"`
	Subject         string           `json:"subject"`
	OrderID         string           `json:"order_id"`
	ProductID       string           `json:"product_id,omitempty"`
	Reason          string           `json:"reason"`
	Condition       ProductCondition `json:"condition"`
	RequestDate     time.Time        `json:"request_date"`
	CustomerName    string           `json:"customer_name,omitempty"`
	CustomerAddress string           `json:"customer_address,omitempty"`
}

// ValidationResult is the outcome of the order status check. When Exists is
// false the remaining fields carry no meaning.
type ValidationResult struct {
	Exists           bool          `json:"exists"`
	Delivered        bool          `json:"delivered"`
	DeliveredAt      *time.Time    `json:"delivered_at,omitempty"`
	ReturnInProgress bool          `json:"return_in_progress"`
	ExistingStatus   string        `json:"existing_status,omitempty"`
	Order            *Order        `json:"-"`
	Product          *OrderProduct `json:"-"`
}

// EligibilityDecision is the outcome of policy evaluation. RemainingDays is
// only meaningful when Eligible is true.
type EligibilityDecision struct {
	Eligible        bool            `json:"eligible"`
	Reason          string          `json:"reason"`
	ReasonCode      RejectionReason `json:"reason_code,omitempty"`
	ProcessCategory ProcessCategory `json:"process_category"`
	RemainingDays   int             `json:"remaining_days"`
	NextSteps       []string        `json:"next_steps,omitempty"`
}

// ReturnLabel is the return authorization issued for an eligible request.
// Never mutated after creation.
type ReturnLabel struct {
	RMAID         string          `db:"rma_id" json:"rma_id"`
	OrderID       string          `db:"order_id" json:"order_id"`
	ProductID     string          `db:"product_id" json:"product_id"`
	Carrier       string          `db:"carrier" json:"carrier"`
	ShipmentType  ProcessCategory `db:"shipment_type" json:"shipment_type"`
	Instructions  string          `db:"instructions" json:"instructions"`
	LabelURL      string          `db:"label_url" json:"label_url"`
	PickupWindow  string          `db:"pickup_window" json:"pickup_window"`
	Reason        string          `db:"reason" json:"reason"`
	CustomerName  string          `db:"customer_name" json:"customer_name"`
	PickupAddress string          `db:"pickup_address" json:"pickup_address"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
}

// Pipeline states
const (
	StateReceived              = "RECEIVED"
	StateValidating            = "VALIDATING"
	StateEvaluating            = "EVALUATING"
	StateLabeling              = "LABELING"
	StateCompleted             = "COMPLETED"
	StateRejectedAtValidation  = "REJECTED_AT_VALIDATION"
	StateRejectedAtEligibility = "REJECTED_AT_ELIGIBILITY"
	StateFailed                = "FAILED"
)

// RejectionReason identifies why a request was rejected or failed.
// Policy rejections are final; failures are retryable by the caller.
type RejectionReason string

const (
	ReasonNotFound            RejectionReason = "NOT_FOUND"
	ReasonProductNotFound     RejectionReason = "PRODUCT_NOT_FOUND"
	ReasonProductAmbiguous    RejectionReason = "PRODUCT_AMBIGUOUS"
	ReasonNotDelivered        RejectionReason = "NOT_DELIVERED"
	ReasonDeliveryDateUnknown RejectionReason = "DELIVERY_DATE_UNKNOWN"
	ReasonAlreadyInProgress   RejectionReason = "ALREADY_IN_PROGRESS"
	ReasonCategoryExcluded    RejectionReason = "CATEGORY_EXCLUDED"
	ReasonWindowExpired       RejectionReason = "WINDOW_EXPIRED"
	ReasonConditionUsed       RejectionReason = "CONDITION_USED"
	ReasonTimeout             RejectionReason = "TIMEOUT"
	ReasonInfrastructure      RejectionReason = "INFRASTRUCTURE"
)

// ReturnResult is the terminal outcome of one pipeline run.
type ReturnResult struct {
	RequestID  string               `json:"request_id"`
	State      string               `json:"state"`
	Reason     RejectionReason      `json:"reason,omitempty"`
	Message    string               `json:"message,omitempty"`
	Validation *ValidationResult    `json:"validation,omitempty"`
	Decision   *EligibilityDecision `json:"decision,omitempty"`
	Label      *ReturnLabel         `json:"label,omitempty"`
}

// Rejected reports whether the run terminated with a policy rejection.
func (r *ReturnResult) Rejected() bool {
	return r.State == StateRejectedAtValidation || r.State == StateRejectedAtEligibility
}

// Audit outcomes
const (
	AuditOutcomeSuccess  = "SUCCESS"
	AuditOutcomeRejected = "REJECTED"
	AuditOutcomeError    = "ERROR"
)

// AuditEntry records one pipeline stage transition. Append-only; Seq orders
// entries within a single request.
type AuditEntry struct {
	ID        int64     `db:"id" json:"id"`
	RequestID string    `db:"request_id" json:"request_id"`
	Seq       int       `db:"seq" json:"seq"`
	Subject   string    `db:"subject" json:"subject"`
	Stage     string    `db:"stage" json:"stage"`
	Outcome   string    `db:"outcome" json:"outcome"`
	Detail    string    `db:"detail" json:"detail"`
	Payload   string    `db:"payload" json:"payload"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ProcessedEvent for consumer idempotency
type ProcessedEvent struct {
	EventID     string    `db:"event_id"`
	EventType   string    `db:"event_type"`
	ProcessedAt time.Time `db:"processed_at"`
}
