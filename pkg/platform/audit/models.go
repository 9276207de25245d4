package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventCategory classifies audit events by their primary purpose.
type EventCategory string

const (
	// CategoryCompliance covers value movements and record creation. These
	// must be persisted or the business operation fails.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers operator actions that change balances or
	// freeze holders outside the vault flow.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers routine activity.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Addresses are
// carried as base58 text so sinks never need the domain types.
type Event struct {
	Category  EventCategory
	Timestamp time.Time
	Action    string
	Subject   string // owner identity or operator acting
	Asset     string
	Access    string
	Holder    string
	Amount    uint64
	RequestID string
	ClientIP  string
	Client    string // user agent summary, see DescribeClient
}

type AuditEvent string

const (
	// Vault events
	EventPoolInitialized   AuditEvent = "vault_pool_initialized"
	EventAccessInitialized AuditEvent = "vault_access_initialized"
	EventDeposited         AuditEvent = "vault_deposited"
	EventWithdrawn         AuditEvent = "vault_withdrawn"

	// Operator events
	EventHolderOpened AuditEvent = "token_holder_opened"
	EventHolderMinted AuditEvent = "token_holder_minted"
	EventHolderFrozen AuditEvent = "token_holder_frozen"
	EventTokenIssued  AuditEvent = "bearer_token_issued"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventAccessInitialized: CategoryCompliance,
	EventDeposited:         CategoryCompliance,
	EventWithdrawn:         CategoryCompliance,

	EventHolderMinted: CategorySecurity,
	EventHolderFrozen: CategorySecurity,
	EventTokenIssued:  CategorySecurity,

	EventPoolInitialized: CategoryOperations,
	EventHolderOpened:    CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Store appends events. Outbox-backed stores write inside the caller's
// transaction when the context carries one.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// OutboxEntry is one pending message for the outbox worker.
type OutboxEntry struct {
	ID            uuid.UUID
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
	CreatedAt     time.Time
}

// Payload is the JSON body published to Kafka.
type Payload struct {
	ID        string `json:"id"`
	Category  string `json:"category"`
	Timestamp string `json:"timestamp"`
	Action    string `json:"action"`
	Subject   string `json:"subject,omitempty"`
	Asset     string `json:"asset,omitempty"`
	Access    string `json:"access,omitempty"`
	Holder    string `json:"holder,omitempty"`
	Amount    uint64 `json:"amount,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	ClientIP  string `json:"client_ip,omitempty"`
	Client    string `json:"client,omitempty"`
}

// NewOutboxEntry serializes event into an outbox entry. The category is
// always derived from the action. Events about an access record are keyed
// by it so Kafka keeps them ordered per record.
func NewOutboxEntry(event Event, now time.Time) (OutboxEntry, error) {
	eventID := uuid.New()
	if event.Timestamp.IsZero() {
		event.Timestamp = now
	}
	payload := Payload{
		ID:        eventID.String(),
		Category:  string(AuditEvent(event.Action).Category()),
		Timestamp: event.Timestamp.UTC().Format(time.RFC3339Nano),
		Action:    event.Action,
		Subject:   event.Subject,
		Asset:     event.Asset,
		Access:    event.Access,
		Holder:    event.Holder,
		Amount:    event.Amount,
		RequestID: event.RequestID,
		ClientIP:  event.ClientIP,
		Client:    event.Client,
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return OutboxEntry{}, fmt.Errorf("marshal audit payload: %w", err)
	}

	entry := OutboxEntry{
		ID:            uuid.New(),
		AggregateType: "audit",
		AggregateID:   eventID.String(),
		EventType:     event.Action,
		Payload:       raw,
		CreatedAt:     now,
	}
	switch {
	case event.Access != "":
		entry.AggregateType = "vault_access"
		entry.AggregateID = event.Access
	case event.Holder != "":
		entry.AggregateType = "token_holder"
		entry.AggregateID = event.Holder
	}
	return entry, nil
}
