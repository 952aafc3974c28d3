package audit

import (
	"context"
	"time"
)

// EventCategory classifies audit events by their primary purpose so sinks can
// route or retain them differently.
type EventCategory string

const (
	// CategoryCompliance covers the permanent record: initialization and
	// certificate issuance.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers changes to who may act on the registry.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers everything else.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted by the registry after a mutation commits. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID        string        `json:"id"`
	Category  EventCategory `json:"category"`
	Action    string        `json:"action"`
	Timestamp time.Time     `json:"timestamp"`
	// Caller is the hex address that invoked the operation.
	Caller string `json:"caller"`
	// Subject is the hex address the event is about: the administrator,
	// the issuer or the certificate recipient.
	Subject  string   `json:"subject"`
	TokenIDs []uint64 `json:"token_ids,omitempty"`
	Detail   string   `json:"detail,omitempty"`

	RequestID   string `json:"request_id,omitempty"`
	ClientIP    string `json:"client_ip,omitempty"`
	ClientAgent string `json:"client_agent,omitempty"`
}

type AuditEvent string

const (
	EventRegistryInitialized     AuditEvent = "registry_initialized"
	EventIssuerAdded             AuditEvent = "issuer_added"
	EventIssuerRemoved           AuditEvent = "issuer_removed"
	EventIssuerReputationUpdated AuditEvent = "issuer_reputation_updated"
	EventCertificateIssued       AuditEvent = "certificate_issued"
	EventCertificatesBatchIssued AuditEvent = "certificates_batch_issued"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventRegistryInitialized:     CategoryCompliance,
	EventCertificateIssued:       CategoryCompliance,
	EventCertificatesBatchIssued: CategoryCompliance,

	EventIssuerAdded:   CategorySecurity,
	EventIssuerRemoved: CategorySecurity,

	EventIssuerReputationUpdated: CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Store persists events and lists them back by subject.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListBySubject(ctx context.Context, subject string) ([]Event, error)
}

// Sink receives a copy of every stored event. Sinks are write-only.
type Sink interface {
	Append(ctx context.Context, event Event) error
}
