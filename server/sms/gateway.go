package sms

import (
	"context"
	"errors"
)

// DeliveryStatus is the normalized delivery vocabulary recorded on history
// rows. Provider-specific statuses are mapped down to exactly these values.
type DeliveryStatus string

const (
	DeliveryDelivered DeliveryStatus = "delivered"
	DeliveryFailed    DeliveryStatus = "failed"
	DeliveryPending   DeliveryStatus = "pending"
	DeliveryUnknown   DeliveryStatus = "unknown"
)

// ErrTimeout marks a send that was aborted by the provider-call deadline.
// Callers count it as a failed send but can distinguish it from
// provider rejections.
var ErrTimeout = errors.New("provider request timed out")

// SendReceipt is what a provider hands back for an accepted send request.
type SendReceipt struct {
	// MessageID is the provider message id/reference used for later
	// delivery-status lookups. May be empty when the provider omits it.
	MessageID string

	// ProviderResponse is the raw response body, recorded verbatim on the
	// history row.
	ProviderResponse string
}

// Gateway is the provider boundary: one send request per recipient, and a
// delivery-status lookup by provider message id.
type Gateway interface {
	Send(ctx context.Context, recipient, message string) (*SendReceipt, error)
	Status(ctx context.Context, messageID string) (DeliveryStatus, string, error)
}
