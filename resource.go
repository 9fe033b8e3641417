package sourcewatch

import "time"

// Resource is a snapshot of the watched remote resource.
//
// Resource is immutable after creation. Raw preserves the payload the
// snapshot was decoded from, for debugging or custom processing.
type Resource struct {
	// ID is the identifier of the remote resource.
	ID string `json:"id"`

	// Type is the resource's object type as reported by the endpoint.
	Type string `json:"type"`

	// Status is the lifecycle state the snapshot was taken in.
	Status Status `json:"status"`

	// Amount is the amount associated with the resource, in the smallest
	// currency unit. Zero if the resource carries no amount.
	Amount int64 `json:"amount,omitempty"`

	// Currency is the three-letter ISO currency code, if any.
	Currency string `json:"currency,omitempty"`

	// ClientSecret is the secret scoping status lookups for this resource.
	ClientSecret string `json:"client_secret,omitempty"`

	// Created is when the resource was created on the remote endpoint.
	Created time.Time `json:"created"`

	// Livemode reports whether the resource exists in live (vs. test) mode.
	Livemode bool `json:"livemode"`

	// Raw contains the payload bytes this snapshot was decoded from.
	Raw []byte `json:"-"`
}
