// Package signature abstracts the external identity-signature flow. The
// engine never assumes a provider completes synchronously; resolution
// arrives through a callback or an explicit poll.
package signature

import (
	"context"
	"time"
)

type Outcome string

const (
	OutcomePending   Outcome = "pending"
	OutcomeSuccess   Outcome = "success"
	OutcomeFailure   Outcome = "failure"
	OutcomeCancelled Outcome = "cancelled"
)

// Request carries the rendered document and the metadata the provider
// needs to drive the out-of-band signing flow.
type Request struct {
	SubmissionID string
	DocumentName string
	SignerName   string
	Document     []byte
}

// Initiation is the provider's answer to Initiate: the transaction handle
// and the continuation the caller is sent to (a redirect target for
// browser-driven providers).
type Initiation struct {
	TransactionID   string `json:"transaction_id"`
	ContinuationRef string `json:"continuation_ref"`
}

type Resolution struct {
	Outcome     Outcome   `json:"outcome"`
	ArtifactURL string    `json:"artifact_url,omitempty"`
	SignedAt    time.Time `json:"signed_at,omitempty"`
}

type Provider interface {
	// Initiate must be replay-safe: retrying for the same submission before
	// observing a response returns the first transaction, without duplicate
	// side effects.
	Initiate(ctx context.Context, req Request) (Initiation, error)
	// Resolve drives or polls the transaction to a terminal outcome.
	Resolve(ctx context.Context, transactionID string) (Resolution, error)
	// Cancel abandons the transaction and releases provider-side resources.
	Cancel(ctx context.Context, transactionID string) error
}
