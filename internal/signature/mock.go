package signature

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"certia/internal/objectstore"
	"certia/internal/render"
	"certia/pkg/dochash"
	"certia/pkg/domain"

	"github.com/google/uuid"
)

const (
	scopeInitiate = "signature.initiate"
	scopeTxn      = "signature.txn"
	scopeResolve  = "signature.resolve"
)

// IdemStore records provider responses so replays return the original
// answer instead of re-running side effects.
type IdemStore interface {
	GetIdempotencyRecord(ctx context.Context, scope, key string) (map[string]any, bool, error)
	SaveIdempotencyRecord(ctx context.Context, scope, key string, body map[string]any) error
}

// Mock simulates the national e-signature gateway: Initiate parks the
// unsigned PDF in temp storage and hands back a continuation URL; Resolve
// issues a stamped attestation artifact and cleans the temp object up.
type Mock struct {
	Objects objectstore.Store
	Idem    IdemStore
	BaseURL string

	// Stamp and Now are injectable for tests.
	Stamp func(signerName, transactionID, documentHash string, signedAt time.Time) []byte
	Now   func() time.Time
}

func NewMock(objects objectstore.Store, idem IdemStore, baseURL string) *Mock {
	return &Mock{
		Objects: objects,
		Idem:    idem,
		BaseURL: baseURL,
		Stamp:   render.SignedStamp,
		Now:     time.Now,
	}
}

func (m *Mock) Initiate(ctx context.Context, req Request) (Initiation, error) {
	if prev, found, err := m.Idem.GetIdempotencyRecord(ctx, scopeInitiate, req.SubmissionID); err != nil {
		return Initiation{}, err
	} else if found {
		return Initiation{
			TransactionID:   fmt.Sprint(prev["transaction_id"]),
			ContinuationRef: fmt.Sprint(prev["continuation_ref"]),
		}, nil
	}

	now := m.Now()
	txnID := fmt.Sprintf("MOCK_%d_%s", now.UnixMilli(), uuid.NewString()[:8])
	tempFile := fmt.Sprintf("temp_%s_%d.pdf", req.SubmissionID, now.UnixMilli())

	if err := m.Objects.Upload(ctx, objectstore.BucketTempSigs, tempFile, req.Document, "application/pdf"); err != nil {
		return Initiation{}, domain.Providerf("store unsigned document: %v", err)
	}

	continuation := fmt.Sprintf("%s/mock-firma?transactionId=%s&submissionId=%s&fileName=%s&documentName=%s",
		m.BaseURL, txnID, req.SubmissionID, tempFile, url.QueryEscape(req.DocumentName))

	txnRecord := map[string]any{
		"submission_id": req.SubmissionID,
		"temp_file":     tempFile,
		"signer_name":   req.SignerName,
		"document_hash": dochash.SHA256Hex(req.Document),
	}
	if err := m.Idem.SaveIdempotencyRecord(ctx, scopeTxn, txnID, txnRecord); err != nil {
		return Initiation{}, err
	}
	init := Initiation{TransactionID: txnID, ContinuationRef: continuation}
	if err := m.Idem.SaveIdempotencyRecord(ctx, scopeInitiate, req.SubmissionID, map[string]any{
		"transaction_id":   init.TransactionID,
		"continuation_ref": init.ContinuationRef,
	}); err != nil {
		return Initiation{}, err
	}
	return init, nil
}

func (m *Mock) Resolve(ctx context.Context, transactionID string) (Resolution, error) {
	if prev, found, err := m.Idem.GetIdempotencyRecord(ctx, scopeResolve, transactionID); err != nil {
		return Resolution{}, err
	} else if found {
		signedAt, _ := time.Parse(time.RFC3339Nano, fmt.Sprint(prev["signed_at"]))
		return Resolution{
			Outcome:     Outcome(fmt.Sprint(prev["outcome"])),
			ArtifactURL: fmt.Sprint(prev["artifact_url"]),
			SignedAt:    signedAt,
		}, nil
	}

	txn, found, err := m.Idem.GetIdempotencyRecord(ctx, scopeTxn, transactionID)
	if err != nil {
		return Resolution{}, err
	}
	if !found {
		return Resolution{}, domain.NotFoundf("signature transaction %s", transactionID)
	}
	submissionID := fmt.Sprint(txn["submission_id"])
	tempFile := fmt.Sprint(txn["temp_file"])
	signer := fmt.Sprint(txn["signer_name"])
	docHash := fmt.Sprint(txn["document_hash"])

	if _, _, err := m.Objects.Download(ctx, objectstore.BucketTempSigs, tempFile); err != nil {
		// temp artifact lost; the transaction cannot complete
		return Resolution{Outcome: OutcomeFailure}, nil
	}

	now := m.Now()
	stamped := m.Stamp(signer, transactionID, docHash, now)
	signedFile := fmt.Sprintf("signed_%s_%d.pdf", submissionID, now.UnixMilli())
	if err := m.Objects.Upload(ctx, objectstore.BucketSignedCerts, signedFile, stamped, "application/pdf"); err != nil {
		return Resolution{}, domain.Providerf("store signed document: %v", err)
	}
	artifactURL := m.Objects.PublicURL(objectstore.BucketSignedCerts, signedFile)
	_ = m.Objects.Remove(ctx, objectstore.BucketTempSigs, tempFile)

	res := Resolution{Outcome: OutcomeSuccess, ArtifactURL: artifactURL, SignedAt: now}
	if err := m.Idem.SaveIdempotencyRecord(ctx, scopeResolve, transactionID, map[string]any{
		"outcome":      string(res.Outcome),
		"artifact_url": res.ArtifactURL,
		"signed_at":    res.SignedAt.Format(time.RFC3339Nano),
	}); err != nil {
		return Resolution{}, err
	}
	return res, nil
}

func (m *Mock) Cancel(ctx context.Context, transactionID string) error {
	txn, found, err := m.Idem.GetIdempotencyRecord(ctx, scopeTxn, transactionID)
	if err != nil {
		return err
	}
	if !found {
		return domain.NotFoundf("signature transaction %s", transactionID)
	}
	return m.Objects.Remove(ctx, objectstore.BucketTempSigs, fmt.Sprint(txn["temp_file"]))
}
