// Package workflow owns the submission lifecycle: creation, review
// decisions, and the signature sub-process.
package workflow

import (
	"context"
	"errors"
	"strings"
	"time"

	"certia/internal/notify"
	"certia/internal/signature"
	"certia/internal/store"
	"certia/pkg/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Store is the persistence surface the engine drives. *store.Store
// satisfies it; tests use an in-memory fake.
type Store interface {
	GetTemplate(ctx context.Context, id string) (domain.Template, error)
	GetProfile(ctx context.Context, id string) (domain.Profile, error)
	CreateSubmission(ctx context.Context, sub domain.Submission) error
	GetSubmission(ctx context.Context, id string) (domain.Submission, error)
	GetSubmissionByTransaction(ctx context.Context, txnID string) (domain.Submission, error)
	UpdateSubmissionStatus(ctx context.Context, id string, from, to domain.Status, upd store.StatusUpdate) error
	ClearSignatureTransaction(ctx context.Context, id string, from domain.Status) error
	ListSubmissionsForCompany(ctx context.Context, companyID string, statusFilter domain.Status) ([]domain.Submission, error)
	ListSubmissionsForClient(ctx context.Context, clientID string) ([]domain.Submission, error)
}

type Renderer interface {
	Render(ctx context.Context, tpl domain.Template, data domain.FormData, recipientName string, generatedAt time.Time) ([]byte, error)
}

type Engine struct {
	Store    Store
	Renderer Renderer
	Provider signature.Provider
	Mailer   notify.Mailer
	Logger   *zap.Logger
	AppName  string
	Now      func() time.Time
}

func NewEngine(st Store, r Renderer, p signature.Provider, m notify.Mailer, logger *zap.Logger, appName string) *Engine {
	return &Engine{Store: st, Renderer: r, Provider: p, Mailer: m, Logger: logger, AppName: appName, Now: time.Now}
}

// CreateSubmission validates form data against the referenced template and
// writes the submission in pending. Inactive or missing templates are both
// reported as not found; clients cannot distinguish them.
func (e *Engine) CreateSubmission(ctx context.Context, templateID, clientID string, formData domain.FormData) (domain.Submission, error) {
	tpl, err := e.Store.GetTemplate(ctx, templateID)
	if err != nil {
		return domain.Submission{}, err
	}
	if !tpl.IsActive {
		return domain.Submission{}, domain.NotFoundf("active template %s", templateID)
	}
	if err := domain.ValidateFormData(tpl.Fields, formData); err != nil {
		return domain.Submission{}, err
	}

	sub := domain.Submission{
		ID:         "sub_" + uuid.NewString(),
		TemplateID: templateID,
		ClientID:   clientID,
		Status:     domain.StatusPending,
		FormData:   formData,
		CreatedAt:  e.Now().UTC(),
	}
	if err := e.Store.CreateSubmission(ctx, sub); err != nil {
		return domain.Submission{}, err
	}

	if client, err := e.Store.GetProfile(ctx, clientID); err == nil {
		if company, err := e.Store.GetProfile(ctx, tpl.CompanyID); err == nil {
			subject, body := notify.NewSubmissionEmail(e.AppName, tpl.Name, client.FullName)
			notify.Async(e.Logger, e.Mailer, company.Email, subject, body)
		}
		subject, body := notify.SubmissionConfirmationEmail(e.AppName, tpl.Name)
		notify.Async(e.Logger, e.Mailer, client.Email, subject, body)
	}
	return sub, nil
}

// Transition applies a reviewer decision. The signing edges are driven by
// StartSigning/ResolveSigning, never through here.
func (e *Engine) Transition(ctx context.Context, submissionID string, target domain.Status, actorID, notes string) (domain.Submission, error) {
	sub, err := e.Store.GetSubmission(ctx, submissionID)
	if err != nil {
		return sub, err
	}
	if err := domain.CheckTransition(sub.Status, target); err != nil {
		return sub, err
	}
	if !domain.IsReviewEdge(sub.Status, target) {
		return sub, domain.Unauthorizedf("%s -> %s is driven by the signing process", sub.Status, target)
	}
	if err := e.authorizeReviewer(ctx, sub, actorID); err != nil {
		return sub, err
	}
	if target == domain.StatusRejected && strings.TrimSpace(notes) == "" {
		return sub, domain.Validationf("rejection requires notes")
	}

	now := e.Now().UTC()
	upd := store.StatusUpdate{ReviewedAt: &now, ReviewedBy: &actorID}
	if strings.TrimSpace(notes) != "" {
		upd.Notes = &notes
	}
	if err := e.Store.UpdateSubmissionStatus(ctx, submissionID, sub.Status, target, upd); err != nil {
		return sub, err
	}

	if client, err := e.Store.GetProfile(ctx, sub.ClientID); err == nil {
		tplName := sub.TemplateID
		if tpl, err := e.Store.GetTemplate(ctx, sub.TemplateID); err == nil {
			tplName = tpl.Name
		}
		subject, body := notify.StatusChangeEmail(e.AppName, tplName, target, notes)
		notify.Async(e.Logger, e.Mailer, client.Email, subject, body)
	}
	return e.Store.GetSubmission(ctx, submissionID)
}

func (e *Engine) Review(ctx context.Context, submissionID, actorID string) (domain.Submission, error) {
	return e.Transition(ctx, submissionID, domain.StatusReviewed, actorID, "")
}

func (e *Engine) Approve(ctx context.Context, submissionID, actorID, notes string) (domain.Submission, error) {
	return e.Transition(ctx, submissionID, domain.StatusApproved, actorID, notes)
}

func (e *Engine) Reject(ctx context.Context, submissionID, actorID, notes string) (domain.Submission, error) {
	return e.Transition(ctx, submissionID, domain.StatusRejected, actorID, notes)
}

// StartSigning renders the certificate and opens a signature transaction.
// Nothing is persisted until the provider has answered: a failed Initiate
// leaves the submission in approved with no partial state.
func (e *Engine) StartSigning(ctx context.Context, submissionID, actorID string) (signature.Initiation, error) {
	sub, err := e.Store.GetSubmission(ctx, submissionID)
	if err != nil {
		return signature.Initiation{}, err
	}
	if err := domain.CheckTransition(sub.Status, domain.StatusSigning); err != nil {
		return signature.Initiation{}, err
	}
	if sub.SignedPDFURL != "" {
		return signature.Initiation{}, domain.Validationf("submission %s already has a signed artifact", submissionID)
	}
	if err := e.authorizeReviewer(ctx, sub, actorID); err != nil {
		return signature.Initiation{}, err
	}

	tpl, err := e.Store.GetTemplate(ctx, sub.TemplateID)
	if err != nil {
		return signature.Initiation{}, err
	}
	client, err := e.Store.GetProfile(ctx, sub.ClientID)
	if err != nil {
		return signature.Initiation{}, err
	}
	recipient := client.FullName
	if recipient == "" {
		recipient = client.Username
	}

	pdf, err := e.Renderer.Render(ctx, tpl, sub.FormData, recipient, e.Now().UTC())
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			return signature.Initiation{}, err
		}
		return signature.Initiation{}, domain.Providerf("document render: %v", err)
	}

	init, err := e.Provider.Initiate(ctx, signature.Request{
		SubmissionID: sub.ID,
		DocumentName: tpl.Name + ".pdf",
		SignerName:   recipient,
		Document:     pdf,
	})
	if err != nil {
		if errors.Is(err, domain.ErrProvider) {
			return signature.Initiation{}, err
		}
		return signature.Initiation{}, domain.Providerf("signature initiate: %v", err)
	}

	state := "signing"
	upd := store.StatusUpdate{TransactionID: &init.TransactionID, SignatureState: &state}
	if err := e.Store.UpdateSubmissionStatus(ctx, submissionID, domain.StatusApproved, domain.StatusSigning, upd); err != nil {
		// a concurrent transition won; release the provider-side transaction
		if cancelErr := e.Provider.Cancel(ctx, init.TransactionID); cancelErr != nil {
			e.Logger.Warn("orphaned signature transaction",
				zap.String("transaction_id", init.TransactionID), zap.Error(cancelErr))
		}
		return signature.Initiation{}, err
	}
	return init, nil
}

// ResolveSigning consumes an asynchronous provider outcome. Replaying a
// terminal outcome is a no-op.
func (e *Engine) ResolveSigning(ctx context.Context, transactionID string, res signature.Resolution) error {
	sub, err := e.Store.GetSubmissionByTransaction(ctx, transactionID)
	if err != nil {
		return err
	}

	switch res.Outcome {
	case signature.OutcomeSuccess:
		if sub.Status == domain.StatusSigned {
			return nil
		}
		if sub.Status != domain.StatusSigning {
			return domain.CheckTransition(sub.Status, domain.StatusSigned)
		}
		if res.ArtifactURL == "" {
			return domain.Validationf("success outcome without artifact url")
		}
		signedAt := res.SignedAt
		if signedAt.IsZero() {
			signedAt = e.Now().UTC()
		}
		state := "completed"
		signedBy := ""
		if client, err := e.Store.GetProfile(ctx, sub.ClientID); err == nil {
			signedBy = client.FullName
		}
		upd := store.StatusUpdate{
			SignatureState: &state,
			SignedPDFURL:   &res.ArtifactURL,
			SignedAt:       &signedAt,
			SignedBy:       &signedBy,
		}
		if err := e.Store.UpdateSubmissionStatus(ctx, sub.ID, domain.StatusSigning, domain.StatusSigned, upd); err != nil {
			return err
		}
		if client, err := e.Store.GetProfile(ctx, sub.ClientID); err == nil {
			tplName := sub.TemplateID
			if tpl, err := e.Store.GetTemplate(ctx, sub.TemplateID); err == nil {
				tplName = tpl.Name
			}
			subject, body := notify.StatusChangeEmail(e.AppName, tplName, domain.StatusSigned, "")
			notify.Async(e.Logger, e.Mailer, client.Email, subject, body)
		}
		return nil

	case signature.OutcomeFailure:
		if sub.Status == domain.StatusError {
			return nil
		}
		if sub.Status != domain.StatusSigning {
			return domain.CheckTransition(sub.Status, domain.StatusError)
		}
		// transaction id stays on the row for diagnostics
		state := "error"
		return e.Store.UpdateSubmissionStatus(ctx, sub.ID, domain.StatusSigning, domain.StatusError,
			store.StatusUpdate{SignatureState: &state})

	case signature.OutcomeCancelled:
		if sub.Status == domain.StatusApproved {
			return nil
		}
		if sub.Status != domain.StatusSigning {
			return domain.CheckTransition(sub.Status, domain.StatusApproved)
		}
		if err := e.Store.ClearSignatureTransaction(ctx, sub.ID, domain.StatusSigning); err != nil {
			return err
		}
		if err := e.Provider.Cancel(ctx, transactionID); err != nil {
			e.Logger.Warn("signature cancel cleanup failed",
				zap.String("transaction_id", transactionID), zap.Error(err))
		}
		return nil

	case signature.OutcomePending:
		return nil

	default:
		return domain.Validationf("unknown signature outcome %q", res.Outcome)
	}
}

// ResetFromError is the explicit operator path out of the error state: back
// to approved with the signature columns cleared, ready for a fresh
// StartSigning.
func (e *Engine) ResetFromError(ctx context.Context, submissionID, actorID string) (domain.Submission, error) {
	sub, err := e.Store.GetSubmission(ctx, submissionID)
	if err != nil {
		return sub, err
	}
	if sub.Status != domain.StatusError {
		return sub, domain.CheckTransition(sub.Status, domain.StatusApproved)
	}
	if err := e.authorizeReviewer(ctx, sub, actorID); err != nil {
		return sub, err
	}
	if err := e.Store.ClearSignatureTransaction(ctx, submissionID, domain.StatusError); err != nil {
		return sub, err
	}
	return e.Store.GetSubmission(ctx, submissionID)
}

func (e *Engine) ListForReviewer(ctx context.Context, companyID string, statusFilter domain.Status) ([]domain.Submission, error) {
	if statusFilter != "" && !domain.ValidStatus(statusFilter) {
		return nil, domain.Validationf("unknown status filter %q", statusFilter)
	}
	return e.Store.ListSubmissionsForCompany(ctx, companyID, statusFilter)
}

func (e *Engine) ListForClient(ctx context.Context, clientID string) ([]domain.Submission, error) {
	return e.Store.ListSubmissionsForClient(ctx, clientID)
}

// Get returns a submission visible to the actor: its owning client, or a
// reviewer of the owning company.
func (e *Engine) Get(ctx context.Context, submissionID, actorID string) (domain.Submission, error) {
	sub, err := e.Store.GetSubmission(ctx, submissionID)
	if err != nil {
		return sub, err
	}
	if sub.ClientID == actorID {
		return sub, nil
	}
	if err := e.authorizeReviewer(ctx, sub, actorID); err != nil {
		return domain.Submission{}, err
	}
	return sub, nil
}

// authorizeReviewer admits only the company that owns the submission's
// template.
func (e *Engine) authorizeReviewer(ctx context.Context, sub domain.Submission, actorID string) error {
	actor, err := e.Store.GetProfile(ctx, actorID)
	if err != nil {
		return domain.Unauthorizedf("actor %s unknown", actorID)
	}
	if actor.Role != domain.RoleCompany {
		return domain.Unauthorizedf("actor %s is not a reviewer", actorID)
	}
	tpl, err := e.Store.GetTemplate(ctx, sub.TemplateID)
	if err != nil {
		return err
	}
	if tpl.CompanyID != actorID {
		return domain.Unauthorizedf("submission belongs to another company")
	}
	return nil
}
