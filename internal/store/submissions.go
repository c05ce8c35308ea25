package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"certia/pkg/domain"

	"github.com/jackc/pgx/v5"
)

const submissionCols = `id,template_id,client_id,status,form_data,notes,reviewed_at,reviewed_by,created_at,
signature_transaction_id,signature_status,signed_pdf_url,signed_at,signed_by`

func scanSubmission(row pgx.Row) (domain.Submission, error) {
	var sub domain.Submission
	var formJSON []byte
	err := row.Scan(&sub.ID, &sub.TemplateID, &sub.ClientID, &sub.Status, &formJSON,
		&sub.Notes, &sub.ReviewedAt, &sub.ReviewedBy, &sub.CreatedAt,
		&sub.SignatureTransactionID, &sub.SignatureStatus, &sub.SignedPDFURL, &sub.SignedAt, &sub.SignedBy)
	if err != nil {
		return sub, err
	}
	if err := json.Unmarshal(formJSON, &sub.FormData); err != nil {
		return sub, err
	}
	return sub, nil
}

// notifySubmission fires the row-level change notification inside the same
// transaction as the write, so subscribers never observe a phantom event.
func notifySubmission(ctx context.Context, tx pgx.Tx, submissionID string, status domain.Status) error {
	payload, err := json.Marshal(map[string]string{"submission_id": submissionID, "status": string(status)})
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `SELECT pg_notify('submission_events', $1)`, string(payload))
	return err
}

func (s *Store) CreateSubmission(ctx context.Context, sub domain.Submission) error {
	formJSON, err := json.Marshal(sub.FormData)
	if err != nil {
		return err
	}
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `INSERT INTO submissions(id,template_id,client_id,status,form_data)
VALUES($1,$2,$3,$4,$5)`, sub.ID, sub.TemplateID, sub.ClientID, sub.Status, formJSON)
	if err != nil {
		return err
	}
	if err := notifySubmission(ctx, tx, sub.ID, sub.Status); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) GetSubmission(ctx context.Context, id string) (domain.Submission, error) {
	sub, err := scanSubmission(s.DB.QueryRow(ctx, `SELECT `+submissionCols+` FROM submissions WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return sub, domain.NotFoundf("submission %s", id)
	}
	return sub, err
}

func (s *Store) GetSubmissionByTransaction(ctx context.Context, txnID string) (domain.Submission, error) {
	sub, err := scanSubmission(s.DB.QueryRow(ctx,
		`SELECT `+submissionCols+` FROM submissions WHERE signature_transaction_id=$1`, txnID))
	if errors.Is(err, pgx.ErrNoRows) {
		return sub, domain.NotFoundf("signature transaction %s", txnID)
	}
	return sub, err
}

// StatusUpdate carries the companion fields of a status transition. Nil
// pointers leave the column untouched.
type StatusUpdate struct {
	Notes          *string
	ReviewedAt     *time.Time
	ReviewedBy     *string
	TransactionID  *string
	SignatureState *string
	SignedPDFURL   *string
	SignedAt       *time.Time
	SignedBy       *string
}

// UpdateSubmissionStatus applies a transition conditionally on the expected
// current status. Zero rows affected means a concurrent writer got there
// first and the caller sees ErrConflict.
func (s *Store) UpdateSubmissionStatus(ctx context.Context, id string, from, to domain.Status, upd StatusUpdate) error {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `UPDATE submissions SET
status=$3,
notes=COALESCE($4,notes),
reviewed_at=COALESCE($5,reviewed_at),
reviewed_by=COALESCE($6,reviewed_by),
signature_transaction_id=COALESCE($7,signature_transaction_id),
signature_status=COALESCE($8,signature_status),
signed_pdf_url=COALESCE($9,signed_pdf_url),
signed_at=COALESCE($10,signed_at),
signed_by=COALESCE($11,signed_by)
WHERE id=$1 AND status=$2`,
		id, from, to,
		upd.Notes, upd.ReviewedAt, upd.ReviewedBy,
		upd.TransactionID, upd.SignatureState, upd.SignedPDFURL, upd.SignedAt, upd.SignedBy)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrConflict
	}
	if err := notifySubmission(ctx, tx, id, to); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// ClearSignatureTransaction empties the signature columns on the rollback
// edges (signing->approved cancel, error->approved reset).
func (s *Store) ClearSignatureTransaction(ctx context.Context, id string, from domain.Status) error {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `UPDATE submissions SET
status='approved',
signature_transaction_id='',
signature_status='',
signed_pdf_url='',
signed_at=NULL,
signed_by=''
WHERE id=$1 AND status=$2`, id, from)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrConflict
	}
	if err := notifySubmission(ctx, tx, id, domain.StatusApproved); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// ListSubmissionsForCompany projects submissions whose template belongs to
// the company, newest first. statusFilter="" means all statuses.
func (s *Store) ListSubmissionsForCompany(ctx context.Context, companyID string, statusFilter domain.Status) ([]domain.Submission, error) {
	query := `SELECT s.id,s.template_id,s.client_id,s.status,s.form_data,s.notes,s.reviewed_at,s.reviewed_by,s.created_at,
s.signature_transaction_id,s.signature_status,s.signed_pdf_url,s.signed_at,s.signed_by
FROM submissions s JOIN templates t ON t.id=s.template_id
WHERE t.company_id=$1`
	args := []any{companyID}
	if statusFilter != "" {
		query += ` AND s.status=$2`
		args = append(args, statusFilter)
	}
	query += ` ORDER BY s.created_at DESC`
	return s.listSubmissions(ctx, query, args...)
}

func (s *Store) ListSubmissionsForClient(ctx context.Context, clientID string) ([]domain.Submission, error) {
	return s.listSubmissions(ctx,
		`SELECT `+submissionCols+` FROM submissions WHERE client_id=$1 ORDER BY created_at DESC`, clientID)
}

func (s *Store) listSubmissions(ctx context.Context, query string, args ...any) ([]domain.Submission, error) {
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Submission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

// SubmissionStats is the analytics projection behind the reviewer
// dashboard: totals by status, by month of creation, and by template.
type SubmissionStats struct {
	Total      int                   `json:"total"`
	ByStatus   map[domain.Status]int `json:"by_status"`
	ByMonth    map[string]int        `json:"by_month"`
	ByTemplate map[string]int        `json:"by_template"`
}

// CompanySubmissionStats aggregates over submissions whose template belongs
// to the company. Months are keyed YYYY-MM, templates by display name.
func (s *Store) CompanySubmissionStats(ctx context.Context, companyID string) (SubmissionStats, error) {
	stats := SubmissionStats{
		ByStatus:   map[domain.Status]int{},
		ByMonth:    map[string]int{},
		ByTemplate: map[string]int{},
	}
	rows, err := s.DB.Query(ctx, `SELECT s.status,to_char(s.created_at,'YYYY-MM'),t.name
FROM submissions s JOIN templates t ON t.id=s.template_id
WHERE t.company_id=$1`, companyID)
	if err != nil {
		return stats, err
	}
	defer rows.Close()
	for rows.Next() {
		var st domain.Status
		var month, tplName string
		if err := rows.Scan(&st, &month, &tplName); err != nil {
			return stats, err
		}
		stats.Total++
		stats.ByStatus[st]++
		stats.ByMonth[month]++
		stats.ByTemplate[tplName]++
	}
	return stats, rows.Err()
}

func (s *Store) CountSubmissionsByStatus(ctx context.Context) (map[domain.Status]int, error) {
	rows, err := s.DB.Query(ctx, `SELECT status,count(*) FROM submissions GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[domain.Status]int{}
	for rows.Next() {
		var st domain.Status
		var n int
		if err := rows.Scan(&st, &n); err != nil {
			return nil, err
		}
		out[st] = n
	}
	return out, rows.Err()
}
