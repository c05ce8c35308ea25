package store

import (
	"context"
	"errors"

	"certia/pkg/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct{ DB *pgxpool.Pool }

func New(db *pgxpool.Pool) *Store { return &Store{DB: db} }

func (s *Store) CreateProfile(ctx context.Context, p domain.Profile, passwordHash string) error {
	_, err := s.DB.Exec(ctx, `INSERT INTO profiles(id,email,username,full_name,role,password_hash)
VALUES($1,$2,$3,$4,$5,$6)`, p.ID, p.Email, p.Username, p.FullName, p.Role, passwordHash)
	return err
}

func (s *Store) GetProfile(ctx context.Context, id string) (domain.Profile, error) {
	var p domain.Profile
	err := s.DB.QueryRow(ctx, `SELECT id,email,username,full_name,role,created_at FROM profiles WHERE id=$1`, id).
		Scan(&p.ID, &p.Email, &p.Username, &p.FullName, &p.Role, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return p, domain.NotFoundf("profile %s", id)
	}
	return p, err
}

func (s *Store) GetProfileByEmail(ctx context.Context, email string) (domain.Profile, string, error) {
	var p domain.Profile
	var hash string
	err := s.DB.QueryRow(ctx, `SELECT id,email,username,full_name,role,password_hash,created_at
FROM profiles WHERE email=$1`, email).
		Scan(&p.ID, &p.Email, &p.Username, &p.FullName, &p.Role, &hash, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return p, "", domain.NotFoundf("profile %s", email)
	}
	return p, hash, err
}

func (s *Store) ListProfiles(ctx context.Context) ([]domain.Profile, error) {
	rows, err := s.DB.Query(ctx, `SELECT id,email,username,full_name,role,created_at
FROM profiles ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Profile
	for rows.Next() {
		var p domain.Profile
		if err := rows.Scan(&p.ID, &p.Email, &p.Username, &p.FullName, &p.Role, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ProfileUpdate carries the admin-editable fields; nil means keep.
type ProfileUpdate struct {
	Username *string
	FullName *string
	Role     *domain.Role
}

func (s *Store) UpdateProfile(ctx context.Context, id string, upd ProfileUpdate) (domain.Profile, error) {
	tag, err := s.DB.Exec(ctx, `UPDATE profiles SET
username=COALESCE($2,username),
full_name=COALESCE($3,full_name),
role=COALESCE($4,role)
WHERE id=$1`, id, upd.Username, upd.FullName, upd.Role)
	if err != nil {
		return domain.Profile{}, err
	}
	if tag.RowsAffected() == 0 {
		return domain.Profile{}, domain.NotFoundf("profile %s", id)
	}
	return s.GetProfile(ctx, id)
}

// CountRows is the generic count-matching projection used by admin stats.
// table and column are trusted internal identifiers, never user input.
func (s *Store) CountRows(ctx context.Context, table, column, value string) (int, error) {
	var n int
	query := `SELECT count(*) FROM ` + table
	var err error
	if column == "" {
		err = s.DB.QueryRow(ctx, query).Scan(&n)
	} else {
		err = s.DB.QueryRow(ctx, query+` WHERE `+column+`=$1`, value).Scan(&n)
	}
	return n, err
}

// DeleteProfileCascade removes a profile and everything hanging off it in a
// single transaction: objects, submissions, templates, then the profile row.
func (s *Store) DeleteProfileCascade(ctx context.Context, profileID string) error {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM objects WHERE path LIKE $1 || '/%'`, profileID); err != nil {
		return err
	}
	// certificate objects are keyed by submission id, not profile id
	if _, err := tx.Exec(ctx, `DELETE FROM objects o USING submissions s
WHERE (s.client_id=$1 OR s.template_id IN (SELECT id FROM templates WHERE company_id=$1))
AND (o.path LIKE 'temp_' || s.id || '_%' OR o.path LIKE 'signed_' || s.id || '_%')`, profileID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM submissions WHERE client_id=$1
OR template_id IN (SELECT id FROM templates WHERE company_id=$1)`, profileID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM templates WHERE company_id=$1`, profileID); err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `DELETE FROM profiles WHERE id=$1`, profileID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFoundf("profile %s", profileID)
	}
	return tx.Commit(ctx)
}
