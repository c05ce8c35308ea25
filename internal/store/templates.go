package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"certia/pkg/domain"

	"github.com/jackc/pgx/v5"
)

const templateCols = `id,company_id,name,description,title_es,title_en,title_ar,
subtitle_es,subtitle_en,subtitle_ar,design,fields,is_active,created_at,updated_at`

func scanTemplate(row pgx.Row) (domain.Template, error) {
	var t domain.Template
	var designJSON, fieldsJSON []byte
	err := row.Scan(&t.ID, &t.CompanyID, &t.Name, &t.Description,
		&t.TitleES, &t.TitleEN, &t.TitleAR,
		&t.SubtitleES, &t.SubtitleEN, &t.SubtitleAR,
		&designJSON, &fieldsJSON, &t.IsActive, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return t, err
	}
	if err := json.Unmarshal(designJSON, &t.Design); err != nil {
		return t, err
	}
	if err := json.Unmarshal(fieldsJSON, &t.Fields); err != nil {
		return t, err
	}
	return t, nil
}

func (s *Store) CreateTemplate(ctx context.Context, t domain.Template) error {
	designJSON, err := json.Marshal(t.Design)
	if err != nil {
		return err
	}
	fieldsJSON, err := json.Marshal(t.Fields)
	if err != nil {
		return err
	}
	_, err = s.DB.Exec(ctx, `INSERT INTO templates(id,company_id,name,description,
title_es,title_en,title_ar,subtitle_es,subtitle_en,subtitle_ar,design,fields,is_active)
VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		t.ID, t.CompanyID, t.Name, t.Description,
		t.TitleES, t.TitleEN, t.TitleAR, t.SubtitleES, t.SubtitleEN, t.SubtitleAR,
		designJSON, fieldsJSON, t.IsActive)
	return err
}

func (s *Store) GetTemplate(ctx context.Context, id string) (domain.Template, error) {
	t, err := scanTemplate(s.DB.QueryRow(ctx, `SELECT `+templateCols+` FROM templates WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return t, domain.NotFoundf("template %s", id)
	}
	return t, err
}

func (s *Store) UpdateTemplate(ctx context.Context, t domain.Template) error {
	designJSON, err := json.Marshal(t.Design)
	if err != nil {
		return err
	}
	fieldsJSON, err := json.Marshal(t.Fields)
	if err != nil {
		return err
	}
	tag, err := s.DB.Exec(ctx, `UPDATE templates SET name=$2,description=$3,
title_es=$4,title_en=$5,title_ar=$6,subtitle_es=$7,subtitle_en=$8,subtitle_ar=$9,
design=$10,fields=$11,updated_at=$12 WHERE id=$1`,
		t.ID, t.Name, t.Description,
		t.TitleES, t.TitleEN, t.TitleAR, t.SubtitleES, t.SubtitleEN, t.SubtitleAR,
		designJSON, fieldsJSON, time.Now().UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFoundf("template %s", t.ID)
	}
	return nil
}

func (s *Store) SetTemplateActive(ctx context.Context, id string, active bool) error {
	tag, err := s.DB.Exec(ctx, `UPDATE templates SET is_active=$2,updated_at=now() WHERE id=$1`, id, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFoundf("template %s", id)
	}
	return nil
}

// DeleteTemplate refuses while submissions still reference the template.
func (s *Store) DeleteTemplate(ctx context.Context, id string) error {
	var refs int
	if err := s.DB.QueryRow(ctx, `SELECT count(*) FROM submissions WHERE template_id=$1`, id).Scan(&refs); err != nil {
		return err
	}
	if refs > 0 {
		return domain.ErrConflict
	}
	tag, err := s.DB.Exec(ctx, `DELETE FROM templates WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFoundf("template %s", id)
	}
	return nil
}

func (s *Store) ListTemplatesByCompany(ctx context.Context, companyID string) ([]domain.Template, error) {
	return s.listTemplates(ctx, `SELECT `+templateCols+` FROM templates WHERE company_id=$1 ORDER BY created_at DESC`, companyID)
}

func (s *Store) ListActiveTemplates(ctx context.Context) ([]domain.Template, error) {
	return s.listTemplates(ctx, `SELECT `+templateCols+` FROM templates WHERE is_active ORDER BY created_at DESC`)
}

func (s *Store) listTemplates(ctx context.Context, query string, args ...any) ([]domain.Template, error) {
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Template
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
