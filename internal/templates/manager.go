// Package templates manages certificate template definitions scoped to
// their owning company.
package templates

import (
	"context"
	"strings"

	"certia/pkg/domain"

	"github.com/google/uuid"
)

type Store interface {
	CreateTemplate(ctx context.Context, t domain.Template) error
	GetTemplate(ctx context.Context, id string) (domain.Template, error)
	UpdateTemplate(ctx context.Context, t domain.Template) error
	SetTemplateActive(ctx context.Context, id string, active bool) error
	DeleteTemplate(ctx context.Context, id string) error
	ListTemplatesByCompany(ctx context.Context, companyID string) ([]domain.Template, error)
	ListActiveTemplates(ctx context.Context) ([]domain.Template, error)
}

type Manager struct {
	Store Store
}

func NewManager(st Store) *Manager { return &Manager{Store: st} }

var allowedBorderStyles = map[string]bool{
	"": true, "none": true, "solid": true, "double": true, "ridge": true,
}

func validate(t domain.Template) error {
	if strings.TrimSpace(t.Name) == "" {
		return domain.Validationf("template name is required")
	}
	if !allowedBorderStyles[t.Design.BorderStyle] {
		return domain.Validationf("unknown border style %q", t.Design.BorderStyle)
	}
	if t.Design.Columns < 0 || t.Design.Columns > 3 {
		return domain.Validationf("columns must be 1..3")
	}
	return domain.ValidateFields(t.Fields)
}

func (m *Manager) Create(ctx context.Context, companyID string, t domain.Template) (domain.Template, error) {
	t.ID = "tpl_" + uuid.NewString()
	t.CompanyID = companyID
	if err := validate(t); err != nil {
		return domain.Template{}, err
	}
	if err := m.Store.CreateTemplate(ctx, t); err != nil {
		return domain.Template{}, err
	}
	return m.Store.GetTemplate(ctx, t.ID)
}

func (m *Manager) Get(ctx context.Context, id string) (domain.Template, error) {
	return m.Store.GetTemplate(ctx, id)
}

// Update replaces the design and field definitions. Existing submissions
// keep their form data as submitted; nothing is re-validated against the
// new field list.
func (m *Manager) Update(ctx context.Context, companyID string, t domain.Template) (domain.Template, error) {
	current, err := m.Store.GetTemplate(ctx, t.ID)
	if err != nil {
		return domain.Template{}, err
	}
	if current.CompanyID != companyID {
		return domain.Template{}, domain.Unauthorizedf("template belongs to another company")
	}
	t.CompanyID = current.CompanyID
	if err := validate(t); err != nil {
		return domain.Template{}, err
	}
	if err := m.Store.UpdateTemplate(ctx, t); err != nil {
		return domain.Template{}, err
	}
	return m.Store.GetTemplate(ctx, t.ID)
}

// SetActive gates new submissions only; existing submissions keep
// referencing the template either way.
func (m *Manager) SetActive(ctx context.Context, companyID, id string, active bool) error {
	current, err := m.Store.GetTemplate(ctx, id)
	if err != nil {
		return err
	}
	if current.CompanyID != companyID {
		return domain.Unauthorizedf("template belongs to another company")
	}
	return m.Store.SetTemplateActive(ctx, id, active)
}

// Delete refuses while submissions still reference the template; the store
// reports that as a conflict.
func (m *Manager) Delete(ctx context.Context, companyID, id string) error {
	current, err := m.Store.GetTemplate(ctx, id)
	if err != nil {
		return err
	}
	if current.CompanyID != companyID {
		return domain.Unauthorizedf("template belongs to another company")
	}
	return m.Store.DeleteTemplate(ctx, id)
}

func (m *Manager) ListByCompany(ctx context.Context, companyID string) ([]domain.Template, error) {
	return m.Store.ListTemplatesByCompany(ctx, companyID)
}

func (m *Manager) ListActive(ctx context.Context) ([]domain.Template, error) {
	return m.Store.ListActiveTemplates(ctx)
}
