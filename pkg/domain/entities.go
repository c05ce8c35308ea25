package domain

import "time"

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleCompany Role = "company"
	RoleClient  Role = "client"
)

func ValidRole(r Role) bool {
	return r == RoleAdmin || r == RoleCompany || r == RoleClient
}

type Profile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	FullName  string    `json:"full_name,omitempty"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// Design holds the visual settings of a certificate template.
type Design struct {
	LogoLeft          string  `json:"logo_left,omitempty"`
	LogoRight         string  `json:"logo_right,omitempty"`
	BorderStyle       string  `json:"border_style,omitempty"`
	BorderColor       string  `json:"border_color,omitempty"`
	BorderWidth       int     `json:"border_width,omitempty"`
	BackgroundColor   string  `json:"background_color,omitempty"`
	BackgroundImage   string  `json:"background_image,omitempty"`
	BackgroundOpacity float64 `json:"background_opacity,omitempty"`
	Columns           int     `json:"columns,omitempty"`
}

// GridColumns clamps the configured column count to the supported 1..3.
func (d Design) GridColumns() int {
	if d.Columns < 1 {
		return 1
	}
	if d.Columns > 3 {
		return 3
	}
	return d.Columns
}

type Template struct {
	ID          string    `json:"id"`
	CompanyID   string    `json:"company_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	TitleES     string    `json:"title_es,omitempty"`
	TitleEN     string    `json:"title_en,omitempty"`
	TitleAR     string    `json:"title_ar,omitempty"`
	SubtitleES  string    `json:"subtitle_es,omitempty"`
	SubtitleEN  string    `json:"subtitle_en,omitempty"`
	SubtitleAR  string    `json:"subtitle_ar,omitempty"`
	Design      Design    `json:"design"`
	Fields      []Field   `json:"fields"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Submission struct {
	ID         string     `json:"id"`
	TemplateID string     `json:"template_id"`
	ClientID   string     `json:"client_id"`
	Status     Status     `json:"status"`
	FormData   FormData   `json:"form_data"`
	Notes      string     `json:"notes,omitempty"`
	ReviewedAt *time.Time `json:"reviewed_at,omitempty"`
	ReviewedBy string     `json:"reviewed_by,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`

	SignatureTransactionID string     `json:"signature_transaction_id,omitempty"`
	SignatureStatus        string     `json:"signature_status,omitempty"`
	SignedPDFURL           string     `json:"signed_pdf_url,omitempty"`
	SignedAt               *time.Time `json:"signed_at,omitempty"`
	SignedBy               string     `json:"signed_by,omitempty"`
}
