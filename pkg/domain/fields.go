package domain

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

type FieldType string

const (
	FieldText     FieldType = "text"
	FieldEmail    FieldType = "email"
	FieldNumber   FieldType = "number"
	FieldTextarea FieldType = "textarea"
	FieldSelect   FieldType = "select"
	FieldDate     FieldType = "date"
	FieldCheckbox FieldType = "checkbox"
)

func ValidFieldType(t FieldType) bool {
	switch t {
	case FieldText, FieldEmail, FieldNumber, FieldTextarea, FieldSelect,
		FieldDate, FieldCheckbox:
		return true
	}
	return false
}

// Field is one form-field descriptor of a template. Labels carry the three
// supported languages; Options is only meaningful for select fields.
type Field struct {
	ID          string    `json:"id"`
	Type        FieldType `json:"type"`
	LabelES     string    `json:"label_es"`
	LabelEN     string    `json:"label_en"`
	LabelAR     string    `json:"label_ar"`
	Placeholder string    `json:"placeholder,omitempty"`
	Required    bool      `json:"required"`
	Options     []string  `json:"options,omitempty"`
	Order       int       `json:"order"`
}

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

const dateLayout = "2006-01-02"

// FieldValue is a form-data value tagged by the kind it parsed as. The wire
// form is the bare scalar; the tag comes from validating against the
// template's declared field type.
type FieldValue struct {
	Kind   FieldType
	Text   string
	Number float64
	Bool   bool
}

func (v FieldValue) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case FieldNumber:
		return json.Marshal(v.Number)
	case FieldCheckbox:
		return json.Marshal(v.Bool)
	default:
		return json.Marshal(v.Text)
	}
}

func (v *FieldValue) UnmarshalJSON(b []byte) error {
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	switch t := raw.(type) {
	case string:
		v.Kind = FieldText
		v.Text = t
	case float64:
		v.Kind = FieldNumber
		v.Number = t
	case bool:
		v.Kind = FieldCheckbox
		v.Bool = t
	case nil:
		v.Kind = FieldText
		v.Text = ""
	default:
		return fmt.Errorf("form value must be a scalar, got %T", raw)
	}
	return nil
}

// Display renders the value the way the certificate shows it.
func (v FieldValue) Display() string {
	switch v.Kind {
	case FieldNumber:
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	case FieldCheckbox:
		if v.Bool {
			return "Si"
		}
		return "No"
	default:
		return v.Text
	}
}

func (v FieldValue) isEmpty() bool {
	switch v.Kind {
	case FieldNumber, FieldCheckbox:
		return false
	default:
		return strings.TrimSpace(v.Text) == ""
	}
}

type FormData map[string]FieldValue

// ValidateFormData checks data against the template's field list: every key
// must name a declared field, every required field must be present and
// non-empty, and each value must parse under the field's declared type.
// It rewrites the value tags to the declared types on success.
func ValidateFormData(fields []Field, data FormData) error {
	if len(data) == 0 {
		return Validationf("form data is empty")
	}
	byID := make(map[string]Field, len(fields))
	for _, f := range fields {
		byID[f.ID] = f
	}

	var unknown []string
	for id := range data {
		if _, ok := byID[id]; !ok {
			unknown = append(unknown, id)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return Validationf("unknown fields: %s", strings.Join(unknown, ", "))
	}

	var missing []string
	for _, f := range fields {
		v, ok := data[f.ID]
		if f.Required && (!ok || v.isEmpty()) {
			missing = append(missing, f.ID)
			continue
		}
		if !ok {
			continue
		}
		canon, err := coerceValue(f, v)
		if err != nil {
			return err
		}
		data[f.ID] = canon
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return Validationf("missing required fields: %s", strings.Join(missing, ", "))
	}
	return nil
}

func coerceValue(f Field, v FieldValue) (FieldValue, error) {
	switch f.Type {
	case FieldText, FieldTextarea:
		if v.Kind != FieldText {
			return v, Validationf("field %s: expected text, got %s", f.ID, v.Kind)
		}
		v.Kind = f.Type
		return v, nil
	case FieldEmail:
		if v.Kind != FieldText || (v.Text != "" && !emailRe.MatchString(v.Text)) {
			return v, Validationf("field %s: invalid email", f.ID)
		}
		v.Kind = FieldEmail
		return v, nil
	case FieldNumber:
		switch v.Kind {
		case FieldNumber:
			return v, nil
		case FieldText:
			// tolerate numbers submitted as strings
			n, err := strconv.ParseFloat(strings.TrimSpace(v.Text), 64)
			if err != nil {
				return v, Validationf("field %s: not a number", f.ID)
			}
			return FieldValue{Kind: FieldNumber, Number: n}, nil
		default:
			return v, Validationf("field %s: expected number, got %s", f.ID, v.Kind)
		}
	case FieldDate:
		if v.Kind != FieldText {
			return v, Validationf("field %s: expected date string", f.ID)
		}
		if v.Text != "" {
			if _, err := time.Parse(dateLayout, v.Text); err != nil {
				return v, Validationf("field %s: date must be YYYY-MM-DD", f.ID)
			}
		}
		v.Kind = FieldDate
		return v, nil
	case FieldSelect:
		if v.Kind != FieldText {
			return v, Validationf("field %s: expected option string", f.ID)
		}
		if v.Text != "" && !containsString(f.Options, v.Text) {
			return v, Validationf("field %s: %q is not an option", f.ID, v.Text)
		}
		v.Kind = FieldSelect
		return v, nil
	case FieldCheckbox:
		switch v.Kind {
		case FieldCheckbox:
			return v, nil
		case FieldText:
			b, err := strconv.ParseBool(strings.TrimSpace(v.Text))
			if err != nil {
				return v, Validationf("field %s: expected boolean", f.ID)
			}
			return FieldValue{Kind: FieldCheckbox, Bool: b}, nil
		default:
			return v, Validationf("field %s: expected boolean, got %s", f.ID, v.Kind)
		}
	default:
		return v, Validationf("field %s: unsupported type %q", f.ID, f.Type)
	}
}

func containsString(xs []string, want string) bool {
	for _, x := range xs {
		if x == want {
			return true
		}
	}
	return false
}

// ValidateFields lints a template's field list on create/update.
func ValidateFields(fields []Field) error {
	seen := map[string]bool{}
	for i, f := range fields {
		if strings.TrimSpace(f.ID) == "" {
			return Validationf("field %d: id is empty", i)
		}
		if seen[f.ID] {
			return Validationf("field %s: duplicate id", f.ID)
		}
		seen[f.ID] = true
		if !ValidFieldType(f.Type) {
			return Validationf("field %s: unknown type %q", f.ID, f.Type)
		}
		if f.Type == FieldSelect && len(f.Options) == 0 {
			return Validationf("field %s: select field needs options", f.ID)
		}
		if strings.TrimSpace(f.LabelES) == "" && strings.TrimSpace(f.LabelEN) == "" {
			return Validationf("field %s: label missing", f.ID)
		}
	}
	return nil
}
