// Package render turns a (template, form data) pair into one-page PDF
// certificate bytes.
package render

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"certia/pkg/domain"
)

// A4 portrait in points.
const (
	pageWidth  = 595.0
	pageHeight = 842.0
	margin     = 48.0
)

const defaultImageTimeout = 5 * time.Second

type Renderer struct {
	HTTPClient   *http.Client
	ImageTimeout time.Duration
}

func New() *Renderer {
	return &Renderer{HTTPClient: http.DefaultClient, ImageTimeout: defaultImageTimeout}
}

// Render lays out the certificate: header with logo slots and tri-lingual
// titles, divider, column grid of label/value pairs, footer with generation
// timestamp and recipient. Form data is re-validated against the template
// before anything is drawn. Logo fetching has a bounded timeout per image;
// a dead image URL renders that slot blank, never fails the document.
func (r *Renderer) Render(ctx context.Context, tpl domain.Template, data domain.FormData, recipientName string, generatedAt time.Time) ([]byte, error) {
	if err := domain.ValidateFormData(tpl.Fields, data); err != nil {
		return nil, err
	}

	p := newPDFPage(pageWidth, pageHeight)

	if bg, ok := parseHexColor(tpl.Design.BackgroundColor); ok {
		p.SetFillColor(bg[0], bg[1], bg[2])
		p.RectFill(0, 0, pageWidth, pageHeight)
	}
	p.SetFillColor(0, 0, 0)

	if tpl.Design.BorderStyle != "" && tpl.Design.BorderStyle != "none" {
		if c, ok := parseHexColor(tpl.Design.BorderColor); ok {
			p.SetStrokeColor(c[0], c[1], c[2])
		}
		bw := float64(tpl.Design.BorderWidth)
		if bw <= 0 {
			bw = 2
		}
		p.RectStroke(margin/2, margin/2, pageWidth-margin, pageHeight-margin, bw)
		if tpl.Design.BorderStyle == "double" {
			p.RectStroke(margin/2+6, margin/2+6, pageWidth-margin-12, pageHeight-margin-12, bw/2)
		}
		p.SetStrokeColor(0, 0, 0)
	}

	const logoSize = 70.0
	logoY := pageHeight - margin - logoSize
	if tpl.Design.LogoLeft != "" {
		if img := r.fetchImage(ctx, tpl.Design.LogoLeft); img != nil {
			p.ImageJPEG(img, margin, logoY, logoSize, logoSize)
		}
	}
	if tpl.Design.LogoRight != "" {
		if img := r.fetchImage(ctx, tpl.Design.LogoRight); img != nil {
			p.ImageJPEG(img, pageWidth-margin-logoSize, logoY, logoSize, logoSize)
		}
	}

	cx := pageWidth / 2
	y := pageHeight - margin - 40
	for _, title := range []struct {
		text string
		size float64
		font string
	}{
		{tpl.TitleES, 24, fontBold},
		{tpl.TitleEN, 16, fontRegular},
		{tpl.TitleAR, 16, fontRegular},
	} {
		if strings.TrimSpace(title.text) == "" {
			continue
		}
		p.TextCentered(cx, y, title.size, title.font, title.text)
		y -= title.size + 8
	}
	for _, sub := range []string{tpl.SubtitleES, tpl.SubtitleEN, tpl.SubtitleAR} {
		if strings.TrimSpace(sub) == "" {
			continue
		}
		p.TextCentered(cx, y, 11, fontRegular, sub)
		y -= 16
	}

	y -= 10
	p.Line(margin+40, y, pageWidth-margin-40, y, 1.5)
	y -= 34

	fields := append([]domain.Field(nil), tpl.Fields...)
	sort.SliceStable(fields, func(i, j int) bool { return fields[i].Order < fields[j].Order })

	cols := tpl.Design.GridColumns()
	colWidth := (pageWidth - 2*margin) / float64(cols)
	const rowHeight = 44.0
	for i, f := range fields {
		col := i % cols
		if col == 0 && i > 0 {
			y -= rowHeight
		}
		x := margin + float64(col)*colWidth
		p.Text(x, y, 9, fontBold, fieldLabel(f))
		value := ""
		if v, ok := data[f.ID]; ok {
			value = v.Display()
		}
		p.Text(x, y-14, 11, fontRegular, value)
	}
	if len(fields) > 0 {
		y -= rowHeight
	}

	footerY := margin + 16
	p.Text(margin, footerY, 8, fontRegular,
		fmt.Sprintf("Generado: %s", generatedAt.UTC().Format("2006-01-02 15:04 UTC")))
	right := fmt.Sprintf("Emitido a: %s", recipientName)
	p.Text(pageWidth-margin-p.TextWidth(right, 8), footerY, 8, fontRegular, right)

	return p.Bytes(), nil
}

// fieldLabel prefers the Spanish label, appending the English one when both
// exist, matching how the original certificate shows bilingual labels.
func fieldLabel(f domain.Field) string {
	es := strings.TrimSpace(f.LabelES)
	en := strings.TrimSpace(f.LabelEN)
	switch {
	case es != "" && en != "" && es != en:
		return es + " / " + en
	case es != "":
		return es
	case en != "":
		return en
	default:
		return f.ID
	}
}

func (r *Renderer) fetchImage(ctx context.Context, url string) []byte {
	timeout := r.ImageTimeout
	if timeout <= 0 {
		timeout = defaultImageTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil
	}
	client := r.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil
	}
	return data
}

// parseHexColor accepts #rgb and #rrggbb.
func parseHexColor(s string) ([3]float64, bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	var out [3]float64
	switch len(s) {
	case 3:
		for i := 0; i < 3; i++ {
			v, err := strconv.ParseUint(string([]byte{s[i], s[i]}), 16, 8)
			if err != nil {
				return out, false
			}
			out[i] = float64(v) / 255
		}
	case 6:
		for i := 0; i < 3; i++ {
			v, err := strconv.ParseUint(s[i*2:i*2+2], 16, 8)
			if err != nil {
				return out, false
			}
			out[i] = float64(v) / 255
		}
	default:
		return out, false
	}
	// pure white needs no background fill
	if out[0] == 1 && out[1] == 1 && out[2] == 1 {
		return out, false
	}
	return out, true
}
