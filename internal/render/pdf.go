package render

import (
	"bytes"
	"fmt"
)

// pdfPage is a minimal single-page PDF writer: Helvetica text, stroked and
// filled primitives, JPEG images as DCTDecode XObjects. Coordinates are PDF
// points with the origin at the bottom-left.
type pdfPage struct {
	width, height float64
	content       bytes.Buffer
	images        []pdfImage
}

type pdfImage struct {
	data          []byte
	width, height int
}

const (
	fontRegular = "F1"
	fontBold    = "F2"
)

func newPDFPage(width, height float64) *pdfPage {
	return &pdfPage{width: width, height: height}
}

// escapeText handles the PDF string delimiters. Runes outside Latin-1 are
// replaced; the built-in Helvetica encoding cannot represent them.
func escapeText(s string) string {
	var b bytes.Buffer
	for _, r := range s {
		switch r {
		case '(', ')', '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		default:
			if r > 0xFF {
				b.WriteByte('?')
			} else {
				b.WriteByte(byte(r))
			}
		}
	}
	return b.String()
}

func (p *pdfPage) Text(x, y, size float64, font, text string) {
	fmt.Fprintf(&p.content, "BT /%s %.1f Tf 1 0 0 1 %.1f %.1f Tm (%s) Tj ET\n",
		font, size, x, y, escapeText(text))
}

// TextWidth approximates the rendered width of text at size. Helvetica
// averages about half the em per glyph, close enough for centering.
func (p *pdfPage) TextWidth(text string, size float64) float64 {
	return float64(len([]rune(text))) * size * 0.5
}

func (p *pdfPage) TextCentered(cx, y, size float64, font, text string) {
	p.Text(cx-p.TextWidth(text, size)/2, y, size, font, text)
}

func (p *pdfPage) SetStrokeColor(r, g, b float64) {
	fmt.Fprintf(&p.content, "%.3f %.3f %.3f RG\n", r, g, b)
}

func (p *pdfPage) SetFillColor(r, g, b float64) {
	fmt.Fprintf(&p.content, "%.3f %.3f %.3f rg\n", r, g, b)
}

func (p *pdfPage) Line(x1, y1, x2, y2, width float64) {
	fmt.Fprintf(&p.content, "%.1f w %.1f %.1f m %.1f %.1f l S\n", width, x1, y1, x2, y2)
}

func (p *pdfPage) RectStroke(x, y, w, h, lineWidth float64) {
	fmt.Fprintf(&p.content, "%.1f w %.1f %.1f %.1f %.1f re S\n", lineWidth, x, y, w, h)
}

func (p *pdfPage) RectFill(x, y, w, h float64) {
	fmt.Fprintf(&p.content, "%.1f %.1f %.1f %.1f re f\n", x, y, w, h)
}

// ImageJPEG places a JPEG at (x, y) scaled into w x h. Non-JPEG data is
// ignored; the slot renders blank rather than failing the document.
func (p *pdfPage) ImageJPEG(data []byte, x, y, w, h float64) {
	iw, ih, ok := jpegSize(data)
	if !ok {
		return
	}
	p.images = append(p.images, pdfImage{data: data, width: iw, height: ih})
	fmt.Fprintf(&p.content, "q %.1f 0 0 %.1f %.1f %.1f cm /Im%d Do Q\n",
		w, h, x, y, len(p.images))
}

// jpegSize reads the dimensions out of the first SOF marker.
func jpegSize(data []byte) (w, h int, ok bool) {
	if len(data) < 4 || data[0] != 0xFF || data[1] != 0xD8 {
		return 0, 0, false
	}
	i := 2
	for i+9 < len(data) {
		if data[i] != 0xFF {
			return 0, 0, false
		}
		marker := data[i+1]
		if marker == 0xD8 || (marker >= 0xD0 && marker <= 0xD7) {
			i += 2
			continue
		}
		length := int(data[i+2])<<8 | int(data[i+3])
		if marker >= 0xC0 && marker <= 0xCF && marker != 0xC4 && marker != 0xC8 && marker != 0xCC {
			h = int(data[i+5])<<8 | int(data[i+6])
			w = int(data[i+7])<<8 | int(data[i+8])
			return w, h, w > 0 && h > 0
		}
		i += 2 + length
	}
	return 0, 0, false
}

// Bytes assembles the document: catalog, page tree, one page, two fonts,
// the content stream and any image XObjects, then the xref table.
func (p *pdfPage) Bytes() []byte {
	var objects [][]byte

	xobjects := ""
	for i := range p.images {
		xobjects += fmt.Sprintf(" /Im%d %d 0 R", i+1, 7+i)
	}
	objects = append(objects,
		[]byte("<< /Type /Catalog /Pages 2 0 R >>"),
		[]byte("<< /Type /Pages /Kids [3 0 R] /Count 1 >>"),
		[]byte(fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %.1f %.1f] /Contents 4 0 R /Resources << /Font << /F1 5 0 R /F2 6 0 R >> /XObject <<%s >> >> >>",
			p.width, p.height, xobjects)),
		[]byte(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", p.content.Len(), p.content.String())),
		[]byte("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>"),
		[]byte("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica-Bold /Encoding /WinAnsiEncoding >>"),
	)
	for _, img := range p.images {
		var b bytes.Buffer
		fmt.Fprintf(&b, "<< /Type /XObject /Subtype /Image /Width %d /Height %d /ColorSpace /DeviceRGB /BitsPerComponent 8 /Filter /DCTDecode /Length %d >>\nstream\n",
			img.width, img.height, len(img.data))
		b.Write(img.data)
		b.WriteString("\nendstream")
		objects = append(objects, b.Bytes())
	}

	var out bytes.Buffer
	out.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = out.Len()
		fmt.Fprintf(&out, "%d 0 obj\n", i+1)
		out.Write(obj)
		out.WriteString("\nendobj\n")
	}
	xrefAt := out.Len()
	fmt.Fprintf(&out, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&out, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&out, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n",
		len(objects)+1, xrefAt)
	return out.Bytes()
}
