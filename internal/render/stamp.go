package render

import (
	"fmt"
	"time"
)

// SignedStamp builds the digital-signature attestation page the mock
// provider issues as the signed artifact: seal, signer, transaction id,
// the SHA-256 of the signed document, and the signing timestamp.
func SignedStamp(signerName, transactionID, documentHash string, signedAt time.Time) []byte {
	p := newPDFPage(pageWidth, pageHeight)

	p.SetFillColor(0.941, 0.973, 1)
	p.RectFill(0, 0, pageWidth, pageHeight)

	p.SetStrokeColor(0.231, 0.51, 0.965)
	p.RectStroke(28, 28, pageWidth-56, pageHeight-56, 2)

	cx := pageWidth / 2
	p.SetFillColor(0.231, 0.51, 0.965)
	p.RectFill(cx-28, pageHeight-180, 56, 56)
	p.SetFillColor(1, 1, 1)
	p.TextCentered(cx, pageHeight-160, 28, fontBold, "OK")

	p.SetFillColor(0.122, 0.161, 0.216)
	p.TextCentered(cx, pageHeight-240, 22, fontBold, "DOCUMENTO FIRMADO DIGITALMENTE")
	p.SetStrokeColor(0.231, 0.51, 0.965)
	p.Line(90, pageHeight-260, pageWidth-90, pageHeight-260, 0.5)

	p.SetFillColor(0.294, 0.333, 0.388)
	y := pageHeight - 310.0
	for _, line := range []string{
		fmt.Sprintf("Firmante: %s", signerName),
		fmt.Sprintf("Fecha: %s", signedAt.UTC().Format("02/01/2006 15:04:05 UTC")),
		fmt.Sprintf("Transaccion: %s", transactionID),
		fmt.Sprintf("SHA-256: %s", documentHash),
	} {
		p.TextCentered(cx, y, 12, fontRegular, line)
		y -= 24
	}

	p.TextCentered(cx, 80, 9, fontRegular,
		"Firma electronica simulada - no valida como firma legal")

	return p.Bytes()
}
