package notify

import (
	"fmt"
	"html"

	"certia/pkg/domain"
)

// The HTML shell shared by every lifecycle email.
func emailShell(appName, heading, body string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="es"><head><meta charset="UTF-8"><title>%s</title></head>
<body style="margin:0;padding:0;font-family:-apple-system,'Segoe UI',Roboto,Arial,sans-serif;background-color:#f4f4f5;color:#333;">
<div style="max-width:600px;margin:0 auto;background:#ffffff;">
<div style="background:linear-gradient(135deg,#0284c7 0%%,#7c3aed 100%%);color:white;padding:40px 30px;text-align:center;">
<h1 style="margin:0;font-size:32px;">%s</h1></div>
<div style="padding:40px 30px;"><h2 style="margin:0 0 20px 0;font-size:24px;color:#1f2937;">%s</h2>
%s
</div>
<div style="padding:20px 30px;background:#f9fafb;font-size:12px;color:#9ca3af;text-align:center;">%s</div>
</div></body></html>`,
		html.EscapeString(appName), html.EscapeString(appName), heading, body, html.EscapeString(appName))
}

func statusLabel(s domain.Status) string {
	switch s {
	case domain.StatusPending:
		return "Pendiente de revisión"
	case domain.StatusReviewed:
		return "Revisado"
	case domain.StatusApproved:
		return "Aprobado"
	case domain.StatusRejected:
		return "Rechazado"
	case domain.StatusSigning:
		return "En proceso de firma"
	case domain.StatusSigned:
		return "Firmado"
	case domain.StatusError:
		return "Error en la firma"
	default:
		return string(s)
	}
}

func NewSubmissionEmail(appName, templateName, clientName string) (subject, body string) {
	subject = fmt.Sprintf("Nueva solicitud de certificado: %s", templateName)
	inner := fmt.Sprintf(`<p>%s envió una solicitud para el certificado <strong>%s</strong>.</p>
<p>Ingresa al panel para revisarla.</p>`,
		html.EscapeString(clientName), html.EscapeString(templateName))
	return subject, emailShell(appName, "Nueva solicitud recibida", inner)
}

func StatusChangeEmail(appName, templateName string, status domain.Status, notes string) (subject, body string) {
	subject = fmt.Sprintf("Tu certificado %s: %s", templateName, statusLabel(status))
	inner := fmt.Sprintf(`<p>El estado de tu solicitud para <strong>%s</strong> cambió a
<strong>%s</strong>.</p>`, html.EscapeString(templateName), statusLabel(status))
	if notes != "" {
		inner += fmt.Sprintf(`<div style="background:#f9fafb;border-left:4px solid #0284c7;padding:12px 16px;margin-top:16px;">%s</div>`,
			html.EscapeString(notes))
	}
	return subject, emailShell(appName, "Actualización de tu certificado", inner)
}

func SubmissionConfirmationEmail(appName, templateName string) (subject, body string) {
	subject = fmt.Sprintf("Recibimos tu solicitud: %s", templateName)
	inner := fmt.Sprintf(`<p>Tu solicitud para <strong>%s</strong> quedó registrada y está pendiente de revisión.</p>
<p>Te avisaremos cuando cambie de estado.</p>`, html.EscapeString(templateName))
	return subject, emailShell(appName, "Solicitud recibida", inner)
}

func WelcomeEmail(appName, fullName string) (subject, body string) {
	subject = fmt.Sprintf("Bienvenido a %s", appName)
	inner := fmt.Sprintf(`<p>Hola %s, tu cuenta quedó creada.</p>
<p>Ya puedes ingresar y gestionar tus certificados.</p>`, html.EscapeString(fullName))
	return subject, emailShell(appName, "Cuenta creada", inner)
}
