// Package mail sends transactional email over SMTP and renders the HTML
// bodies from embedded templates.
package mail

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// Mailer sends a single HTML email.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// VerificationEmailData feeds the verification template.
type VerificationEmailData struct {
	UserEmail        string
	VerificationLink string
}

// RenderVerificationEmail renders the account verification email body.
func RenderVerificationEmail(data VerificationEmailData) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, "verification.html", data); err != nil {
		return "", fmt.Errorf("render verification email: %w", err)
	}
	return buf.String(), nil
}
