package mailer

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log"

	"gopkg.in/gomail.v2"
)

//go:embed templates/*.html
var templateFS embed.FS

type Template string

const (
	TemplateVerification             Template = "verification"
	TemplateWelcome                  Template = "welcome"
	TemplatePasswordReset            Template = "password-reset"
	TemplateSubscriptionConfirmation Template = "subscription-confirmation"
	TemplateInvoice                  Template = "invoice-email"
	TemplateSubscriptionCanceled     Template = "subscription-canceled"
)

var subjects = map[Template]string{
	TemplateVerification:             "Verify your email address",
	TemplateWelcome:                  "Welcome aboard",
	TemplatePasswordReset:            "Reset Your Password",
	TemplateSubscriptionConfirmation: "Your subscription is active",
	TemplateInvoice:                  "Your invoice",
	TemplateSubscriptionCanceled:     "Your subscription was canceled",
}

type IEmailService interface {
	SendTemplate(toEmail string, tmpl Template, vars map[string]interface{}) error
}

type emailService struct {
	dialer      *gomail.Dialer
	senderEmail string
	senderName  string
	appName     string
	templates   map[Template]*template.Template
}

func NewEmailService(host string, port int, username, password, senderEmail, senderName, appName string) (IEmailService, error) {
	templates, err := parseTemplates()
	if err != nil {
		return nil, err
	}
	return &emailService{
		dialer:      gomail.NewDialer(host, port, username, password),
		senderEmail: senderEmail,
		senderName:  senderName,
		appName:     appName,
		templates:   templates,
	}, nil
}

func parseTemplates() (map[Template]*template.Template, error) {
	out := make(map[Template]*template.Template, len(subjects))
	for name := range subjects {
		t, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+string(name)+".html")
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		out[name] = t
	}
	return out, nil
}

// Render returns the subject and HTML body for tmpl. AppName is always set.
func Render(templates map[Template]*template.Template, appName string, tmpl Template, vars map[string]interface{}) (string, string, error) {
	t, ok := templates[tmpl]
	if !ok {
		return "", "", fmt.Errorf("unknown email template %q", tmpl)
	}

	data := make(map[string]interface{}, len(vars)+1)
	for k, v := range vars {
		data[k] = v
	}
	data["AppName"] = appName

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return "", "", fmt.Errorf("render template %s: %w", tmpl, err)
	}
	return subjects[tmpl], buf.String(), nil
}

func (s *emailService) SendTemplate(toEmail string, tmpl Template, vars map[string]interface{}) error {
	subject, body, err := Render(s.templates, s.appName, tmpl, vars)
	if err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.senderEmail, s.senderName)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		log.Printf("[MAILER ERROR] Failed to send %s to %s: %v", tmpl, toEmail, err)
		return err
	}

	log.Printf("[MAILER] %s sent to %s", tmpl, toEmail)
	return nil
}
