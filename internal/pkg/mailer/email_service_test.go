package mailer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEveryTemplateRenders(t *testing.T) {
	templates, err := parseTemplates()
	require.NoError(t, err)

	for name := range subjects {
		t.Run(string(name), func(t *testing.T) {
			subject, body, err := Render(templates, "Billing", name, map[string]interface{}{"Name": "Ada"})
			require.NoError(t, err)
			assert.NotEmpty(t, subject)
			assert.Contains(t, body, "Billing")
		})
	}
}

func TestInvoiceTemplateEscapesAndIncludesLinks(t *testing.T) {
	templates, err := parseTemplates()
	require.NoError(t, err)

	_, body, err := Render(templates, "Billing", TemplateInvoice, map[string]interface{}{
		"Name":          "<b>Ada</b>",
		"InvoiceNumber": "INV-1A2B3C4D",
		"Amount":        "29.00",
		"Currency":      "USD",
		"HostedUrl":     "https://invoice.example/in_1",
	})
	require.NoError(t, err)
	assert.Contains(t, body, "INV-1A2B3C4D")
	assert.Contains(t, body, "https://invoice.example/in_1")
	assert.Contains(t, body, "&lt;b&gt;Ada&lt;/b&gt;")
	assert.NotContains(t, body, "Download PDF")
}

func TestRenderRejectsUnknownTemplate(t *testing.T) {
	templates, err := parseTemplates()
	require.NoError(t, err)

	_, _, err = Render(templates, "Billing", Template("nope"), nil)
	assert.Error(t, err)
}
