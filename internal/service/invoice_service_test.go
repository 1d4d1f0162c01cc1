package service

import (
	"context"
	"testing"

	"saas-billing-be/internal/pkg/apperror"
	"saas-billing-be/internal/pkg/gateway"
	"saas-billing-be/internal/pkg/mailer"
	"saas-billing-be/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func payInvoice(t *testing.T, h *billingHarness, invoiceId, subId string) {
	t.Helper()
	body, sig := testutil.SignedEvent(t, "evt_"+invoiceId, gateway.EventInvoicePaid, map[string]interface{}{
		"id":                 invoiceId,
		"object":             "invoice",
		"subscription":       subId,
		"amount_paid":        900,
		"currency":           "usd",
		"hosted_invoice_url": "https://invoice.test/" + invoiceId,
	})
	res, err := h.webhooks.HandleStripeEvent(context.Background(), body, sig)
	require.NoError(t, err)
	require.Equal(t, OutcomeProcessed, res.Outcome)
}

func TestInvoicesAreVisibleToTheirOwner(t *testing.T) {
	h := newBillingHarness(t)
	user := testutil.CreateUser(t, h.db)
	stranger := testutil.CreateUser(t, h.db)
	h.subscribe(t, user, "BASIC", "sub_1")
	payInvoice(t, h, "in_1", "sub_1")

	mine, err := h.invoices.ListMine(context.Background(), testutil.PrincipalOf(user))
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, 9.0, mine[0].Amount)
	assert.Equal(t, "PAID", mine[0].Status)
	assert.Regexp(t, `^INV-[0-9A-F]{8}$`, mine[0].InvoiceNumber)

	got, err := h.invoices.Get(context.Background(), testutil.PrincipalOf(user), mine[0].Id)
	require.NoError(t, err)
	assert.Equal(t, mine[0].InvoiceNumber, got.InvoiceNumber)

	_, err = h.invoices.Get(context.Background(), testutil.PrincipalOf(stranger), mine[0].Id)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	theirs, err := h.invoices.ListMine(context.Background(), testutil.PrincipalOf(stranger))
	require.NoError(t, err)
	assert.Empty(t, theirs)
}

func TestResendInvoiceIsAdminOnly(t *testing.T) {
	h := newBillingHarness(t)
	user := testutil.CreateUser(t, h.db)
	admin := testutil.CreateUser(t, h.db, testutil.Admin())
	h.subscribe(t, user, "BASIC", "sub_1")
	payInvoice(t, h, "in_1", "sub_1")
	mine, err := h.invoices.ListMine(context.Background(), testutil.PrincipalOf(user))
	require.NoError(t, err)
	require.Len(t, mine, 1)

	err = h.invoices.Resend(context.Background(), testutil.PrincipalOf(user), mine[0].Id)
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	require.NoError(t, h.invoices.Resend(context.Background(), testutil.PrincipalOf(admin), mine[0].Id))
	require.Len(t, h.mail.Sent, 1)
	assert.Equal(t, user.Email, h.mail.Sent[0].To)
	assert.Equal(t, mailer.TemplateInvoice, h.mail.Sent[0].Template)
	assert.Equal(t, "9.00", h.mail.Sent[0].Vars["Amount"])
	assert.Equal(t, "https://invoice.test/in_1", h.mail.Sent[0].Vars["HostedUrl"])

	got, err := h.invoices.Get(context.Background(), testutil.PrincipalOf(admin), mine[0].Id)
	require.NoError(t, err)
	assert.True(t, got.EmailSent)
}
