package nats

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDurableNameIsStablePerGroupAndType(t *testing.T) {
	assert.Equal(t, "notifier-subscription-activated", durableName("notifier", "SUBSCRIPTION_ACTIVATED"))
	assert.Equal(t, "notifier-invoice-paid", durableName("notifier", "INVOICE_PAID"))
}
