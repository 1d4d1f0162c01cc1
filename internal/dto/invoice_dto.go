package dto

import (
	"time"
)

type InvoiceResponse struct {
	Id             uint       `json:"id"`
	InvoiceNumber  string     `json:"invoice_number"`
	SubscriptionId uint       `json:"subscription_id"`
	Amount         float64    `json:"amount"`
	Currency       string     `json:"currency"`
	Status         string     `json:"status"`
	DueDate        time.Time  `json:"due_date"`
	PaidAt         *time.Time `json:"paid_at,omitempty"`
	HostedUrl      *string    `json:"hosted_url,omitempty"`
	PdfUrl         *string    `json:"pdf_url,omitempty"`
	EmailSent      bool       `json:"email_sent"`
	CreatedAt      time.Time  `json:"created_at"`
}
