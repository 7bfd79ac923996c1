package billing

// Inbound billing-provider event types.
const (
	EventInvoicePaid          = "invoice.paid"
	EventInvoicePaymentFailed = "invoice.payment_failed"
	EventSubscriptionUpdated  = "customer.subscription.updated"
	EventSubscriptionDeleted  = "customer.subscription.deleted"
)

// Event is the provider-agnostic view of a billing webhook: the customer
// reference identifies the organization, everything else is transition input.
type Event struct {
	ID             string `json:"id"`
	Type           string `json:"type"`
	CustomerRef    string `json:"customer"`
	SubscriptionID string `json:"subscription_id,omitempty"`
	Status         string `json:"status,omitempty"`
	InvoiceID      string `json:"invoice_id,omitempty"`
	AmountPaid     int64  `json:"amount_paid,omitempty"`
}
