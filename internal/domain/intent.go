package domain

// Intent is the enumerated category of a user message.
type Intent string

// Closed intent set. Every message resolves to exactly one of these.
const (
	IntentOrderStatus   Intent = "order_status"
	IntentInvoice       Intent = "invoice"
	IntentWarranty      Intent = "warranty"
	IntentAppointment   Intent = "appointment"
	IntentSupportTicket Intent = "support_ticket"
	IntentUnknown       Intent = "unknown"
)

// Intents lists the business intents that have a structured handler
// (IntentUnknown excluded).
func Intents() []Intent {
	return []Intent{
		IntentOrderStatus,
		IntentInvoice,
		IntentWarranty,
		IntentAppointment,
		IntentSupportTicket,
	}
}

// Valid reports whether i belongs to the closed intent set.
func (i Intent) Valid() bool {
	switch i {
	case IntentOrderStatus, IntentInvoice, IntentWarranty,
		IntentAppointment, IntentSupportTicket, IntentUnknown:
		return true
	}
	return false
}
