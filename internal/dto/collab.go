package dto

// ── order / billing collaborator payloads ──

// OrderItem one order line
type OrderItem struct {
	ItemID   string  `json:"item_id"`
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
	Status   string  `json:"status"`
}

// KOTSummary kitchen ticket summary
type KOTSummary struct {
	KOTID     string `json:"kot_id"`
	KOTNumber string `json:"kot_number"`
	Status    string `json:"status"`
	ItemCount int    `json:"item_count"`
	CreatedAt string `json:"created_at"`
}

// IsPending reports whether the kitchen has not served the ticket yet
func (k KOTSummary) IsPending() bool {
	switch k.Status {
	case "served", "cancelled", "completed":
		return false
	}
	return true
}

// OrderSummary order header, lines and tickets as reported by the order service
type OrderSummary struct {
	OrderID     string       `json:"order_id"`
	OrderNumber string       `json:"order_number"`
	Status      string       `json:"status"`
	Subtotal    float64      `json:"subtotal"`
	GrandTotal  float64      `json:"grand_total"`
	ItemCount   int          `json:"item_count"`
	Items       []OrderItem  `json:"items,omitempty"`
	KOTs        []KOTSummary `json:"kots,omitempty"`
}

// PendingKOTs tickets still in the kitchen
func (o *OrderSummary) PendingKOTs() []KOTSummary {
	pending := make([]KOTSummary, 0, len(o.KOTs))
	for _, k := range o.KOTs {
		if k.IsPending() {
			pending = append(pending, k)
		}
	}
	return pending
}

// InvoiceSummary invoice as reported by the billing service
type InvoiceSummary struct {
	InvoiceID     string  `json:"invoice_id"`
	InvoiceNumber string  `json:"invoice_number"`
	GrandTotal    float64 `json:"grand_total"`
	PaymentStatus string  `json:"payment_status"`
	PaidAmount    float64 `json:"paid_amount"`
}
