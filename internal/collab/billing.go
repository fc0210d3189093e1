package collab

import (
	"context"
	"errors"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/imaker-dev/restro-backend-sub002/internal/dto"
)

// BillingClient read-only view of the billing service
type BillingClient struct {
	c *httpClient
}

// NewBillingClient creates a BillingClient for baseURL
func NewBillingClient(baseURL string, timeout time.Duration, logger *zap.Logger) *BillingClient {
	return &BillingClient{c: newHTTPClient(baseURL, timeout, logger)}
}

// GetInvoiceByOrder nil invoice when the order has not been billed
func (b *BillingClient) GetInvoiceByOrder(ctx context.Context, orderID string) (*dto.InvoiceSummary, error) {
	var inv dto.InvoiceSummary
	if err := b.c.getJSON(ctx, "/api/v1/invoices/by-order/"+url.PathEscape(orderID), &inv); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &inv, nil
}
