package collab

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/imaker-dev/restro-backend-sub002/internal/dto"
)

// OrderClient read-only view of the order service
type OrderClient struct {
	c *httpClient
}

// NewOrderClient creates an OrderClient for baseURL
func NewOrderClient(baseURL string, timeout time.Duration, logger *zap.Logger) *OrderClient {
	return &OrderClient{c: newHTTPClient(baseURL, timeout, logger)}
}

// GetSummaries fetches all orders in one request; unknown ids are absent from the result
func (o *OrderClient) GetSummaries(ctx context.Context, orderIDs []string) (map[string]*dto.OrderSummary, error) {
	result := make(map[string]*dto.OrderSummary, len(orderIDs))
	if len(orderIDs) == 0 {
		return result, nil
	}

	q := url.Values{}
	q.Set("ids", strings.Join(orderIDs, ","))

	var list []dto.OrderSummary
	if err := o.c.getJSON(ctx, "/api/v1/orders/summaries?"+q.Encode(), &list); err != nil {
		if errors.Is(err, ErrNotFound) {
			return result, nil
		}
		return nil, err
	}
	for i := range list {
		result[list[i].OrderID] = &list[i]
	}
	return result, nil
}
