package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/fitcore/fitcore/internal/shared"
)

// Client submits provider orders over HTTP.
type Client struct {
	baseURL    string
	creds      Credentials
	httpClient *http.Client
}

// NewClient constructs a gateway client.
func NewClient(baseURL string, creds Credentials) *Client {
	return &Client{
		baseURL: baseURL,
		creds:   creds,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// OrderResponse is the provider reply, passed through to the caller.
type OrderResponse struct {
	Provider Provider       `json:"provider"`
	OrderRef string         `json:"order_ref"`
	Raw      map[string]any `json:"raw"`
}

// CreateOrder builds the provider payload and posts it. Any provider
// failure surfaces as a gateway error carrying the provider message.
func (c *Client) CreateOrder(ctx context.Context, req OrderRequest) (OrderResponse, error) {
	ord, err := buildOrder(c.creds, req)
	if err != nil {
		return OrderResponse{}, err
	}

	body, err := json.Marshal(ord.Body)
	if err != nil {
		return OrderResponse{}, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+ord.Path, bytes.NewReader(body))
	if err != nil {
		return OrderResponse{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	for k, v := range ord.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return OrderResponse{}, fmt.Errorf("%w: %s unreachable: %v", shared.ErrGateway, req.Provider, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return OrderResponse{}, fmt.Errorf("%w: reading %s response: %v", shared.ErrGateway, req.Provider, err)
	}
	if resp.StatusCode >= 400 {
		return OrderResponse{}, fmt.Errorf("%w: %s returned status %d: %s", shared.ErrGateway, req.Provider, resp.StatusCode, providerMessage(payload))
	}

	raw := map[string]any{}
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &raw); err != nil {
			return OrderResponse{}, fmt.Errorf("%w: %s returned malformed response", shared.ErrGateway, req.Provider)
		}
	}
	return OrderResponse{Provider: req.Provider, OrderRef: req.OrderRef, Raw: raw}, nil
}

// providerMessage extracts a human-readable error from a provider body.
func providerMessage(payload []byte) string {
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(payload, &body); err == nil {
		if body.Error != "" {
			return body.Error
		}
		if body.Message != "" {
			return body.Message
		}
	}
	if len(payload) > 200 {
		payload = payload[:200]
	}
	return string(payload)
}
