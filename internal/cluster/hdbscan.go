package cluster

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HDBSCANClient talks to the external density-based clustering service over
// HTTP. The service owns the algorithm; this client only ships embeddings
// out and groups back.
type HDBSCANClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewHDBSCANClient creates a client for the clustering service at baseURL.
func NewHDBSCANClient(baseURL string) *HDBSCANClient {
	return &HDBSCANClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// Cluster posts the request to the service's /cluster endpoint.
func (c *HDBSCANClient) Cluster(ctx context.Context, req ServiceRequest) (ServiceResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return ServiceResponse{}, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/cluster", bytes.NewReader(body))
	if err != nil {
		return ServiceResponse{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return ServiceResponse{}, fmt.Errorf("clustering request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return ServiceResponse{}, fmt.Errorf("clustering service returned %d: %s", resp.StatusCode, payload)
	}

	var result ServiceResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return ServiceResponse{}, fmt.Errorf("decode response: %w", err)
	}

	return result, nil
}
