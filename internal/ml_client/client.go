package ml_client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Client is a client for the model inference service API. The service hosts
// sequence-classification checkpoints addressed by their Hugging Face
// reference and exposes raw logits so that arg-max and confidence stay on
// this side of the wire.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// ModelInfo describes a loaded model: its label map and shape. It is the
// single canonical descriptor produced at the service boundary; nothing
// downstream branches on alternative shapes.
type ModelInfo struct {
	ModelName string            `json:"model_name"`
	NumLabels int               `json:"num_labels"`
	ID2Label  map[string]string `json:"id2label"`
	MaxLength int               `json:"max_length"`
}

// ClassifyRequest represents a single text classification request. Truncation
// and padding length plus the random seed are fixed by the caller so repeated
// requests score identically.
type ClassifyRequest struct {
	Text      string `json:"text"`
	MaxLength int    `json:"max_length"`
	Seed      int64  `json:"seed"`
}

// ClassifyResponse carries the raw logits for one forward pass.
type ClassifyResponse struct {
	Logits []float64 `json:"logits"`
}

// NewClient creates a new inference service client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// GetModelInfo resolves a model by identifier, loading it on the service side
// if necessary. An unresolvable identifier surfaces as a non-200 status.
func (c *Client) GetModelInfo(ctx context.Context, modelName string) (*ModelInfo, error) {
	endpoint := fmt.Sprintf("%s/api/v1/models/%s", c.baseURL, url.PathEscape(modelName))
	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ML service returned status %d: %s", resp.StatusCode, string(body))
	}

	var result ModelInfo
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &result, nil
}

// Classify runs one forward pass over a single text and returns the logits.
func (c *Client) Classify(ctx context.Context, modelName string, request ClassifyRequest) (*ClassifyResponse, error) {
	jsonData, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/api/v1/models/%s/classify", c.baseURL, url.PathEscape(modelName))
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ML service returned status %d: %s", resp.StatusCode, string(body))
	}

	var result ClassifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &result, nil
}
