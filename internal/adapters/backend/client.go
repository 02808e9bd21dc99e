// Package backend implements ports.BikeRegistryPort over the registration
// HTTP JSON API.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/bikereg/internal/ports"
)

// DefaultBaseURL is the default API root.
const DefaultBaseURL = "http://localhost:3000/api"

// Request paths relative to the base URL.
const (
	verifyPath   = "/verify-serial-number"
	registerPath = "/register"
)

// Response bodies larger than this are truncated before decoding.
const maxResponseBytes = 1 << 20

// ClientConfig configures the HTTP client.
type ClientConfig struct {
	// BaseURL is the API root, e.g. https://bikes.example.com/api
	BaseURL string
	// Timeout is the HTTP request timeout
	Timeout time.Duration
	// UserAgent is the User-Agent header value
	UserAgent string
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		BaseURL:   DefaultBaseURL,
		Timeout:   30 * time.Second,
		UserAgent: "bikereg/dev",
	}
}

// Client talks to the bike registration backend.
type Client struct {
	config     ClientConfig
	httpClient *http.Client
	newID      func() string
}

// NewClient creates a new backend client.
func NewClient(config ClientConfig) *Client {
	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		newID: func() string { return uuid.New().String() },
	}
}

type verifyRequest struct {
	SerialNumber string `json:"serialNumber"`
}

type verifyResponse struct {
	Data       *ports.BikeDetails `json:"data"`
	Error      string             `json:"error"`
	StatusCode int                `json:"status_code"`
}

type registerError struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message"`
	Errors  map[string]interface{} `json:"errors"`
}

// VerifySerial looks up a bike by serial number.
func (c *Client) VerifySerial(ctx context.Context, serialNumber string) (ports.BikeDetails, error) {
	status, body, err := c.post(ctx, verifyPath, verifyRequest{SerialNumber: serialNumber}, "")
	if err != nil {
		return ports.BikeDetails{}, err
	}

	var resp verifyResponse
	decodeErr := json.Unmarshal(body, &resp)

	if status == http.StatusOK {
		if decodeErr != nil || resp.Data == nil {
			return ports.BikeDetails{}, &ports.RegistryError{
				Kind:       ports.KindServer,
				StatusCode: status,
				Err:        fmt.Errorf("malformed verification response"),
			}
		}
		return *resp.Data, nil
	}

	regErr := &ports.RegistryError{Kind: kindForStatus(status), StatusCode: status}
	if decodeErr == nil {
		regErr.Message = resp.Error
	}
	return ports.BikeDetails{}, regErr
}

// Register submits a complete registration.
func (c *Client) Register(ctx context.Context, req ports.RegistrationRequest, opts ports.CallOptions) (ports.RegistrationReceipt, error) {
	status, body, err := c.post(ctx, registerPath, req, opts.IdempotencyKey)
	if err != nil {
		return ports.RegistrationReceipt{}, err
	}

	if status >= 200 && status < 300 {
		var receipt ports.RegistrationReceipt
		if err := json.Unmarshal(body, &receipt); err != nil {
			return ports.RegistrationReceipt{}, &ports.RegistryError{
				Kind:       ports.KindServer,
				StatusCode: status,
				Err:        fmt.Errorf("malformed registration response: %w", err),
			}
		}
		return receipt, nil
	}

	regErr := &ports.RegistryError{Kind: kindForStatus(status), StatusCode: status}
	var resp registerError
	if json.Unmarshal(body, &resp) == nil {
		regErr.Message = resp.Message
		regErr.Fields = flattenErrors(resp.Errors)
	}
	return ports.RegistrationReceipt{}, regErr
}

// post sends a JSON body and returns the status and raw response body.
// Transport failures are returned as server-kind registry errors without a
// display message, so callers fall back to their generic message.
func (c *Client) post(ctx context.Context, path string, payload interface{}, idempotencyKey string) (int, []byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to encode request: %w", err)
	}

	url := strings.TrimRight(c.config.BaseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return 0, nil, &ports.RegistryError{Kind: ports.KindServer, Err: fmt.Errorf("request creation failed: %w", err)}
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("X-Request-ID", c.newID())
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, &ports.RegistryError{Kind: ports.KindServer, Err: fmt.Errorf("request failed: %w", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return 0, nil, &ports.RegistryError{Kind: ports.KindServer, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	return resp.StatusCode, body, nil
}

func kindForStatus(status int) ports.ErrorKind {
	switch {
	case status == http.StatusNotFound:
		return ports.KindNotFound
	case status >= 400 && status < 500:
		return ports.KindValidation
	default:
		return ports.KindServer
	}
}

// flattenErrors renders server field details as strings.
func flattenErrors(in map[string]interface{}) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		switch val := v.(type) {
		case string:
			out[k] = val
		case []interface{}:
			parts := make([]string, 0, len(val))
			for _, p := range val {
				parts = append(parts, fmt.Sprint(p))
			}
			out[k] = strings.Join(parts, "; ")
		default:
			out[k] = fmt.Sprint(val)
		}
	}
	return out
}

var _ ports.BikeRegistryPort = (*Client)(nil)
