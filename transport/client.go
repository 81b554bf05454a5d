package transport

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Client is a thin worker-client SDK over HTTPBinding's wire format.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient returns a Client pointed at baseURL (e.g. "http://localhost:8080").
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// GetNextJob calls POST /jobs/next for clientID.
func (c *Client) GetNextJob(clientID string) (NextJobResponse, error) {
	var resp NextJobResponse
	if err := c.post("/jobs/next", NextJobRequest{ClientID: clientID}, &resp); err != nil {
		return NextJobResponse{}, err
	}
	return resp, nil
}

// SubmitResult calls POST /jobs/result.
func (c *Client) SubmitResult(req SubmitResultRequest) (SubmitResultResponse, error) {
	var resp SubmitResultResponse
	if err := c.post("/jobs/result", req, &resp); err != nil {
		return SubmitResultResponse{}, err
	}
	return resp, nil
}

func (c *Client) post(path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("transport: encoding request: %w", err)
	}

	resp, err := c.http.Post(c.baseURL+path, "application/json", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("transport: posting %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("transport: %s returned status %d", path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("transport: decoding response from %s: %w", path, err)
	}
	return nil
}
