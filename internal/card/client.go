package card

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Client calls an extraction gateway over HTTP. It satisfies
// ExtractionClient so sessions can run against a remote gateway exactly as
// they run against the in-process service.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a gateway client for the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 180 * time.Second, // extraction waits on the vision model
		},
	}
}

// Extract posts the image payload to the gateway and returns the populated
// card. Transport failures become ErrConnection; gateway errors are
// rehydrated from the response status and message.
func (c *Client) Extract(ctx context.Context, imagePayload string) (*VaccinationCard, error) {
	reqBody, err := json.Marshal(map[string]string{"imageBase64": imagePayload})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	url := fmt.Sprintf("%s/api/extract", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, ErrConnection.Wrap(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errBody struct {
			Error string `json:"error"`
		}
		message := ErrUpstream.Message
		if err := json.NewDecoder(resp.Body).Decode(&errBody); err == nil && errBody.Error != "" {
			message = errBody.Error
		}
		return nil, errorForStatus(resp.StatusCode, message)
	}

	var result VaccinationCard
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, ErrConnection.Wrap(err)
	}
	return &result, nil
}
