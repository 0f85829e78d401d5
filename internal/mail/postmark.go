// postmark.go delivers mail through the Postmark HTTP API. Only the single
// /email endpoint is used; batch sending and message streams are not needed
// for transactional volume.
package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/fest-dev/fest/internal/config"
)

type postmarkTransport struct {
	serverToken string
	baseURL     string
	client      *http.Client
}

func newPostmarkTransport(cfg *config.PostmarkConfig) *postmarkTransport {
	baseURL := cfg.APIBaseURL
	if baseURL == "" {
		baseURL = "https://api.postmarkapp.com"
	}
	return &postmarkTransport{
		serverToken: cfg.ServerToken,
		baseURL:     baseURL,
		client:      &http.Client{Timeout: 15 * time.Second},
	}
}

// postmarkRequest mirrors the Postmark /email request body. Field names are
// fixed by the API.
type postmarkRequest struct {
	From     string `json:"From"`
	To       string `json:"To"`
	Subject  string `json:"Subject"`
	HTMLBody string `json:"HtmlBody,omitempty"`
	TextBody string `json:"TextBody,omitempty"`
}

type postmarkResponse struct {
	ErrorCode int    `json:"ErrorCode"`
	Message   string `json:"Message"`
}

func (t *postmarkTransport) Send(ctx context.Context, from string, msg *Message) error {
	body, err := json.Marshal(postmarkRequest{
		From:     from,
		To:       msg.To,
		Subject:  msg.Subject,
		HTMLBody: msg.HTMLBody,
		TextBody: msg.TextBody,
	})
	if err != nil {
		return fmt.Errorf("failed to encode postmark request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/email", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build postmark request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Postmark-Server-Token", t.serverToken)

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("postmark request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	if resp.StatusCode != http.StatusOK {
		var pmResp postmarkResponse
		if err := json.Unmarshal(respBody, &pmResp); err == nil && pmResp.Message != "" {
			return fmt.Errorf("postmark rejected message (status %d, code %d): %s",
				resp.StatusCode, pmResp.ErrorCode, pmResp.Message)
		}
		return fmt.Errorf("postmark rejected message: status %d", resp.StatusCode)
	}

	return nil
}
