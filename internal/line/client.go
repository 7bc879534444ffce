package line

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tedinroc/line-gpt-bot/pkg/logging"
)

const (
	defaultAPIBaseURL     = "https://api.line.me"
	defaultDataAPIBaseURL = "https://api-data.line.me"

	// LINE rejects text messages above 5000 characters.
	maxReplyTextLen = 5000

	// Message content (images) is capped well below this; the limit only
	// guards against a misbehaving upstream.
	maxContentBytes = 10 << 20
)

// Config controls how the Messaging API client behaves.
type Config struct {
	AccessToken    string
	APIBaseURL     string
	DataAPIBaseURL string
	Timeout        time.Duration
	HTTPClient     *http.Client
	Logger         *logging.Logger
}

// Client wraps the LINE Messaging API endpoints the relay needs: sending one
// reply per reply token and fetching binary message content.
type Client struct {
	accessToken    string
	apiBaseURL     string
	dataAPIBaseURL string
	httpClient     *http.Client
	logger         *logging.Logger
}

// StatusError captures non-2xx responses from the Messaging API.
type StatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("line: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

// NewClient creates a configured Client with sane defaults.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.AccessToken) == "" {
		return nil, errors.New("line: channel access token is required")
	}
	apiBase := strings.TrimRight(strings.TrimSpace(cfg.APIBaseURL), "/")
	if apiBase == "" {
		apiBase = defaultAPIBaseURL
	}
	dataBase := strings.TrimRight(strings.TrimSpace(cfg.DataAPIBaseURL), "/")
	if dataBase == "" {
		dataBase = defaultDataAPIBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	return &Client{
		accessToken:    cfg.AccessToken,
		apiBaseURL:     apiBase,
		dataAPIBaseURL: dataBase,
		httpClient:     httpClient,
		logger:         logger,
	}, nil
}

type replyRequest struct {
	ReplyToken string         `json:"replyToken"`
	Messages   []replyMessage `json:"messages"`
}

type replyMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// ReplyText sends exactly one text reply using the event's single-use reply
// token. A token can only be consumed once; the platform rejects reuse.
func (c *Client) ReplyText(ctx context.Context, replyToken, text string) error {
	if strings.TrimSpace(replyToken) == "" {
		return errors.New("line: reply token is required")
	}
	if text == "" {
		return errors.New("line: reply text is required")
	}
	if len([]rune(text)) > maxReplyTextLen {
		text = string([]rune(text)[:maxReplyTextLen])
	}

	payload, err := json.Marshal(replyRequest{
		ReplyToken: replyToken,
		Messages:   []replyMessage{{Type: "text", Text: text}},
	})
	if err != nil {
		return fmt.Errorf("line: marshal reply: %w", err)
	}

	url := c.apiBaseURL + "/v2/bot/message/reply"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("line: create reply request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	res, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("line: reply request failed: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return &StatusError{StatusCode: res.StatusCode, URL: url, Body: string(buf)}
	}
	return nil
}

// GetMessageContent fetches the binary content (image bytes) attached to a
// message from the data API host.
func (c *Client) GetMessageContent(ctx context.Context, messageID string) ([]byte, error) {
	if strings.TrimSpace(messageID) == "" {
		return nil, errors.New("line: message id is required")
	}

	url := fmt.Sprintf("%s/v2/bot/message/%s/content", c.dataAPIBaseURL, messageID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("line: create content request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("line: content request failed: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return nil, &StatusError{StatusCode: res.StatusCode, URL: url, Body: string(buf)}
	}

	data, err := io.ReadAll(io.LimitReader(res.Body, maxContentBytes))
	if err != nil {
		return nil, fmt.Errorf("line: read content body: %w", err)
	}
	if len(data) == 0 {
		return nil, errors.New("line: empty message content")
	}
	return data, nil
}
