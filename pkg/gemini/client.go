package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/SouvikSarkar080505/image-bot/pkg/chat"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	DefaultModel   = "gemini-2.0-flash"
	DefaultPrompt  = "Analyze this image and describe what you see in detail:"
	DefaultTimeout = 60 * time.Second

	// maxResponseBody bounds how much of a successful response is read.
	maxResponseBody = 8 << 20
)

// Config is the client configuration. Zero values take the defaults above.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Prompt  string
	Timeout time.Duration
}

// Client calls generateContent with a single inline image.
type Client struct {
	config     Config
	httpClient *http.Client
	logger     *zap.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the HTTP client, whose Timeout then applies instead of Config.Timeout.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a Client. A missing API key is not an error until Analyze is called.
func NewClient(config Config, opts ...Option) *Client {
	config.APIKey = strings.TrimSpace(config.APIKey)
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	if config.Model == "" {
		config.Model = DefaultModel
	}
	if config.Prompt == "" {
		config.Prompt = DefaultPrompt
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}

	c := &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ chat.Analyzer = (*Client)(nil)

// Analyze sends the image with the configured prompt and returns the model's description.
func (c *Client) Analyze(ctx context.Context, image chat.EncodedImage) (string, error) {
	if c.config.APIKey == "" {
		return "", ErrMissingAPIKey
	}

	mimeType := image.MIMEType
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	body, err := json.Marshal(NewImageRequest(c.config.Prompt, mimeType, image.Data))
	if err != nil {
		return "", fmt.Errorf("gemini: marshal request: %w", err)
	}

	endpoint := c.endpoint()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("gemini: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug("sending generateContent request",
		zap.String("model", c.config.Model),
		zap.String("mime_type", mimeType),
		zap.Int("body_size", len(body)),
	)

	started := time.Now()
	raw, err := c.doJSONRequest(req)
	if err != nil {
		return "", err
	}

	answer, err := extractAnswer(raw)
	if err != nil {
		return "", err
	}

	c.logger.Debug("received generateContent response",
		zap.Int("answer_len", len(answer)),
		zap.Duration("duration", time.Since(started)),
	)
	return answer, nil
}

func (c *Client) endpoint() string {
	return c.config.BaseURL + "/models/" + url.PathEscape(c.config.Model) + ":generateContent?key=" + url.QueryEscape(c.config.APIKey)
}

// redactedEndpoint is the endpoint safe for logs and errors.
func (c *Client) redactedEndpoint() string {
	return c.config.BaseURL + "/models/" + url.PathEscape(c.config.Model) + ":generateContent"
}

func (c *Client) doJSONRequest(req *http.Request) ([]byte, error) {
	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err, message: c.scrub(err.Error())}
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody+1))
		return nil, &HTTPStatusError{
			StatusCode: res.StatusCode,
			URL:        c.redactedEndpoint(),
			Body:       truncate(string(buf), maxErrorBody),
		}
	}

	buf, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("gemini: read response body: %w", err)
	}
	return buf, nil
}

// scrub removes the API key from transport errors, which embed the request URL.
func (c *Client) scrub(s string) string {
	if c.config.APIKey == "" {
		return s
	}
	s = strings.ReplaceAll(s, url.QueryEscape(c.config.APIKey), "REDACTED")
	return strings.ReplaceAll(s, c.config.APIKey, "REDACTED")
}
