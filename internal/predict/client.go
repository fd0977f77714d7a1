// Package predict is a client for the DHFR potency prediction service.
package predict

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const (
	// DefaultBaseURL is where the prediction service listens in a local setup.
	DefaultBaseURL = "http://localhost:8001"

	potencyPath = "/get_potency"

	// maxErrorBody bounds how much of a failed response is kept for logging.
	maxErrorBody = 4 << 10
)

// Client talks to the prediction service over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	validate   *validator.Validate
	logger     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the overall request timeout. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithLogger attaches a logger for request diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// request is the /get_potency request body.
type request struct {
	CanonicalSmile string `json:"canonical_smile"`
}

// NewClient creates a client for the service at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	raw := strings.TrimSpace(baseURL)
	if raw == "" {
		raw = DefaultBaseURL
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("base URL %q: scheme must be http or https", raw)
	}

	c := &Client{
		baseURL:    strings.TrimRight(raw, "/"),
		httpClient: &http.Client{Timeout: 2 * time.Minute},
		validate:   newValidator(),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// BaseURL returns the normalized service root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Ping calls the service root and returns the decoded JSON body.
func (c *Client) Ping(ctx context.Context) (any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, transportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, statusError(resp)
	}

	var body any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding liveness response: %w", err)
	}

	return body, nil
}

// Predict submits one compound and returns the validated prediction.
func (c *Client) Predict(ctx context.Context, smiles string) (*Response, error) {
	body, err := json.Marshal(request{CanonicalSmile: smiles})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+potencyPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("sending request", zap.String("canonical_smiles", smiles), zap.String("url", req.URL.String()))

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, transportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		serr := statusError(resp)
		c.logger.Debug("prediction rejected", zap.Int("status", serr.StatusCode), zap.String("body", serr.Body))
		return nil, serr
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError(err)
	}

	var out Response
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, &SchemaError{Problems: []string{decodeProblem(err)}, Err: err}
	}
	if err := c.check(&out); err != nil {
		return nil, err
	}

	c.logger.Debug("prediction received",
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
		zap.Stringp("inhibitor", out.Inhibitor),
		zap.Float64p("ic50", out.IC50),
	)

	return &out, nil
}

func statusError(resp *http.Response) *StatusError {
	payload, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &StatusError{StatusCode: resp.StatusCode, Body: string(payload)}
}

// transportError strips the *url.Error envelope so the message names the
// network cause rather than the request line.
func transportError(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) && uerr.Err != nil {
		return &TransportError{Err: uerr.Err}
	}
	return &TransportError{Err: err}
}

func decodeProblem(err error) string {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return fmt.Sprintf("%s has wrong type %s", typeErr.Field, typeErr.Value)
	}
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return "body is not valid JSON"
	}
	return err.Error()
}
