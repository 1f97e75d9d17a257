package pincode

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

	"github.com/dukerupert/pinfill/internal/address"
	"github.com/dukerupert/pinfill/internal/domain"
)

// DefaultTimeout bounds a single lookup round trip.
const DefaultTimeout = 10 * time.Second

// Envelope is the JSON body of GET /pincode/{code}.
type Envelope struct {
	Success bool      `json:"success"`
	Data    *Location `json:"data,omitempty"`
	Message string    `json:"message,omitempty"`
}

// ClientConfig configures the REST client.
type ClientConfig struct {
	// BaseURL is the storefront API root, e.g. "http://localhost:3000".
	BaseURL string

	// Timeout is applied to every request. Defaults to DefaultTimeout.
	Timeout time.Duration

	// HTTPClient overrides the transport (tests use httptest servers).
	HTTPClient *http.Client
}

// Client calls the storefront REST backend.
// It implements Lookup and address.Sink.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a REST client.
func NewClient(cfg ClientConfig) (*Client, error) {
	base, err := url.Parse(strings.TrimSuffix(cfg.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid pincode API URL %q", cfg.BaseURL)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	clone := *hc
	clone.Timeout = timeout

	return &Client{baseURL: base.String(), http: &clone}, nil
}

// Lookup issues GET /pincode/{code}.
func (c *Client) Lookup(ctx context.Context, code string) (*Location, error) {
	if !Valid(code) {
		return nil, &LookupError{Kind: KindInvalidFormat, Code: code, Err: ErrInvalidFormat}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/pincode/"+url.PathEscape(code), nil)
	if err != nil {
		return nil, &LookupError{Kind: KindUnknown, Code: code, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &LookupError{Kind: Classify(err), Code: code, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &LookupError{Kind: KindForStatus(resp.StatusCode), Code: code, Status: resp.StatusCode}
	}

	var env Envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, &LookupError{Kind: Classify(err), Code: code, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	if !env.Success || !env.Data.Complete() {
		return nil, &LookupError{Kind: KindUnknown, Code: code, Status: resp.StatusCode, Err: fmt.Errorf("incomplete response")}
	}

	loc := *env.Data
	loc.PostalCode = code
	return &loc, nil
}

// apiError mirrors the JSON error body written by the handler package.
type apiError struct {
	Error struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Fields  map[string]string `json:"fields,omitempty"`
	} `json:"error"`
}

// SubmitAddress issues POST /addresses with the finalized address.
func (c *Client) SubmitAddress(ctx context.Context, addr address.Address) error {
	const op = "pincode.submit_address"

	body, err := json.Marshal(addr)
	if err != nil {
		return domain.Internal(err, op, "failed to encode address")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/addresses", bytes.NewReader(body))
	if err != nil {
		return domain.Internal(err, op, "failed to build request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if Classify(err) == KindTimeout {
			return domain.Timeout(err, op, "address submission timed out")
		}
		return domain.Unavailable(err, op, "address service unavailable")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	var apiErr apiError
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&apiErr); err != nil {
		return domain.Errorf(domain.EINTERNAL, op, "unexpected status %d", resp.StatusCode)
	}
	if len(apiErr.Error.Fields) > 0 {
		return &domain.ValidationError{Op: op, Fields: apiErr.Error.Fields}
	}
	code := apiErr.Error.Code
	if code == "" {
		code = domain.EINTERNAL
	}
	return &domain.Error{Code: code, Op: op, Message: apiErr.Error.Message}
}
