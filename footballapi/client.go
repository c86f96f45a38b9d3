package footballapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"football-trends/apperr"
)

const (
	// DefaultBaseURL is the API-Football v3 endpoint
	DefaultBaseURL = "https://v3.football.api-sports.io"

	// DefaultTimeout is the default HTTP client timeout
	DefaultTimeout = 10 * time.Second
)

// Client talks to the football statistics REST API.
type Client struct {
	baseURL    string
	apiKey     string
	host       string
	httpClient *http.Client
}

// Config holds the configuration for the API client.
// When Host is set the key is sent RapidAPI style.
type Config struct {
	BaseURL    string
	APIKey     string
	Host       string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// NewClient creates a client for the default endpoint.
func NewClient(apiKey string) *Client {
	return NewClientWithConfig(Config{
		BaseURL: DefaultBaseURL,
		APIKey:  apiKey,
		Timeout: DefaultTimeout,
	})
}

// NewClientWithConfig creates a new client with custom configuration
func NewClientWithConfig(config Config) *Client {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: config.Timeout}
	}

	return &Client{
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		apiKey:     config.APIKey,
		host:       config.Host,
		httpClient: httpClient,
	}
}

// doRequest performs an HTTP request and returns the body of a 200 response.
func (c *Client) doRequest(ctx context.Context, method, endpoint string, params url.Values) ([]byte, error) {
	u, err := url.Parse(c.baseURL + endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}
	if params != nil {
		u.RawQuery = params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if c.host != "" {
		req.Header.Set("x-rapidapi-key", c.apiKey)
		req.Header.Set("x-rapidapi-host", c.host)
	} else {
		req.Header.Set("x-apisports-key", c.apiKey)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
		var env envelope
		if json.Unmarshal(body, &env) == nil {
			if msgs := env.errorMessages(); len(msgs) > 0 {
				apiErr.Message = strings.Join(msgs, "; ")
			}
		}
		return nil, apiErr
	}

	return body, nil
}

// get performs a GET request and decodes the envelope's response field into out.
// It returns the result count reported by the API.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values, out interface{}) (int, error) {
	body, err := c.doRequest(ctx, http.MethodGet, endpoint, params)
	if err != nil {
		return 0, err
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return 0, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if msgs := env.errorMessages(); len(msgs) > 0 {
		return 0, &APIError{StatusCode: http.StatusOK, Message: strings.Join(msgs, "; ")}
	}
	if env.Results == 0 || isEmptyJSON(env.Response) {
		return 0, nil
	}
	if err := json.Unmarshal(env.Response, out); err != nil {
		return 0, fmt.Errorf("failed to unmarshal %s payload: %w", endpoint, err)
	}
	return env.Results, nil
}

// envelope is the wrapper every API-Football response shares.
type envelope struct {
	Get      string          `json:"get"`
	Errors   json.RawMessage `json:"errors"`
	Results  int             `json:"results"`
	Response json.RawMessage `json:"response"`
}

// errorMessages flattens the errors field, which is either an object keyed
// by parameter or an array of strings. An empty array or object means success.
func (e envelope) errorMessages() []string {
	if isEmptyJSON(e.Errors) {
		return nil
	}
	var byField map[string]string
	if err := json.Unmarshal(e.Errors, &byField); err == nil {
		keys := make([]string, 0, len(byField))
		for k := range byField {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		msgs := make([]string, 0, len(keys))
		for _, k := range keys {
			msgs = append(msgs, k+": "+byField[k])
		}
		return msgs
	}
	var list []string
	if err := json.Unmarshal(e.Errors, &list); err == nil {
		return list
	}
	return []string{string(e.Errors)}
}

func isEmptyJSON(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	switch string(trimmed) {
	case "", "null", "[]", "{}":
		return true
	}
	return false
}

// APIError represents an API error response
type APIError struct {
	StatusCode int
	Message    string
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("API error %d: %s", e.StatusCode, e.Message)
}

// Unwrap lets callers match API failures with apperr.ErrUpstream.
func (e *APIError) Unwrap() error {
	return apperr.ErrUpstream
}
