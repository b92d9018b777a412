// Package rest stores account data in a hosted PostgREST-compatible backend.
package rest

import (
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
)

const (
	defaultTimeout = 30 * time.Second
	pathPrefix     = "/rest/v1/"
)

// APIError is a non-2xx answer from the backend.
type APIError struct {
	Op     string
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: backend returned %d: %s", e.Op, e.Status, e.Body)
}

// Client talks to the backend with the project's API key.
type Client struct {
	http *resty.Client
}

// NewClient returns a client for baseURL. The API key is sent both as the apikey header
// and as the bearer token.
func NewClient(baseURL, apiKey string) *Client {
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(defaultTimeout).
		SetHeader("apikey", apiKey).
		SetHeader("Accept", "application/json").
		SetJSONMarshaler(json.Marshal).
		SetJSONUnmarshaler(json.Unmarshal)
	if apiKey != "" {
		c.SetAuthToken(apiKey)
	}
	return &Client{http: c}
}

func check(op string, resp *resty.Response, err error) error {
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if resp.IsError() {
		return &APIError{Op: op, Status: resp.StatusCode(), Body: string(resp.Body())}
	}
	return nil
}
