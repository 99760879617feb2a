package appwrite

import (
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
)

// ResponseFormat pins the shape of documents returned by the server.
const ResponseFormat = "1.5.0"

const userAgent = "booking-escalator/1.0"

// Client carries the endpoint and credentials shared by every service call.
// It performs no retries and sets no request timeout.
type Client struct {
	http *resty.Client
}

// NewClient returns a client with no endpoint or credentials set.
func NewClient() *Client {
	c := resty.New().
		SetHeader("Content-Type", "application/json").
		SetHeader("User-Agent", userAgent).
		SetHeader("X-Appwrite-Response-Format", ResponseFormat)
	return &Client{http: c}
}

// SetEndpoint sets the API root, e.g. https://cloud.appwrite.io/v1.
func (c *Client) SetEndpoint(endpoint string) *Client {
	c.http.SetBaseURL(strings.TrimRight(endpoint, "/"))
	return c
}

// SetProject sets the project the calls are scoped to.
func (c *Client) SetProject(projectID string) *Client {
	c.http.SetHeader("X-Appwrite-Project", projectID)
	return c
}

// SetKey sets the server API key.
func (c *Client) SetKey(key string) *Client {
	c.http.SetHeader("X-Appwrite-Key", key)
	return c
}

// Error is the error body returned by the API for non-2xx responses.
type Error struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
	Type    string `json:"type"`
	Version string `json:"version"`
}

func (e *Error) Error() string {
	return e.Message
}

// toError converts a failed response into an *Error, filling the message
// from the HTTP status when the body was not a JSON error document.
func toError(resp *resty.Response) error {
	apiErr, _ := resp.Error().(*Error)
	if apiErr == nil {
		apiErr = &Error{}
	}
	if apiErr.Code == 0 {
		apiErr.Code = resp.StatusCode()
	}
	if apiErr.Message == "" {
		body := strings.TrimSpace(string(resp.Body()))
		if body != "" {
			apiErr.Message = fmt.Sprintf("%s: %s", resp.Status(), body)
		} else {
			apiErr.Message = resp.Status()
		}
	}
	return apiErr
}
