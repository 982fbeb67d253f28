package catalog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/analisys/circulation-go/core"
)

const (
	defaultRequestTimeout = 3 * time.Second

	availablePathFormat    = "%s/books/%s/available"
	availabilityPathFormat = "%s/books/%s/availability"

	headerContentType = "Content-Type"
	contentTypeJSON   = "application/json"

	logMsgAvailabilityChecked = "catalog availability checked"
	logMsgAvailabilityUpdated = "catalog availability updated"
	logAttrBookID             = "book_id"
	logAttrAvailable          = "available"
	logAttrStatusCode         = "status_code"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	// ErrEmptyBaseURL is returned when the client is created without a base URL.
	ErrEmptyBaseURL = errors.New("catalog base URL must not be empty")

	// ErrInvalidBaseURL is returned when the configured base URL can not be parsed.
	ErrInvalidBaseURL = errors.New("catalog base URL is invalid")

	// ErrNilHTTPClient is returned when a nil HTTP client is supplied.
	ErrNilHTTPClient = errors.New("HTTP client must not be nil")

	// ErrRequestFailed is returned when the catalog can not be reached.
	ErrRequestFailed = errors.New("catalog request failed")

	// ErrUnexpectedStatus is returned when the catalog responds with a non-success status.
	ErrUnexpectedStatus = errors.New("catalog responded with unexpected status")

	// ErrDecodingResponseFailed is returned when the catalog response body can not be decoded.
	ErrDecodingResponseFailed = errors.New("decoding catalog response failed")
)

// Logger interface for operational messages and error reporting.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// availabilityPayload is the body of the availability update endpoint.
type availabilityPayload struct {
	Available bool `json:"available"`
}

// Client queries and updates book availability in the catalog service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     Logger
}

// Option defines a functional option for configuring a Client.
type Option func(*Client) error

// WithHTTPClient sets the HTTP client used for catalog requests.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) error {
		if httpClient == nil {
			return ErrNilHTTPClient
		}

		c.httpClient = httpClient

		return nil
	}
}

// WithLogger sets the logger for the Client.
func WithLogger(logger Logger) Option {
	return func(c *Client) error {
		c.logger = logger
		return nil
	}
}

// NewClient creates a catalog client for the service at baseURL with optional configuration.
func NewClient(baseURL string, options ...Option) (Client, error) {
	if baseURL == "" {
		return Client{}, ErrEmptyBaseURL
	}

	parsed, parseErr := url.Parse(baseURL)
	if parseErr != nil || parsed.Scheme == "" || parsed.Host == "" {
		return Client{}, fmt.Errorf("%w: %s", ErrInvalidBaseURL, baseURL)
	}

	c := Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultRequestTimeout},
	}

	for _, option := range options {
		if err := option(&c); err != nil {
			return Client{}, err
		}
	}

	return c, nil
}

// IsAvailable reports whether the book can currently be lent out.
func (c Client) IsAvailable(ctx context.Context, bookID core.BookIDString) (bool, error) {
	endpoint := fmt.Sprintf(availablePathFormat, c.baseURL, url.PathEscape(bookID))

	req, reqErr := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if reqErr != nil {
		return false, errors.Join(ErrRequestFailed, reqErr)
	}

	resp, doErr := c.httpClient.Do(req)
	if doErr != nil {
		return false, errors.Join(ErrRequestFailed, doErr)
	}

	defer c.closeBody(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	body, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return false, errors.Join(ErrDecodingResponseFailed, readErr)
	}

	var available bool
	if unmarshalErr := jsonAPI.Unmarshal(body, &available); unmarshalErr != nil {
		return false, errors.Join(ErrDecodingResponseFailed, unmarshalErr)
	}

	if c.logger != nil {
		c.logger.Debug(logMsgAvailabilityChecked, logAttrBookID, bookID, logAttrAvailable, available)
	}

	return available, nil
}

// SetAvailability marks the book as available or unavailable in the catalog.
func (c Client) SetAvailability(ctx context.Context, bookID core.BookIDString, available bool) error {
	endpoint := fmt.Sprintf(availabilityPathFormat, c.baseURL, url.PathEscape(bookID))

	body, marshalErr := jsonAPI.Marshal(availabilityPayload{Available: available})
	if marshalErr != nil {
		return errors.Join(ErrRequestFailed, marshalErr)
	}

	req, reqErr := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, bytes.NewReader(body))
	if reqErr != nil {
		return errors.Join(ErrRequestFailed, reqErr)
	}

	req.Header.Set(headerContentType, contentTypeJSON)

	resp, doErr := c.httpClient.Do(req)
	if doErr != nil {
		return errors.Join(ErrRequestFailed, doErr)
	}

	defer c.closeBody(resp.Body)

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	if c.logger != nil {
		c.logger.Debug(logMsgAvailabilityUpdated, logAttrBookID, bookID, logAttrAvailable, available)
	}

	return nil
}

func (c Client) closeBody(body io.ReadCloser) {
	if closeErr := body.Close(); closeErr != nil {
		if c.logger != nil {
			c.logger.Warn("failed to close response body", "error", closeErr.Error())
		}
	}
}
