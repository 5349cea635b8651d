// Package metastore implements the generic query/mutation client for the
// host platform's structured object store.
package metastore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-delivery-timelines/core"
)

const (
	defaultRequestTimeout    = 30 * time.Second
	maxResponseBodyBytes     = 1 << 20
	accessTokenHeader        = "X-Access-Token"
	defaultContentTypeHeader = "application/json"
)

type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type ClientConfig struct {
	Endpoint       string
	AccessToken    string
	RequestTimeout time.Duration
	HTTPClient     HTTPDoer
}

// Client talks to the store's single query/mutation endpoint. It surfaces
// transport failures and store-reported errors as categorized errors so a
// failed call is never mistaken for an empty result.
type Client struct {
	config     ClientConfig
	httpClient HTTPDoer
}

func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		config: ClientConfig{
			Endpoint:       strings.TrimSpace(cfg.Endpoint),
			AccessToken:    strings.TrimSpace(cfg.AccessToken),
			RequestTimeout: timeout,
		},
		httpClient: httpClient,
	}
}

type envelope struct {
	Data   json.RawMessage `json:"data"`
	Errors []topLevelError `json:"errors"`
}

type topLevelError struct {
	Message string `json:"message"`
}

func (c *Client) Execute(ctx context.Context, query string, variables map[string]any) (json.RawMessage, error) {
	if c == nil || c.httpClient == nil {
		return nil, core.TimelineError(
			"metastore: client is not configured",
			goerrors.CategoryInternal,
			nil,
		)
	}
	endpoint := strings.TrimSpace(c.config.Endpoint)
	if endpoint == "" {
		return nil, core.TimelineError(
			"metastore: endpoint is required",
			goerrors.CategoryBadInput,
			nil,
		)
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, core.TimelineError(
			"metastore: query is required",
			goerrors.CategoryBadInput,
			map[string]any{"endpoint": endpoint},
		)
	}

	payload := map[string]any{"query": query}
	if variables != nil {
		payload["variables"] = variables
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, core.TimelineWrapError(
			err,
			goerrors.CategoryBadInput,
			"metastore: marshal request payload",
			map[string]any{"endpoint": endpoint},
		)
	}

	if ctx == nil {
		ctx = context.Background()
	}
	requestCtx := ctx
	cancel := func() {}
	if c.config.RequestTimeout > 0 {
		requestCtx, cancel = context.WithTimeout(ctx, c.config.RequestTimeout)
	}
	defer cancel()

	httpReq, err := http.NewRequestWithContext(requestCtx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, core.TimelineWrapError(
			err,
			goerrors.CategoryInternal,
			"metastore: build request",
			map[string]any{"endpoint": endpoint},
		)
	}
	httpReq.Header.Set("Content-Type", defaultContentTypeHeader)
	httpReq.Header.Set("Accept", defaultContentTypeHeader)
	if c.config.AccessToken != "" {
		httpReq.Header.Set(accessTokenHeader, c.config.AccessToken)
	}

	response, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, core.TimelineWrapError(
			err,
			goerrors.CategoryExternal,
			"metastore: store call failed",
			map[string]any{"endpoint": endpoint},
		)
	}
	defer response.Body.Close()

	raw, readErr := io.ReadAll(io.LimitReader(response.Body, maxResponseBodyBytes+1))
	if readErr != nil {
		return nil, core.TimelineWrapError(
			readErr,
			goerrors.CategoryExternal,
			"metastore: read store response",
			map[string]any{"endpoint": endpoint},
		)
	}
	if int64(len(raw)) > maxResponseBodyBytes {
		return nil, core.TimelineError(
			fmt.Sprintf("metastore: store response exceeds %d bytes", maxResponseBodyBytes),
			goerrors.CategoryExternal,
			map[string]any{"endpoint": endpoint},
		)
	}
	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		return nil, core.TimelineError(
			fmt.Sprintf("metastore: store returned status %d", response.StatusCode),
			goerrors.CategoryExternal,
			map[string]any{"endpoint": endpoint, "status_code": response.StatusCode},
		)
	}

	var parsed envelope
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, core.TimelineWrapError(
			err,
			goerrors.CategoryExternal,
			"metastore: decode store response",
			map[string]any{"endpoint": endpoint},
		)
	}
	if len(parsed.Errors) > 0 {
		messages := make([]string, 0, len(parsed.Errors))
		for _, item := range parsed.Errors {
			if message := strings.TrimSpace(item.Message); message != "" {
				messages = append(messages, message)
			}
		}
		return nil, core.TimelineError(
			"metastore: store reported errors: "+strings.Join(messages, "; "),
			goerrors.CategoryExternal,
			map[string]any{"endpoint": endpoint, "error_count": len(parsed.Errors)},
		)
	}
	if len(parsed.Data) == 0 {
		return nil, core.TimelineError(
			"metastore: store response missing data",
			goerrors.CategoryExternal,
			map[string]any{"endpoint": endpoint},
		)
	}
	return parsed.Data, nil
}
