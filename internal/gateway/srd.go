package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// SRDClient reads the D&D 5e reference API.
type SRDClient struct {
	client *resty.Client
}

var _ Fetcher = (*SRDClient)(nil)

type indexResponse struct {
	Count   int        `json:"count"`
	Results []Resource `json:"results"`
}

// NewSRDClient creates a client for the API rooted at baseURL. Transport
// failures and 5xx replies are retried up to retries times.
func NewSRDClient(baseURL string, timeout time.Duration, retries int) *SRDClient {
	c := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json").
		SetTimeout(timeout).
		SetRetryCount(retries).
		SetRetryWaitTime(200 * time.Millisecond).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= http.StatusInternalServerError
		})
	return &SRDClient{client: c}
}

func (c *SRDClient) FetchIndex(ctx context.Context, category Category) ([]Resource, error) {
	if _, err := ParseCategory(string(category)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGateway, err)
	}

	body, err := c.get(ctx, "/api/"+string(category))
	if err != nil {
		return nil, err
	}
	var idx indexResponse
	if err := json.Unmarshal(body, &idx); err != nil {
		return nil, fmt.Errorf("%w: decoding %s index: %v", ErrGateway, category, err)
	}
	if idx.Results == nil {
		idx.Results = []Resource{}
	}
	return idx.Results, nil
}

func (c *SRDClient) FetchDetail(ctx context.Context, url string) (map[string]any, error) {
	if url == "" {
		return nil, fmt.Errorf("%w: empty resource url", ErrGateway)
	}
	body, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("%w: decoding %s: %v", ErrGateway, url, err)
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: %s returned no document", ErrGateway, url)
	}
	return doc, nil
}

func (c *SRDClient) get(ctx context.Context, url string) ([]byte, error) {
	resp, err := c.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("%w: fetching %s: %v", ErrGateway, url, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("%w: fetching %s: status %d", ErrGateway, url, resp.StatusCode())
	}
	return resp.Body(), nil
}
