package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"
)

// Page is one window of catalog search results. Total is the source-reported
// number of matching records across all pages.
type Page struct {
	Records []map[string]interface{}
	Total   int
}

// Client queries a GeoNetwork-style search endpoint page by page. The query
// template is posted as-is with the paging window injected, so operators can
// tune the upstream query without touching code.
type Client struct {
	httpClient *http.Client
	url        string
	userAgent  string
	template   map[string]interface{}
}

func NewClient(baseURL, searchEndpoint, userAgent string, template map[string]interface{}, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		url:        baseURL + searchEndpoint,
		userAgent:  userAgent,
		template:   template,
	}
}

// LoadQueryTemplate reads the JSON search body template from disk.
func LoadQueryTemplate(path string) (map[string]interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read query template '%s': %w", path, err)
	}
	var template map[string]interface{}
	if err := json.Unmarshal(data, &template); err != nil {
		return nil, fmt.Errorf("failed to parse query template: %w", err)
	}
	return template, nil
}

// totalCount accepts both forms GeoNetwork deployments return for
// hits.total: a bare integer or an object with a "value" field.
type totalCount int

func (t *totalCount) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*t = totalCount(n)
		return nil
	}
	var obj struct {
		Value int `json:"value"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("unexpected hits.total shape: %w", err)
	}
	*t = totalCount(obj.Value)
	return nil
}

type searchResponse struct {
	Hits struct {
		Total totalCount `json:"total"`
		Hits  []struct {
			Source map[string]interface{} `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// FetchPage requests records [offset, offset+size) from the catalog.
func (c *Client) FetchPage(ctx context.Context, offset, size int) (*Page, error) {
	body := make(map[string]interface{}, len(c.template)+2)
	for k, v := range c.template {
		body[k] = v
	}
	body["from"] = offset
	body["size"] = size

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog returned status %d", resp.StatusCode)
	}

	var decoded searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode catalog response: %w", err)
	}

	page := &Page{Total: int(decoded.Hits.Total)}
	for _, hit := range decoded.Hits.Hits {
		page.Records = append(page.Records, hit.Source)
	}
	return page, nil
}
