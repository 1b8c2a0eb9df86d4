package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client is a minimal REST client to Qdrant.
type Client struct {
	url        string
	apiKey     string
	collection string
	client     *http.Client
}

type Config struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
}

type Point struct {
	Id      string         `json:"id"`
	Vector  []float32      `json:"vector"`
	Payload map[string]any `json:"payload"`
}

type ScoredPoint struct {
	Id      any            `json:"id"`
	Score   float64        `json:"score"`
	Payload map[string]any `json:"payload"`
}

// Filter is the subset of Qdrant's filter language used here.
type Filter struct {
	Must    []Condition `json:"must,omitempty"`
	MustNot []Condition `json:"must_not,omitempty"`
}

type Condition struct {
	Key   string `json:"key"`
	Match Match  `json:"match"`
}

type Match struct {
	Any []string `json:"any"`
}

var ErrStatus = errors.New("qdrant request failed")

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		url:        strings.TrimRight(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		client:     &http.Client{Timeout: timeout},
	}
}

func (c *Client) collectionURL(suffix string) string {
	return fmt.Sprintf("%s/collections/%s%s", c.url, c.collection, suffix)
}

// EnsureCollection creates the collection with cosine distance when it does
// not exist yet. The keyword index on payloadKey is ensured either way;
// Qdrant accepts a repeated index creation.
func (c *Client) EnsureCollection(ctx context.Context, dimension int, payloadKey string) error {
	if dimension <= 0 {
		return errors.New("invalid dimension")
	}

	status, err := c.do(ctx, http.MethodGet, c.collectionURL(""), nil, nil)
	if err != nil && status != http.StatusNotFound {
		return err
	}
	if status != http.StatusOK {
		body := map[string]any{
			"vectors": map[string]any{
				"size":     dimension,
				"distance": "Cosine",
			},
		}
		if _, err := c.do(ctx, http.MethodPut, c.collectionURL(""), body, nil); err != nil {
			return err
		}
	}

	index := map[string]any{
		"field_name":   payloadKey,
		"field_schema": "keyword",
	}
	_, err = c.do(ctx, http.MethodPut, c.collectionURL("/index?wait=true"), index, nil)
	return err
}

func (c *Client) Upsert(ctx context.Context, points []Point) error {
	_, err := c.do(ctx, http.MethodPut, c.collectionURL("/points?wait=true"), map[string]any{"points": points}, nil)
	return err
}

func (c *Client) Search(ctx context.Context, vector []float32, limit int) ([]ScoredPoint, error) {
	req := map[string]any{
		"vector":       vector,
		"limit":        limit,
		"with_payload": true,
	}
	var resp struct {
		Result []ScoredPoint `json:"result"`
	}
	if _, err := c.do(ctx, http.MethodPost, c.collectionURL("/points/search"), req, &resp); err != nil {
		return nil, err
	}
	return resp.Result, nil
}

func (c *Client) Count(ctx context.Context, filter *Filter) (int64, error) {
	req := map[string]any{"exact": true}
	if filter != nil {
		req["filter"] = filter
	}
	var resp struct {
		Result struct {
			Count int64 `json:"count"`
		} `json:"result"`
	}
	if _, err := c.do(ctx, http.MethodPost, c.collectionURL("/points/count"), req, &resp); err != nil {
		return 0, err
	}
	return resp.Result.Count, nil
}

func (c *Client) Delete(ctx context.Context, filter *Filter) error {
	if filter == nil {
		filter = &Filter{}
	}
	_, err := c.do(ctx, http.MethodPost, c.collectionURL("/points/delete?wait=true"), map[string]any{"filter": filter}, nil)
	return err
}

func (c *Client) do(ctx context.Context, method, url string, body any, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("api-key", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return resp.StatusCode, fmt.Errorf("%w: %s %s: %s %s", ErrStatus, method, url, resp.Status, strings.TrimSpace(string(msg)))
	}
	if out != nil {
		return resp.StatusCode, json.NewDecoder(resp.Body).Decode(out)
	}
	return resp.StatusCode, nil
}
