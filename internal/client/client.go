// Package client habla con la API HTTP de medilocator. Lo usa la CLI.
package client

import (
	"context"
	"net/url"
	"strings"
	"time"

	"medilocator/internal/platform/httpclient"
	"medilocator/internal/platform/logger"
)

type Location struct {
	Cabinet string `json:"cabinet"`
	Row     string `json:"row"`
	Box     string `json:"box"`
}

type Medicine struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Symptoms  []string  `json:"symptoms"`
	Location  Location  `json:"location"`
	Type      string    `json:"type"`
	Price     float64   `json:"price"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type PlanMedicine struct {
	MedicineID string   `json:"medicine_id"`
	Name       string   `json:"name"`
	Type       string   `json:"type"`
	Notes      string   `json:"notes"`
	Price      float64  `json:"price"`
	Location   Location `json:"location"`
}

type Plan struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Symptoms   []string       `json:"symptoms"`
	Medicines  []PlanMedicine `json:"medicines"`
	TotalPrice float64        `json:"total_price"`
	Notes      string         `json:"notes"`
	CreatedAt  time.Time      `json:"created_at"`
}

// SearchResult es la respuesta de los endpoints de búsqueda.
type SearchResult[T any] struct {
	QueryIssued bool `json:"query_issued"`
	Results     []T  `json:"results"`
}

type Client struct {
	http *httpclient.Client
}

func New(baseURL string, timeout time.Duration, log logger.Logger) (*Client, error) {
	hc, err := httpclient.New(httpclient.Options{
		BaseURL:   baseURL,
		Timeout:   timeout,
		UserAgent: "medilocator-cli",
		Logger:    log,
	})
	if err != nil {
		return nil, err
	}
	return &Client{http: hc}, nil
}

func (c *Client) SearchMedicines(ctx context.Context, term string) (SearchResult[Medicine], error) {
	return get[Medicine](ctx, c, "/medicines/search", url.Values{"q": {term}})
}

func (c *Client) MedicinesByLetter(ctx context.Context, letter string) (SearchResult[Medicine], error) {
	return get[Medicine](ctx, c, "/medicines/search", url.Values{"letter": {letter}})
}

func (c *Client) SearchSymptoms(ctx context.Context, tags []string) (SearchResult[Medicine], error) {
	return get[Medicine](ctx, c, "/medicines/symptoms", url.Values{"s": {strings.Join(tags, ",")}})
}

func (c *Client) SearchPlans(ctx context.Context, term string) (SearchResult[Plan], error) {
	return get[Plan](ctx, c, "/plans/search", url.Values{"q": {term}})
}

func (c *Client) SearchPlanSymptoms(ctx context.Context, tags []string) (SearchResult[Plan], error) {
	return get[Plan](ctx, c, "/plans/symptoms", url.Values{"s": {strings.Join(tags, ",")}})
}

func (c *Client) LookupPlans(ctx context.Context, key string) (SearchResult[Plan], error) {
	return get[Plan](ctx, c, "/plans/lookup", url.Values{"key": {key}})
}

func get[T any](ctx context.Context, c *Client, path string, q url.Values) (SearchResult[T], error) {
	var out SearchResult[T]
	if err := c.http.Get(ctx, path, q, &out); err != nil {
		return SearchResult[T]{}, err
	}
	if out.Results == nil {
		out.Results = []T{}
	}
	return out, nil
}
