package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hyperjump/mitsumori/internal/models"
)

// Client talks to a running mitsumori server.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient returns a client for the server at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Predict posts a price prediction request.
func (c *Client) Predict(ctx context.Context, req *models.PredictionRequest) (*models.PredictionResult, error) {
	var res models.PredictionResult
	if err := c.do(ctx, http.MethodPost, "/api/v1/ml/predict", req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// RecommendByHouseID asks for neighbours of a corpus house. A limit of 0 uses the server default.
func (c *Client) RecommendByHouseID(ctx context.Context, id, limit int) (*models.RecommendationResult, error) {
	path := "/api/v1/ml/recommend/" + strconv.Itoa(id)
	if limit > 0 {
		path += "?" + url.Values{"limit": {strconv.Itoa(limit)}}.Encode()
	}
	var res models.RecommendationResult
	if err := c.do(ctx, http.MethodGet, path, nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// RecommendByFeatures posts a recommend-by-features request.
func (c *Client) RecommendByFeatures(ctx context.Context, req *models.RecommendationRequest) (*models.RecommendationResult, error) {
	var res models.RecommendationResult
	if err := c.do(ctx, http.MethodPost, "/api/v1/ml/recommend", req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Status fetches the server status.
func (c *Client) Status(ctx context.Context) (*models.Status, error) {
	var st models.Status
	if err := c.do(ctx, http.MethodGet, "/api/v1/status", nil, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return responseError(resp.StatusCode, b)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// responseError turns a non-200 response into an error wrapping the matching sentinel.
func responseError(code int, body []byte) error {
	msg := strings.TrimSpace(string(body))
	var e struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &e) == nil && e.Error != "" {
		msg = e.Error
	}
	var sentinel error
	switch code {
	case http.StatusBadRequest:
		sentinel = models.ErrInvalidRequest
	case http.StatusNotFound:
		sentinel = models.ErrNotFound
	case http.StatusServiceUnavailable:
		sentinel = models.ErrModelNotLoaded
	default:
		return fmt.Errorf("server returned %d: %s", code, msg)
	}
	return fmt.Errorf("%w: server returned %d: %s", sentinel, code, msg)
}
