// Package paddle talks to a PaddleOCR model served over HTTP with
// `hub serving start -m ch_pp-ocrv3`.
package paddle

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"time"

	"docintel/pkg/models"
	"docintel/pkg/services/ocr"
)

var (
	_ ocr.Engine  = (*Client)(nil)
	_ ocr.Checker = (*Client)(nil)
)

const statusOK = "000"

type Client struct {
	url    string
	client *http.Client
}

type Option func(*Client)

func WithClient(client *http.Client) Option {
	return func(c *Client) {
		c.client = client
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.client = &http.Client{Timeout: timeout}
		}
	}
}

// New returns a client for the prediction endpoint at rawURL.
func New(rawURL string, options ...Option) (*Client, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("invalid paddle url %q: %w", rawURL, ocr.ErrEngineUnavailable)
	}

	c := &Client{
		url:    rawURL,
		client: http.DefaultClient,
	}
	for _, option := range options {
		option(c)
	}
	return c, nil
}

func (c *Client) Name() string { return models.EnginePaddle }

// Check dials the serving host.
func (c *Client) Check(ctx context.Context) error {
	u, _ := url.Parse(c.url)
	host := u.Host
	if u.Port() == "" {
		port := "80"
		if u.Scheme == "https" {
			port = "443"
		}
		host = net.JoinHostPort(u.Hostname(), port)
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", host)
	if err != nil {
		return fmt.Errorf("paddle service at %s: %v: %w", host, err, ocr.ErrEngineUnavailable)
	}
	return conn.Close()
}

type predictRequest struct {
	Images []string `json:"images"`
}

type predictResponse struct {
	Msg     string         `json:"msg"`
	Status  string         `json:"status"`
	Results [][]textRegion `json:"results"`
}

type textRegion struct {
	Text       string      `json:"text"`
	Confidence float64     `json:"confidence"`
	TextRegion [][]float64 `json:"text_region"`
}

// Recognize sends the image and returns one block per detected text line.
func (c *Client) Recognize(ctx context.Context, imagePath string) (models.EngineResult, error) {
	data, err := os.ReadFile(imagePath)
	if err != nil {
		return models.EngineResult{}, fmt.Errorf("failed to read image: %w", err)
	}

	body, err := json.Marshal(predictRequest{
		Images: []string{base64.StdEncoding.EncodeToString(data)},
	})
	if err != nil {
		return models.EngineResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return models.EngineResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return models.EngineResult{}, fmt.Errorf("paddle request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return models.EngineResult{}, fmt.Errorf("paddle returned %s: %s", resp.Status, bytes.TrimSpace(msg))
	}

	var result predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return models.EngineResult{}, fmt.Errorf("failed to decode paddle response: %w", err)
	}
	if result.Status != statusOK {
		return models.EngineResult{}, errors.New("paddle error: " + result.Msg)
	}

	var blocks []models.TextBlock
	if len(result.Results) > 0 {
		for _, r := range result.Results[0] {
			blocks = append(blocks, models.TextBlock{
				Text:       r.Text,
				Confidence: r.Confidence,
				BBox:       ocr.BBoxFromPoints(r.TextRegion),
			})
		}
	}
	return models.NewEngineResult(models.EnginePaddle, blocks, "\n"), nil
}
