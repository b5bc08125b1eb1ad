// Package ml calls the external priority-scoring service. The service is
// best-effort: when it is down or slow, prediction falls back to Medium so
// report submission never blocks on it.
package ml

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

type Prediction struct {
	PriorityLevel int    `json:"priority_level"`
	PriorityText  string `json:"priority_text"`
}

// DefaultPrediction is used whenever the service cannot answer.
var DefaultPrediction = Prediction{PriorityLevel: 1, PriorityText: "Medium"}

// ReportFeatures are the categorical fields the model scores.
type ReportFeatures struct {
	ProblemCategory   string `json:"Problem_Category"`
	ReporterType      string `json:"Reporter_Type"`
	Location          string `json:"Location"`
	ClassNo           *int   `json:"class_No,omitempty"`
	ImpactScope       string `json:"Impact_Scope"`
	OccurrencePattern string `json:"Occurrence_Pattern"`
}

type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTP:    &http.Client{Timeout: timeout},
	}
}

// Healthy reports whether the service answers its health check.
func (c *Client) Healthy(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// Train triggers (re)training, optionally on synthetic data.
func (c *Client) Train(ctx context.Context, synthetic bool) error {
	url := fmt.Sprintf("%s/train?synthetic=%t", c.BaseURL, synthetic)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("ml train: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("ml train: status %d", resp.StatusCode)
	}
	return nil
}

// UpdatePriorities asks the service to rescore stored reports and returns
// how many it touched, parsed from the "Updated N reports" message.
func (c *Client) UpdatePriorities(ctx context.Context) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/update_priorities", nil)
	if err != nil {
		return 0, err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return 0, fmt.Errorf("ml update priorities: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, fmt.Errorf("ml update priorities: status %d", resp.StatusCode)
	}
	var body struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("ml update priorities: %w", err)
	}
	return parseUpdatedCount(body.Message), nil
}

// Predict scores one report. Any failure — connection refused, timeout,
// non-2xx, bad body — yields DefaultPrediction and a nil error; callers
// treat the score as advisory.
func (c *Client) Predict(ctx context.Context, features ReportFeatures) Prediction {
	payload, err := json.Marshal(features)
	if err != nil {
		return DefaultPrediction
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/predict", bytes.NewReader(payload))
	if err != nil {
		return DefaultPrediction
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return DefaultPrediction
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return DefaultPrediction
	}

	var p Prediction
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return DefaultPrediction
	}
	if p.PriorityText == "" {
		return DefaultPrediction
	}
	return p
}

// parseUpdatedCount pulls N out of "Updated N reports".
func parseUpdatedCount(msg string) int {
	fields := strings.Fields(msg)
	if len(fields) < 2 {
		return 0
	}
	n, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0
	}
	return n
}
